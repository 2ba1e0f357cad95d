package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/redis/go-redis/v9"
)

// ErrNotSeeded is returned by Adapter.Load when no document has ever been
// persisted. The store reacts by seeding the default document.
var ErrNotSeeded = errors.New("store not seeded")

// Adapter is the persistence boundary: a single namespaced slot holding the
// entire serialized document. Save must be atomic - once it returns, the
// document is durable and readers in any context observe the new value.
type Adapter interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// StoreKey returns the Redis key holding the serialized document.
// Pattern: beacon:{instance_name}:store
func StoreKey(instanceName string) string {
	return fmt.Sprintf("beacon:%s:store", instanceName)
}

// RedisAdapter persists the document as a single Redis string value. This is
// the production adapter: all contexts sharing the instance observe every
// Save.
type RedisAdapter struct {
	rdb          *redis.Client
	instanceName string
}

// NewRedisAdapter creates a Redis-backed adapter for the given instance.
// Returns an error if instanceName is empty.
func NewRedisAdapter(redisOpts *redis.Options, instanceName string) (*RedisAdapter, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	return &RedisAdapter{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Load reads the document. Returns ErrNotSeeded when the key is absent.
func (a *RedisAdapter) Load(ctx context.Context) ([]byte, error) {
	raw, err := a.rdb.Get(ctx, StoreKey(a.instanceName)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotSeeded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store from Redis: %w", err)
	}
	return raw, nil
}

// Save writes the document. Redis SET is atomic.
func (a *RedisAdapter) Save(ctx context.Context, data []byte) error {
	if err := a.rdb.Set(ctx, StoreKey(a.instanceName), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write store to Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection. Implements io.Closer.
func (a *RedisAdapter) Close() error {
	return a.rdb.Close()
}

// FileAdapter persists the document to a local JSON file. Saves go through a
// temp file and rename so a crash mid-write never leaves a torn document.
type FileAdapter struct {
	path string
}

// NewFileAdapter creates a file-backed adapter. The parent directory is
// created on first Save.
func NewFileAdapter(path string) (*FileAdapter, error) {
	if path == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	return &FileAdapter{path: path}, nil
}

// Load reads the document. Returns ErrNotSeeded when the file is absent.
func (a *FileAdapter) Load(ctx context.Context) ([]byte, error) {
	data, err := os.ReadFile(a.path)
	if os.IsNotExist(err) {
		return nil, ErrNotSeeded
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	return data, nil
}

// Save writes the document atomically (temp file + rename).
func (a *FileAdapter) Save(ctx context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(a.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".store-*")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp store file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp store file: %w", err)
	}

	if err := os.Rename(tmpName, a.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}

// MemoryAdapter keeps the document in memory. Used by tests and throwaway
// environments.
type MemoryAdapter struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryAdapter creates an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{}
}

// Load returns the stored bytes, or ErrNotSeeded before the first Save.
func (a *MemoryAdapter) Load(ctx context.Context) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.data == nil {
		return nil, ErrNotSeeded
	}
	out := make([]byte, len(a.data))
	copy(out, a.data)
	return out, nil
}

// Save stores a copy of the bytes.
func (a *MemoryAdapter) Save(ctx context.Context, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.data = make([]byte, len(data))
	copy(a.data, data)
	return nil
}
