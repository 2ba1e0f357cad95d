package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Transport moves messages between contexts. The bus code is
// transport-agnostic: ChannelTransport uses Redis Pub/Sub and is the primary
// mechanism; PollingTransport writes to a well-known key and polls it,
// covering deployments where Pub/Sub is unavailable (e.g. some managed Redis
// proxies).
type Transport interface {
	// Send delivers a message to other contexts. Best-effort.
	Send(ctx context.Context, msg Message) error

	// Receive returns a channel of messages from other contexts. The
	// channel is closed when ctx is cancelled or the transport is closed.
	Receive(ctx context.Context) (<-chan Message, error)

	// Close releases transport resources. Implements io.Closer.
	Close() error
}

// ChannelTransport delivers messages over a Redis Pub/Sub channel namespaced
// by instance name.
type ChannelTransport struct {
	rdb          *redis.Client
	instanceName string

	mu     sync.Mutex
	pubsub *redis.PubSub
}

// NewChannelTransport creates the Pub/Sub transport for the given instance.
// Returns an error if instanceName is empty.
func NewChannelTransport(redisOpts *redis.Options, instanceName string) (*ChannelTransport, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	return &ChannelTransport{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
	}, nil
}

// Send publishes the message to the instance updates channel.
func (t *ChannelTransport) Send(ctx context.Context, msg Message) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := t.rdb.Publish(ctx, UpdatesChannel(t.instanceName), raw).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Receive subscribes to the instance updates channel and decodes messages.
// Malformed payloads are skipped.
//
// Events are delivered on a buffered channel (size 16) to reduce blocking.
// Slow receivers may miss messages - Redis Pub/Sub is at-most-once delivery.
func (t *ChannelTransport) Receive(ctx context.Context) (<-chan Message, error) {
	t.mu.Lock()
	pubsub := t.rdb.Subscribe(ctx, UpdatesChannel(t.instanceName))
	t.pubsub = pubsub
	t.mu.Unlock()

	out := make(chan Message, 16)

	go func() {
		defer close(out)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				var msg Message
				if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Close closes the subscription and the Redis connection.
func (t *ChannelTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pubsub != nil {
		_ = t.pubsub.Close()
	}
	return t.rdb.Close()
}

// broadcastRecord is the value PollingTransport stores at the broadcast key.
// Seq increases monotonically so receivers can tell a fresh write from one
// they have already delivered.
type broadcastRecord struct {
	Seq     int64   `json:"seq"`
	Message Message `json:"message"`
}

// PollingTransport is the fallback transport: Send overwrites a single
// well-known key and receivers poll it. Only the latest message is
// observable - overlapping writes lose intermediate messages, which is
// acceptable under the bus's best-effort contract.
type PollingTransport struct {
	rdb          *redis.Client
	instanceName string
	interval     time.Duration
}

// DefaultPollInterval matches the storage-event latency the fallback is
// standing in for.
const DefaultPollInterval = 200 * time.Millisecond

// NewPollingTransport creates the polling fallback transport. A
// non-positive interval falls back to DefaultPollInterval.
func NewPollingTransport(redisOpts *redis.Options, instanceName string, interval time.Duration) (*PollingTransport, error) {
	if instanceName == "" {
		return nil, fmt.Errorf("instance name cannot be empty")
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingTransport{
		rdb:          redis.NewClient(redisOpts),
		instanceName: instanceName,
		interval:     interval,
	}, nil
}

// Send writes the message with the next sequence number to the broadcast key.
func (t *PollingTransport) Send(ctx context.Context, msg Message) error {
	seq, err := t.rdb.Incr(ctx, BroadcastKey(t.instanceName)+":seq").Result()
	if err != nil {
		return fmt.Errorf("failed to advance broadcast sequence: %w", err)
	}

	raw, err := json.Marshal(broadcastRecord{Seq: seq, Message: msg})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast record: %w", err)
	}

	if err := t.rdb.Set(ctx, BroadcastKey(t.instanceName), raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to write broadcast record: %w", err)
	}
	return nil
}

// Receive polls the broadcast key and delivers records with an unseen
// sequence number. Records already present at subscribe time are skipped so
// a new receiver does not replay the last message.
func (t *PollingTransport) Receive(ctx context.Context) (<-chan Message, error) {
	// Baseline: ignore whatever is already there.
	lastSeq, err := t.currentSeq(ctx)
	if err != nil {
		return nil, err
	}

	out := make(chan Message, 16)

	go func() {
		defer close(out)

		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rec, err := t.read(ctx)
				if err != nil || rec == nil {
					continue
				}
				if rec.Seq <= lastSeq {
					continue
				}
				lastSeq = rec.Seq
				select {
				case out <- rec.Message:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (t *PollingTransport) currentSeq(ctx context.Context) (int64, error) {
	rec, err := t.read(ctx)
	if err != nil {
		return 0, err
	}
	if rec == nil {
		return 0, nil
	}
	return rec.Seq, nil
}

func (t *PollingTransport) read(ctx context.Context) (*broadcastRecord, error) {
	raw, err := t.rdb.Get(ctx, BroadcastKey(t.instanceName)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read broadcast record: %w", err)
	}

	var rec broadcastRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal broadcast record: %w", err)
	}
	return &rec, nil
}

// Close closes the Redis connection.
func (t *PollingTransport) Close() error {
	return t.rdb.Close()
}
