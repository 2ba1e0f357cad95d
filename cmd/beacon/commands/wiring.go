package commands

import (
	"github.com/redis/go-redis/v9"

	"github.com/codecraft/beacon/internal/config"
	"github.com/codecraft/beacon/internal/printer"
	"github.com/codecraft/beacon/internal/store"
	"github.com/codecraft/beacon/pkg/realtime"
)

// loadConfig reads the configured beacon.yml, translating the usual failure
// into an actionable CLI error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, printer.Error(
			"Cannot load configuration",
			err.Error(),
			[]string{"Run 'beacon init' to create a beacon.yml", "Pass --config to point at an existing file"},
		)
	}
	return cfg, nil
}

func redisOptions(cfg *config.Config) *redis.Options {
	return &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}

// buildBus constructs the realtime bus on the configured transport. A
// transport construction failure degrades to a loopback-only bus rather than
// failing the command: publish must keep working locally.
func buildBus(cfg *config.Config) *realtime.Bus {
	var transport realtime.Transport
	var err error
	if cfg.Sync.FallbackTransport {
		transport, err = realtime.NewPollingTransport(redisOptions(cfg), cfg.Instance, 0)
	} else {
		transport, err = realtime.NewChannelTransport(redisOptions(cfg), cfg.Instance)
	}
	if err != nil {
		printer.Warning("realtime transport unavailable, running loopback-only: %v\n", err)
		transport = nil
	}
	return realtime.NewBus(transport)
}

// buildStore constructs the store over the configured persistence backend.
func buildStore(cfg *config.Config, bus *realtime.Bus) (*store.Store, error) {
	var adapter store.Adapter
	var err error
	switch cfg.Storage.Backend {
	case "file":
		adapter, err = store.NewFileAdapter(cfg.Storage.Path)
	case "memory":
		adapter = store.NewMemoryAdapter()
	default:
		adapter, err = store.NewRedisAdapter(redisOptions(cfg), cfg.Instance)
	}
	if err != nil {
		return nil, printer.Error("Cannot open storage backend", err.Error(), nil)
	}
	return store.New(adapter, bus), nil
}
