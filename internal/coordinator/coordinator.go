// Package coordinator keeps a local snapshot of several named resource
// collections fresh via periodic polling and on-demand refresh. Resources
// are fetched in parallel and failures are isolated per resource: one slow
// or broken endpoint degrades only its own collection, never the siblings.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/codecraft/beacon/internal/fetch"
	"github.com/codecraft/beacon/pkg/realtime"
)

// DefaultInterval is the auto-refresh period when the config does not set one.
const DefaultInterval = 30 * time.Second

// Options configures a Coordinator.
type Options struct {
	// AutoRefresh starts a background timer that silently refreshes every
	// Interval - but only while the coordinator is not in error state.
	// A failing backend is retried on the next manual refresh, not hammered
	// by the timer.
	AutoRefresh bool
	Interval    time.Duration

	// MaxRetries is passed through to the fetcher per resource request.
	MaxRetries int

	// OnUpdate fires after a fully successful cycle with the merged snapshot.
	OnUpdate func(Snapshot)

	// OnError fires after a cycle in which at least one resource failed,
	// with the aggregated error message.
	OnError func(string)
}

// Coordinator owns the sync state for one set of resources. Exactly one
// refresh cycle is live at a time: starting a new cycle cancels the in-flight
// one, and a superseded cycle discards its results even if it settles last.
type Coordinator struct {
	fetcher   *fetch.Client
	resources []Resource
	opts      Options

	mu          sync.Mutex
	data        Snapshot
	status      Status
	errMsg      string
	loading     bool
	lastUpdate  time.Time
	generation  uint64
	cycleCancel context.CancelFunc

	unsubs    []func()
	stopTick  chan struct{}
	closeOnce sync.Once
}

// New creates a coordinator for the given resources and, if configured,
// starts the auto-refresh timer. The initial snapshot holds an empty
// collection per resource key.
func New(fetcher *fetch.Client, resources []Resource, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = fetch.DefaultMaxRetries
	}

	c := &Coordinator{
		fetcher:   fetcher,
		resources: resources,
		opts:      opts,
		data:      make(Snapshot, len(resources)),
		status:    StatusIdle,
		stopTick:  make(chan struct{}),
	}
	for _, r := range resources {
		c.data[r.Key] = []fetch.Entity{}
	}

	if opts.AutoRefresh {
		go c.tick()
	}

	return c
}

// tick runs the auto-refresh loop until Close.
func (c *Coordinator) tick() {
	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopTick:
			return
		case <-ticker.C:
			if c.Err() != "" {
				continue
			}
			c.SilentRefresh(context.Background())
		}
	}
}

// ForceRefresh refetches every resource, toggling the loading indicator.
// It blocks until all resource fetches settle.
func (c *Coordinator) ForceRefresh(ctx context.Context) {
	c.refresh(ctx, true, nil)
}

// SilentRefresh is ForceRefresh without the loading indicator; used by the
// auto-refresh timer and by post-mutation revalidation.
func (c *Coordinator) SilentRefresh(ctx context.Context) {
	c.refresh(ctx, false, nil)
}

// InvalidateAndRefresh refetches only the named resource keys and patches
// just those into the snapshot, leaving the others untouched. Unknown keys
// are ignored. With no keys it behaves like ForceRefresh.
func (c *Coordinator) InvalidateAndRefresh(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		c.ForceRefresh(ctx)
		return
	}
	c.refresh(ctx, false, keys)
}

// BindBus subscribes the coordinator to change events: every delivery
// triggers a silent refresh. Events carry no authoritative data - they are
// purely "something changed, re-fetch truth" signals.
func (c *Coordinator) BindBus(bus *realtime.Bus, eventTypes ...string) {
	for _, eventType := range eventTypes {
		unsub := bus.Subscribe(eventType, func(payload json.RawMessage) {
			// Handlers must not block; the refresh fan-in waits on I/O.
			go c.SilentRefresh(context.Background())
		})
		c.mu.Lock()
		c.unsubs = append(c.unsubs, unsub)
		c.mu.Unlock()
	}
}

// outcome is one resource's settled fetch result.
type outcome struct {
	key      string
	entities []fetch.Entity
	err      error
}

// refresh runs one coordinated cycle over the selected resources (nil =
// all). It supersedes any in-flight cycle and applies results only if it is
// still the newest cycle when its fetches settle (last-started-wins).
func (c *Coordinator) refresh(ctx context.Context, showLoading bool, keys []string) {
	subset := c.selectResources(keys)
	if len(subset) == 0 {
		return
	}

	c.mu.Lock()
	c.generation++
	myGen := c.generation
	if c.cycleCancel != nil {
		c.cycleCancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	c.cycleCancel = cancel
	if showLoading {
		c.loading = true
		c.status = StatusSyncing
	}
	c.errMsg = ""
	c.mu.Unlock()

	// Fan out one fetch per resource and wait for all of them. Never
	// short-circuit on first failure: the snapshot composes independent
	// collections and the healthy ones must still land.
	results := make([]outcome, len(subset))
	var wg sync.WaitGroup
	for i, res := range subset {
		wg.Add(1)
		go func(i int, res Resource) {
			defer wg.Done()
			entities, err := c.fetcher.GetCollection(cycleCtx, res.URL, c.opts.MaxRetries)
			results[i] = outcome{key: res.Key, entities: entities, err: err}
		}(i, res)
	}
	wg.Wait()

	c.mu.Lock()
	if c.generation != myGen {
		// A newer cycle started while we were in flight; its results win
		// regardless of completion order.
		c.mu.Unlock()
		return
	}

	if cycleCtx.Err() != nil {
		// The whole cycle was aborted (caller cancellation or Close):
		// no result, not an error.
		c.loading = false
		c.status = StatusIdle
		c.mu.Unlock()
		return
	}

	var failures []string
	for _, res := range results {
		switch {
		case res.err == nil:
			c.data[res.key] = res.entities
		case fetch.IsAborted(res.err):
			// Stale snapshot retained; nothing to report.
		default:
			// Failed resource keeps its previous snapshot value.
			failures = append(failures, fmt.Sprintf("failed to load %s: %v", res.key, res.err))
		}
	}

	c.lastUpdate = time.Now()
	c.loading = false

	var onUpdate func(Snapshot)
	var onError func(string)
	var snapshot Snapshot
	var errMsg string

	if len(failures) > 0 {
		c.status = StatusError
		c.errMsg = "sync errors: " + strings.Join(failures, ", ")
		errMsg = c.errMsg
		onError = c.opts.OnError
	} else {
		c.status = StatusSuccess
		c.errMsg = ""
		snapshot = c.data.clone()
		onUpdate = c.opts.OnUpdate
	}
	c.mu.Unlock()

	// Callbacks run outside the lock so they may call back into the
	// coordinator.
	if onError != nil {
		onError(errMsg)
	}
	if onUpdate != nil {
		onUpdate(snapshot)
	}
}

// selectResources maps requested keys to configured resources, preserving
// configuration order. nil selects everything.
func (c *Coordinator) selectResources(keys []string) []Resource {
	if keys == nil {
		return c.resources
	}
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		wanted[k] = true
	}
	var subset []Resource
	for _, res := range c.resources {
		if wanted[res.Key] {
			subset = append(subset, res)
		}
	}
	return subset
}

// Data returns a copy of the current snapshot.
func (c *Coordinator) Data() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data.clone()
}

// Status returns the current cycle status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Err returns the aggregated error message of the last cycle, or "" when the
// last cycle fully succeeded.
func (c *Coordinator) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Loading reports whether a forced refresh is in flight.
func (c *Coordinator) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastUpdate returns the completion time of the most recent applied cycle.
func (c *Coordinator) LastUpdate() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUpdate
}

// Close stops the auto-refresh timer, detaches bus subscriptions and aborts
// any in-flight cycle. Safe to call multiple times.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		close(c.stopTick)

		c.mu.Lock()
		unsubs := c.unsubs
		c.unsubs = nil
		// Bump the generation so the aborted cycle cannot apply its
		// results during teardown.
		c.generation++
		if c.cycleCancel != nil {
			c.cycleCancel()
		}
		c.mu.Unlock()

		for _, unsub := range unsubs {
			unsub()
		}
	})
	return nil
}
