package coordinator

import "github.com/codecraft/beacon/internal/fetch"

// Status is the lifecycle state of a refresh cycle.
// Cycles move Idle -> Syncing -> (Success | Error) and re-enter on every
// trigger. Silent refreshes skip the Syncing/loading transition so the UI
// never shows a spinner for background work.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSyncing Status = "syncing"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Resource is one named collection endpoint the coordinator keeps fresh.
type Resource struct {
	Key string
	URL string
}

// Snapshot is the last-known state of every resource, keyed by resource key.
// Order within a collection is the server-returned order.
type Snapshot map[string][]fetch.Entity

// clone copies the map so callers can hold a snapshot across later refreshes.
func (s Snapshot) clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		entities := make([]fetch.Entity, len(v))
		copy(entities, v)
		out[k] = entities
	}
	return out
}
