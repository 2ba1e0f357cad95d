package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChangeKind classifies one history entry.
type ChangeKind string

const (
	ChangeCreate ChangeKind = "create"
	ChangeUpdate ChangeKind = "update"
	ChangeDelete ChangeKind = "delete"
	ChangeUndo   ChangeKind = "undo"
)

// Validate checks if the ChangeKind is a valid enum value.
func (k ChangeKind) Validate() error {
	switch k {
	case ChangeCreate, ChangeUpdate, ChangeDelete, ChangeUndo:
		return nil
	default:
		return fmt.Errorf("unknown change kind: %q", k)
	}
}

// HistoryEntry records one mutation's before/after state. Entries are
// append-only per collection and reference entities by id only - they never
// hold the only copy of current state. Replaying Before/After pairs forward
// reconstructs the collection; an undo reverses the entity's most recent
// entry that has not itself been undone.
type HistoryEntry struct {
	ID       string          `json:"id"`
	EntityID string          `json:"entityId"`
	Kind     ChangeKind      `json:"kind"`
	Before   json.RawMessage `json:"before,omitempty"`
	After    json.RawMessage `json:"after,omitempty"`
	At       time.Time       `json:"at"`
}

// newHistoryEntry marshals the before/after states into a fresh entry.
// Marshal failures cannot happen for store entity types; nil states are
// recorded as absent.
func newHistoryEntry(entityID string, kind ChangeKind, before, after any) HistoryEntry {
	entry := HistoryEntry{
		ID:       uuid.New().String(),
		EntityID: entityID,
		Kind:     kind,
		At:       time.Now().UTC(),
	}
	if before != nil {
		entry.Before, _ = json.Marshal(before)
	}
	if after != nil {
		entry.After, _ = json.Marshal(after)
	}
	return entry
}

// lastChange returns the entity's most recent entry that has not already
// been reversed. Each undo marker consumes one earlier mutation, so repeated
// undos walk backwards through the entity's history.
func lastChange(entries []HistoryEntry, entityID string) *HistoryEntry {
	undone := 0
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].EntityID != entityID {
			continue
		}
		if entries[i].Kind == ChangeUndo {
			undone++
			continue
		}
		if undone > 0 {
			undone--
			continue
		}
		return &entries[i]
	}
	return nil
}
