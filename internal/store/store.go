// Package store implements the durable, versioned entity store behind the
// admin platform: named collections persisted as one JSON document, a
// per-collection history log with single-step undo, and change notification
// through the realtime bus.
//
// Side effects of every mutation are strictly ordered: validate, mutate
// in-memory, persist, then publish. The history append rides in the same
// persisted document as the entity change, so persist+history is a single
// atomic write. A failure at validation short-circuits before any side
// effect; subscribers that react to an event by reading the store never
// observe a stale value.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/codecraft/beacon/pkg/realtime"
)

// entity is the constraint shared by all collection element types.
type entity[T any] interface {
	EntityID() string
	WithID(id string) T
	Validate() error
}

// collection binds a document field to its name and change event.
type collection[T entity[T]] struct {
	name string
	get  func(*Document) []T
	set  func(*Document, []T)
}

var (
	usersCol = collection[User]{
		name: CollectionUsers,
		get:  func(d *Document) []User { return d.Users },
		set:  func(d *Document, v []User) { d.Users = v },
	}
	mentorsCol = collection[Mentor]{
		name: CollectionMentors,
		get:  func(d *Document) []Mentor { return d.Mentors },
		set:  func(d *Document, v []Mentor) { d.Mentors = v },
	}
	projectsCol = collection[Project]{
		name: CollectionProjects,
		get:  func(d *Document) []Project { return d.Projects },
		set:  func(d *Document, v []Project) { d.Projects = v },
	}
	desafiosCol = collection[Desafio]{
		name: CollectionDesafios,
		get:  func(d *Document) []Desafio { return d.Desafios },
		set:  func(d *Document, v []Desafio) { d.Desafios = v },
	}
	financeCol = collection[FinanceEntry]{
		name: CollectionFinance,
		get:  func(d *Document) []FinanceEntry { return d.Finance },
		set:  func(d *Document, v []FinanceEntry) { d.Finance = v },
	}
)

// event is a pending bus publication, emitted only after persist succeeded
// and the store lock is released.
type event struct {
	typ     string
	payload any
}

// Store owns the persisted document. All mutations go through it; nothing
// else writes the persistence slot, so there is exactly one writer per
// context. A Store is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	adapter Adapter
	bus     *realtime.Bus
}

// New creates a store over the given persistence adapter. The bus may be nil
// for callers that do not need change notifications (tests, one-shot CLI
// reads).
func New(adapter Adapter, bus *realtime.Bus) *Store {
	return &Store{adapter: adapter, bus: bus}
}

// EnsureSeeded initializes the default document when no persisted data
// exists. Idempotent: with existing data it is a no-op.
func (s *Store) EnsureSeeded(ctx context.Context) error {
	s.mu.Lock()
	_, seeded, err := s.ensure(ctx)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if seeded {
		s.publish(storeChanged())
	}
	return nil
}

// ensure loads the current document, seeding it first when the adapter
// reports empty. Caller must hold s.mu.
func (s *Store) ensure(ctx context.Context) (*Document, bool, error) {
	raw, err := s.adapter.Load(ctx)
	if err == ErrNotSeeded {
		doc := defaultDocument()
		if err := s.persist(ctx, doc); err != nil {
			return nil, false, err
		}
		return doc, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal store document: %w", err)
	}
	if doc.History == nil {
		doc.History = map[string][]HistoryEntry{}
	}
	return &doc, false, nil
}

// persist serializes and saves the document. Caller must hold s.mu.
func (s *Store) persist(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal store document: %w", err)
	}
	if err := s.adapter.Save(ctx, raw); err != nil {
		return fmt.Errorf("failed to persist store document: %w", err)
	}
	return nil
}

func (s *Store) publish(events ...event) {
	if s.bus == nil {
		return
	}
	for _, ev := range events {
		s.bus.Publish(ev.typ, ev.payload)
	}
}

func storeChanged() event {
	return event{typ: realtime.EventStoreChanged, payload: map[string]any{"ts": time.Now().UnixMilli()}}
}

func collectionChanged[T entity[T]](col collection[T], list []T) event {
	return event{typ: col.name + "_changed", payload: map[string]any{col.name: list}}
}

// appendLog adds an audit log line to the in-memory document; persisted with
// the mutation it describes.
func appendLog(doc *Document, logType, message string) {
	doc.Logs = append(doc.Logs, LogEntry{
		ID:      uuid.New().String(),
		Type:    logType,
		At:      time.Now().UTC(),
		Message: message,
	})
}

// mergePatch applies a JSON merge patch to an entity. The id field is
// immutable and stripped from the patch.
func mergePatch[T any](current T, patch map[string]any) (T, error) {
	var out T

	base, err := json.Marshal(current)
	if err != nil {
		return out, fmt.Errorf("failed to marshal entity: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(base, &m); err != nil {
		return out, fmt.Errorf("failed to unmarshal entity: %w", err)
	}

	for k, v := range patch {
		if k == "id" {
			continue
		}
		m[k] = v
	}

	merged, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("failed to marshal merged entity: %w", err)
	}
	if err := json.Unmarshal(merged, &out); err != nil {
		return out, fmt.Errorf("failed to apply patch: %w", err)
	}
	return out, nil
}

// toPatch converts a full entity value into a patch covering every field,
// used by the upsert operations to replace an existing entity wholesale.
func toPatch(e any) (map[string]any, error) {
	raw, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal entity: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return m, nil
}

// createIn appends a validated entity to a collection, assigning a UUID when
// the entity carries no id.
func createIn[T entity[T]](ctx context.Context, s *Store, col collection[T], e T, logType, logMsg string) (T, error) {
	var zero T

	s.mu.Lock()
	doc, _, err := s.ensure(ctx)
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}

	if err := e.Validate(); err != nil {
		s.mu.Unlock()
		return zero, err
	}

	if e.EntityID() == "" {
		e = e.WithID(uuid.New().String())
	}

	list := append(col.get(doc), e)
	col.set(doc, list)
	doc.History[col.name] = append(doc.History[col.name], newHistoryEntry(e.EntityID(), ChangeCreate, nil, e))
	appendLog(doc, logType, logMsg)

	if err := s.persist(ctx, doc); err != nil {
		s.mu.Unlock()
		return zero, err
	}
	s.mu.Unlock()

	s.publish(storeChanged(), collectionChanged(col, list))
	return e, nil
}

// updateIn merge-patches an existing entity and re-validates the result.
func updateIn[T entity[T]](ctx context.Context, s *Store, col collection[T], id string, patch map[string]any, logType, logMsg string) (T, error) {
	var zero T

	s.mu.Lock()
	doc, _, err := s.ensure(ctx)
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}

	list := col.get(doc)
	idx := indexOf(list, id)
	if idx < 0 {
		s.mu.Unlock()
		return zero, ErrNotFound
	}

	before := list[idx]
	after, err := mergePatch(before, patch)
	if err != nil {
		s.mu.Unlock()
		return zero, err
	}
	if err := after.Validate(); err != nil {
		s.mu.Unlock()
		return zero, err
	}

	list[idx] = after
	col.set(doc, list)
	doc.History[col.name] = append(doc.History[col.name], newHistoryEntry(id, ChangeUpdate, before, after))
	appendLog(doc, logType, logMsg)

	if err := s.persist(ctx, doc); err != nil {
		s.mu.Unlock()
		return zero, err
	}
	s.mu.Unlock()

	s.publish(storeChanged(), collectionChanged(col, list))
	return after, nil
}

// deleteIn removes an entity, recording its final state for undo.
func deleteIn[T entity[T]](ctx context.Context, s *Store, col collection[T], id string, logType, logMsg string) error {
	s.mu.Lock()
	doc, _, err := s.ensure(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	list := col.get(doc)
	idx := indexOf(list, id)
	if idx < 0 {
		s.mu.Unlock()
		return ErrNotFound
	}

	before := list[idx]
	list = append(list[:idx], list[idx+1:]...)
	col.set(doc, list)
	doc.History[col.name] = append(doc.History[col.name], newHistoryEntry(id, ChangeDelete, before, nil))
	appendLog(doc, logType, logMsg)

	if err := s.persist(ctx, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(storeChanged(), collectionChanged(col, list))
	return nil
}

// undoIn reverses the entity's most recent non-undo mutation: a create is
// removed, an update restores its before state, a delete re-inserts the
// removed entity. An undo marker entry is appended so the reversal itself is
// auditable.
func undoIn[T entity[T]](ctx context.Context, s *Store, col collection[T], id string, logType, logMsg string) error {
	s.mu.Lock()
	doc, _, err := s.ensure(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	last := lastChange(doc.History[col.name], id)
	if last == nil {
		s.mu.Unlock()
		return ErrNoHistory
	}

	list := col.get(doc)
	switch last.Kind {
	case ChangeCreate:
		idx := indexOf(list, id)
		if idx >= 0 {
			list = append(list[:idx], list[idx+1:]...)
		}
	case ChangeUpdate:
		var before T
		if err := json.Unmarshal(last.Before, &before); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to decode history entry: %w", err)
		}
		if idx := indexOf(list, id); idx >= 0 {
			list[idx] = before
		}
	case ChangeDelete:
		var before T
		if err := json.Unmarshal(last.Before, &before); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to decode history entry: %w", err)
		}
		list = append(list, before)
	}

	col.set(doc, list)
	doc.History[col.name] = append(doc.History[col.name], newHistoryEntry(id, ChangeUndo, nil, nil))
	appendLog(doc, logType, logMsg)

	if err := s.persist(ctx, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(storeChanged(), collectionChanged(col, list))
	return nil
}

// listIn returns a copy of a collection.
func listIn[T entity[T]](ctx context.Context, s *Store, col collection[T]) ([]T, error) {
	s.mu.Lock()
	doc, seeded, err := s.ensure(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if seeded {
		s.publish(storeChanged())
	}

	list := col.get(doc)
	out := make([]T, len(list))
	copy(out, list)
	return out, nil
}

func indexOf[T entity[T]](list []T, id string) int {
	for i, e := range list {
		if e.EntityID() == id {
			return i
		}
	}
	return -1
}
