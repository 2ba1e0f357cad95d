package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codecraft/beacon/pkg/realtime"
)

// eventRecorder captures every bus event in publication order. Loopback
// delivery is synchronous, so assertions can run right after the mutation.
type eventRecorder struct {
	types    []string
	payloads []json.RawMessage
}

func (r *eventRecorder) record(bus *realtime.Bus, eventTypes ...string) {
	for _, eventType := range eventTypes {
		eventType := eventType
		bus.Subscribe(eventType, func(payload json.RawMessage) {
			r.types = append(r.types, eventType)
			r.payloads = append(r.payloads, payload)
		})
	}
}

func (r *eventRecorder) reset() {
	r.types = nil
	r.payloads = nil
}

func setupTestStore(t *testing.T) (*Store, *MemoryAdapter, *eventRecorder) {
	t.Helper()
	adapter := NewMemoryAdapter()
	bus := realtime.NewBus(nil)
	t.Cleanup(func() { bus.Close() })

	rec := &eventRecorder{}
	rec.record(bus,
		realtime.EventStoreChanged,
		realtime.EventMentorsChanged,
		realtime.EventProjectsChanged,
		realtime.EventDesafiosChanged,
		realtime.EventFinanceChanged,
		realtime.EventUsersChanged,
	)

	return New(adapter, bus), adapter, rec
}

func TestEnsureSeededIsIdempotent(t *testing.T) {
	s, adapter, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.EnsureSeeded(ctx))
	first, err := adapter.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, s.EnsureSeeded(ctx))
	second, err := adapter.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second, "re-seeding must not rewrite existing data")

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	assert.Len(t, mentors, 3)
}

func TestFirstAccessSeedsDefaults(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "admin@codecraft.dev", users[0].Email)

	cfg, err := s.SiteConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "CodeCraft Gen-Z", cfg.Name)
	assert.Equal(t, "#D12BF2", cfg.Primary)
}

func TestCreateMentor(t *testing.T) {
	s, _, rec := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSeeded(ctx))
	rec.reset()

	created, err := s.CreateMentor(ctx, Mentor{Name: "Novo Mentor", Specialty: "Go", Bio: "Backend."})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "draft", created.Status, "new mentors start as drafts")

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	assert.Len(t, mentors, 4)

	history, err := s.History(ctx, CollectionMentors)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ChangeCreate, history[0].Kind)
	assert.Equal(t, created.ID, history[0].EntityID)
	assert.Nil(t, history[0].Before)
	assert.NotNil(t, history[0].After)

	// Every mutation publishes store_changed plus the collection event, and
	// the collection event carries the full updated list.
	require.Equal(t, []string{realtime.EventStoreChanged, realtime.EventMentorsChanged}, rec.types)
	var payload struct {
		Mentors []Mentor `json:"mentors"`
	}
	require.NoError(t, json.Unmarshal(rec.payloads[1], &payload))
	assert.Len(t, payload.Mentors, 4)
}

func TestCreateMentorValidationFailureHasNoSideEffects(t *testing.T) {
	s, _, rec := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSeeded(ctx))
	rec.reset()

	_, err := s.CreateMentor(ctx, Mentor{Name: "Sem Bio", Specialty: "Go"})
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Contains(t, err.Error(), "bio")

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	assert.Len(t, mentors, 3, "failed create must not change the collection")

	history, err := s.History(ctx, CollectionMentors)
	require.NoError(t, err)
	assert.Empty(t, history, "failed create must not record history")

	assert.Empty(t, rec.types, "failed create must not publish events")
}

func TestUpdateMentor(t *testing.T) {
	s, _, rec := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSeeded(ctx))
	rec.reset()

	updated, err := s.UpdateMentor(ctx, "m1", map[string]any{"specialty": "Web Vitals"})
	require.NoError(t, err)
	assert.Equal(t, "Web Vitals", updated.Specialty)
	assert.Equal(t, "Ana Silva", updated.Name, "unpatched fields survive the merge")

	history, err := s.History(ctx, CollectionMentors)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ChangeUpdate, history[0].Kind)

	var before Mentor
	require.NoError(t, json.Unmarshal(history[0].Before, &before))
	assert.Equal(t, "Frontend Performance", before.Specialty)

	assert.Equal(t, []string{realtime.EventStoreChanged, realtime.EventMentorsChanged}, rec.types)
}

func TestUpdateMentorIDIsImmutable(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	updated, err := s.UpdateMentor(ctx, "m1", map[string]any{"id": "hacked", "phone": "(11) 90000-0000"})
	require.NoError(t, err)
	assert.Equal(t, "m1", updated.ID)
	assert.Equal(t, "(11) 90000-0000", updated.Phone)
}

func TestUpdateMentorRejectsInvalidMerge(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateMentor(ctx, "m1", map[string]any{"bio": ""})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Foco em arquitetura front e web vitals.", mentors[0].Bio)
}

func TestUpdateMentorNotFound(t *testing.T) {
	s, _, _ := setupTestStore(t)

	_, err := s.UpdateMentor(context.Background(), "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteMentor(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteMentor(ctx, "m2"))

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	require.Len(t, mentors, 2)
	for _, m := range mentors {
		assert.NotEqual(t, "m2", m.ID)
	}

	assert.ErrorIs(t, s.DeleteMentor(ctx, "m2"), ErrNotFound)
}

func TestUndoCreateRemovesEntity(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreateMentor(ctx, Mentor{Name: "Temp", Specialty: "Go", Bio: "x"})
	require.NoError(t, err)

	require.NoError(t, s.UndoMentor(ctx, created.ID))

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	assert.Len(t, mentors, 3)
}

func TestUndoUpdateRestoresBeforeState(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateMentor(ctx, "m1", map[string]any{"specialty": "Changed"})
	require.NoError(t, err)

	require.NoError(t, s.UndoMentor(ctx, "m1"))

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Frontend Performance", mentors[0].Specialty)
}

func TestUndoDeleteReinsertsEntity(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteMentor(ctx, "m3"))
	require.NoError(t, s.UndoMentor(ctx, "m3"))

	mentors, err := s.ListMentors(ctx)
	require.NoError(t, err)
	require.Len(t, mentors, 3)

	found := false
	for _, m := range mentors {
		if m.ID == "m3" {
			found = true
			assert.Equal(t, "Carla Mendes", m.Name)
		}
	}
	assert.True(t, found, "deleted mentor must be re-inserted")
}

func TestUndoAppendsMarkerEntry(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpdateMentor(ctx, "m1", map[string]any{"phone": "1"})
	require.NoError(t, err)
	require.NoError(t, s.UndoMentor(ctx, "m1"))

	history, err := s.History(ctx, CollectionMentors)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ChangeUpdate, history[0].Kind)
	assert.Equal(t, ChangeUndo, history[1].Kind)
}

func TestUndoWithoutHistory(t *testing.T) {
	s, _, _ := setupTestStore(t)

	err := s.UndoMentor(context.Background(), "m1")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestUndoSkipsEarlierUndoMarkers(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	// Two updates, then two undos: the second undo must target the first
	// update, not the undo marker left by the first.
	_, err := s.UpdateMentor(ctx, "m1", map[string]any{"specialty": "First"})
	require.NoError(t, err)
	_, err = s.UpdateMentor(ctx, "m1", map[string]any{"specialty": "Second"})
	require.NoError(t, err)

	require.NoError(t, s.UndoMentor(ctx, "m1"))
	mentors, _ := s.ListMentors(ctx)
	assert.Equal(t, "First", mentors[0].Specialty)

	require.NoError(t, s.UndoMentor(ctx, "m1"))
	mentors, _ = s.ListMentors(ctx)
	assert.Equal(t, "Frontend Performance", mentors[0].Specialty)
}

func TestUpsertProject(t *testing.T) {
	s, _, rec := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSeeded(ctx))
	rec.reset()

	t.Run("creates without id", func(t *testing.T) {
		created, err := s.UpsertProject(ctx, Project{Title: "Novo Projeto"})
		require.NoError(t, err)
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, "draft", created.Status)

		projects, err := s.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 4)
	})

	t.Run("replaces with known id", func(t *testing.T) {
		updated, err := s.UpsertProject(ctx, Project{ID: "p1", Title: "Site Gen-Z v2", Status: "ongoing", Price: 1800})
		require.NoError(t, err)
		assert.Equal(t, "Site Gen-Z v2", updated.Title)

		projects, err := s.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 4, "replace must not grow the collection")
	})

	t.Run("creates with unknown id", func(t *testing.T) {
		created, err := s.UpsertProject(ctx, Project{ID: "p99", Title: "Importado"})
		require.NoError(t, err)
		assert.Equal(t, "p99", created.ID)

		projects, err := s.ListProjects(ctx)
		require.NoError(t, err)
		assert.Len(t, projects, 5)
	})

	t.Run("rejects missing title", func(t *testing.T) {
		_, err := s.UpsertProject(ctx, Project{})
		assert.True(t, IsValidation(err))
	})
}

func TestUndoProject(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertProject(ctx, Project{ID: "p1", Title: "Renamed", Status: "ongoing"})
	require.NoError(t, err)

	require.NoError(t, s.UndoProject(ctx, "p1"))

	projects, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Site Gen-Z", projects[0].Title)
}

func TestUpsertDesafioDefaults(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	created, err := s.UpsertDesafio(ctx, Desafio{Name: "Novo Desafio"})
	require.NoError(t, err)
	assert.Equal(t, "ativo", created.Status)
	assert.True(t, created.Visible)
}

func TestUpdateFinance(t *testing.T) {
	s, _, rec := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.EnsureSeeded(ctx))
	rec.reset()

	updated, err := s.UpdateFinance(ctx, "f3", map[string]any{"status": "paid"})
	require.NoError(t, err)
	assert.Equal(t, "paid", updated.Status)
	assert.Equal(t, float64(2300), updated.Valor)

	assert.Equal(t, []string{realtime.EventStoreChanged, realtime.EventFinanceChanged}, rec.types)
}

func TestCreateUser(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	created, err := s.CreateUser(ctx, User{Name: "Viewer", Email: "viewer@codecraft.dev"})
	require.NoError(t, err)
	assert.Equal(t, "viewer", created.Role)
	assert.Equal(t, "active", created.Status)

	_, err = s.CreateUser(ctx, User{Name: "Dup", Email: "viewer@codecraft.dev"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestVerifyCredentials(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		u, err := s.VerifyCredentials(ctx, "admin@codecraft.dev", "Admin!123")
		require.NoError(t, err)
		assert.Equal(t, "u1", u.ID)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := s.VerifyCredentials(ctx, "admin@codecraft.dev", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := s.VerifyCredentials(ctx, "nobody@codecraft.dev", "x")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("inactive account", func(t *testing.T) {
		_, err := s.UpdateUser(ctx, "u1", map[string]any{"status": "disabled"})
		require.NoError(t, err)

		_, err = s.VerifyCredentials(ctx, "admin@codecraft.dev", "Admin!123")
		assert.ErrorIs(t, err, ErrUserInactive)
	})
}

func TestListLogsNewestFirst(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddLog(ctx, "custom", "primeira"))
	require.NoError(t, s.AddLog(ctx, "custom", "segunda"))

	logs, err := s.ListLogs(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(logs), 3)
	assert.Equal(t, "segunda", logs[0].Message)
	assert.Equal(t, "primeira", logs[1].Message)
}

func TestMutationsAppendAuditLogs(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	_, err := s.CreateMentor(ctx, Mentor{Name: "X", Specialty: "Y", Bio: "Z"})
	require.NoError(t, err)

	logs, err := s.ListLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mentor_create", logs[0].Type)
}

func TestSubscriberObservesPersistedState(t *testing.T) {
	adapter := NewMemoryAdapter()
	bus := realtime.NewBus(nil)
	defer bus.Close()
	s := New(adapter, bus)
	ctx := context.Background()
	require.NoError(t, s.EnsureSeeded(ctx))

	// A handler that reads the store on the event must see the new value,
	// never the pre-mutation one.
	var seen int
	bus.Subscribe(realtime.EventMentorsChanged, func(json.RawMessage) {
		mentors, err := s.ListMentors(ctx)
		require.NoError(t, err)
		seen = len(mentors)
	})

	_, err := s.CreateMentor(ctx, Mentor{Name: "X", Specialty: "Y", Bio: "Z"})
	require.NoError(t, err)
	assert.Equal(t, 4, seen)
}

func TestStoreWorksWithoutBus(t *testing.T) {
	s := New(NewMemoryAdapter(), nil)
	ctx := context.Background()

	require.NoError(t, s.EnsureSeeded(ctx))
	_, err := s.CreateMentor(ctx, Mentor{Name: "X", Specialty: "Y", Bio: "Z"})
	assert.NoError(t, err)
}
