package store

import (
	"context"
	"fmt"
)

// Mentor operations

// ListMentors returns the mentor collection, seeding the store on first
// access.
func (s *Store) ListMentors(ctx context.Context) ([]Mentor, error) {
	return listIn(ctx, s, mentorsCol)
}

// CreateMentor validates and appends a mentor. New mentors default to an
// unpublished draft until the admin flips visibility.
func (s *Store) CreateMentor(ctx context.Context, m Mentor) (Mentor, error) {
	if m.Status == "" {
		m.Status = "draft"
	}
	return createIn(ctx, s, mentorsCol, m, "mentor_create", "Mentor criado")
}

// UpdateMentor merge-patches the mentor and re-validates the merged result.
func (s *Store) UpdateMentor(ctx context.Context, id string, patch map[string]any) (Mentor, error) {
	return updateIn(ctx, s, mentorsCol, id, patch, "mentor_update", "Mentor atualizado")
}

// DeleteMentor removes the mentor, keeping its final state in history.
func (s *Store) DeleteMentor(ctx context.Context, id string) error {
	return deleteIn(ctx, s, mentorsCol, id, "mentor_delete", "Mentor removido")
}

// UndoMentor reverses the mentor's most recent mutation.
func (s *Store) UndoMentor(ctx context.Context, id string) error {
	return undoIn(ctx, s, mentorsCol, id, "mentor_undo", "Alteração revertida")
}

// Project operations

// ListProjects returns the project collection.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	return listIn(ctx, s, projectsCol)
}

// UpsertProject creates the project when its id is empty or unknown and
// replaces it otherwise.
func (s *Store) UpsertProject(ctx context.Context, p Project) (Project, error) {
	if p.Status == "" {
		p.Status = "draft"
	}

	if p.ID != "" {
		patch, err := toPatch(p)
		if err != nil {
			return Project{}, err
		}
		updated, err := updateIn(ctx, s, projectsCol, p.ID, patch, "project_update", fmt.Sprintf("Projeto atualizado: %s", p.Title))
		if err != ErrNotFound {
			return updated, err
		}
	}

	return createIn(ctx, s, projectsCol, p, "project_create", fmt.Sprintf("Projeto criado: %s", p.Title))
}

// UndoProject reverses the project's most recent mutation.
func (s *Store) UndoProject(ctx context.Context, id string) error {
	return undoIn(ctx, s, projectsCol, id, "project_undo", "Alteração revertida")
}

// Desafio operations

// ListDesafios returns the desafio collection.
func (s *Store) ListDesafios(ctx context.Context) ([]Desafio, error) {
	return listIn(ctx, s, desafiosCol)
}

// UpsertDesafio creates the desafio when its id is empty or unknown and
// replaces it otherwise. New desafios default to active and visible.
func (s *Store) UpsertDesafio(ctx context.Context, d Desafio) (Desafio, error) {
	if d.Status == "" {
		d.Status = "ativo"
		d.Visible = true
	}

	if d.ID != "" {
		patch, err := toPatch(d)
		if err != nil {
			return Desafio{}, err
		}
		updated, err := updateIn(ctx, s, desafiosCol, d.ID, patch, "desafio_update", fmt.Sprintf("Desafio atualizado: %s", d.Name))
		if err != ErrNotFound {
			return updated, err
		}
	}

	return createIn(ctx, s, desafiosCol, d, "desafio_create", fmt.Sprintf("Desafio criado: %s", d.Name))
}

// Finance operations

// ListFinance returns the finance ledger.
func (s *Store) ListFinance(ctx context.Context) ([]FinanceEntry, error) {
	return listIn(ctx, s, financeCol)
}

// UpdateFinance merge-patches a ledger row.
func (s *Store) UpdateFinance(ctx context.Context, id string, patch map[string]any) (FinanceEntry, error) {
	return updateIn(ctx, s, financeCol, id, patch, "finance_update", "Finance atualizado")
}

// User operations

// ListUsers returns the user collection.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	return listIn(ctx, s, usersCol)
}

// CreateUser appends a user after checking email uniqueness. New users
// default to active viewers.
func (s *Store) CreateUser(ctx context.Context, u User) (User, error) {
	if u.Role == "" {
		u.Role = "viewer"
	}
	if u.Status == "" {
		u.Status = "active"
	}

	existing, err := s.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, other := range existing {
		if other.Email == u.Email {
			return User{}, ErrEmailTaken
		}
	}

	return createIn(ctx, s, usersCol, u, "create_user", fmt.Sprintf("Usuário criado: %s", u.Email))
}

// UpdateUser merge-patches a user.
func (s *Store) UpdateUser(ctx context.Context, id string, patch map[string]any) (User, error) {
	return updateIn(ctx, s, usersCol, id, patch, "update_user", "Usuário atualizado")
}

// GetUserByEmail finds a user by email. Returns ErrNotFound when absent.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

// VerifyCredentials checks an email/password pair against the user
// collection. Inactive accounts are rejected even with a matching password.
func (s *Store) VerifyCredentials(ctx context.Context, email, password string) (User, error) {
	u, err := s.GetUserByEmail(ctx, email)
	if err == ErrNotFound {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if u.Status != "active" {
		return User{}, ErrUserInactive
	}
	if u.Password != password {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

// Logs and history

// AddLog appends an audit log line and persists it.
func (s *Store) AddLog(ctx context.Context, logType, message string) error {
	s.mu.Lock()
	doc, _, err := s.ensure(ctx)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	appendLog(doc, logType, message)
	if err := s.persist(ctx, doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.publish(storeChanged())
	return nil
}

// ListLogs returns audit log lines, newest first.
func (s *Store) ListLogs(ctx context.Context) ([]LogEntry, error) {
	s.mu.Lock()
	doc, seeded, err := s.ensure(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if seeded {
		s.publish(storeChanged())
	}

	out := make([]LogEntry, len(doc.Logs))
	for i, entry := range doc.Logs {
		out[len(doc.Logs)-1-i] = entry
	}
	return out, nil
}

// History returns the history log of one collection, oldest first.
func (s *Store) History(ctx context.Context, collectionName string) ([]HistoryEntry, error) {
	s.mu.Lock()
	doc, seeded, err := s.ensure(ctx)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if seeded {
		s.publish(storeChanged())
	}

	entries := doc.History[collectionName]
	out := make([]HistoryEntry, len(entries))
	copy(out, entries)
	return out, nil
}

// SiteConfig returns the branding settings.
func (s *Store) SiteConfig(ctx context.Context) (SiteConfig, error) {
	s.mu.Lock()
	doc, seeded, err := s.ensure(ctx)
	s.mu.Unlock()
	if err != nil {
		return SiteConfig{}, err
	}
	if seeded {
		s.publish(storeChanged())
	}
	return doc.Config, nil
}
