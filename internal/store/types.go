package store

import "time"

// Document is the entire persisted store: a named set of entity collections
// plus the per-collection history log. It is serialized as a single JSON
// value under one namespaced key; every mutation rewrites it atomically.
type Document struct {
	Users    []User                    `json:"users"`
	Mentors  []Mentor                  `json:"mentors"`
	Projects []Project                 `json:"projects"`
	Desafios []Desafio                 `json:"desafios"`
	Finance  []FinanceEntry            `json:"finance"`
	Logs     []LogEntry                `json:"logs"`
	Config   SiteConfig                `json:"config"`
	History  map[string][]HistoryEntry `json:"history"`
}

// Collection names. These double as the prefix of the "<collection>_changed"
// event type each mutation publishes.
const (
	CollectionUsers    = "users"
	CollectionMentors  = "mentors"
	CollectionProjects = "projects"
	CollectionDesafios = "desafios"
	CollectionFinance  = "finance"
)

// User is an admin platform account.
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
	Password string `json:"password,omitempty"`
}

func (u User) EntityID() string { return u.ID }

// WithID returns a copy with the id set.
func (u User) WithID(id string) User { u.ID = id; return u }

// Validate checks the required user fields.
func (u User) Validate() error {
	if u.Name == "" {
		return &ValidationError{Field: "name"}
	}
	if u.Email == "" {
		return &ValidationError{Field: "email"}
	}
	return nil
}

// Mentor is a published mentor profile.
type Mentor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Specialty string `json:"specialty"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Bio       string `json:"bio"`
	Photo     string `json:"photo,omitempty"`
	Visible   bool   `json:"visible"`
	Status    string `json:"status"`
}

func (m Mentor) EntityID() string { return m.ID }

// WithID returns a copy with the id set.
func (m Mentor) WithID(id string) Mentor { m.ID = id; return m }

// Validate checks the required mentor fields: name, specialty and bio.
func (m Mentor) Validate() error {
	if m.Name == "" {
		return &ValidationError{Field: "name"}
	}
	if m.Specialty == "" {
		return &ValidationError{Field: "specialty"}
	}
	if m.Bio == "" {
		return &ValidationError{Field: "bio"}
	}
	return nil
}

// Project is a showcased client or community project.
type Project struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Owner   string   `json:"owner"`
	Status  string   `json:"status"`
	Price   float64  `json:"price"`
	Tags    []string `json:"tags,omitempty"`
	Visible bool     `json:"visible"`
}

func (p Project) EntityID() string { return p.ID }

// WithID returns a copy with the id set.
func (p Project) WithID(id string) Project { p.ID = id; return p }

// Validate checks the required project fields.
func (p Project) Validate() error {
	if p.Title == "" {
		return &ValidationError{Field: "title"}
	}
	return nil
}

// Desafio is a community challenge.
type Desafio struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Objetivo      string `json:"objetivo"`
	PrazoDias     int    `json:"prazoDias"`
	RecompensaPts int    `json:"recompensaPts"`
	Status        string `json:"status"`
	Visible       bool   `json:"visible"`
}

func (d Desafio) EntityID() string { return d.ID }

// WithID returns a copy with the id set.
func (d Desafio) WithID(id string) Desafio { d.ID = id; return d }

// Validate checks the required desafio fields.
func (d Desafio) Validate() error {
	if d.Name == "" {
		return &ValidationError{Field: "name"}
	}
	return nil
}

// FinanceEntry is one row of the finance ledger.
type FinanceEntry struct {
	ID     string  `json:"id"`
	Item   string  `json:"item"`
	Valor  float64 `json:"valor"`
	Status string  `json:"status"`
}

func (f FinanceEntry) EntityID() string { return f.ID }

// WithID returns a copy with the id set.
func (f FinanceEntry) WithID(id string) FinanceEntry { f.ID = id; return f }

// Validate checks the required finance fields.
func (f FinanceEntry) Validate() error {
	if f.Item == "" {
		return &ValidationError{Field: "item"}
	}
	return nil
}

// LogEntry is one audit log line. Logs are append-only and carry no history.
type LogEntry struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// SiteConfig holds the site branding settings.
type SiteConfig struct {
	Name    string `json:"name"`
	Primary string `json:"primary"`
	Accent  string `json:"accent"`
}
