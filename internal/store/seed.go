package store

import "time"

// defaultDocument is the seed applied on first access to an empty store.
// Entity ids in the seed are fixed so the admin UI and tests can reference
// them; ids assigned at runtime are UUIDs.
func defaultDocument() *Document {
	now := time.Now().UTC()
	return &Document{
		Users: []User{
			{ID: "u1", Name: "Admin", Email: "admin@codecraft.dev", Role: "admin", Status: "active", Password: "Admin!123"},
		},
		Mentors: []Mentor{
			{ID: "m1", Name: "Ana Silva", Specialty: "Frontend Performance", Phone: "(11) 99999-1111", Email: "ana.silva@codecraft.dev", Bio: "Foco em arquitetura front e web vitals.", Visible: true, Status: "published"},
			{ID: "m2", Name: "Bruno Costa", Specialty: "Backend & Cloud", Phone: "(21) 98888-2222", Email: "bruno.costa@codecraft.dev", Bio: "Serviços escaláveis e APIs.", Visible: true, Status: "published"},
			{ID: "m3", Name: "Carla Mendes", Specialty: "UX Engineering", Phone: "(31) 97777-3333", Email: "carla.mendes@codecraft.dev", Bio: "Design Systems e prototipação.", Visible: true, Status: "published"},
		},
		Projects: []Project{
			{ID: "p1", Title: "Site Gen-Z", Owner: "Time Alpha", Status: "ongoing", Price: 1500, Tags: []string{"web"}, Visible: true},
			{ID: "p2", Title: "App Mobile", Owner: "Crafter 2", Status: "ongoing", Price: 2300, Tags: []string{"mobile"}, Visible: true},
			{ID: "p3", Title: "Design System", Owner: "Time Beta", Status: "draft", Price: 0, Tags: []string{"design"}, Visible: false},
		},
		Desafios: []Desafio{
			{ID: "d1", Name: "API Resiliente", Objetivo: "Circuit breaker", PrazoDias: 10, RecompensaPts: 300, Status: "ativo", Visible: true},
			{ID: "d2", Name: "Refatoração de Performance", Objetivo: "Otimizar TTI", PrazoDias: 14, RecompensaPts: 200, Status: "encerrado", Visible: false},
		},
		Finance: []FinanceEntry{
			{ID: "f1", Item: "Curso Front", Valor: 399, Status: "paid"},
			{ID: "f2", Item: "Desafio API", Valor: 0, Status: "scholarship"},
			{ID: "f3", Item: "Projeto Mobile", Valor: 2300, Status: "pending"},
			{ID: "f4", Item: "Projeto Web", Valor: 1500, Status: "paid"},
			{ID: "f5", Item: "Cupom DEV", Valor: -100, Status: "discount"},
		},
		Logs: []LogEntry{
			{ID: "l1", Type: "seed", At: now, Message: "Seeds iniciais aplicados"},
		},
		Config:  SiteConfig{Name: "CodeCraft Gen-Z", Primary: "#D12BF2", Accent: "#00E4F2"},
		History: map[string][]HistoryEntry{},
	}
}
