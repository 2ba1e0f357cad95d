package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecraft/beacon/internal/printer"
)

var listCmd = &cobra.Command{
	Use:       "list <collection>",
	Short:     "List a store collection",
	Long:      "List the entities of one store collection: mentors, projects, desafios, finance, users or logs.",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"mentors", "projects", "desafios", "finance", "users", "logs"},
	RunE:      runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	h, err := mentorStore()
	if err != nil {
		return err
	}
	defer h.close()

	ctx := cmd.Context()

	switch args[0] {
	case "mentors":
		mentors, err := h.store.ListMentors(ctx)
		if err != nil {
			return printer.Error("Cannot list mentors", err.Error(), nil)
		}
		for _, m := range mentors {
			printer.Printf("%-38s %-20s %-24s visible=%v\n", m.ID, m.Name, m.Specialty, m.Visible)
		}
		printer.Info("%d mentors\n", len(mentors))

	case "projects":
		projects, err := h.store.ListProjects(ctx)
		if err != nil {
			return printer.Error("Cannot list projects", err.Error(), nil)
		}
		for _, p := range projects {
			printer.Printf("%-38s %-24s %-10s R$%.2f\n", p.ID, p.Title, p.Status, p.Price)
		}
		printer.Info("%d projects\n", len(projects))

	case "desafios":
		desafios, err := h.store.ListDesafios(ctx)
		if err != nil {
			return printer.Error("Cannot list desafios", err.Error(), nil)
		}
		for _, d := range desafios {
			printer.Printf("%-38s %-28s %-10s %dpts\n", d.ID, d.Name, d.Status, d.RecompensaPts)
		}
		printer.Info("%d desafios\n", len(desafios))

	case "finance":
		entries, err := h.store.ListFinance(ctx)
		if err != nil {
			return printer.Error("Cannot list finance entries", err.Error(), nil)
		}
		for _, f := range entries {
			printer.Printf("%-38s %-24s %-12s R$%.2f\n", f.ID, f.Item, f.Status, f.Valor)
		}
		printer.Info("%d finance entries\n", len(entries))

	case "users":
		users, err := h.store.ListUsers(ctx)
		if err != nil {
			return printer.Error("Cannot list users", err.Error(), nil)
		}
		for _, u := range users {
			printer.Printf("%-38s %-20s %-28s %s\n", u.ID, u.Name, u.Email, u.Role)
		}
		printer.Info("%d users\n", len(users))

	case "logs":
		logs, err := h.store.ListLogs(ctx)
		if err != nil {
			return printer.Error("Cannot list logs", err.Error(), nil)
		}
		for _, l := range logs {
			printer.Printf("%s  %-16s %s\n", l.At.Format("2006-01-02 15:04:05"), l.Type, l.Message)
		}

	default:
		return printer.Error(
			fmt.Sprintf("Unknown collection: %s", args[0]),
			"",
			[]string{"Valid collections: mentors, projects, desafios, finance, users, logs"},
		)
	}

	return nil
}
