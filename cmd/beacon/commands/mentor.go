package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codecraft/beacon/internal/printer"
	"github.com/codecraft/beacon/internal/store"
)

var (
	mentorName      string
	mentorSpecialty string
	mentorBio       string
	mentorPhone     string
	mentorEmail     string
	mentorVisible   bool
)

var mentorCmd = &cobra.Command{
	Use:   "mentor",
	Short: "Manage the mentor collection",
}

var mentorCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a mentor",
	RunE:  runMentorCreate,
}

var mentorUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a mentor",
	Args:  cobra.ExactArgs(1),
	RunE:  runMentorUpdate,
}

var mentorDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a mentor",
	Args:  cobra.ExactArgs(1),
	RunE:  runMentorDelete,
}

var mentorUndoCmd = &cobra.Command{
	Use:   "undo <id>",
	Short: "Revert the mentor's most recent change",
	Args:  cobra.ExactArgs(1),
	RunE:  runMentorUndo,
}

func init() {
	for _, c := range []*cobra.Command{mentorCreateCmd, mentorUpdateCmd} {
		c.Flags().StringVar(&mentorName, "name", "", "Mentor name")
		c.Flags().StringVar(&mentorSpecialty, "specialty", "", "Mentor specialty")
		c.Flags().StringVar(&mentorBio, "bio", "", "Mentor bio")
		c.Flags().StringVar(&mentorPhone, "phone", "", "Mentor phone")
		c.Flags().StringVar(&mentorEmail, "email", "", "Mentor email")
		c.Flags().BoolVar(&mentorVisible, "visible", false, "Whether the mentor is publicly visible")
	}

	mentorCmd.AddCommand(mentorCreateCmd, mentorUpdateCmd, mentorDeleteCmd, mentorUndoCmd)
	rootCmd.AddCommand(mentorCmd)
}

func mentorStore() (*storeHandle, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	bus := buildBus(cfg)
	st, err := buildStore(cfg, bus)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return &storeHandle{store: st, close: func() { bus.Close() }}, nil
}

type storeHandle struct {
	store *store.Store
	close func()
}

func runMentorCreate(cmd *cobra.Command, args []string) error {
	h, err := mentorStore()
	if err != nil {
		return err
	}
	defer h.close()

	created, err := h.store.CreateMentor(cmd.Context(), store.Mentor{
		Name:      mentorName,
		Specialty: mentorSpecialty,
		Bio:       mentorBio,
		Phone:     mentorPhone,
		Email:     mentorEmail,
		Visible:   mentorVisible,
	})
	if err != nil {
		return mentorError("Cannot create mentor", err)
	}

	printer.Success("Mentor created: %s (%s)\n", created.Name, created.ID)
	return nil
}

func runMentorUpdate(cmd *cobra.Command, args []string) error {
	h, err := mentorStore()
	if err != nil {
		return err
	}
	defer h.close()

	patch := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("name") {
		patch["name"] = mentorName
	}
	if flags.Changed("specialty") {
		patch["specialty"] = mentorSpecialty
	}
	if flags.Changed("bio") {
		patch["bio"] = mentorBio
	}
	if flags.Changed("phone") {
		patch["phone"] = mentorPhone
	}
	if flags.Changed("email") {
		patch["email"] = mentorEmail
	}
	if flags.Changed("visible") {
		patch["visible"] = mentorVisible
	}
	if len(patch) == 0 {
		return printer.Error("Nothing to update", "Pass at least one field flag.", nil)
	}

	updated, err := h.store.UpdateMentor(cmd.Context(), args[0], patch)
	if err != nil {
		return mentorError("Cannot update mentor", err)
	}

	printer.Success("Mentor updated: %s (%s)\n", updated.Name, updated.ID)
	return nil
}

func runMentorDelete(cmd *cobra.Command, args []string) error {
	h, err := mentorStore()
	if err != nil {
		return err
	}
	defer h.close()

	if err := h.store.DeleteMentor(cmd.Context(), args[0]); err != nil {
		return mentorError("Cannot delete mentor", err)
	}

	printer.Success("Mentor deleted: %s\n", args[0])
	return nil
}

func runMentorUndo(cmd *cobra.Command, args []string) error {
	h, err := mentorStore()
	if err != nil {
		return err
	}
	defer h.close()

	if err := h.store.UndoMentor(cmd.Context(), args[0]); err != nil {
		return mentorError("Cannot undo mentor change", err)
	}

	printer.Success("Reverted most recent change for mentor %s\n", args[0])
	return nil
}

// mentorError maps store errors to actionable CLI errors.
func mentorError(title string, err error) error {
	switch {
	case store.IsValidation(err):
		return printer.Error(title, err.Error(), []string{"Mentors require --name, --specialty and --bio"})
	case errors.Is(err, store.ErrNotFound):
		return printer.Error(title, "No mentor with that id.", []string{"Run 'beacon list mentors' to see ids"})
	case errors.Is(err, store.ErrNoHistory):
		return printer.Error(title, "This mentor has no recorded changes to revert.", nil)
	default:
		return printer.Error(title, fmt.Sprintf("%v", err), nil)
	}
}
