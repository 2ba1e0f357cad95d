package commands

import (
	"github.com/spf13/cobra"

	"github.com/codecraft/beacon/internal/printer"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the admin store with default data",
	Long: `Initialize the persisted admin store with the default seed
collections. Idempotent: an already-seeded store is left untouched.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bus := buildBus(cfg)
	defer bus.Close()

	st, err := buildStore(cfg, bus)
	if err != nil {
		return err
	}

	if err := st.EnsureSeeded(cmd.Context()); err != nil {
		return printer.Error("Seeding failed", err.Error(), nil)
	}

	printer.Success("Store seeded for instance '%s'\n", cfg.Instance)
	return nil
}
