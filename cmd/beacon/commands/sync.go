package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecraft/beacon/internal/coordinator"
	"github.com/codecraft/beacon/internal/fetch"
	"github.com/codecraft/beacon/internal/printer"
)

var syncOnce bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Poll the configured resource endpoints",
	Long: `Run the sync coordinator against the configured resource endpoints.

By default it keeps running: refreshing on the configured interval and
whenever a change event arrives on the bus. With --once it performs a single
forced refresh, prints a summary and exits.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncOnce, "once", false, "Refresh once and exit")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Resources) == 0 {
		return printer.Error("No resources configured", "Add resource endpoints to beacon.yml before syncing.", nil)
	}

	resources := make([]coordinator.Resource, len(cfg.Resources))
	for i, res := range cfg.Resources {
		resources[i] = coordinator.Resource{Key: res.Key, URL: res.URL}
	}

	coord := coordinator.New(fetch.New(), resources, coordinator.Options{
		AutoRefresh: cfg.Sync.AutoRefresh && !syncOnce,
		Interval:    cfg.Interval(),
		MaxRetries:  cfg.Sync.MaxRetries,
		OnUpdate: func(snapshot coordinator.Snapshot) {
			for _, res := range resources {
				printer.Info("  %-12s %d entities\n", res.Key, len(snapshot[res.Key]))
			}
			printer.Success("Refreshed %d resources\n", len(resources))
		},
		OnError: func(msg string) {
			printer.Warning("%s\n", msg)
		},
	})
	defer coord.Close()

	if syncOnce {
		coord.ForceRefresh(cmd.Context())
		if errMsg := coord.Err(); errMsg != "" {
			return printer.Error("Sync finished with errors", errMsg, []string{"Unaffected resources kept their data"})
		}
		return nil
	}

	bus := buildBus(cfg)
	defer bus.Close()
	coord.BindBus(bus, watchedEvents...)

	printer.Info("Syncing instance '%s' every %s (Ctrl-C to stop)\n", cfg.Instance, cfg.Interval())
	coord.ForceRefresh(cmd.Context())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	if !coord.LastUpdate().IsZero() {
		printer.Info("\nLast update: %s\n", coord.LastUpdate().Format(time.RFC3339))
	}
	return nil
}
