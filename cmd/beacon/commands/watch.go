package commands

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecraft/beacon/internal/printer"
	"github.com/codecraft/beacon/pkg/realtime"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print change events as they arrive",
	Long: `Subscribe to all change events on the instance and print one line
per event until interrupted. Useful for verifying that mutations in one
context reach the others.

Examples:
  # Watch the default instance
  beacon watch

  # Watch a specific instance
  beacon --config prod.yml watch`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchedEvents is every event type the store publishes.
var watchedEvents = []string{
	realtime.EventStoreChanged,
	realtime.EventMentorsChanged,
	realtime.EventProjectsChanged,
	realtime.EventDesafiosChanged,
	realtime.EventFinanceChanged,
	realtime.EventUsersChanged,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	bus := buildBus(cfg)
	defer bus.Close()

	for _, eventType := range watchedEvents {
		eventType := eventType
		unsub := bus.Subscribe(eventType, func(payload json.RawMessage) {
			printer.Event("%s  %s  %s\n", time.Now().Format(time.TimeOnly), eventType, summarize(payload))
		})
		defer unsub()
	}

	printer.Info("Watching instance '%s' (Ctrl-C to stop)\n", cfg.Instance)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	printer.Info("\nStopped.\n")
	return nil
}

// summarize keeps event lines readable: small payloads verbatim, larger ones
// truncated.
func summarize(payload json.RawMessage) string {
	const max = 80
	s := string(payload)
	if len(s) > max {
		return s[:max] + "…"
	}
	return s
}
