package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codecraft/beacon/internal/printer"
)

var forceInit bool

const defaultConfig = `version: "1.0"
instance: default

redis:
  addr: localhost:6379

storage:
  backend: redis

sync:
  interval_seconds: 30
  max_retries: 3
  auto_refresh: true

resources:
  - key: crafters
    url: http://localhost:3001/api/sqlite/crafters
  - key: mentores
    url: http://localhost:3001/api/mentores?all=1
  - key: projetos
    url: http://localhost:3001/api/sqlite/projetos
  - key: equipes
    url: http://localhost:3001/api/sqlite/equipes
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default beacon.yml",
	Long: `Create a beacon.yml with the default instance, Redis connection and
resource endpoints. Use --force to overwrite an existing file.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing beacon.yml")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if _, err := os.Stat(configPath); err == nil {
			return printer.Error(
				fmt.Sprintf("%s already exists", configPath),
				"Refusing to overwrite an existing configuration.",
				[]string{"Pass --force to overwrite it"},
			)
		}
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return printer.Error("Cannot write configuration", err.Error(), nil)
	}

	printer.Success("Created %s\n", configPath)
	return nil
}
