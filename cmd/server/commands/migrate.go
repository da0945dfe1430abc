package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/iliyamo/inventory-service/internal/database"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run the embedded schema migrations against the configured store.

Subcommands:
  up      - Apply pending migrations
  down    - Roll back the latest migration
  status  - Show the current schema version`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(run dbRun) error {
			if err := database.Migrate(run.db, run.dialect); err != nil {
				return err
			}
			return printVersion(cmd, run)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the latest migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(run dbRun) error {
			if err := database.Rollback(run.db, run.dialect); err != nil {
				return err
			}
			return printVersion(cmd, run)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDB(cmd, func(run dbRun) error {
			return printVersion(cmd, run)
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func printVersion(cmd *cobra.Command, run dbRun) error {
	v, err := database.Version(run.db, run.dialect)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", run.dialect, v)
	return nil
}
