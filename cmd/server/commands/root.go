package commands

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/database"
	"github.com/iliyamo/inventory-service/internal/logger"
)

var (
	// Global flags
	envFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Inventory service - catalog API with token revocation",
	Long: `Inventory service manages categories and products behind JWT
authentication, with admin-only catalog writes and soft deletion.

Commands:
  serve          - Run the HTTP API
  migrate        - Apply or roll back schema migrations
  seed           - Load the demo dataset
  purge-revoked  - Drop expired entries from the revocation ledger`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before the environment")
}

// bootstrap loads configuration and builds the logger every command uses.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	return cfg, log, nil
}

// openDB connects to the configured store, migrating first when asked.
func openDB(ctx context.Context, cfg *config.Config, migrate bool) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.DB, migrate)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.DB.Driver, err)
	}
	return db, nil
}
