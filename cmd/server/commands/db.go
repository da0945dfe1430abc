package commands

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/database"
)

// dbRun is what a database command receives once bootstrap succeeds.
type dbRun struct {
	cfg     *config.Config
	log     *zap.Logger
	db      *sql.DB
	dialect string
}

// withDB loads configuration, opens the store without migrating and hands
// it to fn. The store is closed when fn returns.
func withDB(cmd *cobra.Command, fn func(dbRun) error) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := openDB(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(dbRun{cfg: cfg, log: log, db: db, dialect: database.DialectFor(cfg.DB.Driver)})
}
