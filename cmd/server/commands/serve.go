package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/iliyamo/inventory-service/internal/clock"
	"github.com/iliyamo/inventory-service/internal/config"
	"github.com/iliyamo/inventory-service/internal/queue"
	"github.com/iliyamo/inventory-service/internal/repository"
	"github.com/iliyamo/inventory-service/internal/router"
	"github.com/iliyamo/inventory-service/internal/service"
)

var skipMigrate bool

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Pending migrations are applied first unless
--skip-migrate is set. The revocation sweep and, when EVENTS_ENABLED is
true, the catalog audit consumer run alongside the server. SIGINT or
SIGTERM shuts everything down gracefully.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "Do not apply pending migrations on startup")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDB(ctx, cfg, !skipMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable, response cache and rate limiting disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer rdb.Close()
	}

	clk := clock.Real{}
	tokens, err := service.NewTokenService(cfg.JWT, repository.NewRevocationRepo(db, clk), clk)
	if err != nil {
		return err
	}

	go tokens.RunPurgeLoop(ctx, cfg.RevocationPurgeInterval, log.Named("revocation-sweep"))
	if cfg.Events.Enabled {
		go func() {
			if err := queue.StartCatalogConsumer(ctx, cfg.Events, log.Named("catalog-consumer")); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("catalog consumer stopped", zap.Error(err))
			}
		}()
	}

	e := router.New(router.Deps{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		Clock:  clk,
		Log:    log,
		Tokens: tokens,
		Events: service.NewEventPublisher(cfg.Events, log.Named("events")),
	})

	addr := ":" + cfg.Port
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("db", cfg.DB.Driver))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
