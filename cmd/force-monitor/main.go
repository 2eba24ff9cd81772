package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	salesforceadapter "github.com/IsuruHerath/force-monitor/internal/adapter/driven/salesforce"
	sqliteadapter "github.com/IsuruHerath/force-monitor/internal/adapter/driven/sqlite"
	"github.com/IsuruHerath/force-monitor/internal/application"
	"github.com/IsuruHerath/force-monitor/internal/config"
	"github.com/IsuruHerath/force-monitor/internal/vault"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on a missing or wrong-length key).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"db_path", cfg.DBPath,
		"sweep_interval", cfg.SweepInterval,
		"sweep_workers", cfg.SweepWorkers,
		"fetch_timeout", cfg.FetchTimeout,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Credential vault. The key was already length-validated by config.
	v, err := vault.New(cfg.SecretKey)
	if err != nil {
		return err
	}

	// 4. Open database (dual reader/writer with WAL mode) and migrate.
	db, err := sqliteadapter.NewDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	slog.Info("database opened", "path", cfg.DBPath)

	if err := sqliteadapter.RunMigrations(db.Writer); err != nil {
		return err
	}
	slog.Info("migrations complete")

	// 5. Wire adapters and services.
	orgStore := sqliteadapter.NewOrgRepo(db)
	snapshotStore := sqliteadapter.NewSnapshotRepo(db)
	sfClient := salesforceadapter.NewClient(cfg.SFClientID, cfg.SFClientSecret)

	orgSvc := application.NewOrganizationService(orgStore, v)
	fetcher := application.NewLimitsFetcher(sfClient, orgSvc)
	sweeper := application.NewSweeper(orgSvc, fetcher, snapshotStore, cfg.SweepInterval, cfg.FetchTimeout, cfg.SweepWorkers)

	// 6. Start the sweep loop.
	go sweeper.Start(ctx)

	slog.Info("force-monitor started", "sweep_interval", cfg.SweepInterval)

	// 7. Wait for shutdown signal. Stop halts future sweeps; an in-flight
	// sweep is bounded by the per-tenant fetch timeout.
	<-ctx.Done()
	slog.Info("shutting down")
	sweeper.Stop()

	slog.Info("shutdown complete")
	return nil
}
