package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ericogr/duel-arena/internal/api"
	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/loadout"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/service"
	"github.com/ericogr/duel-arena/internal/storage"
	"github.com/ericogr/duel-arena/internal/telemetry"
	"github.com/ericogr/duel-arena/internal/version"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	// Path may be provided via ARENA_CONFIG or defaults to
	// ./arena_config.yaml in the current working directory.
	configPath := os.Getenv(constants.EnvConfigPath)
	if configPath == "" {
		configPath = constants.DefaultConfigPath
	}
	cfg := loadConfigOrExit(configPath)
	if err := logging.Configure(cfg.Log.Level, cfg.Log.Format); err != nil {
		logging.Fatal("Invalid log configuration", err, nil)
	}
	defer logging.Sync()
	logging.Info("Starting duel-arena", logging.Fields{constants.LogFieldVersion: version.String()})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Tracing.Enabled {
		shutdown, err := telemetry.InitTracer(cfg.Tracing.ServiceName, os.Stdout)
		if err != nil {
			logging.Fatal("Failed to initialize tracing", err, nil)
		}
		defer func() { _ = shutdown(context.Background()) }()
	}

	db := openDBOrExit(cfg.Database)
	defer func() { _ = storage.CloseDB(db) }()
	store := storage.NewGormStore(db)

	sink, closeSink := buildAuditSink(ctx, cfg.Audit)
	defer closeSink()

	stats := loadout.NewAggregator(loadout.NewCatalog(cfg.Loadout), store)
	svc := service.New(store, stats,
		service.WithRules(cfg.Combat.Rules()),
		service.WithPolicy(policyFromConfig(cfg.Combat)),
		service.WithAudit(sink),
	)
	startStaleSweeper(ctx, svc, cfg.Combat.SweepInterval)

	verifier, err := api.NewTokenVerifier(cfg.Auth.JWTSecret)
	if err != nil {
		logging.Fatal("Failed to initialize token verifier", err, nil)
	}
	router := api.NewRouter(api.NewFightHandler(svc, service.ProfileGate{Profiles: store}), verifier)

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           otelhttp.NewHandler(router, "duel-arena"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logging.Info("Server started", logging.Fields{constants.LogFieldAddr: cfg.Server.Address})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Failed to start server", err, nil)
	}
	logging.Info("Server stopped", nil)
}
