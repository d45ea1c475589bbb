package main

import (
	"context"
	"time"

	"github.com/ericogr/duel-arena/internal/audit"
	"github.com/ericogr/duel-arena/internal/config"
	"github.com/ericogr/duel-arena/internal/game"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/service"
	"github.com/ericogr/duel-arena/internal/storage"

	"gorm.io/gorm"
)

func loadConfigOrExit(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logging.Fatal("Missing or invalid arena configuration", err, logging.Fields{"config_path": path})
	}
	return cfg
}

func openDBOrExit(cfg config.DatabaseConfig) *gorm.DB {
	db, err := storage.OpenDB(cfg.Driver, cfg.DSN)
	if err != nil {
		logging.Fatal("Failed to initialize database", err, logging.Fields{"driver": cfg.Driver})
	}
	return db
}

// buildAuditSink always logs events and also mirrors them to redis when an
// address is configured. An unreachable redis is not fatal.
func buildAuditSink(ctx context.Context, cfg config.AuditConfig) (audit.Sink, func()) {
	sinks := audit.Fanout{audit.LogSink{}}
	closeFn := func() {}
	if cfg.RedisAddr == "" {
		return sinks, closeFn
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	rs, err := audit.NewRedisSink(pingCtx, cfg.RedisAddr, cfg.RedisPassword, cfg.MaxEvents)
	if err != nil {
		logging.Warn("redis audit sink disabled", err, logging.Fields{"redis_addr": cfg.RedisAddr})
		return sinks, closeFn
	}
	return append(sinks, rs), func() { _ = rs.Close() }
}

func policyFromConfig(c config.CombatConfig) service.Policy {
	return service.Policy{
		RoundTimeout:      c.RoundTimeout,
		ChallengeTTL:      c.ChallengeTTL,
		DefaultMove:       game.Move(c.TimeoutDefaultMove),
		MaxIdleRounds:     c.MaxIdleRounds,
		IdleActiveTimeout: c.IdleActiveTimeout,
	}
}
