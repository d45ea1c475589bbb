package main

import (
	"context"
	"time"

	"github.com/ericogr/duel-arena/internal/constants"
	"github.com/ericogr/duel-arena/internal/logging"
	"github.com/ericogr/duel-arena/internal/service"
)

// startStaleSweeper periodically expires lapsed challenges and idle active
// fights. Round timeouts stay with the read-path reconciler.
func startStaleSweeper(ctx context.Context, svc *service.Service, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			n, err := svc.ExpireStale(ctx)
			if err != nil {
				logging.Error("stale sweeper failed", err, nil)
				continue
			}
			if n > 0 {
				logging.Info("stale fights expired", logging.Fields{constants.LogFieldCount: n})
			}
		}
	}()
}
