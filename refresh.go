package main

import (
	"context"
	"log/slog"
	"time"
)

// refreshFunc runs one rebuild cycle.
type refreshFunc func(ctx context.Context) error

// runPeriodicRefresh waits startupDelay, runs one refresh, then one per
// interval tick until ctx is cancelled. Cycles never overlap. A failed cycle
// is logged and the schedule continues.
func runPeriodicRefresh(
	ctx context.Context,
	startupDelay time.Duration,
	interval time.Duration,
	refresh refreshFunc,
	logger *slog.Logger,
) {
	logger.Info("periodic refresh started", "interval", interval, "startupDelay", startupDelay)

	if startupDelay > 0 {
		timer := time.NewTimer(startupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("periodic refresh stopped")
			return
		case <-timer.C:
		}
	}

	runRefreshCycle(ctx, refresh, logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("periodic refresh stopped")
			return
		case <-ticker.C:
			runRefreshCycle(ctx, refresh, logger)
		}
	}
}

func runRefreshCycle(ctx context.Context, refresh refreshFunc, logger *slog.Logger) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	if err := refresh(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("refresh cycle interrupted by shutdown")
			return
		}
		logger.Error("refresh cycle failed, keeping previous index", "error", err, "duration", time.Since(start))
		return
	}
	logger.Debug("refresh cycle complete", "duration", time.Since(start))
}
