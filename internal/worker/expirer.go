package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// ListingExpirer is the narrow expiry surface the sweeper needs.
type ListingExpirer interface {
	ExpireStale(ctx context.Context, maxAge time.Duration) (int, error)
}

// Expirer periodically moves stale listings to EXPIRED. One sweep runs at
// startup so a long-stopped instance catches up immediately.
type Expirer struct {
	listings ListingExpirer
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
	onExpire func(count int)
}

// NewExpirer constructs the sweeper.
func NewExpirer(listings ListingExpirer, maxAge, interval time.Duration, logger *zap.Logger) *Expirer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Expirer{
		listings: listings,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// WithObserver registers a callback invoked with the count of each non-empty
// sweep, used to feed metrics.
func (e *Expirer) WithObserver(fn func(count int)) *Expirer {
	e.onExpire = fn
	return e
}

// Run sweeps until the context is canceled. It blocks and is meant to be
// launched in its own goroutine.
func (e *Expirer) Run(ctx context.Context) {
	if e.maxAge <= 0 || e.interval <= 0 {
		e.logger.Info("listing expiry sweeper disabled")
		return
	}

	e.logger.Info("listing expiry sweeper started",
		zap.Duration("max_age", e.maxAge),
		zap.Duration("interval", e.interval),
	)

	e.sweep(ctx)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.sweep(ctx)
		case <-ctx.Done():
			e.logger.Info("listing expiry sweeper stopped")
			return
		}
	}
}

func (e *Expirer) sweep(ctx context.Context) {
	count, err := e.listings.ExpireStale(ctx, e.maxAge)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		e.logger.Error("listing expiry sweep failed", zap.Error(err))
		return
	}

	if count > 0 {
		e.logger.Info("expired stale listings", zap.Int("count", count))
		if e.onExpire != nil {
			e.onExpire(count)
		}
	}
}
