// Package maintenance drives the periodic jobs from Go tickers and daily
// timers. The jobs themselves are stateless; this harness owns their
// lifecycle: a short-interval shift tick, a daily duplicate sweep, and a
// midnight usage reset, all on the operating timezone's wall clock.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/notify"
	"github.com/atra-dev/aegis-notify/internal/reaper"
	"github.com/atra-dev/aegis-notify/internal/shift"
	"github.com/atra-dev/aegis-notify/internal/usage"
)

// Config controls job scheduling. A zero ShiftTickInterval disables the
// shift tick; the daily jobs always run.
type Config struct {
	ShiftTickInterval time.Duration
	ReaperHour        int // local wall clock for the daily sweep
	ReaperMinute      int
	ReaperLookback    time.Duration
	DeleteBatchSize   int
}

// DefaultConfig returns production defaults: 5-minute shift ticks, a
// 30-day duplicate sweep at 03:30, midnight usage reset.
func DefaultConfig() Config {
	return Config{
		ShiftTickInterval: 5 * time.Minute,
		ReaperHour:        3,
		ReaperMinute:      30,
		ReaperLookback:    30 * 24 * time.Hour,
		DeleteBatchSize:   reaper.DefaultBatchSize,
	}
}

// Deps holds the shared handles the jobs run against.
type Deps struct {
	Orchestrator *shift.Orchestrator
	Store        *notify.Store
	Pool         *pgxpool.Pool
	Clock        *clock.Resolver
	Logger       *slog.Logger
}

// Start launches all job schedules. Blocks until ctx is cancelled.
// Intended to be called with `go`.
func Start(ctx context.Context, deps Deps, cfg Config) {
	deps.Logger.Info("job schedules started",
		"shift_tick", cfg.ShiftTickInterval,
		"reaper_at", time.Duration(cfg.ReaperHour)*time.Hour+time.Duration(cfg.ReaperMinute)*time.Minute,
		"reaper_lookback", cfg.ReaperLookback)

	if cfg.ShiftTickInterval > 0 {
		t := time.NewTicker(cfg.ShiftTickInterval)
		defer t.Stop()
		go runLoop(ctx, t.C, func() {
			deps.Orchestrator.RunTick(ctx)
		})
	}

	// Daily duplicate sweep over the trailing window.
	go runDaily(ctx, deps.Clock, cfg.ReaperHour, cfg.ReaperMinute, func() {
		if _, err := reaper.Reap(ctx, deps.Store, deps.Clock, cfg.ReaperLookback, cfg.DeleteBatchSize, deps.Logger); err != nil {
			deps.Logger.Error("daily duplicate sweep failed", "error", err)
		}
	})

	// Usage counters reset at local midnight.
	go runDaily(ctx, deps.Clock, 0, 0, func() {
		if _, err := usage.Reset(ctx, deps.Pool, deps.Clock, deps.Logger); err != nil {
			deps.Logger.Error("daily usage reset failed", "error", err)
		}
	})

	<-ctx.Done()
	deps.Logger.Info("job schedules stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// runDaily fires fn each time the local wall clock next reads hour:minute.
func runDaily(ctx context.Context, resolver *clock.Resolver, hour, minute int, fn func()) {
	for {
		next := resolver.NextAt(resolver.Now(), hour, minute)
		timer := time.NewTimer(time.Until(next))
		select {
		case <-timer.C:
			fn()
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}
