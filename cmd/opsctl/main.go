// Command opsctl runs the scheduled jobs once, on demand.
//
// Usage:
//
//	opsctl shift run
//	opsctl reap
//	opsctl reap --days 30
//	opsctl usage reset
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/config"
	"github.com/atra-dev/aegis-notify/internal/db"
	"github.com/atra-dev/aegis-notify/internal/external"
	"github.com/atra-dev/aegis-notify/internal/notify"
	"github.com/atra-dev/aegis-notify/internal/reaper"
	"github.com/atra-dev/aegis-notify/internal/shift"
	"github.com/atra-dev/aegis-notify/internal/usage"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:   "opsctl",
		Short: "Aegis Notify operations CLI",
	}

	root.AddCommand(shiftCmd())
	root.AddCommand(reapCmd())
	root.AddCommand(usageCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// shift command
// --------------------------------------------------------------------------

func shiftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shift",
		Short: "Shift notification scheduling",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "run",
		Short: "Evaluate all shift rules once against the current wall clock",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool, resolver *clock.Resolver) error {
				var pusher notify.Pusher
				if ps := external.NewPushService(cfg.PushGatewayURL, cfg.PushGatewayKey); ps != nil {
					pusher = ps
				}
				store := notify.NewStore(pool.Pool, resolver)
				dispatcher := notify.NewDispatcher(store, pusher, logger)
				orchestrator := shift.NewOrchestrator(store, dispatcher, resolver,
					shift.DefaultRules(cfg.ToleranceMinutes), logger)

				result := orchestrator.RunTick(ctx)
				logger.Info("Shift tick finished", "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("tick error", "error", e)
				}
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// reap command
// --------------------------------------------------------------------------

func reapCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "reap",
		Short: "Remove duplicate notification records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool, resolver *clock.Resolver) error {
				store := notify.NewStore(pool.Pool, resolver)

				var lookback time.Duration
				if days > 0 {
					lookback = time.Duration(days) * 24 * time.Hour
				}

				start := time.Now()
				result, err := reaper.Reap(ctx, store, resolver, lookback, cfg.DeleteBatchSize, logger)
				if err != nil {
					return err
				}
				logger.Info("Reap finished",
					"duration", time.Since(start).Round(time.Millisecond),
					"summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("reap error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 0, "Restrict to the trailing N days (0 = full table scan)")
	return cmd
}

// --------------------------------------------------------------------------
// usage command
// --------------------------------------------------------------------------

func usageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Usage counter maintenance",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Zero every daily usage counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPool(func(ctx context.Context, cfg *config.Config, pool *db.Pool, resolver *clock.Resolver) error {
				result, err := usage.Reset(ctx, pool.Pool, resolver, logger)
				if err != nil {
					return err
				}
				logger.Info("Usage reset finished", "summary", result.Summary())
				return nil
			})
		},
	})
	return cmd
}

// --------------------------------------------------------------------------
// Shared bootstrap
// --------------------------------------------------------------------------

// withPool loads config, resolves the timezone, opens the pool, and runs fn.
func withPool(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, resolver *clock.Resolver) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	resolver, err := clock.NewResolver(cfg.Timezone)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool, resolver)
}
