// Package usage zeroes per-entity daily usage counters at local midnight.
// Structurally the same read-all → batch-mutate shape as the reaper, but on
// unrelated data. Idempotent: resetting an already-zero counter is a no-op.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atra-dev/aegis-notify/internal/clock"
)

// BatchSize is the per-batch mutation ceiling, matching the store's
// atomic-batch operation limit.
const BatchSize = 500

// Counter is one usage-counter row.
type Counter struct {
	ID         string `json:"id"`
	DailyUsage int    `json:"dailyUsage"`
	LastReset  string `json:"lastReset"`
}

// Result summarizes one reset run.
type Result struct {
	Total    int `json:"totalEntities"`
	Reset    int `json:"entitiesReset"`
	Batches  int `json:"batchesProcessed"`
	Duration time.Duration
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("total=%d reset=%d batches=%d dur=%s",
		r.Total, r.Reset, r.Batches, r.Duration.Round(time.Millisecond))
}

// LoadAll returns every usage counter.
func LoadAll(ctx context.Context, pool *pgxpool.Pool) ([]Counter, error) {
	rows, err := pool.Query(ctx, "usage_counters_all")
	if err != nil {
		return nil, fmt.Errorf("load usage counters: %w", err)
	}
	defer rows.Close()

	var counters []Counter
	for rows.Next() {
		var c Counter
		if err := rows.Scan(&c.ID, &c.DailyUsage, &c.LastReset); err != nil {
			return nil, fmt.Errorf("scan usage counter: %w", err)
		}
		counters = append(counters, c)
	}
	return counters, rows.Err()
}

// ChunkIDs splits counter ids into batches of at most size.
func ChunkIDs(counters []Counter, size int) [][]string {
	if size <= 0 {
		size = BatchSize
	}
	var batches [][]string
	for start := 0; start < len(counters); start += size {
		end := start + size
		if end > len(counters) {
			end = len(counters)
		}
		ids := make([]string, 0, end-start)
		for _, c := range counters[start:end] {
			ids = append(ids, c.ID)
		}
		batches = append(batches, ids)
	}
	return batches
}

// Reset loads all counters and zeroes them in batched writes. Each pgx batch
// runs as one implicit transaction, so a batch either fully applies or not
// at all; batches are independent of each other.
func Reset(ctx context.Context, pool *pgxpool.Pool, resolver *clock.Resolver, logger *slog.Logger) (Result, error) {
	start := time.Now()
	var result Result

	counters, err := LoadAll(ctx, pool)
	if err != nil {
		return result, err
	}
	result.Total = len(counters)
	if len(counters) == 0 {
		result.Duration = time.Since(start)
		return result, nil
	}

	today := resolver.DateString(resolver.Now())

	for _, ids := range ChunkIDs(counters, BatchSize) {
		batch := &pgx.Batch{}
		for _, id := range ids {
			batch.Queue(
				"UPDATE usage_counters SET daily_usage = 0, last_reset = $2 WHERE id = $1",
				id, today)
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("usage reset batch: %w", err)
		}
		result.Batches++
		result.Reset += len(ids)
	}

	result.Duration = time.Since(start)
	logger.Info("usage counters reset", "summary", result.Summary())
	return result, nil
}
