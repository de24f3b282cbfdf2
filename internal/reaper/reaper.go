// Package reaper removes duplicate notification records after the fact.
//
// The scheduler's dedup check is check-then-act with no locking, so
// overlapping ticks can occasionally double-write. The reaper groups
// records by content fingerprint, keeps the most recent of each group, and
// deletes the rest in bounded batches. Two operational modes share the
// logic: an on-demand full scan and a daily sweep over the trailing window.
package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/notify"
)

// DefaultBatchSize is the per-batch deletion ceiling, matching the store's
// atomic-batch operation limit.
const DefaultBatchSize = 500

// Store is the slice of notification persistence the reaper needs.
// Satisfied by *notify.Store.
type Store interface {
	Scan(ctx context.Context, cutoff time.Time) ([]notify.ScanRow, error)
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}

// Result summarizes one reap run.
type Result struct {
	Total             int `json:"totalNotifications"`
	Unique            int `json:"uniqueNotifications"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
	Batches           int `json:"batchesProcessed"`
	Duration          time.Duration
	Errors            []string
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf("total=%d unique=%d removed=%d batches=%d errors=%d dur=%s",
		r.Total, r.Unique, r.DuplicatesRemoved, r.Batches,
		len(r.Errors), r.Duration.Round(time.Millisecond))
}

// Fingerprint builds the content key duplicates are grouped by:
// title | message | kind | role | local calendar day.
//
// The key deliberately omits time_slot, matching the dashboard's historical
// grouping. Every rule family uses distinct message text per slot, which is
// what keeps same-day slots from collapsing into one group.
func Fingerprint(row notify.ScanRow, resolver *clock.Resolver) string {
	return strings.Join([]string{
		row.Title, row.Message, row.Kind, row.Role,
		resolver.DateString(row.CreatedAt),
	}, "|")
}

// Plan walks rows in their given order (newest first), keeping the first
// record per fingerprint and marking every later one for deletion.
func Plan(rows []notify.ScanRow, resolver *clock.Resolver) (unique int, doomed []int64) {
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		fp := Fingerprint(row, resolver)
		if _, ok := seen[fp]; ok {
			doomed = append(doomed, row.ID)
			continue
		}
		seen[fp] = struct{}{}
		unique++
	}
	return unique, doomed
}

// Chunk splits ids into batches of at most size.
func Chunk(ids []int64, size int) [][]int64 {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// Reap scans, plans, and deletes. A zero lookback scans the full table;
// otherwise only records created within the trailing window are considered.
// Delete batches are submitted concurrently; each batch is its own atomic
// statement, so one failed batch does not roll back the others.
func Reap(ctx context.Context, store Store, resolver *clock.Resolver, lookback time.Duration, batchSize int, logger *slog.Logger) (Result, error) {
	start := time.Now()
	var result Result

	var cutoff time.Time
	if lookback > 0 {
		cutoff = resolver.Now().Add(-lookback)
	}

	rows, err := store.Scan(ctx, cutoff)
	if err != nil {
		return result, fmt.Errorf("scan notifications: %w", err)
	}
	result.Total = len(rows)

	unique, doomed := Plan(rows, resolver)
	result.Unique = unique
	if len(doomed) == 0 {
		result.Duration = time.Since(start)
		logger.Info("reap complete, no duplicates", "total", result.Total)
		return result, nil
	}

	batches := Chunk(doomed, batchSize)
	result.Batches = len(batches)

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, batch := range batches {
		wg.Add(1)
		go func(ids []int64) {
			defer wg.Done()
			deleted, err := store.DeleteByIDs(ctx, ids)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				return
			}
			result.DuplicatesRemoved += int(deleted)
		}(batch)
	}
	wg.Wait()

	result.Duration = time.Since(start)
	logger.Info("reap complete", "summary", result.Summary())
	return result, nil
}
