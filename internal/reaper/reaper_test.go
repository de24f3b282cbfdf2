package reaper

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/notify"
)

func utcResolver(t *testing.T) *clock.Resolver {
	t.Helper()
	r, err := clock.NewResolver("UTC")
	require.NoError(t, err)
	return r
}

// fakeStore serves canned rows and records every delete batch.
type fakeStore struct {
	rows []notify.ScanRow

	mu      sync.Mutex
	batches [][]int64
}

func (s *fakeStore) Scan(_ context.Context, cutoff time.Time) ([]notify.ScanRow, error) {
	var out []notify.ScanRow
	for _, r := range s.rows {
		if cutoff.IsZero() || !r.CreatedAt.Before(cutoff) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, ids)

	deleted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		deleted[id] = true
	}
	kept := s.rows[:0]
	for _, r := range s.rows {
		if !deleted[r.ID] {
			kept = append(kept, r)
		}
	}
	removed := int64(len(s.rows) - len(kept))
	s.rows = kept
	return removed, nil
}

func row(id int64, title string, at time.Time) notify.ScanRow {
	return notify.ScanRow{
		ID:        id,
		Title:     title,
		Message:   "msg-" + title,
		Kind:      "report",
		Role:      "analyst,supervisor",
		CreatedAt: at,
	}
}

func TestPlanKeepsNewestPerGroup(t *testing.T) {
	t.Parallel()
	resolver := utcResolver(t)

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	// Newest first, as the store scan delivers them.
	rows := []notify.ScanRow{
		row(3, "Shift Report Preparation", day.Add(14*time.Hour)),
		row(2, "Shift Report Preparation", day.Add(13*time.Hour)),
		row(1, "Shift Report Preparation", day.Add(12*time.Hour)),
		row(9, "Sensor Maintenance Check", day.Add(6*time.Hour)),
	}

	unique, doomed := Plan(rows, resolver)
	assert.Equal(t, 2, unique)
	assert.Equal(t, []int64{2, 1}, doomed, "the most recent record (id 3) survives")
}

func TestPlanDifferentDaysAreNotDuplicates(t *testing.T) {
	t.Parallel()
	resolver := utcResolver(t)

	rows := []notify.ScanRow{
		row(2, "Shift Report Preparation", time.Date(2026, 8, 30, 13, 30, 0, 0, time.UTC)),
		row(1, "Shift Report Preparation", time.Date(2026, 8, 29, 13, 30, 0, 0, time.UTC)),
	}

	unique, doomed := Plan(rows, resolver)
	assert.Equal(t, 2, unique)
	assert.Empty(t, doomed, "fingerprint includes the calendar day")
}

func TestFingerprintOmitsTimeSlot(t *testing.T) {
	t.Parallel()
	resolver := utcResolver(t)

	at := time.Date(2026, 8, 30, 13, 30, 0, 0, time.UTC)
	a := row(1, "Shift Report Preparation", at)
	b := row(2, "Shift Report Preparation", at)
	// The fingerprint carries no slot field at all: two same-day records
	// with identical text collapse regardless of which window wrote them.
	assert.Equal(t, Fingerprint(a, resolver), Fingerprint(b, resolver))
}

func TestChunkRespectsBatchCeiling(t *testing.T) {
	t.Parallel()

	ids := make([]int64, 1234)
	for i := range ids {
		ids[i] = int64(i + 1)
	}

	batches := Chunk(ids, 500)
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 500)
	assert.Len(t, batches[1], 500)
	assert.Len(t, batches[2], 234)
}

func TestReapRemovesDuplicatesInBoundedBatches(t *testing.T) {
	t.Parallel()
	resolver := utcResolver(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{}
	// 1101 copies of the same notification: 1 kept + 1100 duplicates,
	// which must go out as 3 batches of at most 500.
	for i := 1101; i >= 1; i-- {
		store.rows = append(store.rows, row(int64(i), "Graveyard Shift Check-In", day.Add(time.Duration(i)*time.Second)))
	}

	result, err := Reap(context.Background(), store, resolver, 0, 500, logger)
	require.NoError(t, err)

	assert.Equal(t, 1101, result.Total)
	assert.Equal(t, 1, result.Unique)
	assert.Equal(t, 1100, result.DuplicatesRemoved)
	assert.Equal(t, 3, result.Batches)
	assert.Empty(t, result.Errors)

	for _, batch := range store.batches {
		assert.LessOrEqual(t, len(batch), 500)
	}

	// The survivor is the newest record.
	require.Len(t, store.rows, 1)
	assert.Equal(t, int64(1101), store.rows[0].ID)
}

func TestReapIsIdempotent(t *testing.T) {
	t.Parallel()
	resolver := utcResolver(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{rows: []notify.ScanRow{
		row(3, "Daily Endpoint Review", day.Add(3*time.Hour)),
		row(2, "Daily Endpoint Review", day.Add(2*time.Hour)),
		row(1, "Daily Endpoint Review", day.Add(1*time.Hour)),
	}}

	first, err := Reap(context.Background(), store, resolver, 0, 500, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, first.DuplicatesRemoved)

	second, err := Reap(context.Background(), store, resolver, 0, 500, logger)
	require.NoError(t, err)
	assert.Equal(t, 0, second.DuplicatesRemoved)
	assert.Equal(t, 0, second.Batches)
	assert.Equal(t, 1, second.Unique)
}

func TestReapHonorsLookbackWindow(t *testing.T) {
	t.Parallel()
	resolver := utcResolver(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Identical timestamps keep the two recent duplicates on the same
	// calendar day no matter when the test runs.
	recent := resolver.Now().Add(-1 * time.Hour)
	store := &fakeStore{rows: []notify.ScanRow{
		row(3, "Daily Endpoint Review", recent),
		row(2, "Daily Endpoint Review", recent),
		// Outside the trailing window; same text but an old day anyway.
		row(1, "Daily Endpoint Review", recent.Add(-40*24*time.Hour)),
	}}

	result, err := Reap(context.Background(), store, resolver, 30*24*time.Hour, 500, logger)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total, "old record is outside the scan")
	assert.Equal(t, 1, result.DuplicatesRemoved)
}
