package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/config"
)

// Store persists notification records and resolves recipients.
type Store struct {
	pool  *pgxpool.Pool
	clock *clock.Resolver
}

// NewStore creates a store bound to a pool and the shared timezone resolver.
func NewStore(pool *pgxpool.Pool, resolver *clock.Resolver) *Store {
	return &Store{pool: pool, clock: resolver}
}

// AlreadyCreatedToday reports whether a notification with the same
// (kind, role, timeSlot) was created during the current local day.
// Empty role or timeSlot widens the check to any value.
//
// This is the sole deduplication mechanism. The check and the subsequent
// insert are not transactional; overlapping ticks can both pass it. The
// reaper removes the resulting duplicates after the fact.
func (s *Store) AlreadyCreatedToday(ctx context.Context, kind, role, timeSlot string) (bool, error) {
	dayStart, dayEnd := s.clock.DayBounds(s.clock.Now())

	var one int
	err := s.pool.QueryRow(ctx, "notification_exists_today",
		kind, role, timeSlot, dayStart, dayEnd).Scan(&one)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("dedup check (%s/%s/%s): %w", kind, role, timeSlot, err)
	}
	return true, nil
}

// Insert persists one notification record. The store assigns id and
// created_at; created_by carries the scheduler sentinel unless already set.
func (s *Store) Insert(ctx context.Context, rec *Record) (int64, error) {
	if rec.CreatedBy == "" {
		rec.CreatedBy = config.CreatedBySentinel
	}
	timeSlot := ""
	if rec.TimeSlot != nil {
		timeSlot = *rec.TimeSlot
	}

	err := s.pool.QueryRow(ctx, "notification_insert",
		rec.Title, rec.Message, rec.Kind, rec.Link, rec.Role,
		rec.Priority, rec.ActionRequired, timeSlot, rec.CreatedBy,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return rec.ID, nil
}

// Recent returns the newest records, optionally filtered to one role label.
// This is the read contract the dashboard UI consumes.
func (s *Store) Recent(ctx context.Context, role string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, "notifications_recent", role, limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(
			&r.ID, &r.Title, &r.Message, &r.Kind, &r.Link, &r.Role,
			&r.Priority, &r.ActionRequired, &r.Read, &r.TimeSlot,
			&r.CreatedAt, &r.CreatedBy,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Recipients returns every recipient account. Loaded once per orchestrator
// tick and shared across all rule evaluations to bound read cost.
func (s *Store) Recipients(ctx context.Context) ([]Recipient, error) {
	rows, err := s.pool.Query(ctx, "recipients_all")
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	defer rows.Close()

	var recipients []Recipient
	for rows.Next() {
		var r Recipient
		if err := rows.Scan(&r.ID, &r.Role, &r.DeliveryToken); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		recipients = append(recipients, r)
	}
	return recipients, rows.Err()
}

// ScanRow is the projection the reaper fingerprints over.
type ScanRow struct {
	ID        int64
	Title     string
	Message   string
	Kind      string
	Role      string
	CreatedAt time.Time
}

// Scan returns records newest-first. A zero cutoff scans the full table;
// otherwise only records with created_at >= cutoff are returned.
func (s *Store) Scan(ctx context.Context, cutoff time.Time) ([]ScanRow, error) {
	var cutoffParam interface{}
	if !cutoff.IsZero() {
		cutoffParam = cutoff
	}

	rows, err := s.pool.Query(ctx, "notifications_scan", cutoffParam)
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	defer rows.Close()

	var out []ScanRow
	for rows.Next() {
		var r ScanRow
		if err := rows.Scan(&r.ID, &r.Title, &r.Message, &r.Kind, &r.Role, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteByIDs removes one batch of records as a single atomic statement.
// Callers are responsible for keeping batches within the configured ceiling.
func (s *Store) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, "DELETE FROM notifications WHERE id = ANY($1)", ids)
	if err != nil {
		return 0, fmt.Errorf("delete batch (%d ids): %w", len(ids), err)
	}
	return tag.RowsAffected(), nil
}

// Clock exposes the store's timezone resolver so callers share day bounds.
func (s *Store) Clock() *clock.Resolver {
	return s.clock
}
