// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atra-dev/aegis-notify/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers all statements the API and job layers
// use. Prepared statements eliminate parse overhead on every invocation.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Notifications: dedup check. Empty role / time_slot params act as
		// wildcards so the same statement serves every rule shape.
		"notification_exists_today": `
			SELECT 1 FROM notifications
			WHERE kind = $1
			  AND ($2 = '' OR role = $2)
			  AND ($3 = '' OR time_slot = $3)
			  AND created_at >= $4 AND created_at < $5
			LIMIT 1`,

		// Notifications: writer
		"notification_insert": `
			INSERT INTO notifications
				(title, message, kind, link, role, priority, action_required, time_slot, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
			RETURNING id, created_at`,

		// Notifications: UI read contract
		"notifications_recent": `
			SELECT id, title, message, kind, link, role, priority,
			       action_required, read, time_slot, created_at, created_by
			FROM notifications
			WHERE ($1 = '' OR role = $1)
			ORDER BY created_at DESC
			LIMIT $2`,

		// Notifications: reaper scan (newest first so the most recent record
		// of each duplicate group is the one kept)
		"notifications_scan": `
			SELECT id, title, message, kind, role, created_at
			FROM notifications
			WHERE $1::timestamptz IS NULL OR created_at >= $1
			ORDER BY created_at DESC`,

		// Recipients (owned by the account-management subsystem)
		"recipients_all": `
			SELECT id, role, COALESCE(delivery_token, '')
			FROM recipient_accounts`,

		// Usage counters
		"usage_counters_all": `
			SELECT id, daily_usage, last_reset
			FROM usage_counters`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
