// Package clock resolves invocation instants into the operating timezone's
// wall-clock time. Every job that reasons about "today" — window matching,
// dedup day bounds, the reaper fingerprint, the usage-reset date — must go
// through the same Resolver so they agree on where midnight is.
package clock

import (
	"fmt"
	"time"
)

// Resolver converts instants into a fixed named timezone.
type Resolver struct {
	loc *time.Location
}

// NewResolver loads the named timezone (e.g. "Asia/Manila").
func NewResolver(timezone string) (*Resolver, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}
	return &Resolver{loc: loc}, nil
}

// Now returns the current instant in the operating timezone.
func (r *Resolver) Now() time.Time {
	return time.Now().In(r.loc)
}

// Location returns the resolver's timezone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// WallClock returns the local hour and minute of t.
func (r *Resolver) WallClock(t time.Time) (hour, minute int) {
	local := t.In(r.loc)
	return local.Hour(), local.Minute()
}

// DayBounds returns [startOfLocalDay, startOfNextLocalDay) for the day
// containing t.
func (r *Resolver) DayBounds(t time.Time) (start, end time.Time) {
	local := t.In(r.loc)
	start = time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, r.loc)
	return start, start.AddDate(0, 0, 1)
}

// DateString returns the local calendar date of t as YYYY-MM-DD.
func (r *Resolver) DateString(t time.Time) string {
	return t.In(r.loc).Format("2006-01-02")
}

// NextAt returns the next instant after t at which the local wall clock
// reads hour:minute. Used by the daily job timers.
func (r *Resolver) NextAt(t time.Time, hour, minute int) time.Time {
	local := t.In(r.loc)
	next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, r.loc)
	if !next.After(local) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
