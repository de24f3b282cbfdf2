// Package shift evaluates the fixed daily shift windows and drives
// notification creation for each matching rule.
//
// Per tick: resolve wall clock → load recipients once → for each rule:
// window match → dedup check → persist record → push fan-out. One record is
// written per matching rule, never per recipient.
package shift

import (
	"fmt"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Rule is one declarative shift-window entry. The rule table replaces the
// per-family conditional dispatch the dashboard used to hard-code.
type Rule struct {
	Name           string // stable identifier for logs
	Hour           int
	Minute         int
	Tolerance      int // symmetric, minutes
	Kind           string
	Roles          []string // fan-out audience; also the stored role label
	Priority       string
	ActionRequired bool
	TimeSlot       string // empty means no slot label
	Title          string
	Message        string
	Link           string
}

// RoleLabel is the audience label stored on the record and used as the
// dedup key component: the comma-joined role list.
func (r Rule) RoleLabel() string {
	return strings.Join(r.Roles, ",")
}

// TickResult summarizes one orchestrator pass.
type TickResult struct {
	Evaluated   int
	Matched     int
	Deduped     int
	Created     int
	PushSuccess int
	PushFailure int
	PushSkipped int
	Duration    time.Duration
	Errors      []string
}

// Summary returns a human-readable summary of the tick.
func (r *TickResult) Summary() string {
	return fmt.Sprintf(
		"evaluated=%d matched=%d deduped=%d created=%d push_ok=%d push_fail=%d skipped=%d errors=%d dur=%s",
		r.Evaluated, r.Matched, r.Deduped, r.Created,
		r.PushSuccess, r.PushFailure, r.PushSkipped,
		len(r.Errors), r.Duration.Round(time.Millisecond))
}

// AddErrorf records a formatted error message.
func (r *TickResult) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
