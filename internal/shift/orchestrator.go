package shift

import (
	"context"
	"log/slog"
	"time"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/notify"
)

// Store is the notification persistence the orchestrator needs.
// Satisfied by *notify.Store.
type Store interface {
	AlreadyCreatedToday(ctx context.Context, kind, role, timeSlot string) (bool, error)
	Insert(ctx context.Context, rec *notify.Record) (int64, error)
	Recipients(ctx context.Context) ([]notify.Recipient, error)
}

// Dispatcher multicasts to a prefetched recipient list.
// Satisfied by *notify.Dispatcher.
type Dispatcher interface {
	Send(ctx context.Context, recipients []notify.Recipient, title, message string, data map[string]string) (notify.DispatchResult, error)
}

// Orchestrator evaluates the rule table once per tick. Stateless between
// ticks: everything it knows it reads from the store on each invocation.
type Orchestrator struct {
	store      Store
	dispatcher Dispatcher
	clock      *clock.Resolver
	rules      []Rule
	logger     *slog.Logger
	now        func() time.Time
}

// NewOrchestrator wires an orchestrator. The rule table is injected so
// tests and staged rollouts can substitute their own.
func NewOrchestrator(store Store, dispatcher Dispatcher, resolver *clock.Resolver, rules []Rule, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      store,
		dispatcher: dispatcher,
		clock:      resolver,
		rules:      rules,
		logger:     logger,
		now:        resolver.Now,
	}
}

// RunTick evaluates every rule against the current wall clock. Errors in
// one rule are captured and logged; sibling rules still run. The tick never
// fails as a whole — the next scheduled tick is the retry mechanism.
func (o *Orchestrator) RunTick(ctx context.Context) TickResult {
	start := time.Now()
	var result TickResult

	hour, minute := o.clock.WallClock(o.now())

	// One recipient load shared across all rule evaluations this tick.
	recipients, err := o.store.Recipients(ctx)
	if err != nil {
		o.logger.Error("tick aborted: recipients unavailable", "error", err)
		result.AddErrorf("load recipients: %v", err)
		result.Duration = time.Since(start)
		return result
	}

	for _, rule := range o.rules {
		result.Evaluated++
		if !Matches(hour, minute, rule.Hour, rule.Minute, rule.Tolerance) {
			continue
		}
		result.Matched++

		if err := o.processRule(ctx, rule, recipients, &result); err != nil {
			o.logger.Warn("rule processing failed",
				"rule", rule.Name, "error", err)
			result.AddErrorf("rule %s: %v", rule.Name, err)
		}
	}

	result.Duration = time.Since(start)
	if result.Matched > 0 || len(result.Errors) > 0 {
		o.logger.Info("shift tick complete", "summary", result.Summary())
	}
	return result
}

// processRule runs dedup → insert → fan-out for one matched rule.
func (o *Orchestrator) processRule(ctx context.Context, rule Rule, recipients []notify.Recipient, result *TickResult) error {
	exists, err := o.store.AlreadyCreatedToday(ctx, rule.Kind, rule.RoleLabel(), rule.TimeSlot)
	if err != nil {
		return err
	}
	if exists {
		result.Deduped++
		return nil
	}

	rec := &notify.Record{
		Title:          rule.Title,
		Message:        rule.Message,
		Kind:           rule.Kind,
		Link:           rule.Link,
		Role:           rule.RoleLabel(),
		Priority:       rule.Priority,
		ActionRequired: rule.ActionRequired,
	}
	if rule.TimeSlot != "" {
		slot := rule.TimeSlot
		rec.TimeSlot = &slot
	}

	if _, err := o.store.Insert(ctx, rec); err != nil {
		return err
	}
	result.Created++
	o.logger.Info("notification created",
		"rule", rule.Name, "id", rec.ID, "kind", rec.Kind, "role", rec.Role)

	audience := notify.FilterByRole(recipients, rule.Roles)
	dispatch, err := o.dispatcher.Send(ctx, audience, rec.Title, rec.Message, notify.PushData(rec))
	result.PushSuccess += dispatch.SuccessCount
	result.PushFailure += dispatch.FailureCount
	result.PushSkipped += dispatch.Skipped
	if err != nil {
		// The record is already durable; delivery failure is logged, not
		// retried.
		return err
	}
	return nil
}
