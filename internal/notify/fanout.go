package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
)

// Pusher submits one multicast push request to the delivery gateway.
type Pusher interface {
	SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (success, failure int, err error)
}

// Dispatcher fans one logical notification out to every device token
// registered for the target roles.
type Dispatcher struct {
	store  *Store
	pusher Pusher
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher. pusher may be nil when push delivery
// is not configured; dispatch then degrades to a logged no-op.
func NewDispatcher(store *Store, pusher Pusher, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{store: store, pusher: pusher, logger: logger}
}

// Notify resolves all recipients for the target roles and multicasts to
// those holding a delivery token.
func (d *Dispatcher) Notify(ctx context.Context, roles []string, title, message string, data map[string]string) (DispatchResult, error) {
	recipients, err := d.store.Recipients(ctx)
	if err != nil {
		return DispatchResult{}, err
	}
	return d.Send(ctx, FilterByRole(recipients, roles), title, message, data)
}

// Send multicasts to a prefetched recipient list. The orchestrator uses this
// form so recipients are loaded once per tick, not once per rule.
//
// Recipients without a token are skipped and logged, not counted as
// failures. Zero tokens skips the gateway call entirely — the record is
// already durable, so this is not an error.
func (d *Dispatcher) Send(ctx context.Context, recipients []Recipient, title, message string, data map[string]string) (DispatchResult, error) {
	var result DispatchResult
	tokens := make([]string, 0, len(recipients))
	for _, r := range recipients {
		if !r.HasToken() {
			d.logger.Info("skipping recipient without delivery token",
				"recipient_id", r.ID, "role", r.Role)
			result.Skipped++
			continue
		}
		tokens = append(tokens, r.DeliveryToken)
	}

	if len(tokens) == 0 {
		d.logger.Info("no delivery tokens for audience, dispatch skipped", "title", title)
		return result, nil
	}
	if d.pusher == nil {
		d.logger.Warn("push gateway not configured, dispatch skipped",
			"title", title, "tokens", len(tokens))
		return result, nil
	}

	success, failure, err := d.pusher.SendMulticast(ctx, tokens, title, message, data)
	if err != nil {
		return result, fmt.Errorf("multicast push: %w", err)
	}
	result.SuccessCount = success
	result.FailureCount = failure

	if failure > 0 {
		// Invalid or unreachable tokens are expected churn; the record is
		// durable regardless of delivery outcome.
		d.logger.Warn("partial push delivery",
			"title", title, "success", success, "failure", failure)
	}
	return result, nil
}

// FilterByRole returns the recipients whose role is in roles.
func FilterByRole(recipients []Recipient, roles []string) []Recipient {
	var out []Recipient
	for _, r := range recipients {
		if slices.Contains(roles, r.Role) {
			out = append(out, r)
		}
	}
	return out
}

// PushData builds the string payload carried alongside the push body.
func PushData(rec *Record) map[string]string {
	timeSlot := ""
	if rec.TimeSlot != nil {
		timeSlot = *rec.TimeSlot
	}
	return map[string]string{
		"kind":           rec.Kind,
		"link":           rec.Link,
		"notificationId": fmt.Sprintf("%d", rec.ID),
		"priority":       rec.Priority,
		"actionRequired": fmt.Sprintf("%t", rec.ActionRequired),
		"timeSlot":       timeSlot,
	}
}
