package shift

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atra-dev/aegis-notify/internal/clock"
	"github.com/atra-dev/aegis-notify/internal/notify"
)

// fakeStore keeps records in memory and replicates the dedup day check.
type fakeStore struct {
	records    []notify.Record
	recipients []notify.Recipient
	day        string // local day applied to all writes

	insertErr error
	dedupErr  error
}

func (s *fakeStore) AlreadyCreatedToday(_ context.Context, kind, role, timeSlot string) (bool, error) {
	if s.dedupErr != nil {
		return false, s.dedupErr
	}
	for _, r := range s.records {
		slot := ""
		if r.TimeSlot != nil {
			slot = *r.TimeSlot
		}
		if r.Kind == kind && (role == "" || r.Role == role) && (timeSlot == "" || slot == timeSlot) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) Insert(_ context.Context, rec *notify.Record) (int64, error) {
	if s.insertErr != nil {
		return 0, s.insertErr
	}
	rec.ID = int64(len(s.records) + 1)
	s.records = append(s.records, *rec)
	return rec.ID, nil
}

func (s *fakeStore) Recipients(_ context.Context) ([]notify.Recipient, error) {
	return s.recipients, nil
}

// fakeDispatcher records each send's audience size.
type fakeDispatcher struct {
	sends []int
}

func (d *fakeDispatcher) Send(_ context.Context, recipients []notify.Recipient, _, _ string, _ map[string]string) (notify.DispatchResult, error) {
	d.sends = append(d.sends, len(recipients))
	tokens := 0
	for _, r := range recipients {
		if r.HasToken() {
			tokens++
		}
	}
	return notify.DispatchResult{SuccessCount: tokens, Skipped: len(recipients) - tokens}, nil
}

func newTestOrchestrator(t *testing.T, store Store, dispatcher Dispatcher, rules []Rule, at time.Time) *Orchestrator {
	t.Helper()
	resolver, err := clock.NewResolver("UTC")
	require.NoError(t, err)

	o := NewOrchestrator(store, dispatcher, resolver, rules, slog.New(slog.NewTextHandler(io.Discard, nil)))
	o.now = func() time.Time { return at }
	return o
}

func TestRunTickCreatesOneRecordPerRule(t *testing.T) {
	t.Parallel()

	store := &fakeStore{recipients: []notify.Recipient{
		{ID: "a1", Role: RoleAnalyst, DeliveryToken: "tok-a1"},
		{ID: "a2", Role: RoleAnalyst, DeliveryToken: "tok-a2"},
		{ID: "s1", Role: RoleSupervisor, DeliveryToken: "tok-s1"},
		{ID: "sp", Role: RoleSpecialist},
	}}
	dispatcher := &fakeDispatcher{}

	rules := DefaultRules(7)
	// 22:03 falls inside both the graveyard check-in (22:00 ±7) and the
	// night maintenance check (22:10 ±7) windows.
	o := newTestOrchestrator(t, store, dispatcher, rules,
		time.Date(2026, 8, 30, 22, 3, 0, 0, time.UTC))

	result := o.RunTick(context.Background())

	assert.Equal(t, len(rules), result.Evaluated)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 2, result.Created)
	assert.Empty(t, result.Errors)

	// One record per matching rule, never one per recipient.
	require.Len(t, store.records, 2)
	assert.Equal(t, "alert", store.records[0].Kind)
	assert.Equal(t, "analyst,supervisor", store.records[0].Role)
	require.NotNil(t, store.records[0].TimeSlot)
	assert.Equal(t, SlotGraveyardStart, *store.records[0].TimeSlot)
	assert.Equal(t, "system", store.records[1].Kind)
	assert.Equal(t, "admin", store.records[1].Role)

	// Graveyard fan-out targets the three analyst/supervisor accounts; the
	// admin check has no recipients at all.
	require.Len(t, dispatcher.sends, 2)
	assert.Equal(t, 3, dispatcher.sends[0])
	assert.Equal(t, 0, dispatcher.sends[1])
	assert.Equal(t, 3, result.PushSuccess)
}

func TestRunTickIsIdempotentWithinDay(t *testing.T) {
	t.Parallel()

	store := &fakeStore{recipients: []notify.Recipient{
		{ID: "sp", Role: RoleSpecialist, DeliveryToken: "tok"},
	}}
	o := newTestOrchestrator(t, store, &fakeDispatcher{}, DefaultRules(7),
		time.Date(2026, 8, 30, 16, 30, 0, 0, time.UTC))

	first := o.RunTick(context.Background())
	assert.Equal(t, 1, first.Created)
	assert.Equal(t, 0, first.Deduped)

	// Second tick five minutes later, still inside the window: the dedup
	// check sees the first write and suppresses a second record.
	o.now = func() time.Time { return time.Date(2026, 8, 30, 16, 35, 0, 0, time.UTC) }
	second := o.RunTick(context.Background())
	assert.Equal(t, 1, second.Matched)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Deduped)
	assert.Len(t, store.records, 1)
}

func TestRunTickNoMatchOutsideWindows(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	o := newTestOrchestrator(t, store, &fakeDispatcher{}, DefaultRules(7),
		time.Date(2026, 8, 30, 11, 0, 0, 0, time.UTC))

	result := o.RunTick(context.Background())
	assert.Equal(t, 0, result.Matched)
	assert.Empty(t, store.records)
}

func TestRunTickIsolatesRuleFailures(t *testing.T) {
	t.Parallel()

	// Two rules share the 09:00 window; the first one's insert fails.
	rules := []Rule{
		{Name: "broken", Hour: 9, Minute: 0, Tolerance: 7, Kind: "alert",
			Roles: []string{RoleAnalyst}, Priority: notify.PriorityHigh,
			Title: "t1", Message: "m1"},
		{Name: "healthy", Hour: 9, Minute: 0, Tolerance: 7, Kind: "report",
			Roles: []string{RoleAnalyst}, Priority: notify.PriorityNormal,
			Title: "t2", Message: "m2"},
	}

	store := &failFirstInsertStore{}
	o := newTestOrchestrator(t, store, &fakeDispatcher{}, rules,
		time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC))

	result := o.RunTick(context.Background())

	// The broken rule is reported; the healthy sibling still ran.
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "rule broken")
	assert.Equal(t, 1, result.Created)
	require.Len(t, store.records, 1)
	assert.Equal(t, "report", store.records[0].Kind)
}

// failFirstInsertStore fails the first insert, then behaves normally.
type failFirstInsertStore struct {
	fakeStore
	calls int
}

func (s *failFirstInsertStore) Insert(ctx context.Context, rec *notify.Record) (int64, error) {
	s.calls++
	if s.calls == 1 {
		return 0, errors.New("store unavailable")
	}
	return s.fakeStore.Insert(ctx, rec)
}

func TestRoleLabel(t *testing.T) {
	t.Parallel()

	r := Rule{Roles: []string{RoleAnalyst, RoleSupervisor}}
	assert.Equal(t, "analyst,supervisor", r.RoleLabel())

	single := Rule{Roles: []string{RoleAdmin}}
	assert.Equal(t, "admin", single.RoleLabel())
}

func TestTickResultSummary(t *testing.T) {
	t.Parallel()

	r := TickResult{Evaluated: 9, Matched: 2, Created: 1, Deduped: 1, Duration: 42 * time.Millisecond}
	r.AddErrorf("rule %s: %v", "x", fmt.Errorf("boom"))
	assert.Contains(t, r.Summary(), "evaluated=9")
	assert.Contains(t, r.Summary(), "errors=1")
}
