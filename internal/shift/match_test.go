package shift

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		curHour   int
		curMin    int
		tgtHour   int
		tgtMin    int
		tolerance int
		want      bool
	}{
		{name: "exact hit", curHour: 16, curMin: 30, tgtHour: 16, tgtMin: 30, tolerance: 7, want: true},
		{name: "early edge of window", curHour: 16, curMin: 23, tgtHour: 16, tgtMin: 30, tolerance: 7, want: true},
		{name: "just before window", curHour: 16, curMin: 22, tgtHour: 16, tgtMin: 30, tolerance: 7, want: false},
		{name: "late edge of window", curHour: 16, curMin: 37, tgtHour: 16, tgtMin: 30, tolerance: 7, want: true},
		{name: "just after window", curHour: 16, curMin: 38, tgtHour: 16, tgtMin: 30, tolerance: 7, want: false},
		{name: "tick inside window", curHour: 16, curMin: 25, tgtHour: 16, tgtMin: 30, tolerance: 7, want: true},
		{name: "wrong hour same minute", curHour: 17, curMin: 30, tgtHour: 16, tgtMin: 30, tolerance: 7, want: false},
		{name: "lower bound clamped to zero", curHour: 22, curMin: 0, tgtHour: 22, tgtMin: 3, tolerance: 7, want: true},
		{name: "clamp does not wrap to previous hour", curHour: 21, curMin: 58, tgtHour: 22, tgtMin: 3, tolerance: 7, want: false},
		{name: "upper bound clamped to 59", curHour: 10, curMin: 59, tgtHour: 10, tgtMin: 55, tolerance: 7, want: true},
		{name: "hour boundary limitation", curHour: 0, curMin: 2, tgtHour: 23, tgtMin: 58, tolerance: 7, want: false},
		{name: "hour boundary same-hour side", curHour: 23, curMin: 59, tgtHour: 23, tgtMin: 58, tolerance: 7, want: true},
		{name: "zero tolerance exact only", curHour: 6, curMin: 10, tgtHour: 6, tgtMin: 10, tolerance: 0, want: true},
		{name: "zero tolerance one minute off", curHour: 6, curMin: 11, tgtHour: 6, tgtMin: 10, tolerance: 0, want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Matches(tt.curHour, tt.curMin, tt.tgtHour, tt.tgtMin, tt.tolerance)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDefaultRulesShape(t *testing.T) {
	t.Parallel()

	rules := DefaultRules(7)
	assert.Len(t, rules, 9)

	seen := make(map[string]bool)
	for _, r := range rules {
		assert.NotEmpty(t, r.Name)
		assert.False(t, seen[r.Name], "duplicate rule name %s", r.Name)
		seen[r.Name] = true

		assert.NotEmpty(t, r.Roles)
		assert.NotEmpty(t, r.Title)
		assert.NotEmpty(t, r.Message)
		assert.Equal(t, 7, r.Tolerance)
		assert.GreaterOrEqual(t, r.Hour, 0)
		assert.LessOrEqual(t, r.Hour, 23)
		assert.GreaterOrEqual(t, r.Minute, 0)
		assert.LessOrEqual(t, r.Minute, 59)
	}

	// Dedup keys (kind, role label, time slot) must be unique across the
	// table, otherwise one rule's write suppresses a sibling's.
	keys := make(map[string]bool)
	for _, r := range rules {
		key := r.Kind + "|" + r.RoleLabel() + "|" + r.TimeSlot
		assert.False(t, keys[key], "duplicate dedup key %s", key)
		keys[key] = true
	}
}
