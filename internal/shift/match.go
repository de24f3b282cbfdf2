package shift

// Matches reports whether the current wall-clock time falls inside the
// window [targetMinute-tolerance, targetMinute+tolerance] of targetHour,
// with the minute bounds clamped to [0, 59].
//
// The check only matches within the target hour: a window whose tolerance
// crosses an hour boundary (e.g. 23:58 ±7) does not extend into the next
// hour. Inherited behavior, kept deliberately — the rule table places no
// window close enough to an hour boundary for the clamp to lose ticks.
func Matches(currentHour, currentMinute, targetHour, targetMinute, toleranceMinutes int) bool {
	if currentHour != targetHour {
		return false
	}
	lo := targetMinute - toleranceMinutes
	if lo < 0 {
		lo = 0
	}
	hi := targetMinute + toleranceMinutes
	if hi > 59 {
		hi = 59
	}
	return currentMinute >= lo && currentMinute <= hi
}
