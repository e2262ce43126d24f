package recurrence

import "time"

// ResolveMonthlyPattern computes the single occurrence of a MonthlyPattern
// rule inside the given month, at midnight UTC. The second return is false
// when the month has no occurrence: for the fixed-day form that is any month
// shorter than DayOfMonth (no forward clamping — the month simply has no
// occurrence), for the weekday form it cannot happen with a validated rule
// but callers must still check.
func ResolveMonthlyPattern(r Rule, year int, month time.Month) (time.Time, bool) {
	if r.Kind != MonthlyPattern {
		return time.Time{}, false
	}

	last := daysInMonth(year, month)

	if r.DayOfMonth != nil {
		if *r.DayOfMonth > last {
			return time.Time{}, false
		}
		return time.Date(year, month, *r.DayOfMonth, 0, 0, 0, 0, time.UTC), true
	}

	if r.DayOfWeek == nil || r.WeekOfMonth == nil {
		return time.Time{}, false
	}
	want := *r.DayOfWeek

	if *r.WeekOfMonth == WeekLast {
		// Work backward from the last day of the month.
		lastWeekday := int(time.Date(year, month, last, 0, 0, 0, 0, time.UTC).Weekday())
		daysFromLast := (lastWeekday - want + 7) % 7
		return time.Date(year, month, last-daysFromLast, 0, 0, 0, 0, time.UTC), true
	}

	firstWeekday := int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
	day := 1 + (want-firstWeekday+7)%7 + (*r.WeekOfMonth-1)*7
	if day > last {
		return time.Time{}, false
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), true
}
