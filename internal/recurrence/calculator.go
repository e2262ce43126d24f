package recurrence

import "time"

// Next returns the occurrence immediately after d. For month-based rules the
// target day is clamped to the last day of the target month when the source
// day does not exist there (Jan 31 -> Feb 28). Next and Previous are mutual
// inverses for the fixed-interval kinds; the inverse law is not guaranteed
// across a step that clamped.
func Next(r Rule, d time.Time) time.Time {
	return NextAnchored(r, d, d.Day())
}

// NextAnchored is Next with an explicit anchor day of month. CustomMonths
// re-anchors every step to the family's original day of month rather than the
// possibly clamped day of the current date; callers that hold the true anchor
// (the projector, the lifecycle manager) pass it here.
func NextAnchored(r Rule, d time.Time, anchorDay int) time.Time {
	switch r.Kind {
	case Weekly:
		return d.AddDate(0, 0, 7)
	case Biweekly:
		return d.AddDate(0, 0, 14)
	case Every3Weeks:
		return d.AddDate(0, 0, 21)
	case Monthly:
		return addMonthsClamped(d, 1, anchorDay)
	case CustomMonths:
		return addMonthsClamped(d, r.Interval, anchorDay)
	case MonthlyPattern:
		return shiftMonthlyPattern(r, d, 1)
	}
	return time.Time{}
}

// Previous returns the occurrence immediately before d.
func Previous(r Rule, d time.Time) time.Time {
	return PreviousAnchored(r, d, d.Day())
}

// PreviousAnchored is Previous with an explicit anchor day of month.
func PreviousAnchored(r Rule, d time.Time, anchorDay int) time.Time {
	switch r.Kind {
	case Weekly:
		return d.AddDate(0, 0, -7)
	case Biweekly:
		return d.AddDate(0, 0, -14)
	case Every3Weeks:
		return d.AddDate(0, 0, -21)
	case Monthly:
		return addMonthsClamped(d, -1, anchorDay)
	case CustomMonths:
		return addMonthsClamped(d, -r.Interval, anchorDay)
	case MonthlyPattern:
		return shiftMonthlyPattern(r, d, -1)
	}
	return time.Time{}
}

// addMonthsClamped moves d by delta calendar months, landing on anchorDay or
// the last day of the target month, whichever is earlier. It avoids
// time.AddDate's day-overflow normalization (Jan 31 + 1 month must be
// Feb 28/29, never Mar 2/3).
func addMonthsClamped(d time.Time, delta int, anchorDay int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(delta), 1,
		d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	day := anchorDay
	if last := daysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day,
		d.Hour(), d.Minute(), d.Second(), 0, d.Location())
}

// shiftMonthlyPattern resolves the rule's sub-pattern in the month delta
// months away from d. The weekday form always resolves for a valid rule; the
// fixed-day form places the day directly, as day-of-month values are asserted
// valid by rule validation and callers are expected to stay within 1..28 for
// short months.
func shiftMonthlyPattern(r Rule, d time.Time, delta int) time.Time {
	first := time.Date(d.Year(), d.Month()+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	if r.DayOfMonth != nil {
		return time.Date(first.Year(), first.Month(), *r.DayOfMonth,
			d.Hour(), d.Minute(), d.Second(), 0, d.Location())
	}
	res, ok := ResolveMonthlyPattern(r, first.Year(), first.Month())
	if !ok {
		return time.Time{}
	}
	return time.Date(res.Year(), res.Month(), res.Day(),
		d.Hour(), d.Minute(), d.Second(), 0, d.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
