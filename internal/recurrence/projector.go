package recurrence

import "time"

// DateSet is a set of calendar dates, keyed by "2006-01-02". It is used to
// exclude dates that already have a materialized appointment from a
// projection.
type DateSet map[string]struct{}

// NewDateSet builds a DateSet from concrete dates; clock and location are
// ignored.
func NewDateSet(dates ...time.Time) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s DateSet) Add(d time.Time) {
	s[d.Format(time.DateOnly)] = struct{}{}
}

func (s DateSet) Contains(d time.Time) bool {
	_, ok := s[d.Format(time.DateOnly)]
	return ok
}

// Projection is the set of occurrence dates of one rule inside one month,
// in ascending order, as date-only times at midnight UTC.
type Projection struct {
	Count int         `json:"count"`
	Dates []time.Time `json:"dates"`
}

// maxPerMonth bounds in-month enumeration. Every supported rule has a period
// of at least 7 days, so no month can hold more than 5 occurrences; 10 leaves
// headroom without permitting a runaway loop.
const maxPerMonth = 10

// minCustomMonthsSteps is the floor on the customMonths walk bound.
const minCustomMonthsSteps = 24

// OccurrencesInMonth enumerates the occurrences of r that fall inside the
// target (year, month), starting computation from reference, which must be
// anchored to a real or hypothetical occurrence of the rule. When existing is
// non-nil, dates present in it are removed from the result (calendar
// rendering); a nil set leaves the projection unfiltered (revenue
// estimation).
//
// Iteration is always bounded, with bounds derived from the rule's minimum
// period and the distance between reference and the target month; exhausting
// a bound yields zero occurrences, never an error.
func OccurrencesInMonth(r Rule, reference time.Time, year int, month time.Month, existing DateSet) Projection {
	return OccurrencesInMonthAnchored(r, reference, reference.Day(), year, month, existing)
}

// OccurrencesInMonthAnchored is OccurrencesInMonth with an explicit anchor
// day of month, for callers whose reference instance may itself be a clamped
// date (see NextAnchored).
func OccurrencesInMonthAnchored(r Rule, reference time.Time, anchorDay int, year int, month time.Month, existing DateSet) Projection {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := time.Date(year, month, daysInMonth(year, month), 0, 0, 0, 0, time.UTC)
	ref := dateOnly(reference)

	var dates []time.Time
	switch {
	case r.Kind == CustomMonths && r.Interval > 1:
		dates = customMonthsInMonth(r, ref, anchorDay, monthStart, monthEnd)
	case r.Kind == MonthlyPattern:
		if d, ok := ResolveMonthlyPattern(r, year, month); ok {
			dates = []time.Time{d}
		}
	default:
		dates = gridInMonth(r, ref, anchorDay, monthStart, monthEnd)
	}

	if existing != nil {
		kept := dates[:0]
		for _, d := range dates {
			if !existing.Contains(d) {
				kept = append(kept, d)
			}
		}
		dates = kept
	}

	return Projection{Count: len(dates), Dates: dates}
}

// customMonthsInMonth walks one interval-sized step at a time from the
// reference toward the target month. Each step lands an exact multiple of
// Interval months from the reference, so the first candidate inside the
// target month is the month's single occurrence; walking past the month
// without landing in it means the month falls between steps and has none.
// The anchor day is re-applied (and clamped) every step.
func customMonthsInMonth(r Rule, ref time.Time, anchor int, monthStart, monthEnd time.Time) []time.Time {
	bound := minCustomMonthsSteps
	if d := monthDistance(ref, monthStart)/r.Interval + 2; d > bound {
		bound = d
	}

	cur := ref
	if ref.Before(monthStart) {
		for i := 0; i < bound; i++ {
			if !cur.Before(monthStart) {
				if cur.After(monthEnd) {
					break
				}
				return []time.Time{cur}
			}
			cur = NextAnchored(r, cur, anchor)
		}
		return nil
	}
	for i := 0; i < bound; i++ {
		if !cur.After(monthEnd) {
			if cur.Before(monthStart) {
				break
			}
			return []time.Time{cur}
		}
		cur = PreviousAnchored(r, cur, anchor)
	}
	return nil
}

// gridInMonth handles the fixed-grid kinds (weekly, biweekly, every3weeks,
// monthly, and customMonths with interval 1): seek the first occurrence
// inside the month from the reference, then enumerate forward until leaving
// it.
func gridInMonth(r Rule, ref time.Time, anchor int, monthStart, monthEnd time.Time) []time.Time {
	var dates []time.Time

	if ref.Before(monthStart) {
		cur := ref
		bound := seekBound(r, ref, monthStart)
		for i := 0; i < bound && cur.Before(monthStart); i++ {
			cur = NextAnchored(r, cur, anchor)
		}
		if cur.Before(monthStart) {
			return nil
		}
		for i := 0; i < maxPerMonth && !cur.After(monthEnd); i++ {
			dates = append(dates, cur)
			cur = NextAnchored(r, cur, anchor)
		}
		return dates
	}

	// Reference inside or past the target month: collect in-month hits while
	// walking backward, then extend forward past the reference if it sits
	// inside the month itself.
	cur := ref
	bound := seekBound(r, ref, monthEnd) + maxPerMonth
	for i := 0; i < bound && !cur.Before(monthStart); i++ {
		if !cur.After(monthEnd) {
			dates = append(dates, cur)
		}
		cur = PreviousAnchored(r, cur, anchor)
	}
	reverse(dates)

	if !ref.After(monthEnd) {
		cur = NextAnchored(r, ref, anchor)
		for i := 0; i < maxPerMonth && !cur.After(monthEnd); i++ {
			dates = append(dates, cur)
			cur = NextAnchored(r, cur, anchor)
		}
	}
	return dates
}

// seekBound derives the maximum number of steps needed to move from to the
// month boundary at to, from the rule's minimum period in days, with slack
// for clamped month steps.
func seekBound(r Rule, from, to time.Time) int {
	period := 7
	switch r.Kind {
	case Biweekly:
		period = 14
	case Every3Weeks:
		period = 21
	case Monthly, CustomMonths, MonthlyPattern:
		period = 28
	}
	days := int(to.Sub(from).Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days/period + 4
}

// monthDistance is the absolute whole-month distance between the months of a
// and b.
func monthDistance(a, b time.Time) int {
	d := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if d < 0 {
		d = -d
	}
	return d
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func reverse(dates []time.Time) {
	for i, j := 0, len(dates)-1; i < j; i, j = i+1, j-1 {
		dates[i], dates[j] = dates[j], dates[i]
	}
}
