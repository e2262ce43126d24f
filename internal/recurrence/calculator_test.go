package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextFixedIntervals(t *testing.T) {
	anchor := date(2026, time.January, 5) // a Monday
	tests := []struct {
		rule Rule
		want time.Time
	}{
		{Rule{Kind: Weekly}, date(2026, time.January, 12)},
		{Rule{Kind: Biweekly}, date(2026, time.January, 19)},
		{Rule{Kind: Every3Weeks}, date(2026, time.January, 26)},
		{Rule{Kind: Monthly}, date(2026, time.February, 5)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Next(tt.rule, anchor), "next %s", tt.rule.Kind)
	}
}

func TestNextPreviousRoundTrip(t *testing.T) {
	rules := []Rule{
		{Kind: Weekly},
		{Kind: Biweekly},
		{Kind: Every3Weeks},
		{Kind: Monthly},
	}
	starts := []time.Time{
		date(2026, time.January, 5),
		date(2026, time.February, 27),
		date(2025, time.December, 15),
		date(2024, time.February, 29),
	}
	for _, r := range rules {
		for _, d := range starts {
			got := Previous(r, Next(r, d))
			assert.Equal(t, d, got, "previous(next(%s, %s))", r.Kind, d.Format(time.DateOnly))
		}
	}
}

func TestMonthlyClampsToShortMonth(t *testing.T) {
	r := Rule{Kind: Monthly}

	next := Next(r, date(2026, time.January, 31))
	assert.Equal(t, date(2026, time.February, 28), next)

	// Leap year keeps the 29th.
	next = Next(r, date(2024, time.January, 31))
	assert.Equal(t, date(2024, time.February, 29), next)

	prev := Previous(r, date(2026, time.March, 31))
	assert.Equal(t, date(2026, time.February, 28), prev)
}

func TestClampedMonthlyDoesNotRoundTrip(t *testing.T) {
	// Jan 31 -> Feb 28 -> Jan 28: the inverse law is documented not to hold
	// across a clamped step.
	r := Rule{Kind: Monthly}
	d := date(2026, time.January, 31)
	assert.Equal(t, date(2026, time.January, 28), Previous(r, Next(r, d)))
}

func TestCustomMonthsPreservesAnchorDay(t *testing.T) {
	r := Rule{Kind: CustomMonths, Interval: 3}
	anchor := date(2026, time.January, 31)

	// Jan 31 + 3 months clamps to Apr 30.
	step1 := Next(r, anchor)
	require.Equal(t, date(2026, time.April, 30), step1)

	// Stepping again with the original anchor lands on Jul 31, not Jul 30.
	step2 := NextAnchored(r, step1, anchor.Day())
	assert.Equal(t, date(2026, time.July, 31), step2)

	// Without the anchor the clamped day would stick.
	assert.Equal(t, date(2026, time.July, 30), Next(r, step1))
}

func TestCustomMonthsInterval(t *testing.T) {
	r := Rule{Kind: CustomMonths, Interval: 2}
	assert.Equal(t, date(2026, time.March, 15), Next(r, date(2026, time.January, 15)))
	assert.Equal(t, date(2025, time.November, 15), Previous(r, date(2026, time.January, 15)))
}

func TestNextMonthlyPatternWeekdayForm(t *testing.T) {
	// Third Tuesday of the month.
	r := Rule{Kind: MonthlyPattern, WeekOfMonth: intp(3), DayOfWeek: intp(2)}

	// From the third Tuesday of January 2026 (Jan 20).
	next := Next(r, date(2026, time.January, 20))
	assert.Equal(t, date(2026, time.February, 17), next)

	prev := Previous(r, date(2026, time.February, 17))
	assert.Equal(t, date(2026, time.January, 20), prev)
}

func TestNextMonthlyPatternFixedDay(t *testing.T) {
	r := Rule{Kind: MonthlyPattern, DayOfMonth: intp(15)}
	assert.Equal(t, date(2026, time.February, 15), Next(r, date(2026, time.January, 15)))
	assert.Equal(t, date(2025, time.December, 15), Previous(r, date(2026, time.January, 15)))
}

func TestNextPreservesClock(t *testing.T) {
	r := Rule{Kind: Weekly}
	d := time.Date(2026, time.January, 5, 14, 30, 0, 0, time.UTC)
	got := Next(r, d)
	assert.Equal(t, 14, got.Hour())
	assert.Equal(t, 30, got.Minute())
}
