package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectWeeklyIntoFutureMonth(t *testing.T) {
	r := Rule{Kind: Weekly}
	p := OccurrencesInMonth(r, date(2026, time.January, 5), 2026, time.February, nil)

	want := []time.Time{
		date(2026, time.February, 2),
		date(2026, time.February, 9),
		date(2026, time.February, 16),
		date(2026, time.February, 23),
	}
	assert.Equal(t, want, p.Dates)
	assert.Equal(t, 4, p.Count)
}

func TestProjectWeeklyBackwardFromFutureReference(t *testing.T) {
	// Reference after the target month: same grid reached by walking back.
	r := Rule{Kind: Weekly}
	p := OccurrencesInMonth(r, date(2026, time.March, 2), 2026, time.February, nil)

	want := []time.Time{
		date(2026, time.February, 2),
		date(2026, time.February, 9),
		date(2026, time.February, 16),
		date(2026, time.February, 23),
	}
	assert.Equal(t, want, p.Dates)
}

func TestProjectReferenceInsideMonth(t *testing.T) {
	// Occurrences both before and after the anchor are on the rule's grid.
	r := Rule{Kind: Biweekly}
	p := OccurrencesInMonth(r, date(2026, time.February, 16), 2026, time.February, nil)

	want := []time.Time{
		date(2026, time.February, 2),
		date(2026, time.February, 16),
	}
	assert.Equal(t, want, p.Dates)
}

func TestProjectEvery3Weeks(t *testing.T) {
	r := Rule{Kind: Every3Weeks}
	p := OccurrencesInMonth(r, date(2026, time.January, 7), 2026, time.March, nil)

	// Jan 7 -> Jan 28 -> Feb 18 -> Mar 11 -> Apr 1
	want := []time.Time{date(2026, time.March, 11)}
	assert.Equal(t, want, p.Dates)
}

func TestProjectMonthlyClamped(t *testing.T) {
	r := Rule{Kind: Monthly}
	p := OccurrencesInMonth(r, date(2026, time.January, 31), 2026, time.February, nil)
	assert.Equal(t, []time.Time{date(2026, time.February, 28)}, p.Dates)
}

func TestProjectCustomMonths(t *testing.T) {
	r := Rule{Kind: CustomMonths, Interval: 3}
	ref := date(2026, time.January, 31)

	p := OccurrencesInMonth(r, ref, 2026, time.April, nil)
	require.Equal(t, 1, p.Count)
	assert.Equal(t, []time.Time{date(2026, time.April, 30)}, p.Dates, "clamped to April's last day")

	assert.Zero(t, OccurrencesInMonth(r, ref, 2026, time.February, nil).Count)
	assert.Zero(t, OccurrencesInMonth(r, ref, 2026, time.March, nil).Count)

	// Anchor day is re-applied after the April clamp: July lands on the 31st.
	p = OccurrencesInMonth(r, ref, 2026, time.July, nil)
	assert.Equal(t, []time.Time{date(2026, time.July, 31)}, p.Dates)
}

func TestProjectCustomMonthsBackward(t *testing.T) {
	r := Rule{Kind: CustomMonths, Interval: 2}
	ref := date(2026, time.September, 10)

	p := OccurrencesInMonth(r, ref, 2026, time.May, nil)
	assert.Equal(t, []time.Time{date(2026, time.May, 10)}, p.Dates)

	assert.Zero(t, OccurrencesInMonth(r, ref, 2026, time.June, nil).Count)
}

func TestProjectCustomMonthsReferenceMonth(t *testing.T) {
	r := Rule{Kind: CustomMonths, Interval: 4}
	ref := date(2026, time.March, 12)
	p := OccurrencesInMonth(r, ref, 2026, time.March, nil)
	assert.Equal(t, []time.Time{ref}, p.Dates)
}

func TestProjectCustomMonthsIntervalOneUsesGrid(t *testing.T) {
	r := Rule{Kind: CustomMonths, Interval: 1}
	p := OccurrencesInMonth(r, date(2026, time.January, 15), 2026, time.June, nil)
	assert.Equal(t, []time.Time{date(2026, time.June, 15)}, p.Dates)
}

func TestProjectMonthlyPattern(t *testing.T) {
	r := Rule{Kind: MonthlyPattern, WeekOfMonth: intp(1), DayOfWeek: intp(1)}
	// Reference is irrelevant for pattern rules; the resolver is direct.
	p := OccurrencesInMonth(r, date(2020, time.June, 1), 2026, time.March, nil)
	assert.Equal(t, []time.Time{date(2026, time.March, 2)}, p.Dates)

	fixed := Rule{Kind: MonthlyPattern, DayOfMonth: intp(31)}
	assert.Zero(t, OccurrencesInMonth(fixed, date(2026, time.January, 31), 2026, time.April, nil).Count)
}

func TestProjectExcludesExistingDates(t *testing.T) {
	r := Rule{Kind: Weekly}
	ref := date(2026, time.January, 5)
	existing := NewDateSet(
		date(2026, time.February, 9),
		date(2026, time.February, 23),
		date(2026, time.February, 11), // not on the grid; must not matter
	)

	p := OccurrencesInMonth(r, ref, 2026, time.February, existing)
	want := []time.Time{
		date(2026, time.February, 2),
		date(2026, time.February, 16),
	}
	assert.Equal(t, want, p.Dates)
	assert.Equal(t, 2, p.Count)

	// A nil set leaves the projection unfiltered.
	assert.Equal(t, 4, OccurrencesInMonth(r, ref, 2026, time.February, nil).Count)
}

func TestProjectFarReferenceStaysBounded(t *testing.T) {
	// A reference decades away must terminate and still produce the month.
	r := Rule{Kind: Weekly}
	p := OccurrencesInMonth(r, date(1990, time.June, 4), 2026, time.February, nil)
	assert.NotZero(t, p.Count)

	rc := Rule{Kind: CustomMonths, Interval: 5}
	pc := OccurrencesInMonth(rc, date(1990, time.June, 4), 2026, time.February, nil)
	// 1990-06 to 2026-02 is 428 months; not a multiple of 5 -> no occurrence,
	// reported as zero rather than an error.
	assert.Zero(t, pc.Count)
}

func TestProjectNormalizesClock(t *testing.T) {
	r := Rule{Kind: Weekly}
	ref := time.Date(2026, time.January, 5, 9, 30, 0, 0, time.UTC)
	p := OccurrencesInMonth(r, ref, 2026, time.February, nil)
	require.NotEmpty(t, p.Dates)
	for _, d := range p.Dates {
		assert.Equal(t, 0, d.Hour())
	}
}
