package recurrence

import (
	"encoding/json"
	"fmt"
)

// Kind identifies the repeat pattern of a Rule.
type Kind string

const (
	Weekly         Kind = "weekly"
	Biweekly       Kind = "biweekly"
	Every3Weeks    Kind = "every3weeks"
	Monthly        Kind = "monthly"
	CustomMonths   Kind = "customMonths"
	MonthlyPattern Kind = "monthlyPattern"
)

// WeekLast selects the last matching weekday of the month in a
// MonthlyPattern rule.
const WeekLast = -1

// Rule describes how a recurrence family repeats. It is a tagged union on
// Kind: only the fields required by the kind may be set, and Validate
// rejects anything else. The zero Rule is invalid.
//
// CustomMonths carries Interval (months between occurrences). MonthlyPattern
// carries exactly one of two sub-patterns: a weekday pattern
// (WeekOfMonth + DayOfWeek, e.g. "third Tuesday") or a fixed day of month
// (DayOfMonth).
type Rule struct {
	Kind        Kind
	Interval    int
	DayOfWeek   *int // 0 = Sunday .. 6 = Saturday
	WeekOfMonth *int // 1..4, or WeekLast
	DayOfMonth  *int // 1..31
}

type wireRule struct {
	Type        string `json:"type"`
	Interval    *int   `json:"interval,omitempty"`
	DayOfWeek   *int   `json:"dayOfWeek,omitempty"`
	WeekOfMonth *int   `json:"weekOfMonth,omitempty"`
	DayOfMonth  *int   `json:"dayOfMonth,omitempty"`
}

// Validate checks that the rule's kind is known and that it carries exactly
// the fields its kind requires. Invalid rules are rejected here rather than
// silently defaulted.
func (r Rule) Validate() error {
	switch r.Kind {
	case Weekly, Biweekly, Every3Weeks, Monthly:
		if r.Interval != 0 || r.DayOfWeek != nil || r.WeekOfMonth != nil || r.DayOfMonth != nil {
			return fmt.Errorf("rule %q takes no parameters", r.Kind)
		}
		return nil

	case CustomMonths:
		if r.Interval < 1 {
			return fmt.Errorf("customMonths requires interval >= 1, got %d", r.Interval)
		}
		if r.DayOfWeek != nil || r.WeekOfMonth != nil || r.DayOfMonth != nil {
			return fmt.Errorf("customMonths takes only an interval")
		}
		return nil

	case MonthlyPattern:
		if r.Interval != 0 {
			return fmt.Errorf("monthlyPattern takes no interval")
		}
		weekday := r.DayOfWeek != nil || r.WeekOfMonth != nil
		fixed := r.DayOfMonth != nil
		if weekday == fixed {
			return fmt.Errorf("monthlyPattern requires exactly one of weekOfMonth+dayOfWeek or dayOfMonth")
		}
		if weekday {
			if r.DayOfWeek == nil || r.WeekOfMonth == nil {
				return fmt.Errorf("monthlyPattern weekday form requires both weekOfMonth and dayOfWeek")
			}
			if *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
				return fmt.Errorf("dayOfWeek must be 0..6, got %d", *r.DayOfWeek)
			}
			if w := *r.WeekOfMonth; w != WeekLast && (w < 1 || w > 4) {
				return fmt.Errorf("weekOfMonth must be 1..4 or -1, got %d", w)
			}
			return nil
		}
		if *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return fmt.Errorf("dayOfMonth must be 1..31, got %d", *r.DayOfMonth)
		}
		return nil

	default:
		return fmt.Errorf("unknown rule type %q", r.Kind)
	}
}

// MarshalJSON emits the persisted wire shape:
// {type, interval?, dayOfWeek?, weekOfMonth?, dayOfMonth?}.
func (r Rule) MarshalJSON() ([]byte, error) {
	w := wireRule{
		Type:        string(r.Kind),
		DayOfWeek:   r.DayOfWeek,
		WeekOfMonth: r.WeekOfMonth,
		DayOfMonth:  r.DayOfMonth,
	}
	if r.Interval != 0 {
		w.Interval = &r.Interval
	}
	return json.Marshal(w)
}

func (r *Rule) UnmarshalJSON(data []byte) error {
	var w wireRule
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Kind = Kind(w.Type)
	r.Interval = 0
	if w.Interval != nil {
		r.Interval = *w.Interval
	}
	r.DayOfWeek = w.DayOfWeek
	r.WeekOfMonth = w.WeekOfMonth
	r.DayOfMonth = w.DayOfMonth
	return nil
}

// Parse decodes and validates a serialized rule.
func Parse(data []byte) (Rule, error) {
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return Rule{}, fmt.Errorf("decode rule: %w", err)
	}
	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// String serializes the rule to its wire form. A rule that cannot be
// marshaled yields a placeholder, which cannot happen for a validated Rule.
func (r Rule) String() string {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf("<invalid rule: %v>", err)
	}
	return string(data)
}

var weekdayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

var ordinals = map[int]string{1: "first", 2: "second", 3: "third", 4: "fourth", WeekLast: "last"}

// Describe returns a human-readable description of the rule.
func (r Rule) Describe() string {
	switch r.Kind {
	case Weekly:
		return "Repeats weekly"
	case Biweekly:
		return "Repeats every 2 weeks"
	case Every3Weeks:
		return "Repeats every 3 weeks"
	case Monthly:
		return "Repeats monthly"
	case CustomMonths:
		if r.Interval == 1 {
			return "Repeats monthly"
		}
		return fmt.Sprintf("Repeats every %d months", r.Interval)
	case MonthlyPattern:
		if r.DayOfMonth != nil {
			return fmt.Sprintf("Repeats on day %d of each month", *r.DayOfMonth)
		}
		if r.DayOfWeek != nil && r.WeekOfMonth != nil {
			return fmt.Sprintf("Repeats on the %s %s of each month", ordinals[*r.WeekOfMonth], weekdayNames[*r.DayOfWeek])
		}
	}
	return ""
}
