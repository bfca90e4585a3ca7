package appointment

import "time"

// CalendarDay is one day the portal flags as having free capacity,
// discovered while scanning a month panel.
type CalendarDay struct {
	Date      time.Time
	FreeCount int
}

// TimeOption is one entry of the portal's time select box. Value is the
// portal-native option value, epoch milliseconds as a decimal string.
type TimeOption struct {
	Value string
	At    time.Time
}

// Outcome is the terminal result of one traversal run.
type Outcome int

const (
	// NotFound means the calendar was exhausted without an eligible day.
	NotFound Outcome = iota
	// Booked means the portal confirmed the appointment.
	Booked
	// Failed means a booking was attempted but the portal rejected it.
	Failed
	// Skipped means the one eligible day was abandoned (verification
	// unanswered); per policy no further day is tried in the same run.
	Skipped
)

func (o Outcome) String() string {
	switch o {
	case Booked:
		return "booked"
	case Failed:
		return "failed"
	case Skipped:
		return "skipped"
	default:
		return "not_found"
	}
}

// Result is what one traversal run reports back to the supervisor.
type Result struct {
	Outcome Outcome

	// Discovered maps YYYY-MM-DD to the free-slot count seen for that day.
	Discovered map[string]int

	// BookedAt is set when Outcome is Booked.
	BookedAt *time.Time

	// Reference is the portal's booking reference, when one was shown.
	Reference string
}

// Day returns a date at midnight in t's location, for calendar comparisons.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DayKey formats a date the way Result.Discovered and the exclusion set key it.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
