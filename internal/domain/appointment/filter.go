package appointment

import "time"

// Verdict classifies a calendar day against the configured date bounds.
type Verdict int

const (
	Eligible Verdict = iota
	TooEarly
	// TooLate additionally terminates the scan: panels run in increasing
	// date order, so every later day is too late as well.
	TooLate
	Excluded
)

// DateFilter bounds and excludes candidate days. Nil bounds are open.
type DateFilter struct {
	Earliest *time.Time
	Latest   *time.Time
	Excluded map[string]struct{}
}

func (f DateFilter) Check(day time.Time) Verdict {
	d := Day(day)
	if f.Latest != nil && d.After(Day(*f.Latest)) {
		return TooLate
	}
	if f.Earliest != nil && d.Before(Day(*f.Earliest)) {
		return TooEarly
	}
	if _, ok := f.Excluded[DayKey(d)]; ok {
		return Excluded
	}
	return Eligible
}
