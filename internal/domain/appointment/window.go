package appointment

import (
	"fmt"
	"time"
)

// TimeWindow is a time-of-day interval with inclusive bounds, stored as
// minutes since midnight.
type TimeWindow struct {
	From int
	To   int
}

// ParseWindow builds a window from two HH:MM strings. From must not be
// after To; schema validation upstream guarantees the format.
func ParseWindow(from, to string) (TimeWindow, error) {
	f, err := parseClock(from)
	if err != nil {
		return TimeWindow{}, err
	}
	t, err := parseClock(to)
	if err != nil {
		return TimeWindow{}, err
	}
	if f > t {
		return TimeWindow{}, fmt.Errorf("window %s-%s: from is after to", from, to)
	}
	return TimeWindow{From: f, To: t}, nil
}

// FullDay is the default window applied to weekdays the configuration
// leaves unspecified.
func FullDay() TimeWindow {
	return TimeWindow{From: 0, To: 23*60 + 59}
}

// Contains reports whether t's local wall-clock time falls inside the
// window. Both bounds are inclusive.
func (w TimeWindow) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.From && m <= w.To
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.From/60, w.From%60, w.To/60, w.To%60)
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid time %q (want HH:MM)", s)
	}
	return h*60 + m, nil
}
