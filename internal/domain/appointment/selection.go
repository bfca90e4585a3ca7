package appointment

import (
	"strconv"
	"time"
)

// ChooseOption returns the first option, in the order the portal offered
// them, whose clock time falls inside any of the given windows. No
// optimization across options: first match wins. Returns ErrNoEligibleSlot
// when nothing matches.
func ChooseOption(options []TimeOption, windows []TimeWindow) (TimeOption, error) {
	for _, opt := range options {
		for _, w := range windows {
			if w.Contains(opt.At) {
				return opt, nil
			}
		}
	}
	return TimeOption{}, ErrNoEligibleSlot
}

// OptionFromValue decodes a portal option value (epoch milliseconds) into a
// TimeOption in the local timezone, which is the zone the portal renders
// its calendar in.
func OptionFromValue(value string) (TimeOption, bool) {
	ms, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return TimeOption{}, false
	}
	return TimeOption{Value: value, At: time.UnixMilli(ms).Local()}, true
}
