package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/example/termin-bot/internal/domain/appointment"
)

// Salutation is the portal's form-of-address select value.
type Salutation string

const (
	SalutationHerr  Salutation = "herr"
	SalutationFrau  Salutation = "frau"
	SalutationNone  Salutation = "x"
	SalutationFirma Salutation = "firma"
)

func ParseSalutation(s string) (Salutation, bool) {
	switch Salutation(strings.ToLower(strings.TrimSpace(s))) {
	case SalutationHerr:
		return SalutationHerr, true
	case SalutationFrau:
		return SalutationFrau, true
	case SalutationNone:
		return SalutationNone, true
	case SalutationFirma:
		return SalutationFirma, true
	}
	return "", false
}

// PersonalData is what the portal's booking form asks for.
type PersonalData struct {
	FOA       Salutation
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

// Request is one service item to book, with the party size for it.
type Request struct {
	ID     string
	People int
}

// Config is the validated, immutable rule set one run operates under.
// Built once at process start, passed read-only from there on.
type Config struct {
	Personal PersonalData
	Requests []Request
	Schedule Schedule
	Dates    appointment.DateFilter

	// Interval is the retry delay parsed from the file's periodic key
	// (MM:SS). Zero when the file does not set one.
	Interval time.Duration
}

// Error is a fatal configuration failure. Every violation found is
// reported, not just the first.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	if len(e.Violations) == 1 {
		return "configuration: " + e.Violations[0]
	}
	return fmt.Sprintf("configuration: %d problems:\n  - %s",
		len(e.Violations), strings.Join(e.Violations, "\n  - "))
}

// Schedule holds the eligible time windows per weekday. A weekday mapped
// to an empty list is closed.
type Schedule struct {
	windows map[time.Weekday][]appointment.TimeWindow
}

// Windows returns the eligible windows for a weekday, in configured order.
func (s Schedule) Windows(d time.Weekday) []appointment.TimeWindow {
	return s.windows[d]
}

// NewSchedule builds a schedule from explicit per-weekday windows. Weekdays
// not listed are closed.
func NewSchedule(windows map[time.Weekday][]appointment.TimeWindow) Schedule {
	w := make(map[time.Weekday][]appointment.TimeWindow, len(windows))
	for d, ws := range windows {
		w[d] = append([]appointment.TimeWindow(nil), ws...)
	}
	return Schedule{windows: w}
}

// OpenAllDays is the schedule used when no weekday configuration was given
// at all: every bookable weekday is open the full day.
func OpenAllDays() Schedule {
	w := make(map[time.Weekday][]appointment.TimeWindow, len(fileWeekdays))
	for _, d := range fileWeekdays {
		w[d] = []appointment.TimeWindow{appointment.FullDay()}
	}
	return Schedule{windows: w}
}

// fileWeekdays are the weekdays the portal books at all; the file schema
// has no sunday key and the calendar never flags a Sunday as free.
var fileWeekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}
