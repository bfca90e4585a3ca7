package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/termin-bot/internal/domain/appointment"
)

var (
	clockRe = regexp.MustCompile(`^[0-2][0-9]:[0-5][0-9]$`)
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	// periodicRe is MM:SS, not a wall clock: the minutes part is an
	// arbitrary count, only the seconds are bounded.
	periodicRe = regexp.MustCompile(`^\d+:[0-5][0-9]$`)
)

// fileSchema models the booking config file. Exactly one of weekdays and
// availability may be used; they carry different defaulting semantics.
type fileSchema struct {
	Periodic     string                `yaml:"periodic"`
	PersonalData filePersonal          `yaml:"personal_data"`
	Requests     []fileRequest         `yaml:"requests"`
	Weekdays     map[string]yaml.Node `yaml:"weekdays"`
	Availability map[string]yaml.Node `yaml:"availability"`
	Dates        fileDates            `yaml:"dates"`
}

type filePersonal struct {
	FOA       string `yaml:"foa"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Phone     string `yaml:"phone"`
	Email     string `yaml:"email"`
}

type fileRequest struct {
	ID             string `yaml:"id"`
	NumberOfPeople int    `yaml:"number_of_people"`
}

type fileWindow struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

type fileDates struct {
	Earliest string   `yaml:"earliest"`
	Latest   string   `yaml:"latest"`
	Exclude  []string `yaml:"exclude"`
}

// FromFile loads and validates a declarative config file. All schema
// violations are collected and reported together.
func FromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &Error{Violations: []string{fmt.Sprintf("read %s: %v", path, err)}}
	}

	var f fileSchema
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Config{}, &Error{Violations: []string{fmt.Sprintf("parse %s: %v", path, err)}}
	}

	var v violations
	cfg := Config{}

	cfg.Personal = f.personal(&v)
	cfg.Requests = f.requests(&v)
	cfg.Schedule = f.schedule(&v)
	cfg.Dates = f.dates(&v)
	cfg.Interval = f.interval(&v)

	if len(v) > 0 {
		return Config{}, &Error{Violations: v}
	}
	return cfg, nil
}

type violations []string

func (v *violations) addf(format string, args ...any) {
	*v = append(*v, fmt.Sprintf(format, args...))
}

func (f fileSchema) personal(v *violations) PersonalData {
	p := PersonalData{
		FirstName: f.PersonalData.FirstName,
		LastName:  f.PersonalData.LastName,
		Phone:     f.PersonalData.Phone,
		Email:     f.PersonalData.Email,
	}
	foa, ok := ParseSalutation(f.PersonalData.FOA)
	if !ok {
		v.addf("personal_data.foa: %q is not one of herr, frau, x, firma", f.PersonalData.FOA)
	}
	p.FOA = foa
	for _, field := range []struct{ name, val string }{
		{"personal_data.first_name", p.FirstName},
		{"personal_data.last_name", p.LastName},
		{"personal_data.phone", p.Phone},
		{"personal_data.email", p.Email},
	} {
		if field.val == "" {
			v.addf("%s is required", field.name)
		}
	}
	return p
}

func (f fileSchema) requests(v *violations) []Request {
	if len(f.Requests) == 0 {
		v.addf("requests: at least one request is required")
		return nil
	}
	out := make([]Request, 0, len(f.Requests))
	for i, r := range f.Requests {
		if r.ID == "" {
			v.addf("requests[%d].id is required", i)
		}
		if r.NumberOfPeople < 1 {
			v.addf("requests[%d].number_of_people must be at least 1", i)
		}
		out = append(out, Request{ID: r.ID, People: r.NumberOfPeople})
	}
	return out
}

// schedule dispatches to the schema variant the file uses. The flat
// weekdays form and the availability form default differently and are
// never mixed in one file.
func (f fileSchema) schedule(v *violations) Schedule {
	switch {
	case f.Weekdays != nil && f.Availability != nil:
		v.addf("weekdays and availability are mutually exclusive; use one")
		return Schedule{}
	case f.Weekdays != nil:
		return loadFlatSchedule(f.Weekdays, v)
	case f.Availability != nil:
		return loadAvailabilitySchedule(f.Availability, v)
	default:
		return OpenAllDays()
	}
}

// loadFlatSchedule: a listed weekday gets exactly its windows (an empty
// list closes the day); an unlisted weekday is open the full day.
func loadFlatSchedule(days map[string]yaml.Node, v *violations) Schedule {
	s := OpenAllDays()
	for name, node := range days {
		wd, ok := fileWeekdays[name]
		if !ok {
			v.addf("weekdays.%s: unknown weekday", name)
			continue
		}
		s.windows[wd] = decodeWindows("weekdays."+name, node, v)
	}
	return s
}

// loadAvailabilitySchedule: a listed weekday is either the literal
// "unavailable" or a window list; an unlisted weekday is open the full day.
func loadAvailabilitySchedule(days map[string]yaml.Node, v *violations) Schedule {
	s := OpenAllDays()
	for name, node := range days {
		wd, ok := fileWeekdays[name]
		if !ok {
			v.addf("availability.%s: unknown weekday", name)
			continue
		}
		if node.Kind == yaml.ScalarNode {
			switch node.Value {
			case "unavailable":
				s.windows[wd] = nil
			case "available":
				s.windows[wd] = []appointment.TimeWindow{appointment.FullDay()}
			default:
				v.addf("availability.%s: want \"available\", \"unavailable\" or a window list, got %q", name, node.Value)
			}
			continue
		}
		s.windows[wd] = decodeWindows("availability."+name, node, v)
	}
	return s
}

func decodeWindows(key string, node yaml.Node, v *violations) []appointment.TimeWindow {
	if node.IsZero() {
		return nil
	}
	var raw []fileWindow
	if err := node.Decode(&raw); err != nil {
		v.addf("%s: %v", key, err)
		return nil
	}
	windows := make([]appointment.TimeWindow, 0, len(raw))
	for i, fw := range raw {
		bad := false
		if !clockRe.MatchString(fw.From) {
			v.addf("%s[%d].from: %q does not match HH:MM", key, i, fw.From)
			bad = true
		}
		if !clockRe.MatchString(fw.To) {
			v.addf("%s[%d].to: %q does not match HH:MM", key, i, fw.To)
			bad = true
		}
		if bad {
			continue
		}
		w, err := appointment.ParseWindow(fw.From, fw.To)
		if err != nil {
			v.addf("%s[%d]: %v", key, i, err)
			continue
		}
		windows = append(windows, w)
	}
	return windows
}

func (f fileSchema) dates(v *violations) appointment.DateFilter {
	filter := appointment.DateFilter{Excluded: map[string]struct{}{}}
	parse := func(key, s string) *time.Time {
		if s == "" {
			return nil
		}
		if !dateRe.MatchString(s) {
			v.addf("dates.%s: %q does not match YYYY-MM-DD", key, s)
			return nil
		}
		t, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			v.addf("dates.%s: %v", key, err)
			return nil
		}
		return &t
	}
	filter.Earliest = parse("earliest", f.Dates.Earliest)
	filter.Latest = parse("latest", f.Dates.Latest)
	for i, s := range f.Dates.Exclude {
		if !dateRe.MatchString(s) {
			v.addf("dates.exclude[%d]: %q does not match YYYY-MM-DD", i, s)
			continue
		}
		filter.Excluded[s] = struct{}{}
	}
	return filter
}

func (f fileSchema) interval(v *violations) time.Duration {
	if f.Periodic == "" {
		return 0
	}
	if !periodicRe.MatchString(f.Periodic) {
		v.addf("periodic: %q does not match MM:SS", f.Periodic)
		return 0
	}
	var m, s int
	fmt.Sscanf(f.Periodic, "%d:%d", &m, &s)
	return time.Duration(m)*time.Minute + time.Duration(s)*time.Second
}
