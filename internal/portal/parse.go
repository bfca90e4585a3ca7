package portal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// months maps the portal's German month captions to calendar months.
var months = map[string]time.Month{
	"Januar":    time.January,
	"Februar":   time.February,
	"März":      time.March,
	"April":     time.April,
	"Mai":       time.May,
	"Juni":      time.June,
	"Juli":      time.July,
	"August":    time.August,
	"September": time.September,
	"Oktober":   time.October,
	"November":  time.November,
	"Dezember":  time.December,
}

// Panel is one parsed month block of the two-panel calendar view.
type Panel struct {
	Month time.Month
	Year  int

	// Days lists the free-flagged days in document order, which is
	// calendar order within the month.
	Days []DayCell
}

type DayCell struct {
	Day  int
	Free int
}

// Date resolves a day cell against the panel's month and year.
func (p Panel) Date(c DayCell) time.Time {
	return time.Date(p.Year, p.Month, c.Day, 0, 0, 0, 0, time.Local)
}

// ParsePanel reads one month table's HTML. A panel with no free days still
// parses, since the caption carries the month/year bookkeeping the scan
// needs across year rollovers.
func ParsePanel(html string) (Panel, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Panel{}, fmt.Errorf("parse panel: %w", err)
	}

	caption := strings.TrimSpace(doc.Find("caption").First().Text())
	fields := strings.Fields(caption)
	if len(fields) != 2 {
		return Panel{}, fmt.Errorf("parse panel: caption %q is not \"<month> <year>\"", caption)
	}
	month, ok := months[fields[0]]
	if !ok {
		return Panel{}, fmt.Errorf("parse panel: unknown month %q", fields[0])
	}
	year, err := strconv.Atoi(fields[1])
	if err != nil {
		return Panel{}, fmt.Errorf("parse panel: year %q: %w", fields[1], err)
	}

	p := Panel{Month: month, Year: year}
	var dayErr error
	doc.Find(freeDayButtonSel).Each(func(_ int, s *goquery.Selection) {
		if dayErr != nil {
			return
		}
		day, err := intText(s, dayNumberSel, "day number")
		if err != nil {
			dayErr = err
			return
		}
		free, err := intText(s, freeCountSel, "free count")
		if err != nil {
			dayErr = err
			return
		}
		p.Days = append(p.Days, DayCell{Day: day, Free: free})
	})
	if dayErr != nil {
		return Panel{}, dayErr
	}
	return p, nil
}

// intText reads the leading integer of a child element's text. The free
// count renders as "12 frei", so only the first field counts.
func intText(s *goquery.Selection, sel, what string) (int, error) {
	el := s.Find(sel).First()
	if el.Length() == 0 {
		return 0, fmt.Errorf("parse panel: no %s in day button", what)
	}
	fields := strings.Fields(el.Text())
	if len(fields) == 0 {
		return 0, fmt.Errorf("parse panel: empty %s", what)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("parse panel: %s %q: %w", what, fields[0], err)
	}
	return n, nil
}
