package portal

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func panelHTML(caption string, days ...[2]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<table id="monthtable0"><caption>%s</caption><tbody>`, caption)
	for _, d := range days {
		fmt.Fprintf(&b, `<tr><td><button class="ekolCalendar_ButtonDayFreeX">`+
			`<div class="ekolCalendar_DayNumberInRange">%d</div>`+
			`<div class="ekolCalendar_FreeTimeContainer">%d frei</div>`+
			`</button></td></tr>`, d[0], d[1])
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func TestParsePanel(t *testing.T) {
	p, err := ParsePanel(panelHTML("März 2025", [2]int{5, 3}, [2]int{11, 12}))
	require.NoError(t, err)

	assert.Equal(t, time.March, p.Month)
	assert.Equal(t, 2025, p.Year)
	require.Len(t, p.Days, 2)
	assert.Equal(t, DayCell{Day: 5, Free: 3}, p.Days[0])
	assert.Equal(t, DayCell{Day: 11, Free: 12}, p.Days[1])

	date := p.Date(p.Days[1])
	assert.Equal(t, "2025-03-11", date.Format("2006-01-02"))
}

func TestParsePanelNoFreeDays(t *testing.T) {
	// Caption bookkeeping must survive panels without any free day so the
	// year rollover is tracked.
	p, err := ParsePanel(panelHTML("Dezember 2025"))
	require.NoError(t, err)
	assert.Equal(t, time.December, p.Month)
	assert.Equal(t, 2025, p.Year)
	assert.Empty(t, p.Days)
}

func TestParsePanelAllGermanMonths(t *testing.T) {
	names := []string{
		"Januar", "Februar", "März", "April", "Mai", "Juni",
		"Juli", "August", "September", "Oktober", "November", "Dezember",
	}
	for i, name := range names {
		p, err := ParsePanel(panelHTML(name + " 2026"))
		require.NoError(t, err, name)
		assert.Equal(t, time.Month(i+1), p.Month, name)
	}
}

func TestParsePanelBadCaption(t *testing.T) {
	_, err := ParsePanel(panelHTML("Smarch 2025"))
	assert.ErrorContains(t, err, "unknown month")

	_, err = ParsePanel(panelHTML("März"))
	assert.ErrorContains(t, err, "caption")
}

func TestParsePanelMalformedDayButton(t *testing.T) {
	html := `<table><caption>Mai 2025</caption>` +
		`<button class="ekolCalendar_ButtonDayFreeX"><div class="ekolCalendar_DayNumberInRange">7</div></button>` +
		`</table>`
	_, err := ParsePanel(html)
	assert.ErrorContains(t, err, "free count")
}
