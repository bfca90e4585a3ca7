package appointment

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func optionAt(t *testing.T, hour, min int) TimeOption {
	t.Helper()
	at := time.Date(2025, time.March, 11, hour, min, 0, 0, time.Local)
	return TimeOption{Value: strconv.FormatInt(at.UnixMilli(), 10), At: at}
}

func mustWindow(t *testing.T, from, to string) TimeWindow {
	t.Helper()
	w, err := ParseWindow(from, to)
	require.NoError(t, err)
	return w
}

func TestChooseOptionFirstMatchWins(t *testing.T) {
	windows := []TimeWindow{mustWindow(t, "09:00", "12:00")}
	options := []TimeOption{
		optionAt(t, 8, 30),
		optionAt(t, 10, 15),
		optionAt(t, 11, 0),
	}

	got, err := ChooseOption(options, windows)
	require.NoError(t, err)
	assert.Equal(t, "10:15", got.At.Format("15:04"))
}

func TestChooseOptionInclusiveBounds(t *testing.T) {
	windows := []TimeWindow{mustWindow(t, "09:00", "12:00")}

	lower, err := ChooseOption([]TimeOption{optionAt(t, 9, 0)}, windows)
	require.NoError(t, err)
	assert.Equal(t, "09:00", lower.At.Format("15:04"))

	upper, err := ChooseOption([]TimeOption{optionAt(t, 12, 0)}, windows)
	require.NoError(t, err)
	assert.Equal(t, "12:00", upper.At.Format("15:04"))

	_, err = ChooseOption([]TimeOption{optionAt(t, 12, 1)}, windows)
	assert.ErrorIs(t, err, ErrNoEligibleSlot)
}

func TestChooseOptionSecondWindow(t *testing.T) {
	windows := []TimeWindow{
		mustWindow(t, "08:00", "09:00"),
		mustWindow(t, "14:00", "16:00"),
	}
	got, err := ChooseOption([]TimeOption{optionAt(t, 14, 30)}, windows)
	require.NoError(t, err)
	assert.Equal(t, "14:30", got.At.Format("15:04"))
}

func TestChooseOptionNoWindows(t *testing.T) {
	_, err := ChooseOption([]TimeOption{optionAt(t, 10, 0)}, nil)
	assert.ErrorIs(t, err, ErrNoEligibleSlot)
}

func TestOptionFromValue(t *testing.T) {
	at := time.Date(2025, time.April, 1, 10, 15, 0, 0, time.Local)
	opt, ok := OptionFromValue(strconv.FormatInt(at.UnixMilli(), 10))
	require.True(t, ok)
	assert.True(t, opt.At.Equal(at))

	_, ok = OptionFromValue("")
	assert.False(t, ok)
	_, ok = OptionFromValue("not-a-number")
	assert.False(t, ok)
}

func TestParseWindowRejectsInverted(t *testing.T) {
	_, err := ParseWindow("12:00", "09:00")
	assert.Error(t, err)
}
