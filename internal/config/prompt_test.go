package config

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/termin-bot/internal/domain/appointment"
)

func TestFromPromptsNonInteractiveComplete(t *testing.T) {
	fl := Flags{
		NoInteractive: true,
		FOA:           "frau",
		FirstName:     "Erika",
		LastName:      "Mustermann",
		Phone:         "030654321",
		Email:         "erika@example.org",
		Requests:      []string{"svc=2", "other=1"},
	}
	var out bytes.Buffer
	cfg, err := FromPrompts(fl, strings.NewReader(""), &out)
	require.NoError(t, err)

	assert.Equal(t, SalutationFrau, cfg.Personal.FOA)
	assert.Equal(t, []Request{{ID: "svc", People: 2}, {ID: "other", People: 1}}, cfg.Requests)

	// The prompt path defaults the schedule to fully open.
	mon := cfg.Schedule.Windows(time.Monday)
	require.Len(t, mon, 1)
	assert.Equal(t, appointment.FullDay(), mon[0])
}

func TestFromPromptsNonInteractiveMissingFieldFails(t *testing.T) {
	fl := Flags{
		NoInteractive: true,
		FOA:           "herr",
		FirstName:     "Max",
		LastName:      "Mustermann",
		Phone:         "030123456",
		// Email missing, no EMAIL env either.
	}
	_, err := FromPrompts(fl, strings.NewReader(""), &bytes.Buffer{})
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "--email")
	assert.Contains(t, err.Error(), "EMAIL")
}

func TestFromPromptsEnvFallback(t *testing.T) {
	t.Setenv("EMAIL", "env@example.org")
	fl := Flags{
		NoInteractive: true,
		FOA:           "x",
		FirstName:     "A",
		LastName:      "B",
		Phone:         "1",
		Requests:      []string{"svc=1"},
	}
	cfg, err := FromPrompts(fl, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "env@example.org", cfg.Personal.Email)
}

func TestFromPromptsInteractiveRePrompts(t *testing.T) {
	// Bad salutation first, then a good one; the remaining fields are
	// answered in prompt order.
	in := strings.NewReader("doctor\nherr\nMax\nMustermann\n030123456\nmax@example.org\n")
	fl := Flags{Requests: []string{"svc=1"}}
	var out bytes.Buffer
	cfg, err := FromPrompts(fl, in, &out)
	require.NoError(t, err)
	assert.Equal(t, SalutationHerr, cfg.Personal.FOA)
	assert.Equal(t, "Max", cfg.Personal.FirstName)
	assert.Contains(t, out.String(), "Invalid value. Please try again.")
}

func TestParseRequestFlags(t *testing.T) {
	reqs, err := parseRequestFlags([]string{"a=1", "b=3"})
	require.NoError(t, err)
	assert.Equal(t, []Request{{ID: "a", People: 1}, {ID: "b", People: 3}}, reqs)

	_, err = parseRequestFlags([]string{"a"})
	assert.Error(t, err)
	_, err = parseRequestFlags([]string{"a=0"})
	assert.Error(t, err)
	_, err = parseRequestFlags(nil)
	assert.Error(t, err)
}
