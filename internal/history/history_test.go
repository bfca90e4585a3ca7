package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/termin-bot/internal/domain/appointment"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "termin.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndReadBack(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	started := time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
	finished := started.Add(40 * time.Second)
	res := appointment.Result{
		Outcome:    appointment.Booked,
		Reference:  "TNV-4711",
		Discovered: map[string]int{"2025-03-11": 4, "2025-03-18": 1},
	}
	require.NoError(t, s.RecordAttempt(ctx, started, finished, res, nil))

	records, err := s.RecentAttempts(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "booked", rec.Outcome)
	assert.Equal(t, "TNV-4711", rec.Detail)
	assert.True(t, rec.StartedAt.Equal(started))
	assert.True(t, rec.FinishedAt.Equal(finished))
	assert.Equal(t, map[string]int{"2025-03-11": 4, "2025-03-18": 1}, rec.FreeDays)
}

func TestRecordAttemptStoresError(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	now := time.Now()
	res := appointment.Result{Outcome: appointment.NotFound, Discovered: map[string]int{}}
	require.NoError(t, s.RecordAttempt(ctx, now, now, res, errors.New("portal unreachable")))

	records, err := s.RecentAttempts(ctx, 1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "not_found", records[0].Outcome)
	assert.Equal(t, "portal unreachable", records[0].Detail)
	assert.Empty(t, records[0].FreeDays)
}

func TestRecentAttemptsNewestFirstAndLimited(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		now := time.Now()
		res := appointment.Result{Outcome: appointment.NotFound, Discovered: map[string]int{}}
		require.NoError(t, s.RecordAttempt(ctx, now, now, res, nil))
	}

	records, err := s.RecentAttempts(ctx, 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Greater(t, records[0].ID, records[1].ID)
	assert.Greater(t, records[1].ID, records[2].ID)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "termin.db")
	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	records, err := s2.RecentAttempts(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
