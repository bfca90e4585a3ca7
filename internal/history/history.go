// Package history keeps a local record of attempts and the free days each
// one discovered, so repeated supervisor runs can be compared afterwards.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/example/termin-bot/internal/domain/appointment"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempts (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	outcome     TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS free_days (
	attempt_id INTEGER NOT NULL REFERENCES attempts(id),
	day        TEXT NOT NULL,
	free_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_free_days_attempt ON free_days(attempt_id);
`

// Store is a sqlite-backed attempt log.
type Store struct {
	db *sql.DB
}

// Open opens (and migrates) the history database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RecordAttempt stores one attempt and its discovered days.
func (s *Store) RecordAttempt(ctx context.Context, started, finished time.Time, res appointment.Result, attemptErr error) error {
	detail := ""
	if attemptErr != nil {
		detail = attemptErr.Error()
	} else if res.Reference != "" {
		detail = res.Reference
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
INSERT INTO attempts(started_at, finished_at, outcome, detail)
VALUES (?, ?, ?, ?)
RETURNING id`,
		started.UTC(), finished.UTC(), res.Outcome.String(), detail)
	var id int64
	if err := row.Scan(&id); err != nil {
		return err
	}

	for day, free := range res.Discovered {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO free_days(attempt_id, day, free_count) VALUES (?, ?, ?)`,
			id, day, free); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AttemptRecord is one stored attempt with its discovered days.
type AttemptRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Detail     string
	FreeDays   map[string]int
}

// RecentAttempts returns up to limit attempts, newest first.
func (s *Store) RecentAttempts(ctx context.Context, limit int) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, started_at, finished_at, outcome, detail
FROM attempts
ORDER BY id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		var r AttemptRecord
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.Outcome, &r.Detail); err != nil {
			return nil, err
		}
		r.FreeDays = map[string]int{}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		days, err := s.db.QueryContext(ctx, `
SELECT day, free_count FROM free_days WHERE attempt_id = ?`, out[i].ID)
		if err != nil {
			return nil, err
		}
		for days.Next() {
			var day string
			var free int
			if err := days.Scan(&day, &free); err != nil {
				days.Close()
				return nil, err
			}
			out[i].FreeDays[day] = free
		}
		if err := days.Err(); err != nil {
			days.Close()
			return nil, err
		}
		days.Close()
	}
	return out, nil
}
