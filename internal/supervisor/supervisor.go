// Package supervisor repeats traversal attempts until one books, the
// attempt cap is reached, or the user interrupts.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/termin-bot/internal/domain/appointment"
)

// Attempt runs one full traversal-and-book pass.
type Attempt func(ctx context.Context) (appointment.Result, error)

// Recorder persists attempt outcomes; nil disables recording.
type Recorder interface {
	RecordAttempt(ctx context.Context, started, finished time.Time, res appointment.Result, attemptErr error) error
}

// Notifier mirrors failures to the operator channel; nil disables it.
type Notifier interface {
	Notify(text string)
}

type Supervisor struct {
	Attempt  Attempt
	Periodic bool
	Interval time.Duration

	// MaxTries caps the number of retries after the first attempt;
	// 0 means unlimited.
	MaxTries int

	Log     zerolog.Logger
	History Recorder
	Notify  Notifier
}

// Run drives attempts per the retry policy. A context cancellation is a
// clean stop: Run returns the last result with no error. Attempt errors
// are absorbed and retried like a not-found outcome.
func (s *Supervisor) Run(ctx context.Context) (appointment.Result, error) {
	tries := 0
	for {
		started := time.Now()
		res, err := s.Attempt(ctx)
		s.record(ctx, started, res, err)

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
				s.Log.Debug().Msg("interrupted, stopping")
				return res, nil
			}
			s.Log.Error().Err(err).Msg("attempt failed")
			if s.Notify != nil {
				s.Notify.Notify("attempt failed: " + err.Error())
			}
		} else if res.Outcome == appointment.Booked {
			return res, nil
		}

		if !s.Periodic {
			return res, nil
		}
		tries++
		if s.MaxTries > 0 && tries >= s.MaxTries {
			s.Log.Info().Int("tries", tries).Msg("attempt cap reached")
			return res, nil
		}

		s.Log.Info().
			Int("attempt", tries).
			Str("next_in", fmt.Sprintf("%02d:%02d", int(s.Interval.Minutes()), int(s.Interval.Seconds())%60)).
			Msg("no appointment booked, sleeping until next attempt")

		timer := time.NewTimer(s.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.Log.Debug().Msg("interrupted, stopping")
			return res, nil
		case <-timer.C:
		}
	}
}

func (s *Supervisor) record(ctx context.Context, started time.Time, res appointment.Result, attemptErr error) {
	if s.History == nil {
		return
	}
	if err := s.History.RecordAttempt(ctx, started, time.Now(), res, attemptErr); err != nil {
		s.Log.Warn().Err(err).Msg("could not record attempt")
	}
}
