package portal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/example/termin-bot/internal/config"
	"github.com/example/termin-bot/internal/domain/appointment"
)

const challengeCaption = "The portal wants proof you are human. Reply with the characters in the image, or /new for a fresh one."

// Options tunes one portal client.
type Options struct {
	URL string

	// DisableBooking scans and reports free days without attempting a
	// booking.
	DisableBooking bool

	// ConfirmationPath is where the post-booking screenshot is written.
	ConfirmationPath string
}

// Client runs one traversal-and-book attempt against the portal.
type Client struct {
	page  Page
	relay Challenger
	log   zerolog.Logger
	opts  Options
}

func New(page Page, relay Challenger, log zerolog.Logger, opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.ConfirmationPath == "" {
		opts.ConfirmationPath = "confirmation.png"
	}
	return &Client{page: page, relay: relay, log: log, opts: opts}
}

// Run walks the calendar until it has booked, exhausted the calendar, or
// attempted one eligible day. At most one booking attempt happens per run;
// a failed or abandoned attempt ends the run rather than falling through
// to the next day.
func (c *Client) Run(ctx context.Context, cfg *config.Config) (appointment.Result, error) {
	res := appointment.Result{
		Outcome:    appointment.NotFound,
		Discovered: map[string]int{},
	}

	if err := c.page.Navigate(ctx, c.opts.URL); err != nil {
		return res, err
	}
	if err := c.page.WaitIdle(ctx); err != nil {
		return res, err
	}
	if err := c.clickRequired(ctx, startButtonSel); err != nil {
		return res, err
	}

	for _, req := range cfg.Requests {
		sel := "select#" + req.ID
		el, err := c.required(ctx, sel)
		if err != nil {
			return res, err
		}
		if err := el.SelectOption(ctx, strconv.Itoa(req.People)); err != nil {
			return res, fmt.Errorf("set request %s: %w", req.ID, err)
		}
	}
	if err := c.clickRequired(ctx, concernNextSel); err != nil {
		return res, err
	}
	if err := c.clickRequired(ctx, commentsNextSel); err != nil {
		return res, err
	}

	for {
		stop, err := c.scanPanels(ctx, cfg, &res)
		if err != nil || stop {
			return res, err
		}
		advanced, err := c.paginate(ctx)
		if err != nil {
			return res, err
		}
		if !advanced {
			return res, nil
		}
	}
}

// scanPanels reads both visible month panels in order and evaluates their
// free days. It reports stop=true once the run is decided, either by an
// attempted booking or by a day past the latest allowed date.
func (c *Client) scanPanels(ctx context.Context, cfg *config.Config, res *appointment.Result) (bool, error) {
	for i := 0; i < panelCount; i++ {
		tbl, err := c.required(ctx, fmt.Sprintf(monthTableSel, i))
		if err != nil {
			return false, err
		}
		html, err := tbl.OuterHTML(ctx)
		if err != nil {
			return false, err
		}
		panel, err := ParsePanel(html)
		if err != nil {
			return false, err
		}

		for _, cell := range panel.Days {
			date := panel.Date(cell)
			res.Discovered[appointment.DayKey(date)] = cell.Free
			c.log.Debug().
				Str("day", appointment.DayKey(date)).
				Int("free", cell.Free).
				Msg("free day")

			switch cfg.Dates.Check(date) {
			case appointment.TooLate:
				c.log.Info().Str("day", appointment.DayKey(date)).Msg("past latest allowed date, stopping scan")
				return true, nil
			case appointment.TooEarly:
				c.log.Debug().Str("day", appointment.DayKey(date)).Msg("before earliest allowed date, skipping")
				continue
			case appointment.Excluded:
				c.log.Debug().Str("day", appointment.DayKey(date)).Msg("excluded date, skipping")
				continue
			}

			if c.opts.DisableBooking {
				c.log.Info().Str("day", appointment.DayKey(date)).Int("free", cell.Free).Msg("booking disabled, recording only")
				continue
			}

			err := c.attemptDay(ctx, cfg, i, cell.Day, date, res)
			if errors.Is(err, appointment.ErrNoEligibleSlot) {
				c.log.Info().Str("day", appointment.DayKey(date)).Msg("no offered time inside a configured window")
				continue
			}
			if err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// paginate advances to the next pair of months. It reports false when the
// forward control is absent or disabled, meaning the calendar is exhausted.
func (c *Client) paginate(ctx context.Context) (bool, error) {
	btn, err := c.page.Query(ctx, forwardButtonXPath)
	if err != nil {
		return false, err
	}
	if btn == nil {
		c.log.Debug().Msg("no forward control, calendar exhausted")
		return false, nil
	}
	if _, disabled, err := btn.Attribute(ctx, "disabled"); err != nil {
		return false, err
	} else if disabled {
		return false, nil
	}
	if err := btn.Click(ctx); err != nil {
		return false, err
	}
	return true, c.page.WaitIdle(ctx)
}

// attemptDay opens a candidate day, picks a slot and drives the booking
// through verification and confirmation. It fills res with the terminal
// outcome unless the day had no eligible slot.
func (c *Client) attemptDay(ctx context.Context, cfg *config.Config, tableIdx, day int, date time.Time, res *appointment.Result) error {
	if err := c.page.Click(ctx, fmt.Sprintf(dayButtonXPath, tableIdx, day)); err != nil {
		return err
	}
	if err := c.page.WaitIdle(ctx); err != nil {
		return err
	}

	timeSel, err := c.required(ctx, timeSelectSel)
	if err != nil {
		return err
	}
	options, err := c.readOptions(ctx, timeSel)
	if err != nil {
		return err
	}
	chosen, err := appointment.ChooseOption(options, cfg.Schedule.Windows(date.Weekday()))
	if err != nil {
		return err
	}
	c.log.Debug().
		Str("day", appointment.DayKey(date)).
		Str("time", chosen.At.Format("15:04")).
		Msg("selecting slot")

	if err := timeSel.SelectOption(ctx, chosen.Value); err != nil {
		return err
	}
	if err := c.clickRequired(ctx, okButtonXPath); err != nil {
		return err
	}

	outcome, err := c.completeBooking(ctx, cfg)
	if err != nil {
		return err
	}
	res.Outcome = outcome
	if outcome != appointment.Booked {
		return nil
	}

	bookedAt := time.Date(date.Year(), date.Month(), date.Day(),
		chosen.At.Hour(), chosen.At.Minute(), 0, 0, time.Local)
	res.BookedAt = &bookedAt
	if ref, _ := c.page.Query(ctx, bookingNumberSel); ref != nil {
		if txt, err := ref.Text(ctx); err != nil {
			c.log.Warn().Err(err).Msg("could not read booking reference")
		} else {
			res.Reference = txt
		}
	}
	c.log.Info().
		Str("day", appointment.DayKey(date)).
		Str("time", chosen.At.Format("15:04")).
		Str("reference", res.Reference).
		Msg("appointment booked")

	if shot, err := c.page.FullScreenshot(ctx); err == nil {
		if werr := os.WriteFile(c.opts.ConfirmationPath, shot, 0o644); werr != nil {
			c.log.Warn().Err(werr).Msg("could not write confirmation screenshot")
		}
	} else {
		c.log.Warn().Err(err).Msg("could not capture confirmation screenshot")
	}
	return nil
}

func (c *Client) readOptions(ctx context.Context, sel Element) ([]appointment.TimeOption, error) {
	els, err := sel.QueryAll(ctx, "option")
	if err != nil {
		return nil, err
	}
	var options []appointment.TimeOption
	for _, el := range els {
		// The first option is an empty placeholder.
		v, ok, err := el.Attribute(ctx, "value")
		if err != nil {
			return nil, err
		}
		if !ok || v == "" {
			continue
		}
		if opt, ok := appointment.OptionFromValue(v); ok {
			options = append(options, opt)
		}
	}
	return options, nil
}

// completeBooking fills the user-data form, relays challenges until the
// portal stops presenting one, and confirms. The page flow stays on this
// goroutine throughout; only the challenge wait is handed off.
func (c *Client) completeBooking(ctx context.Context, cfg *config.Config) (appointment.Outcome, error) {
	for {
		img, err := c.page.Query(ctx, captchaImageSel)
		if err != nil {
			return appointment.Failed, err
		}
		if img == nil {
			break
		}

		if err := c.fillPersonalData(ctx, cfg.Personal); err != nil {
			return appointment.Failed, err
		}
		if err := img.WaitVisible(ctx); err != nil {
			return appointment.Failed, err
		}
		shot, err := img.Screenshot(ctx)
		if err != nil {
			return appointment.Failed, err
		}

		answer, err := c.relay.Solve(ctx, shot, challengeCaption)
		if err != nil && !errors.Is(err, appointment.ErrVerificationTimeout) {
			return appointment.Failed, err
		}
		if answer == "" {
			c.log.Warn().Msg("no verification answer in time, abandoning this day")
			return appointment.Skipped, nil
		}
		if answer == "/new" {
			if refresh, _ := c.page.Query(ctx, captchaRefreshSel); refresh != nil {
				if err := refresh.Click(ctx); err != nil {
					return appointment.Failed, err
				}
				if err := c.page.WaitIdle(ctx); err != nil {
					return appointment.Failed, err
				}
			}
			continue
		}

		input, err := c.required(ctx, captchaInputSel)
		if err != nil {
			return appointment.Failed, err
		}
		if err := input.Fill(ctx, answer); err != nil {
			return appointment.Failed, err
		}
		// A wrong answer brings the challenge right back; the loop
		// re-relays it.
		if err := c.clickRequired(ctx, userDataNextSel); err != nil {
			return appointment.Failed, err
		}
	}

	if err := c.clickRequired(ctx, confirmNextSel); err != nil {
		return appointment.Failed, err
	}
	return c.readOutcome(ctx)
}

// readOutcome distinguishes a confirmed booking from a rejected one by the
// result page's heading. The portal reuses the same flow for both, so the
// heading text is the only signal.
func (c *Client) readOutcome(ctx context.Context) (appointment.Outcome, error) {
	heading, err := c.page.Query(ctx, resultHeadingSel)
	if err != nil {
		return appointment.Failed, err
	}
	if heading == nil {
		return appointment.Failed, &StructureError{Selector: resultHeadingSel}
	}
	text, err := heading.Text(ctx)
	if err != nil {
		return appointment.Failed, err
	}
	if strings.Contains(strings.ToLower(text), "fehler") {
		c.log.Warn().Str("heading", text).Msg("portal rejected the booking")
		return appointment.Failed, nil
	}
	return appointment.Booked, nil
}

func (c *Client) fillPersonalData(ctx context.Context, p config.PersonalData) error {
	foa, err := c.required(ctx, salutationSel)
	if err != nil {
		return err
	}
	if err := foa.SelectOption(ctx, string(p.FOA)); err != nil {
		return err
	}
	for _, f := range []struct{ sel, val string }{
		{firstNameSel, p.FirstName},
		{lastNameSel, p.LastName},
		{phoneSel, p.Phone},
		{emailSel, p.Email},
	} {
		el, err := c.required(ctx, f.sel)
		if err != nil {
			return err
		}
		if err := el.Fill(ctx, f.val); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) required(ctx context.Context, sel string) (Element, error) {
	el, err := c.page.Query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if el == nil {
		return nil, &StructureError{Selector: sel}
	}
	return el, nil
}

func (c *Client) clickRequired(ctx context.Context, sel string) error {
	el, err := c.required(ctx, sel)
	if err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return err
	}
	return c.page.WaitIdle(ctx)
}
