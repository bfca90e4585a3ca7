package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/example/termin-bot/internal/browser"
	"github.com/example/termin-bot/internal/config"
	"github.com/example/termin-bot/internal/domain/appointment"
	"github.com/example/termin-bot/internal/history"
	"github.com/example/termin-bot/internal/portal"
	"github.com/example/termin-bot/internal/relay"
	"github.com/example/termin-bot/internal/supervisor"
)

func newBookCmd(verbose *bool) *cobra.Command {
	var (
		cfgPath        string
		url            string
		headless       bool
		periodic       bool
		tries          int
		minutes        int
		seconds        int
		disableBooking bool
		historyPath    string
		screenshotPath string

		fl config.Flags
	)

	c := &cobra.Command{
		Use:   "book",
		Short: "Search the calendar and book the first eligible appointment",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(*verbose)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			var (
				cfg config.Config
				err error
			)
			if cfgPath != "" {
				cfg, err = config.FromFile(cfgPath)
			} else {
				cfg, err = config.FromPrompts(fl, cmd.InOrStdin(), cmd.OutOrStdout())
			}
			if err != nil {
				var cfgErr *config.Error
				if errors.As(err, &cfgErr) {
					fmt.Fprintln(os.Stderr, cfgErr.Error())
					fmt.Fprintln(os.Stderr, "Fix the configuration and run again; see the flags listed in --help.")
					os.Exit(1)
				}
				return err
			}

			interval := cfg.Interval
			if cmd.Flags().Changed("minutes") || cmd.Flags().Changed("seconds") {
				interval = time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
			}
			if interval <= 0 {
				interval = 5 * time.Minute
			}

			operator, err := relayFromEnv(log)
			if err != nil {
				fmt.Fprintln(os.Stderr, err.Error())
				os.Exit(1)
			}
			defer operator.Close()
			if operator.Enabled() {
				// Mirror warnings and errors to the operator channel. The
				// relay keeps its own pre-hook logger, so its send failures
				// cannot re-enter the hook.
				log = log.Hook(notifyHook{operator})
			}

			var store *history.Store
			if historyPath != "" {
				store, err = history.Open(historyPath)
				if err != nil {
					return err
				}
				defer store.Close()
			}

			attempt := func(ctx context.Context) (appointment.Result, error) {
				d, err := browser.Open(ctx, browser.Options{Headless: headless})
				if err != nil {
					return appointment.Result{Outcome: appointment.NotFound}, err
				}
				defer d.Close()

				client := portal.New(portal.NewChromePage(d), operator, log.With().Str("component", "portal").Logger(), portal.Options{
					URL:              url,
					DisableBooking:   disableBooking,
					ConfirmationPath: screenshotPath,
				})
				return client.Run(ctx, &cfg)
			}

			sup := &supervisor.Supervisor{
				Attempt:  attempt,
				Periodic: periodic,
				Interval: interval,
				MaxTries: tries,
				Log:      log.With().Str("component", "supervisor").Logger(),
			}
			if store != nil {
				sup.History = store
			}
			if operator.Enabled() {
				sup.Notify = operator
			}

			res, err := sup.Run(ctx)
			if err != nil {
				return err
			}
			switch res.Outcome {
			case appointment.Booked:
				log.Info().Str("at", res.BookedAt.Format("2006-01-02 15:04")).Str("reference", res.Reference).Msg("done: appointment booked")
			default:
				log.Info().Str("outcome", res.Outcome.String()).Int("free_days_seen", len(res.Discovered)).Msg("done without booking")
			}
			return nil
		},
	}

	c.Flags().StringVar(&cfgPath, "config", "", "path of the declarative booking config file")
	c.Flags().StringVar(&url, "url", portal.DefaultURL, "portal entry URL")
	c.Flags().BoolVar(&headless, "headless", getenv("HEADLESS", "1") == "1", "run the browser headless (env HEADLESS)")
	c.Flags().BoolVar(&periodic, "periodic", false, "retry at a fixed interval until booked")
	c.Flags().IntVar(&tries, "tries", 0, "maximum number of attempts in periodic mode, 0 for unlimited")
	c.Flags().IntVar(&minutes, "minutes", 5, "retry interval minutes, combined with --seconds")
	c.Flags().IntVar(&seconds, "seconds", 0, "retry interval seconds, combined with --minutes")
	c.Flags().BoolVar(&disableBooking, "disable-booking", false, "scan and report free days without booking")
	c.Flags().StringVar(&historyPath, "history-db", "", "sqlite file to record attempts in (empty disables)")
	c.Flags().StringVar(&screenshotPath, "screenshot", "confirmation.png", "where to write the confirmation screenshot")

	c.Flags().BoolVar(&fl.NoInteractive, "no-interactive", false, "fail instead of prompting for missing fields")
	c.Flags().StringVar(&fl.FOA, "foa", "", "form of address: herr, frau, x or firma (env FOA)")
	c.Flags().StringVar(&fl.FirstName, "first-name", "", "first name (env FIRST_NAME)")
	c.Flags().StringVar(&fl.LastName, "last-name", "", "last name (env LAST_NAME)")
	c.Flags().StringVar(&fl.Phone, "phone", "", "phone number (env PHONE)")
	c.Flags().StringVar(&fl.Email, "email", "", "email address (env EMAIL)")
	c.Flags().StringArrayVar(&fl.Requests, "request", nil, "service item as ID=people, repeatable")
	c.Flags().StringVar(&fl.RequestCatalog, "request-catalog", "request-types.json", "id to display-name JSON for the interactive picker")

	return c
}

type notifyHook struct {
	operator *relay.Relay
}

func (h notifyHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	if level >= zerolog.WarnLevel && msg != "" {
		h.operator.Notify(msg)
	}
}

// relayFromEnv wires the operator channel the way the rest of the
// configuration works: from the environment, failing fast when the channel
// is enabled but incomplete.
func relayFromEnv(log zerolog.Logger) (*relay.Relay, error) {
	if getenv("ENABLE_TELEGRAM", "0") != "1" {
		return relay.New("", 0, log.With().Str("component", "relay").Logger())
	}
	token := os.Getenv("TELEGRAM_TOKEN")
	chat := os.Getenv("TELEGRAM_CHAT_ID")
	if token == "" || chat == "" {
		return nil, &config.Error{Violations: []string{
			"ENABLE_TELEGRAM=1 requires TELEGRAM_TOKEN and TELEGRAM_CHAT_ID to be set"}}
	}
	chatID, err := strconv.ParseInt(chat, 10, 64)
	if err != nil {
		return nil, &config.Error{Violations: []string{
			fmt.Sprintf("TELEGRAM_CHAT_ID: %q is not an integer", chat)}}
	}
	return relay.New(token, chatID, log.With().Str("component", "relay").Logger())
}
