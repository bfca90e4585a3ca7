// Package relay carries human-verification challenges to an operator over
// Telegram and waits for the typed answer. The channel's listen/timeout
// life cycle runs on its own goroutine so the page-driving flow can hand
// off the wait without pumping Telegram updates itself.
package relay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/example/termin-bot/internal/domain/appointment"
)

// DefaultAnswerTimeout bounds how long the operator gets per challenge.
const DefaultAnswerTimeout = 4*time.Minute + 30*time.Second

// botAPI is the slice of tgbotapi.BotAPI the relay uses; tests fake it.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Relay is the operator channel. A nil-bot relay is valid and disabled:
// Solve reports an unanswered challenge and Notify does nothing.
type Relay struct {
	bot     botAPI
	chatID  int64
	timeout time.Duration
	log     zerolog.Logger

	// updates is acquired once for the relay's lifetime. The bot client
	// tears its polling down for good on StopReceivingUpdates, so a fresh
	// GetUpdatesChan per session would go dead after the first one.
	updates tgbotapi.UpdatesChannel

	// active guards the one-outstanding-session contract.
	active atomic.Bool

	closeOnce sync.Once
}

// New connects the relay, or returns a disabled relay when token is empty.
func New(token string, chatID int64, log zerolog.Logger) (*Relay, error) {
	r := &Relay{chatID: chatID, timeout: DefaultAnswerTimeout, log: log}
	if token == "" {
		log.Warn().Msg("telegram token not set, verification relay disabled")
		return r, nil
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	r.attach(bot)
	return r, nil
}

func (r *Relay) attach(bot botAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	r.bot = bot
	r.updates = bot.GetUpdatesChan(u)
}

// Close stops the update stream. The relay takes no more answers after.
func (r *Relay) Close() {
	r.closeOnce.Do(func() {
		if r.bot != nil {
			r.bot.StopReceivingUpdates()
		}
	})
}

// Enabled reports whether a channel is actually connected.
func (r *Relay) Enabled() bool { return r.bot != nil }

// Solve sends the challenge image and blocks until the operator replies or
// the timeout elapses. Exactly one session may be outstanding; a second
// concurrent call is a contract violation and fails with ErrSessionBusy.
// On timeout the session's listener stops and the answer is empty; the
// update stream stays up for later sessions.
func (r *Relay) Solve(ctx context.Context, image []byte, caption string) (string, error) {
	if r.bot == nil {
		return "", appointment.ErrVerificationTimeout
	}
	if !r.active.CompareAndSwap(false, true) {
		return "", appointment.ErrSessionBusy
	}
	defer r.active.Store(false)

	photo := tgbotapi.NewPhoto(r.chatID, tgbotapi.FileBytes{Name: "challenge.png", Bytes: image})
	photo.Caption = caption
	if _, err := r.bot.Send(photo); err != nil {
		return "", fmt.Errorf("send challenge: %w", err)
	}

	// Single-resolution handoff: the listener fulfills result at most
	// once, the calling flow only waits on it.
	result := make(chan string, 1)
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go r.listen(lctx, result)

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case answer := <-result:
		r.log.Debug().Msg("verification answer received")
		return answer, nil
	case <-timer.C:
		r.log.Warn().Dur("timeout", r.timeout).Msg("verification session timed out")
		return "", appointment.ErrVerificationTimeout
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (r *Relay) listen(ctx context.Context, result chan<- string) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-r.updates:
			if !ok {
				return
			}
			if upd.Message == nil || upd.Message.Chat == nil || upd.Message.Chat.ID != r.chatID {
				continue
			}
			if upd.Message.Text == "" {
				continue
			}
			select {
			case result <- upd.Message.Text:
			default:
			}
			return
		}
	}
}

// Notify mirrors a message to the operator, best effort.
func (r *Relay) Notify(text string) {
	if r.bot == nil {
		return
	}
	if _, err := r.bot.Send(tgbotapi.NewMessage(r.chatID, text)); err != nil {
		r.log.Warn().Err(err).Msg("could not mirror message to telegram")
	}
}
