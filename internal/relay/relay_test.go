package relay

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/termin-bot/internal/domain/appointment"
)

// fakeBot mirrors the real client's polling contract: the shutdown channel
// exists once per bot, GetUpdatesChan hands back a dead stream once it is
// closed, and closing it twice panics.
type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	updates  chan tgbotapi.Update
	shutdown chan struct{}
	streams  int
}

func newFakeBot() *fakeBot {
	return &fakeBot{
		updates:  make(chan tgbotapi.Update, 8),
		shutdown: make(chan struct{}),
	}
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.streams++
	select {
	case <-b.shutdown:
		dead := make(chan tgbotapi.Update)
		close(dead)
		return dead
	default:
		return b.updates
	}
}

func (b *fakeBot) StopReceivingUpdates() {
	close(b.shutdown)
}

func (b *fakeBot) sentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent)
}

func (b *fakeBot) streamCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.streams
}

func textUpdate(chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
	}}
}

func testRelay(bot botAPI, timeout time.Duration) *Relay {
	r := &Relay{chatID: 42, timeout: timeout, log: zerolog.Nop()}
	r.attach(bot)
	return r
}

func TestSolveReturnsOperatorAnswer(t *testing.T) {
	bot := newFakeBot()
	bot.updates <- textUpdate(42, "7F3Q")
	r := testRelay(bot, time.Second)

	answer, err := r.Solve(context.Background(), []byte("img"), "read this")
	require.NoError(t, err)
	assert.Equal(t, "7F3Q", answer)

	require.Equal(t, 1, bot.sentCount())
	photo, ok := bot.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), photo.ChatID)
	assert.Equal(t, "read this", photo.Caption)
}

func TestSolveIgnoresForeignChatsAndEmptyText(t *testing.T) {
	bot := newFakeBot()
	bot.updates <- textUpdate(99, "not for us")
	bot.updates <- textUpdate(42, "")
	bot.updates <- textUpdate(42, "REAL")
	r := testRelay(bot, time.Second)

	answer, err := r.Solve(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "REAL", answer)
}

func TestSolveTimesOut(t *testing.T) {
	bot := newFakeBot()
	r := testRelay(bot, 20*time.Millisecond)

	answer, err := r.Solve(context.Background(), nil, "")
	assert.ErrorIs(t, err, appointment.ErrVerificationTimeout)
	assert.Empty(t, answer)
}

func TestSolveRejectsConcurrentSession(t *testing.T) {
	bot := newFakeBot()
	r := testRelay(bot, 500*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = r.Solve(context.Background(), nil, "")
	}()

	// Wait for the first session to be live before probing.
	require.Eventually(t, func() bool { return bot.sentCount() > 0 }, time.Second, 5*time.Millisecond)

	_, err := r.Solve(context.Background(), nil, "")
	assert.ErrorIs(t, err, appointment.ErrSessionBusy)

	bot.updates <- textUpdate(42, "done")
	<-done
}

// The portal re-presents the challenge after a wrong answer, so one relay
// must survive consecutive sessions on the same update stream.
func TestSolveTwiceReusesUpdateStream(t *testing.T) {
	bot := newFakeBot()
	r := testRelay(bot, time.Second)

	bot.updates <- textUpdate(42, "FIRST")
	answer, err := r.Solve(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "FIRST", answer)

	bot.updates <- textUpdate(42, "SECOND")
	answer, err = r.Solve(context.Background(), nil, "")
	require.NoError(t, err)
	assert.Equal(t, "SECOND", answer)

	assert.Equal(t, 1, bot.streamCount())
}

func TestCloseIsIdempotent(t *testing.T) {
	bot := newFakeBot()
	r := testRelay(bot, time.Second)

	// The bot client panics on a double stop; the relay must not pass a
	// second one through.
	r.Close()
	r.Close()
}

func TestSolveHonorsContextCancellation(t *testing.T) {
	bot := newFakeBot()
	r := testRelay(bot, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Solve(ctx, nil, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDisabledRelay(t *testing.T) {
	r, err := New("", 0, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, r.Enabled())

	answer, err := r.Solve(context.Background(), nil, "")
	assert.ErrorIs(t, err, appointment.ErrVerificationTimeout)
	assert.Empty(t, answer)

	// Best effort and silent when no channel is connected.
	r.Notify("nothing happens")
}

func TestNotifySendsMessage(t *testing.T) {
	bot := newFakeBot()
	r := testRelay(bot, time.Second)

	r.Notify("attempt finished: no appointment found")

	require.Equal(t, 1, bot.sentCount())
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, "attempt finished: no appointment found", msg.Text)
}
