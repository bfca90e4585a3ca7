package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDriver(idleTimeout time.Duration) *Driver {
	return &Driver{
		ctx:         context.Background(),
		idleTimeout: idleTimeout,
		idle:        make(chan struct{}, 1),
	}
}

// The networkIdle event often fires before the waiter gets around to
// waiting; the latched signal must still be there.
func TestAwaitIdleSeesEventFiredBeforeWait(t *testing.T) {
	d := testDriver(5 * time.Second)

	d.noteLifecycle(&page.EventLifecycleEvent{Name: "networkIdle"})

	started := time.Now()
	require.NoError(t, d.awaitIdle(context.Background()))
	assert.Less(t, time.Since(started), time.Second)
}

func TestNoteLifecycleIgnoresOtherEvents(t *testing.T) {
	d := testDriver(20 * time.Millisecond)

	d.noteLifecycle(&page.EventLifecycleEvent{Name: "DOMContentLoaded"})
	d.noteLifecycle(&page.EventLifecycleEvent{Name: "load"})
	d.noteLifecycle("not an event")

	select {
	case <-d.idle:
		t.Fatal("no networkIdle was reported")
	default:
	}
}

func TestAwaitIdleTimeoutIsNotAnError(t *testing.T) {
	d := testDriver(20 * time.Millisecond)
	assert.NoError(t, d.awaitIdle(context.Background()))
}

func TestAwaitIdleHonorsContextCancellation(t *testing.T) {
	d := testDriver(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, d.awaitIdle(ctx), context.Canceled)
}
