// Package browser drives a Chrome tab through chromedp and exposes the
// small capability set the portal automation needs: query, click, fill,
// screenshot, wait-for-idle. The tab is shared mutable state; callers must
// not invoke a Driver from two goroutines at once.
package browser

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// Options configures the browser session.
type Options struct {
	Headless bool

	// Settle is the bounded UI-settle delay applied after WaitIdle.
	Settle time.Duration

	// IdleTimeout caps how long WaitIdle waits for the networkIdle
	// lifecycle event before giving up and settling anyway.
	IdleTimeout time.Duration
}

// Driver owns one browser tab for the lifetime of an attempt.
type Driver struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	settle      time.Duration
	idleTimeout time.Duration

	// idle latches the most recent networkIdle event. The listener lives
	// on the tab, not on each WaitIdle call, so an event firing between
	// the triggering action and the wait is not lost.
	idle chan struct{}
}

// Open launches Chrome and a fresh tab. Close must be called on every exit
// path; the tab context is derived from parent, so cancelling parent also
// tears the session down.
func Open(parent context.Context, opts Options) (*Driver, error) {
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 15 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)

	d := &Driver{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		settle:      opts.Settle,
		idleTimeout: opts.IdleTimeout,
		idle:        make(chan struct{}, 1),
	}
	chromedp.ListenTarget(tabCtx, d.noteLifecycle)

	// Lifecycle events are off by default; WaitIdle needs them.
	err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.SetLifecycleEventsEnabled(true).Do(ctx)
	}))
	if err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Close shuts the tab and the browser process down.
func (d *Driver) Close() {
	d.cancelTab()
	d.cancelAlloc()
}

func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(d.ctx, actions...)
}

// selOpt picks the query mode from the selector shape: XPath expressions
// start with a slash or parenthesis, everything else is CSS.
func selOpt(sel string) chromedp.QueryOption {
	if len(sel) > 0 && (sel[0] == '/' || sel[0] == '(') {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	return d.run(ctx, chromedp.Navigate(url))
}

// Query returns the first element matching sel, or nil when none matches.
func (d *Driver) Query(ctx context.Context, sel string) (*Element, error) {
	els, err := d.QueryAll(ctx, sel)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (d *Driver) QueryAll(ctx context.Context, sel string) ([]*Element, error) {
	var nodes []*cdp.Node
	if err := d.run(ctx, chromedp.Nodes(sel, &nodes, selOpt(sel), chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	els := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &Element{d: d, node: n})
	}
	return els, nil
}

func (d *Driver) Click(ctx context.Context, sel string) error {
	return d.run(ctx, chromedp.Click(sel, selOpt(sel)))
}

func (d *Driver) OuterHTML(ctx context.Context, sel string) (string, error) {
	var html string
	err := d.run(ctx, chromedp.OuterHTML(sel, &html, selOpt(sel)))
	return html, err
}

func (d *Driver) FullScreenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, chromedp.FullScreenshot(&buf, 90))
	return buf, err
}

func (d *Driver) noteLifecycle(ev interface{}) {
	e, ok := ev.(*page.EventLifecycleEvent)
	if !ok || e.Name != "networkIdle" {
		return
	}
	select {
	case d.idle <- struct{}{}:
	default:
	}
}

// awaitIdle consumes the latched networkIdle signal, waiting up to
// IdleTimeout for one to arrive. Running past the timeout is not an error,
// since slow third-party requests would otherwise stall the scan.
func (d *Driver) awaitIdle(ctx context.Context) error {
	select {
	case <-d.idle:
		return nil
	case <-time.After(d.idleTimeout):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.ctx.Done():
		return d.ctx.Err()
	}
}

// WaitIdle blocks until the tab reports networkIdle, then applies the
// settle delay.
func (d *Driver) WaitIdle(ctx context.Context) error {
	if err := d.awaitIdle(ctx); err != nil {
		return err
	}
	return d.run(ctx, chromedp.Sleep(d.settle))
}
