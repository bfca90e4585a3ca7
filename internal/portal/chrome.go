package portal

import (
	"context"

	"github.com/example/termin-bot/internal/browser"
)

// NewChromePage adapts a browser.Driver to the Page capability set.
func NewChromePage(d *browser.Driver) Page {
	return chromePage{d: d}
}

type chromePage struct {
	d *browser.Driver
}

func (p chromePage) Navigate(ctx context.Context, url string) error {
	return p.d.Navigate(ctx, url)
}

func (p chromePage) Query(ctx context.Context, sel string) (Element, error) {
	el, err := p.d.Query(ctx, sel)
	if err != nil || el == nil {
		return nil, err
	}
	return chromeElement{el: el}, nil
}

func (p chromePage) QueryAll(ctx context.Context, sel string) ([]Element, error) {
	els, err := p.d.QueryAll(ctx, sel)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (p chromePage) Click(ctx context.Context, sel string) error {
	return p.d.Click(ctx, sel)
}

func (p chromePage) WaitIdle(ctx context.Context) error {
	return p.d.WaitIdle(ctx)
}

func (p chromePage) FullScreenshot(ctx context.Context) ([]byte, error) {
	return p.d.FullScreenshot(ctx)
}

type chromeElement struct {
	el *browser.Element
}

func (e chromeElement) Text(ctx context.Context) (string, error) { return e.el.Text(ctx) }

func (e chromeElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	return e.el.Attribute(ctx, name)
}

func (e chromeElement) Click(ctx context.Context) error { return e.el.Click(ctx) }

func (e chromeElement) Fill(ctx context.Context, value string) error { return e.el.Fill(ctx, value) }

func (e chromeElement) SelectOption(ctx context.Context, value string) error {
	return e.el.SelectOption(ctx, value)
}

func (e chromeElement) Screenshot(ctx context.Context) ([]byte, error) {
	return e.el.Screenshot(ctx)
}

func (e chromeElement) WaitVisible(ctx context.Context) error { return e.el.WaitVisible(ctx) }

func (e chromeElement) Query(ctx context.Context, sel string) (Element, error) {
	el, err := e.el.Query(ctx, sel)
	if err != nil || el == nil {
		return nil, err
	}
	return chromeElement{el: el}, nil
}

func (e chromeElement) QueryAll(ctx context.Context, sel string) ([]Element, error) {
	els, err := e.el.QueryAll(ctx, sel)
	if err != nil {
		return nil, err
	}
	return wrapElements(els), nil
}

func (e chromeElement) OuterHTML(ctx context.Context) (string, error) {
	return e.el.OuterHTML(ctx)
}

func wrapElements(els []*browser.Element) []Element {
	out := make([]Element, 0, len(els))
	for _, el := range els {
		out = append(out, chromeElement{el: el})
	}
	return out
}
