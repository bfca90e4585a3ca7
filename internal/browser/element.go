package browser

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// Element is a handle on one DOM node. Operations address the node by its
// full XPath so a query-then-act sequence hits the same node even when the
// selector would match several.
type Element struct {
	d    *Driver
	node *cdp.Node
}

func (e *Element) xpath() string {
	return e.node.FullXPath()
}

func (e *Element) Text(ctx context.Context) (string, error) {
	var s string
	err := e.d.run(ctx, chromedp.Text(e.xpath(), &s, chromedp.BySearch))
	return strings.TrimSpace(s), err
}

// Attribute returns the attribute value and whether it is present at all;
// a present-but-empty attribute (like disabled="") reports ("", true).
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var val string
	var ok bool
	err := e.d.run(ctx, chromedp.AttributeValue(e.xpath(), name, &val, &ok, chromedp.BySearch))
	return val, ok, err
}

func (e *Element) Click(ctx context.Context) error {
	return e.d.run(ctx, chromedp.MouseClickNode(e.node))
}

func (e *Element) Fill(ctx context.Context, value string) error {
	return e.d.run(ctx,
		chromedp.SetValue(e.xpath(), "", chromedp.BySearch),
		chromedp.SendKeys(e.xpath(), value, chromedp.BySearch),
	)
}

// SelectOption sets a select box to the option with the given value and
// fires the change event the portal's scripts listen for.
func (e *Element) SelectOption(ctx context.Context, value string) error {
	js := fmt.Sprintf(`(function() {
	var r = document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null);
	var el = r.singleNodeValue;
	if (!el) { return false; }
	el.value = %s;
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return true;
})()`, strconv.Quote(e.xpath()), strconv.Quote(value))

	var ok bool
	if err := e.d.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("select %s: node vanished", e.xpath())
	}
	return nil
}

func (e *Element) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := e.d.run(ctx, chromedp.Screenshot(e.xpath(), &buf, chromedp.BySearch))
	return buf, err
}

func (e *Element) WaitVisible(ctx context.Context) error {
	return e.d.run(ctx, chromedp.WaitVisible(e.xpath(), chromedp.BySearch))
}

// Query returns the first descendant matching sel, or nil when none does.
func (e *Element) Query(ctx context.Context, sel string) (*Element, error) {
	els, err := e.QueryAll(ctx, sel)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

func (e *Element) QueryAll(ctx context.Context, sel string) ([]*Element, error) {
	var nodes []*cdp.Node
	err := e.d.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQueryAll, chromedp.FromNode(e.node), chromedp.AtLeast(0)))
	if err != nil {
		return nil, err
	}
	els := make([]*Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &Element{d: e.d, node: n})
	}
	return els, nil
}

func (e *Element) OuterHTML(ctx context.Context) (string, error) {
	var html string
	err := e.d.run(ctx, chromedp.OuterHTML(e.xpath(), &html, chromedp.BySearch))
	return html, err
}
