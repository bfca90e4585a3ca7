// Package portal automates the appointment portal: it walks the two-panel
// month calendar, filters candidate days against the configured rules,
// books the first eligible slot and relays verification challenges to the
// operator channel.
package portal

import (
	"context"
	"fmt"
)

// Page is the capability set the automation needs from a browser tab. The
// concrete implementation is internal/browser; tests script a fake.
// A Page must only ever be driven from one goroutine: the document behind
// it is shared mutable state with no locking of its own.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// Query returns nil (no error) when nothing matches.
	Query(ctx context.Context, sel string) (Element, error)
	QueryAll(ctx context.Context, sel string) ([]Element, error)
	Click(ctx context.Context, sel string) error
	WaitIdle(ctx context.Context) error
	FullScreenshot(ctx context.Context) ([]byte, error)
}

// Element is one DOM node handed out by a Page.
type Element interface {
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	Click(ctx context.Context) error
	Fill(ctx context.Context, value string) error
	SelectOption(ctx context.Context, value string) error
	Screenshot(ctx context.Context) ([]byte, error)
	WaitVisible(ctx context.Context) error
	Query(ctx context.Context, sel string) (Element, error)
	QueryAll(ctx context.Context, sel string) ([]Element, error)
	OuterHTML(ctx context.Context) (string, error)
}

// Challenger relays a human-verification challenge to the operator and
// returns the typed answer, or an empty answer on timeout.
type Challenger interface {
	Solve(ctx context.Context, image []byte, caption string) (string, error)
}

// StructureError means a required page element was missing: either the
// portal layout drifted or the scan logic is out of sync with it. It ends
// the current attempt; the supervisor decides whether to retry.
type StructureError struct {
	Selector string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("portal: required element %s not found", e.Selector)
}
