// Package browser defines the headless-browser contract used by the scraper
// and its chromedp implementation.
package browser

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

// ErrNotFound is returned when no visible element matches a locator in time.
var ErrNotFound = eris.New("browser: element not found")

// Viewport is the emulated window size in CSS pixels.
type Viewport struct {
	Width  int
	Height int
}

// ContextOptions configure every isolated browsing context of a browser.
type ContextOptions struct {
	Locale    string
	UserAgent string
	Viewport  Viewport
}

// Locator selects elements by CSS, optionally narrowed to those whose
// rendered text contains Text.
type Locator struct {
	CSS  string
	Text string
}

// CSS returns a Locator for a plain selector.
func CSS(selector string) Locator { return Locator{CSS: selector} }

// WithText returns a Locator for elements matching selector and containing text.
func WithText(selector, text string) Locator { return Locator{CSS: selector, Text: text} }

func (l Locator) String() string {
	if l.Text == "" {
		return l.CSS
	}
	return l.CSS + ` >> text="` + l.Text + `"`
}

// Launcher starts browser processes.
type Launcher interface {
	Launch(ctx context.Context, opts ContextOptions) (Browser, error)
}

// Browser is one browser process. Pages opened from it are isolated from
// each other (separate cookies and storage).
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab in its own browsing context. Methods taking a
// timeout bound how long they wait for the page; ctx cancellation always
// wins.
type Page interface {
	Navigate(ctx context.Context, url string, timeout time.Duration) error
	// WaitNetworkIdle waits until no new resources load for a short window.
	WaitNetworkIdle(ctx context.Context, timeout time.Duration) error
	// Visible reports whether loc matches a visible element within timeout.
	Visible(ctx context.Context, loc Locator, timeout time.Duration) bool
	// Text returns the trimmed text of the first visible match.
	Text(ctx context.Context, loc Locator, timeout time.Duration) (string, error)
	// Attr returns an attribute of the first visible match. href values are
	// resolved against the page URL.
	Attr(ctx context.Context, loc Locator, name string, timeout time.Duration) (string, error)
	// AttrAll returns the non-empty attribute values of every match of css.
	AttrAll(ctx context.Context, css, name string) ([]string, error)
	Click(ctx context.Context, loc Locator, timeout time.Duration) error
	// ScrollBy scrolls the first element matching css by dy pixels.
	ScrollBy(ctx context.Context, css string, dy int) error
	ScrollToBottom(ctx context.Context) error
	// Evaluate runs script in the page and decodes its JSON result into out.
	Evaluate(ctx context.Context, script string, out any) error
	Content(ctx context.Context) (string, error)
	URL(ctx context.Context) (string, error)
	Back(ctx context.Context, timeout time.Duration) error
	Screenshot(ctx context.Context, path string) error
	Close() error
}
