// Package extract pulls business fields from a rendered place detail page.
package extract

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/resilience"
	"github.com/sells-group/lead-radar/internal/scrape"
)

// ErrNameNotFound means no name strategy matched; the page is unusable.
var ErrNameNotFound = eris.New("extract: business name not found")

// Business holds the fields read from one detail page. Optional fields are
// empty when not found.
type Business struct {
	Name    string
	Address string
	Phone   string
	Website string
	URL     string
}

// Options tune page loading and per-attempt waits.
type Options struct {
	NavTimeout     time.Duration
	AttemptTimeout time.Duration
	NavRetries     int
	Delay          resilience.Jitter
}

// Extractor reads business fields through per-field selector cascades.
type Extractor struct {
	opts  Options
	shots *browser.Screenshotter

	name    *scrape.Chain[browser.Page, string]
	address *scrape.Chain[browser.Page, string]
	phone   *scrape.Chain[browser.Page, string]
	website *scrape.Chain[browser.Page, string]
}

// New creates an Extractor. shots may be nil to disable screenshots.
func New(opts Options, shots *browser.Screenshotter) *Extractor {
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = time.Second
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 20 * time.Second
	}
	e := &Extractor{opts: opts, shots: shots}
	t := opts.AttemptTimeout

	e.name = scrape.NewChain("name",
		textOf(`h1.DUwDvf`, t, cleanText),
		textOf(`h1[data-attrid="title"]`, t, cleanText),
		textOf(`div.qBF1Pd.fontHeadlineSmall`, t, cleanText),
		textOf(`h1`, t, cleanText),
	)
	e.address = scrape.NewChain("address",
		attrOf(`button[data-item-id="address"]`, "aria-label", t, stripLabel(addressLabels...)),
		textOf(`[data-item-id="address"] .Io6YTe`, t, stripLabel(addressLabels...)),
		attrOf(`button[aria-label^="Dirección"]`, "aria-label", t, stripLabel(addressLabels...)),
		attrOf(`button[aria-label^="Address"]`, "aria-label", t, stripLabel(addressLabels...)),
	)
	e.phone = scrape.NewChain("phone",
		attrOf(`button[data-item-id^="phone:"]`, "aria-label", t, phoneDigits),
		textOf(`[data-item-id^="phone:"] .Io6YTe`, t, phoneDigits),
		attrOf(`button[data-item-id^="phone:"]`, "data-item-id", t, phoneDigits),
	)
	e.website = scrape.NewChain("website",
		attrOf(`a[data-item-id="authority"]`, "href", t, websiteURL),
		attrOf(`a[aria-label*="Sitio web"]`, "href", t, websiteURL),
		attrOf(`a[aria-label*="Website"]`, "href", t, websiteURL),
	)
	return e
}

// Extract opens handle in page and reads the business fields.
func (e *Extractor) Extract(ctx context.Context, page browser.Page, handle string) (*Business, error) {
	err := resilience.Do(ctx, resilience.NavigationRetry(e.opts.NavRetries), func(ctx context.Context) error {
		return page.Navigate(ctx, handle, e.opts.NavTimeout)
	})
	if err != nil {
		return nil, eris.Wrap(err, "extract: open detail page")
	}
	if err := e.opts.Delay.Sleep(ctx); err != nil {
		return nil, err
	}

	b, err := e.Fields(ctx, page)
	if err != nil {
		return nil, err
	}
	b.URL = handle
	return b, nil
}

// Fields reads the business fields from the already loaded page.
func (e *Extractor) Fields(ctx context.Context, page browser.Page) (*Business, error) {
	name, ok := e.name.First(ctx, page)
	if !ok {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.shots.Capture(ctx, page, "no-business-name")
		zap.L().Error("extract: could not determine business name")
		return nil, ErrNameNotFound
	}

	b := &Business{Name: name}
	b.Address, _ = e.address.First(ctx, page)
	b.Phone, _ = e.phone.First(ctx, page)
	b.Website, _ = e.website.First(ctx, page)
	return b, nil
}

func textOf(css string, timeout time.Duration, normalize func(string) string) scrape.Strategy[browser.Page, string] {
	loc := browser.CSS(css)
	return scrape.StrategyFunc[browser.Page, string]{
		Label: "text " + css,
		Fn: func(ctx context.Context, page browser.Page) (string, bool) {
			raw, err := page.Text(ctx, loc, timeout)
			if err != nil {
				return "", false
			}
			v := normalize(raw)
			return v, v != ""
		},
	}
}

func attrOf(css, attr string, timeout time.Duration, normalize func(string) string) scrape.Strategy[browser.Page, string] {
	loc := browser.CSS(css)
	return scrape.StrategyFunc[browser.Page, string]{
		Label: attr + " " + css,
		Fn: func(ctx context.Context, page browser.Page) (string, bool) {
			raw, err := page.Attr(ctx, loc, attr, timeout)
			if err != nil {
				return "", false
			}
			v := normalize(raw)
			return v, v != ""
		},
	}
}
