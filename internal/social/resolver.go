package social

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/resilience"
	"github.com/sells-group/lead-radar/internal/scrape"
)

// Layer names reported in Result.
const (
	LayerOnPage    = "on_page"
	LayerWebsite   = "website"
	LayerSecondary = "secondary"
	LayerSearch    = "search"
)

// Lookup is the input of one resolution. Layers may record secondary
// network profiles on it for later layers.
type Lookup struct {
	BusinessName string
	City         string
	Website      string
	// Page is the loaded place detail page; may be nil.
	Page browser.Page
	// Browser opens the isolated contexts used by the website, secondary
	// and search layers.
	Browser browser.Browser

	secondary []string
}

// AddSecondary records secondary network profile URLs, ignoring duplicates.
func (l *Lookup) AddSecondary(urls ...string) {
	for _, u := range urls {
		dup := false
		for _, have := range l.secondary {
			if have == u {
				dup = true
				break
			}
		}
		if !dup {
			l.secondary = append(l.secondary, u)
		}
	}
}

// Secondary returns the recorded secondary profiles in discovery order.
func (l *Lookup) Secondary() []string { return l.secondary }

// Result is a resolved profile and the layer that found it.
type Result struct {
	URL   string
	Layer string
}

// Options tune the layers.
type Options struct {
	WebsiteTimeout time.Duration
	IdleTimeout    time.Duration
	EngineTimeout  time.Duration
	Delay          resilience.Jitter
	MaxSubpages    int
	MaxSecondary   int
	// SearchLimiter paces search-engine queries across all jobs; nil means
	// unpaced.
	SearchLimiter *rate.Limiter

	GoogleBaseURL     string
	DuckDuckGoBaseURL string
	BingBaseURL       string
}

func (o Options) withDefaults() Options {
	if o.WebsiteTimeout <= 0 {
		o.WebsiteTimeout = 10 * time.Second
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 5 * time.Second
	}
	if o.EngineTimeout <= 0 {
		o.EngineTimeout = 15 * time.Second
	}
	if o.MaxSubpages <= 0 {
		o.MaxSubpages = 3
	}
	if o.MaxSecondary <= 0 {
		o.MaxSecondary = 2
	}
	if o.GoogleBaseURL == "" {
		o.GoogleBaseURL = "https://www.google.com"
	}
	if o.DuckDuckGoBaseURL == "" {
		o.DuckDuckGoBaseURL = "https://html.duckduckgo.com"
	}
	if o.BingBaseURL == "" {
		o.BingBaseURL = "https://www.bing.com"
	}
	return o
}

// Resolver runs the discovery layers strictly in order; a layer runs only
// when every earlier one found nothing.
type Resolver struct {
	chain *scrape.Chain[*Lookup, string]
}

// New returns a Resolver with the on-page, website, secondary network and
// search engine layers.
func New(opts Options) *Resolver {
	return NewResolver(DefaultLayers(opts)...)
}

// DefaultLayers returns the standard layers in priority order.
func DefaultLayers(opts Options) []scrape.Strategy[*Lookup, string] {
	opts = opts.withDefaults()
	return []scrape.Strategy[*Lookup, string]{
		OnPageLayer{},
		NewWebsiteLayer(opts),
		NewSecondaryLayer(opts),
		NewSearchLayer(opts),
	}
}

// NewResolver returns a Resolver over the given layers.
func NewResolver(layers ...scrape.Strategy[*Lookup, string]) *Resolver {
	return &Resolver{chain: scrape.NewChain("social", layers...).WithMissLogging()}
}

// Resolve returns the first profile found, or false once every layer is
// exhausted.
func (r *Resolver) Resolve(ctx context.Context, l *Lookup) (Result, bool) {
	url, layer, ok := r.chain.Run(ctx, l)
	if !ok {
		zap.L().Debug("social: no profile found", zap.String("business", l.BusinessName))
		return Result{}, false
	}
	zap.L().Debug("social: profile found",
		zap.String("business", l.BusinessName),
		zap.String("layer", layer),
		zap.String("url", url),
	)
	return Result{URL: url, Layer: layer}, true
}

// OnPageLayer scans the place detail page itself.
type OnPageLayer struct{}

func (OnPageLayer) Name() string { return LayerOnPage }

func (OnPageLayer) Attempt(ctx context.Context, l *Lookup) (string, bool) {
	if l.Page == nil {
		return "", false
	}
	hrefs, err := l.Page.AttrAll(ctx, `a[href*="instagram.com"], a[href*="instagr.am"]`, "href")
	if err == nil {
		for _, h := range hrefs {
			if p, ok := FindProfileInHref(h); ok {
				return p, true
			}
		}
	}
	html, err := l.Page.Content(ctx)
	if err != nil {
		return "", false
	}
	base, _ := l.Page.URL(ctx)
	l.AddSecondary(SecondaryLinks(html, base)...)
	return FindProfile(html)
}
