package social

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/scrape"
)

// Engine builds a results-page URL for a business query.
type Engine struct {
	Name string
	URL  func(name, city string) string
}

// DefaultEngines returns the engines queried in order: a site-restricted
// Google query, DuckDuckGo's HTML endpoint, a plain Google query and Bing.
func DefaultEngines(opts Options) []Engine {
	opts = opts.withDefaults()
	return []Engine{
		{Name: "google_site", URL: func(name, city string) string {
			return opts.GoogleBaseURL + "/search?" + url.Values{
				"q":   {`site:instagram.com "` + name + `" ` + city},
				"num": {"10"},
			}.Encode()
		}},
		{Name: "duckduckgo", URL: func(name, city string) string {
			return opts.DuckDuckGoBaseURL + "/html/?" + url.Values{"q": {name + " " + city + " instagram"}}.Encode()
		}},
		{Name: "google", URL: func(name, city string) string {
			return opts.GoogleBaseURL + "/search?" + url.Values{"q": {`"` + name + `" ` + city + " instagram"}}.Encode()
		}},
		{Name: "bing", URL: func(name, city string) string {
			return opts.BingBaseURL + "/search?" + url.Values{"q": {name + " " + city + " instagram"}}.Encode()
		}},
	}
}

// SearchLayer queries search engines for the business's profile. It is the
// most expensive layer and runs last.
type SearchLayer struct {
	opts    Options
	engines []Engine
}

// NewSearchLayer returns a SearchLayer over DefaultEngines.
func NewSearchLayer(opts Options) *SearchLayer {
	opts = opts.withDefaults()
	return &SearchLayer{opts: opts, engines: DefaultEngines(opts)}
}

func (s *SearchLayer) Name() string { return LayerSearch }

func (s *SearchLayer) Attempt(ctx context.Context, l *Lookup) (string, bool) {
	name := CleanName(l.BusinessName)
	if name == "" || l.Browser == nil {
		return "", false
	}
	page, err := l.Browser.NewPage(ctx)
	if err != nil {
		return "", false
	}
	defer func() { _ = page.Close() }()

	for _, e := range s.engines {
		if ctx.Err() != nil {
			return "", false
		}
		if p, ok := s.query(ctx, page, e, name, l.City); ok {
			return p, true
		}
	}
	return "", false
}

func (s *SearchLayer) query(ctx context.Context, page browser.Page, e Engine, name, city string) (string, bool) {
	if s.opts.SearchLimiter != nil {
		if err := s.opts.SearchLimiter.Wait(ctx); err != nil {
			return "", false
		}
	}
	target := e.URL(name, city)
	if err := page.Navigate(ctx, target, s.opts.EngineTimeout); err != nil {
		zap.L().Debug("social: search engine unreachable", zap.String("engine", e.Name), zap.Error(err))
		return "", false
	}
	if err := s.opts.Delay.Sleep(ctx); err != nil {
		return "", false
	}
	content, err := page.Content(ctx)
	if err != nil {
		return "", false
	}
	current, _ := page.URL(ctx)
	if blocked, kind := scrape.DetectBlock(current, content); blocked {
		zap.L().Warn("social: search engine blocked",
			zap.String("engine", e.Name),
			zap.String("block", string(kind)),
		)
		return "", false
	}

	hrefs, err := page.AttrAll(ctx, "a[href]", "href")
	if err == nil {
		for _, h := range hrefs {
			if p, ok := FindProfileInHref(h); ok {
				return p, true
			}
		}
	}
	return FindProfile(content)
}
