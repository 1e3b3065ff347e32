// Package maps drives the map search results list and collects place links.
package maps

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/resilience"
)

// ErrNoResultsContainer means the scrollable results list was not found.
var ErrNoResultsContainer = eris.New("maps: results container not found")

var (
	consentButtons = []browser.Locator{
		browser.WithText("button", "Aceptar todo"),
		browser.WithText("button", "Accept all"),
		browser.WithText("button", "Rechazar todo"),
		browser.WithText("button", "Reject all"),
		browser.CSS(`[aria-label="Accept all"]`),
	}
	containerSelectors = []string{
		`div[role="feed"]`,
		`div.m6QErb[aria-label]`,
		`div.m6QErb.DxyBCb`,
	}
)

const (
	placeLinkSelector = `a[href*="/maps/place/"]`
	endOfListSelector = `span.HlvSq`
)

// Options tune the scroll loop.
type Options struct {
	BaseURL            string
	NavTimeout         time.Duration
	ConsentTimeout     time.Duration
	ContainerTimeout   time.Duration
	EndMarkerTimeout   time.Duration
	ScrollStep         int
	MaxStagnantScrolls int
	MaxScrolls         int
	Delay              resilience.Jitter
}

func (o Options) withDefaults() Options {
	if o.BaseURL == "" {
		o.BaseURL = "https://www.google.com"
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = 60 * time.Second
	}
	if o.ConsentTimeout <= 0 {
		o.ConsentTimeout = 2 * time.Second
	}
	if o.ContainerTimeout <= 0 {
		o.ContainerTimeout = 3 * time.Second
	}
	if o.EndMarkerTimeout <= 0 {
		o.EndMarkerTimeout = 500 * time.Millisecond
	}
	if o.ScrollStep <= 0 {
		o.ScrollStep = 500
	}
	if o.MaxStagnantScrolls <= 0 {
		o.MaxStagnantScrolls = 3
	}
	if o.MaxScrolls <= 0 {
		o.MaxScrolls = 100
	}
	return o
}

// Searcher collects place handles for a category in a city.
type Searcher struct {
	opts  Options
	shots *browser.Screenshotter
}

// NewSearcher creates a Searcher. shots may be nil.
func NewSearcher(opts Options, shots *browser.Screenshotter) *Searcher {
	return &Searcher{opts: opts.withDefaults(), shots: shots}
}

// Query returns the search phrase for a category and city.
func Query(city, category string) string {
	return category + " en " + city
}

// SearchURL returns the results URL for a category and city.
func (s *Searcher) SearchURL(city, category string) string {
	return strings.TrimRight(s.opts.BaseURL, "/") + "/maps/search/" + url.PathEscape(Query(city, category))
}

// Search returns up to target unique place URLs in the order they appeared.
// ErrNoResultsContainer comes back with an empty list when the list never
// rendered.
func (s *Searcher) Search(ctx context.Context, page browser.Page, city, category string, target int) ([]string, error) {
	log := zap.L().With(zap.String("city", city), zap.String("category", category))
	if target <= 0 {
		return nil, nil
	}

	searchURL := s.SearchURL(city, category)
	if err := page.Navigate(ctx, searchURL, s.opts.NavTimeout); err != nil {
		return nil, eris.Wrapf(err, "maps: open search %q", Query(city, category))
	}
	if err := s.opts.Delay.Sleep(ctx); err != nil {
		return nil, err
	}

	if s.dismissConsent(ctx, page) {
		if err := s.opts.Delay.Sleep(ctx); err != nil {
			return nil, err
		}
	}

	container, ok := s.findContainer(ctx, page)
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.shots.Capture(ctx, page, "no-results-container")
		log.Error("maps: results container not found", zap.String("url", searchURL))
		return nil, ErrNoResultsContainer
	}

	handles, err := s.collect(ctx, page, container, target)
	if err != nil {
		return nil, err
	}
	log.Info("maps: collected place handles", zap.Int("count", len(handles)), zap.Int("target", target))
	return handles, nil
}

func (s *Searcher) dismissConsent(ctx context.Context, page browser.Page) bool {
	for _, loc := range consentButtons {
		if !page.Visible(ctx, loc, s.opts.ConsentTimeout) {
			continue
		}
		if err := page.Click(ctx, loc, s.opts.ConsentTimeout); err != nil {
			zap.L().Debug("maps: consent click failed", zap.Stringer("button", loc), zap.Error(err))
			continue
		}
		return true
	}
	return false
}

func (s *Searcher) findContainer(ctx context.Context, page browser.Page) (string, bool) {
	for _, css := range containerSelectors {
		if page.Visible(ctx, browser.CSS(css), s.opts.ContainerTimeout) {
			return css, true
		}
	}
	return "", false
}

func (s *Searcher) collect(ctx context.Context, page browser.Page, container string, target int) ([]string, error) {
	var (
		seen      = make(map[string]struct{})
		handles   []string
		stagnant  int
		prevCount = -1
	)
	for i := 0; i < s.opts.MaxScrolls; i++ {
		hrefs, err := page.AttrAll(ctx, placeLinkSelector, "href")
		if err != nil {
			return nil, eris.Wrap(err, "maps: read place links")
		}
		for _, h := range hrefs {
			if _, dup := seen[h]; dup {
				continue
			}
			seen[h] = struct{}{}
			handles = append(handles, h)
		}

		if len(handles) >= target {
			break
		}
		if len(handles) == prevCount {
			stagnant++
			if stagnant >= s.opts.MaxStagnantScrolls {
				break
			}
		} else {
			stagnant = 0
		}
		prevCount = len(handles)

		if err := page.ScrollBy(ctx, container, s.opts.ScrollStep); err != nil {
			return nil, eris.Wrap(err, "maps: scroll results")
		}
		if err := s.opts.Delay.Sleep(ctx); err != nil {
			return nil, err
		}
		if page.Visible(ctx, browser.CSS(endOfListSelector), s.opts.EndMarkerTimeout) {
			// The last scroll may have rendered a final batch.
			if hrefs, err := page.AttrAll(ctx, placeLinkSelector, "href"); err == nil {
				for _, h := range hrefs {
					if _, dup := seen[h]; !dup {
						seen[h] = struct{}{}
						handles = append(handles, h)
					}
				}
			}
			break
		}
	}

	if len(handles) > target {
		handles = handles[:target]
	}
	return handles, nil
}
