package social

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/lead-radar/internal/browser"
	"github.com/sells-group/lead-radar/internal/scrape"
)

// contactKeywords mark hrefs of pages that usually carry social links.
var contactKeywords = []string{
	"contacto", "contact", "about", "nosotros", "quienes-somos",
	"sobre-nosotros", "redes", "social",
}

// followKeywords mark link texts that invite visitors to social profiles.
var followKeywords = []string{
	"síguenos", "siguenos", "follow us", "social media", "redes sociales", "instagram",
}

// WebsiteLayer visits the business website in its own browsing context and
// runs a sub-cascade of scans there.
type WebsiteLayer struct {
	opts  Options
	steps *scrape.Chain[*siteVisit, string]
}

// siteVisit is the state of one website visit.
type siteVisit struct {
	page    browser.Page
	lookup  *Lookup
	origin  string
	visited map[string]struct{}
}

// NewWebsiteLayer returns a WebsiteLayer.
func NewWebsiteLayer(opts Options) *WebsiteLayer {
	w := &WebsiteLayer{opts: opts.withDefaults()}
	w.steps = scrape.NewChain("website",
		scrape.StrategyFunc[*siteVisit, string]{Label: "live_dom", Fn: w.liveDOM},
		scrape.StrategyFunc[*siteVisit, string]{Label: "static_html", Fn: w.staticHTML},
		scrape.StrategyFunc[*siteVisit, string]{Label: "footer", Fn: w.footer},
		scrape.StrategyFunc[*siteVisit, string]{Label: "contact_pages", Fn: w.contactPages},
		scrape.StrategyFunc[*siteVisit, string]{Label: "follow_links", Fn: w.followLinks},
	).WithMissLogging()
	return w
}

func (w *WebsiteLayer) Name() string { return LayerWebsite }

func (w *WebsiteLayer) Attempt(ctx context.Context, l *Lookup) (string, bool) {
	if l.Browser == nil || !isWebURL(l.Website) {
		return "", false
	}
	page, err := l.Browser.NewPage(ctx)
	if err != nil {
		zap.L().Debug("social: open website context", zap.Error(err))
		return "", false
	}
	defer func() { _ = page.Close() }()

	if err := page.Navigate(ctx, l.Website, w.opts.WebsiteTimeout); err != nil {
		zap.L().Debug("social: website unreachable",
			zap.String("website", l.Website),
			zap.Error(err),
		)
		return "", false
	}
	_ = page.WaitNetworkIdle(ctx, w.opts.IdleTimeout)
	_ = page.ScrollToBottom(ctx)
	if err := w.opts.Delay.Sleep(ctx); err != nil {
		return "", false
	}

	origin, err := page.URL(ctx)
	if err != nil || origin == "" {
		origin = l.Website
	}
	v := &siteVisit{page: page, lookup: l, origin: origin, visited: map[string]struct{}{}}
	return w.steps.First(ctx, v)
}

func (w *WebsiteLayer) liveDOM(ctx context.Context, v *siteVisit) (string, bool) {
	return ScanLive(ctx, v.page)
}

func (w *WebsiteLayer) staticHTML(ctx context.Context, v *siteVisit) (string, bool) {
	html, err := v.page.Content(ctx)
	if err != nil {
		return "", false
	}
	res := ScanHTML(html, v.origin)
	v.lookup.AddSecondary(res.Secondary...)
	return res.Profile, res.Profile != ""
}

func (w *WebsiteLayer) footer(ctx context.Context, v *siteVisit) (string, bool) {
	if err := v.page.ScrollToBottom(ctx); err != nil {
		return "", false
	}
	if err := w.opts.Delay.Sleep(ctx); err != nil {
		return "", false
	}
	html, err := v.page.Content(ctx)
	if err != nil {
		return "", false
	}
	res := ScanFooter(html, v.origin)
	v.lookup.AddSecondary(res.Secondary...)
	return res.Profile, res.Profile != ""
}

func (w *WebsiteLayer) contactPages(ctx context.Context, v *siteVisit) (string, bool) {
	return w.visitMatching(ctx, v, func(l Link) bool {
		return containsAny(strings.ToLower(l.Href), contactKeywords)
	})
}

func (w *WebsiteLayer) followLinks(ctx context.Context, v *siteVisit) (string, bool) {
	return w.visitMatching(ctx, v, func(l Link) bool {
		return containsAny(strings.ToLower(l.Text), followKeywords)
	})
}

// visitMatching visits up to MaxSubpages same-site links accepted by keep,
// restoring the original page after each miss.
func (w *WebsiteLayer) visitMatching(ctx context.Context, v *siteVisit, keep func(Link) bool) (string, bool) {
	html, err := v.page.Content(ctx)
	if err != nil {
		return "", false
	}
	var targets []string
	for _, l := range Links(html, v.origin) {
		if len(targets) >= w.opts.MaxSubpages {
			break
		}
		if !isWebURL(l.Href) || isSocialHost(l.Href) || sameURL(l.Href, v.origin) || !keep(l) {
			continue
		}
		if _, seen := v.visited[l.Href]; seen {
			continue
		}
		v.visited[l.Href] = struct{}{}
		targets = append(targets, l.Href)
	}

	for _, target := range targets {
		if ctx.Err() != nil {
			return "", false
		}
		if p, ok := w.visit(ctx, v, target); ok {
			return p, true
		}
		w.restore(ctx, v)
	}
	return "", false
}

func (w *WebsiteLayer) visit(ctx context.Context, v *siteVisit, target string) (string, bool) {
	if err := v.page.Navigate(ctx, target, w.opts.WebsiteTimeout); err != nil {
		zap.L().Debug("social: subpage unreachable", zap.String("url", target), zap.Error(err))
		return "", false
	}
	_ = v.page.WaitNetworkIdle(ctx, w.opts.IdleTimeout)
	if err := w.opts.Delay.Sleep(ctx); err != nil {
		return "", false
	}
	html, err := v.page.Content(ctx)
	if err != nil {
		return "", false
	}
	res := ScanHTML(html, target)
	v.lookup.AddSecondary(res.Secondary...)
	return res.Profile, res.Profile != ""
}

// restore returns the page to the site's landing page, going back in
// history when possible.
func (w *WebsiteLayer) restore(ctx context.Context, v *siteVisit) {
	if cur, err := v.page.URL(ctx); err == nil && sameURL(cur, v.origin) {
		return
	}
	if err := v.page.Back(ctx, w.opts.WebsiteTimeout); err == nil {
		if cur, err := v.page.URL(ctx); err == nil && sameURL(cur, v.origin) {
			return
		}
	}
	if err := v.page.Navigate(ctx, v.origin, w.opts.WebsiteTimeout); err != nil {
		zap.L().Debug("social: restore landing page", zap.String("url", v.origin), zap.Error(err))
	}
}

// SecondaryLayer scans the secondary network profiles recorded by earlier
// layers.
type SecondaryLayer struct {
	opts Options
}

// NewSecondaryLayer returns a SecondaryLayer.
func NewSecondaryLayer(opts Options) *SecondaryLayer {
	return &SecondaryLayer{opts: opts.withDefaults()}
}

func (s *SecondaryLayer) Name() string { return LayerSecondary }

func (s *SecondaryLayer) Attempt(ctx context.Context, l *Lookup) (string, bool) {
	if l.Browser == nil {
		return "", false
	}
	for i, target := range l.Secondary() {
		if i >= s.opts.MaxSecondary || ctx.Err() != nil {
			break
		}
		if p, ok := s.scan(ctx, l.Browser, target); ok {
			return p, true
		}
	}
	return "", false
}

func (s *SecondaryLayer) scan(ctx context.Context, b browser.Browser, target string) (string, bool) {
	page, err := b.NewPage(ctx)
	if err != nil {
		return "", false
	}
	defer func() { _ = page.Close() }()

	if err := page.Navigate(ctx, target, s.opts.WebsiteTimeout); err != nil {
		zap.L().Debug("social: secondary profile unreachable", zap.String("url", target), zap.Error(err))
		return "", false
	}
	_ = page.WaitNetworkIdle(ctx, s.opts.IdleTimeout)
	if err := s.opts.Delay.Sleep(ctx); err != nil {
		return "", false
	}
	html, err := page.Content(ctx)
	if err != nil {
		return "", false
	}
	res := ScanHTML(html, target)
	return res.Profile, res.Profile != ""
}

func isWebURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isSocialHost(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Host)
	for _, h := range []string{"instagram.com", "instagr.am", "facebook.com", "fb.com", "twitter.com", "x.com", "tiktok.com", "youtube.com", "wa.me", "whatsapp.com"} {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

func sameURL(a, b string) bool {
	return strings.TrimRight(a, "/") == strings.TrimRight(b, "/")
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
