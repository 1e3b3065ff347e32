// Package browsertest provides an in-memory browser that serves HTML
// fixtures, for testing code written against the browser package.
package browsertest

import (
	"context"
	"encoding/json"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-radar/internal/browser"
)

// ErrUnresolved is returned when navigating to a URL with no fixture.
var ErrUnresolved = eris.New("net::ERR_NAME_NOT_RESOLVED")

type route struct {
	pattern   string
	prefix    bool
	snapshots []string
	err       error
}

// Browser is a fake browser.Launcher and browser.Browser. Fixtures are keyed
// by exact URL or by a prefix ending in "*". The most specific route wins.
type Browser struct {
	// EvalFunc answers Page.Evaluate. When nil, Evaluate fails.
	EvalFunc func(script string, doc *goquery.Document) (any, error)
	// LaunchErr makes Launch fail.
	LaunchErr error

	mu          sync.Mutex
	routes      []*route
	launches    int
	navigations []string
	opened      int
	closed      int
	screenshots []string
	clicks      []string
}

// New returns an empty fake browser.
func New() *Browser {
	return &Browser{}
}

// Serve registers html for pattern.
func (b *Browser) Serve(pattern, html string) *Browser {
	return b.ServeScroll(pattern, html)
}

// ServeScroll registers successive snapshots for pattern. Each ScrollBy on a
// page showing the route advances to the next snapshot; the last one sticks.
func (b *Browser) ServeScroll(pattern string, snapshots ...string) *Browser {
	b.addRoute(&route{pattern: pattern, snapshots: snapshots})
	return b
}

// Fail makes navigation to pattern return err.
func (b *Browser) Fail(pattern string, err error) *Browser {
	b.addRoute(&route{pattern: pattern, err: err})
	return b
}

func (b *Browser) addRoute(r *route) {
	if strings.HasSuffix(r.pattern, "*") {
		r.prefix = true
		r.pattern = strings.TrimSuffix(r.pattern, "*")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes = append(b.routes, r)
}

func (b *Browser) lookup(u string) *route {
	b.mu.Lock()
	defer b.mu.Unlock()
	var best *route
	for _, r := range b.routes {
		switch {
		case !r.prefix && r.pattern == u:
			return r
		case r.prefix && strings.HasPrefix(u, r.pattern):
			if best == nil || len(r.pattern) > len(best.pattern) {
				best = r
			}
		}
	}
	return best
}

// Launch implements browser.Launcher.
func (b *Browser) Launch(ctx context.Context, _ browser.ContextOptions) (browser.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.launches++
	if b.LaunchErr != nil {
		return nil, b.LaunchErr
	}
	return b, nil
}

// NewPage implements browser.Browser.
func (b *Browser) NewPage(ctx context.Context) (browser.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opened++
	return &Page{b: b}, nil
}

// Close implements browser.Browser.
func (b *Browser) Close() error { return nil }

// Launches returns how many times Launch was called.
func (b *Browser) Launches() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.launches
}

// Navigations returns every URL navigated to, in order.
func (b *Browser) Navigations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.navigations...)
}

// NavigationCount counts navigations to URLs starting with prefix.
func (b *Browser) NavigationCount(prefix string) int {
	n := 0
	for _, u := range b.Navigations() {
		if strings.HasPrefix(u, prefix) {
			n++
		}
	}
	return n
}

// OpenPages returns pages opened and not yet closed.
func (b *Browser) OpenPages() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened - b.closed
}

// PagesOpened returns the total number of pages ever opened.
func (b *Browser) PagesOpened() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened
}

// Screenshots returns the paths of captured screenshots.
func (b *Browser) Screenshots() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.screenshots...)
}

// Clicks returns the locators clicked, formatted with Locator.String.
func (b *Browser) Clicks() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.clicks...)
}

type entry struct {
	url    string
	route  *route
	scroll int
}

// Page is a fake browser.Page.
type Page struct {
	b       *Browser
	history []*entry
	closed  bool
}

var _ browser.Page = (*Page)(nil)

func (p *Page) current() *entry {
	if len(p.history) == 0 {
		return &entry{url: "about:blank", route: &route{snapshots: []string{"<html><body></body></html>"}}}
	}
	return p.history[len(p.history)-1]
}

func (p *Page) html() string {
	e := p.current()
	if len(e.route.snapshots) == 0 {
		return ""
	}
	return e.route.snapshots[min(e.scroll, len(e.route.snapshots)-1)]
}

func (p *Page) doc() (*goquery.Document, error) {
	d, err := goquery.NewDocumentFromReader(strings.NewReader(p.html()))
	if err != nil {
		return nil, eris.Wrap(err, "browsertest: parse fixture")
	}
	return d, nil
}

func (p *Page) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.closed {
		return eris.New("browsertest: page closed")
	}
	return nil
}

// Navigate implements browser.Page.
func (p *Page) Navigate(ctx context.Context, u string, _ time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	p.b.mu.Lock()
	p.b.navigations = append(p.b.navigations, u)
	p.b.mu.Unlock()

	r := p.b.lookup(u)
	if r == nil {
		return eris.Wrapf(ErrUnresolved, "browsertest: navigate %s", u)
	}
	if r.err != nil {
		return r.err
	}
	p.history = append(p.history, &entry{url: u, route: r})
	return nil
}

// WaitNetworkIdle implements browser.Page.
func (p *Page) WaitNetworkIdle(ctx context.Context, _ time.Duration) error {
	return p.check(ctx)
}

func (p *Page) find(loc browser.Locator) (*goquery.Selection, error) {
	d, err := p.doc()
	if err != nil {
		return nil, err
	}
	css := loc.CSS
	if css == "" {
		css = "*"
	}
	var found *goquery.Selection
	d.Find(css).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if loc.Text != "" && !strings.Contains(s.Text(), loc.Text) {
			return true
		}
		if !visible(s) {
			return true
		}
		found = s
		return false
	})
	if found == nil {
		return nil, eris.Wrapf(browser.ErrNotFound, "browsertest: %s", loc)
	}
	return found, nil
}

// Visible implements browser.Page.
func (p *Page) Visible(ctx context.Context, loc browser.Locator, _ time.Duration) bool {
	if p.check(ctx) != nil {
		return false
	}
	_, err := p.find(loc)
	return err == nil
}

// Text implements browser.Page.
func (p *Page) Text(ctx context.Context, loc browser.Locator, _ time.Duration) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	s, err := p.find(loc)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(s.Text())
	if text == "" {
		return "", eris.Wrapf(browser.ErrNotFound, "browsertest: empty text %s", loc)
	}
	return text, nil
}

// Attr implements browser.Page.
func (p *Page) Attr(ctx context.Context, loc browser.Locator, name string, _ time.Duration) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	s, err := p.find(loc)
	if err != nil {
		return "", err
	}
	val := p.attrValue(s, name)
	if val == "" {
		return "", eris.Wrapf(browser.ErrNotFound, "browsertest: empty %s on %s", name, loc)
	}
	return val, nil
}

// AttrAll implements browser.Page.
func (p *Page) AttrAll(ctx context.Context, css, name string) ([]string, error) {
	if err := p.check(ctx); err != nil {
		return nil, err
	}
	d, err := p.doc()
	if err != nil {
		return nil, err
	}
	var out []string
	d.Find(css).Each(func(_ int, s *goquery.Selection) {
		if v := p.attrValue(s, name); v != "" {
			out = append(out, v)
		}
	})
	return out, nil
}

func (p *Page) attrValue(s *goquery.Selection, name string) string {
	v, ok := s.Attr(name)
	if !ok {
		return ""
	}
	if name != "href" {
		return v
	}
	base, err := url.Parse(p.current().url)
	if err != nil {
		return v
	}
	ref, err := url.Parse(strings.TrimSpace(v))
	if err != nil {
		return v
	}
	return base.ResolveReference(ref).String()
}

// Click implements browser.Page.
func (p *Page) Click(ctx context.Context, loc browser.Locator, _ time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if _, err := p.find(loc); err != nil {
		return err
	}
	p.b.mu.Lock()
	p.b.clicks = append(p.b.clicks, loc.String())
	p.b.mu.Unlock()
	return nil
}

// ScrollBy implements browser.Page. It advances to the next snapshot.
func (p *Page) ScrollBy(ctx context.Context, _ string, _ int) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if len(p.history) > 0 {
		p.current().scroll++
	}
	return nil
}

// ScrollToBottom implements browser.Page.
func (p *Page) ScrollToBottom(ctx context.Context) error {
	return p.check(ctx)
}

// Evaluate implements browser.Page by delegating to Browser.EvalFunc.
func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if p.b.EvalFunc == nil {
		return eris.New("browsertest: evaluate not supported")
	}
	d, err := p.doc()
	if err != nil {
		return err
	}
	res, err := p.b.EvalFunc(script, d)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return eris.Wrap(err, "browsertest: encode evaluate result")
	}
	return eris.Wrap(json.Unmarshal(raw, out), "browsertest: decode evaluate result")
}

// Content implements browser.Page.
func (p *Page) Content(ctx context.Context) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return p.html(), nil
}

// URL implements browser.Page.
func (p *Page) URL(ctx context.Context) (string, error) {
	if err := p.check(ctx); err != nil {
		return "", err
	}
	return p.current().url, nil
}

// Back implements browser.Page.
func (p *Page) Back(ctx context.Context, _ time.Duration) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if len(p.history) < 2 {
		return eris.New("browsertest: no history")
	}
	p.history = p.history[:len(p.history)-1]
	return nil
}

// Screenshot implements browser.Page by writing a placeholder file.
func (p *Page) Screenshot(ctx context.Context, path string) error {
	if err := p.check(ctx); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte("png"), 0o644); err != nil {
		return eris.Wrap(err, "browsertest: write screenshot")
	}
	p.b.mu.Lock()
	p.b.screenshots = append(p.b.screenshots, path)
	sort.Strings(p.b.screenshots)
	p.b.mu.Unlock()
	return nil
}

// Close implements browser.Page.
func (p *Page) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.b.mu.Lock()
	p.b.closed++
	p.b.mu.Unlock()
	return nil
}

func visible(s *goquery.Selection) bool {
	for n := s; n.Length() > 0; n = n.Parent() {
		if _, hidden := n.Attr("hidden"); hidden {
			return false
		}
		style := strings.ReplaceAll(strings.ToLower(n.AttrOr("style", "")), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}
