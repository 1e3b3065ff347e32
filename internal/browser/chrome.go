package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const pollInterval = 100 * time.Millisecond

// ChromeLauncher starts headless Chrome through chromedp.
type ChromeLauncher struct {
	Headless bool
	ExecPath string
}

// Launch starts a browser process. Its lifetime is bound to Close, not to
// ctx, so callers can still finalize work after ctx is cancelled.
func (l ChromeLauncher) Launch(ctx context.Context, opts ContextOptions) (Browser, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", opts.Locale),
	)
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Viewport.Width > 0 && opts.Viewport.Height > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.Viewport.Width, opts.Viewport.Height))
	}
	if l.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(l.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	// The first Run starts the process.
	startCtx, cancelStart := context.WithTimeout(browserCtx, 30*time.Second)
	defer cancelStart()
	stop := context.AfterFunc(ctx, cancelStart)
	defer stop()
	if err := chromedp.Run(startCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, eris.Wrap(err, "browser: launch chrome")
	}

	zap.L().Debug("browser: chrome started", zap.Bool("headless", l.Headless))
	return &chromeBrowser{
		ctx:    browserCtx,
		opts:   opts,
		cancel: func() { cancelBrowser(); cancelAlloc() },
	}, nil
}

type chromeBrowser struct {
	ctx    context.Context
	opts   ContextOptions
	cancel func()
	once   sync.Once
}

func (b *chromeBrowser) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.ctx, chromedp.WithNewBrowserContext())
	p := &chromePage{ctx: tabCtx, cancel: cancel}

	actions := []chromedp.Action{
		emulation.SetLocaleOverride().WithLocale(b.opts.Locale),
	}
	if b.opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(b.opts.UserAgent).WithAcceptLanguage(b.opts.Locale))
	}
	if b.opts.Viewport.Width > 0 && b.opts.Viewport.Height > 0 {
		actions = append(actions, chromedp.EmulateViewport(int64(b.opts.Viewport.Width), int64(b.opts.Viewport.Height)))
	}
	if err := p.run(ctx, 15*time.Second, actions...); err != nil {
		cancel()
		return nil, eris.Wrap(err, "browser: new page")
	}
	return p, nil
}

func (b *chromeBrowser) Close() error {
	b.once.Do(func() {
		if err := chromedp.Cancel(b.ctx); err != nil {
			zap.L().Debug("browser: graceful close failed", zap.Error(err))
		}
		b.cancel()
	})
	return nil
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// run executes actions in the tab, bounded by timeout and by the caller's ctx.
func (p *chromePage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	opCtx, cancel := context.WithTimeout(p.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(opCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// poll evaluates script until accept returns true or timeout elapses. The
// script is evaluated at least once.
func (p *chromePage) poll(ctx context.Context, timeout time.Duration, script string, out any, accept func() bool) error {
	deadline := time.Now().Add(timeout)
	for {
		err := p.run(ctx, max(time.Until(deadline), pollInterval), chromedp.Evaluate(script, out))
		if err == nil && accept() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			if err != nil {
				return err
			}
			return ErrNotFound
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

func (p *chromePage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return eris.Wrapf(err, "browser: navigate %s", url)
	}
	return nil
}

func (p *chromePage) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	const quiet = 500 * time.Millisecond
	deadline := time.Now().Add(timeout)
	last, stableSince := -1, time.Now()
	for time.Now().Before(deadline) {
		var state struct {
			Ready     string `json:"ready"`
			Resources int    `json:"resources"`
		}
		err := p.run(ctx, timeout, chromedp.Evaluate(
			`({ready: document.readyState, resources: performance.getEntriesByType('resource').length})`, &state))
		if err != nil {
			return eris.Wrap(err, "browser: wait network idle")
		}
		if state.Resources != last {
			last, stableSince = state.Resources, time.Now()
		} else if state.Ready == "complete" && time.Since(stableSince) >= quiet {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return eris.New("browser: network idle timeout")
}

func (p *chromePage) Visible(ctx context.Context, loc Locator, timeout time.Duration) bool {
	var found bool
	return p.poll(ctx, timeout, locatorScript(loc, "true", "false"), &found, func() bool { return found }) == nil
}

func (p *chromePage) Text(ctx context.Context, loc Locator, timeout time.Duration) (string, error) {
	var text string
	err := p.poll(ctx, timeout, locatorScript(loc, "(el.innerText || el.textContent || '').trim()", "''"), &text,
		func() bool { return text != "" })
	if err != nil {
		return "", notFound(err, loc)
	}
	return text, nil
}

func (p *chromePage) Attr(ctx context.Context, loc Locator, name string, timeout time.Duration) (string, error) {
	var val string
	body := fmt.Sprintf("(%[1]s === 'href' && el.href ? String(el.href) : (el.getAttribute(%[1]s) || ''))", jsString(name))
	err := p.poll(ctx, timeout, locatorScript(loc, body, "''"), &val, func() bool { return val != "" })
	if err != nil {
		return "", notFound(err, loc)
	}
	return val, nil
}

func (p *chromePage) AttrAll(ctx context.Context, css, name string) ([]string, error) {
	script := fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => %s === 'href' && el.href ? String(el.href) : el.getAttribute(%s)).filter(Boolean)`,
		jsString(css), jsString(name), jsString(name))
	var vals []string
	if err := p.run(ctx, 5*time.Second, chromedp.Evaluate(script, &vals)); err != nil {
		return nil, eris.Wrapf(err, "browser: read %s of %s", name, css)
	}
	return vals, nil
}

func (p *chromePage) Click(ctx context.Context, loc Locator, timeout time.Duration) error {
	var clicked bool
	err := p.poll(ctx, timeout, locatorScript(loc, "(el.click(), true)", "false"), &clicked, func() bool { return clicked })
	if err != nil {
		return notFound(err, loc)
	}
	return nil
}

func (p *chromePage) ScrollBy(ctx context.Context, css string, dy int) error {
	script := fmt.Sprintf(`(() => { const el = document.querySelector(%s); if (el) { el.scrollTop += %d; } else { window.scrollBy(0, %d); } return true; })()`,
		jsString(css), dy, dy)
	var ok bool
	return eris.Wrap(p.run(ctx, 5*time.Second, chromedp.Evaluate(script, &ok)), "browser: scroll")
}

func (p *chromePage) ScrollToBottom(ctx context.Context) error {
	var ok bool
	return eris.Wrap(p.run(ctx, 5*time.Second,
		chromedp.Evaluate(`(window.scrollTo(0, document.body ? document.body.scrollHeight : 0), true)`, &ok)),
		"browser: scroll to bottom")
}

func (p *chromePage) Evaluate(ctx context.Context, script string, out any) error {
	var raw json.RawMessage
	if err := p.run(ctx, 10*time.Second, chromedp.Evaluate(script, &raw)); err != nil {
		return eris.Wrap(err, "browser: evaluate")
	}
	if out == nil {
		return nil
	}
	return eris.Wrap(json.Unmarshal(raw, out), "browser: decode evaluate result")
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, 10*time.Second, chromedp.Evaluate(`document.documentElement.outerHTML`, &html)); err != nil {
		return "", eris.Wrap(err, "browser: content")
	}
	return html, nil
}

func (p *chromePage) URL(ctx context.Context) (string, error) {
	var u string
	if err := p.run(ctx, 5*time.Second, chromedp.Location(&u)); err != nil {
		return "", eris.Wrap(err, "browser: location")
	}
	return u, nil
}

func (p *chromePage) Back(ctx context.Context, timeout time.Duration) error {
	return eris.Wrap(p.run(ctx, timeout, chromedp.NavigateBack()), "browser: back")
}

func (p *chromePage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	if err := p.run(ctx, 10*time.Second, chromedp.CaptureScreenshot(&buf)); err != nil {
		return eris.Wrap(err, "browser: capture screenshot")
	}
	return eris.Wrapf(os.WriteFile(path, buf, 0o644), "browser: write screenshot %s", path)
}

func (p *chromePage) Close() error {
	p.once.Do(p.cancel)
	return nil
}

// findElementJS returns the first visible element matching css whose text
// contains text (when text is non-empty).
const findElementJS = `(css, text) => {
	const visible = el => {
		const s = window.getComputedStyle(el);
		if (s.display === 'none' || s.visibility === 'hidden') return false;
		const r = el.getBoundingClientRect();
		return r.width > 0 && r.height > 0;
	};
	for (const el of document.querySelectorAll(css || '*')) {
		if (text && !((el.innerText || el.textContent || '').includes(text))) continue;
		if (visible(el)) return el;
	}
	return null;
}`

func locatorScript(loc Locator, body, missing string) string {
	return fmt.Sprintf(`(() => { const el = (%s)(%s, %s); if (!el) return %s; return %s; })()`,
		findElementJS, jsString(loc.CSS), jsString(loc.Text), missing, body)
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func notFound(err error, loc Locator) error {
	if eris.Is(err, context.Canceled) {
		return err
	}
	return eris.Wrapf(ErrNotFound, "browser: %s", loc)
}
