package social

import (
	"context"

	"github.com/sells-group/lead-radar/internal/browser"
)

// liveLinksJS collects hrefs of direct profile links and of anchors wrapping
// an Instagram icon, from the rendered DOM.
const liveLinksJS = `(() => {
	const out = [];
	const push = a => { if (a && a.href) out.push(String(a.href)); };
	document.querySelectorAll('a[href*="instagram.com"], a[href*="instagr.am"]').forEach(push);
	const icons = [
		'[class*="instagram" i]',
		'svg[aria-label*="instagram" i]',
		'svg title',
		'img[alt*="instagram" i]',
		'img[src*="instagram" i]',
		'[aria-label*="instagram" i]',
		'[title*="instagram" i]',
	].join(', ');
	document.querySelectorAll(icons).forEach(el => {
		if (el.tagName && el.tagName.toLowerCase() === 'title' && !/instagram/i.test(el.textContent || '')) return;
		push(el.closest('a'));
	});
	return out;
})()`

// ScanLive queries the rendered page for profile links. It finds content
// injected by scripts that a static parse of the markup would miss.
func ScanLive(ctx context.Context, page browser.Page) (string, bool) {
	var hrefs []string
	if err := page.Evaluate(ctx, liveLinksJS, &hrefs); err != nil {
		return "", false
	}
	for _, h := range hrefs {
		if p, ok := FindProfileInHref(h); ok {
			return p, true
		}
	}
	return "", false
}
