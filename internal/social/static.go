package social

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ScanResult is what a static scan of one document found.
type ScanResult struct {
	Profile string
	// Secondary holds Facebook page links seen on the document.
	Secondary []string
}

// Link is an anchor with its resolved href and visible text.
type Link struct {
	Href string
	Text string
}

// footerSelector matches the footer region of typical small-business sites.
const footerSelector = `footer, #footer, .footer, [class*="footer"], [id*="footer"]`

// socialContainers are class names sites put around their social icons.
var socialContainers = []string{".social", ".social-links", ".redes-sociales", ".redes", "footer", "header"}

// iconSelector matches icons and images that stand for Instagram.
const iconSelector = `i, svg, img, span`

// ScanHTML runs the static extraction cascade over a whole document: link
// patterns, icon-wrapped links, meta tags, JSON-LD, a regex sweep and
// finally "@handle" text heuristics.
func ScanHTML(html, baseURL string) ScanResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p, _ := FindProfile(html)
		return ScanResult{Profile: p}
	}
	res := ScanResult{Secondary: secondaryLinks(doc.Selection, baseURL)}

	steps := []func() (string, bool){
		func() (string, bool) { return scanLinks(doc.Selection, baseURL) },
		func() (string, bool) { return scanIcons(doc.Selection, baseURL) },
		func() (string, bool) { return scanMeta(doc) },
		func() (string, bool) { return scanJSONLD(doc) },
		func() (string, bool) { return FindProfile(html) },
		func() (string, bool) { return FindHandleMention(doc.Find("body").Text()) },
	}
	for _, step := range steps {
		if p, ok := step(); ok {
			res.Profile = p
			return res
		}
	}
	return res
}

// ScanFooter runs link, icon and text heuristics over footer regions only.
func ScanFooter(html, baseURL string) ScanResult {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ScanResult{}
	}
	footer := doc.Find(footerSelector)
	res := ScanResult{Secondary: secondaryLinks(footer, baseURL)}
	if footer.Length() == 0 {
		return res
	}
	if p, ok := scanLinks(footer, baseURL); ok {
		res.Profile = p
		return res
	}
	if p, ok := scanIcons(footer, baseURL); ok {
		res.Profile = p
		return res
	}
	if h, err := footer.Html(); err == nil {
		if p, ok := FindProfile(h); ok {
			res.Profile = p
			return res
		}
	}
	if p, ok := FindHandleMention(footer.Text()); ok {
		res.Profile = p
	}
	return res
}

// Links returns every anchor of the document with resolved hrefs.
func Links(html, baseURL string) []Link {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	var out []Link
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := resolve(baseURL, a.AttrOr("href", ""))
		if href == "" {
			return
		}
		out = append(out, Link{Href: href, Text: strings.Join(strings.Fields(a.Text()), " ")})
	})
	return out
}

// scanLinks checks anchors in priority order: direct profile links, links
// inside social containers, then anchors labelled as Instagram.
func scanLinks(root *goquery.Selection, baseURL string) (string, bool) {
	if p, ok := firstProfileHref(root.Find(`a[href*="instagram.com"], a[href*="instagr.am"]`), baseURL); ok {
		return p, true
	}
	for _, c := range socialContainers {
		if p, ok := firstProfileHref(root.Find(c+` a[href*="instagram"]`), baseURL); ok {
			return p, true
		}
	}
	labelled := root.Find("a").FilterFunction(func(_ int, a *goquery.Selection) bool {
		for _, attr := range []string{"class", "aria-label", "title"} {
			if v := strings.ToLower(a.AttrOr(attr, "")); strings.Contains(v, "instagram") || attr == "class" && strings.Contains(v, "insta") {
				return true
			}
		}
		return false
	})
	return firstProfileHref(labelled, baseURL)
}

// scanIcons finds Instagram icons and reads the closest enclosing anchor.
func scanIcons(root *goquery.Selection, baseURL string) (string, bool) {
	icons := root.Find(iconSelector).FilterFunction(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"class", "alt", "src", "aria-label", "title", "data-icon"} {
			if strings.Contains(strings.ToLower(s.AttrOr(attr, "")), "instagram") {
				return true
			}
		}
		return false
	})
	var anchors []*goquery.Selection
	icons.Each(func(_ int, s *goquery.Selection) {
		if a := s.Closest("a"); a.Length() > 0 {
			anchors = append(anchors, a)
		}
	})
	for _, a := range anchors {
		if p, ok := FindProfileInHref(resolve(baseURL, a.AttrOr("href", ""))); ok {
			return p, true
		}
	}
	return "", false
}

func scanMeta(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`meta[property*="instagram"], meta[name*="instagram"], meta[content*="instagram.com"]`).
		EachWithBreak(func(_ int, m *goquery.Selection) bool {
			content := strings.TrimSpace(m.AttrOr("content", ""))
			if p, ok := FindProfile(content); ok {
				found = p
				return false
			}
			if strings.HasPrefix(content, "@") {
				if h, ok := validHandle(strings.TrimPrefix(content, "@")); ok && profileHandle.MatchString(h) {
					found = ProfileURL(h)
					return false
				}
			}
			return true
		})
	return found, found != ""
}

func scanJSONLD(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := s.Text()
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err == nil {
			for _, str := range sameAsValues(v) {
				if p, ok := FindProfile(str); ok {
					found = p
					return false
				}
			}
		}
		if p, ok := FindProfile(raw); ok {
			found = p
			return false
		}
		return true
	})
	return found, found != ""
}

// sameAsValues collects the strings under every "sameAs" key.
func sameAsValues(v any) []string {
	var out []string
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			if strings.EqualFold(k, "sameAs") {
				switch s := child.(type) {
				case string:
					out = append(out, s)
				case []any:
					for _, e := range s {
						if str, ok := e.(string); ok {
							out = append(out, str)
						}
					}
				}
				continue
			}
			out = append(out, sameAsValues(child)...)
		}
	case []any:
		for _, child := range t {
			out = append(out, sameAsValues(child)...)
		}
	}
	return out
}

func firstProfileHref(links *goquery.Selection, baseURL string) (string, bool) {
	var found string
	links.EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if p, ok := FindProfileInHref(resolve(baseURL, a.AttrOr("href", ""))); ok {
			found = p
			return false
		}
		return true
	})
	return found, found != ""
}

func secondaryLinks(root *goquery.Selection, baseURL string) []string {
	seen := map[string]struct{}{}
	var out []string
	root.Find(`a[href*="facebook.com"], a[href*="fb.com"]`).Each(func(_ int, a *goquery.Selection) {
		href := DecodeRedirect(resolve(baseURL, a.AttrOr("href", "")))
		if !IsSecondaryProfile(href) {
			return
		}
		if _, dup := seen[href]; dup {
			return
		}
		seen[href] = struct{}{}
		out = append(out, href)
	})
	return out
}

func resolve(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	base, err := url.Parse(baseURL)
	if err != nil || baseURL == "" {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

// SecondaryLinks returns the Facebook page links of a document.
func SecondaryLinks(html, baseURL string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}
	return secondaryLinks(doc.Selection, baseURL)
}
