// Package social finds a business's Instagram profile through an ordered
// cascade of discovery layers.
package social

import (
	"encoding/base64"
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

const profileBase = "https://www.instagram.com/"

var (
	profilePattern = regexp.MustCompile(`(?i)(?:instagram\.com|instagr\.am)/([a-zA-Z0-9_.]{1,30})`)
	profileHandle  = regexp.MustCompile(`^[a-zA-Z0-9_.]{1,30}$`)

	// @handle after a keyword, e.g. "Síguenos en Instagram: @cafeluna".
	keywordThenHandle = regexp.MustCompile(`(?i)(?:instagram|insta|\big|s[ií]guenos(?:\s+en)?|follow\s+us(?:\s+on)?)\s*[:\-–]?\s*@([a-zA-Z0-9_.]{3,30})`)
	// @handle before a keyword, e.g. "@cafeluna en Instagram".
	handleThenKeyword = regexp.MustCompile(`(?i)@([a-zA-Z0-9_.]{3,30})\s*(?:[(\[\-–|]\s*)?(?:en\s+|on\s+)?(?:instagram|insta\b|ig\b)`)
)

// excludedSegments are Instagram routes that are not profiles.
var excludedSegments = map[string]struct{}{
	"explore": {}, "accounts": {}, "directory": {}, "about": {}, "legal": {},
	"p": {}, "reel": {}, "reels": {}, "stories": {}, "tv": {}, "direct": {},
	"lite": {}, "static": {}, "developer": {}, "help": {}, "privacy": {},
	"terms": {}, "press": {}, "api": {}, "brand": {}, "blog": {},
}

// emailLookalikes are mail-provider words that show up after "@" in
// addresses rather than handles.
var emailLookalikes = []string{"gmail", "hotmail", "yahoo", "outlook", "email", "correo"}

// ProfileURL returns the canonical profile URL for handle.
func ProfileURL(handle string) string {
	return profileBase + handle
}

// validHandle trims trailing dots and rejects platform routes.
func validHandle(h string) (string, bool) {
	h = strings.TrimRight(h, ".")
	if h == "" {
		return "", false
	}
	if _, bad := excludedSegments[strings.ToLower(h)]; bad {
		return "", false
	}
	return h, true
}

// FindProfile returns the first non-excluded profile URL embedded in text.
func FindProfile(text string) (string, bool) {
	for _, m := range profilePattern.FindAllStringSubmatch(text, -1) {
		if h, ok := validHandle(m[1]); ok {
			return ProfileURL(h), true
		}
	}
	return "", false
}

// FindProfileInHref decodes redirect wrappers and then looks for a profile.
func FindProfileInHref(href string) (string, bool) {
	return FindProfile(DecodeRedirect(href))
}

// FindHandleMention looks for an "@handle" next to an Instagram keyword in
// either order. Email addresses are ignored.
func FindHandleMention(text string) (string, bool) {
	for _, re := range []*regexp.Regexp{keywordThenHandle, handleThenKeyword} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			start, end := idx[2], idx[3]
			// "@" must not follow a word character, as in name@gmail.com.
			if at := start - 1; at > 0 && isWordByte(text[at-1]) {
				continue
			}
			h := text[start:end]
			if looksLikeEmailDomain(h) {
				continue
			}
			if h, ok := validHandle(h); ok {
				return ProfileURL(h), true
			}
		}
	}
	return "", false
}

func isWordByte(b byte) bool {
	return b == '_' || b == '.' || b == '-' || b < 0x80 && (unicode.IsLetter(rune(b)) || unicode.IsDigit(rune(b)))
}

func looksLikeEmailDomain(h string) bool {
	lower := strings.ToLower(h)
	for _, p := range emailLookalikes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// DecodeRedirect unwraps redirect links: Google /url?q=, Facebook
// /l.php?u=, DuckDuckGo uddg= and Bing /ck/a?u=a1<base64>. Other values are returned
// unchanged.
func DecodeRedirect(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	q := u.Query()
	if target := q.Get("uddg"); target != "" {
		return target
	}
	if u.Path == "/url" || u.Path == "/l.php" {
		for _, key := range []string{"q", "url", "u"} {
			if target := q.Get(key); target != "" {
				return target
			}
		}
	}
	if strings.HasSuffix(u.Host, "bing.com") && strings.HasPrefix(u.Path, "/ck/") {
		if enc := q.Get("u"); strings.HasPrefix(enc, "a1") {
			if raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(enc[2:], "=")); err == nil {
				return string(raw)
			}
		}
	}
	return href
}

// CleanName removes punctuation from a business name for search queries,
// keeping letters (accented included), digits and spaces.
func CleanName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, name)
	return strings.Join(strings.Fields(cleaned), " ")
}

// IsSecondaryProfile reports whether href is a Facebook page worth scanning.
func IsSecondaryProfile(href string) bool {
	u, err := url.Parse(href)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	if host != "facebook.com" && !strings.HasSuffix(host, ".facebook.com") && host != "fb.com" {
		return false
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return false
	}
	first := strings.ToLower(strings.SplitN(path, "/", 2)[0])
	switch first {
	case "sharer", "sharer.php", "share", "dialog", "plugins", "tr", "login", "privacy", "policies", "help":
		return false
	}
	return true
}
