// Package scoring ranks a business by how much it would gain from a web presence.
package scoring

import "strings"

// Point weights for each missing signal.
const (
	NoWebsitePoints      = 40
	GenericWebsitePoints = 10
	NoInstagramPoints    = 15
	NoPhonePoints        = 10
)

// genericWebsitePatterns match site builders, link-in-bio pages and shorteners
// that count as a website but not a real one.
var genericWebsitePatterns = []string{
	"wixsite.com",
	"wix.com",
	"linktr.ee",
	"linktree.com",
	"bit.ly",
	"taplink.cc",
	"carrd.co",
	"bio.link",
	"beacons.ai",
	"solo.to",
	"milkshake.app",
	"campsite.bio",
	"withkoji.com",
	"hoo.be",
	"snipfeed.co",
	"stan.store",
	"lnk.bio",
	"direct.me",
	"flowpage.com",
	"shorby.com",
}

// Signals are the presence facts a score is computed from.
type Signals struct {
	WebsiteURL   string
	HasInstagram bool
	HasPhone     bool
}

// IsGenericWebsite reports whether url points at a generic builder or link page.
func IsGenericWebsite(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	for _, p := range genericWebsitePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// Score returns the opportunity score in [0, 100].
func Score(s Signals) int {
	score := 0
	switch {
	case s.WebsiteURL == "":
		score += NoWebsitePoints
	case IsGenericWebsite(s.WebsiteURL):
		score += GenericWebsitePoints
	}
	if !s.HasInstagram {
		score += NoInstagramPoints
	}
	if !s.HasPhone {
		score += NoPhonePoints
	}
	return min(max(score, 0), 100)
}

// Label returns the display tier for a score.
func Label(score int) string {
	switch {
	case score >= 70:
		return "Alta"
	case score >= 40:
		return "Media"
	case score > 0:
		return "Baja"
	default:
		return "Mínima"
	}
}
