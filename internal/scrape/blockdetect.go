package scrape

import "strings"

// BlockType describes the kind of block detected.
type BlockType string

const (
	BlockNone       BlockType = ""
	BlockCloudflare BlockType = "cloudflare"
	BlockCaptcha    BlockType = "captcha"
	BlockRateLimit  BlockType = "rate_limit"
)

// DetectBlock checks rendered page markup and its final URL for signs of
// anti-bot interstitials on search result pages.
func DetectBlock(pageURL, content string) (bool, BlockType) {
	if strings.Contains(pageURL, "google.com/sorry/") {
		return true, BlockRateLimit
	}

	lower := strings.ToLower(content)

	if strings.Contains(lower, "our systems have detected unusual traffic") ||
		strings.Contains(lower, "nuestros sistemas han detectado tráfico inusual") {
		return true, BlockRateLimit
	}

	if strings.Contains(lower, "checking your browser") ||
		strings.Contains(lower, "cf-browser-verification") ||
		strings.Contains(lower, "cloudflare") && strings.Contains(lower, "challenge") {
		return true, BlockCloudflare
	}

	// DuckDuckGo's anomaly page and generic captcha widgets.
	if strings.Contains(lower, "anomaly-modal") ||
		strings.Contains(lower, "g-recaptcha") ||
		strings.Contains(lower, "hcaptcha") ||
		strings.Contains(lower, "captcha-form") {
		return true, BlockCaptcha
	}

	return false, BlockNone
}
