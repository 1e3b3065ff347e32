package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBlock_GoogleSorryURL(t *testing.T) {
	blocked, bt := DetectBlock("https://www.google.com/sorry/index?continue=x", "")
	assert.True(t, blocked)
	assert.Equal(t, BlockRateLimit, bt)
}

func TestDetectBlock_UnusualTrafficSpanish(t *testing.T) {
	blocked, bt := DetectBlock("https://www.google.com/search?q=x",
		"<p>Nuestros sistemas han detectado tráfico inusual en su red</p>")
	assert.True(t, blocked)
	assert.Equal(t, BlockRateLimit, bt)
}

func TestDetectBlock_Cloudflare(t *testing.T) {
	blocked, bt := DetectBlock("https://example.com", "<title>Just a moment...</title>Checking your browser")
	assert.True(t, blocked)
	assert.Equal(t, BlockCloudflare, bt)
}

func TestDetectBlock_DuckDuckGoAnomaly(t *testing.T) {
	blocked, bt := DetectBlock("https://html.duckduckgo.com/html/?q=x", `<div class="anomaly-modal__title">`)
	assert.True(t, blocked)
	assert.Equal(t, BlockCaptcha, bt)
}

func TestDetectBlock_NormalResults(t *testing.T) {
	blocked, bt := DetectBlock("https://www.bing.com/search?q=x",
		`<a href="https://www.instagram.com/cafeluna/">Café Luna (@cafeluna)</a>`)
	assert.False(t, blocked)
	assert.Equal(t, BlockNone, bt)
}
