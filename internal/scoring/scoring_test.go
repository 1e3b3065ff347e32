package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		in   Signals
		want int
	}{
		{"nothing at all", Signals{}, 65},
		{"no website with instagram and phone", Signals{HasInstagram: true, HasPhone: true}, 40},
		{"real website only", Signals{WebsiteURL: "https://dentalsonrisa.com.co"}, 25},
		{"generic website only", Signals{WebsiteURL: "https://linktr.ee/cafeluna"}, 35},
		{"generic website with everything else", Signals{WebsiteURL: "https://luna.wixsite.com/home", HasInstagram: true, HasPhone: true}, 10},
		{"fully present", Signals{WebsiteURL: "https://example.com", HasInstagram: true, HasPhone: true}, 0},
		{"no website no phone", Signals{HasInstagram: true}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.in)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
			assert.LessOrEqual(t, got, 100)
		})
	}
}

func TestIsGenericWebsite(t *testing.T) {
	assert.True(t, IsGenericWebsite("https://BIT.LY/abc"))
	assert.True(t, IsGenericWebsite("https://stan.store/peluqueria"))
	assert.False(t, IsGenericWebsite("https://peluqueriamaria.co"))
	assert.False(t, IsGenericWebsite(""))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Alta", Label(75))
	assert.Equal(t, "Alta", Label(70))
	assert.Equal(t, "Media", Label(65))
	assert.Equal(t, "Media", Label(40))
	assert.Equal(t, "Baja", Label(10))
	assert.Equal(t, "Mínima", Label(0))
}
