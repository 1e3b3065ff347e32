package social

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const siteBase = "https://cafeluna.co/"

func TestScanHTML(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "direct link",
			html: `<html><body><a href="https://instagram.com/cafeluna?hl=es">IG</a></body></html>`,
			want: "https://www.instagram.com/cafeluna",
		},
		{
			name: "icon inside redirect link",
			html: `<html><body><a href="https://www.google.com/url?q=https://www.instagram.com/cafeluna/"><i class="fa fa-instagram"></i></a></body></html>`,
			want: "https://www.instagram.com/cafeluna",
		},
		{
			name: "meta handle",
			html: `<html><head><meta property="og:instagram" content="@cafeluna"></head><body></body></html>`,
			want: "https://www.instagram.com/cafeluna",
		},
		{
			name: "json-ld sameAs",
			html: `<html><head><script type="application/ld+json">
				{"@type":"CafeOrCoffeeShop","sameAs":["https://www.facebook.com/cafeluna","https://www.instagram.com/cafeluna"]}
			</script></head><body></body></html>`,
			want: "https://www.instagram.com/cafeluna",
		},
		{
			name: "handle mention in text",
			html: `<html><body><p>Síguenos en Instagram @cafe_luna</p></body></html>`,
			want: "https://www.instagram.com/cafe_luna",
		},
		{
			name: "post links are not profiles",
			html: `<html><body><a href="https://www.instagram.com/p/Cx12ab/">post</a></body></html>`,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScanHTML(tt.html, siteBase).Profile)
		})
	}
}

func TestScanHTML_RecordsSecondary(t *testing.T) {
	html := `<html><body>
		<a href="https://www.facebook.com/cafeluna">Facebook</a>
		<a href="https://www.facebook.com/cafeluna">Facebook again</a>
		<a href="https://www.facebook.com/sharer/sharer.php?u=x">Share</a>
	</body></html>`
	res := ScanHTML(html, siteBase)
	assert.Empty(t, res.Profile)
	assert.Equal(t, []string{"https://www.facebook.com/cafeluna"}, res.Secondary)
}

func TestScanFooter(t *testing.T) {
	html := `<html><body>
		<header><a href="https://www.instagram.com/otra_marca">header</a></header>
		<div class="site-footer"><p>IG: @cafeluna</p></div>
	</body></html>`
	assert.Equal(t, "https://www.instagram.com/cafeluna", ScanFooter(html, siteBase).Profile)

	noFooter := `<html><body><a href="https://www.instagram.com/cafeluna">ig</a></body></html>`
	assert.Empty(t, ScanFooter(noFooter, siteBase).Profile)
}

func TestLinks(t *testing.T) {
	html := `<html><body>
		<a href="/contacto">  Contacto
			y ubicación</a>
		<a href="mailto:hola@cafeluna.co">mail</a>
		<a href="javascript:void(0)">menu</a>
		<a href="https://wa.me/573001112233">WhatsApp</a>
	</body></html>`
	links := Links(html, siteBase)
	require.Len(t, links, 2)
	assert.Equal(t, Link{Href: "https://cafeluna.co/contacto", Text: "Contacto y ubicación"}, links[0])
	assert.Equal(t, "https://wa.me/573001112233", links[1].Href)
}
