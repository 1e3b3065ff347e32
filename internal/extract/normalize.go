package extract

import (
	"net/url"
	"strings"
	"unicode"
)

var (
	addressLabels = []string{"Dirección", "Direccion", "Address"}
	phoneLabels   = []string{"Teléfono", "Telefono", "Phone", "phone:tel", "phone"}
)

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripLabel removes a leading localized field label such as "Dirección: ".
func stripLabel(labels ...string) func(string) string {
	return func(s string) string {
		s = cleanText(s)
		for _, l := range labels {
			if len(s) >= len(l) && strings.EqualFold(s[:len(l)], l) {
				s = strings.TrimLeft(s[len(l):], ": ")
				break
			}
		}
		return strings.TrimSpace(s)
	}
}

// phoneDigits strips the label and keeps only digits.
func phoneDigits(s string) string {
	s = stripLabel(phoneLabels...)(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
}

// websiteURL trims the value and unwraps Google's /url?q= redirect.
func websiteURL(s string) string {
	s = strings.TrimSpace(s)
	u, err := url.Parse(s)
	if err != nil {
		return s
	}
	if u.Path == "/url" {
		for _, key := range []string{"q", "url"} {
			if target := u.Query().Get(key); strings.HasPrefix(target, "http") {
				return target
			}
		}
	}
	return s
}
