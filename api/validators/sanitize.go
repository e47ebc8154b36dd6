package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims s, drops control characters, collapses whitespace runs
// to one space and cuts the result to maxLen runes.
func SanitizeString(s string, maxLen int) string {
	var b strings.Builder
	n := 0
	space := false
	for _, r := range strings.TrimSpace(s) {
		if maxLen > 0 && n >= maxLen {
			break
		}
		switch {
		case unicode.IsSpace(r):
			if space {
				continue
			}
			r, space = ' ', true
		case unicode.IsControl(r):
			continue
		default:
			space = false
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}
