// Package slug derives URL-safe identifiers for catalog entries.
package slug

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxLength = 80

// Make lowercases s, strips diacritics and joins alphanumeric runs with '-'.
// "Café Crème Tote" becomes "cafe-creme-tote".
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxLength {
		out = strings.TrimRight(out[:maxLength], "-")
	}
	return out
}

// Unique returns base, or base-2, base-3... the first candidate taken reports false for.
func Unique(ctx context.Context, base string, taken func(ctx context.Context, candidate string) (bool, error)) (string, error) {
	if base == "" {
		return "", fmt.Errorf("slug base is required")
	}
	candidate := base
	for i := 2; i < 1000; i++ {
		exists, err := taken(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("no free slug for %q", base)
}
