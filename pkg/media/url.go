// Package media normalizes image references. Hosting is the storage provider's job.
package media

import (
	"strings"
)

// NormalizeURL turns a stored image reference into an absolute URL.
// Absolute http(s) URLs pass through, protocol-relative URLs get https, and
// anything else is treated as a storage object path under base.
func NormalizeURL(raw, base string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return raw
	case strings.HasPrefix(raw, "//"):
		return "https:" + raw
	}

	base = strings.TrimRight(strings.TrimSpace(base), "/")
	path := strings.TrimLeft(raw, "/")
	if base == "" {
		return "/" + path
	}
	return base + "/" + path
}

// NormalizePtr applies NormalizeURL to an optional value, keeping nil and
// mapping blank results to nil.
func NormalizePtr(raw *string, base string) *string {
	if raw == nil {
		return nil
	}
	out := NormalizeURL(*raw, base)
	if out == "" {
		return nil
	}
	return &out
}
