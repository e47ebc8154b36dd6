package enums

import (
	"fmt"
	"slices"
	"strings"
)

// member reports whether v is one of values.
func member[T ~string](values []T, v T) bool {
	return slices.Contains(values, v)
}

// parse matches raw against values after trimming. label names the enum in errors.
func parse[T ~string](values []T, raw, label string) (T, error) {
	v := T(strings.TrimSpace(raw))
	if member(values, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", label, raw)
}
