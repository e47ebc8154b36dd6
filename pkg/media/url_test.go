package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	base := "https://cdn.example.com/storage/v1/object/public/products/"
	cases := []struct {
		in   string
		want string
	}{
		{in: "", want: ""},
		{in: "  ", want: ""},
		{in: "https://img.example.com/a.png", want: "https://img.example.com/a.png"},
		{in: "HTTP://img.example.com/a.png", want: "HTTP://img.example.com/a.png"},
		{in: "//img.example.com/a.png", want: "https://img.example.com/a.png"},
		{in: "shirts/red.png", want: "https://cdn.example.com/storage/v1/object/public/products/shirts/red.png"},
		{in: "/shirts/red.png", want: "https://cdn.example.com/storage/v1/object/public/products/shirts/red.png"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeURL(tc.in, base), "input %q", tc.in)
	}
}

func TestNormalizeURLWithoutBase(t *testing.T) {
	assert.Equal(t, "/shirts/red.png", NormalizeURL("shirts/red.png", ""))
}

func TestNormalizePtr(t *testing.T) {
	assert.Nil(t, NormalizePtr(nil, "https://cdn"))
	blank := " "
	assert.Nil(t, NormalizePtr(&blank, "https://cdn"))
	path := "a.png"
	got := NormalizePtr(&path, "https://cdn")
	if assert.NotNil(t, got) {
		assert.Equal(t, "https://cdn/a.png", *got)
	}
}
