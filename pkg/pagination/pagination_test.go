package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageNormalize(t *testing.T) {
	p := Page{}.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)

	p = Page{Page: 3, PerPage: 500}.Normalize()
	assert.Equal(t, MaxPerPage, p.PerPage)
	assert.Equal(t, 200, Page{Page: 3, PerPage: 500}.Offset())
}

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Page: 1, PerPage: 10}.Offset())
	assert.Equal(t, 20, Page{Page: 3, PerPage: 10}.Offset())
	assert.Equal(t, 0, Page{Page: -4, PerPage: 10}.Offset())
}

func TestFromLimitOffset(t *testing.T) {
	p := FromLimitOffset(10, 25)
	assert.Equal(t, Page{Page: 3, PerPage: 10}, p)

	p = FromLimitOffset(0, -1)
	assert.Equal(t, Page{Page: 1, PerPage: DefaultPerPage}, p)
}
