package pagination

const (
	// DefaultPerPage is the page size when none is requested.
	DefaultPerPage = 20
	// MaxPerPage caps how many rows any list query can request.
	MaxPerPage = 100
)

// Page is 1-based page/per_page pagination. Admin lists may also express it
// as limit/offset, see FromLimitOffset.
type Page struct {
	Page    int
	PerPage int
}

// Normalize applies defaults and the upper bound.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	p.PerPage = NormalizeLimit(p.PerPage)
	return p
}

// Limit is the normalized page size.
func (p Page) Limit() int {
	return p.Normalize().PerPage
}

// Offset is the number of rows skipped before this page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PerPage
}

// NormalizeLimit enforces the default and maximum page size.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPerPage
	}
	if limit > MaxPerPage {
		return MaxPerPage
	}
	return limit
}

// FromLimitOffset maps limit/offset onto the page that contains offset.
func FromLimitOffset(limit, offset int) Page {
	limit = NormalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return Page{Page: offset/limit + 1, PerPage: limit}
}
