package domain

// PaginationParams carries page/per-page values from the HTTP layer to the
// repo layer. Page is 1-indexed. PerPage is capped at 100 by
// NewPaginationParams.
type PaginationParams struct {
	// Page is the current page number, starting at 1.
	Page int
	// PerPage is the maximum number of items to return.
	PerPage int
}

// DefaultPerPage is the page size used when the client does not ask for one.
const DefaultPerPage = 15

// NewPaginationParams builds a PaginationParams from optional HTTP query
// params. Nil pointers fall back to defaults (page=1, per_page=15).
// The page size is capped at 100 to prevent runaway queries.
func NewPaginationParams(page, perPage *int) PaginationParams {
	p := PaginationParams{Page: 1, PerPage: DefaultPerPage}
	if page != nil && *page >= 1 {
		p.Page = *page
	}
	if perPage != nil && *perPage >= 1 {
		p.PerPage = *perPage
		if p.PerPage > 100 {
			p.PerPage = 100
		}
	}
	return p
}

// Offset returns the zero-based row offset for a SQL OFFSET clause.
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// LastPage returns the highest page number for the given total, never less
// than 1 so pagination metadata stays sane for empty result sets.
func (p PaginationParams) LastPage(total int64) int {
	last := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if last < 1 {
		return 1
	}
	return last
}
