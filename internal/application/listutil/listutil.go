// Package listutil parses and validates the paging and sorting parameters
// shared by the storefront product grid and the back-office list views.
package listutil

import (
	"net/url"
	"strconv"
)

// DefaultPerPage is the default number of rows per page. Product grids
// render three across, so page sizes stay divisible by 12.
const DefaultPerPage = 24

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{12, 24, 48, 96}

// Pagination carries page parameters parsed from a request.
type Pagination struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// Sorting carries sort parameters parsed from a request. Column is empty
// when the request asked for a column outside the allowed set.
type Sorting struct {
	Column string
	Dir    string // "asc" or "desc"
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total matching rows
	TotalPages int // ceil(Total / PerPage)
}

// ParsePagination extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid Pagination with defaults applied
func ParsePagination(q url.Values) Pagination {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return Pagination{Page: page, PerPage: perPage}
}

// ParseSorting extracts sort and dir from URL query values.
// PRE: allowedColumns lists the sortable column names
// POST: returns Sorting; Dir is always "asc" or "desc"
func ParseSorting(q url.Values, allowedColumns []string) Sorting {
	col := q.Get("sort")
	dir := q.Get("dir")

	if !isAllowedColumn(col, allowedColumns) {
		col = ""
	}
	if dir != "asc" && dir != "desc" {
		dir = "asc"
	}
	return Sorting{Column: col, Dir: dir}
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// Offset returns the SQL OFFSET for the current page.
// POST: Returns (Page-1) * PerPage
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether an earlier page exists.
func (p PageInfo) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a later page exists.
func (p PageInfo) HasNext() bool {
	return p.Page < p.TotalPages
}

// PageNumbers returns the page numbers to display in pagination controls,
// at most 5 centered around the current page.
// POST: Returns slice of at most 5 page numbers
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := p.Page - maxButtons/2
	if start < 1 {
		start = 1
	}
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = end - maxButtons + 1
		if start < 1 {
			start = 1
		}
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}

func isAllowedColumn(col string, allowed []string) bool {
	for _, a := range allowed {
		if col == a {
			return true
		}
	}
	return false
}
