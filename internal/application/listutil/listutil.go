package listutil

import (
	"net/url"
	"strconv"
)

// Page selects a window of a ranked list. The zero value means the whole list.
type Page struct {
	Number  int // 1-indexed, 0 when unpaged
	PerPage int
}

// DefaultPerPage is the number of rows per page when per_page is missing or not allowed.
const DefaultPerPage = 25

// PerPageOptions are the allowed rows-per-page values.
var PerPageOptions = []int{10, 25, 50, 100}

// ParsePage extracts page and per_page from URL query values.
// PRE: none
// POST: returns the zero Page when neither parameter is present; otherwise Number >= 1
// and PerPage is one of PerPageOptions
func ParsePage(q url.Values) Page {
	if q.Get("page") == "" && q.Get("per_page") == "" {
		return Page{}
	}
	number, _ := strconv.Atoi(q.Get("page"))
	if number < 1 {
		number = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !isValidPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return Page{Number: number, PerPage: perPage}
}

// Paged reports whether a window was requested.
func (p Page) Paged() bool {
	return p.Number > 0
}

// Bounds returns the half-open row window [start, end) of the page.
// PRE: none
// POST: returns (0, 0) for an unpaged Page
func (p Page) Bounds() (start, end int) {
	if !p.Paged() {
		return 0, 0
	}
	start = (p.Number - 1) * p.PerPage
	return start, start + p.PerPage
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // rows per page
	Total      int // total rows
	TotalPages int // ceil(Total / PerPage)
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages >= 1; Page clamped to [1, TotalPages]
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

// StartRow returns the 1-indexed first row number on the current page.
// PRE: PageInfo is valid
// POST: returns 0 if Total is 0
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.PerPage + 1
}

// EndRow returns the 1-indexed last row number on the current page.
// PRE: PageInfo is valid
// POST: returns min(Page*PerPage, Total)
func (p PageInfo) EndRow() int {
	return min(p.Page*p.PerPage, p.Total)
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a next page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// Prev returns the previous page number.
func (p PageInfo) Prev() int { return p.Page - 1 }

// Next returns the next page number.
func (p PageInfo) Next() int { return p.Page + 1 }

// PageNumbers returns the page numbers to display in pagination controls.
// Shows at most 5 pages centered around the current page.
// PRE: PageInfo is valid
// POST: returns at most 5 ascending page numbers including Page
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

// ShowPagination returns true if pagination controls should be displayed.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}

func isValidPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
