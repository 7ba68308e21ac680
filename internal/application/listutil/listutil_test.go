package listutil

import (
	"net/url"
	"testing"
)

// TestParsePage covers unpaged requests, defaults and clamping.
func TestParsePage(t *testing.T) {
	tests := []struct {
		name string
		q    url.Values
		want Page
	}{
		{"no params is unpaged", url.Values{}, Page{}},
		{"page only", url.Values{"page": {"3"}}, Page{Number: 3, PerPage: DefaultPerPage}},
		{"page and per_page", url.Values{"page": {"2"}, "per_page": {"50"}}, Page{Number: 2, PerPage: 50}},
		{"per_page not allowed", url.Values{"page": {"1"}, "per_page": {"20"}}, Page{Number: 1, PerPage: DefaultPerPage}},
		{"negative page", url.Values{"page": {"-4"}}, Page{Number: 1, PerPage: DefaultPerPage}},
		{"per_page only", url.Values{"per_page": {"10"}}, Page{Number: 1, PerPage: 10}},
		{"junk page", url.Values{"page": {"abc"}}, Page{Number: 1, PerPage: DefaultPerPage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParsePage(tt.q); got != tt.want {
				t.Errorf("ParsePage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

// TestPage_Bounds returns a half-open window.
func TestPage_Bounds(t *testing.T) {
	tests := []struct {
		name      string
		page      Page
		wantStart int
		wantEnd   int
	}{
		{"unpaged", Page{}, 0, 0},
		{"first", Page{Number: 1, PerPage: 25}, 0, 25},
		{"third", Page{Number: 3, PerPage: 10}, 20, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.page.Bounds()
			if start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("Bounds() = (%d, %d), want (%d, %d)", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

// TestNewPageInfo verifies page metadata and row numbers.
func TestNewPageInfo(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		perPage   int
		total     int
		wantPages int
		wantPage  int
		wantStart int
		wantEnd   int
		wantPrev  bool
		wantNext  bool
	}{
		{"basic", 1, 20, 85, 5, 1, 1, 20, false, true},
		{"page2", 2, 20, 85, 5, 2, 21, 40, true, true},
		{"lastPage", 5, 20, 85, 5, 5, 81, 85, true, false},
		{"pageBeyondTotal", 10, 20, 85, 5, 5, 81, 85, true, false},
		{"emptyList", 1, 20, 0, 1, 1, 0, 0, false, false},
		{"exactFit", 1, 10, 10, 1, 1, 1, 10, false, false},
		{"zeroPerPage", 1, 0, 30, 2, 1, 1, 25, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := NewPageInfo(tt.page, tt.perPage, tt.total)
			if pi.TotalPages != tt.wantPages {
				t.Errorf("TotalPages: got %d, want %d", pi.TotalPages, tt.wantPages)
			}
			if pi.Page != tt.wantPage {
				t.Errorf("Page: got %d, want %d", pi.Page, tt.wantPage)
			}
			if pi.StartRow() != tt.wantStart {
				t.Errorf("StartRow: got %d, want %d", pi.StartRow(), tt.wantStart)
			}
			if pi.EndRow() != tt.wantEnd {
				t.Errorf("EndRow: got %d, want %d", pi.EndRow(), tt.wantEnd)
			}
			if pi.HasPrev() != tt.wantPrev || pi.HasNext() != tt.wantNext {
				t.Errorf("HasPrev/HasNext = %v/%v, want %v/%v", pi.HasPrev(), pi.HasNext(), tt.wantPrev, tt.wantNext)
			}
		})
	}
}

// TestPageNumbers verifies page number window generation.
func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name string
		page int
		tot  int
		want []int
	}{
		{"3pages_at1", 1, 3, []int{1, 2, 3}},
		{"10pages_at1", 1, 10, []int{1, 2, 3, 4, 5}},
		{"10pages_at5", 5, 10, []int{3, 4, 5, 6, 7}},
		{"10pages_at10", 10, 10, []int{6, 7, 8, 9, 10}},
		{"1page", 1, 1, []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pi := NewPageInfo(tt.page, 10, tt.tot*10)
			got := pi.PageNumbers()
			if len(got) != len(tt.want) {
				t.Fatalf("PageNumbers length: got %d, want %d", len(got), len(tt.want))
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("PageNumbers[%d]: got %d, want %d", i, v, tt.want[i])
				}
			}
		})
	}
}

// TestShowPagination verifies pagination visibility logic.
func TestShowPagination(t *testing.T) {
	if NewPageInfo(1, 25, 25).ShowPagination() {
		t.Error("should not show pagination when total == perPage")
	}
	if !NewPageInfo(1, 25, 26).ShowPagination() {
		t.Error("should show pagination when total > perPage")
	}
}
