// Package pagination windows ordered snapshots for paged keyboards.
package pagination

// Page describes one window of an ordered snapshot together with the
// navigation affordances a keyboard needs to render pager arrows.
type Page[T any] struct {
	// Items is the window of the snapshot shown on this page.
	Items []T
	// Start is the 0-based global index of Items[0] within the full
	// snapshot. Selection callbacks embed Start+i, display ordinals are
	// Start+i+1.
	Start int
	// Number is the 1-based page number.
	Number int
	// Total is the total number of pages, at least 1.
	Total int

	HasPrev bool
	HasNext bool
}

// TotalPages returns ceil(n/size), with a minimum of 1 so that an empty
// snapshot still renders as a single (empty) page.
func TotalPages(n, size int) int {
	if n <= 0 {
		return 1
	}
	return (n-1)/size + 1
}

// Paginate windows items for the requested page. size and page must be
// positive and page must not exceed TotalPages(len(items), size):
// transitions only ever request adjacent pages gated by HasPrev/HasNext,
// so an out-of-range page is a caller bug, not a runtime condition.
func Paginate[T any](items []T, size, page int) Page[T] {
	total := TotalPages(len(items), size)
	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	if start > len(items) {
		start = len(items)
	}
	return Page[T]{
		Items:   items[start:end],
		Start:   start,
		Number:  page,
		Total:   total,
		HasPrev: page > 1,
		HasNext: page < total,
	}
}
