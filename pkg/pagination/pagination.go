// Package pagination holds the page arithmetic shared by the listing service and the browser.
// Pages are 1-indexed; a page size must be positive for any of these helpers to be meaningful.
package pagination

import "math"

// DefaultPageSize is the page size a fresh browser session starts with.
const DefaultPageSize = 10

// AllowedPageSizes lists the page sizes offered by the UI and accepted by the service by default.
var AllowedPageSizes = []int{10, 50, 100}

// IsAllowedSize reports whether size is one of the given allowed sizes.
func IsAllowedSize(size int, allowed []int) bool {
	for _, a := range allowed {
		if a == size {
			return true
		}
	}
	return false
}

// Offset maps a 1-indexed page number to the number of records to skip.
// It saturates at math.MaxInt instead of wrapping, so an absurd page is
// simply past the end of any store.
func Offset(page, size int) int {
	if page < 1 || size < 1 {
		return 0
	}
	if page-1 > math.MaxInt/size {
		return math.MaxInt
	}
	return (page - 1) * size
}

// TotalPages returns ceil(total/size). Zero records means zero pages.
func TotalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// HasPrev reports whether a page before page exists.
func HasPrev(page int) bool { return page > 1 }

// HasNext reports whether a page after page exists. Next is unavailable whenever
// page >= totalPages, which also covers an empty result set (zero pages).
func HasNext(page, totalPages int) bool { return page < totalPages }

// PageLen is the number of records a page holds: min(size, max(0, total-offset)).
func PageLen(page, size, total int) int {
	rest := total - Offset(page, size)
	if rest <= 0 {
		return 0
	}
	if rest < size {
		return rest
	}
	return size
}
