package services

import "math"

const (
	defaultPageSize = 3
	// MaxPageSize is the largest page a list request may ask for.
	MaxPageSize = 100
)

// MaxPage is the highest zero-based page whose offset fits in an int for
// the given size.
func MaxPage(size int) int {
	if size <= 0 {
		size = defaultPageSize
	}
	return math.MaxInt / min(size, MaxPageSize)
}

// pageBounds turns a zero-based page and size into offset and limit.
// A non-positive size falls back to the default; size and page are
// clamped to MaxPageSize and MaxPage.
func pageBounds(page, size int) (offset, limit int) {
	limit = size
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, MaxPageSize)
	page = min(max(page, 0), MaxPage(limit))
	return page * limit, limit
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}
