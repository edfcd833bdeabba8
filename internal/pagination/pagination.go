// Package pagination slices ordered result sets into fixed-size pages.
//
// Out-of-range page numbers never fail: anything past the last page, or
// below the first, resolves to the last page. An empty result set still has
// one (empty) page.
package pagination

import (
	"strconv"
	"strings"
)

// Page is the navigation metadata of one page of a result set.
type Page struct {
	Number     int   `json:"number"`
	Size       int   `json:"size"`
	TotalPages int   `json:"totalPages"`
	TotalItems int64 `json:"totalItems"`
	HasPrev    bool  `json:"hasPrevious"`
	HasNext    bool  `json:"hasNext"`
}

// ParseNumber reads a page number from a query string value. Absent or
// non-numeric input yields 1; range clamping is left to Compute.
func ParseNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// Compute resolves the page metadata for a result set of total items.
// size must be positive.
func Compute(total int64, size, number int) Page {
	if size <= 0 {
		panic("pagination: page size must be positive")
	}

	totalPages := 1
	if total > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}

	if number < 1 || number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		Size:       size,
		TotalPages: totalPages,
		TotalItems: total,
		HasPrev:    number > 1,
		HasNext:    number < totalPages,
	}
}

// Offset is the index of the first item of the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Limit is the number of items the page can hold.
func (p Page) Limit() int {
	return p.Size
}

func (p Page) PreviousNumber() int {
	if !p.HasPrev {
		return p.Number
	}
	return p.Number - 1
}

func (p Page) NextNumber() int {
	if !p.HasNext {
		return p.Number
	}
	return p.Number + 1
}

// Paginate returns the items of the requested page of an ordered sequence.
func Paginate[T any](items []T, size, number int) ([]T, Page) {
	page := Compute(int64(len(items)), size, number)

	start := page.Offset()
	end := min(start+page.Size, len(items))
	if start >= end {
		return []T{}, page
	}
	return items[start:end], page
}
