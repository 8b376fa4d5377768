package repository

import "strconv"

// MaxLimit caps every paginated listing.
const MaxLimit = 100

// Page is a normalized page/limit pair.
type Page struct {
	Page  int
	Limit int
}

// NewPage parses raw query values. Unparseable or out-of-range values fall
// back to page 1 and defaultLimit; limit is clamped to 1..MaxLimit.
func NewPage(rawPage, rawLimit string, defaultLimit int) Page {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Page{Page: page, Limit: limit}
}

// Skip is the number of documents before this page.
func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// Pages returns ceil(total/limit).
func (p Page) Pages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	return (total + limit - 1) / limit
}

// List is the paginated envelope returned by every listing endpoint.
type List[T any] struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Pages int64 `json:"pages"`
	Items []T   `json:"items"`
}

// NewList wraps items with the paging metadata for p.
func NewList[T any](p Page, total int64, items []T) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{
		Total: total,
		Page:  p.Page,
		Limit: p.Limit,
		Pages: p.Pages(total),
		Items: items,
	}
}
