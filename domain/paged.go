package domain

// PagedResult is the pagination envelope returned by every listing
// operation. Page is 1-based and Limit is the page size actually used
// after clamping.
type PagedResult[T any] struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	Items      []T   `json:"items"`
}

// NewPagedResult computes TotalPages as ceil(totalItems/limit); an
// empty result has zero pages regardless of limit.
func NewPagedResult[T any](page, limit int, totalItems int64, items []T) PagedResult[T] {
	totalPages := int((totalItems + int64(limit) - 1) / int64(limit))
	if items == nil {
		items = []T{}
	}
	return PagedResult[T]{
		Page:       page,
		Limit:      limit,
		TotalItems: totalItems,
		TotalPages: totalPages,
		Items:      items,
	}
}
