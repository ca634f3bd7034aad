package types

// PaginationResponse describes the page returned by a list call
type PaginationResponse struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ListResponse is a page of items
type ListResponse[T any] struct {
	Items      []T                `json:"items"`
	Pagination PaginationResponse `json:"pagination"`
}

// NewListResponse pages items using the bounds of filter
func NewListResponse[T any](items []T, total int, filter *QueryFilter) ListResponse[T] {
	if filter == nil {
		filter = NewNoLimitQueryFilter()
	}
	limit := filter.GetLimit()
	if filter.IsUnlimited() {
		limit = total
	}
	return ListResponse[T]{
		Items: items,
		Pagination: PaginationResponse{
			Total:  total,
			Limit:  limit,
			Offset: filter.GetOffset(),
		},
	}
}
