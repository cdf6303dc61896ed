package models

// Paginate wraps one page of items with its position in the full result set.
type Paginate[T any] struct {
	Items       []T  `json:"items"`
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	PageSize    int  `json:"page_size"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
}

// NewPaginate builds a page. totalPages is usually TotalPages(count, pageSize).
func NewPaginate[T any](items []T, currentPage, totalPages, pageSize int) *Paginate[T] {
	if items == nil {
		items = []T{}
	}
	return &Paginate[T]{
		Items:       items,
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		PageSize:    pageSize,
		HasPrevious: currentPage > 1,
		HasNext:     currentPage < totalPages,
	}
}

// TotalPages returns ceil(count / pageSize). It returns 0 for a non-positive pageSize.
func TotalPages(count int64, pageSize int) int {
	if pageSize <= 0 || count <= 0 {
		return 0
	}
	size := int64(pageSize)
	return int((count + size - 1) / size)
}

// Offset returns the number of rows to skip for a 1-based page.
func Offset(page, pageSize int) int {
	if page < 1 {
		return 0
	}
	return (page - 1) * pageSize
}
