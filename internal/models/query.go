package models

type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Toggle flips the direction.
func (d SortDirection) Toggle() SortDirection {
	if d == SortAsc {
		return SortDesc
	}
	return SortAsc
}

// ListQuery is the complete input of one listing fetch: zero-based page,
// page size, and sort. Two equal queries always address the same page of
// results.
type ListQuery struct {
	PageNumber    int
	PageSize      int
	SortColumn    string
	SortDirection SortDirection
}

// DefaultListQuery matches the listing's initial view: first page, ten
// rows, sorted by id ascending.
func DefaultListQuery() ListQuery {
	return ListQuery{PageNumber: 0, PageSize: 10, SortColumn: "id", SortDirection: SortAsc}
}

// ListResult is one fetched page plus the server-computed page count.
type ListResult[T any] struct {
	Items      []T
	TotalPages int
}
