package repository

// Page represents a simple limit/offset window for listing operations.
// I keep it intentionally small; advanced filtering belongs to higher layers.
type Page struct {
	Limit  int
	Offset int
}

// PageResult carries a slice of items and the total count of the whole collection.
// Total does not depend on the window, so an out-of-range page still reports it.
type PageResult[T any] struct {
	Items []T
	Total int
}
