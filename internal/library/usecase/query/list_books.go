package query

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
)

// ListBooksQuery represents the query to list books
type ListBooksQuery struct {
	Limit         int
	Offset        int
	AvailableOnly bool
}

// ListBooksHandler handles list books queries
type ListBooksHandler struct {
	books domain.BookRepository
}

// NewListBooksHandler creates a new list books handler
func NewListBooksHandler(books domain.BookRepository) *ListBooksHandler {
	return &ListBooksHandler{books: books}
}

// Handle executes the list books query
func (h *ListBooksHandler) Handle(ctx context.Context, q ListBooksQuery) ([]domain.Book, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.AvailableOnly {
		return h.books.FindAvailable(ctx, q.Limit, q.Offset)
	}
	return h.books.FindAll(ctx, q.Limit, q.Offset)
}
