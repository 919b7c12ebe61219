package query

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
)

// GetBookQuery represents the query to get a book by ID
type GetBookQuery struct {
	BookID uint
}

// GetBookHandler handles get book queries
type GetBookHandler struct {
	books domain.BookRepository
}

// NewGetBookHandler creates a new get book handler
func NewGetBookHandler(books domain.BookRepository) *GetBookHandler {
	return &GetBookHandler{books: books}
}

// Handle executes the get book query
func (h *GetBookHandler) Handle(ctx context.Context, q GetBookQuery) (*domain.Book, error) {
	return h.books.FindByID(ctx, q.BookID)
}
