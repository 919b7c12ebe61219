package command

import (
	"context"
	"fmt"

	"github.com/tair/library-ledger/internal/library/domain"
)

// DeleteBookCommand represents the command to remove a book from the catalog
type DeleteBookCommand struct {
	BookID uint
}

// DeleteBookHandler handles delete book commands
type DeleteBookHandler struct {
	books domain.BookRepository
}

// NewDeleteBookHandler creates a new delete book handler
func NewDeleteBookHandler(books domain.BookRepository) *DeleteBookHandler {
	return &DeleteBookHandler{books: books}
}

// Handle executes the delete book command. The book stops being visible to
// the catalog and the ledger; its transaction history stays on record.
func (h *DeleteBookHandler) Handle(ctx context.Context, cmd DeleteBookCommand) error {
	if _, err := h.books.FindByID(ctx, cmd.BookID); err != nil {
		return err
	}
	if err := h.books.Delete(ctx, cmd.BookID); err != nil {
		return fmt.Errorf("failed to delete book %d: %w", cmd.BookID, err)
	}
	return nil
}
