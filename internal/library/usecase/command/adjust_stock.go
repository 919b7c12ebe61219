package command

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/locking"
)

// AdjustStockCommand is a storekeeper's manual override of a book's counts.
// Nil fields are left unchanged.
type AdjustStockCommand struct {
	BookID         uint
	TotalCount     *int64
	AvailableCount *int64
}

// AdjustStockHandler applies manual stock corrections under the same per-book
// lock as the ledger operations.
type AdjustStockHandler struct {
	books domain.BookRepository
	locks *locking.KeyedLock
}

// NewAdjustStockHandler creates a new adjust stock handler
func NewAdjustStockHandler(books domain.BookRepository, locks *locking.KeyedLock) *AdjustStockHandler {
	return &AdjustStockHandler{books: books, locks: locks}
}

// Handle executes the adjust stock command
func (h *AdjustStockHandler) Handle(ctx context.Context, cmd AdjustStockCommand) (*domain.Book, error) {
	if cmd.TotalCount == nil && cmd.AvailableCount == nil {
		return nil, domain.ErrInvalidQuantity
	}

	release, err := h.locks.Acquire(ctx, cmd.BookID)
	if err != nil {
		return nil, err
	}
	defer release()

	book, err := h.books.FindByID(ctx, cmd.BookID)
	if err != nil {
		return nil, err
	}

	if cmd.TotalCount != nil {
		book.TotalCount = *cmd.TotalCount
	}
	if cmd.AvailableCount != nil {
		book.AvailableCount = *cmd.AvailableCount
	}
	// Manual overrides may not shelve more than the warehouse holds.
	if book.TotalCount < 0 || book.AvailableCount < 0 || book.AvailableCount > book.TotalCount {
		return nil, domain.ErrInvalidQuantity
	}

	if err := h.books.UpdateCounts(ctx, book); err != nil {
		return nil, err
	}
	return book, nil
}
