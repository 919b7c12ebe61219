// Package ledger implements the stock ledger: the only legal mutator of a
// book's count fields. Every operation is a single atomic, guarded adjustment
// that is persisted before returning. Callers serialize operations on a book
// through the per-book lock; the ledger itself enforces the non-negative
// count invariants.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/tair/library-ledger/internal/library/domain"
)

// StockLedger mutates book stock counts through the book repository.
type StockLedger struct {
	books domain.BookRepository
}

// New creates a StockLedger over the given repository.
func New(books domain.BookRepository) *StockLedger {
	return &StockLedger{books: books}
}

// Debit removes quantity units from the shelf. Fails with
// domain.ErrInsufficientStock if fewer units are available, without side
// effects.
func (l *StockLedger) Debit(ctx context.Context, bookID uint, quantity int64) (*domain.Book, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	book, err := l.books.AdjustCounts(ctx, bookID, -quantity, 0)
	if errors.Is(err, domain.ErrStockConflict) {
		return nil, domain.ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("debit book %d: %w", bookID, err)
	}
	return book, nil
}

// Credit puts quantity units back on the shelf. No upper bound is enforced.
func (l *StockLedger) Credit(ctx context.Context, bookID uint, quantity int64) (*domain.Book, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	book, err := l.books.AdjustCounts(ctx, bookID, quantity, 0)
	if err != nil {
		return nil, fmt.Errorf("credit book %d: %w", bookID, err)
	}
	return book, nil
}

// MoveReserveToShelf moves quantity units from the warehouse reserve onto the
// shelf. Fails with domain.ErrInsufficientReserve if the reserve holds fewer
// units.
func (l *StockLedger) MoveReserveToShelf(ctx context.Context, bookID uint, quantity int64) (*domain.Book, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	book, err := l.books.AdjustCounts(ctx, bookID, quantity, -quantity)
	if errors.Is(err, domain.ErrStockConflict) {
		return nil, domain.ErrInsufficientReserve
	}
	if err != nil {
		return nil, fmt.Errorf("replenish book %d: %w", bookID, err)
	}
	return book, nil
}

// ReduceReserve removes quantity units from the warehouse reserve alone, used
// when a purchase permanently takes stock out of the warehouse. Fails with
// domain.ErrInsufficientReserve if the reserve holds fewer units.
func (l *StockLedger) ReduceReserve(ctx context.Context, bookID uint, quantity int64) (*domain.Book, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}
	book, err := l.books.AdjustCounts(ctx, bookID, 0, -quantity)
	if errors.Is(err, domain.ErrStockConflict) {
		return nil, domain.ErrInsufficientReserve
	}
	if err != nil {
		return nil, fmt.Errorf("reduce reserve of book %d: %w", bookID, err)
	}
	return book, nil
}
