package command

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/ledger"
	"github.com/tair/library-ledger/internal/library/locking"
)

// ReturnBookCommand returns quantity units of an open loan. Quantity zero
// means the full outstanding amount. This is the single code path for all
// stock credits on return: manual returns and the expiry sweeper both go
// through it.
type ReturnBookCommand struct {
	TransactionID uint
	Quantity      int64
}

// ReturnBookHandler handles loan returns, partial or full.
type ReturnBookHandler struct {
	transactions domain.TransactionRepository
	stock        *ledger.StockLedger
	locks        *locking.KeyedLock
}

// NewReturnBookHandler creates a new return book handler
func NewReturnBookHandler(
	transactions domain.TransactionRepository,
	stock *ledger.StockLedger,
	locks *locking.KeyedLock,
) *ReturnBookHandler {
	return &ReturnBookHandler{
		transactions: transactions,
		stock:        stock,
		locks:        locks,
	}
}

// Handle executes the return book command
func (h *ReturnBookHandler) Handle(ctx context.Context, cmd ReturnBookCommand) (*domain.Transaction, error) {
	if cmd.Quantity < 0 {
		return nil, domain.ErrInvalidQuantity
	}

	// Pre-check outside the lock so obviously dead requests fail fast.
	txn, err := h.transactions.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if !txn.Returnable() {
		return nil, domain.ErrNotReturnable
	}

	release, err := h.locks.Acquire(ctx, txn.BookID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock: a concurrent return may have completed or
	// shrunk the loan since the pre-check.
	txn, err = h.transactions.FindByID(ctx, cmd.TransactionID)
	if err != nil {
		return nil, err
	}
	if !txn.Returnable() {
		return nil, domain.ErrNotReturnable
	}

	quantity := cmd.Quantity
	if quantity == 0 {
		quantity = txn.Outstanding
	}
	if quantity > txn.Outstanding {
		return nil, domain.ErrInvalidQuantity
	}

	if _, err := h.stock.Credit(ctx, txn.BookID, quantity); err != nil {
		return nil, err
	}

	txn.Outstanding -= quantity
	if txn.Outstanding == 0 {
		txn.State = domain.StateCompleted
	}
	if err := h.transactions.Update(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}
