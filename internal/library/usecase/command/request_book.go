package command

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/ledger"
	"github.com/tair/library-ledger/internal/library/locking"
	"github.com/tair/library-ledger/pkg/logger"
)

// ReplenishmentTrigger requests an asynchronous replenishment evaluation for
// the book of an accepted purchase. Implementations must not block the
// caller.
type ReplenishmentTrigger interface {
	TriggerReplenishment(ctx context.Context, txn *domain.Transaction)
}

// RequestBookCommand represents a loan or purchase request for a book.
type RequestBookCommand struct {
	ActorID  string
	BookID   uint
	Kind     domain.TransactionKind
	Quantity int64
}

// RequestBookHandler handles book requests: it debits the shelf, prices the
// transaction, sets loan deadlines and, for purchases, reduces the warehouse
// reserve.
type RequestBookHandler struct {
	transactions domain.TransactionRepository
	stock        *ledger.StockLedger
	locks        *locking.KeyedLock
	clock        domain.Clock
	loanPeriod   time.Duration
	trigger      ReplenishmentTrigger // optional
}

// NewRequestBookHandler creates a new request book handler
func NewRequestBookHandler(
	transactions domain.TransactionRepository,
	stock *ledger.StockLedger,
	locks *locking.KeyedLock,
	clock domain.Clock,
	loanPeriod time.Duration,
	trigger ReplenishmentTrigger,
) *RequestBookHandler {
	return &RequestBookHandler{
		transactions: transactions,
		stock:        stock,
		locks:        locks,
		clock:        clock,
		loanPeriod:   loanPeriod,
		trigger:      trigger,
	}
}

// Handle executes the request book command
func (h *RequestBookHandler) Handle(ctx context.Context, cmd RequestBookCommand) (*domain.Transaction, error) {
	if cmd.ActorID == "" {
		return nil, fmt.Errorf("actor_id is required")
	}
	if !cmd.Kind.Valid() {
		return nil, fmt.Errorf("unsupported transaction kind %q", cmd.Kind)
	}
	if cmd.Quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	release, err := h.locks.Acquire(ctx, cmd.BookID)
	if err != nil {
		return nil, err
	}

	txn, err := h.handleLocked(ctx, cmd)
	release()
	if txn != nil && cmd.Kind == domain.KindPurchase && h.trigger != nil {
		// Outside the lock: the evaluation takes the same lock itself.
		h.trigger.TriggerReplenishment(ctx, txn)
	}
	return txn, err
}

// handleLocked runs the critical section. The caller holds the book lock.
func (h *RequestBookHandler) handleLocked(ctx context.Context, cmd RequestBookCommand) (*domain.Transaction, error) {
	book, err := h.stock.Debit(ctx, cmd.BookID, cmd.Quantity)
	if err != nil {
		return nil, err
	}

	now := h.clock.Now()
	txn := &domain.Transaction{
		BookID:      cmd.BookID,
		ActorID:     cmd.ActorID,
		Kind:        cmd.Kind,
		Quantity:    cmd.Quantity,
		Outstanding: cmd.Quantity,
		State:       domain.StateOpen,
		CreatedAt:   now,
	}

	switch cmd.Kind {
	case domain.KindLoan:
		deadline := now.Add(h.loanPeriod)
		txn.DeadlineAt = &deadline
		txn.TotalPrice = domain.LoanPrice
	case domain.KindPurchase:
		txn.TotalPrice = book.Price.Mul(decimal.NewFromInt(cmd.Quantity))
	}

	if err := h.transactions.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}

	if cmd.Kind != domain.KindPurchase {
		return txn, nil
	}

	// Purchase fulfilment: the sold units also leave the warehouse. If the
	// reserve cannot cover them the shelf debit is already committed, so the
	// transaction stays open and the shortfall is surfaced to an operator
	// instead of being silently dropped.
	if _, err := h.stock.ReduceReserve(ctx, cmd.BookID, cmd.Quantity); err != nil {
		logger.Warn(ctx).
			Uint("book_id", cmd.BookID).
			Uint("transaction_id", txn.ID).
			Int64("quantity", cmd.Quantity).
			Err(err).
			Msg("Purchase left open: reserve could not cover sold quantity")
		return txn, fmt.Errorf("%w: transaction %d, book %d short %d units",
			domain.ErrPartialFulfilment, txn.ID, cmd.BookID, cmd.Quantity)
	}

	txn.State = domain.StateCompleted
	txn.Outstanding = 0
	if err := h.transactions.Update(ctx, txn); err != nil {
		return txn, fmt.Errorf("failed to complete purchase: %w", err)
	}
	return txn, nil
}
