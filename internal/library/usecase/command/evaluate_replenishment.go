package command

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/ledger"
	"github.com/tair/library-ledger/internal/library/locking"
	"github.com/tair/library-ledger/pkg/logger"
)

// EventPublisher publishes stock events for observability. Implementations
// must tolerate being called from inside request handling; a nil publisher
// disables publishing.
type EventPublisher interface {
	PublishStockReplenished(ctx context.Context, bookID uint, moved int64)
}

// EvaluateReplenishmentCommand asks for a replenishment evaluation of one book.
type EvaluateReplenishmentCommand struct {
	BookID uint
}

// EvaluateReplenishmentHandler tops the shelf up from the warehouse reserve
// when available stock falls below the policy's minimum. The evaluation is
// idempotent: a second call with no intervening debit is a no-op.
type EvaluateReplenishmentHandler struct {
	books    domain.BookRepository
	policies domain.InventoryPolicyRepository
	stock    *ledger.StockLedger
	locks    *locking.KeyedLock
	clock    domain.Clock
	events   EventPublisher // optional
}

// NewEvaluateReplenishmentHandler creates a new replenishment handler
func NewEvaluateReplenishmentHandler(
	books domain.BookRepository,
	policies domain.InventoryPolicyRepository,
	stock *ledger.StockLedger,
	locks *locking.KeyedLock,
	clock domain.Clock,
	events EventPublisher,
) *EvaluateReplenishmentHandler {
	return &EvaluateReplenishmentHandler{
		books:    books,
		policies: policies,
		stock:    stock,
		locks:    locks,
		clock:    clock,
		events:   events,
	}
}

// Handle executes the replenishment evaluation
func (h *EvaluateReplenishmentHandler) Handle(ctx context.Context, cmd EvaluateReplenishmentCommand) error {
	policy, err := h.policies.FindByBookID(ctx, cmd.BookID)
	if err != nil {
		return err
	}
	if !policy.AutoReplenish {
		return nil
	}

	release, err := h.locks.Acquire(ctx, cmd.BookID)
	if err != nil {
		return err
	}
	defer release()

	book, err := h.books.FindByID(ctx, cmd.BookID)
	if err != nil {
		return err
	}
	if book.AvailableCount >= policy.MinStockLevel {
		return nil
	}

	needed := policy.MaxStockLevel - book.AvailableCount
	if book.TotalCount < needed {
		// Reserve cannot reach the target; move whatever is left.
		needed = book.TotalCount
	}
	if needed <= 0 {
		return nil
	}

	book, err = h.stock.MoveReserveToShelf(ctx, cmd.BookID, needed)
	if err != nil {
		return err
	}

	now := h.clock.Now()
	policy.LastReplenishedAt = &now
	if err := h.policies.Update(ctx, policy); err != nil {
		return err
	}

	logger.Info(ctx).
		Uint("book_id", cmd.BookID).
		Int64("moved", needed).
		Int64("available_count", book.AvailableCount).
		Int64("total_count", book.TotalCount).
		Msg("Stock replenished from reserve")

	if h.events != nil {
		h.events.PublishStockReplenished(ctx, cmd.BookID, needed)
	}
	return nil
}

// AsyncReplenishment adapts the evaluation handler into a fire-and-forget
// ReplenishmentTrigger for deployments without a message broker.
type AsyncReplenishment struct {
	handler *EvaluateReplenishmentHandler
}

// NewAsyncReplenishment creates the in-process replenishment trigger
func NewAsyncReplenishment(handler *EvaluateReplenishmentHandler) *AsyncReplenishment {
	return &AsyncReplenishment{handler: handler}
}

// TriggerReplenishment evaluates in a new goroutine, detached from the
// request context so a finished request cannot cancel the evaluation.
func (a *AsyncReplenishment) TriggerReplenishment(ctx context.Context, txn *domain.Transaction) {
	bookID := txn.BookID
	go func() {
		if err := a.handler.Handle(context.Background(), EvaluateReplenishmentCommand{BookID: bookID}); err != nil {
			logger.Warn(ctx).Err(err).Uint("book_id", bookID).Msg("Replenishment evaluation failed")
		}
	}()
}
