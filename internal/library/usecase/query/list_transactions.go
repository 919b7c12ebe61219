package query

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
)

// ListTransactionsQuery lists transaction history. An empty ActorID lists
// every actor's transactions (admin view).
type ListTransactionsQuery struct {
	ActorID string
	Limit   int
	Offset  int
}

// ListTransactionsHandler handles transaction history queries
type ListTransactionsHandler struct {
	transactions domain.TransactionRepository
}

// NewListTransactionsHandler creates a new list transactions handler
func NewListTransactionsHandler(transactions domain.TransactionRepository) *ListTransactionsHandler {
	return &ListTransactionsHandler{transactions: transactions}
}

// Handle executes the list transactions query
func (h *ListTransactionsHandler) Handle(ctx context.Context, q ListTransactionsQuery) ([]domain.Transaction, error) {
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.ActorID == "" {
		return h.transactions.FindAll(ctx, q.Limit, q.Offset)
	}
	return h.transactions.FindByActor(ctx, q.ActorID, q.Limit, q.Offset)
}
