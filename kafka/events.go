package kafka

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tair/library-ledger/internal/library/domain"
)

// TransactionCreatedEvent is emitted for every accepted loan or purchase
// request.
type TransactionCreatedEvent struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	TransactionID uint            `json:"transaction_id"`
	BookID        uint            `json:"book_id"`
	ActorID       string          `json:"actor_id"`
	Kind          string          `json:"kind"`
	Quantity      int64           `json:"quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	State         string          `json:"state"`
	Timestamp     time.Time       `json:"timestamp"`
}

// StockReplenishedEvent is emitted when units move from reserve to shelf.
type StockReplenishedEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	BookID    uint      `json:"book_id"`
	Moved     int64     `json:"moved"`
	Timestamp time.Time `json:"timestamp"`
}

// LoanExpiredEvent is emitted when the sweeper force-returns an expired loan.
type LoanExpiredEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	TransactionID uint      `json:"transaction_id"`
	BookID        uint      `json:"book_id"`
	Quantity      int64     `json:"quantity"`
	Timestamp     time.Time `json:"timestamp"`
}

// Event types
const (
	EventTypeTransactionCreated = "transaction.created"
	EventTypeStockReplenished   = "stock.replenished"
	EventTypeLoanExpired        = "loan.expired"
)

// Kafka topics
const (
	TopicTransactions = "library-transactions"
	TopicStock        = "library-stock"
)

// NewTransactionCreatedEvent builds the event for a persisted transaction.
func NewTransactionCreatedEvent(txn *domain.Transaction) TransactionCreatedEvent {
	return TransactionCreatedEvent{
		TransactionID: txn.ID,
		BookID:        txn.BookID,
		ActorID:       txn.ActorID,
		Kind:          string(txn.Kind),
		Quantity:      txn.Quantity,
		TotalPrice:    txn.TotalPrice,
		State:         string(txn.State),
	}
}
