package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the closed set of stock-moving transaction kinds.
type TransactionKind string

const (
	KindLoan     TransactionKind = "loan"
	KindPurchase TransactionKind = "purchase"
)

// Valid reports whether k is a known transaction kind.
func (k TransactionKind) Valid() bool {
	switch k {
	case KindLoan, KindPurchase:
		return true
	}
	return false
}

// TransactionState is the lifecycle state of a transaction. Completed is
// terminal.
type TransactionState string

const (
	StateOpen      TransactionState = "open"
	StateCompleted TransactionState = "completed"
)

// Transaction records a single stock movement against a book. Transactions
// are never deleted; together they form an append-only ledger. TotalPrice is
// computed once at creation and never recomputed. Outstanding is the portion
// of a loan not yet returned; it starts at Quantity and reaches zero when the
// loan completes.
type Transaction struct {
	ID          uint             `json:"id" gorm:"primaryKey"`
	BookID      uint             `json:"book_id" gorm:"not null;index"`
	ActorID     string           `json:"actor_id" gorm:"not null;index"`
	Kind        TransactionKind  `json:"kind" gorm:"not null;index"`
	Quantity    int64            `json:"quantity" gorm:"not null"`
	Outstanding int64            `json:"outstanding" gorm:"not null"`
	TotalPrice  decimal.Decimal  `json:"total_price" gorm:"type:numeric(10,2);not null;default:0"`
	State       TransactionState `json:"state" gorm:"not null;default:'open';index"`
	DeadlineAt  *time.Time       `json:"deadline_at,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TableName specifies the table name
func (Transaction) TableName() string {
	return "transactions"
}

// Returnable reports whether the transaction can still accept a return.
func (t *Transaction) Returnable() bool {
	return t.Kind == KindLoan && t.State == StateOpen
}

// TransactionRepository defines the contract for transaction data access.
type TransactionRepository interface {
	Create(ctx context.Context, txn *Transaction) error
	FindByID(ctx context.Context, id uint) (*Transaction, error)
	FindAll(ctx context.Context, limit, offset int) ([]Transaction, error)
	FindByActor(ctx context.Context, actorID string, limit, offset int) ([]Transaction, error)
	Update(ctx context.Context, txn *Transaction) error
	// FindExpiredLoans returns open loan transactions whose deadline is at or
	// before now.
	FindExpiredLoans(ctx context.Context, now time.Time) ([]Transaction, error)
}

// LoanPrice is the stored price of a loan transaction. Loans are free of
// charge; the zero is stored at creation so the ledger never recomputes it.
var LoanPrice = decimal.Zero
