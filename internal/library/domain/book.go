package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Book is the stock root. AvailableCount tracks shelved, loanable units;
// TotalCount tracks the warehouse reserve not yet moved to the shelf. The two
// are independent: replenishment moves units from reserve to shelf, and a
// purchase reduces both by the sold quantity. Both counts must stay >= 0 and
// are mutated only through the stock ledger.
type Book struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	Title          string          `json:"title" gorm:"not null"`
	Author         string          `json:"author"`
	Description    string          `json:"description"`
	ISBN           string          `json:"isbn" gorm:"column:isbn"`
	TotalCount     int64           `json:"total_count" gorm:"not null;default:0"`
	AvailableCount int64           `json:"available_count" gorm:"not null;default:0"`
	Price          decimal.Decimal `json:"price" gorm:"type:numeric(10,2);not null;default:0"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `json:"-" gorm:"index"`
}

// TableName specifies the table name
func (Book) TableName() string {
	return "books"
}

// BookRepository defines the contract for book data access.
type BookRepository interface {
	// Create persists the book together with its inventory policy in a single
	// database transaction. Every book has exactly one policy.
	Create(ctx context.Context, book *Book, policy *InventoryPolicy) error
	FindByID(ctx context.Context, id uint) (*Book, error)
	FindAll(ctx context.Context, limit, offset int) ([]Book, error)
	FindAvailable(ctx context.Context, limit, offset int) ([]Book, error)
	// AdjustCounts atomically applies the given deltas to available_count and
	// total_count. It fails with ErrStockConflict if either count would drop
	// below zero, leaving the row untouched, and returns the updated book on
	// success.
	AdjustCounts(ctx context.Context, id uint, availableDelta, totalDelta int64) (*Book, error)
	// UpdateCounts overwrites both counts with the values held by book.
	UpdateCounts(ctx context.Context, book *Book) error
	Delete(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
	CountLowStock(ctx context.Context, threshold int64) (int64, error)
	CountOutOfStock(ctx context.Context) (int64, error)
}
