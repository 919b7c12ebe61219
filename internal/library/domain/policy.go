package domain

import (
	"context"
	"time"
)

// Default thresholds applied when a book is created without explicit policy
// values.
const (
	DefaultMinStockLevel int64 = 5
	DefaultMaxStockLevel int64 = 50
)

// InventoryPolicy holds the per-book replenishment thresholds. Exactly one
// policy exists per book; it is created in the same transaction as the book.
type InventoryPolicy struct {
	ID                uint       `json:"id" gorm:"primaryKey"`
	BookID            uint       `json:"book_id" gorm:"not null;uniqueIndex"`
	MinStockLevel     int64      `json:"min_stock_level" gorm:"not null;default:5"`
	MaxStockLevel     int64      `json:"max_stock_level" gorm:"not null;default:50"`
	AutoReplenish     bool       `json:"auto_replenish" gorm:"not null;default:true"`
	LastReplenishedAt *time.Time `json:"last_replenished_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// TableName specifies the table name
func (InventoryPolicy) TableName() string {
	return "inventory_policies"
}

// NewDefaultPolicy returns the policy a freshly created book receives.
func NewDefaultPolicy() *InventoryPolicy {
	return &InventoryPolicy{
		MinStockLevel: DefaultMinStockLevel,
		MaxStockLevel: DefaultMaxStockLevel,
		AutoReplenish: true,
	}
}

// InventoryPolicyRepository defines the contract for policy data access.
type InventoryPolicyRepository interface {
	FindByBookID(ctx context.Context, bookID uint) (*InventoryPolicy, error)
	FindAll(ctx context.Context, limit, offset int) ([]InventoryPolicy, error)
	Update(ctx context.Context, policy *InventoryPolicy) error
}
