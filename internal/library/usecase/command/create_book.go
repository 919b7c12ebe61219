package command

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tair/library-ledger/internal/library/domain"
)

// CreateBookCommand represents the command to add a book to the catalog.
// Policy fields left at zero fall back to the defaults.
type CreateBookCommand struct {
	Title          string
	Author         string
	Description    string
	ISBN           string
	TotalCount     int64
	AvailableCount int64
	Price          decimal.Decimal
	MinStockLevel  int64
	MaxStockLevel  int64
	AutoReplenish  *bool
}

// CreateBookHandler handles create book commands
type CreateBookHandler struct {
	books domain.BookRepository
}

// NewCreateBookHandler creates a new create book handler
func NewCreateBookHandler(books domain.BookRepository) *CreateBookHandler {
	return &CreateBookHandler{books: books}
}

// Handle executes the create book command. The book and its inventory policy
// are created atomically.
func (h *CreateBookHandler) Handle(ctx context.Context, cmd CreateBookCommand) (*domain.Book, error) {
	if cmd.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if cmd.TotalCount < 0 || cmd.AvailableCount < 0 {
		return nil, domain.ErrInvalidQuantity
	}
	if cmd.Price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}

	book := &domain.Book{
		Title:          cmd.Title,
		Author:         cmd.Author,
		Description:    cmd.Description,
		ISBN:           cmd.ISBN,
		TotalCount:     cmd.TotalCount,
		AvailableCount: cmd.AvailableCount,
		Price:          cmd.Price,
	}

	policy := domain.NewDefaultPolicy()
	if cmd.MinStockLevel > 0 {
		policy.MinStockLevel = cmd.MinStockLevel
	}
	if cmd.MaxStockLevel > 0 {
		policy.MaxStockLevel = cmd.MaxStockLevel
	}
	if cmd.AutoReplenish != nil {
		policy.AutoReplenish = *cmd.AutoReplenish
	}
	if policy.MaxStockLevel < policy.MinStockLevel {
		return nil, fmt.Errorf("max_stock_level must not be below min_stock_level")
	}

	if err := h.books.Create(ctx, book, policy); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}
	return book, nil
}
