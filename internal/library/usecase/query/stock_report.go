package query

import (
	"context"

	"github.com/tair/library-ledger/internal/library/domain"
)

// StockReport is the storekeeper's dashboard view of the inventory.
type StockReport struct {
	TotalBooks      int64         `json:"total_books"`
	LowStockBooks   int64         `json:"low_stock_books"`
	OutOfStockBooks int64         `json:"out_of_stock_books"`
	Books           []domain.Book `json:"books"`
}

// GetStockReportQuery represents the query for the stock report
type GetStockReportQuery struct {
	Limit  int
	Offset int
}

// GetStockReportHandler handles stock report queries
type GetStockReportHandler struct {
	books domain.BookRepository
}

// low-stock threshold for the dashboard, matching the default minimum level
const lowStockThreshold = domain.DefaultMinStockLevel

// NewGetStockReportHandler creates a new stock report handler
func NewGetStockReportHandler(books domain.BookRepository) *GetStockReportHandler {
	return &GetStockReportHandler{books: books}
}

// Handle executes the stock report query
func (h *GetStockReportHandler) Handle(ctx context.Context, q GetStockReportQuery) (*StockReport, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	total, err := h.books.Count(ctx)
	if err != nil {
		return nil, err
	}
	lowStock, err := h.books.CountLowStock(ctx, lowStockThreshold)
	if err != nil {
		return nil, err
	}
	outOfStock, err := h.books.CountOutOfStock(ctx)
	if err != nil {
		return nil, err
	}
	books, err := h.books.FindAll(ctx, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	return &StockReport{
		TotalBooks:      total,
		LowStockBooks:   lowStock,
		OutOfStockBooks: outOfStock,
		Books:           books,
	}, nil
}
