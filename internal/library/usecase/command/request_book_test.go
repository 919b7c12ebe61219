package command

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/ledger"
	"github.com/tair/library-ledger/internal/library/locking"
)

func newRequestFixture(t *testing.T, book domain.Book) (*RequestBookHandler, *memBooks, *memTransactions, time.Time) {
	t.Helper()
	books := newMemBooks()
	books.seed(book)
	txns := newMemTransactions()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	handler := NewRequestBookHandler(
		txns,
		ledger.New(books),
		locking.New(5*time.Second),
		fixedClock{now: now},
		24*time.Hour,
		nil,
	)
	return handler, books, txns, now
}

func TestRequestBook_LoanSetsDeadlineAndDebitsShelf(t *testing.T) {
	handler, books, _, now := newRequestFixture(t, domain.Book{
		ID:             1,
		Title:          "The Go Programming Language",
		TotalCount:     10,
		AvailableCount: 5,
		Price:          decimal.RequireFromString("39.90"),
	})

	txn, err := handler.Handle(context.Background(), RequestBookCommand{
		ActorID:  "member-1",
		BookID:   1,
		Kind:     domain.KindLoan,
		Quantity: 2,
	})

	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.Equal(t, domain.StateOpen, txn.State)
	assert.Equal(t, int64(2), txn.Quantity)
	assert.Equal(t, int64(2), txn.Outstanding)
	require.NotNil(t, txn.DeadlineAt)
	assert.Equal(t, now.Add(24*time.Hour), *txn.DeadlineAt)
	assert.True(t, txn.TotalPrice.IsZero(), "loans are free of charge")

	book := books.get(1)
	assert.Equal(t, int64(3), book.AvailableCount)
	assert.Equal(t, int64(10), book.TotalCount, "loans must not touch the reserve")
}

func TestRequestBook_PurchaseCompletesAndReducesBothCounts(t *testing.T) {
	handler, books, _, _ := newRequestFixture(t, domain.Book{
		ID:             1,
		Title:          "Clean Architecture",
		TotalCount:     10,
		AvailableCount: 3,
		Price:          decimal.RequireFromString("5.00"),
	})

	txn, err := handler.Handle(context.Background(), RequestBookCommand{
		ActorID:  "member-1",
		BookID:   1,
		Kind:     domain.KindPurchase,
		Quantity: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StateCompleted, txn.State)
	assert.Equal(t, int64(0), txn.Outstanding)
	assert.Nil(t, txn.DeadlineAt)
	assert.True(t, txn.TotalPrice.Equal(decimal.RequireFromString("10.00")),
		"got %s", txn.TotalPrice)

	book := books.get(1)
	assert.Equal(t, int64(1), book.AvailableCount)
	assert.Equal(t, int64(8), book.TotalCount)
}

func TestRequestBook_InsufficientStockLeavesNoTrace(t *testing.T) {
	handler, books, txns, _ := newRequestFixture(t, domain.Book{
		ID:             1,
		Title:          "Sparse",
		TotalCount:     10,
		AvailableCount: 1,
		Price:          decimal.RequireFromString("5.00"),
	})

	txn, err := handler.Handle(context.Background(), RequestBookCommand{
		ActorID:  "member-1",
		BookID:   1,
		Kind:     domain.KindLoan,
		Quantity: 2,
	})

	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Nil(t, txn)
	assert.Equal(t, 0, txns.len(), "no transaction may be recorded for a rejected request")

	book := books.get(1)
	assert.Equal(t, int64(1), book.AvailableCount)
	assert.Equal(t, int64(10), book.TotalCount)
}

func TestRequestBook_PartialFulfilmentKeepsTransactionOpen(t *testing.T) {
	// Shelf can cover the purchase but the warehouse reserve cannot.
	handler, books, txns, _ := newRequestFixture(t, domain.Book{
		ID:             1,
		Title:          "Last Copies",
		TotalCount:     1,
		AvailableCount: 5,
		Price:          decimal.RequireFromString("12.00"),
	})

	txn, err := handler.Handle(context.Background(), RequestBookCommand{
		ActorID:  "member-1",
		BookID:   1,
		Kind:     domain.KindPurchase,
		Quantity: 3,
	})

	assert.ErrorIs(t, err, domain.ErrPartialFulfilment)
	require.NotNil(t, txn, "the recorded transaction is returned alongside the error")
	assert.Equal(t, domain.StateOpen, txn.State)

	stored := txns.get(txn.ID)
	assert.Equal(t, domain.StateOpen, stored.State)

	book := books.get(1)
	assert.Equal(t, int64(2), book.AvailableCount, "the shelf debit stays committed")
	assert.Equal(t, int64(1), book.TotalCount, "the reserve is left untouched")
}

func TestRequestBook_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cmd     RequestBookCommand
		wantErr error
	}{
		{
			name:    "zero quantity",
			cmd:     RequestBookCommand{ActorID: "m", BookID: 1, Kind: domain.KindLoan, Quantity: 0},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "negative quantity",
			cmd:     RequestBookCommand{ActorID: "m", BookID: 1, Kind: domain.KindLoan, Quantity: -3},
			wantErr: domain.ErrInvalidQuantity,
		},
		{
			name:    "unknown book",
			cmd:     RequestBookCommand{ActorID: "m", BookID: 99, Kind: domain.KindLoan, Quantity: 1},
			wantErr: domain.ErrBookNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, _, _ := newRequestFixture(t, domain.Book{
				ID:             1,
				Title:          "Any",
				TotalCount:     5,
				AvailableCount: 5,
			})
			_, err := handler.Handle(context.Background(), tt.cmd)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	t.Run("missing actor", func(t *testing.T) {
		handler, _, _, _ := newRequestFixture(t, domain.Book{ID: 1, Title: "Any", AvailableCount: 5})
		_, err := handler.Handle(context.Background(), RequestBookCommand{
			BookID: 1, Kind: domain.KindLoan, Quantity: 1,
		})
		assert.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		handler, _, _, _ := newRequestFixture(t, domain.Book{ID: 1, Title: "Any", AvailableCount: 5})
		_, err := handler.Handle(context.Background(), RequestBookCommand{
			ActorID: "m", BookID: 1, Kind: "subscription", Quantity: 1,
		})
		assert.Error(t, err)
	})
}

func TestRequestBook_TriggersReplenishmentForPurchasesOnly(t *testing.T) {
	books := newMemBooks()
	books.seed(domain.Book{ID: 1, Title: "Any", TotalCount: 10, AvailableCount: 10, Price: decimal.New(1, 0)})
	trigger := &recordingTrigger{}
	handler := NewRequestBookHandler(
		newMemTransactions(),
		ledger.New(books),
		locking.New(5*time.Second),
		fixedClock{now: time.Now()},
		24*time.Hour,
		trigger,
	)

	_, err := handler.Handle(context.Background(), RequestBookCommand{
		ActorID: "m", BookID: 1, Kind: domain.KindLoan, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Empty(t, trigger.triggered(), "loans must not trigger replenishment")

	_, err = handler.Handle(context.Background(), RequestBookCommand{
		ActorID: "m", BookID: 1, Kind: domain.KindPurchase, Quantity: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, trigger.triggered())
}

func TestRequestBook_ConcurrentRequestsNeverOversell(t *testing.T) {
	const available = 5
	const requesters = 12

	handler, books, txns, _ := newRequestFixture(t, domain.Book{
		ID:             1,
		Title:          "Contested",
		TotalCount:     100,
		AvailableCount: available,
		Price:          decimal.New(1, 0),
	})

	var wg sync.WaitGroup
	errs := make(chan error, requesters)
	for i := 0; i < requesters; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := handler.Handle(context.Background(), RequestBookCommand{
				ActorID:  "member-1",
				BookID:   1,
				Kind:     domain.KindLoan,
				Quantity: 1,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, rejected int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
			rejected++
		}
	}

	assert.Equal(t, available, succeeded, "exactly min(N, k) requests succeed")
	assert.Equal(t, requesters-available, rejected)
	assert.Equal(t, available, txns.len())

	book := books.get(1)
	assert.Equal(t, int64(0), book.AvailableCount)
	assert.Equal(t, int64(100), book.TotalCount)
}
