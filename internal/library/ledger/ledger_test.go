package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tair/library-ledger/internal/library/domain"
)

// countsRepo implements the count adjustment with the same semantics as the
// gorm repository: a single guarded update that fails without side effects.
type countsRepo struct {
	books map[uint]*domain.Book
}

func newCountsRepo(books ...domain.Book) *countsRepo {
	r := &countsRepo{books: make(map[uint]*domain.Book)}
	for i := range books {
		b := books[i]
		r.books[b.ID] = &b
	}
	return r
}

func (r *countsRepo) AdjustCounts(ctx context.Context, id uint, availableDelta, totalDelta int64) (*domain.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	if book.AvailableCount+availableDelta < 0 || book.TotalCount+totalDelta < 0 {
		return nil, domain.ErrStockConflict
	}
	book.AvailableCount += availableDelta
	book.TotalCount += totalDelta
	copied := *book
	return &copied, nil
}

func (r *countsRepo) Create(ctx context.Context, book *domain.Book, policy *domain.InventoryPolicy) error {
	return nil
}
func (r *countsRepo) FindByID(ctx context.Context, id uint) (*domain.Book, error) {
	book, ok := r.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	copied := *book
	return &copied, nil
}
func (r *countsRepo) FindAll(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	return nil, nil
}
func (r *countsRepo) FindAvailable(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	return nil, nil
}
func (r *countsRepo) UpdateCounts(ctx context.Context, book *domain.Book) error { return nil }
func (r *countsRepo) Delete(ctx context.Context, id uint) error                 { return nil }
func (r *countsRepo) Count(ctx context.Context) (int64, error)                  { return 0, nil }
func (r *countsRepo) CountLowStock(ctx context.Context, threshold int64) (int64, error) {
	return 0, nil
}
func (r *countsRepo) CountOutOfStock(ctx context.Context) (int64, error) { return 0, nil }

func TestStockLedger_Debit(t *testing.T) {
	repo := newCountsRepo(domain.Book{ID: 1, TotalCount: 10, AvailableCount: 3})
	l := New(repo)

	book, err := l.Debit(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), book.AvailableCount)
	assert.Equal(t, int64(10), book.TotalCount)

	_, err = l.Debit(context.Background(), 1, 2)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, int64(1), repo.books[1].AvailableCount, "failed debit must not move stock")

	_, err = l.Debit(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	_, err = l.Debit(context.Background(), 99, 1)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestStockLedger_Credit(t *testing.T) {
	repo := newCountsRepo(domain.Book{ID: 1, TotalCount: 10, AvailableCount: 3})
	l := New(repo)

	book, err := l.Credit(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(7), book.AvailableCount)
	assert.Equal(t, int64(10), book.TotalCount)

	_, err = l.Credit(context.Background(), 1, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestStockLedger_MoveReserveToShelf(t *testing.T) {
	repo := newCountsRepo(domain.Book{ID: 1, TotalCount: 5, AvailableCount: 1})
	l := New(repo)

	book, err := l.MoveReserveToShelf(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(6), book.AvailableCount)
	assert.Equal(t, int64(0), book.TotalCount)

	_, err = l.MoveReserveToShelf(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientReserve)
	assert.Equal(t, int64(6), repo.books[1].AvailableCount, "failed move must not touch the shelf")
}

func TestStockLedger_ReduceReserve(t *testing.T) {
	repo := newCountsRepo(domain.Book{ID: 1, TotalCount: 2, AvailableCount: 8})
	l := New(repo)

	book, err := l.ReduceReserve(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(8), book.AvailableCount)
	assert.Equal(t, int64(0), book.TotalCount)

	_, err = l.ReduceReserve(context.Background(), 1, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientReserve)
}
