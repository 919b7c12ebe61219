package command

import (
	"context"
	"sync"
	"time"

	"github.com/tair/library-ledger/internal/library/domain"
)

// In-memory repositories mirroring the gorm implementations closely enough
// for handler tests, including the guarded count adjustment.

type memBooks struct {
	mu       sync.Mutex
	nextID   uint
	books    map[uint]*domain.Book
	policies map[uint]*domain.InventoryPolicy
}

func newMemBooks() *memBooks {
	return &memBooks{
		books:    make(map[uint]*domain.Book),
		policies: make(map[uint]*domain.InventoryPolicy),
	}
}

func (m *memBooks) seed(book domain.Book) *domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	if book.ID == 0 {
		m.nextID++
		book.ID = m.nextID
	} else if book.ID > m.nextID {
		m.nextID = book.ID
	}
	m.books[book.ID] = &book
	return &book
}

func (m *memBooks) get(id uint) domain.Book {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.books[id]
}

func (m *memBooks) Create(ctx context.Context, book *domain.Book, policy *domain.InventoryPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	book.ID = m.nextID
	copied := *book
	m.books[book.ID] = &copied
	policy.BookID = book.ID
	policyCopy := *policy
	m.policies[book.ID] = &policyCopy
	return nil
}

func (m *memBooks) FindByID(ctx context.Context, id uint) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	copied := *book
	return &copied, nil
}

func (m *memBooks) FindAll(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Book
	for _, b := range m.books {
		out = append(out, *b)
	}
	return out, nil
}

func (m *memBooks) FindAvailable(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Book
	for _, b := range m.books {
		if b.AvailableCount > 0 {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (m *memBooks) AdjustCounts(ctx context.Context, id uint, availableDelta, totalDelta int64) (*domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	book, ok := m.books[id]
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

func (m *memBooks) UpdateCounts(ctx context.Context, book *domain.Book) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.books[book.ID]
	if !ok {
		return domain.ErrBookNotFound
	}
	stored.AvailableCount = book.AvailableCount
	stored.TotalCount = book.TotalCount
	return nil
}

func (m *memBooks) Delete(ctx context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.books[id]; !ok {
		return domain.ErrBookNotFound
	}
	delete(m.books, id)
	return nil
}

func (m *memBooks) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.books)), nil
}

func (m *memBooks) CountLowStock(ctx context.Context, threshold int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.books {
		if b.AvailableCount > 0 && b.AvailableCount < threshold {
			n++
		}
	}
	return n, nil
}

func (m *memBooks) CountOutOfStock(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, b := range m.books {
		if b.AvailableCount == 0 {
			n++
		}
	}
	return n, nil
}

type memTransactions struct {
	mu     sync.Mutex
	nextID uint
	txns   map[uint]*domain.Transaction

	failCreate error
}

func newMemTransactions() *memTransactions {
	return &memTransactions{txns: make(map[uint]*domain.Transaction)}
}

func (m *memTransactions) seed(txn domain.Transaction) *domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	if txn.ID == 0 {
		m.nextID++
		txn.ID = m.nextID
	} else if txn.ID > m.nextID {
		m.nextID = txn.ID
	}
	m.txns[txn.ID] = &txn
	return &txn
}

func (m *memTransactions) get(id uint) domain.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.txns[id]
}

func (m *memTransactions) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.txns)
}

func (m *memTransactions) Create(ctx context.Context, txn *domain.Transaction) error {
	if m.failCreate != nil {
		return m.failCreate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	txn.ID = m.nextID
	copied := *txn
	m.txns[txn.ID] = &copied
	return nil
}

func (m *memTransactions) FindByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txn, ok := m.txns[id]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *txn
	return &copied, nil
}

func (m *memTransactions) FindAll(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.txns {
		out = append(out, *t)
	}
	return out, nil
}

func (m *memTransactions) FindByActor(ctx context.Context, actorID string, limit, offset int) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.txns {
		if t.ActorID == actorID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTransactions) Update(ctx context.Context, txn *domain.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[txn.ID]; !ok {
		return domain.ErrTransactionNotFound
	}
	copied := *txn
	m.txns[txn.ID] = &copied
	return nil
}

func (m *memTransactions) FindExpiredLoans(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Transaction
	for _, t := range m.txns {
		if t.Kind == domain.KindLoan && t.State == domain.StateOpen &&
			t.DeadlineAt != nil && !t.DeadlineAt.After(now) {
			out = append(out, *t)
		}
	}
	return out, nil
}

type memPolicies struct {
	mu       sync.Mutex
	policies map[uint]*domain.InventoryPolicy
}

func newMemPolicies() *memPolicies {
	return &memPolicies{policies: make(map[uint]*domain.InventoryPolicy)}
}

func (m *memPolicies) seed(policy domain.InventoryPolicy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[policy.BookID] = &policy
}

func (m *memPolicies) get(bookID uint) domain.InventoryPolicy {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.policies[bookID]
}

func (m *memPolicies) FindByBookID(ctx context.Context, bookID uint) (*domain.InventoryPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	policy, ok := m.policies[bookID]
	if !ok {
		return nil, domain.ErrBookNotFound
	}
	copied := *policy
	return &copied, nil
}

func (m *memPolicies) FindAll(ctx context.Context, limit, offset int) ([]domain.InventoryPolicy, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.InventoryPolicy
	for _, p := range m.policies {
		out = append(out, *p)
	}
	return out, nil
}

func (m *memPolicies) Update(ctx context.Context, policy *domain.InventoryPolicy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.policies[policy.BookID]; !ok {
		return domain.ErrBookNotFound
	}
	copied := *policy
	m.policies[policy.BookID] = &copied
	return nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

type recordingTrigger struct {
	mu      sync.Mutex
	bookIDs []uint
}

func (r *recordingTrigger) TriggerReplenishment(ctx context.Context, txn *domain.Transaction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookIDs = append(r.bookIDs, txn.BookID)
}

func (r *recordingTrigger) triggered() []uint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uint(nil), r.bookIDs...)
}

type recordingEvents struct {
	mu    sync.Mutex
	moved map[uint][]int64
}

func newRecordingEvents() *recordingEvents {
	return &recordingEvents{moved: make(map[uint][]int64)}
}

func (r *recordingEvents) PublishStockReplenished(ctx context.Context, bookID uint, moved int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moved[bookID] = append(r.moved[bookID], moved)
}

func (r *recordingEvents) published(bookID uint) []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.moved[bookID]...)
}
