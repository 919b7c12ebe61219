package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/tair/library-ledger/internal/library/domain"
)

// AutoMigrate creates or updates the schema for all ledger entities.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Book{},
		&domain.InventoryPolicy{},
		&domain.Transaction{},
	)
}

type GormBookRepository struct {
	db *gorm.DB
}

func NewGormBookRepository(db *gorm.DB) *GormBookRepository {
	return &GormBookRepository{db: db}
}

func (r *GormBookRepository) Create(ctx context.Context, book *domain.Book, policy *domain.InventoryPolicy) error {
	// Book and its policy are created in one transaction; a book without a
	// policy must never be observable.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(book).Error; err != nil {
			return err
		}
		policy.BookID = book.ID
		return tx.Create(policy).Error
	})
}

func (r *GormBookRepository) FindByID(ctx context.Context, id uint) (*domain.Book, error) {
	var book domain.Book
	err := r.db.WithContext(ctx).First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (r *GormBookRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("created_at DESC").Find(&books).Error
	return books, err
}

func (r *GormBookRepository) FindAvailable(ctx context.Context, limit, offset int) ([]domain.Book, error) {
	var books []domain.Book
	err := r.db.WithContext(ctx).
		Where("available_count > 0").
		Limit(limit).Offset(offset).Order("created_at DESC").
		Find(&books).Error
	return books, err
}

func (r *GormBookRepository) AdjustCounts(ctx context.Context, id uint, availableDelta, totalDelta int64) (*domain.Book, error) {
	// Single guarded UPDATE: the WHERE clause rejects any adjustment that
	// would take a count below zero, so the row is either fully updated or
	// untouched.
	res := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ? AND available_count + ? >= 0 AND total_count + ? >= 0", id, availableDelta, totalDelta).
		Updates(map[string]interface{}{
			"available_count": gorm.Expr("available_count + ?", availableDelta),
			"total_count":     gorm.Expr("total_count + ?", totalDelta),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := r.db.WithContext(ctx).Model(&domain.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, err
		}
		if count == 0 {
			return nil, domain.ErrBookNotFound
		}
		return nil, domain.ErrStockConflict
	}
	return r.FindByID(ctx, id)
}

func (r *GormBookRepository) UpdateCounts(ctx context.Context, book *domain.Book) error {
	return r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("id = ?", book.ID).
		Updates(map[string]interface{}{
			"available_count": book.AvailableCount,
			"total_count":     book.TotalCount,
		}).Error
}

func (r *GormBookRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&domain.Book{}, id).Error
}

func (r *GormBookRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).Count(&count).Error
	return count, err
}

func (r *GormBookRepository) CountLowStock(ctx context.Context, threshold int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("available_count > 0 AND available_count < ?", threshold).
		Count(&count).Error
	return count, err
}

func (r *GormBookRepository) CountOutOfStock(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Book{}).
		Where("available_count = 0").
		Count(&count).Error
	return count, err
}

type GormTransactionRepository struct {
	db *gorm.DB
}

func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

func (r *GormTransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

func (r *GormTransactionRepository) FindByID(ctx context.Context, id uint) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := r.db.WithContext(ctx).First(&txn, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *GormTransactionRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Order("created_at DESC").Find(&txns).Error
	return txns, err
}

func (r *GormTransactionRepository) FindByActor(ctx context.Context, actorID string, limit, offset int) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).
		Where("actor_id = ?", actorID).
		Limit(limit).Offset(offset).Order("created_at DESC").
		Find(&txns).Error
	return txns, err
}

func (r *GormTransactionRepository) Update(ctx context.Context, txn *domain.Transaction) error {
	return r.db.WithContext(ctx).Save(txn).Error
}

func (r *GormTransactionRepository) FindExpiredLoans(ctx context.Context, now time.Time) ([]domain.Transaction, error) {
	var txns []domain.Transaction
	err := r.db.WithContext(ctx).
		Where("kind = ? AND state = ? AND deadline_at <= ?", domain.KindLoan, domain.StateOpen, now).
		Find(&txns).Error
	return txns, err
}

type GormInventoryPolicyRepository struct {
	db *gorm.DB
}

func NewGormInventoryPolicyRepository(db *gorm.DB) *GormInventoryPolicyRepository {
	return &GormInventoryPolicyRepository{db: db}
}

func (r *GormInventoryPolicyRepository) FindByBookID(ctx context.Context, bookID uint) (*domain.InventoryPolicy, error) {
	var policy domain.InventoryPolicy
	err := r.db.WithContext(ctx).Where("book_id = ?", bookID).First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

func (r *GormInventoryPolicyRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.InventoryPolicy, error) {
	var policies []domain.InventoryPolicy
	err := r.db.WithContext(ctx).Limit(limit).Offset(offset).Find(&policies).Error
	return policies, err
}

func (r *GormInventoryPolicyRepository) Update(ctx context.Context, policy *domain.InventoryPolicy) error {
	return r.db.WithContext(ctx).Save(policy).Error
}
