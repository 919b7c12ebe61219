package repository

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tair/library-ledger/internal/library/domain"
)

var tracer = otel.Tracer("library-repository")

// GormBookRepositoryWithTracing wraps GormBookRepository with tracing on the
// stock-mutating operations.
type GormBookRepositoryWithTracing struct {
	*GormBookRepository
}

// NewGormBookRepositoryWithTracing creates a new book repository with tracing
func NewGormBookRepositoryWithTracing(db *gorm.DB) *GormBookRepositoryWithTracing {
	return &GormBookRepositoryWithTracing{
		GormBookRepository: NewGormBookRepository(db),
	}
}

// Create with tracing
func (r *GormBookRepositoryWithTracing) Create(ctx context.Context, book *domain.Book, policy *domain.InventoryPolicy) error {
	ctx, span := tracer.Start(ctx, "repository.CreateBook",
		trace.WithAttributes(
			attribute.String("book.title", book.Title),
			attribute.Int64("book.total_count", book.TotalCount),
			attribute.Int64("book.available_count", book.AvailableCount),
		),
	)
	defer span.End()

	err := r.GormBookRepository.Create(ctx, book, policy)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	span.SetAttributes(attribute.Int("book.id", int(book.ID)))
	return nil
}

// AdjustCounts with tracing
func (r *GormBookRepositoryWithTracing) AdjustCounts(ctx context.Context, id uint, availableDelta, totalDelta int64) (*domain.Book, error) {
	ctx, span := tracer.Start(ctx, "repository.AdjustCounts",
		trace.WithAttributes(
			attribute.Int("book.id", int(id)),
			attribute.Int64("adjust.available_delta", availableDelta),
			attribute.Int64("adjust.total_delta", totalDelta),
		),
	)
	defer span.End()

	book, err := r.GormBookRepository.AdjustCounts(ctx, id, availableDelta, totalDelta)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.Int64("book.available_count", book.AvailableCount),
		attribute.Int64("book.total_count", book.TotalCount),
	)
	return book, nil
}

// UpdateCounts with tracing
func (r *GormBookRepositoryWithTracing) UpdateCounts(ctx context.Context, book *domain.Book) error {
	ctx, span := tracer.Start(ctx, "repository.UpdateCounts",
		trace.WithAttributes(
			attribute.Int("book.id", int(book.ID)),
			attribute.Int64("book.available_count", book.AvailableCount),
			attribute.Int64("book.total_count", book.TotalCount),
		),
	)
	defer span.End()

	err := r.GormBookRepository.UpdateCounts(ctx, book)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
