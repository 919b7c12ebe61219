// Package library wires the ledger's components together.
package library

import (
	"time"

	"gorm.io/gorm"

	delivery "github.com/tair/library-ledger/internal/library/delivery/http"
	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/ledger"
	"github.com/tair/library-ledger/internal/library/locking"
	"github.com/tair/library-ledger/internal/library/repository"
	"github.com/tair/library-ledger/internal/library/sweeper"
	"github.com/tair/library-ledger/internal/library/usecase/command"

	"github.com/redis/go-redis/v9"
)

// Config carries the runtime knobs and optional collaborators the handler
// graph needs.
type Config struct {
	LoanPeriod    time.Duration
	LockWait      time.Duration
	SweepInterval time.Duration
	CacheTTL      time.Duration

	// Optional: nil disables the corresponding integration.
	Trigger command.ReplenishmentTrigger
	Events  command.EventPublisher
	Expiry  sweeper.EventPublisher
	Redis   *redis.Client
	Clock   domain.Clock
}

// App bundles the long-lived components the entrypoint runs.
type App struct {
	Handler   *delivery.LibraryHandler
	Sweeper   *sweeper.Sweeper
	Replenish *command.EvaluateReplenishmentHandler
}

// ProvideBookRepository provides the traced book repository
func ProvideBookRepository(db *gorm.DB) domain.BookRepository {
	return repository.NewGormBookRepositoryWithTracing(db)
}

// ProvideTransactionRepository provides the transaction repository
func ProvideTransactionRepository(db *gorm.DB) domain.TransactionRepository {
	return repository.NewGormTransactionRepository(db)
}

// ProvidePolicyRepository provides the inventory policy repository
func ProvidePolicyRepository(db *gorm.DB) domain.InventoryPolicyRepository {
	return repository.NewGormInventoryPolicyRepository(db)
}

// ProvideLocks provides the per-book lock table
func ProvideLocks(cfg Config) *locking.KeyedLock {
	return locking.New(cfg.LockWait)
}

// ProvideClock provides the configured clock, defaulting to wall time
func ProvideClock(cfg Config) domain.Clock {
	if cfg.Clock != nil {
		return cfg.Clock
	}
	return domain.SystemClock{}
}

// ProvideRequestBookHandler provides the book request handler. Without a
// configured trigger, purchases evaluate replenishment in-process.
func ProvideRequestBookHandler(
	transactions domain.TransactionRepository,
	stock *ledger.StockLedger,
	locks *locking.KeyedLock,
	clock domain.Clock,
	replenish *command.EvaluateReplenishmentHandler,
	cfg Config,
) *command.RequestBookHandler {
	trigger := cfg.Trigger
	if trigger == nil {
		trigger = command.NewAsyncReplenishment(replenish)
	}
	return command.NewRequestBookHandler(transactions, stock, locks, clock, cfg.LoanPeriod, trigger)
}

// ProvideReplenishHandler provides the replenishment evaluation handler
func ProvideReplenishHandler(
	books domain.BookRepository,
	policies domain.InventoryPolicyRepository,
	stock *ledger.StockLedger,
	locks *locking.KeyedLock,
	clock domain.Clock,
	cfg Config,
) *command.EvaluateReplenishmentHandler {
	return command.NewEvaluateReplenishmentHandler(books, policies, stock, locks, clock, cfg.Events)
}

// ProvideReportCache provides the redis-backed report cache
func ProvideReportCache(cfg Config) *delivery.ReportCache {
	return delivery.NewReportCache(cfg.Redis, cfg.CacheTTL)
}

// ProvideSweeper provides the expiry sweeper
func ProvideSweeper(
	transactions domain.TransactionRepository,
	returns *command.ReturnBookHandler,
	clock domain.Clock,
	cfg Config,
) *sweeper.Sweeper {
	return sweeper.New(transactions, returns, clock, cfg.SweepInterval, cfg.Expiry)
}
