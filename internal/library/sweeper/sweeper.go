// Package sweeper forces the return of expired loans. It runs on a fixed
// interval and goes through the same public return path as manual returns, so
// there is a single source of truth for stock credits.
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/internal/library/usecase/command"
	"github.com/tair/library-ledger/pkg/logger"
)

var forcedReturns = promauto.NewCounter(prometheus.CounterOpts{
	Name: "library_service_forced_returns_total",
	Help: "Total number of expired loans force-returned by the sweeper",
})

// EventPublisher publishes loan expiry events. A nil publisher disables
// publishing.
type EventPublisher interface {
	PublishLoanExpired(ctx context.Context, txn *domain.Transaction)
}

// Sweeper periodically scans for open loans past their deadline and returns
// them.
type Sweeper struct {
	transactions domain.TransactionRepository
	returns      *command.ReturnBookHandler
	clock        domain.Clock
	interval     time.Duration
	events       EventPublisher // optional
}

// New creates a Sweeper running every interval.
func New(
	transactions domain.TransactionRepository,
	returns *command.ReturnBookHandler,
	clock domain.Clock,
	interval time.Duration,
	events EventPublisher,
) *Sweeper {
	return &Sweeper{
		transactions: transactions,
		returns:      returns,
		clock:        clock,
		interval:     interval,
		events:       events,
	}
}

// Run sweeps on the configured interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	logger.Logger.Info().
		Dur("interval", s.interval).
		Msg("Expiry sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Logger.Info().Msg("Expiry sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass and returns the number of loans it force-returned.
// Individual failures never abort the pass: a loan returned manually in the
// meantime is expected and skipped, anything else is logged and the sweep
// moves on.
func (s *Sweeper) Sweep(ctx context.Context) int {
	expired, err := s.transactions.FindExpiredLoans(ctx, s.clock.Now())
	if err != nil {
		logger.Error(ctx).Err(err).Msg("Failed to query expired loans")
		return 0
	}

	returned := 0
	for i := range expired {
		txn := &expired[i]
		updated, err := s.returns.Handle(ctx, command.ReturnBookCommand{TransactionID: txn.ID})
		switch {
		case err == nil:
			returned++
			forcedReturns.Inc()
			if s.events != nil {
				s.events.PublishLoanExpired(ctx, updated)
			}
		case errors.Is(err, domain.ErrNotReturnable):
			// Lost the race against a manual return.
			logger.Debug(ctx).
				Uint("transaction_id", txn.ID).
				Msg("Expired loan already returned, skipping")
		default:
			logger.Warn(ctx).
				Err(err).
				Uint("transaction_id", txn.ID).
				Uint("book_id", txn.BookID).
				Msg("Failed to force-return expired loan")
		}
	}

	if len(expired) > 0 {
		logger.Info(ctx).
			Int("expired", len(expired)).
			Int("returned", returned).
			Msg("Expiry sweep completed")
	}
	return returned
}
