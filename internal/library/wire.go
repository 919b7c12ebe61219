//go:build wireinject
// +build wireinject

package library

import (
	"github.com/google/wire"
	"gorm.io/gorm"

	delivery "github.com/tair/library-ledger/internal/library/delivery/http"
	"github.com/tair/library-ledger/internal/library/ledger"
	"github.com/tair/library-ledger/internal/library/usecase/command"
	"github.com/tair/library-ledger/internal/library/usecase/query"
)

// RepositorySet provides the traced repositories
var RepositorySet = wire.NewSet(
	ProvideBookRepository,
	ProvideTransactionRepository,
	ProvidePolicyRepository,
)

// InitializeApp builds the handler graph and the sweeper with all
// dependencies.
func InitializeApp(db *gorm.DB, cfg Config) (*App, error) {
	wire.Build(
		RepositorySet,
		ProvideLocks,
		ProvideClock,
		ledger.New,
		ProvideRequestBookHandler,
		command.NewReturnBookHandler,
		ProvideReplenishHandler,
		command.NewCreateBookHandler,
		command.NewDeleteBookHandler,
		command.NewAdjustStockHandler,
		query.NewGetBookHandler,
		query.NewListBooksHandler,
		query.NewListTransactionsHandler,
		query.NewListPoliciesHandler,
		query.NewGetStockReportHandler,
		ProvideReportCache,
		delivery.NewLibraryHandler,
		ProvideSweeper,
		wire.Struct(new(App), "*"),
	)
	return nil, nil
}
