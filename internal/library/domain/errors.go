package domain

import "errors"

var (
	// ErrInsufficientStock means the shelf holds fewer units than requested.
	// Recoverable: the caller may retry with a lower quantity or later.
	ErrInsufficientStock = errors.New("insufficient available stock")

	// ErrInsufficientReserve means the warehouse reserve cannot supply a
	// replenishment or purchase fulfilment.
	ErrInsufficientReserve = errors.New("insufficient reserve stock")

	// ErrPartialFulfilment means a purchase debited the shelf but the reserve
	// reduction failed. The transaction stays open for operator reconciliation;
	// the shelf debit is not rolled back.
	ErrPartialFulfilment = errors.New("purchase partially fulfilled: reserve not reduced")

	// ErrNotReturnable means the transaction is not a loan or is already
	// completed.
	ErrNotReturnable = errors.New("transaction is not returnable")

	// ErrInvalidQuantity means a non-positive quantity, or a return exceeding
	// the outstanding amount.
	ErrInvalidQuantity = errors.New("invalid quantity")

	// ErrBookNotFound means the referenced book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ErrTransactionNotFound means the referenced transaction does not exist.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrBusy means the book's mutation lock could not be acquired within the
	// configured wait. Transient; callers may retry with backoff.
	ErrBusy = errors.New("book is busy, try again")

	// ErrStockConflict is the repository-level signal that a count adjustment
	// would drive a counter below zero. The stock ledger translates it into
	// ErrInsufficientStock or ErrInsufficientReserve.
	ErrStockConflict = errors.New("stock counts conflict")
)
