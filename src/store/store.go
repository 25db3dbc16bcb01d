package store

import "errors"

// Sentinel errors shared by the stores. Handlers map these onto HTTP statuses.
var (
	ErrPortfolioNotFound      = errors.New("portfolio not found")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrDuplicatePortfolioCode = errors.New("portfolio code already exists")
	ErrInvalidTransactionType = errors.New("invalid transaction type")
	ErrMissingFields          = errors.New("missing required fields")
)
