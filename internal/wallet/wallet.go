package wallet

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrInsufficientFunds is the only sentinel the engine distinguishes; any
// other failure from a Wallet is treated as transient infrastructure.
var ErrInsufficientFunds = errors.New("insufficient funds")

type EntryType string

const (
	Income  EntryType = "income"
	Outcome EntryType = "outcome"
)

// Wallet is the external ledger contract. Debit must be an atomic
// conditional operation: it either reserves the full amount or fails with
// ErrInsufficientFunds, with no partial state. That atomicity is the only
// serialization the bet path relies on for same-user races.
type Wallet interface {
	Debit(ctx context.Context, userID int64, amount decimal.Decimal) error
	Credit(ctx context.Context, userID int64, amount decimal.Decimal) error
	Balance(ctx context.Context, userID int64) (decimal.Decimal, error)
}
