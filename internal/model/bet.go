package model

import (
	"time"

	"github.com/shopspring/decimal"

	"go-fairwheel/internal/config"
)

// Bet is immutable once admitted except for the settlement fields, which
// are written exactly once by the settlement pass.
type Bet struct {
	ID              int64            `json:"id"`
	RoundID         int64            `json:"round_id"`
	UserID          int64            `json:"user_id"`
	BetColor        config.Color     `json:"bet_color"`
	BetAmount       decimal.Decimal  `json:"bet_amount"`
	PotentialPayout decimal.Decimal  `json:"potential_payout"`
	ActualPayout    *decimal.Decimal `json:"actual_payout"`
	IsWinner        *bool            `json:"is_winner"`
	Profit          *decimal.Decimal `json:"profit"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Settled reports whether the settlement fields have been written.
func (b *Bet) Settled() bool {
	return b.IsWinner != nil
}
