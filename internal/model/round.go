package model

import (
	"time"

	"github.com/google/uuid"

	"go-fairwheel/internal/config"
)

type RoundStatus string

const (
	StatusBetting   RoundStatus = "betting"
	StatusSpinning  RoundStatus = "spinning"
	StatusCompleted RoundStatus = "completed"
)

// Round is one wheel cycle. The result fields are written once at creation
// and never mutate; only Status and the phase timers move afterwards.
type Round struct {
	ID               int64        `json:"id"`
	UUID             uuid.UUID    `json:"uuid"`
	RoundNumber      int64        `json:"round_number"`
	DailySeedID      int64        `json:"daily_seed_id"`
	NonceID          int64        `json:"nonce_id"`
	Status           RoundStatus  `json:"status"`
	BettingEndTime   time.Time    `json:"betting_end_time"`
	SpinningEndTime  *time.Time   `json:"spinning_end_time"`
	ResultSlot       int          `json:"result_slot"`
	ResultColor      config.Color `json:"result_color"`
	ResultMultiplier int64        `json:"result_multiplier"`
	ReelPosition     float64      `json:"reel_position"`
	SettledAt        *time.Time   `json:"settled_at"`
	CreatedAt        time.Time    `json:"created_at"`
}

// RoundSummary is the public history row, one per round number.
type RoundSummary struct {
	RoundNumber      int64        `json:"round_number"`
	ResultSlot       int          `json:"result_slot"`
	ResultColor      config.Color `json:"result_color"`
	ResultMultiplier int64        `json:"result_multiplier"`
	CreatedAt        time.Time    `json:"created_at"`
}
