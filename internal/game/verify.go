package game

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/exp/slog"

	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
)

// VerificationResult is what an auditor gets for a round. Before the
// owning seed is revealed only the hashes are present and Revealed is
// false; no speculative values are ever filled in.
type VerificationResult struct {
	RoundNumber    int64  `json:"round_number"`
	NonceID        int64  `json:"nonce_id"`
	Revealed       bool   `json:"revealed"`
	ServerSeedHash string `json:"server_seed_hash"`
	LottoHash      string `json:"lotto_hash"`
	ServerSeed     string `json:"server_seed,omitempty"`
	Lotto          string `json:"lotto,omitempty"`
	ComputedSlot   *int   `json:"computed_slot,omitempty"`
	StoredSlot     *int   `json:"stored_slot,omitempty"`
	Matches        *bool  `json:"matches,omitempty"`
}

type Verifier struct {
	log   *slog.Logger
	vault *SeedVault
}

func NewVerifier(log *slog.Logger, vault *SeedVault) *Verifier {
	return &Verifier{
		log:   log,
		vault: vault,
	}
}

// Verify recomputes a round's outcome through the exact resolver the
// scheduler used. A mismatch is a critical integrity alarm and is never
// reported as a pass.
func (v *Verifier) Verify(ctx context.Context, round *model.Round, now time.Time) (*VerificationResult, error) {
	const op = "game.verify.Verify"

	seed, err := v.vault.Get(ctx, round.DailySeedID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seed == nil {
		return nil, fmt.Errorf("%s: seed %d not found", op, round.DailySeedID)
	}

	result := &VerificationResult{
		RoundNumber:    round.RoundNumber,
		NonceID:        round.NonceID,
		ServerSeedHash: seed.ServerSeedHash,
		LottoHash:      seed.LottoHash,
	}

	if !seed.Revealed(now) {
		return result, nil
	}

	outcome, err := Resolve(seed.ServerSeed, seed.Lotto, round.RoundNumber)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	computed := outcome.Slot.SlotNumber
	stored := round.ResultSlot
	matches := computed == stored

	result.Revealed = true
	result.ServerSeed = seed.ServerSeed
	result.Lotto = seed.Lotto
	result.ComputedSlot = &computed
	result.StoredSlot = &stored
	result.Matches = &matches

	if !matches {
		v.log.Error("CRITICAL: verification mismatch",
			slog.Int64("round_number", round.RoundNumber),
			slog.Int("stored_slot", stored),
			slog.Int("computed_slot", computed),
			sl.String("server_seed_hash", seed.ServerSeedHash))
	}

	return result, nil
}
