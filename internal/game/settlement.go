package game

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
	"go-fairwheel/internal/wallet"
)

type BetSettleStore interface {
	BetsByRound(ctx context.Context, roundID int64) ([]model.Bet, error)
	SettleBet(ctx context.Context, betID int64, isWinner bool, actualPayout, profit decimal.Decimal) (bool, error)
}

type RoundSettleMarker interface {
	MarkSettled(ctx context.Context, id int64, at time.Time) (bool, error)
}

// Totals aggregates one round's settlement for the completion broadcast.
type Totals struct {
	Bets       int
	Winners    int
	Staked     decimal.Decimal
	PaidOut    decimal.Decimal
	HouseTake  decimal.Decimal
	Unresolved int
}

// Settler pays out a completed round. Every bet is claimed through a
// conditional update before any credit is issued, so re-running a round is
// a no-op for already-settled bets.
type Settler struct {
	log      *slog.Logger
	bets     BetSettleStore
	rounds   RoundSettleMarker
	wallet   wallet.Wallet
	attempts int
}

func NewSettler(
	log *slog.Logger,
	bets BetSettleStore,
	rounds RoundSettleMarker,
	w wallet.Wallet,
	attempts int) *Settler {
	if attempts < 1 {
		attempts = 1
	}

	return &Settler{
		log:      log,
		bets:     bets,
		rounds:   rounds,
		wallet:   w,
		attempts: attempts,
	}
}

// SettleRound settles all admitted bets of a completed round. A non-nil
// error means at least one bet is still unresolved and the round should be
// retried; resolved bets are skipped on the retry.
func (s *Settler) SettleRound(ctx context.Context, round *model.Round, now time.Time) (Totals, error) {
	const op = "game.settlement.SettleRound"

	log := s.log.With(slog.String("op", op), slog.Int64("round_id", round.ID))

	totals := Totals{
		Staked:    decimal.Zero,
		PaidOut:   decimal.Zero,
		HouseTake: decimal.Zero,
	}

	bets, err := s.bets.BetsByRound(ctx, round.ID)
	if err != nil {
		return totals, Transient("failed to load round bets", err)
	}

	for i := range bets {
		bet := &bets[i]

		totals.Bets++
		totals.Staked = totals.Staked.Add(bet.BetAmount)

		if bet.Settled() {
			// Already claimed by an earlier pass.
			if bet.IsWinner != nil && *bet.IsWinner {
				totals.Winners++
				totals.PaidOut = totals.PaidOut.Add(*bet.ActualPayout)
			}

			continue
		}

		if err = s.settleBet(ctx, round, bet, &totals); err != nil {
			log.Error("failed to settle bet", slog.Int64("bet_id", bet.ID), sl.Err(err))

			totals.Unresolved++
		}
	}

	totals.HouseTake = totals.Staked.Sub(totals.PaidOut)

	if totals.Unresolved > 0 {
		return totals, fmt.Errorf("%s: %d bets unresolved", op, totals.Unresolved)
	}

	if _, err = s.rounds.MarkSettled(ctx, round.ID, now); err != nil {
		return totals, Transient("failed to mark round settled", err)
	}

	log.Info("round settled",
		slog.Int("bets", totals.Bets),
		slog.Int("winners", totals.Winners),
		sl.Decimal("staked", totals.Staked),
		sl.Decimal("paid_out", totals.PaidOut))

	return totals, nil
}

func (s *Settler) settleBet(ctx context.Context, round *model.Round, bet *model.Bet, totals *Totals) error {
	const op = "game.settlement.settleBet"

	isWinner := bet.BetColor == round.ResultColor

	var payout, profit decimal.Decimal

	if isWinner {
		payout = bet.BetAmount.Mul(decimal.NewFromInt(config.MultiplierFor(bet.BetColor)))
		profit = payout.Sub(bet.BetAmount)
	} else {
		payout = decimal.Zero
		profit = bet.BetAmount.Neg()
	}

	claimed, err := s.bets.SettleBet(ctx, bet.ID, isWinner, payout, profit)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !claimed {
		// Lost the claim to a concurrent pass; that pass owns the credit.
		return nil
	}

	if isWinner {
		if err = s.creditWithRetry(ctx, bet.UserID, payout); err != nil {
			// The claim is written but the money is not: this must never be
			// silently dropped.
			s.log.Error("CRITICAL: settled bet left uncredited",
				slog.Int64("bet_id", bet.ID),
				slog.Int64("user_id", bet.UserID),
				sl.Decimal("payout", payout),
				sl.Err(err))

			return Integrity("settled bet left uncredited")
		}

		totals.Winners++
		totals.PaidOut = totals.PaidOut.Add(payout)
	}

	return nil
}

func (s *Settler) creditWithRetry(ctx context.Context, userID int64, amount decimal.Decimal) error {
	const op = "game.settlement.creditWithRetry"

	var lastErr error

	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
		}

		if lastErr = s.wallet.Credit(ctx, userID, amount); lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("%s: %w", op, lastErr)
}
