package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/model"
)

func greenRound(rounds *fakeRoundStore) *model.Round {
	round := model.Round{
		RoundNumber:      5,
		DailySeedID:      1,
		NonceID:          5,
		Status:           model.StatusCompleted,
		ResultSlot:       0,
		ResultColor:      config.Green,
		ResultMultiplier: 14,
		CreatedAt:        time.Now(),
	}

	id, _ := rounds.SaveRound(context.Background(), round)
	round.ID = id

	return &round
}

func admitBet(bets *fakeBetStore, roundID, userID int64, color config.Color, amount int64) int64 {
	id, _ := bets.SaveBet(context.Background(), model.Bet{
		RoundID:         roundID,
		UserID:          userID,
		BetColor:        color,
		BetAmount:       decimal.NewFromInt(amount),
		PotentialPayout: decimal.NewFromInt(amount * config.MultiplierFor(color)),
		CreatedAt:       time.Now(),
	})

	return id
}

func TestSettleRoundPayouts(t *testing.T) {
	t.Parallel()

	w := newFakeWallet()
	bets := newFakeBetStore()
	rounds := newFakeRoundStore()
	settler := NewSettler(testLogger(), bets, rounds, w, 3)

	round := greenRound(rounds)

	winnerID := admitBet(bets, round.ID, 1, config.Green, 10)
	loserID := admitBet(bets, round.ID, 2, config.Red, 10)

	totals, err := settler.SettleRound(context.Background(), round, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	winner := bets.bets[winnerID]
	if winner.IsWinner == nil || !*winner.IsWinner {
		t.Fatal("green bet on green round must win")
	}
	if !winner.ActualPayout.Equal(decimal.NewFromInt(140)) {
		t.Errorf("unexpected winner payout: %s", winner.ActualPayout)
	}
	if !winner.Profit.Equal(decimal.NewFromInt(130)) {
		t.Errorf("unexpected winner profit: %s", winner.Profit)
	}

	loser := bets.bets[loserID]
	if loser.IsWinner == nil || *loser.IsWinner {
		t.Fatal("red bet on green round must lose")
	}
	if !loser.ActualPayout.Equal(decimal.Zero) {
		t.Errorf("unexpected loser payout: %s", loser.ActualPayout)
	}
	if !loser.Profit.Equal(decimal.NewFromInt(-10)) {
		t.Errorf("unexpected loser profit: %s", loser.Profit)
	}

	if !w.totalCredited().Equal(decimal.NewFromInt(140)) {
		t.Errorf("only winners are credited, total credited: %s", w.totalCredited())
	}

	if totals.Winners != 1 || totals.Bets != 2 {
		t.Errorf("unexpected totals: %+v", totals)
	}
	if !totals.HouseTake.Equal(decimal.NewFromInt(-120)) {
		t.Errorf("unexpected house take: %s", totals.HouseTake)
	}
}

func TestSettleRoundIdempotent(t *testing.T) {
	t.Parallel()

	w := newFakeWallet()
	bets := newFakeBetStore()
	rounds := newFakeRoundStore()
	settler := NewSettler(testLogger(), bets, rounds, w, 3)

	round := greenRound(rounds)

	admitBet(bets, round.ID, 1, config.Green, 10)
	admitBet(bets, round.ID, 2, config.Black, 25)

	if _, err := settler.SettleRound(context.Background(), round, time.Now()); err != nil {
		t.Fatalf("first pass failed: %v", err)
	}

	creditedOnce := w.totalCredited()

	if _, err := settler.SettleRound(context.Background(), round, time.Now()); err != nil {
		t.Fatalf("second pass failed: %v", err)
	}

	if !w.totalCredited().Equal(creditedOnce) {
		t.Errorf("re-running settlement must not issue more credits: %s vs %s",
			creditedOnce, w.totalCredited())
	}

	stored, _ := rounds.GetRoundByID(context.Background(), round.ID)
	if stored.SettledAt == nil {
		t.Error("round must be marked settled")
	}
}

func TestSettleRoundRetryAfterFailure(t *testing.T) {
	t.Parallel()

	w := newFakeWallet()
	bets := newFakeBetStore()
	rounds := newFakeRoundStore()
	settler := NewSettler(testLogger(), bets, rounds, w, 3)

	round := greenRound(rounds)

	admitBet(bets, round.ID, 1, config.Green, 10)

	bets.settleErr = errors.New("storage down")

	if _, err := settler.SettleRound(context.Background(), round, time.Now()); err == nil {
		t.Fatal("pass with failing storage must report an error")
	}

	if len(w.credits) != 0 {
		t.Fatal("no credits may be issued before the claim is written")
	}

	bets.settleErr = nil

	totals, err := settler.SettleRound(context.Background(), round, time.Now())
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}

	if totals.Winners != 1 {
		t.Errorf("retry must settle the remaining bet, totals: %+v", totals)
	}

	if !w.totalCredited().Equal(decimal.NewFromInt(140)) {
		t.Errorf("unexpected credit total after retry: %s", w.totalCredited())
	}
}

func TestSettlementConservesValue(t *testing.T) {
	t.Parallel()

	w := newFakeWallet()
	bets := newFakeBetStore()
	rounds := newFakeRoundStore()
	settler := NewSettler(testLogger(), bets, rounds, w, 3)

	round := greenRound(rounds)

	stakes := []struct {
		userID int64
		color  config.Color
		amount int64
	}{
		{userID: 1, color: config.Green, amount: 10},
		{userID: 2, color: config.Red, amount: 40},
		{userID: 3, color: config.Black, amount: 25},
		{userID: 4, color: config.Green, amount: 5},
	}

	staked := decimal.Zero

	for _, s := range stakes {
		w.SetBalance(s.userID, decimal.NewFromInt(1000))

		if err := w.Debit(context.Background(), s.userID, decimal.NewFromInt(s.amount)); err != nil {
			t.Fatalf("debit failed: %v", err)
		}

		admitBet(bets, round.ID, s.userID, s.color, s.amount)
		staked = staked.Add(decimal.NewFromInt(s.amount))
	}

	totals, err := settler.SettleRound(context.Background(), round, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// sum(debits) == sum(credits) + house take
	if !staked.Equal(w.totalCredited().Add(totals.HouseTake)) {
		t.Errorf("value not conserved: staked %s, credited %s, house %s",
			staked, w.totalCredited(), totals.HouseTake)
	}
}
