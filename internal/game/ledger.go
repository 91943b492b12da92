package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
	"go-fairwheel/internal/wallet"
)

// WheelChannel is the broadcast channel all round and bet events go to.
const WheelChannel = "wheel"

type BetSaver interface {
	SaveBet(ctx context.Context, bet model.Bet) (int64, error)
}

type RoundBroadcaster interface {
	TriggerRound(roundID int64, channel, eventName string, data map[string]interface{}) error
}

type userRoundCounter struct {
	count   int
	total   decimal.Decimal
	lastBet time.Time
}

// Ledger admits bets during the betting phase. Limit counters live in a
// keyed map per (round, user) and are dropped when the round is archived;
// the wallet's conditional debit is the only cross-user atomicity boundary.
type Ledger struct {
	log       *slog.Logger
	bets      BetSaver
	wallet    wallet.Wallet
	broadcast RoundBroadcaster
	cfg       config.Game

	mu       sync.Mutex
	counters map[int64]map[int64]*userRoundCounter
	stakes   map[int64]map[config.Color]decimal.Decimal
}

func NewLedger(
	log *slog.Logger,
	bets BetSaver,
	w wallet.Wallet,
	broadcast RoundBroadcaster,
	cfg config.Game) *Ledger {
	return &Ledger{
		log:       log,
		bets:      bets,
		wallet:    w,
		broadcast: broadcast,
		cfg:       cfg,
		counters:  make(map[int64]map[int64]*userRoundCounter),
		stakes:    make(map[int64]map[config.Color]decimal.Decimal),
	}
}

// PlaceBet runs the admission checks in their fixed order, each with its
// own rejection reason, and only then touches the wallet. The wallet debit
// is the authoritative balance check; nothing earlier reads the balance.
func (l *Ledger) PlaceBet(
	ctx context.Context,
	userID int64,
	round *model.Round,
	color config.Color,
	amount decimal.Decimal,
	now time.Time) (*model.Bet, error) {
	const op = "game.ledger.PlaceBet"

	log := l.log.With(slog.String("op", op), slog.Int64("user_id", userID))

	if round == nil {
		return nil, StateConflict("round not found")
	}

	if round.Status != model.StatusBetting || !now.Before(round.BettingEndTime) {
		return nil, StateConflict("betting window is closed")
	}

	if !color.Valid() {
		return nil, Validation("unknown bet color")
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, Validation("bet amount must be positive")
	}

	if amount.LessThan(l.cfg.MinBetAmount()) || amount.GreaterThan(l.cfg.MaxBetAmount()) {
		return nil, Validation(fmt.Sprintf("bet amount must be between %s and %s", l.cfg.MinBet, l.cfg.MaxBet))
	}

	if err := l.reserve(round.ID, userID, amount, now); err != nil {
		return nil, err
	}

	if err := l.wallet.Debit(ctx, userID, amount); err != nil {
		l.release(round.ID, userID, amount)

		if errors.Is(err, wallet.ErrInsufficientFunds) {
			return nil, InsufficientFunds("balance does not cover the bet")
		}

		log.Error("wallet debit failed", sl.Err(err))

		return nil, Transient("wallet debit failed", err)
	}

	bet := model.Bet{
		RoundID:         round.ID,
		UserID:          userID,
		BetColor:        color,
		BetAmount:       amount,
		PotentialPayout: amount.Mul(decimal.NewFromInt(config.MultiplierFor(color))),
		CreatedAt:       now,
	}

	id, err := l.bets.SaveBet(ctx, bet)
	if err != nil {
		// The debit went through; hand the money back before failing.
		l.release(round.ID, userID, amount)

		if creditErr := l.wallet.Credit(ctx, userID, amount); creditErr != nil {
			log.Error("failed to refund after save failure", sl.Err(creditErr))
		}

		log.Error("failed to save bet", sl.Err(err))

		return nil, Transient("failed to persist bet", err)
	}

	bet.ID = id

	l.recordStake(round.ID, color, amount)

	if err = l.broadcast.TriggerRound(round.ID, WheelChannel, "bet.placed", map[string]interface{}{
		"round_id":     round.ID,
		"user_id":      userID,
		"bet_color":    string(color),
		"bet_amount":   amount.String(),
		"distribution": l.Distribution(round.ID),
	}); err != nil {
		log.Error("failed to broadcast bet", sl.Err(err))
	}

	return &bet, nil
}

// reserve applies the per-user limits and optimistically claims the slot.
// Serialized under one mutex so N concurrent calls cannot oversubscribe.
func (l *Ledger) reserve(roundID, userID int64, amount decimal.Decimal, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, ok := l.counters[roundID]
	if !ok {
		users = make(map[int64]*userRoundCounter)
		l.counters[roundID] = users
	}

	counter, ok := users[userID]
	if !ok {
		counter = &userRoundCounter{total: decimal.Zero}
		users[userID] = counter
	}

	if !counter.lastBet.IsZero() && now.Sub(counter.lastBet) < l.cfg.MinBetInterval {
		return RateLimit("bets are too frequent")
	}

	if counter.count >= l.cfg.MaxBetsPerRound {
		return RateLimit("bet count limit reached for this round")
	}

	if counter.total.Add(amount).GreaterThan(l.cfg.MaxTotalPerRoundAmount()) {
		return RateLimit("stake limit reached for this round")
	}

	counter.count++
	counter.total = counter.total.Add(amount)
	counter.lastBet = now

	return nil
}

// release undoes a reservation after a failed debit or save. The rate-limit
// timestamp stays: the attempt still counts against frequency.
func (l *Ledger) release(roundID, userID int64, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	users, ok := l.counters[roundID]
	if !ok {
		return
	}

	counter, ok := users[userID]
	if !ok {
		return
	}

	counter.count--
	counter.total = counter.total.Sub(amount)
}

func (l *Ledger) recordStake(roundID int64, color config.Color, amount decimal.Decimal) {
	l.mu.Lock()
	defer l.mu.Unlock()

	stakes, ok := l.stakes[roundID]
	if !ok {
		stakes = make(map[config.Color]decimal.Decimal)
		l.stakes[roundID] = stakes
	}

	stakes[color] = stakes[color].Add(amount)
}

// Distribution returns the percentage of total stake per color.
func (l *Ledger) Distribution(roundID int64) map[string]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	dist := make(map[string]string, 3)

	stakes, ok := l.stakes[roundID]
	if !ok {
		return dist
	}

	total := decimal.Zero
	for _, amount := range stakes {
		total = total.Add(amount)
	}

	if total.IsZero() {
		return dist
	}

	hundred := decimal.NewFromInt(100)
	for color, amount := range stakes {
		dist[string(color)] = amount.Div(total).Mul(hundred).Round(2).String()
	}

	return dist
}

// DropRound garbage-collects the counters once a round is archived.
func (l *Ledger) DropRound(roundID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.counters, roundID)
	delete(l.stakes, roundID)
}
