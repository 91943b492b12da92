package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"go-fairwheel/internal/model"
	"go-fairwheel/internal/wallet"
)

type walletOp struct {
	userID int64
	amount decimal.Decimal
}

type fakeWallet struct {
	mu        sync.Mutex
	balances  map[int64]decimal.Decimal
	debitErr  error
	creditErr error
	debits    []walletOp
	credits   []walletOp
}

func newFakeWallet() *fakeWallet {
	return &fakeWallet{balances: make(map[int64]decimal.Decimal)}
}

func (w *fakeWallet) SetBalance(userID int64, amount decimal.Decimal) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.balances[userID] = amount
}

func (w *fakeWallet) Debit(_ context.Context, userID int64, amount decimal.Decimal) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debitErr != nil {
		return w.debitErr
	}

	balance := w.balances[userID]
	if balance.LessThan(amount) {
		return wallet.ErrInsufficientFunds
	}

	w.balances[userID] = balance.Sub(amount)
	w.debits = append(w.debits, walletOp{userID: userID, amount: amount})

	return nil
}

func (w *fakeWallet) Credit(_ context.Context, userID int64, amount decimal.Decimal) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.creditErr != nil {
		return w.creditErr
	}

	w.balances[userID] = w.balances[userID].Add(amount)
	w.credits = append(w.credits, walletOp{userID: userID, amount: amount})

	return nil
}

func (w *fakeWallet) Balance(_ context.Context, userID int64) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.balances[userID], nil
}

func (w *fakeWallet) totalCredited() decimal.Decimal {
	w.mu.Lock()
	defer w.mu.Unlock()

	total := decimal.Zero
	for _, op := range w.credits {
		total = total.Add(op.amount)
	}

	return total
}

type fakeBetStore struct {
	mu        sync.Mutex
	nextID    int64
	bets      map[int64]*model.Bet
	saveErr   error
	settleErr error
}

func newFakeBetStore() *fakeBetStore {
	return &fakeBetStore{bets: make(map[int64]*model.Bet)}
}

func (s *fakeBetStore) SaveBet(_ context.Context, bet model.Bet) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return 0, s.saveErr
	}

	s.nextID++
	bet.ID = s.nextID
	s.bets[bet.ID] = &bet

	return bet.ID, nil
}

func (s *fakeBetStore) BetsByRound(_ context.Context, roundID int64) ([]model.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var bets []model.Bet
	for _, bet := range s.bets {
		if bet.RoundID == roundID {
			bets = append(bets, *bet)
		}
	}

	sort.Slice(bets, func(i, j int) bool { return bets[i].ID < bets[j].ID })

	return bets, nil
}

func (s *fakeBetStore) SettleBet(_ context.Context, betID int64, isWinner bool, actualPayout, profit decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settleErr != nil {
		return false, s.settleErr
	}

	bet, ok := s.bets[betID]
	if !ok {
		return false, fmt.Errorf("bet %d not found", betID)
	}

	if bet.IsWinner != nil {
		return false, nil
	}

	bet.IsWinner = &isWinner
	bet.ActualPayout = &actualPayout
	bet.Profit = &profit

	return true, nil
}

type fakeRoundStore struct {
	mu     sync.Mutex
	nextID int64
	rounds map[int64]*model.Round
}

func newFakeRoundStore() *fakeRoundStore {
	return &fakeRoundStore{rounds: make(map[int64]*model.Round)}
}

func (s *fakeRoundStore) SaveRound(_ context.Context, round model.Round) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.rounds {
		if existing.RoundNumber == round.RoundNumber {
			return 0, fmt.Errorf("duplicate round number %d", round.RoundNumber)
		}
	}

	s.nextID++
	round.ID = s.nextID
	s.rounds[round.ID] = &round

	return round.ID, nil
}

func (s *fakeRoundStore) GetRoundByID(_ context.Context, id int64) (*model.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round, ok := s.rounds[id]
	if !ok {
		return nil, nil
	}

	copied := *round

	return &copied, nil
}

func (s *fakeRoundStore) LastRoundNumber(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last int64
	for _, round := range s.rounds {
		if round.RoundNumber > last {
			last = round.RoundNumber
		}
	}

	return last, nil
}

func (s *fakeRoundStore) LastNonceForSeed(_ context.Context, seedID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var last int64
	for _, round := range s.rounds {
		if round.DailySeedID == seedID && round.NonceID > last {
			last = round.NonceID
		}
	}

	return last, nil
}

func (s *fakeRoundStore) UnsettledRounds(_ context.Context, limit int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64
	for _, round := range s.rounds {
		if round.Status == model.StatusCompleted && round.SettledAt == nil {
			ids = append(ids, round.ID)
		}
	}

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	if len(ids) > limit {
		ids = ids[:limit]
	}

	return ids, nil
}

func (s *fakeRoundStore) MarkSpinning(_ context.Context, id int64, spinningEnd time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.rounds[id]
	round.Status = model.StatusSpinning
	round.SpinningEndTime = &spinningEnd

	return nil
}

func (s *fakeRoundStore) MarkCompleted(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rounds[id].Status = model.StatusCompleted

	return nil
}

func (s *fakeRoundStore) MarkSettled(_ context.Context, id int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	round := s.rounds[id]
	if round.SettledAt != nil {
		return false, nil
	}

	round.SettledAt = &at

	return true, nil
}

type fakeSeedStore struct {
	mu     sync.Mutex
	nextID int64
	seeds  map[int64]*model.DailySeed
}

func newFakeSeedStore() *fakeSeedStore {
	return &fakeSeedStore{seeds: make(map[int64]*model.DailySeed)}
}

func (s *fakeSeedStore) SaveSeed(_ context.Context, seed model.DailySeed) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	seed.ID = s.nextID
	s.seeds[seed.ID] = &seed

	return seed.ID, nil
}

func (s *fakeSeedStore) FindSeedByDate(_ context.Context, date time.Time) (*model.DailySeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, seed := range s.seeds {
		if seed.Date.Equal(date) {
			copied := *seed

			return &copied, nil
		}
	}

	return nil, nil
}

func (s *fakeSeedStore) GetSeedByID(_ context.Context, id int64) (*model.DailySeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed, ok := s.seeds[id]
	if !ok {
		return nil, nil
	}

	copied := *seed

	return &copied, nil
}

func (s *fakeSeedStore) MarkRevealed(_ context.Context, id int64, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seed, ok := s.seeds[id]
	if !ok || seed.RevealedAt != nil {
		return false, nil
	}

	seed.RevealedAt = &at

	return true, nil
}

func (s *fakeSeedStore) SeedsDueReveal(_ context.Context, cutoff time.Time) ([]model.DailySeed, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var due []model.DailySeed
	for _, seed := range s.seeds {
		if seed.RevealedAt == nil && !seed.CreatedAt.After(cutoff) {
			due = append(due, *seed)
		}
	}

	return due, nil
}

type broadcastRecord struct {
	roundID   int64
	eventName string
	data      map[string]interface{}
}

type fakeBroadcast struct {
	mu      sync.Mutex
	events  []broadcastRecord
	dropped []int64
}

func (b *fakeBroadcast) TriggerRound(roundID int64, _ string, eventName string, data map[string]interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, broadcastRecord{roundID: roundID, eventName: eventName, data: data})

	return nil
}

func (b *fakeBroadcast) DropRound(roundID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.dropped = append(b.dropped, roundID)
}

func (b *fakeBroadcast) byEvent(eventName string) []broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()

	var matched []broadcastRecord
	for _, record := range b.events {
		if record.eventName == eventName {
			matched = append(matched, record)
		}
	}

	return matched
}
