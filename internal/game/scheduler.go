package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/config"
	"go-fairwheel/internal/job"
	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/model"
)

const (
	revealSweepInterval = time.Minute
	settleSweepInterval = 30 * time.Second
	settleSweepLimit    = 20
)

type RoundStore interface {
	SaveRound(ctx context.Context, round model.Round) (int64, error)
	GetRoundByID(ctx context.Context, id int64) (*model.Round, error)
	LastRoundNumber(ctx context.Context) (int64, error)
	LastNonceForSeed(ctx context.Context, seedID int64) (int64, error)
	MarkSpinning(ctx context.Context, id int64, spinningEnd time.Time) error
	MarkCompleted(ctx context.Context, id int64) error
	UnsettledRounds(ctx context.Context, limit int) ([]int64, error)
}

// SequencedBroadcaster is what the scheduler needs from the transport:
// ordered per-round sends plus counter cleanup once a round is fully done.
type SequencedBroadcaster interface {
	RoundBroadcaster
	DropRound(roundID int64)
}

// RoundSnapshot is the phase-redacted public view of the current round.
// Result fields stay nil while betting is open; the hashes are always
// visible so the commitment can be checked at any time.
type RoundSnapshot struct {
	UUID             uuid.UUID         `json:"uuid"`
	RoundNumber      int64             `json:"round_number"`
	Status           model.RoundStatus `json:"status"`
	BettingEndTime   time.Time         `json:"betting_end_time"`
	SpinningEndTime  *time.Time        `json:"spinning_end_time,omitempty"`
	ServerSeedHash   string            `json:"server_seed_hash"`
	LottoHash        string            `json:"lotto_hash"`
	ResultSlot       *int              `json:"result_slot,omitempty"`
	ResultColor      *config.Color     `json:"result_color,omitempty"`
	ResultMultiplier *int64            `json:"result_multiplier,omitempty"`
	ReelPosition     *float64          `json:"reel_position,omitempty"`
}

// Scheduler is the single authoritative writer of round state. One instance
// per wheel; transitions are driven by the tick clock, never by requests.
type Scheduler struct {
	log       *slog.Logger
	rounds    RoundStore
	vault     *SeedVault
	ledger    *Ledger
	settler   *Settler
	broadcast SequencedBroadcaster
	jobs      job.Queue
	cfg       config.Game
	clock     func() time.Time

	mu          sync.RWMutex
	current     *model.Round
	currentSeed *model.DailySeed

	nextRevealSweep time.Time
	nextSettleSweep time.Time
}

func NewScheduler(
	log *slog.Logger,
	rounds RoundStore,
	vault *SeedVault,
	ledger *Ledger,
	settler *Settler,
	broadcast SequencedBroadcaster,
	jobs job.Queue,
	cfg config.Game) *Scheduler {
	return &Scheduler{
		log:       log,
		rounds:    rounds,
		vault:     vault,
		ledger:    ledger,
		settler:   settler,
		broadcast: broadcast,
		jobs:      jobs,
		cfg:       cfg,
		clock:     time.Now,
	}
}

// Run drives the wheel until the context is cancelled. It returns an error
// only on fatal conditions: a round that cannot be created must never be
// silently skipped.
func (s *Scheduler) Run(ctx context.Context) error {
	const op = "game.scheduler.Run"

	if _, err := s.createRound(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.tick(ctx); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}
	}
}

// tick evaluates due transitions. Transient failures leave the state
// untouched and are retried on the next tick; only round creation failures
// are fatal.
func (s *Scheduler) tick(ctx context.Context) error {
	now := s.clock()

	s.sweepReveals(ctx, now)
	s.sweepSettlements(ctx, now)

	s.mu.RLock()
	round := s.current
	s.mu.RUnlock()

	if round == nil {
		_, err := s.createRound(ctx)

		return err
	}

	switch round.Status {
	case model.StatusBetting:
		if !now.Before(round.BettingEndTime) {
			s.toSpinning(ctx, round, now)
		}
	case model.StatusSpinning:
		if round.SpinningEndTime != nil && !now.Before(*round.SpinningEndTime) {
			if err := s.toCompleted(ctx, round, now); err != nil {
				return err
			}
		}
	}

	return nil
}

// createRound builds the next round with its outcome already committed:
// seed, nonce, result and reel position are all persisted before the round
// is exposed as betting.
func (s *Scheduler) createRound(ctx context.Context) (*model.Round, error) {
	const op = "game.scheduler.createRound"

	now := s.clock()

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	seed, err := s.vault.Active(callCtx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lastNumber, err := s.rounds.LastRoundNumber(callCtx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	nonce, err := s.rounds.LastNonceForSeed(callCtx, seed.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	roundNumber := lastNumber + 1

	outcome, err := Resolve(seed.ServerSeed, seed.Lotto, roundNumber)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	round := model.Round{
		UUID:             uuid.New(),
		RoundNumber:      roundNumber,
		DailySeedID:      seed.ID,
		NonceID:          nonce + 1,
		Status:           model.StatusBetting,
		BettingEndTime:   now.Add(s.cfg.BettingDuration),
		ResultSlot:       outcome.Slot.SlotNumber,
		ResultColor:      outcome.Slot.Color,
		ResultMultiplier: outcome.Slot.Multiplier,
		ReelPosition:     ReelPosition(outcome.Position),
		CreatedAt:        now,
	}

	// round_number carries a unique index; a concurrent writer or a replayed
	// insert surfaces here instead of corrupting the sequence.
	id, err := s.rounds.SaveRound(callCtx, round)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	round.ID = id

	s.mu.Lock()
	s.current = &round
	s.currentSeed = seed
	s.mu.Unlock()

	s.log.Info("round created",
		slog.Int64("round_id", id),
		slog.Int64("round_number", roundNumber),
		slog.Int64("nonce_id", round.NonceID))

	if err = s.broadcast.TriggerRound(id, WheelChannel, "round.betting", map[string]interface{}{
		"uuid":             round.UUID.String(),
		"round_number":     roundNumber,
		"betting_end_time": round.BettingEndTime,
		"server_seed_hash": seed.ServerSeedHash,
		"lotto_hash":       seed.LottoHash,
	}); err != nil {
		s.log.Error("failed to broadcast new round", sl.Err(err))
	}

	return &round, nil
}

// toSpinning closes bet admission and discloses the committed result so
// clients can start animating. On persistence failure the transition is
// simply retried on the next tick.
func (s *Scheduler) toSpinning(ctx context.Context, round *model.Round, now time.Time) {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	spinningEnd := now.Add(s.cfg.SpinDuration)

	if err := s.rounds.MarkSpinning(callCtx, round.ID, spinningEnd); err != nil {
		s.log.Error("failed to mark round spinning", sl.Err(err))

		return
	}

	s.mu.Lock()
	round.Status = model.StatusSpinning
	round.SpinningEndTime = &spinningEnd
	s.mu.Unlock()

	if err := s.broadcast.TriggerRound(round.ID, WheelChannel, "round.spinning", map[string]interface{}{
		"uuid":              round.UUID.String(),
		"round_number":      round.RoundNumber,
		"spinning_end_time": spinningEnd,
		"result_slot":       round.ResultSlot,
		"result_color":      string(round.ResultColor),
		"result_multiplier": round.ResultMultiplier,
		"reel_position":     round.ReelPosition,
	}); err != nil {
		s.log.Error("failed to broadcast spinning", sl.Err(err))
	}
}

// toCompleted finishes the round, hands settlement to the job queue and
// immediately creates the next round. Settlement never blocks cadence.
func (s *Scheduler) toCompleted(ctx context.Context, round *model.Round, now time.Time) error {
	const op = "game.scheduler.toCompleted"

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	if err := s.rounds.MarkCompleted(callCtx, round.ID); err != nil {
		s.log.Error("failed to mark round completed", sl.Err(err))

		return nil
	}

	s.mu.Lock()
	round.Status = model.StatusCompleted
	s.mu.Unlock()

	// The completed broadcast goes out before the settlement job exists,
	// so round.settled can never overtake it on the wire.
	if err := s.broadcast.TriggerRound(round.ID, WheelChannel, "round.completed", map[string]interface{}{
		"uuid":         round.UUID.String(),
		"round_number": round.RoundNumber,
		"result_slot":  round.ResultSlot,
		"result_color": string(round.ResultColor),
	}); err != nil {
		s.log.Error("failed to broadcast completed", sl.Err(err))
	}

	s.jobs.Dispatch(&settleRoundJob{scheduler: s, roundID: round.ID, attempt: 1}, 0)

	s.ledger.DropRound(round.ID)

	if _, err := s.createRound(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Scheduler) sweepReveals(ctx context.Context, now time.Time) {
	if now.Before(s.nextRevealSweep) {
		return
	}

	s.nextRevealSweep = now.Add(revealSweepInterval)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	if err := s.vault.RevealDue(callCtx, now); err != nil {
		s.log.Error("seed reveal sweep failed", sl.Err(err))
	}
}

// sweepSettlements re-dispatches settlement for completed rounds whose
// settled_at never got written, covering a crash between MarkCompleted and
// the last settlement pass. Re-running an already-claimed bet is a no-op,
// so overlapping with an in-flight job is harmless.
func (s *Scheduler) sweepSettlements(ctx context.Context, now time.Time) {
	if now.Before(s.nextSettleSweep) {
		return
	}

	s.nextSettleSweep = now.Add(settleSweepInterval)

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	roundIDs, err := s.rounds.UnsettledRounds(callCtx, settleSweepLimit)
	if err != nil {
		s.log.Error("settlement sweep failed", sl.Err(err))

		return
	}

	for _, roundID := range roundIDs {
		s.log.Warn("re-dispatching settlement for unsettled round", slog.Int64("round_id", roundID))

		s.jobs.Dispatch(&settleRoundJob{scheduler: s, roundID: roundID, attempt: 1}, 0)
	}
}

// Current returns a copy of the round in play, result included. Callers
// that serialize it to clients must go through Snapshot instead.
func (s *Scheduler) Current() *model.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}

	round := *s.current

	return &round
}

// Snapshot returns the current round with result fields withheld while
// betting is still open.
func (s *Scheduler) Snapshot() *RoundSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		return nil
	}

	round := s.current

	snapshot := &RoundSnapshot{
		UUID:            round.UUID,
		RoundNumber:     round.RoundNumber,
		Status:          round.Status,
		BettingEndTime:  round.BettingEndTime,
		SpinningEndTime: round.SpinningEndTime,
	}

	if s.currentSeed != nil {
		snapshot.ServerSeedHash = s.currentSeed.ServerSeedHash
		snapshot.LottoHash = s.currentSeed.LottoHash
	}

	if round.Status != model.StatusBetting {
		slot := round.ResultSlot
		color := round.ResultColor
		multiplier := round.ResultMultiplier
		reel := round.ReelPosition

		snapshot.ResultSlot = &slot
		snapshot.ResultColor = &color
		snapshot.ResultMultiplier = &multiplier
		snapshot.ReelPosition = &reel
	}

	return snapshot
}

type settleRoundJob struct {
	scheduler *Scheduler
	roundID   int64
	attempt   int
}

// Execute runs one settlement pass. Failed passes are re-dispatched with a
// growing delay up to the configured attempt budget; every retry skips
// bets the previous pass already claimed.
func (j *settleRoundJob) Execute() {
	s := j.scheduler

	log := s.log.With(slog.Int64("round_id", j.roundID), slog.Int("attempt", j.attempt))

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
	defer cancel()

	round, err := s.rounds.GetRoundByID(ctx, j.roundID)
	if err != nil || round == nil {
		log.Error("failed to load round for settlement", sl.Err(err))

		j.retry()

		return
	}

	settleCtx, settleCancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout*10)
	defer settleCancel()

	totals, err := s.settler.SettleRound(settleCtx, round, s.clock())
	if err != nil {
		log.Error("settlement pass failed", sl.Err(err))

		j.retry()

		return
	}

	if err = s.broadcast.TriggerRound(j.roundID, WheelChannel, "round.settled", map[string]interface{}{
		"round_number": round.RoundNumber,
		"bets":         totals.Bets,
		"winners":      totals.Winners,
		"staked":       totals.Staked.String(),
		"paid_out":     totals.PaidOut.String(),
	}); err != nil {
		log.Error("failed to broadcast settlement", sl.Err(err))
	}

	// round.settled is the last message a round ever emits; release its
	// sequence counter.
	s.broadcast.DropRound(j.roundID)
}

func (j *settleRoundJob) retry() {
	s := j.scheduler

	if j.attempt >= s.cfg.SettleAttempts {
		s.log.Error("CRITICAL: settlement attempts exhausted",
			slog.Int64("round_id", j.roundID),
			slog.Int("attempts", j.attempt))

		s.broadcast.DropRound(j.roundID)

		return
	}

	s.jobs.Dispatch(&settleRoundJob{
		scheduler: s,
		roundID:   j.roundID,
		attempt:   j.attempt + 1,
	}, time.Duration(j.attempt)*time.Second)
}
