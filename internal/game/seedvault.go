package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/lib/random"
	"go-fairwheel/internal/model"
)

const (
	serverSeedBytes = 32
	lottoDigits     = 10

	rotateAttempts = 3
	rotateBackoff  = 200 * time.Millisecond
)

type SeedStore interface {
	SaveSeed(ctx context.Context, seed model.DailySeed) (int64, error)
	FindSeedByDate(ctx context.Context, date time.Time) (*model.DailySeed, error)
	GetSeedByID(ctx context.Context, id int64) (*model.DailySeed, error)
	MarkRevealed(ctx context.Context, id int64, at time.Time) (bool, error)
	SeedsDueReveal(ctx context.Context, cutoff time.Time) ([]model.DailySeed, error)
}

// SeedVault owns the daily commit material: one active seed per UTC day,
// hashes durable before any round references the seed, raw values disclosed
// only after the reveal window.
type SeedVault struct {
	log         *slog.Logger
	store       SeedStore
	revealAfter time.Duration

	mu     sync.Mutex
	active *model.DailySeed
}

func NewSeedVault(log *slog.Logger, store SeedStore, revealAfter time.Duration) *SeedVault {
	return &SeedVault{
		log:         log,
		store:       store,
		revealAfter: revealAfter,
	}
}

// Active returns the seed for now's UTC day, rotating when the day changed
// or nothing exists yet.
func (v *SeedVault) Active(ctx context.Context, now time.Time) (*model.DailySeed, error) {
	const op = "game.seedvault.Active"

	day := dayOf(now)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.active != nil && v.active.Date.Equal(day) {
		return v.active, nil
	}

	seed, err := v.store.FindSeedByDate(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if seed == nil {
		seed, err = v.rotate(ctx, day, now)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	v.active = seed

	return seed, nil
}

// Rotate forces creation of the seed for now's UTC day.
func (v *SeedVault) Rotate(ctx context.Context, now time.Time) (*model.DailySeed, error) {
	const op = "game.seedvault.Rotate"

	v.mu.Lock()
	defer v.mu.Unlock()

	seed, err := v.rotate(ctx, dayOf(now), now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	v.active = seed

	return seed, nil
}

func (v *SeedVault) rotate(ctx context.Context, day, now time.Time) (*model.DailySeed, error) {
	const op = "game.seedvault.rotate"

	serverSeed, lotto, err := v.generate()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed := model.DailySeed{
		Date:           day,
		ServerSeed:     serverSeed,
		ServerSeedHash: HashHex(serverSeed),
		Lotto:          lotto,
		LottoHash:      HashHex(lotto),
		CreatedAt:      now,
	}

	// Hashes land in storage with the row itself; the commitment exists
	// before any round can reference the seed.
	id, err := v.store.SaveSeed(ctx, seed)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed.ID = id

	v.log.Info("daily seed rotated",
		slog.Int64("seed_id", id),
		slog.String("server_seed_hash", seed.ServerSeedHash),
		slog.String("lotto_hash", seed.LottoHash))

	return &seed, nil
}

// generate retries entropy-source failures with a short backoff; running
// out of attempts is fatal to the caller.
func (v *SeedVault) generate() (string, string, error) {
	const op = "game.seedvault.generate"

	var lastErr error

	for attempt := 0; attempt < rotateAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(rotateBackoff << attempt)
		}

		serverSeed, err := random.NewServerSeed(serverSeedBytes)
		if err != nil {
			lastErr = err

			continue
		}

		lotto, err := random.NewLottoNumber(lottoDigits)
		if err != nil {
			lastErr = err

			continue
		}

		return serverSeed, lotto, nil
	}

	return "", "", fmt.Errorf("%s: entropy source failed: %w", op, lastErr)
}

// Reveal discloses a seed. Calling it twice is a no-op, not an error.
func (v *SeedVault) Reveal(ctx context.Context, seedID int64, now time.Time) error {
	const op = "game.seedvault.Reveal"

	revealed, err := v.store.MarkRevealed(ctx, seedID, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if revealed {
		v.log.Info("daily seed revealed", slog.Int64("seed_id", seedID))
	}

	return nil
}

// RevealDue sweeps seeds whose reveal window has elapsed.
func (v *SeedVault) RevealDue(ctx context.Context, now time.Time) error {
	const op = "game.seedvault.RevealDue"

	seeds, err := v.store.SeedsDueReveal(ctx, now.Add(-v.revealAfter))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	for _, seed := range seeds {
		if err = v.Reveal(ctx, seed.ID, now); err != nil {
			v.log.Error("failed to reveal seed", slog.Int64("seed_id", seed.ID), sl.Err(err))
		}
	}

	return nil
}

func (v *SeedVault) Get(ctx context.Context, seedID int64) (*model.DailySeed, error) {
	const op = "game.seedvault.Get"

	seed, err := v.store.GetSeedByID(ctx, seedID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seed, nil
}

func dayOf(now time.Time) time.Time {
	y, m, d := now.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
