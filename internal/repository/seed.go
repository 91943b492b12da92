package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go-fairwheel/internal/model"
	"go-fairwheel/internal/storage/mysql"
)

type SeedRepository struct {
	dbhandler mysql.Handler
}

func NewSeedRepository(dbhandler mysql.Handler) *SeedRepository {
	return &SeedRepository{dbhandler: dbhandler}
}

// SaveSeed persists the seed together with its hashes in one insert, so the
// commitment exists in durable storage before any round can reference it.
func (repo *SeedRepository) SaveSeed(ctx context.Context, seed model.DailySeed) (int64, error) {
	const op = "repository.seed.SaveSeed"

	const query = "INSERT INTO daily_seeds(date, server_seed, server_seed_hash, lotto, lotto_hash, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	res, err := repo.dbhandler.PrepareAndExecute(ctx, query,
		seed.Date.Format("2006-01-02"),
		seed.ServerSeed,
		seed.ServerSeedHash,
		seed.Lotto,
		seed.LottoHash,
		seed.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *SeedRepository) FindSeedByDate(ctx context.Context, date time.Time) (*model.DailySeed, error) {
	const op = "repository.seed.FindSeedByDate"

	const query = "SELECT id, date, server_seed, server_seed_hash, lotto, lotto_hash, revealed_at, created_at " +
		"FROM daily_seeds WHERE date = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx, query, date.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scanSeed(row)
}

func (repo *SeedRepository) GetSeedByID(ctx context.Context, id int64) (*model.DailySeed, error) {
	const op = "repository.seed.GetSeedByID"

	const query = "SELECT id, date, server_seed, server_seed_hash, lotto, lotto_hash, revealed_at, created_at " +
		"FROM daily_seeds WHERE id = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scanSeed(row)
}

// MarkRevealed sets revealed_at once; a second call matches no rows and is
// reported as already revealed, not as an error.
func (repo *SeedRepository) MarkRevealed(ctx context.Context, id int64, at time.Time) (bool, error) {
	const op = "repository.seed.MarkRevealed"

	const query = "UPDATE daily_seeds SET revealed_at = ? WHERE id = ? AND revealed_at IS NULL"

	res, err := repo.dbhandler.PrepareAndExecute(ctx, query, at, id)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return affected > 0, nil
}

// SeedsDueReveal lists unrevealed seeds created at or before the cutoff.
func (repo *SeedRepository) SeedsDueReveal(ctx context.Context, cutoff time.Time) ([]model.DailySeed, error) {
	const op = "repository.seed.SeedsDueReveal"

	const query = "SELECT id, date, server_seed, server_seed_hash, lotto, lotto_hash, revealed_at, created_at " +
		"FROM daily_seeds WHERE revealed_at IS NULL AND created_at <= ?"

	rows, err := repo.dbhandler.PrepareAndQuery(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var seeds []model.DailySeed

	for rows.Next() {
		var (
			seed    model.DailySeed
			dateStr string
		)

		if err = rows.Scan(&seed.ID, &dateStr, &seed.ServerSeed, &seed.ServerSeedHash,
			&seed.Lotto, &seed.LottoHash, &seed.RevealedAt, &seed.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		seed.Date, _ = time.Parse("2006-01-02", dateStr)

		seeds = append(seeds, seed)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return seeds, nil
}

func scanSeed(row *sql.Row) (*model.DailySeed, error) {
	const op = "repository.seed.scanSeed"

	var (
		seed    model.DailySeed
		dateStr string
	)

	err := row.Scan(&seed.ID, &dateStr, &seed.ServerSeed, &seed.ServerSeedHash,
		&seed.Lotto, &seed.LottoHash, &seed.RevealedAt, &seed.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	seed.Date, _ = time.Parse("2006-01-02", dateStr)

	return &seed, nil
}
