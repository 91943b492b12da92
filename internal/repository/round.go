package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go-fairwheel/internal/model"
	"go-fairwheel/internal/storage/mysql"
)

type RoundRepository struct {
	dbhandler mysql.Handler
}

func NewRoundRepository(dbhandler mysql.Handler) *RoundRepository {
	return &RoundRepository{dbhandler: dbhandler}
}

const roundColumns = "id, uuid, round_number, daily_seed_id, nonce_id, status, betting_end_time, " +
	"spinning_end_time, result_slot, result_color, result_multiplier, reel_position, settled_at, created_at"

// SaveRound persists the full round row, result fields included. The result
// is part of the insert: there is no later write path for it.
func (repo *RoundRepository) SaveRound(ctx context.Context, round model.Round) (int64, error) {
	const op = "repository.round.SaveRound"

	const query = "INSERT INTO rounds(uuid, round_number, daily_seed_id, nonce_id, status, betting_end_time, " +
		"result_slot, result_color, result_multiplier, reel_position, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

	res, err := repo.dbhandler.PrepareAndExecute(ctx, query,
		round.UUID.String(),
		round.RoundNumber,
		round.DailySeedID,
		round.NonceID,
		round.Status,
		round.BettingEndTime,
		round.ResultSlot,
		round.ResultColor,
		round.ResultMultiplier,
		round.ReelPosition,
		round.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *RoundRepository) GetRoundByID(ctx context.Context, id int64) (*model.Round, error) {
	const op = "repository.round.GetRoundByID"

	const query = "SELECT " + roundColumns + " FROM rounds WHERE id = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scanRound(row)
}

func (repo *RoundRepository) FindRoundByUUID(ctx context.Context, uuidStr string) (*model.Round, error) {
	const op = "repository.round.FindRoundByUUID"

	const query = "SELECT " + roundColumns + " FROM rounds WHERE uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx, query, uuidStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return scanRound(row)
}

func (repo *RoundRepository) LastRoundNumber(ctx context.Context) (int64, error) {
	const op = "repository.round.LastRoundNumber"

	const query = "SELECT round_number FROM rounds ORDER BY round_number DESC LIMIT 1"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var number int64

	err = row.Scan(&number)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return number, nil
}

// LastNonceForSeed returns the highest nonce_id issued under a daily seed.
func (repo *RoundRepository) LastNonceForSeed(ctx context.Context, seedID int64) (int64, error) {
	const op = "repository.round.LastNonceForSeed"

	const query = "SELECT COALESCE(MAX(nonce_id), 0) FROM rounds WHERE daily_seed_id = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(ctx, query, seedID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var nonce int64

	if err = row.Scan(&nonce); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return nonce, nil
}

func (repo *RoundRepository) MarkSpinning(ctx context.Context, id int64, spinningEnd time.Time) error {
	const op = "repository.round.MarkSpinning"

	const query = "UPDATE rounds SET status = ?, spinning_end_time = ? WHERE id = ? AND status = ?"

	_, err := repo.dbhandler.PrepareAndExecute(ctx, query, model.StatusSpinning, spinningEnd, id, model.StatusBetting)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (repo *RoundRepository) MarkCompleted(ctx context.Context, id int64) error {
	const op = "repository.round.MarkCompleted"

	const query = "UPDATE rounds SET status = ? WHERE id = ? AND status = ?"

	_, err := repo.dbhandler.PrepareAndExecute(ctx, query, model.StatusCompleted, id, model.StatusSpinning)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// MarkSettled flips the settlement flag once; false means another pass
// already claimed the round.
func (repo *RoundRepository) MarkSettled(ctx context.Context, id int64, at time.Time) (bool, error) {
	const op = "repository.round.MarkSettled"

	const query = "UPDATE rounds SET settled_at = ? WHERE id = ? AND settled_at IS NULL"

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

// UnsettledRounds returns completed rounds whose settlement never finished,
// oldest first, so a recovery pass can pick them up.
func (repo *RoundRepository) UnsettledRounds(ctx context.Context, limit int) ([]int64, error) {
	const op = "repository.round.UnsettledRounds"

	const query = "SELECT id FROM rounds WHERE status = ? AND settled_at IS NULL ORDER BY id LIMIT ?"

	rows, err := repo.dbhandler.PrepareAndQuery(ctx, query, model.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64

		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}

// RecentResults returns completed-round summaries, newest first, one row per
// round number.
func (repo *RoundRepository) RecentResults(ctx context.Context, limit int) ([]model.RoundSummary, error) {
	const op = "repository.round.RecentResults"

	const query = "SELECT round_number, result_slot, result_color, result_multiplier, created_at " +
		"FROM rounds WHERE status = ? GROUP BY round_number, result_slot, result_color, result_multiplier, created_at " +
		"ORDER BY round_number DESC LIMIT ?"

	rows, err := repo.dbhandler.PrepareAndQuery(ctx, query, model.StatusCompleted, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var summaries []model.RoundSummary

	for rows.Next() {
		var s model.RoundSummary

		if err = rows.Scan(&s.RoundNumber, &s.ResultSlot, &s.ResultColor, &s.ResultMultiplier, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		summaries = append(summaries, s)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return summaries, nil
}

func scanRound(row *sql.Row) (*model.Round, error) {
	const op = "repository.round.scanRound"

	var (
		round   model.Round
		uuidStr string
	)

	err := row.Scan(&round.ID, &uuidStr, &round.RoundNumber, &round.DailySeedID, &round.NonceID,
		&round.Status, &round.BettingEndTime, &round.SpinningEndTime, &round.ResultSlot,
		&round.ResultColor, &round.ResultMultiplier, &round.ReelPosition, &round.SettledAt, &round.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	round.UUID, err = uuid.Parse(uuidStr)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &round, nil
}
