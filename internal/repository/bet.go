package repository

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"go-fairwheel/internal/model"
	"go-fairwheel/internal/storage/mysql"
)

type BetRepository struct {
	dbhandler mysql.Handler
}

func NewBetRepository(dbhandler mysql.Handler) *BetRepository {
	return &BetRepository{dbhandler: dbhandler}
}

func (repo *BetRepository) SaveBet(ctx context.Context, bet model.Bet) (int64, error) {
	const op = "repository.bet.SaveBet"

	const query = "INSERT INTO bets(round_id, user_id, bet_color, bet_amount, potential_payout, created_at) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	res, err := repo.dbhandler.PrepareAndExecute(ctx, query,
		bet.RoundID,
		bet.UserID,
		bet.BetColor,
		bet.BetAmount,
		bet.PotentialPayout,
		bet.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (repo *BetRepository) BetsByRound(ctx context.Context, roundID int64) ([]model.Bet, error) {
	const op = "repository.bet.BetsByRound"

	const query = "SELECT id, round_id, user_id, bet_color, bet_amount, potential_payout, " +
		"actual_payout, is_winner, profit, created_at FROM bets WHERE round_id = ? ORDER BY id"

	rows, err := repo.dbhandler.PrepareAndQuery(ctx, query, roundID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var bets []model.Bet

	for rows.Next() {
		var bet model.Bet

		if err = rows.Scan(&bet.ID, &bet.RoundID, &bet.UserID, &bet.BetColor, &bet.BetAmount,
			&bet.PotentialPayout, &bet.ActualPayout, &bet.IsWinner, &bet.Profit, &bet.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		bets = append(bets, bet)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return bets, nil
}

// SettleBet writes the settlement fields exactly once. The IS NULL guard is
// what makes a settlement retry a no-op instead of a double pay.
func (repo *BetRepository) SettleBet(ctx context.Context, betID int64, isWinner bool, actualPayout, profit decimal.Decimal) (bool, error) {
	const op = "repository.bet.SettleBet"

	const query = "UPDATE bets SET is_winner = ?, actual_payout = ?, profit = ? WHERE id = ? AND is_winner IS NULL"

	res, err := repo.dbhandler.PrepareAndExecute(ctx, query, isWinner, actualPayout, profit, betID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return affected > 0, nil
}
