package wallet

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slog"

	"go-fairwheel/internal/lib/logger/sl"
	"go-fairwheel/internal/storage/mysql"
)

// MySQLWallet keeps balances in user_balances and journals every movement
// into balance_entries.
type MySQLWallet struct {
	dbhandler mysql.Handler
	log       *slog.Logger
}

func NewMySQLWallet(dbhandler mysql.Handler, log *slog.Logger) *MySQLWallet {
	return &MySQLWallet{
		dbhandler: dbhandler,
		log:       log,
	}
}

// Debit takes the amount only if the balance covers it. The conditional
// UPDATE is the atomicity boundary; zero affected rows means the funds were
// not there at the moment of the write.
func (w *MySQLWallet) Debit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	const op = "wallet.mysql.Debit"

	const query = "UPDATE user_balances SET balance = balance - ?, updated_at = ? " +
		"WHERE user_id = ? AND balance >= ?"

	now := time.Now()

	res, err := w.dbhandler.PrepareAndExecute(ctx, query, amount, now, userID, amount)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		return ErrInsufficientFunds
	}

	if err = w.journal(ctx, userID, amount, Outcome); err != nil {
		w.log.Error("failed to journal debit", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (w *MySQLWallet) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	const op = "wallet.mysql.Credit"

	const query = "UPDATE user_balances SET balance = balance + ?, updated_at = ? WHERE user_id = ?"

	now := time.Now()

	_, err := w.dbhandler.PrepareAndExecute(ctx, query, amount, now, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err = w.journal(ctx, userID, amount, Income); err != nil {
		w.log.Error("failed to journal credit", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (w *MySQLWallet) Balance(ctx context.Context, userID int64) (decimal.Decimal, error) {
	const op = "wallet.mysql.Balance"

	const query = "SELECT balance FROM user_balances WHERE user_id = ?"

	row, err := w.dbhandler.PrepareAndQueryRow(ctx, query, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	var balance decimal.Decimal

	err = row.Scan(&balance)
	if err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, nil
		}

		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}

	return balance, nil
}

func (w *MySQLWallet) journal(ctx context.Context, userID int64, amount decimal.Decimal, entryType EntryType) error {
	const query = "INSERT INTO balance_entries(user_id, value, type, module, created_at) VALUES(?, ?, ?, ?, ?)"

	_, err := w.dbhandler.PrepareAndExecute(ctx, query, userID, amount, entryType, "wheel", time.Now())

	return err
}
