package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

type Handler struct {
	Conn *sql.DB
}

func New(conn *sql.DB) *Handler {
	return &Handler{Conn: conn}
}

func (handler *Handler) PrepareAndExecute(ctx context.Context, statement string, args ...interface{}) (sql.Result, error) {
	const op = "storage.mysql.PrepareAndExecute"

	stmt, err := handler.Conn.PrepareContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return result, nil
}

func (handler *Handler) PrepareAndQueryRow(ctx context.Context, statement string, args ...interface{}) (*sql.Row, error) {
	const op = "storage.mysql.PrepareAndQueryRow"

	stmt, err := handler.Conn.PrepareContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	row := stmt.QueryRowContext(ctx, args...)

	return row, nil
}

func (handler *Handler) PrepareAndQuery(ctx context.Context, statement string, args ...interface{}) (*sql.Rows, error) {
	const op = "storage.mysql.PrepareAndQuery"

	stmt, err := handler.Conn.PrepareContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rows, nil
}

func (handler *Handler) StartTransaction(ctx context.Context) (*sql.Tx, error) {
	const op = "storage.mysql.StartTransaction"

	tx, err := handler.Conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tx, nil
}
