package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"billing/internal/core"
)

const expenseColumns = `id, date, description, amount_cents, quantity, created_at`

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (date, description, amount_cents, quantity) VALUES (?, ?, ?, ?)`,
		e.Date.String(), e.Description, e.Amount.Cents, e.Quantity)
	if err != nil {
		return core.ExpenseRecord{}, storageErr("insert expense", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.ExpenseRecord{}, storageErr("insert expense", err)
	}
	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, id int64, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET date = ?, description = ?, amount_cents = ?, quantity = ? WHERE id = ?`,
		e.Date.String(), e.Description, e.Amount.Cents, e.Quantity, id)
	if err != nil {
		return core.ExpenseRecord{}, storageErr("update expense", err)
	}
	if err := affectedOne(res, "update expense"); err != nil {
		return core.ExpenseRecord{}, err
	}
	return r.GetExpense(ctx, id)
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete expense", err)
	}
	return affectedOne(res, "delete expense")
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.ExpenseRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, core.ErrNotFound
	}
	return e, err
}

// ListExpenses returns every expense, most recent date first.
func (r *SQLiteRepository) ListExpenses(ctx context.Context) ([]core.ExpenseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+expenseColumns+` FROM expenses ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, storageErr("query expenses", err)
	}
	defer rows.Close()

	out := []core.ExpenseRecord{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate expenses", err)
	}
	return out, nil
}

func scanExpense(s scanner) (core.ExpenseRecord, error) {
	var (
		e               core.ExpenseRecord
		date, createdAt string
	)
	err := s.Scan(&e.ID, &date, &e.Description, &e.Amount.Cents, &e.Quantity, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.ExpenseRecord{}, err
	}
	if err != nil {
		return core.ExpenseRecord{}, storageErr("scan expense", err)
	}
	if e.Date, err = parseStoredDate(date); err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("expense %d: %w", e.ID, err)
	}
	e.CreatedAt = parseCreatedAt(createdAt)
	return e, nil
}
