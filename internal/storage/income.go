package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"billing/internal/core"
)

const incomeColumns = `id, date, description, amount_cents, payment_mode, created_at`

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.IncomeRecord) (core.IncomeRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO income (date, description, amount_cents, payment_mode) VALUES (?, ?, ?, ?)`,
		in.Date.String(), in.Description, in.Amount.Cents, nullableString(in.PaymentMode))
	if err != nil {
		return core.IncomeRecord{}, storageErr("insert income", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.IncomeRecord{}, storageErr("insert income", err)
	}
	return r.GetIncome(ctx, id)
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, id int64, in core.IncomeRecord) (core.IncomeRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE income SET date = ?, description = ?, amount_cents = ?, payment_mode = ? WHERE id = ?`,
		in.Date.String(), in.Description, in.Amount.Cents, nullableString(in.PaymentMode), id)
	if err != nil {
		return core.IncomeRecord{}, storageErr("update income", err)
	}
	if err := affectedOne(res, "update income"); err != nil {
		return core.IncomeRecord{}, err
	}
	return r.GetIncome(ctx, id)
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM income WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete income", err)
	}
	return affectedOne(res, "delete income")
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, id int64) (core.IncomeRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+incomeColumns+` FROM income WHERE id = ?`, id)
	in, err := scanIncome(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomeRecord{}, core.ErrNotFound
	}
	return in, err
}

// ListIncome returns every income row, most recent date first.
func (r *SQLiteRepository) ListIncome(ctx context.Context) ([]core.IncomeRecord, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+incomeColumns+` FROM income ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, storageErr("query income", err)
	}
	defer rows.Close()

	out := []core.IncomeRecord{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate income", err)
	}
	return out, nil
}

func insertIncomes(ctx context.Context, tx *sql.Tx, records []core.IncomeRecord) error {
	for _, in := range records {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO income (date, description, amount_cents, payment_mode) VALUES (?, ?, ?, ?)`,
			in.Date.String(), in.Description, in.Amount.Cents, nullableString(in.PaymentMode))
		if err != nil {
			return storageErr("insert income", err)
		}
	}
	return nil
}

func scanIncome(s scanner) (core.IncomeRecord, error) {
	var (
		in              core.IncomeRecord
		date, createdAt string
		mode            sql.NullString
	)
	err := s.Scan(&in.ID, &date, &in.Description, &in.Amount.Cents, &mode, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.IncomeRecord{}, err
	}
	if err != nil {
		return core.IncomeRecord{}, storageErr("scan income", err)
	}
	if in.Date, err = parseStoredDate(date); err != nil {
		return core.IncomeRecord{}, fmt.Errorf("income %d: %w", in.ID, err)
	}
	in.PaymentMode = stringPtr(mode)
	in.CreatedAt = parseCreatedAt(createdAt)
	return in, nil
}
