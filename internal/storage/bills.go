package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"billing/internal/core"
	"billing/internal/log"
)

// maxSerialAttempts bounds how many counter values a single create will try
// before giving up with core.ErrDuplicateSerial.
const maxSerialAttempts = 5

const billColumns = `id, serial_number, customer_name, mobile_number, product_size, thickness,
	quantity, order_date, delivery_date, current_status, total_price_cents,
	advance_payment_mode, advance_amount_cents, amount_due_cents, payment_status,
	amount_due_payment_mode, created_at`

// BillFollowUp returns income rows to record alongside a bill write, in the
// same transaction. prev is nil on create.
type BillFollowUp func(prev *core.Bill, next core.Bill) []core.IncomeRecord

// CreateBill allocates a serial number under prefix and inserts b.
func (r *SQLiteRepository) CreateBill(ctx context.Context, prefix string, b core.Bill, followUp BillFollowUp) (core.Bill, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		for attempt := 1; ; attempt++ {
			serial, err := nextSerial(ctx, tx, prefix)
			if err != nil {
				return err
			}
			b.SerialNumber = serial

			id, err := insertBill(ctx, tx, b)
			if isUniqueViolation(err, "bills.serial_number") {
				if attempt >= maxSerialAttempts {
					return core.ErrDuplicateSerial
				}
				counter, err := skipTakenSerials(ctx, tx, prefix)
				if err != nil {
					return err
				}
				slog.WarnContext(ctx, "Serial number already taken, retrying",
					log.FieldSerialNumber, serial,
					"counter", counter,
					"attempt", attempt)
				continue
			}
			if err != nil {
				return storageErr("insert bill", err)
			}
			b.ID = id
			break
		}

		stored, err := getBill(ctx, tx, b.ID)
		if err != nil {
			return err
		}
		b = stored
		if followUp != nil {
			return insertIncomes(ctx, tx, followUp(nil, b))
		}
		return nil
	})
	if err != nil {
		return core.Bill{}, err
	}

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", b.ID,
		log.FieldSerialNumber, b.SerialNumber,
		log.FieldAmountCents, b.AmountDue.Cents)
	return b, nil
}

// UpdateBill replaces the mutable fields of bill id. The stored serial
// number and creation time are kept.
func (r *SQLiteRepository) UpdateBill(ctx context.Context, id int64, b core.Bill, followUp BillFollowUp) (core.Bill, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		prev, err := getBill(ctx, tx, id)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `UPDATE bills SET
			customer_name = ?, mobile_number = ?, product_size = ?, thickness = ?,
			quantity = ?, order_date = ?, delivery_date = ?, current_status = ?,
			total_price_cents = ?, advance_payment_mode = ?, advance_amount_cents = ?,
			amount_due_cents = ?, payment_status = ?, amount_due_payment_mode = ?
			WHERE id = ?`,
			b.CustomerName, b.MobileNumber, b.ProductSize, b.Thickness,
			b.Quantity, b.OrderDate.String(), b.DeliveryDate.String(), b.CurrentStatus,
			b.TotalPrice.Cents, b.AdvancePaymentMode, b.AdvanceAmount.Cents,
			b.AmountDue.Cents, string(b.PaymentStatus), nullableString(b.AmountDuePaymentMode),
			id)
		if err != nil {
			return storageErr("update bill", err)
		}
		if err := affectedOne(res, "update bill"); err != nil {
			return err
		}

		b.ID = id
		b.SerialNumber = prev.SerialNumber
		b.CreatedAt = prev.CreatedAt
		if followUp != nil {
			return insertIncomes(ctx, tx, followUp(&prev, b))
		}
		return nil
	})
	if err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) DeleteBill(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return storageErr("delete bill", err)
	}
	return affectedOne(res, "delete bill")
}

func (r *SQLiteRepository) GetBill(ctx context.Context, id int64) (core.Bill, error) {
	return getBill(ctx, r.db, id)
}

// ListBills returns every bill, most recent order date first.
func (r *SQLiteRepository) ListBills(ctx context.Context) ([]core.Bill, error) {
	return queryBills(ctx, r.db, `SELECT `+billColumns+` FROM bills ORDER BY order_date DESC, id DESC`)
}

// SearchBills matches term case-insensitively against the text fields of a
// bill. Numbers and dates are never matched.
func (r *SQLiteRepository) SearchBills(ctx context.Context, term string) ([]core.Bill, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return r.ListBills(ctx)
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	return queryBills(ctx, r.db, `SELECT `+billColumns+` FROM bills
		WHERE lower(serial_number) LIKE ?1 ESCAPE '\'
		   OR lower(customer_name) LIKE ?1 ESCAPE '\'
		   OR lower(mobile_number) LIKE ?1 ESCAPE '\'
		   OR lower(product_size) LIKE ?1 ESCAPE '\'
		   OR lower(thickness) LIKE ?1 ESCAPE '\'
		   OR lower(current_status) LIKE ?1 ESCAPE '\'
		ORDER BY order_date DESC, id DESC`, pattern)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertBill(ctx context.Context, tx *sql.Tx, b core.Bill) (int64, error) {
	res, err := tx.ExecContext(ctx, `INSERT INTO bills (
			serial_number, customer_name, mobile_number, product_size, thickness,
			quantity, order_date, delivery_date, current_status, total_price_cents,
			advance_payment_mode, advance_amount_cents, amount_due_cents, payment_status,
			amount_due_payment_mode
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.SerialNumber, b.CustomerName, b.MobileNumber, b.ProductSize, b.Thickness,
		b.Quantity, b.OrderDate.String(), b.DeliveryDate.String(), b.CurrentStatus, b.TotalPrice.Cents,
		b.AdvancePaymentMode, b.AdvanceAmount.Cents, b.AmountDue.Cents, string(b.PaymentStatus),
		nullableString(b.AmountDuePaymentMode))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func getBill(ctx context.Context, q querier, id int64) (core.Bill, error) {
	row := q.QueryRowContext(ctx, `SELECT `+billColumns+` FROM bills WHERE id = ?`, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	if err != nil {
		return core.Bill{}, err
	}
	return b, nil
}

func queryBills(ctx context.Context, q querier, query string, args ...any) ([]core.Bill, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query bills", err)
	}
	defer rows.Close()

	bills := []core.Bill{}
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate bills", err)
	}
	return bills, nil
}

func scanBill(s scanner) (core.Bill, error) {
	var (
		b                   core.Bill
		orderDate, delivery string
		status, createdAt   string
		dueMode             sql.NullString
	)
	err := s.Scan(&b.ID, &b.SerialNumber, &b.CustomerName, &b.MobileNumber, &b.ProductSize, &b.Thickness,
		&b.Quantity, &orderDate, &delivery, &b.CurrentStatus, &b.TotalPrice.Cents,
		&b.AdvancePaymentMode, &b.AdvanceAmount.Cents, &b.AmountDue.Cents, &status,
		&dueMode, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, err
	}
	if err != nil {
		return core.Bill{}, storageErr("scan bill", err)
	}
	if b.OrderDate, err = parseStoredDate(orderDate); err != nil {
		return core.Bill{}, fmt.Errorf("bill %d: %w", b.ID, err)
	}
	if b.DeliveryDate, err = parseStoredDate(delivery); err != nil {
		return core.Bill{}, fmt.Errorf("bill %d: %w", b.ID, err)
	}
	b.PaymentStatus = core.PaymentStatus(status)
	b.AmountDuePaymentMode = stringPtr(dueMode)
	b.CreatedAt = parseCreatedAt(createdAt)
	return b, nil
}
