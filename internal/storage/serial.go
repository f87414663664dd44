package storage

import (
	"context"
	"database/sql"

	"billing/internal/core"
)

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// nextSerial bumps the persisted counter for prefix and formats the result.
// It runs inside the caller's write transaction, so the counter and the row
// that uses it commit or roll back together. Values are never handed out twice.
func nextSerial(ctx context.Context, tx *sql.Tx, prefix string) (string, error) {
	var n int64
	err := tx.QueryRowContext(ctx, `INSERT INTO serial_counters (prefix, value) VALUES (?, 1)
		ON CONFLICT (prefix) DO UPDATE SET value = value + 1
		RETURNING value`, prefix).Scan(&n)
	if err != nil {
		return "", storageErr("allocate serial number", err)
	}
	return core.FormatSerial(prefix, n), nil
}

// skipTakenSerials moves the counter for prefix past the highest serial
// already stored under it. Rows imported with serials the counter never
// issued would otherwise collide once per value.
func skipTakenSerials(ctx context.Context, tx *sql.Tx, prefix string) (int64, error) {
	rows, err := tx.QueryContext(ctx, `SELECT serial_number FROM bills WHERE serial_number LIKE ? ESCAPE '\'`,
		escapeLike(prefix)+"-%")
	if err != nil {
		return 0, storageErr("scan taken serials", err)
	}
	defer rows.Close()

	var highest int64
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return 0, storageErr("scan taken serials", err)
		}
		p, n, err := core.ParseSerial(s)
		if err != nil || p != prefix {
			continue
		}
		highest = max(highest, n)
	}
	if err := rows.Err(); err != nil {
		return 0, storageErr("scan taken serials", err)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `UPDATE serial_counters SET value = MAX(value, ?) WHERE prefix = ?`,
		highest, prefix); err != nil {
		return 0, storageErr("advance serial counter", err)
	}
	return serialCounter(ctx, tx, prefix)
}

// serialCounter returns the last value handed out for prefix, or 0.
func serialCounter(ctx context.Context, q queryRower, prefix string) (int64, error) {
	var n int64
	err := q.QueryRowContext(ctx, `SELECT value FROM serial_counters WHERE prefix = ?`, prefix).Scan(&n)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, storageErr("read serial counter", err)
	}
	return n, nil
}
