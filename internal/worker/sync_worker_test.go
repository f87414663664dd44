package worker

import (
	"context"
	"errors"
	"testing"

	"billing/internal/amqp"
	"billing/internal/core"
	"billing/internal/export"
	"billing/internal/sheets/memory"

	"github.com/stretchr/testify/require"
)

type stubReader struct {
	bills    []core.Bill
	income   []core.IncomeRecord
	expenses []core.ExpenseRecord
	err      error
}

func (s stubReader) ListBills(context.Context) ([]core.Bill, error) {
	return s.bills, s.err
}

func (s stubReader) ListIncome(context.Context) ([]core.IncomeRecord, error) {
	return s.income, s.err
}

func (s stubReader) ListExpenses(context.Context) ([]core.ExpenseRecord, error) {
	return s.expenses, s.err
}

func TestHandleRecordChangedRewritesCategory(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reader := stubReader{
		income: []core.IncomeRecord{{ID: 4, Date: core.NewDate(2025, 5, 1), Description: "sale", Amount: core.Money{Cents: 1200}}},
	}
	w := NewSyncWorker(reader, store, nil)

	err := w.HandleRecordChanged(ctx, amqp.NewRecordChangedMessage(core.CategoryIncome, amqp.OperationCreate, 4))
	require.NoError(t, err)

	rows, err := store.ReadTable(ctx, "Income")
	require.NoError(t, err)
	require.Equal(t, [][]string{export.IncomeHeader, {"4", "2025-05-01", "sale", "12.00", ""}}, rows)
	require.Zero(t, store.Writes("Bills"))
}

func TestSyncAllWritesEveryTab(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewSyncWorker(stubReader{}, store, Tabs{
		core.CategoryBills:    "B",
		core.CategoryIncome:   "I",
		core.CategoryExpenses: "E",
	})

	require.NoError(t, w.StartupSyncCheck(ctx))
	for _, tab := range []string{"B", "I", "E"} {
		require.Equal(t, 1, store.Writes(tab), tab)
	}
	rows, err := store.ReadTable(ctx, "E")
	require.NoError(t, err)
	require.Equal(t, [][]string{export.ExpenseHeader}, rows)
}

func TestStartupSyncCheckRewritesOnlyStaleTabs(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reader := stubReader{
		income: []core.IncomeRecord{{ID: 4, Date: core.NewDate(2025, 5, 1), Description: "sale", Amount: core.Money{Cents: 1200}}},
	}
	w := NewSyncWorker(reader, store, nil)

	require.NoError(t, w.StartupSyncCheck(ctx))
	require.NoError(t, w.StartupSyncCheck(ctx))
	for _, tab := range []string{"Bills", "Income", "Expenses"} {
		require.Equal(t, 1, store.Writes(tab), tab)
	}

	// A tab read back without its trailing empty cells still matches.
	require.NoError(t, store.ReplaceTable(ctx, "Income", export.IncomeHeader,
		[][]string{{"4", "2025-05-01", "sale", "12.00"}}))
	// An edited tab is put back.
	require.NoError(t, store.ReplaceTable(ctx, "Expenses", export.ExpenseHeader,
		[][]string{{"9", "2025-05-02", "stray", "1", "1.00"}}))

	require.NoError(t, w.StartupSyncCheck(ctx))
	require.Equal(t, 2, store.Writes("Income"))
	require.Equal(t, 3, store.Writes("Expenses"))
	rows, err := store.ReadTable(ctx, "Expenses")
	require.NoError(t, err)
	require.Equal(t, [][]string{export.ExpenseHeader}, rows)
}

func TestSyncErrors(t *testing.T) {
	ctx := context.Background()
	w := NewSyncWorker(stubReader{err: errors.New("db gone")}, memory.New(), nil)

	require.ErrorContains(t, w.SyncCategory(ctx, core.CategoryBills), "db gone")
	require.Error(t, w.SyncAll(ctx))
	require.Error(t, w.SyncCategory(ctx, core.Category("invoices")))
}
