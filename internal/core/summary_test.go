package core

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestOverallStats(t *testing.T) {
	incomes := []IncomeRecord{{Date: NewDate(2025, 1, 5), Amount: Money{Cents: 50000}}}
	expenses := []ExpenseRecord{{Date: NewDate(2025, 1, 6), Amount: Money{Cents: 5000}, Quantity: 2}}
	bills := []Bill{
		{PaymentStatus: PaymentNotPaid, AmountDue: Money{Cents: 3000}},
		{PaymentStatus: PaymentNotPaid, AmountDue: Money{Cents: -1000}},
		{PaymentStatus: PaymentPaid, AmountDue: Money{Cents: 700}},
	}

	s := OverallStats(incomes, expenses, bills)
	require.Equal(t, int64(50000), s.TotalIncome.Cents)
	require.Equal(t, int64(10000), s.TotalExpenses.Cents)
	require.Equal(t, int64(40000), s.NetProfit.Cents)
	require.Equal(t, int64(3000), s.PendingPayments.Cents)

	require.Equal(t, Stats{}, OverallStats(nil, nil, nil))
}

func TestIncomeSummaryByMode(t *testing.T) {
	incomes := []IncomeRecord{
		{Amount: Money{Cents: 100}, PaymentMode: strPtr("CASH")},
		{Amount: Money{Cents: 250}, PaymentMode: strPtr("CASH")},
		{Amount: Money{Cents: 400}, PaymentMode: strPtr("ACCOUNT")},
		{Amount: Money{Cents: 75}},
		{Amount: Money{Cents: 25}, PaymentMode: strPtr(" ")},
	}
	got := IncomeSummaryByMode(incomes)
	require.Equal(t, map[string]Money{
		"CASH":          {Cents: 350},
		"ACCOUNT":       {Cents: 400},
		UnspecifiedMode: {Cents: 100},
	}, got)

	require.Empty(t, IncomeSummaryByMode(nil))
}

func TestMonthlyBreakdown(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	incomes := []IncomeRecord{
		{Date: NewDate(2025, 3, 1), Amount: Money{Cents: 1000}},
		{Date: NewDate(2024, 4, 30), Amount: Money{Cents: 200}},
		{Date: NewDate(2024, 3, 31), Amount: Money{Cents: 999}},
		{Date: NewDate(2025, 4, 1), Amount: Money{Cents: 999}},
	}
	expenses := []ExpenseRecord{
		{Date: NewDate(2025, 1, 10), Amount: Money{Cents: 300}, Quantity: 3},
	}

	got := MonthlyBreakdown(incomes, expenses, now, DefaultStatsWindow)
	require.Len(t, got, 12)
	require.Equal(t, "2024-04", got[0].Month)
	require.Equal(t, "2025-03", got[11].Month)
	require.Equal(t, int64(200), got[0].Income.Cents)
	require.Equal(t, int64(1000), got[11].Income.Cents)
	require.Equal(t, "2025-01", got[9].Month)
	require.Equal(t, int64(900), got[9].Expenses.Cents)

	for i, m := range got {
		if i != 0 && i != 9 && i != 11 {
			require.Zero(t, m.Income.Cents, m.Month)
			require.Zero(t, m.Expenses.Cents, m.Month)
		}
	}
}

func TestMonthlyBreakdownYearBoundary(t *testing.T) {
	got := MonthlyBreakdown(nil, nil, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 3)
	require.Equal(t, []string{"2024-11", "2024-12", "2025-01"},
		[]string{got[0].Month, got[1].Month, got[2].Month})
}

func TestAggregatesSaturateInsteadOfWrapping(t *testing.T) {
	huge := ExpenseRecord{Date: NewDate(2025, 3, 2), Amount: Money{Cents: MaxAmountCents}, Quantity: 100000}
	incomes := []IncomeRecord{
		{Date: NewDate(2025, 3, 1), Amount: Money{Cents: MaxAmountCents}, PaymentMode: strPtr("CASH")},
		{Date: NewDate(2025, 3, 1), Amount: Money{Cents: MaxAmountCents}, PaymentMode: strPtr("CASH")},
	}

	s := OverallStats(incomes, []ExpenseRecord{huge, huge}, nil)
	require.Equal(t, int64(2*MaxAmountCents), s.TotalIncome.Cents)
	require.Equal(t, int64(math.MaxInt64), s.TotalExpenses.Cents)
	require.Equal(t, int64(math.MinInt64), s.NetProfit.Cents)

	got := MonthlyBreakdown(incomes, []ExpenseRecord{huge}, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), 1)
	require.Equal(t, int64(math.MaxInt64), got[0].Expenses.Cents)
	require.Equal(t, int64(2*MaxAmountCents), got[0].Income.Cents)

	many := make([]IncomeRecord, 10)
	for i := range many {
		many[i] = IncomeRecord{Amount: Money{Cents: math.MaxInt64 / 4}, PaymentMode: strPtr("UPI")}
	}
	require.Equal(t, int64(math.MaxInt64), IncomeSummaryByMode(many)["UPI"].Cents)
}
