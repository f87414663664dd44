package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnspecifiedMode groups income without a payment mode.
const UnspecifiedMode = "UNSPECIFIED"

// DefaultStatsWindow is the number of trailing months in the breakdown.
const DefaultStatsWindow = 12

// Stats is the overall financial position over every stored record.
type Stats struct {
	TotalIncome     Money `json:"total_income"`
	TotalExpenses   Money `json:"total_expenses"`
	NetProfit       Money `json:"net_profit"`
	PendingPayments Money `json:"pending_payments"`
}

// MonthlyTotal is one YYYY-MM bucket of the monthly breakdown.
type MonthlyTotal struct {
	Month    string `json:"month"`
	Income   Money  `json:"income"`
	Expenses Money  `json:"expenses"`
}

// IncomeSummaryByMode sums income per payment mode. Only modes present in
// the input appear as keys.
func IncomeSummaryByMode(incomes []IncomeRecord) map[string]Money {
	sums := make(map[string]decimal.Decimal)
	for _, in := range incomes {
		mode := UnspecifiedMode
		if in.PaymentMode != nil && strings.TrimSpace(*in.PaymentMode) != "" {
			mode = *in.PaymentMode
		}
		sums[mode] = sums[mode].Add(in.Amount.Decimal())
	}
	out := make(map[string]Money, len(sums))
	for mode, d := range sums {
		out[mode] = moneyFromTotal(d)
	}
	return out
}

// OverallStats computes totals, net profit and pending bill payments. Sums
// run in decimal and are converted once.
func OverallStats(incomes []IncomeRecord, expenses []ExpenseRecord, bills []Bill) Stats {
	var income, spent, pending decimal.Decimal
	for _, in := range incomes {
		income = income.Add(in.Amount.Decimal())
	}
	for _, e := range expenses {
		spent = spent.Add(e.Total())
	}
	for _, b := range bills {
		pending = pending.Add(b.Pending().Decimal())
	}
	return Stats{
		TotalIncome:     moneyFromTotal(income),
		TotalExpenses:   moneyFromTotal(spent),
		NetProfit:       moneyFromTotal(income.Sub(spent)),
		PendingPayments: moneyFromTotal(pending),
	}
}

// MonthlyBreakdown buckets income and expenses into the trailing window of
// calendar months ending with the month of now, oldest first. Empty months
// are present with zero totals; records outside the window are ignored.
func MonthlyBreakdown(incomes []IncomeRecord, expenses []ExpenseRecord, now time.Time, months int) []MonthlyTotal {
	if months <= 0 {
		return []MonthlyTotal{}
	}
	out := make([]MonthlyTotal, months)
	income := make([]decimal.Decimal, months)
	spent := make([]decimal.Decimal, months)
	index := make(map[string]int, months)
	first := time.Date(now.Year(), now.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)
	for i := range out {
		key := first.AddDate(0, i, 0).Format("2006-01")
		out[i].Month = key
		index[key] = i
	}
	for _, in := range incomes {
		if i, ok := index[in.Date.MonthKey()]; ok {
			income[i] = income[i].Add(in.Amount.Decimal())
		}
	}
	for _, e := range expenses {
		if i, ok := index[e.Date.MonthKey()]; ok {
			spent[i] = spent[i].Add(e.Total())
		}
	}
	for i := range out {
		out[i].Income = moneyFromTotal(income[i])
		out[i].Expenses = moneyFromTotal(spent[i])
	}
	return out
}
