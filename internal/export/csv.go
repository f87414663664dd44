// Package export renders record sets as tables. The same rows feed CSV
// downloads and the spreadsheet mirror.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"billing/internal/core"
)

var (
	BillHeader    = []string{"id", "serial_number", "customer_name", "mobile_number", "product_size", "thickness", "quantity", "order_date", "delivery_date", "current_status", "total_price", "advance_payment_mode", "advance_amount", "payment_status", "amount_due_payment_mode", "amount_due"}
	IncomeHeader  = []string{"id", "date", "description", "amount", "payment_mode"}
	ExpenseHeader = []string{"id", "date", "description", "quantity", "amount"}
)

// Table is a header plus rows of cell text.
type Table struct {
	Header []string
	Rows   [][]string
}

func BillsTable(bills []core.Bill) Table {
	rows := make([][]string, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			b.SerialNumber,
			b.CustomerName,
			b.MobileNumber,
			b.ProductSize,
			b.Thickness,
			strconv.Itoa(b.Quantity),
			b.OrderDate.String(),
			b.DeliveryDate.String(),
			b.CurrentStatus,
			b.TotalPrice.String(),
			b.AdvancePaymentMode,
			b.AdvanceAmount.String(),
			string(b.PaymentStatus),
			deref(b.AmountDuePaymentMode),
			b.AmountDue.String(),
		})
	}
	return Table{Header: BillHeader, Rows: rows}
}

func IncomeTable(incomes []core.IncomeRecord) Table {
	rows := make([][]string, 0, len(incomes))
	for _, in := range incomes {
		rows = append(rows, []string{
			strconv.FormatInt(in.ID, 10),
			in.Date.String(),
			in.Description,
			in.Amount.String(),
			deref(in.PaymentMode),
		})
	}
	return Table{Header: IncomeHeader, Rows: rows}
}

func ExpensesTable(expenses []core.ExpenseRecord) Table {
	rows := make([][]string, 0, len(expenses))
	for _, e := range expenses {
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.Date.String(),
			e.Description,
			strconv.Itoa(e.Quantity),
			e.Amount.String(),
		})
	}
	return Table{Header: ExpenseHeader, Rows: rows}
}

// WriteCSV serialises t to w.
func WriteCSV(w io.Writer, t Table) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return err
	}
	if err := writer.WriteAll(t.Rows); err != nil {
		return err
	}
	return writer.Error()
}

func WriteBillsCSV(w io.Writer, bills []core.Bill) error {
	return WriteCSV(w, BillsTable(bills))
}

func WriteIncomeCSV(w io.Writer, incomes []core.IncomeRecord) error {
	return WriteCSV(w, IncomeTable(incomes))
}

func WriteExpensesCSV(w io.Writer, expenses []core.ExpenseRecord) error {
	return WriteCSV(w, ExpensesTable(expenses))
}

// Filename names a download, e.g. bills_20250301_141500.csv.
func Filename(category core.Category, at time.Time) string {
	return fmt.Sprintf("%s_%s.csv", category, at.Format("20060102_150405"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
