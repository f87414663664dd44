package core

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date format used in JSON, storage and exports.
const DateLayout = "2006-01-02"

// PaymentStatus is the settlement state of a bill.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "PAID"
	PaymentNotPaid PaymentStatus = "NOT PAID"
)

// Suggested workflow labels for Bill.CurrentStatus. The field is free text.
const (
	StatusOrdered    = "ORDERED"
	StatusInProgress = "IN PROGRESS"
	StatusDelivered  = "DELIVERED"
)

type (
	Date struct {
		time.Time
	}

	// Bill is a stored customer bill. AmountDue is always derived server side.
	Bill struct {
		ID                   int64         `json:"id"`
		SerialNumber         string        `json:"serial_number"`
		CustomerName         string        `json:"customer_name"`
		MobileNumber         string        `json:"mobile_number"`
		ProductSize          string        `json:"product_size"`
		Thickness            string        `json:"thickness"`
		Quantity             int           `json:"quantity"`
		OrderDate            Date          `json:"order_date"`
		DeliveryDate         Date          `json:"delivery_date"`
		CurrentStatus        string        `json:"current_status"`
		TotalPrice           Money         `json:"total_price"`
		AdvancePaymentMode   string        `json:"advance_payment_mode"`
		AdvanceAmount        Money         `json:"advance_amount"`
		PaymentStatus        PaymentStatus `json:"payment_status"`
		AmountDuePaymentMode *string       `json:"amount_due_payment_mode"`
		AmountDue            Money         `json:"amount_due"`
		CreatedAt            time.Time     `json:"-"`
	}

	IncomeRecord struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Description string    `json:"description"`
		Amount      Money     `json:"amount"`
		PaymentMode *string   `json:"payment_mode"`
		CreatedAt   time.Time `json:"-"`
	}

	ExpenseRecord struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Description string    `json:"description"`
		Quantity    int       `json:"quantity"`
		Amount      Money     `json:"amount"`
		CreatedAt   time.Time `json:"-"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MonthKey returns the YYYY-MM bucket the date belongs to.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParsePaymentStatus accepts PAID and NOT PAID in any case, with
// underscores or spaces between words.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	norm := strings.Join(strings.Fields(strings.ReplaceAll(strings.ToUpper(s), "_", " ")), " ")
	switch PaymentStatus(norm) {
	case PaymentPaid:
		return PaymentPaid, nil
	case PaymentNotPaid:
		return PaymentNotPaid, nil
	}
	return "", ErrInvalidPaymentStatus
}

// Total is the expense amount weighted by quantity, computed exactly.
func (e ExpenseRecord) Total() decimal.Decimal {
	return e.Amount.Decimal().Mul(decimal.NewFromInt(int64(e.Quantity)))
}

// Pending reports the outstanding amount of an unpaid bill. Overpaid or
// settled bills contribute nothing.
func (b Bill) Pending() Money {
	if b.PaymentStatus == PaymentPaid || b.AmountDue.Cents <= 0 {
		return Money{}
	}
	return b.AmountDue
}

// Category names one of the three record sets. It is used in change events
// and as the export and spreadsheet tab key.
type Category string

const (
	CategoryBills    Category = "bills"
	CategoryIncome   Category = "income"
	CategoryExpenses Category = "expenses"
)

// Categories lists every record set in a stable order.
func Categories() []Category {
	return []Category{CategoryBills, CategoryIncome, CategoryExpenses}
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", errors.New("unknown category " + strconv.Quote(s))
}
