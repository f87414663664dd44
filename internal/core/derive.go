package core

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// BillInput is the raw client payload for a bill create or update.
// Required fields are declared first, in the order they are checked.
// Client supplied serial numbers and amount due are never read.
type BillInput struct {
	CustomerName       string `json:"customer_name" validate:"required"`
	OrderDate          string `json:"order_date" validate:"required"`
	DeliveryDate       string `json:"delivery_date" validate:"required"`
	TotalPrice         string `json:"total_price" validate:"required"`
	AdvancePaymentMode string `json:"advance_payment_mode" validate:"required"`
	PaymentStatus      string `json:"payment_status" validate:"required"`
	ProductSize        string `json:"product_size" validate:"required"`
	Thickness          string `json:"thickness" validate:"required"`

	MobileNumber         string `json:"mobile_number"`
	Quantity             string `json:"quantity"`
	CurrentStatus        string `json:"current_status"`
	AdvanceAmount        string `json:"advance_amount"`
	AmountDuePaymentMode string `json:"amount_due_payment_mode"`
}

type IncomeInput struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	PaymentMode string `json:"payment_mode"`
}

type ExpenseInput struct {
	Date        string `json:"date" validate:"required"`
	Description string `json:"description" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Quantity    string `json:"quantity"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// checkRequired returns a FieldError for the first blank required field.
// Callers pass inputs whose strings are already trimmed.
func checkRequired(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldErr(verrs[0].Field(), ErrMissingField)
	}
	return err
}

// DeriveBill validates a bill payload and computes its derived fields.
// The returned Bill has no ID or serial number; those belong to storage.
func DeriveBill(in BillInput) (Bill, error) {
	in = in.trimmed()
	if err := checkRequired(in); err != nil {
		return Bill{}, err
	}

	price, err := ParseMoney(in.TotalPrice, false)
	if err != nil {
		return Bill{}, fieldErr("total_price", ErrInvalidNumber)
	}
	advance := Money{}
	if in.AdvanceAmount != "" {
		if advance, err = ParseMoney(in.AdvanceAmount, false); err != nil {
			return Bill{}, fieldErr("advance_amount", ErrInvalidNumber)
		}
	}
	qty, err := parseQuantity(in.Quantity)
	if err != nil {
		return Bill{}, fieldErr("quantity", err)
	}

	orderDate, err := ParseDate(in.OrderDate)
	if err != nil {
		return Bill{}, fieldErr("order_date", err)
	}
	deliveryDate, err := ParseDate(in.DeliveryDate)
	if err != nil {
		return Bill{}, fieldErr("delivery_date", err)
	}
	status, err := ParsePaymentStatus(in.PaymentStatus)
	if err != nil {
		return Bill{}, fieldErr("payment_status", err)
	}

	due, err := MoneyFromDecimal(price.Decimal().Mul(decimal.NewFromInt(int64(qty))).Sub(advance.Decimal()))
	if err != nil {
		return Bill{}, fieldErr("total_price", ErrInvalidNumber)
	}

	var dueMode *string
	if status == PaymentPaid && due.Cents > 0 {
		if in.AmountDuePaymentMode == "" {
			return Bill{}, ErrMissingPaymentMode
		}
		mode := in.AmountDuePaymentMode
		dueMode = &mode
	}

	return Bill{
		CustomerName:         in.CustomerName,
		MobileNumber:         in.MobileNumber,
		ProductSize:          in.ProductSize,
		Thickness:            in.Thickness,
		Quantity:             qty,
		OrderDate:            orderDate,
		DeliveryDate:         deliveryDate,
		CurrentStatus:        in.CurrentStatus,
		TotalPrice:           price,
		AdvancePaymentMode:   in.AdvancePaymentMode,
		AdvanceAmount:        advance,
		PaymentStatus:        status,
		AmountDuePaymentMode: dueMode,
		AmountDue:            due,
	}, nil
}

// BuildIncome validates an income payload. Amounts may be negative.
func BuildIncome(in IncomeInput) (IncomeRecord, error) {
	in = IncomeInput{
		Date:        strings.TrimSpace(in.Date),
		Description: strings.TrimSpace(in.Description),
		Amount:      strings.TrimSpace(in.Amount),
		PaymentMode: strings.TrimSpace(in.PaymentMode),
	}
	if err := checkRequired(in); err != nil {
		return IncomeRecord{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return IncomeRecord{}, fieldErr("date", err)
	}
	amount, err := ParseMoney(in.Amount, true)
	if err != nil {
		return IncomeRecord{}, fieldErr("amount", ErrInvalidNumber)
	}
	rec := IncomeRecord{Date: date, Description: in.Description, Amount: amount}
	if in.PaymentMode != "" {
		mode := in.PaymentMode
		rec.PaymentMode = &mode
	}
	return rec, nil
}

// BuildExpense validates an expense payload.
func BuildExpense(in ExpenseInput) (ExpenseRecord, error) {
	in = ExpenseInput{
		Date:        strings.TrimSpace(in.Date),
		Description: strings.TrimSpace(in.Description),
		Amount:      strings.TrimSpace(in.Amount),
		Quantity:    strings.TrimSpace(in.Quantity),
	}
	if err := checkRequired(in); err != nil {
		return ExpenseRecord{}, err
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return ExpenseRecord{}, fieldErr("date", err)
	}
	amount, err := ParseMoney(in.Amount, false)
	if err != nil {
		return ExpenseRecord{}, fieldErr("amount", ErrInvalidNumber)
	}
	qty, err := parseQuantity(in.Quantity)
	if err != nil {
		return ExpenseRecord{}, fieldErr("quantity", err)
	}
	if _, err := MoneyFromDecimal(amount.Decimal().Mul(decimal.NewFromInt(int64(qty)))); err != nil {
		return ExpenseRecord{}, fieldErr("quantity", ErrInvalidNumber)
	}
	return ExpenseRecord{Date: date, Description: in.Description, Amount: amount, Quantity: qty}, nil
}

// parseQuantity defaults a blank quantity to 1. Whole-valued decimals such
// as "2.0" are accepted since JSON clients often send floats.
func parseQuantity(s string) (int, error) {
	if s == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		d, derr := decimal.NewFromString(s)
		if derr != nil || !d.Equal(d.Truncate(0)) || !d.BigInt().IsInt64() {
			return 0, ErrInvalidNumber
		}
		n = int(d.IntPart())
	}
	if n < 1 {
		return 0, ErrInvalidNumber
	}
	return n, nil
}

func (in BillInput) trimmed() BillInput {
	return BillInput{
		CustomerName:         strings.TrimSpace(in.CustomerName),
		OrderDate:            strings.TrimSpace(in.OrderDate),
		DeliveryDate:         strings.TrimSpace(in.DeliveryDate),
		TotalPrice:           strings.TrimSpace(in.TotalPrice),
		AdvancePaymentMode:   strings.TrimSpace(in.AdvancePaymentMode),
		PaymentStatus:        strings.TrimSpace(in.PaymentStatus),
		ProductSize:          strings.TrimSpace(in.ProductSize),
		Thickness:            strings.TrimSpace(in.Thickness),
		MobileNumber:         strings.TrimSpace(in.MobileNumber),
		Quantity:             strings.TrimSpace(in.Quantity),
		CurrentStatus:        strings.TrimSpace(in.CurrentStatus),
		AdvanceAmount:        strings.TrimSpace(in.AdvanceAmount),
		AmountDuePaymentMode: strings.TrimSpace(in.AmountDuePaymentMode),
	}
}
