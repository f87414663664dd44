package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"billing/internal/core"
)

const maxBodyBytes = 1 << 20

// errBadBody marks a body that is neither JSON nor form data.
var errBadBody = errors.New("malformed request body")

// RequestBodyParser reads a JSON or form-encoded body once and serves its
// fields as strings. JSON numbers are rendered without exponent.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the request body, capped at 1 MiB.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		p.err = fmt.Errorf("%w: %w", errBadBody, p.err)
		return p.err
	}

	body := strings.TrimSpace(string(p.body))
	if body == "" {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(strings.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = fmt.Errorf("%w: %w", errBadBody, err)
		}
		return p.err
	}

	p.formData, p.err = url.ParseQuery(body)
	if p.err != nil {
		p.err = fmt.Errorf("%w: %w", errBadBody, p.err)
	}
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// BillInput maps the body onto a bill payload. serial_number and amount_due
// are never read.
func (p *RequestBodyParser) BillInput() core.BillInput {
	return core.BillInput{
		CustomerName:         p.Get("customer_name"),
		OrderDate:            p.Get("order_date"),
		DeliveryDate:         p.Get("delivery_date"),
		TotalPrice:           p.Get("total_price"),
		AdvancePaymentMode:   p.Get("advance_payment_mode"),
		PaymentStatus:        p.Get("payment_status"),
		ProductSize:          p.Get("product_size"),
		Thickness:            p.Get("thickness"),
		MobileNumber:         p.Get("mobile_number"),
		Quantity:             p.Get("quantity"),
		CurrentStatus:        p.Get("current_status"),
		AdvanceAmount:        p.Get("advance_amount"),
		AmountDuePaymentMode: p.Get("amount_due_payment_mode"),
	}
}

func (p *RequestBodyParser) IncomeInput() core.IncomeInput {
	return core.IncomeInput{
		Date:        p.Get("date"),
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		PaymentMode: p.Get("payment_mode"),
	}
}

func (p *RequestBodyParser) ExpenseInput() core.ExpenseInput {
	return core.ExpenseInput{
		Date:        p.Get("date"),
		Description: p.Get("description"),
		Amount:      p.Get("amount"),
		Quantity:    p.Get("quantity"),
	}
}

// parseBody reads and parses the request body, answering 400 on failure.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		writeMessage(w, http.StatusBadRequest, false, "Invalid request body")
		return nil, false
	}
	return p, true
}
