package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/log"
	"billing/internal/services"
	"billing/internal/storage"
)

var fixedNow = func() time.Time { return time.Date(2025, 6, 20, 14, 15, 0, 0, time.UTC) }

func newTestServer(t *testing.T, mutate func(*Options)) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "billing.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := Services{
		Bills:    services.NewBillService(repo, nil, services.BillOptions{RecordPayments: true, Now: fixedNow}),
		Income:   services.NewIncomeService(repo, nil),
		Expenses: services.NewExpenseService(repo, nil),
		Stats:    services.NewStatsService(repo, fixedNow),
	}
	opts := Options{
		PaymentModes:       []string{"CASH", "ACCOUNT", "UPI", "CARD"},
		RateLimitPerMinute: 1000,
		Ready:              repo.Ping,
		Logger:             log.New(log.Config{Output: io.Discard}),
		Now:                fixedNow,
	}
	if mutate != nil {
		mutate(&opts)
	}
	srv, err := NewServer(":0", svc, opts)
	require.NoError(t, err)
	return srv
}

func do(t *testing.T, srv *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, srv *Server, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return do(t, srv, method, path, "application/json", string(b))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func billPayload(name string) map[string]any {
	return map[string]any{
		"customer_name":        name,
		"mobile_number":        "9876543210",
		"order_date":           "2025-06-01",
		"delivery_date":        "2025-06-05",
		"total_price":          100,
		"quantity":             "1",
		"advance_amount":       40,
		"advance_payment_mode": "CASH",
		"payment_status":       "NOT PAID",
		"product_size":         "A3",
		"thickness":            "2mm",
		"current_status":       "ORDERED",
	}
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	down := newTestServer(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("db gone") }
	})
	assert.Equal(t, http.StatusServiceUnavailable, do(t, down, http.MethodGet, "/readyz", "", "").Code)
}

func TestBillLifecycle(t *testing.T) {
	srv := newTestServer(t, nil)

	payload := billPayload("Asha")
	payload["serial_number"] = "HACKED-1"
	payload["amount_due"] = 1
	rec := doJSON(t, srv, http.MethodPost, "/api/bills", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decode[struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Bill    map[string]any `json:"bill"`
	}](t, rec)
	require.True(t, created.Success)
	assert.Equal(t, "BILL-000001", created.Bill["serial_number"])
	assert.InDelta(t, 60.0, created.Bill["amount_due"], 0.001)
	assert.Equal(t, "2025-06-01", created.Bill["order_date"])
	_, hasCreatedAt := created.Bill["created_at"]
	assert.False(t, hasCreatedAt)
	id := int64(created.Bill["id"].(float64))
	path := "/api/bills/" + formatID(id)

	rec = do(t, srv, http.MethodGet, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	update := billPayload("Asha")
	update["payment_status"] = "paid"
	update["amount_due_payment_mode"] = "UPI"
	rec = doJSON(t, srv, http.MethodPut, path, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[struct {
		Bill map[string]any `json:"bill"`
	}](t, rec)
	assert.Equal(t, "BILL-000001", updated.Bill["serial_number"])
	assert.Equal(t, "PAID", updated.Bill["payment_status"])

	rec = do(t, srv, http.MethodGet, "/api/income", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	incomes := decode[[]map[string]any](t, rec)
	require.Len(t, incomes, 2)
	assert.Equal(t, "Final payment from Asha (SN: BILL-000001)", incomes[0]["description"])
	assert.InDelta(t, 60.0, incomes[0]["amount"], 0.001)
	assert.Equal(t, "Advance from Asha (SN: BILL-000001)", incomes[1]["description"])

	rec = do(t, srv, http.MethodDelete, path, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, path, "", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodDelete, path, "", "").Code)

	rec = doJSON(t, srv, http.MethodPost, "/api/bills", billPayload("Ravi"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "BILL-000002")
}

func TestCreateBillValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name    string
		mutate  func(map[string]any)
		message string
	}{
		{"missing customer", func(p map[string]any) { p["customer_name"] = "  " }, "customer_name"},
		{"bad price", func(p map[string]any) { p["total_price"] = "abc" }, "invalid number"},
		{"bad date", func(p map[string]any) { p["order_date"] = "01/06/2025" }, "invalid date"},
		{"bad status", func(p map[string]any) { p["payment_status"] = "MAYBE" }, "PAID or NOT PAID"},
		{"paid with due and no mode", func(p map[string]any) { p["payment_status"] = "PAID" }, "payment mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := billPayload("Asha")
			tt.mutate(p)
			rec := doJSON(t, srv, http.MethodPost, "/api/bills", p)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[envelope](t, rec)
			assert.False(t, body.Success)
			assert.Contains(t, body.Message, tt.message)
		})
	}

	rec := do(t, srv, http.MethodGet, "/api/bills", "", "")
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestMalformedRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := do(t, srv, http.MethodPost, "/api/bills", "application/json", `{"customer_name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	for _, path := range []string{"/api/bills/abc", "/api/bills/0", "/api/bills/999"} {
		assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, path, "", "").Code, path)
	}
	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/api/nope", "", "").Code)
}

func TestSearchBills(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/bills", billPayload("Asha Verma")).Code)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/bills", billPayload("Ravi")).Code)

	rec := do(t, srv, http.MethodGet, "/api/bills/search?term=VERMA", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[[]map[string]any](t, rec)
	require.Len(t, found, 1)
	assert.Equal(t, "Asha Verma", found[0]["customer_name"])

	rec = do(t, srv, http.MethodGet, "/api/bills/search?term=100", "", "")
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/api/bills/search?term=", "", "")
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func TestIncomeAndExpenses(t *testing.T) {
	srv := newTestServer(t, nil)

	form := url.Values{"date": {"2025-06-10"}, "description": {"Walk-in sale"}, "amount": {"500"}}
	rec := do(t, srv, http.MethodPost, "/api/income", "application/x-www-form-urlencoded", form.Encode())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	income := decode[struct {
		Income map[string]any `json:"income"`
	}](t, rec)
	assert.Nil(t, income.Income["payment_mode"])

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2025-06-11", "description": "Ink", "amount": 50, "quantity": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	expense := decode[struct {
		Expense map[string]any `json:"expense"`
	}](t, rec)
	expensePath := "/api/expenses/" + formatID(int64(expense.Expense["id"].(float64)))

	rec = doJSON(t, srv, http.MethodPost, "/api/expenses", map[string]any{
		"date": "2025-06-11", "description": "Refund", "amount": -5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/income/summary", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[struct {
		Success bool               `json:"success"`
		Summary map[string]float64 `json:"summary"`
	}](t, rec)
	assert.True(t, summary.Success)
	assert.InDelta(t, 500.0, summary.Summary["UNSPECIFIED"], 0.001)

	rec = do(t, srv, http.MethodGet, "/api/stats", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Success       bool             `json:"success"`
		TotalIncome   float64          `json:"total_income"`
		TotalExpenses float64          `json:"total_expenses"`
		NetProfit     float64          `json:"net_profit"`
		Pending       float64          `json:"pending_payments"`
		MonthlyData   []map[string]any `json:"monthly_data"`
	}](t, rec)
	assert.True(t, stats.Success)
	assert.InDelta(t, 500.0, stats.TotalIncome, 0.001)
	assert.InDelta(t, 100.0, stats.TotalExpenses, 0.001)
	assert.InDelta(t, 400.0, stats.NetProfit, 0.001)
	require.Len(t, stats.MonthlyData, 12)
	assert.Equal(t, "2025-06", stats.MonthlyData[11]["month"])

	rec = doJSON(t, srv, http.MethodPut, expensePath, map[string]any{
		"date": "2025-06-11", "description": "Ink", "amount": "60",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodDelete, expensePath, "", "").Code)
	assert.JSONEq(t, "[]", do(t, srv, http.MethodGet, "/api/expenses", "", "").Body.String())
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t, nil)
	require.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/bills", billPayload("Asha")).Code)

	rec := do(t, srv, http.MethodGet, "/api/bills/export", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="bills_20250620_141500.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,serial_number,customer_name"))

	for _, path := range []string{"/api/export/income", "/api/export/expenses"} {
		rec := do(t, srv, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestPaymentModes(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/payment-modes", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[paymentModesResponse](t, rec)
	assert.Equal(t, []string{"CASH", "ACCOUNT", "UPI", "CARD"}, body.PaymentModes)
}

func TestRateLimitOnWrites(t *testing.T) {
	srv := newTestServer(t, func(o *Options) { o.RateLimitPerMinute = 1 })

	assert.Equal(t, http.StatusCreated, doJSON(t, srv, http.MethodPost, "/api/bills", billPayload("Asha")).Code)
	rec := doJSON(t, srv, http.MethodPost, "/api/bills", billPayload("Ravi"))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// reads are not limited
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/api/bills", "", "").Code)
}

func TestRateLimitKeysOnForwardedClient(t *testing.T) {
	post := func(srv *Server, client string) int {
		b, err := json.Marshal(billPayload("Asha"))
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/bills", strings.NewReader(string(b)))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.7:4000"
		// The left-most hop is client supplied and must not pick the bucket.
		req.Header.Set("X-Forwarded-For", "6.6.6.6, "+client)
		rec := httptest.NewRecorder()
		srv.Handler.ServeHTTP(rec, req)
		return rec.Code
	}

	proxied := newTestServer(t, func(o *Options) {
		o.RateLimitPerMinute = 1
		o.TrustedProxies = []string{"203.0.113.0/24"}
	})
	assert.Equal(t, http.StatusCreated, post(proxied, "198.51.100.1"))
	assert.Equal(t, http.StatusCreated, post(proxied, "198.51.100.2"))
	assert.Equal(t, http.StatusTooManyRequests, post(proxied, "198.51.100.1"))

	direct := newTestServer(t, func(o *Options) { o.RateLimitPerMinute = 1 })
	assert.Equal(t, http.StatusCreated, post(direct, "198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, post(direct, "198.51.100.2"))
}

func TestNewServerRejectsBadTrustedProxy(t *testing.T) {
	_, err := NewServer(":0", Services{}, Options{TrustedProxies: []string{"10.0.0.1"}})
	require.ErrorContains(t, err, "invalid CIDR")
}

func TestSecurityAndTraceHeaders(t *testing.T) {
	srv := newTestServer(t, nil)
	rec := do(t, srv, http.MethodGet, "/api/bills", "", "")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
