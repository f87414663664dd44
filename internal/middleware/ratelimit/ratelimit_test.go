package ratelimit

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billing/internal/log"
)

func TestLimiterRejectsOverLimit(t *testing.T) {
	l := New(Config{RequestsPerMinute: 2, Window: time.Minute})
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var buf bytes.Buffer
	logger := log.New(log.Config{Output: &buf, Component: log.ComponentHTTP}).With(log.FieldRequestID, "req-1")

	send := func(remote string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/bills", nil)
		r = r.WithContext(log.WithLogger(r.Context(), logger))
		r.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, send("198.51.100.1:1000").Code)
	assert.Equal(t, http.StatusNoContent, send("198.51.100.1:1001").Code)

	rec := send("198.51.100.1:1002")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	// other clients keep their own budget
	assert.Equal(t, http.StatusNoContent, send("198.51.100.2:1000").Code)
	assert.Contains(t, buf.String(), "request_id=req-1 component=rate_limit")
	assert.Contains(t, buf.String(), "rejected_total=1")

	send("198.51.100.2:1001")
	send("198.51.100.2:1002")
	assert.Contains(t, buf.String(), "rejected_total=2")
}

func TestNewAppliesDefaults(t *testing.T) {
	l := New(Config{})
	require.NotNil(t, l.handler)
}
