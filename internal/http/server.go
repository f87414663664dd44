// Package http exposes the billing services as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"billing/internal/log"
	"billing/internal/middleware/ratelimit"
	"billing/internal/middleware/security"
	"billing/internal/middleware/trace"
	"billing/internal/services"
)

// Services groups the façades served by the API.
type Services struct {
	Bills    *services.BillService
	Income   *services.IncomeService
	Expenses *services.ExpenseService
	Stats    *services.StatsService
}

// Options tunes the server. Zero values fall back to defaults.
type Options struct {
	PaymentModes       []string
	RateLimitPerMinute int
	// TrustedProxies are CIDR ranges whose forwarding headers are believed,
	// in addition to loopback and private ranges.
	TrustedProxies []string
	Production     bool
	RequestTimeout time.Duration
	// Ready reports whether the backing store is reachable.
	Ready  func(context.Context) error
	Logger *log.Logger
	Now    func() time.Time
}

type Server struct {
	http.Server
	svc      Services
	opts     Options
	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
}

// NewServer builds the router and returns a server listening on addr.
func NewServer(addr string, svc Services, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	s := &Server{
		svc:      svc,
		opts:     opts,
		detector: security.NewDetector(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	s.limiter = ratelimit.New(ratelimit.Config{
		RequestsPerMinute: opts.RateLimitPerMinute,
		KeyFunc:           s.detector.KeyByClientIP,
	})
	s.tracer = trace.NewMiddleware(opts.Logger.WithComponent(log.ComponentHTTP), s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      opts.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(s.tracer.Middleware)
	r.Use(security.Headers(security.DefaultHeadersConfig(s.opts.Production)))

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))

		r.Route("/bills", func(r chi.Router) {
			write := r.With(s.limiter.Middleware)
			r.Get("/", s.handleListBills)
			write.Post("/", s.handleCreateBill)
			r.Get("/search", s.handleSearchBills)
			r.Get("/export", s.handleExportBills)
			r.Get("/{id}", s.handleGetBill)
			write.Put("/{id}", s.handleUpdateBill)
			write.Delete("/{id}", s.handleDeleteBill)
		})

		r.Route("/income", func(r chi.Router) {
			write := r.With(s.limiter.Middleware)
			r.Get("/", s.handleListIncome)
			write.Post("/", s.handleCreateIncome)
			r.Get("/summary", s.handleIncomeSummary)
			write.Put("/{id}", s.handleUpdateIncome)
			write.Delete("/{id}", s.handleDeleteIncome)
		})

		r.Route("/expenses", func(r chi.Router) {
			write := r.With(s.limiter.Middleware)
			r.Get("/", s.handleListExpenses)
			write.Post("/", s.handleCreateExpense)
			write.Put("/{id}", s.handleUpdateExpense)
			write.Delete("/{id}", s.handleDeleteExpense)
		})

		r.Get("/export/income", s.handleExportIncome)
		r.Get("/export/expenses", s.handleExportExpenses)
		r.Get("/stats", s.handleStats)
		r.Get("/payment-modes", s.handlePaymentModes)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, false, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, false, "Method not allowed")
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.opts.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ready"))
}
