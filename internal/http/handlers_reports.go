package http

import (
	"bytes"
	"net/http"
	"strconv"

	"billing/internal/core"
	"billing/internal/export"
	"billing/internal/log"
	"billing/internal/services"
)

type statsResponse struct {
	Success bool `json:"success"`
	services.Report
}

type paymentModesResponse struct {
	Success      bool     `json:"success"`
	PaymentModes []string `json:"payment_modes"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Stats.Stats(r.Context())
	if err != nil {
		writeError(w, r, log.OpStats, err)
		return
	}
	writeJSON(w, http.StatusOK, statsResponse{Success: true, Report: report})
}

func (s *Server) handlePaymentModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, paymentModesResponse{Success: true, PaymentModes: nonNil(s.opts.PaymentModes)})
}

func (s *Server) handleExportBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.svc.Bills.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	s.sendCSV(w, r, core.CategoryBills, func(buf *bytes.Buffer) error {
		return export.WriteBillsCSV(buf, bills)
	})
}

func (s *Server) handleExportIncome(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.svc.Income.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	s.sendCSV(w, r, core.CategoryIncome, func(buf *bytes.Buffer) error {
		return export.WriteIncomeCSV(buf, incomes)
	})
}

func (s *Server) handleExportExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Expenses.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	s.sendCSV(w, r, core.CategoryExpenses, func(buf *bytes.Buffer) error {
		return export.WriteExpensesCSV(buf, expenses)
	})
}

// sendCSV renders into a buffer first so a failed render still gets a JSON error.
func (s *Server) sendCSV(w http.ResponseWriter, r *http.Request, category core.Category, render func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}
	name := export.Filename(category, s.opts.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
