package http

import (
	"net/http"

	"billing/internal/core"
	"billing/internal/log"
)

type incomeResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	Income  core.IncomeRecord `json:"income"`
}

type summaryResponse struct {
	Success bool                  `json:"success"`
	Summary map[string]core.Money `json:"summary"`
}

func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	incomes, err := s.svc.Income.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(incomes))
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	income, err := s.svc.Income.Create(r.Context(), p.IncomeInput())
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, incomeResponse{Success: true, Message: "Income added successfully", Income: income})
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	income, err := s.svc.Income.Update(r.Context(), id, p.IncomeInput())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, incomeResponse{Success: true, Message: "Income updated successfully", Income: income})
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Income.Delete(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Income deleted successfully")
}

func (s *Server) handleIncomeSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.svc.Income.SummaryByMode(r.Context())
	if err != nil {
		writeError(w, r, log.OpStats, err)
		return
	}
	if summary == nil {
		summary = map[string]core.Money{}
	}
	writeJSON(w, http.StatusOK, summaryResponse{Success: true, Summary: summary})
}
