package http

import (
	"net/http"

	"billing/internal/core"
	"billing/internal/log"
)

type expenseResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Expense core.ExpenseRecord `json:"expense"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.svc.Expenses.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(expenses))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	expense, err := s.svc.Expenses.Create(r.Context(), p.ExpenseInput())
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseResponse{Success: true, Message: "Expense added successfully", Expense: expense})
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	expense, err := s.svc.Expenses.Update(r.Context(), id, p.ExpenseInput())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, expenseResponse{Success: true, Message: "Expense updated successfully", Expense: expense})
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Expenses.Delete(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Expense deleted successfully")
}
