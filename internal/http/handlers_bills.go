package http

import (
	"net/http"

	"billing/internal/core"
	"billing/internal/log"
)

type billResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Bill    core.Bill `json:"bill"`
}

func (s *Server) handleListBills(w http.ResponseWriter, r *http.Request) {
	bills, err := s.svc.Bills.List(r.Context())
	if err != nil {
		writeError(w, r, log.OpList, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bills))
}

func (s *Server) handleSearchBills(w http.ResponseWriter, r *http.Request) {
	term := sanitizeInput(r.URL.Query().Get("term"))
	bills, err := s.svc.Bills.Search(r.Context(), term)
	if err != nil {
		writeError(w, r, log.OpSearch, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bills))
}

func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	bill, err := s.svc.Bills.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, log.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, bill)
}

func (s *Server) handleCreateBill(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	bill, err := s.svc.Bills.Create(r.Context(), p.BillInput())
	if err != nil {
		writeError(w, r, log.OpCreate, err)
		return
	}
	writeJSON(w, http.StatusCreated, billResponse{Success: true, Message: "Bill created successfully", Bill: bill})
}

func (s *Server) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	bill, err := s.svc.Bills.Update(r.Context(), id, p.BillInput())
	if err != nil {
		writeError(w, r, log.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, billResponse{Success: true, Message: "Bill updated successfully", Bill: bill})
}

func (s *Server) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	if err := s.svc.Bills.Delete(r.Context(), id); err != nil {
		writeError(w, r, log.OpDelete, err)
		return
	}
	writeMessage(w, http.StatusOK, true, "Bill deleted successfully")
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
