package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"billing/internal/core"
	"billing/internal/log"
)

// envelope is the {success, message} body shared by every mutation and error.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, success bool, message string) {
	writeJSON(w, status, envelope{Success: success, Message: message})
}

// errorStatus maps a service error to a status code, a client message and
// the log error type. Internal failures get a generic message.
func errorStatus(err error) (int, string, string) {
	switch {
	case core.IsValidation(err):
		return http.StatusBadRequest, err.Error(), log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Record not found", log.ErrorTypeNotFound
	case errors.Is(err, core.ErrDuplicateSerial):
		return http.StatusConflict, "Could not allocate a serial number, please retry", log.ErrorTypeConflict
	case errors.Is(err, core.ErrStorage):
		return http.StatusInternalServerError, "Internal server error", log.ErrorTypeDatabase
	default:
		return http.StatusInternalServerError, "Internal server error", log.ErrorTypeInternal
	}
}

// writeError logs err with the request logger and writes the mapped response.
func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, message, errType := errorStatus(err)
	logger := log.FromContext(r.Context())
	fields := log.NewFields().WithOperation(op).WithError(err, errType).ToSlice()
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", fields...)
	} else {
		logger.InfoContext(r.Context(), "Request rejected", fields...)
	}
	writeMessage(w, status, false, message)
}
