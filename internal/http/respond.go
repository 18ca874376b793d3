package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"horas/internal/core"
)

// envelope is the wire shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, env envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

// respondList includes a count alongside the data slice.
func respondList(w http.ResponseWriter, data any, count int) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Count: &count})
}

func respondMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// respondStoreError maps domain sentinel errors onto HTTP statuses. Anything
// unrecognized is logged with diagnostics and reported generically.
func respondStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrConflict):
		respondError(w, http.StatusConflict, "already exists")
	case isValidationError(err):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Unexpected store error",
			"error", err, "method", r.Method, "path", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

// isValidationError covers every sentinel the domain layer returns for bad
// input, including the package/project consistency rule.
func isValidationError(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidHours,
		core.ErrInvalidDate,
		core.ErrEmptyName,
		core.ErrEmptyEmail,
		core.ErrMissingUser,
		core.ErrMissingProject,
		core.ErrPackageMismatch,
		core.ErrInvalidWindow,
		core.ErrInvalidRole,
		core.ErrLongDescription,
		core.ErrEmptyDescription,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
