package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"budgetbox/internal/auth"
	"budgetbox/internal/core"
	"budgetbox/internal/services"
)

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response as {"error": <message>}.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a service error to an HTTP status. Unknown errors
// are logged and reported as a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, core.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this resource")
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "Invalid amount")
	case errors.Is(err, core.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, "Invalid date")
	case errors.Is(err, core.ErrEmptyMerchant):
		writeError(w, http.StatusBadRequest, "Merchant name is required")
	case errors.Is(err, core.ErrEmptyDescription):
		writeError(w, http.StatusBadRequest, "Description is required")
	case errors.Is(err, core.ErrSyncInProgress):
		writeError(w, http.StatusConflict, "Sync already in progress")
	case errors.Is(err, core.ErrBudgetExists):
		writeError(w, http.StatusConflict, "A budget with that name already exists for this month")
	case errors.Is(err, core.ErrProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoLinkedAccounts):
		writeError(w, http.StatusBadRequest, "No bank account linked")
	default:
		slog.ErrorContext(r.Context(), "Unhandled error", "error", err, "method", r.Method, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON parses the request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// userFrom extracts the authenticated user or writes a 401. Handlers are
// only reachable through RequireUser, so a miss means a wiring bug.
func userFrom(w http.ResponseWriter, r *http.Request) (core.User, bool) {
	user, ok := auth.UserFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization token required")
	}
	return user, ok
}

// sanitizeInput removes control characters except tab, newline, carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// sanitizePtr applies sanitizeInput through an optional field.
func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeInput(*s)
	return &clean
}
