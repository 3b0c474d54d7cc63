package http

import (
	"net/http"

	"budgetbox/internal/core"
	"budgetbox/internal/services"
)

// streamCreateHandler builds the POST handler for one stream kind. Income
// and expense endpoints share everything except the sign convention, which
// the service applies from the kind.
func (s *Server) streamCreateHandler(kind core.StreamKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(w, r)
		if !ok {
			return
		}

		var req struct {
			BudgetName   string `json:"budget_name"`
			Date         string `json:"date"`
			MerchantName string `json:"merchant_name"`
			Description  string `json:"description"`
			Amount       string `json:"amount"`
			Category     string `json:"category"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		created, err := s.deps.Ledger.Create(r.Context(), user, kind, services.CreateStreamInput{
			BudgetName:   sanitizeInput(req.BudgetName),
			Date:         req.Date,
			MerchantName: sanitizeInput(req.MerchantName),
			Description:  sanitizeInput(req.Description),
			Amount:       req.Amount,
			Category:     sanitizeInput(req.Category),
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{string(kind): toStreamJSON(created)})
	}
}

func (s *Server) streamUpdateHandler(kind core.StreamKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(w, r)
		if !ok {
			return
		}

		var req struct {
			ID           int64   `json:"id"`
			MerchantName *string `json:"merchant_name"`
			Description  *string `json:"description"`
			Amount       *string `json:"amount"`
			Category     *string `json:"category"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		updated, err := s.deps.Ledger.Update(r.Context(), user, kind, req.ID, services.UpdateStreamInput{
			MerchantName: sanitizePtr(req.MerchantName),
			Description:  sanitizePtr(req.Description),
			Amount:       req.Amount,
			Category:     sanitizePtr(req.Category),
		})
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{string(kind): toStreamJSON(updated)})
	}
}

func (s *Server) streamDeleteHandler(kind core.StreamKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := userFrom(w, r)
		if !ok {
			return
		}

		var req struct {
			ID int64 `json:"id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		deleted, err := s.deps.Ledger.Delete(r.Context(), user, kind, req.ID)
		if err != nil {
			writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": true,
			string(kind): toStreamJSON(deleted),
		})
	}
}
