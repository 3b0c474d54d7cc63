package http

import (
	"net/http"

	"budgetbox/internal/services"
)

func (s *Server) handleCreateLinkToken(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	token, err := s.deps.Links.CreateLinkToken(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link_token": token})
}

func (s *Server) handleExchangePublicToken(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		PublicToken string `json:"public_token"`
	}
	if err := decodeJSON(r, &req); err != nil || req.PublicToken == "" {
		writeError(w, http.StatusBadRequest, "public_token is required")
		return
	}

	result, err := s.deps.Links.ExchangePublicToken(r.Context(), user, req.PublicToken)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	created := toBankAccountListJSON(result.Created)
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": created,
		"count":    len(created),
		"existing": toBankAccountListJSON(result.Existing),
	})
}

func (s *Server) handleUnlinkBankAccount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		BankAccountID int64 `json:"bank_account_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.deps.Links.Unlink(r.Context(), user, req.BankAccountID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"unlinked": true})
}

// handleGetTransactions syncs every linked account and returns the rows
// created by this run alongside per-account warnings.
func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	result, err := s.deps.Sync.SyncUser(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	transactions := toCreatedTransactionListJSON(result.Created)
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"count":        len(transactions),
		"warnings":     warningsOrEmpty(result.Warnings),
	})
}

// handleRefreshTransactions re-syncs and reports counts rather than rows;
// clients follow up with GET /plaid/transactions/ for the data.
func (s *Server) handleRefreshTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	result, err := s.deps.Sync.SyncUser(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"added":    result.Added,
		"modified": result.Modified,
		"removed":  result.Removed,
		"warnings": warningsOrEmpty(result.Warnings),
	})
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	rows, err := s.deps.Mirror.List(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	items := make([]transactionJSON, 0, len(rows))
	for _, row := range rows {
		items = append(items, toTransactionRowJSON(row))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": items,
		"count":        len(items),
	})
}

// handleApproveTransaction copies a mirrored transaction into the ledger
// as an expense entry.
func (s *Server) handleApproveTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		TransactionID int64  `json:"transaction_id"`
		Description   string `json:"description"`
		BudgetID      *int64 `json:"budget_id"`
		Date          string `json:"date"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	created, err := s.deps.Approvals.Approve(r.Context(), user, services.ApproveInput{
		TransactionID: req.TransactionID,
		Description:   sanitizeInput(req.Description),
		BudgetID:      req.BudgetID,
		Date:          req.Date,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"expense": toStreamJSON(created)})
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		TransactionID  int64   `json:"transaction_id"`
		MerchantName   *string `json:"merchant_name"`
		Category       *string `json:"category"`
		AuthorizedDate *string `json:"authorized_date"`
		DatePaid       *string `json:"date_paid"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := s.deps.Mirror.Update(r.Context(), user, req.TransactionID, services.UpdateTransactionInput{
		MerchantName:   sanitizePtr(req.MerchantName),
		Category:       sanitizePtr(req.Category),
		AuthorizedDate: req.AuthorizedDate,
		DatePaid:       req.DatePaid,
	})
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"transaction": toTransactionJSON(updated)})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		TransactionID int64 `json:"transaction_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	deleted, err := s.deps.Mirror.Delete(r.Context(), user, req.TransactionID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":     true,
		"transaction": toTransactionJSON(deleted),
	})
}

// warningsOrEmpty keeps the warnings field an array, never null.
func warningsOrEmpty(warnings []string) []string {
	if warnings == nil {
		return []string{}
	}
	return warnings
}
