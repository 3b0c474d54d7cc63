package http

import (
	"net/http"
)

// handleGetBudget resolves (creating if needed) the month's budget and
// returns it with its streams and totals. Query params: name, date.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	name := sanitizeInput(r.URL.Query().Get("name"))
	date := r.URL.Query().Get("date")

	overview, err := s.deps.Budgets.Overview(r.Context(), user, name, date)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"budget":   toBudgetJSON(overview.Budget),
		"incomes":  toStreamListJSON(overview.Incomes),
		"expenses": toStreamListJSON(overview.Expenses),
		"totals":   toTotalsJSON(overview.Totals),
	})
}

func (s *Server) handleRenameBudget(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		BudgetID int64  `json:"budget_id"`
		Name     string `json:"name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	budget, err := s.deps.Budgets.Rename(r.Context(), user, req.BudgetID, sanitizeInput(req.Name))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budget": toBudgetJSON(budget)})
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req struct {
		BudgetID int64 `json:"budget_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	incomes, expenses, err := s.deps.Budgets.Delete(r.Context(), user, req.BudgetID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":          true,
		"incomes_deleted":  incomes,
		"expenses_deleted": expenses,
	})
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	budgets, err := s.deps.Budgets.List(r.Context(), user)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	items := toBudgetListJSON(budgets)
	writeJSON(w, http.StatusOK, map[string]any{
		"budgets": items,
		"count":   len(items),
	})
}
