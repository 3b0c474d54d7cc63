// Package http exposes the JSON API: budgets, ledger streams, bank
// linking and the transaction mirror.
package http

import (
	"net/http"
	"time"

	"budgetbox/internal/auth"
	"budgetbox/internal/core"
	"budgetbox/internal/middleware/trace"
	"budgetbox/internal/services"
)

// Deps collects everything the server needs. All fields are required
// except Sync's event client wiring, which the services handle themselves.
type Deps struct {
	Auth      *auth.Middleware
	Budgets   *services.BudgetService
	Ledger    *services.LedgerService
	Links     *services.LinkService
	Sync      *services.SyncService
	Mirror    *services.MirrorService
	Approvals *services.ApprovalService
}

type Server struct {
	http.Server
	deps Deps
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:         addr,
			Handler:      corsMiddleware(trace.Middleware(recoveryMiddleware(securityHeadersMiddleware(mux)))),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps: deps,
	}

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	protected := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, deps.Auth.RequireUser(h))
	}

	protected("GET /budget/", s.handleGetBudget)
	protected("PUT /budget/", s.handleRenameBudget)
	protected("DELETE /budget/", s.handleDeleteBudget)
	protected("GET /budgets/", s.handleListBudgets)

	protected("POST /income-stream/", s.streamCreateHandler(core.Income))
	protected("PUT /income-stream/", s.streamUpdateHandler(core.Income))
	protected("DELETE /income-stream/", s.streamDeleteHandler(core.Income))
	protected("POST /expense-stream/", s.streamCreateHandler(core.Expense))
	protected("PUT /expense-stream/", s.streamUpdateHandler(core.Expense))
	protected("DELETE /expense-stream/", s.streamDeleteHandler(core.Expense))

	protected("POST /plaid/create-link-token/", s.handleCreateLinkToken)
	protected("POST /plaid/exchange-public-token/", s.handleExchangePublicToken)
	protected("POST /plaid/unlink-bank-account/", s.handleUnlinkBankAccount)
	protected("GET /plaid/get-transactions/", s.handleGetTransactions)
	protected("GET /plaid/refresh-transactions/", s.handleRefreshTransactions)
	protected("GET /plaid/transactions/", s.handleListTransactions)
	protected("POST /plaid/transactions/", s.handleApproveTransaction)
	protected("PUT /plaid/transactions/", s.handleUpdateTransaction)
	protected("DELETE /plaid/transactions/", s.handleDeleteTransaction)

	return s
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
