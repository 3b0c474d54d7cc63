package http

import (
	"budgetbox/internal/core"
	"budgetbox/internal/services"
	"budgetbox/internal/storage"
)

// Amounts are rendered as fixed two-decimal strings so clients never see
// floating-point noise.

type budgetJSON struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Date  string `json:"date"`
	Label string `json:"label"`
}

type streamJSON struct {
	ID           int64  `json:"id"`
	BudgetID     int64  `json:"budget_id"`
	MerchantName string `json:"merchant_name"`
	Description  string `json:"description"`
	Amount       string `json:"amount"`
	Category     string `json:"category"`
}

type totalsJSON struct {
	Income   string `json:"income"`
	Expenses string `json:"expenses"`
	Net      string `json:"net"`
}

type bankAccountJSON struct {
	ID              int64  `json:"id"`
	AccountName     string `json:"account_name"`
	AccountType     string `json:"account_type"`
	AccountSubtype  string `json:"account_subtype"`
	Mask            string `json:"mask"`
	InstitutionName string `json:"institution_name"`
	IsActive        bool   `json:"is_active"`
}

type transactionJSON struct {
	ID              int64  `json:"id"`
	BankAccountID   int64  `json:"bank_account_id"`
	Amount          string `json:"amount"`
	MerchantName    string `json:"merchant_name"`
	AuthorizedDate  string `json:"authorized_date"`
	DatePaid        string `json:"date_paid"`
	Category        string `json:"category"`
	BankAccountName string `json:"bank_account_name,omitempty"`
	InstitutionName string `json:"institution_name,omitempty"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:    b.ID,
		Name:  b.Name,
		Date:  b.Date.Format(core.DateFormat),
		Label: b.Label(),
	}
}

func toBudgetListJSON(budgets []core.Budget) []budgetJSON {
	out := make([]budgetJSON, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetJSON(b))
	}
	return out
}

func toStreamJSON(s core.Stream) streamJSON {
	return streamJSON{
		ID:           s.ID,
		BudgetID:     s.BudgetID,
		MerchantName: s.MerchantName,
		Description:  s.Description,
		Amount:       core.FormatAmount(s.Amount),
		Category:     s.Category,
	}
}

func toStreamListJSON(streams []core.Stream) []streamJSON {
	out := make([]streamJSON, 0, len(streams))
	for _, s := range streams {
		out = append(out, toStreamJSON(s))
	}
	return out
}

func toTotalsJSON(t core.Totals) totalsJSON {
	return totalsJSON{
		Income:   core.FormatAmount(t.Income),
		Expenses: core.FormatAmount(t.Expenses),
		Net:      core.FormatAmount(t.Net),
	}
}

func toBankAccountJSON(a core.BankAccount) bankAccountJSON {
	return bankAccountJSON{
		ID:              a.ID,
		AccountName:     a.AccountName,
		AccountType:     a.AccountType,
		AccountSubtype:  a.AccountSubtype,
		Mask:            a.Mask,
		InstitutionName: a.InstitutionName,
		IsActive:        a.IsActive,
	}
}

func toBankAccountListJSON(accounts []core.BankAccount) []bankAccountJSON {
	out := make([]bankAccountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toBankAccountJSON(a))
	}
	return out
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:             t.ID,
		BankAccountID:  t.BankAccountID,
		Amount:         core.FormatAmount(t.Amount),
		MerchantName:   t.MerchantName,
		AuthorizedDate: t.AuthorizedDate.Format(core.DateFormat),
		DatePaid:       t.DatePaid.Format(core.DateFormat),
		Category:       t.Category,
	}
}

func toTransactionRowJSON(row storage.TransactionRow) transactionJSON {
	out := toTransactionJSON(row.Transaction)
	out.BankAccountName = row.BankAccountName
	out.InstitutionName = row.InstitutionName
	return out
}

func toCreatedTransactionListJSON(created []services.CreatedTransaction) []transactionJSON {
	out := make([]transactionJSON, 0, len(created))
	for _, c := range created {
		item := toTransactionJSON(c.Transaction)
		item.BankAccountName = c.AccountName
		out = append(out, item)
	}
	return out
}
