// Package plaid implements the bank provider port over the official Plaid
// SDK.
package plaid

import (
	"context"
	"fmt"

	"budgetbox/internal/bank"

	plaidapi "github.com/plaid/plaid-go/v31/plaid"
	"github.com/shopspring/decimal"
)

const clientName = "BudgetBox"

type Client struct {
	api *plaidapi.APIClient
}

// New builds a Plaid client for the given environment ("sandbox" or
// "production").
func New(clientID, secret, environment string) (*Client, error) {
	var env plaidapi.Environment
	switch environment {
	case "", "sandbox":
		env = plaidapi.Sandbox
	case "production":
		env = plaidapi.Production
	default:
		return nil, fmt.Errorf("unknown plaid environment: %s", environment)
	}

	cfg := plaidapi.NewConfiguration()
	cfg.AddDefaultHeader("PLAID-CLIENT-ID", clientID)
	cfg.AddDefaultHeader("PLAID-SECRET", secret)
	cfg.UseEnvironment(env)

	return &Client{api: plaidapi.NewAPIClient(cfg)}, nil
}

func (c *Client) CreateLinkToken(ctx context.Context, clientUserID string) (string, error) {
	user := plaidapi.LinkTokenCreateRequestUser{ClientUserId: clientUserID}
	req := plaidapi.NewLinkTokenCreateRequest(clientName, "en", []plaidapi.CountryCode{plaidapi.COUNTRYCODE_US}, user)
	req.SetProducts([]plaidapi.Products{plaidapi.PRODUCTS_TRANSACTIONS})

	resp, _, err := c.api.PlaidApi.LinkTokenCreate(ctx).LinkTokenCreateRequest(*req).Execute()
	if err != nil {
		return "", fmt.Errorf("create link token: %w", err)
	}
	return resp.GetLinkToken(), nil
}

func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (bank.ExchangeResult, error) {
	exReq := plaidapi.NewItemPublicTokenExchangeRequest(publicToken)
	exResp, _, err := c.api.PlaidApi.ItemPublicTokenExchange(ctx).
		ItemPublicTokenExchangeRequest(*exReq).Execute()
	if err != nil {
		return bank.ExchangeResult{}, fmt.Errorf("exchange public token: %w", err)
	}

	result := bank.ExchangeResult{
		AccessToken: exResp.GetAccessToken(),
		ItemID:      exResp.GetItemId(),
	}

	acctReq := plaidapi.NewAccountsGetRequest(result.AccessToken)
	acctResp, _, err := c.api.PlaidApi.AccountsGet(ctx).
		AccountsGetRequest(*acctReq).Execute()
	if err != nil {
		return bank.ExchangeResult{}, fmt.Errorf("get accounts: %w", err)
	}

	item := acctResp.GetItem()
	result.InstitutionName = item.GetInstitutionName()
	if result.InstitutionName == "" {
		result.InstitutionName = "Unknown Bank"
	}

	for _, a := range acctResp.GetAccounts() {
		result.Accounts = append(result.Accounts, bank.Account{
			AccountID: a.GetAccountId(),
			Name:      a.GetName(),
			Type:      string(a.GetType()),
			Subtype:   string(a.GetSubtype()),
			Mask:      a.GetMask(),
		})
	}

	return result, nil
}

func (c *Client) SyncTransactions(ctx context.Context, accessToken, cursor string) (bank.SyncPage, error) {
	req := plaidapi.NewTransactionsSyncRequest(accessToken)
	if cursor != "" {
		req.SetCursor(cursor)
	}

	resp, _, err := c.api.PlaidApi.TransactionsSync(ctx).
		TransactionsSyncRequest(*req).Execute()
	if err != nil {
		return bank.SyncPage{}, fmt.Errorf("sync transactions: %w", err)
	}

	page := bank.SyncPage{
		NextCursor: resp.GetNextCursor(),
		HasMore:    resp.GetHasMore(),
	}
	for _, t := range resp.GetAdded() {
		page.Added = append(page.Added, fromProviderTransaction(t))
	}
	for _, t := range resp.GetModified() {
		page.Modified = append(page.Modified, fromProviderTransaction(t))
	}
	for _, rm := range resp.GetRemoved() {
		page.Removed = append(page.Removed, rm.GetTransactionId())
	}

	return page, nil
}

func fromProviderTransaction(t plaidapi.Transaction) bank.Transaction {
	pfc := t.GetPersonalFinanceCategory()
	return bank.Transaction{
		TransactionID:  t.GetTransactionId(),
		AccountID:      t.GetAccountId(),
		Amount:         decimal.NewFromFloat(t.GetAmount()),
		MerchantName:   t.GetMerchantName(),
		Name:           t.GetName(),
		Date:           t.GetDate(),
		AuthorizedDate: t.GetAuthorizedDate(),
		Category:       pfc.GetPrimary(),
	}
}
