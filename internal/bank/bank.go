// Package bank defines the port to the external financial-data provider.
// Handlers and services depend on these types only; the Plaid-backed
// implementation lives in bank/plaid and tests use fakes.
package bank

import (
	"context"

	"github.com/shopspring/decimal"
)

// Client is the provider surface this system needs: link-token creation,
// public-token exchange and the cursor-paged transactions feed.
type Client interface {
	CreateLinkToken(ctx context.Context, clientUserID string) (string, error)
	ExchangePublicToken(ctx context.Context, publicToken string) (ExchangeResult, error)
	SyncTransactions(ctx context.Context, accessToken, cursor string) (SyncPage, error)
}

// ExchangeResult is the outcome of trading a public token for durable
// credentials plus the item's accounts.
type ExchangeResult struct {
	AccessToken     string
	ItemID          string
	InstitutionName string
	Accounts        []Account
}

// Account describes one account of a linked item.
type Account struct {
	AccountID string
	Name      string
	Type      string
	Subtype   string
	Mask      string
}

// SyncPage is one page of the provider's incremental feed. NextCursor is
// the continuation token to request the following page; HasMore signals
// whether one exists.
type SyncPage struct {
	Added      []Transaction
	Modified   []Transaction
	Removed    []string
	NextCursor string
	HasMore    bool
}

// Transaction is a provider-shaped transaction delta. Dates are
// YYYY-MM-DD strings as the provider sends them; AuthorizedDate may be
// empty, in which case Date is the fallback.
type Transaction struct {
	TransactionID  string
	AccountID      string
	Amount         decimal.Decimal
	MerchantName   string
	Name           string
	Date           string
	AuthorizedDate string
	Category       string
}
