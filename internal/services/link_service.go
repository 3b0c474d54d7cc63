package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"budgetbox/internal/bank"
	"budgetbox/internal/core"
	"budgetbox/internal/storage"
)

// LinkService owns the bank-account linking lifecycle: link tokens, public
// token exchange and unlinking.
type LinkService struct {
	storage *storage.SQLiteRepository
	bank    bank.Client
}

func NewLinkService(storage *storage.SQLiteRepository, bankClient bank.Client) *LinkService {
	return &LinkService{storage: storage, bank: bankClient}
}

// LinkResult reports which of an item's accounts were newly linked and
// which were already connected.
type LinkResult struct {
	Created  []core.BankAccount
	Existing []core.BankAccount
}

// CreateLinkToken requests a provider link token keyed by the local user
// id.
func (s *LinkService) CreateLinkToken(ctx context.Context, user core.User) (string, error) {
	token, err := s.bank.CreateLinkToken(ctx, strconv.FormatInt(user.ID, 10))
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrProvider, err)
	}
	return token, nil
}

// ExchangePublicToken trades a public token for durable credentials and
// mirrors every previously unseen account of the item.
func (s *LinkService) ExchangePublicToken(ctx context.Context, user core.User, publicToken string) (LinkResult, error) {
	exchange, err := s.bank.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return LinkResult{}, fmt.Errorf("%w: %v", core.ErrProvider, err)
	}

	var result LinkResult
	for _, acct := range exchange.Accounts {
		existing, err := s.storage.GetBankAccountByPlaidID(ctx, acct.AccountID)
		if err == nil {
			// An account linked by someone else stays linked to them;
			// never leak it into another caller's response.
			if existing.UserID == user.ID {
				result.Existing = append(result.Existing, existing)
			} else {
				slog.WarnContext(ctx, "Account already linked by another user, skipping",
					"plaid_account_id", acct.AccountID)
			}
			continue
		}
		if !errors.Is(err, core.ErrNotFound) {
			return LinkResult{}, err
		}

		created, err := s.storage.CreateBankAccount(ctx, core.BankAccount{
			UserID:           user.ID,
			PlaidAccountID:   acct.AccountID,
			PlaidAccessToken: exchange.AccessToken,
			PlaidItemID:      exchange.ItemID,
			AccountName:      acct.Name,
			AccountType:      acct.Type,
			AccountSubtype:   acct.Subtype,
			Mask:             acct.Mask,
			InstitutionName:  exchange.InstitutionName,
		})
		if err != nil {
			return LinkResult{}, err
		}
		result.Created = append(result.Created, created)

		slog.InfoContext(ctx, "Bank account linked",
			"user_id", user.ID,
			"bank_account_id", created.ID,
			"institution", created.InstitutionName,
			"account_name", created.AccountName)
	}

	return result, nil
}

// Unlink deactivates a linked account the user owns. Mirrored transactions
// are retained.
func (s *LinkService) Unlink(ctx context.Context, user core.User, bankAccountID int64) error {
	account, err := s.storage.GetBankAccount(ctx, bankAccountID)
	if err != nil {
		return err
	}
	if account.UserID != user.ID {
		return core.ErrForbidden
	}
	if err := s.storage.DeactivateBankAccount(ctx, bankAccountID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Bank account unlinked",
		"user_id", user.ID,
		"bank_account_id", bankAccountID)
	return nil
}
