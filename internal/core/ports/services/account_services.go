package services

import (
	"context"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/finpost/gl_engine_app/internal/dto"
)

// AccountSvcFacade exposes chart-of-accounts operations.
// Balance mutation through postings is not here: it happens exclusively
// inside the posting transaction owned by the repositories.
type AccountSvcFacade interface {
	// CreateAccount opens a new account with a zero balance.
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// GetAccountByID retrieves a single account.
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)

	// GetAccountByCode retrieves an account by its unique chart-of-accounts code.
	GetAccountByCode(ctx context.Context, code string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts keyed by id.
	GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated account list.
	ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error)

	// UpdateAccount updates name/description of an account.
	UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// ActivateAccount re-enables a deactivated account.
	ActivateAccount(ctx context.Context, accountID string, userID string) error

	// DeactivateAccount disables an account. Fails with a conflict when the
	// account (or any descendant) holds a nonzero balance or is referenced by
	// an unposted entry.
	DeactivateAccount(ctx context.Context, accountID string, userID string) error

	// OverrideBalance administratively replaces an account balance outside the
	// delta trail. The override is audited distinctly from normal posting.
	OverrideBalance(ctx context.Context, accountID string, req dto.OverrideBalanceRequest, userID string) (*domain.Account, error)
}
