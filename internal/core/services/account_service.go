package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/domain"
	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/finpost/gl_engine_app/internal/middleware"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrAccountActive      = errors.New("account is already active")
	ErrAccountHasBalance  = errors.New("account or a descendant holds a nonzero balance")
	ErrAccountHasDrafts   = errors.New("account is referenced by unposted journal entries")
	ErrParentNotFound     = errors.New("parent account not found")
	ErrNormalSideMismatch = errors.New("normal balance side does not match account type")
)

// accountService provides chart-of-accounts operations.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryWithTx
	journalRepo portsrepo.JournalEntryReader
}

// NewAccountService creates a new AccountService.
func NewAccountService(accountRepo portsrepo.AccountRepositoryWithTx, journalRepo portsrepo.JournalEntryReader) portssvc.AccountSvcFacade {
	return &accountService{
		accountRepo: accountRepo,
		journalRepo: journalRepo,
	}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

func (s *accountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	normal := req.NormalBalance
	if normal == "" {
		normal = domain.NormalSideFor(req.AccountType)
	} else if normal != domain.NormalSideFor(req.AccountType) {
		// Contra accounts are modeled as their own types, not flipped sides.
		return nil, fmt.Errorf("%w: %s accounts are %s-normal", ErrNormalSideMismatch, req.AccountType, domain.NormalSideFor(req.AccountType))
	}

	if req.ParentAccountID != "" {
		parent, err := s.accountRepo.FindAccountByID(ctx, req.ParentAccountID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrParentNotFound, req.ParentAccountID)
			}
			return nil, fmt.Errorf("failed to check parent account: %w", err)
		}
		if parent.AccountType != req.AccountType {
			return nil, apperrors.NewValidationError("child account type must match parent account type")
		}
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		Code:            strings.TrimSpace(req.Code),
		Name:            strings.TrimSpace(req.Name),
		AccountType:     req.AccountType,
		NormalBalance:   normal,
		ParentAccountID: req.ParentAccountID,
		Description:     req.Description,
		IsActive:        true,
		Balance:         decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate account code", slog.String("code", account.Code))
			return nil, fmt.Errorf("account code %s already exists: %w", account.Code, err)
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("code", account.Code))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

func (s *accountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
		}
		return nil, fmt.Errorf("failed to find account %s: %w", accountID, err)
	}
	return account, nil
}

func (s *accountService) GetAccountByCode(ctx context.Context, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: code %s", ErrAccountNotFound, code)
		}
		return nil, fmt.Errorf("failed to find account with code %s: %w", code, err)
	}
	return account, nil
}

func (s *accountService) GetAccountsByIDs(ctx context.Context, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) ListAccounts(ctx context.Context, limit, offset int) ([]domain.Account, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	if offset < 0 {
		offset = 0
	}
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *accountService) UpdateAccount(ctx context.Context, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, apperrors.NewValidationError("account name cannot be empty")
		}
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		account.Description = *req.Description
	}

	now := time.Now().UTC()
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to update account %s: %w", accountID, err)
	}

	logger.Info("Account updated", slog.String("account_id", accountID))
	return account, nil
}

func (s *accountService) ActivateAccount(ctx context.Context, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if account.IsActive {
		return fmt.Errorf("%w: %s", ErrAccountActive, account.Code)
	}

	if err := s.accountRepo.SetAccountActive(ctx, accountID, true, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to activate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to activate account %s: %w", accountID, err)
	}

	logger.Info("Account activated", slog.String("account_id", accountID))
	return nil
}

// DeactivateAccount disables an account after checking that neither it nor
// any descendant carries a balance, and that no draft entry still references
// it. Posted history is untouched; deactivation only blocks future postings.
func (s *accountService) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.IsActive {
		return fmt.Errorf("%w: account %s is already inactive", apperrors.ErrConflict, account.Code)
	}

	subtreeIDs, err := s.collectSubtreeIDs(ctx, accountID)
	if err != nil {
		return err
	}

	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, subtreeIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch account subtree: %w", err)
	}
	for _, acc := range accounts {
		if !acc.Balance.IsZero() {
			logger.Warn("Deactivation blocked by nonzero balance", slog.String("account_id", accountID), slog.String("holding_account_id", acc.AccountID), slog.String("balance", acc.Balance.String()))
			return fmt.Errorf("%w: account %s holds %s", ErrAccountHasBalance, acc.Code, acc.Balance.String())
		}
	}

	for _, id := range subtreeIDs {
		count, err := s.journalRepo.CountDraftLinesForAccount(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count draft references for account %s: %w", id, err)
		}
		if count > 0 {
			logger.Warn("Deactivation blocked by draft entries", slog.String("account_id", id), slog.Int("draft_lines", count))
			return fmt.Errorf("%w: %d draft lines reference account", ErrAccountHasDrafts, count)
		}
	}

	if err := s.accountRepo.SetAccountActive(ctx, accountID, false, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to deactivate account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to deactivate account %s: %w", accountID, err)
	}

	logger.Info("Account deactivated", slog.String("account_id", accountID), slog.String("deactivated_by", userID))
	return nil
}

// collectSubtreeIDs returns the account and every descendant, breadth-first.
func (s *accountService) collectSubtreeIDs(ctx context.Context, rootID string) ([]string, error) {
	ids := []string{rootID}
	queue := []string{rootID}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		children, err := s.accountRepo.FindChildAccountIDs(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch children of account %s: %w", current, err)
		}
		ids = append(ids, children...)
		queue = append(queue, children...)
	}
	return ids, nil
}

// OverrideBalance replaces a balance outside the posting trail. It exists for
// conversions and corrections; the warn-level log line is the audit record.
func (s *accountService) OverrideBalance(ctx context.Context, accountID string, req dto.OverrideBalanceRequest, userID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperrors.NewValidationError("a reason is required to override a balance")
	}

	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.accountRepo.OverrideBalance(ctx, accountID, req.NewBalance, userID, now); err != nil {
		logger.Error("Failed to override balance", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to override balance for account %s: %w", accountID, err)
	}

	logger.Warn("Account balance overridden",
		slog.String("account_id", accountID),
		slog.String("old_balance", account.Balance.String()),
		slog.String("new_balance", req.NewBalance.String()),
		slog.String("reason", req.Reason),
		slog.String("overridden_by", userID),
	)

	account.Balance = req.NewBalance
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID
	return account, nil
}
