package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/domain"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/utils/accounting"
)

// postingValidator runs the checks every posting path must pass: the entry
// balances, its period is open, and every touched account exists and is
// active. Single-entry posting and batch posting share it so the two paths
// cannot drift apart.
type postingValidator struct {
	accountSvc portssvc.AccountSvcFacade
	periodSvc  portssvc.PeriodSvcFacade
}

func newPostingValidator(accountSvc portssvc.AccountSvcFacade, periodSvc portssvc.PeriodSvcFacade) *postingValidator {
	return &postingValidator{accountSvc: accountSvc, periodSvc: periodSvc}
}

// checkBalance verifies the double-entry invariant over a set of lines,
// wrapping failures in the matchable service sentinels.
func (v *postingValidator) checkBalance(journalID string, lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: entry %s has %d", ErrEntryMinLines, journalID, len(lines))
	}
	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		if err := accounting.ValidateLine(line); err != nil {
			return fmt.Errorf("%w: entry %s: %v", apperrors.ErrValidation, journalID, err)
		}
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: entry %s debits %s vs credits %s", ErrEntryUnbalanced, journalID, debits.String(), credits.String())
	}
	return nil
}

// validateEntry checks one entry and returns its per-account balance deltas.
// Deltas are signed by each account's normal side, so a debit to an asset
// account and a credit to a revenue account both come back positive.
func (v *postingValidator) validateEntry(ctx context.Context, entry *domain.JournalEntry, lines []domain.JournalLine) (map[string]decimal.Decimal, error) {
	if err := v.checkBalance(entry.JournalID, lines); err != nil {
		return nil, err
	}

	period, err := v.periodSvc.GetPeriodByID(ctx, entry.PeriodID)
	if err != nil {
		return nil, err
	}
	if period.Status == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: entry %s targets period %s", ErrPeriodClosed, entry.JournalID, period.Name)
	}

	accountIDs := uniqueAccountIDs(lines)
	accounts, err := v.accountSvc.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range accountIDs {
		acc, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrAccountInactive, acc.Code)
		}
	}

	deltas, err := accounting.BalanceDeltas(lines, accounts)
	if err != nil {
		return nil, fmt.Errorf("entry %s: %w", entry.JournalID, err)
	}
	return deltas, nil
}

func uniqueAccountIDs(lines []domain.JournalLine) []string {
	seen := make(map[string]struct{}, len(lines))
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.AccountID]; ok {
			continue
		}
		seen[line.AccountID] = struct{}{}
		ids = append(ids, line.AccountID)
	}
	return ids
}
