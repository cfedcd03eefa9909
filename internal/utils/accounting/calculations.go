package accounting

import (
	"fmt"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// SignedDelta converts a journal line into the signed balance change for its
// account, following the normal-balance convention:
// a debit-normal account grows on debit, a credit-normal account grows on credit.
func SignedDelta(line domain.JournalLine, normal domain.BalanceSide) (decimal.Decimal, error) {
	switch normal {
	case domain.DebitNormal:
		return line.Debit.Sub(line.Credit), nil
	case domain.CreditNormal:
		return line.Credit.Sub(line.Debit), nil
	default:
		return decimal.Zero, fmt.Errorf("unknown normal balance side '%s' for account ID %s", normal, line.AccountID)
	}
}

// ValidateLine checks the per-line invariant: both amounts non-negative and
// exactly one of debit/credit nonzero.
func ValidateLine(line domain.JournalLine) error {
	if line.Debit.IsNegative() || line.Credit.IsNegative() {
		return fmt.Errorf("line amounts must not be negative for account %s", line.AccountID)
	}
	debitSet := line.Debit.IsPositive()
	creditSet := line.Credit.IsPositive()
	if debitSet == creditSet {
		return fmt.Errorf("exactly one of debit or credit must be set for account %s", line.AccountID)
	}
	return nil
}

// ValidateEntryBalance checks the double-entry invariant over a full set of
// lines: at least two lines, every line valid, and total debits equal to
// total credits exactly.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal entry must have at least two lines")
	}

	debits := decimal.Zero
	credits := decimal.Zero
	for _, line := range lines {
		if err := ValidateLine(line); err != nil {
			return err
		}
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("debits sum is %s and credits sum is %s", debits.String(), credits.String())
	}
	return nil
}

// BalanceDeltas folds an entry's lines into the net signed change per account.
// Lines are applied in declaration order; the net result is order-independent.
func BalanceDeltas(lines []domain.JournalLine, accounts map[string]domain.Account) (map[string]decimal.Decimal, error) {
	deltas := make(map[string]decimal.Decimal, len(lines))
	for _, line := range lines {
		acc, ok := accounts[line.AccountID]
		if !ok {
			return nil, fmt.Errorf("account %s not found while computing balance deltas", line.AccountID)
		}
		signed, err := SignedDelta(line, acc.NormalBalance)
		if err != nil {
			return nil, err
		}
		deltas[line.AccountID] = deltas[line.AccountID].Add(signed)
	}
	return deltas, nil
}

// MergeDeltas adds the per-account changes of src into dst, returning dst.
// Used by batch posting to accumulate the net effect across member entries.
func MergeDeltas(dst, src map[string]decimal.Decimal) map[string]decimal.Decimal {
	if dst == nil {
		dst = make(map[string]decimal.Decimal, len(src))
	}
	for accID, delta := range src {
		dst[accID] = dst[accID].Add(delta)
	}
	return dst
}
