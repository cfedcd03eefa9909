package domain

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// BalanceSide is the side (debit or credit) on which an account's balance
// conventionally increases.
type BalanceSide string

const (
	DebitNormal  BalanceSide = "DEBIT"
	CreditNormal BalanceSide = "CREDIT"
)

// NormalSideFor returns the conventional normal-balance side for an account type.
// Asset and Expense accounts increase on debit; the rest increase on credit.
func NormalSideFor(t AccountType) BalanceSide {
	switch t {
	case Asset, Expense:
		return DebitNormal
	default:
		return CreditNormal
	}
}

// Account represents one account in the chart of accounts.
// Balance is mutated only through posted journal lines (via the ledger
// repository inside a posting transaction) or the audited admin override.
type Account struct {
	AccountID       string      `json:"accountID"`
	Code            string      `json:"code"` // Unique, user-facing
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	NormalBalance   BalanceSide `json:"normalBalance"`
	ParentAccountID string      `json:"parentAccountID,omitempty"` // Empty when root
	Description     string      `json:"description"`
	IsActive        bool        `json:"isActive"`
	AuditFields
	Balance decimal.Decimal `json:"balance"`
}
