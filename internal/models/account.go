package models

import (
	"github.com/shopspring/decimal"
)

// AccountType defines the fundamental accounting type of an account.
type AccountType string

// BalanceSide is the side on which an account's balance conventionally increases.
type BalanceSide string

// Account represents a chart-of-accounts row.
// Note: ParentAccountID uses string for the nullable foreign key; the
// repository maps it through sql.NullString.
type Account struct {
	AccountID       string      `db:"account_id"`
	Code            string      `db:"code"`
	Name            string      `db:"name"`
	AccountType     AccountType `db:"account_type"`
	NormalBalance   BalanceSide `db:"normal_balance"`
	ParentAccountID string      `db:"parent_account_id"` // Nullable
	Description     string      `db:"description"`
	IsActive        bool        `db:"is_active"`
	AuditFields
	Balance decimal.Decimal `db:"balance"`
}
