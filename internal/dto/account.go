package dto

import (
	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest carries the fields needed to open a new ledger account.
type CreateAccountRequest struct {
	Code            string             `json:"code" binding:"required"`
	Name            string             `json:"name" binding:"required"`
	AccountType     domain.AccountType `json:"accountType" binding:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE"`
	NormalBalance   domain.BalanceSide `json:"normalBalance" binding:"omitempty,oneof=DEBIT CREDIT"` // Defaulted from type when omitted
	ParentAccountID string             `json:"parentAccountID" binding:"omitempty,uuid"`
	Description     string             `json:"description"`
}

// UpdateAccountRequest updates mutable account details. Nil fields are left unchanged.
type UpdateAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// OverrideBalanceRequest sets an account balance outside the posting trail.
// Reason is mandatory because the override is audited distinctly.
type OverrideBalanceRequest struct {
	NewBalance decimal.Decimal `json:"newBalance" binding:"required"`
	Reason     string          `json:"reason" binding:"required"`
}

// AccountResponse is the API shape of an account.
type AccountResponse struct {
	AccountID       string             `json:"accountID"`
	Code            string             `json:"code"`
	Name            string             `json:"name"`
	AccountType     domain.AccountType `json:"accountType"`
	NormalBalance   domain.BalanceSide `json:"normalBalance"`
	ParentAccountID string             `json:"parentAccountID,omitempty"`
	Description     string             `json:"description"`
	IsActive        bool               `json:"isActive"`
	Balance         decimal.Decimal    `json:"balance"`
}

// ToAccountResponse converts a domain Account to its response DTO.
func ToAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		AccountID:       a.AccountID,
		Code:            a.Code,
		Name:            a.Name,
		AccountType:     a.AccountType,
		NormalBalance:   a.NormalBalance,
		ParentAccountID: a.ParentAccountID,
		Description:     a.Description,
		IsActive:        a.IsActive,
		Balance:         a.Balance,
	}
}

// ToAccountResponses converts a slice of accounts.
func ToAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, len(accounts))
	for i := range accounts {
		out[i] = ToAccountResponse(&accounts[i])
	}
	return out
}
