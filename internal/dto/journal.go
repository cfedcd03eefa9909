package dto

import (
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateLineRequest is one debit or credit within a new or edited entry.
// Exactly one of Debit/Credit must be positive; the other stays zero.
type CreateLineRequest struct {
	AccountID string          `json:"accountID" binding:"required"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Memo      string          `json:"memo"`
}

// CreateEntryRequest creates a draft journal entry.
// PeriodID may be omitted; the service then resolves the period from Date.
type CreateEntryRequest struct {
	Date        time.Time           `json:"date" binding:"required"`
	PeriodID    string              `json:"periodID"`
	Reference   string              `json:"reference"`
	Description string              `json:"description" binding:"required"`
	Source      domain.EntrySource  `json:"source" binding:"omitempty,oneof=MANUAL SYSTEM RECURRING"`
	Lines       []CreateLineRequest `json:"lines" binding:"required,min=2,dive"`
}

// UpdateEntryRequest updates header fields of a draft entry. Nil fields are unchanged.
type UpdateEntryRequest struct {
	Date        *time.Time `json:"date,omitempty"`
	Reference   *string    `json:"reference,omitempty"`
	Description *string    `json:"description,omitempty"`
}

// UpdateLineRequest rewrites one draft line.
type UpdateLineRequest struct {
	AccountID *string          `json:"accountID,omitempty"`
	Debit     *decimal.Decimal `json:"debit,omitempty"`
	Credit    *decimal.Decimal `json:"credit,omitempty"`
	Memo      *string          `json:"memo,omitempty"`
}

// RejectEntryRequest rejects a draft entry with a reason.
type RejectEntryRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReverseEntryRequest generates the reversal draft for a posted entry.
type ReverseEntryRequest struct {
	ReversalDate time.Time `json:"reversalDate" binding:"required"`
}

// ListEntriesParams controls entry listing.
type ListEntriesParams struct {
	Limit            int     `form:"limit"`
	NextToken        *string `form:"nextToken"`
	IncludeReversals bool    `form:"includeReversals"`
	IncludeLines     bool    `form:"includeLines"`
}

// LineResponse is the API shape of a journal line.
type LineResponse struct {
	LineID         string          `json:"lineID"`
	AccountID      string          `json:"accountID"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	LineOrder      int             `json:"lineOrder"`
	Memo           string          `json:"memo,omitempty"`
	RunningBalance decimal.Decimal `json:"runningBalance"`
}

// EntryResponse is the API shape of a journal entry.
// IsBalanced lets clients surface a "currently unbalanced" indicator on
// drafts without blocking further edits.
type EntryResponse struct {
	JournalID          string             `json:"journalID"`
	JournalDate        time.Time          `json:"journalDate"`
	PeriodID           string             `json:"periodID"`
	Reference          string             `json:"reference,omitempty"`
	Description        string             `json:"description"`
	Source             domain.EntrySource `json:"source"`
	Status             domain.EntryStatus `json:"status"`
	BatchID            *string            `json:"batchID,omitempty"`
	OriginalJournalID  *string            `json:"originalJournalID,omitempty"`
	ReversingJournalID *string            `json:"reversingJournalID,omitempty"`
	IsBalanced         bool               `json:"isBalanced"`
	Lines              []LineResponse     `json:"lines,omitempty"`
}

// ListEntriesResponse is a page of entries plus the cursor for the next page.
type ListEntriesResponse struct {
	Entries   []EntryResponse `json:"entries"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToLineResponse converts a domain line to its response DTO.
func ToLineResponse(l domain.JournalLine) LineResponse {
	return LineResponse{
		LineID:         l.LineID,
		AccountID:      l.AccountID,
		Debit:          l.Debit,
		Credit:         l.Credit,
		LineOrder:      l.LineOrder,
		Memo:           l.Memo,
		RunningBalance: l.RunningBalance,
	}
}

// ToEntryResponse converts a domain entry (with whatever lines are loaded)
// to its response DTO.
func ToEntryResponse(e *domain.JournalEntry) EntryResponse {
	resp := EntryResponse{
		JournalID:          e.JournalID,
		JournalDate:        e.JournalDate,
		PeriodID:           e.PeriodID,
		Reference:          e.Reference,
		Description:        e.Description,
		Source:             e.Source,
		Status:             e.Status,
		BatchID:            e.BatchID,
		OriginalJournalID:  e.OriginalJournalID,
		ReversingJournalID: e.ReversingJournalID,
		IsBalanced:         e.IsBalanced(),
	}
	if len(e.Lines) > 0 {
		resp.Lines = make([]LineResponse, len(e.Lines))
		for i, l := range e.Lines {
			resp.Lines[i] = ToLineResponse(l)
		}
	}
	return resp
}
