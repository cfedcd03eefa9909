package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

// EntrySource records where a journal entry originated.
type EntrySource string

// JournalEntry represents a journal header row.
type JournalEntry struct {
	JournalID          string      `db:"journal_id"`
	JournalDate        time.Time   `db:"journal_date"`
	PeriodID           string      `db:"period_id"`
	Reference          string      `db:"reference"`
	Description        string      `db:"description"`
	Source             EntrySource `db:"source"`
	Status             EntryStatus `db:"status"`
	BatchID            *string     `db:"batch_id"`
	OriginalJournalID  *string     `db:"original_journal_id"`
	ReversingJournalID *string     `db:"reversing_journal_id"`
	AuditFields
}

// JournalLine represents one debit/credit row within a journal entry.
type JournalLine struct {
	LineID    string          `db:"line_id"`
	JournalID string          `db:"journal_id"`
	AccountID string          `db:"account_id"`
	Debit     decimal.Decimal `db:"debit"`
	Credit    decimal.Decimal `db:"credit"`
	LineOrder int             `db:"line_order"`
	Memo      string          `db:"memo"`
	AuditFields
	RunningBalance decimal.Decimal `db:"running_balance"`
}
