package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	EntryDraft    EntryStatus = "DRAFT"
	EntryPosted   EntryStatus = "POSTED"
	EntryReversed EntryStatus = "REVERSED"
	EntryRejected EntryStatus = "REJECTED"
)

// EntrySource records where a journal entry originated.
type EntrySource string

const (
	SourceManual    EntrySource = "MANUAL"
	SourceSystem    EntrySource = "SYSTEM"
	SourceRecurring EntrySource = "RECURRING"
)

// JournalLine is a single debit or credit against one account.
// Exactly one of Debit/Credit is nonzero; both are >= 0.
type JournalLine struct {
	LineID    string          `json:"lineID"`
	JournalID string          `json:"journalID"`
	AccountID string          `json:"accountID"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	LineOrder int             `json:"lineOrder"` // Declaration order, kept for the audit trail
	Memo      string          `json:"memo"`
	AuditFields
	RunningBalance decimal.Decimal `json:"runningBalance"` // Account balance after this line posted
}

// JournalEntry represents a single balanced financial event composed of lines.
// Entries begin as drafts and are mutable only while Draft; the balance
// invariant (sum of debits equals sum of credits) is enforced at create and at
// the post boundary, not on every intermediate edit.
type JournalEntry struct {
	JournalID   string      `json:"journalID"`
	JournalDate time.Time   `json:"journalDate"`
	PeriodID    string      `json:"periodID"`
	Reference   string      `json:"reference"`
	Description string      `json:"description"`
	Source      EntrySource `json:"source"`
	Status      EntryStatus `json:"status"`
	BatchID     *string     `json:"batchID,omitempty"` // Set while attached to an unposted batch

	// Reversal linkage. OriginalJournalID is set on the reversal entry,
	// ReversingJournalID on the entry that got reversed.
	OriginalJournalID  *string `json:"originalJournalID,omitempty"`
	ReversingJournalID *string `json:"reversingJournalID,omitempty"`

	Lines []JournalLine `json:"lines,omitempty"` // Often loaded separately
	AuditFields
}

// TotalDebits sums the debit side of the loaded lines.
func (j JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range j.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits sums the credit side of the loaded lines.
func (j JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range j.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced reports whether the loaded lines satisfy the double-entry invariant.
func (j JournalEntry) IsBalanced() bool {
	return j.TotalDebits().Equal(j.TotalCredits())
}
