package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is a domain event produced by a successful ledger operation.
// Services return events to the caller; the composition root decides where
// they go. There is no hidden pub-sub inside the core.
type Event interface {
	EventName() string
}

// JournalEntryPosted is emitted when an entry's deltas have been applied.
type JournalEntryPosted struct {
	JournalID  string
	PeriodID   string
	BatchID    *string
	Deltas     map[string]decimal.Decimal // Signed balance change per account id
	OccurredAt time.Time
}

func (JournalEntryPosted) EventName() string { return "ledger.journal_entry.posted" }

// JournalEntryReversed is emitted when a reversal draft has been generated
// and the original entry marked Reversed.
type JournalEntryReversed struct {
	JournalID          string // The original, now-Reversed entry
	ReversingJournalID string // The new draft carrying the mirrored lines
	OccurredAt         time.Time
}

func (JournalEntryReversed) EventName() string { return "ledger.journal_entry.reversed" }

// PostingBatchApproved is emitted when a pending batch is approved.
type PostingBatchApproved struct {
	BatchID    string
	ApproverID string
	OccurredAt time.Time
}

func (PostingBatchApproved) EventName() string { return "ledger.posting_batch.approved" }

// PostingBatchPosted is emitted once every member entry of a batch has posted.
type PostingBatchPosted struct {
	BatchID    string
	EntryIDs   []string
	Deltas     map[string]decimal.Decimal // Net signed change per account id across the batch
	OccurredAt time.Time
}

func (PostingBatchPosted) EventName() string { return "ledger.posting_batch.posted" }

// AccountingPeriodClosed is emitted when a period transitions to Closed.
type AccountingPeriodClosed struct {
	PeriodID   string
	FiscalYear int
	OccurredAt time.Time
}

func (AccountingPeriodClosed) EventName() string { return "ledger.accounting_period.closed" }
