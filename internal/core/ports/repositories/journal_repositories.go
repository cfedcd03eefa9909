package repositories

import (
	"context"
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// JournalEntryReader defines read operations for journal data
type JournalEntryReader interface {
	// FindEntryByID retrieves a specific journal entry by its unique identifier.
	FindEntryByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)

	// FindEntriesByIDs retrieves multiple journal entries by their IDs.
	FindEntriesByIDs(ctx context.Context, journalIDs []string) (map[string]domain.JournalEntry, error)

	// FindLinesByJournalID retrieves all lines of one entry, in line order.
	FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error)

	// FindLinesByJournalIDs retrieves lines for multiple entries, grouped by journal ID.
	FindLinesByJournalIDs(ctx context.Context, journalIDs []string) (map[string][]domain.JournalLine, error)

	// ListEntries retrieves a paginated list of journal entries using token-based pagination.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error)

	// CountDraftLinesForAccount counts lines of Draft entries that reference an account.
	// Used to block deactivation of accounts with pending postings.
	CountDraftLinesForAccount(ctx context.Context, accountID string) (int, error)
}

// JournalEntryWriter defines write operations for journal data
type JournalEntryWriter interface {
	// SaveEntry persists a new draft entry and its lines atomically.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// UpdateEntry updates header fields of a draft entry (date, reference, description).
	UpdateEntry(ctx context.Context, entry domain.JournalEntry) error

	// InsertLine adds a line to a draft entry.
	InsertLine(ctx context.Context, line domain.JournalLine) error

	// UpdateLine rewrites the amounts/account/memo of one draft line.
	UpdateLine(ctx context.Context, line domain.JournalLine) error

	// DeleteLine removes one line from a draft entry.
	DeleteLine(ctx context.Context, journalID, lineID string) error

	// UpdateEntryStatus transitions an entry's status (e.g., Draft -> Rejected).
	UpdateEntryStatus(ctx context.Context, journalID string, status domain.EntryStatus, userID string, now time.Time) error


	// SaveReversal persists a reversal draft and marks the original entry
	// Reversed (with both links set) in one transaction. The reversal carries
	// OriginalJournalID pointing at the entry being reversed.
	SaveReversal(ctx context.Context, reversal domain.JournalEntry, lines []domain.JournalLine, userID string, now time.Time) error

	// PostEntry applies an entry's balance deltas and marks it Posted within a
	// single database transaction: account rows are locked for update (sorted
	// by id), re-checked active, balances updated, running balances stamped on
	// the lines, and the status flipped. On any failure nothing is mutated.
	PostEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, deltas map[string]decimal.Decimal, userID string, now time.Time) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalEntryReader
	JournalEntryWriter
}

// JournalRepositoryWithTx extends JournalRepositoryFacade with transaction capabilities
type JournalRepositoryWithTx interface {
	JournalRepositoryFacade
	TransactionManager
}
