package repositories

import (
	"context"
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// BatchReader defines read operations for posting-batch data
type BatchReader interface {
	// FindBatchByID retrieves a specific batch by its unique identifier.
	FindBatchByID(ctx context.Context, batchID string) (*domain.PostingBatch, error)

	// FindBatchByNumber retrieves a batch by its unique batch number.
	FindBatchByNumber(ctx context.Context, batchNumber string) (*domain.PostingBatch, error)

	// FindEntryIDsByBatchID retrieves the member entry ids of a batch, in attach order.
	FindEntryIDsByBatchID(ctx context.Context, batchID string) ([]string, error)

	// ListBatches retrieves a paginated list of batches using token-based pagination.
	ListBatches(ctx context.Context, limit int, nextToken *string) ([]domain.PostingBatch, *string, error)
}

// BatchWriter defines write operations for posting-batch data
type BatchWriter interface {
	// SaveBatch persists a new batch.
	SaveBatch(ctx context.Context, batch domain.PostingBatch) error

	// UpdateBatchStatus transitions a batch's status, recording the approver
	// decision when one was made.
	UpdateBatchStatus(ctx context.Context, batchID string, status domain.BatchStatus, approverID *string, decidedAt *time.Time, userID string, now time.Time) error


	// AttachEntry assigns a draft entry to the batch. Fails with a conflict if
	// the entry is already attached to another unposted batch.
	AttachEntry(ctx context.Context, batchID, journalID string, userID string, now time.Time) error

	// DetachEntry removes an entry from the batch.
	DetachEntry(ctx context.Context, batchID, journalID string, userID string, now time.Time) error

	// DeleteBatch removes an empty Draft/Pending batch.
	DeleteBatch(ctx context.Context, batchID string) error

	// PostBatch applies every member entry's deltas and marks all entries plus
	// the batch Posted inside one database transaction. Touched account rows
	// are locked for update in sorted-id order first; any failure rolls the
	// whole batch back, leaving entries, batch and balances untouched.
	PostBatch(ctx context.Context, batch domain.PostingBatch, entries []domain.JournalEntry, linesByEntry map[string][]domain.JournalLine, deltas map[string]decimal.Decimal, userID string, now time.Time) error

	// SaveReversalBatch persists a reversal batch and its draft entries, marks
	// every original entry Reversed and links the original batch to its
	// reversal, all in one transaction. Each reversal entry carries
	// OriginalJournalID, and the batch carries OriginalBatchID.
	SaveReversalBatch(ctx context.Context, batch domain.PostingBatch, entries []domain.JournalEntry, linesByEntry map[string][]domain.JournalLine, userID string, now time.Time) error
}

// BatchRepositoryFacade combines all batch-related repository interfaces
type BatchRepositoryFacade interface {
	BatchReader
	BatchWriter
}

// BatchRepositoryWithTx extends BatchRepositoryFacade with transaction capabilities
type BatchRepositoryWithTx interface {
	BatchRepositoryFacade
	TransactionManager
}
