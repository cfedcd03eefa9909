package services

import (
	"context"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/finpost/gl_engine_app/internal/dto"
)

// BatchSvcFacade exposes posting-batch operations.
type BatchSvcFacade interface {
	// CreateBatch creates a Draft batch with a unique batch number.
	CreateBatch(ctx context.Context, req dto.CreateBatchRequest, creatorUserID string) (*domain.PostingBatch, error)

	// GetBatchByID retrieves a batch with its member entry ids.
	GetBatchByID(ctx context.Context, batchID string) (*domain.PostingBatch, error)

	// GetBatchByNumber retrieves a batch by its unique user-facing number.
	GetBatchByNumber(ctx context.Context, batchNumber string) (*domain.PostingBatch, error)

	// ListBatches retrieves a paginated batch list.
	ListBatches(ctx context.Context, params dto.ListBatchesParams) (*dto.ListBatchesResponse, error)

	// AttachEntry adds a Draft entry to a Draft/Pending batch. An entry can
	// belong to at most one unposted batch.
	AttachEntry(ctx context.Context, batchID, journalID string, userID string) error

	// DetachEntry removes an entry from a Draft/Pending batch.
	DetachEntry(ctx context.Context, batchID, journalID string, userID string) error

	// SubmitForApproval transitions Draft -> Pending; fails on empty batches.
	SubmitForApproval(ctx context.Context, batchID string, userID string) (*domain.PostingBatch, error)

	// ApproveBatch transitions Pending -> Approved, recording the approver.
	ApproveBatch(ctx context.Context, batchID string, approverID string) (*domain.PostingBatch, []domain.Event, error)

	// RejectBatch transitions Pending -> Rejected, recording the rejector.
	RejectBatch(ctx context.Context, batchID string, approverID string, reason string) (*domain.PostingBatch, error)

	// PostBatch posts every member entry all-or-nothing: all entries are
	// validated first, then applied together in one transaction.
	PostBatch(ctx context.Context, batchID string, userID string) (*domain.PostingBatch, []domain.Event, error)

	// DeleteBatch removes a Draft/Pending batch with no attached entries.
	DeleteBatch(ctx context.Context, batchID string, userID string) error

	// ReverseBatch reverses a Posted batch by generating reversal drafts for
	// every member entry, grouped into a new Draft batch.
	ReverseBatch(ctx context.Context, batchID string, reason string, userID string) (*domain.PostingBatch, []domain.Event, error)
}
