package dto

import (
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
)

// CreateBatchRequest creates a draft posting batch.
type CreateBatchRequest struct {
	BatchNumber string    `json:"batchNumber" binding:"required"`
	BatchDate   time.Time `json:"batchDate" binding:"required"`
	PeriodID    *string   `json:"periodID,omitempty"`
	Description string    `json:"description"`
}

// AttachEntryRequest attaches a draft journal entry to a batch.
type AttachEntryRequest struct {
	JournalID string `json:"journalID" binding:"required"`
}

// RejectBatchRequest rejects a pending batch with a reason.
type RejectBatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ReverseBatchRequest reverses a posted batch with a reason.
type ReverseBatchRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListBatchesParams controls batch listing.
type ListBatchesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// BatchResponse is the API shape of a posting batch.
type BatchResponse struct {
	BatchID          string             `json:"batchID"`
	BatchNumber      string             `json:"batchNumber"`
	BatchDate        time.Time          `json:"batchDate"`
	PeriodID         *string            `json:"periodID,omitempty"`
	Description      string             `json:"description,omitempty"`
	Status           domain.BatchStatus `json:"status"`
	ApproverID       *string            `json:"approverID,omitempty"`
	DecidedAt        *time.Time         `json:"decidedAt,omitempty"`
	OriginalBatchID  *string            `json:"originalBatchID,omitempty"`
	ReversingBatchID *string            `json:"reversingBatchID,omitempty"`
	EntryIDs         []string           `json:"entryIDs,omitempty"`
}

// ListBatchesResponse is a page of batches plus the cursor for the next page.
type ListBatchesResponse struct {
	Batches   []BatchResponse `json:"batches"`
	NextToken *string         `json:"nextToken,omitempty"`
}

// ToBatchResponse converts a domain batch to its response DTO.
func ToBatchResponse(b *domain.PostingBatch) BatchResponse {
	return BatchResponse{
		BatchID:          b.BatchID,
		BatchNumber:      b.BatchNumber,
		BatchDate:        b.BatchDate,
		PeriodID:         b.PeriodID,
		Description:      b.Description,
		Status:           b.Status,
		ApproverID:       b.ApproverID,
		DecidedAt:        b.DecidedAt,
		OriginalBatchID:  b.OriginalBatchID,
		ReversingBatchID: b.ReversingBatchID,
		EntryIDs:         b.EntryIDs,
	}
}

// ToBatchResponses converts a slice of batches.
func ToBatchResponses(batches []domain.PostingBatch) []BatchResponse {
	out := make([]BatchResponse, len(batches))
	for i := range batches {
		out[i] = ToBatchResponse(&batches[i])
	}
	return out
}
