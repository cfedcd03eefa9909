package domain

import "time"

// BatchStatus indicates where a posting batch is in its approval lifecycle.
type BatchStatus string

const (
	BatchDraft    BatchStatus = "DRAFT"
	BatchPending  BatchStatus = "PENDING"
	BatchApproved BatchStatus = "APPROVED"
	BatchPosted   BatchStatus = "POSTED"
	BatchRejected BatchStatus = "REJECTED"
	BatchReversed BatchStatus = "REVERSED"
)

// PostingBatch is a named, approvable group of journal entries posted together.
// Entries are referenced by id; an entry belongs to at most one unposted batch.
type PostingBatch struct {
	BatchID     string      `json:"batchID"`
	BatchNumber string      `json:"batchNumber"` // Unique, user-facing
	BatchDate   time.Time   `json:"batchDate"`
	PeriodID    *string     `json:"periodID,omitempty"`
	Description string      `json:"description"`
	Status      BatchStatus `json:"status"`

	ApproverID *string    `json:"approverID,omitempty"`
	DecidedAt  *time.Time `json:"decidedAt,omitempty"` // When approved or rejected

	// OriginalBatchID is set on the batch holding reversal entries,
	// ReversingBatchID on the batch that got reversed.
	OriginalBatchID  *string `json:"originalBatchID,omitempty"`
	ReversingBatchID *string `json:"reversingBatchID,omitempty"`

	EntryIDs []string `json:"entryIDs,omitempty"` // Often loaded separately, in attach order
	AuditFields
}
