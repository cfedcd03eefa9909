package models

import "time"

// BatchStatus indicates where a posting batch is in its approval lifecycle.
type BatchStatus string

// PostingBatch represents a posting-batch row.
type PostingBatch struct {
	BatchID          string      `db:"batch_id"`
	BatchNumber      string      `db:"batch_number"`
	BatchDate        time.Time   `db:"batch_date"`
	PeriodID         *string     `db:"period_id"`
	Description      string      `db:"description"`
	Status           BatchStatus `db:"status"`
	ApproverID       *string     `db:"approver_id"`
	DecidedAt        *time.Time  `db:"decided_at"`
	OriginalBatchID  *string     `db:"original_batch_id"`
	ReversingBatchID *string     `db:"reversing_batch_id"`
	AuditFields
}
