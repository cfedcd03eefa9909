package mapping

import (
	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/finpost/gl_engine_app/internal/models"
)

// ToModelBatch converts a domain PostingBatch to a model PostingBatch.
func ToModelBatch(d domain.PostingBatch) models.PostingBatch {
	return models.PostingBatch{
		BatchID:          d.BatchID,
		BatchNumber:      d.BatchNumber,
		BatchDate:        d.BatchDate,
		PeriodID:         d.PeriodID,
		Description:      d.Description,
		Status:           models.BatchStatus(d.Status),
		ApproverID:       d.ApproverID,
		DecidedAt:        d.DecidedAt,
		OriginalBatchID:  d.OriginalBatchID,
		ReversingBatchID: d.ReversingBatchID,
		AuditFields:      ToModelAuditFields(d.AuditFields),
	}
}

// ToDomainBatch converts a model PostingBatch to a domain PostingBatch.
func ToDomainBatch(m models.PostingBatch) domain.PostingBatch {
	return domain.PostingBatch{
		BatchID:          m.BatchID,
		BatchNumber:      m.BatchNumber,
		BatchDate:        m.BatchDate,
		PeriodID:         m.PeriodID,
		Description:      m.Description,
		Status:           domain.BatchStatus(m.Status),
		ApproverID:       m.ApproverID,
		DecidedAt:        m.DecidedAt,
		OriginalBatchID:  m.OriginalBatchID,
		ReversingBatchID: m.ReversingBatchID,
		AuditFields:      ToDomainAuditFields(m.AuditFields),
	}
}
