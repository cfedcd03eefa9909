package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/domain"
	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/finpost/gl_engine_app/internal/middleware"
	"github.com/finpost/gl_engine_app/internal/utils/accounting"
)

var (
	ErrBatchEmpty           = errors.New("posting batch has no journal entries")
	ErrBatchNotEmpty        = errors.New("posting batch still has journal entries attached")
	ErrBatchNotOpen         = errors.New("posting batch no longer accepts membership changes")
	ErrBatchTransition      = errors.New("invalid posting batch status transition")
	ErrBatchAlreadyReversed = errors.New("posting batch already has a reversal")
	ErrEntryAlreadyBatched  = errors.New("journal entry is already attached to a batch")
	ErrEntryNotInBatch      = errors.New("journal entry is not attached to this batch")
)

// batchService provides posting-batch lifecycle operations.
type batchService struct {
	batchRepo   portsrepo.BatchRepositoryWithTx
	journalRepo portsrepo.JournalRepositoryWithTx
	periodSvc   portssvc.PeriodSvcFacade
	validator   *postingValidator
}

// NewBatchService creates a new BatchService.
func NewBatchService(batchRepo portsrepo.BatchRepositoryWithTx, journalRepo portsrepo.JournalRepositoryWithTx, accountSvc portssvc.AccountSvcFacade, periodSvc portssvc.PeriodSvcFacade) portssvc.BatchSvcFacade {
	return &batchService{
		batchRepo:   batchRepo,
		journalRepo: journalRepo,
		periodSvc:   periodSvc,
		validator:   newPostingValidator(accountSvc, periodSvc),
	}
}

// Ensure batchService implements the portssvc.BatchSvcFacade interface
var _ portssvc.BatchSvcFacade = (*batchService)(nil)

func (s *batchService) CreateBatch(ctx context.Context, req dto.CreateBatchRequest, creatorUserID string) (*domain.PostingBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.PeriodID != nil {
		if _, err := s.periodSvc.GetPeriodByID(ctx, *req.PeriodID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	batch := domain.PostingBatch{
		BatchID:     uuid.NewString(),
		BatchNumber: strings.TrimSpace(req.BatchNumber),
		BatchDate:   req.BatchDate,
		PeriodID:    req.PeriodID,
		Description: req.Description,
		Status:      domain.BatchDraft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.batchRepo.SaveBatch(ctx, batch); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			logger.Warn("Duplicate batch number", slog.String("batch_number", batch.BatchNumber))
			return nil, fmt.Errorf("batch number %s already exists: %w", batch.BatchNumber, err)
		}
		logger.Error("Failed to save batch", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}

	logger.Info("Posting batch created", slog.String("batch_id", batch.BatchID), slog.String("batch_number", batch.BatchNumber))
	return &batch, nil
}

func (s *batchService) GetBatchByID(ctx context.Context, batchID string) (*domain.PostingBatch, error) {
	batch, err := s.batchRepo.FindBatchByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("batch %s not found: %w", batchID, err)
		}
		return nil, fmt.Errorf("failed to find batch %s: %w", batchID, err)
	}

	entryIDs, err := s.batchRepo.FindEntryIDsByBatchID(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries of batch %s: %w", batchID, err)
	}
	batch.EntryIDs = entryIDs
	return batch, nil
}

func (s *batchService) GetBatchByNumber(ctx context.Context, batchNumber string) (*domain.PostingBatch, error) {
	batch, err := s.batchRepo.FindBatchByNumber(ctx, batchNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("batch %s not found: %w", batchNumber, err)
		}
		return nil, fmt.Errorf("failed to find batch %s: %w", batchNumber, err)
	}

	entryIDs, err := s.batchRepo.FindEntryIDsByBatchID(ctx, batch.BatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries of batch %s: %w", batch.BatchID, err)
	}
	batch.EntryIDs = entryIDs
	return batch, nil
}

func (s *batchService) ListBatches(ctx context.Context, params dto.ListBatchesParams) (*dto.ListBatchesResponse, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	batches, nextToken, err := s.batchRepo.ListBatches(ctx, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return &dto.ListBatchesResponse{
		Batches:   dto.ToBatchResponses(batches),
		NextToken: nextToken,
	}, nil
}

// batchAcceptsMembers reports whether attach/detach is still allowed.
func batchAcceptsMembers(status domain.BatchStatus) bool {
	return status == domain.BatchDraft || status == domain.BatchPending
}

func (s *batchService) AttachEntry(ctx context.Context, batchID, journalID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return err
	}
	if !batchAcceptsMembers(batch.Status) {
		return fmt.Errorf("%w: batch %s is %s", ErrBatchNotOpen, batchID, batch.Status)
	}

	entry, err := s.journalRepo.FindEntryByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("journal entry %s not found: %w", journalID, err)
		}
		return fmt.Errorf("failed to find journal entry %s: %w", journalID, err)
	}
	if entry.Status != domain.EntryDraft {
		return fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, journalID, entry.Status)
	}
	if entry.BatchID != nil {
		if *entry.BatchID == batchID {
			return nil // already a member, attach is idempotent
		}
		return fmt.Errorf("%w: entry %s is in batch %s", ErrEntryAlreadyBatched, journalID, *entry.BatchID)
	}

	if err := s.batchRepo.AttachEntry(ctx, batchID, journalID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to attach entry to batch", slog.String("error", err.Error()), slog.String("batch_id", batchID), slog.String("journal_id", journalID))
		return fmt.Errorf("failed to attach entry %s to batch %s: %w", journalID, batchID, err)
	}

	logger.Info("Entry attached to batch", slog.String("batch_id", batchID), slog.String("journal_id", journalID))
	return nil
}

func (s *batchService) DetachEntry(ctx context.Context, batchID, journalID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return err
	}
	if !batchAcceptsMembers(batch.Status) {
		return fmt.Errorf("%w: batch %s is %s", ErrBatchNotOpen, batchID, batch.Status)
	}

	entry, err := s.journalRepo.FindEntryByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("journal entry %s not found: %w", journalID, err)
		}
		return fmt.Errorf("failed to find journal entry %s: %w", journalID, err)
	}
	if entry.BatchID == nil || *entry.BatchID != batchID {
		return fmt.Errorf("%w: entry %s", ErrEntryNotInBatch, journalID)
	}

	if err := s.batchRepo.DetachEntry(ctx, batchID, journalID, userID, time.Now().UTC()); err != nil {
		logger.Error("Failed to detach entry from batch", slog.String("error", err.Error()), slog.String("batch_id", batchID), slog.String("journal_id", journalID))
		return fmt.Errorf("failed to detach entry %s from batch %s: %w", journalID, batchID, err)
	}

	logger.Info("Entry detached from batch", slog.String("batch_id", batchID), slog.String("journal_id", journalID))
	return nil
}

func (s *batchService) SubmitForApproval(ctx context.Context, batchID string, userID string) (*domain.PostingBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != domain.BatchDraft {
		return nil, fmt.Errorf("%w: cannot submit a %s batch", ErrBatchTransition, batch.Status)
	}
	if len(batch.EntryIDs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBatchEmpty, batch.BatchNumber)
	}

	now := time.Now().UTC()
	if err := s.batchRepo.UpdateBatchStatus(ctx, batchID, domain.BatchPending, nil, nil, userID, now); err != nil {
		logger.Error("Failed to submit batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		return nil, fmt.Errorf("failed to submit batch %s: %w", batchID, err)
	}

	batch.Status = domain.BatchPending
	batch.LastUpdatedAt = now
	batch.LastUpdatedBy = userID

	logger.Info("Batch submitted for approval", slog.String("batch_id", batchID), slog.Int("entries", len(batch.EntryIDs)))
	return batch, nil
}

func (s *batchService) ApproveBatch(ctx context.Context, batchID string, approverID string) (*domain.PostingBatch, []domain.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if batch.Status != domain.BatchPending {
		return nil, nil, fmt.Errorf("%w: cannot approve a %s batch", ErrBatchTransition, batch.Status)
	}

	now := time.Now().UTC()
	if err := s.batchRepo.UpdateBatchStatus(ctx, batchID, domain.BatchApproved, &approverID, &now, approverID, now); err != nil {
		logger.Error("Failed to approve batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		return nil, nil, fmt.Errorf("failed to approve batch %s: %w", batchID, err)
	}

	batch.Status = domain.BatchApproved
	batch.ApproverID = &approverID
	batch.DecidedAt = &now
	batch.LastUpdatedAt = now
	batch.LastUpdatedBy = approverID

	logger.Info("Batch approved", slog.String("batch_id", batchID), slog.String("approver_id", approverID))
	events := []domain.Event{domain.PostingBatchApproved{
		BatchID:    batchID,
		ApproverID: approverID,
		OccurredAt: now,
	}}
	return batch, events, nil
}

func (s *batchService) RejectBatch(ctx context.Context, batchID string, approverID string, reason string) (*domain.PostingBatch, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("a reason is required to reject a batch")
	}

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status != domain.BatchPending {
		return nil, fmt.Errorf("%w: cannot reject a %s batch", ErrBatchTransition, batch.Status)
	}

	now := time.Now().UTC()
	if err := s.batchRepo.UpdateBatchStatus(ctx, batchID, domain.BatchRejected, &approverID, &now, approverID, now); err != nil {
		logger.Error("Failed to reject batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		return nil, fmt.Errorf("failed to reject batch %s: %w", batchID, err)
	}

	batch.Status = domain.BatchRejected
	batch.ApproverID = &approverID
	batch.DecidedAt = &now
	batch.LastUpdatedAt = now
	batch.LastUpdatedBy = approverID

	logger.Info("Batch rejected", slog.String("batch_id", batchID), slog.String("approver_id", approverID), slog.String("reason", reason))
	return batch, nil
}

// PostBatch posts every member entry all-or-nothing. Phase one validates
// each entry without touching anything; phase two hands the whole set to the
// repository, which applies it in one transaction. One bad entry fails the
// whole batch with the offending entry named in the error.
func (s *batchService) PostBatch(ctx context.Context, batchID string, userID string) (*domain.PostingBatch, []domain.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if batch.Status != domain.BatchApproved {
		return nil, nil, fmt.Errorf("%w: cannot post a %s batch", ErrBatchTransition, batch.Status)
	}
	if len(batch.EntryIDs) == 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrBatchEmpty, batch.BatchNumber)
	}

	entriesByID, err := s.journalRepo.FindEntriesByIDs(ctx, batch.EntryIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch entries of batch %s: %w", batchID, err)
	}
	linesByEntry, err := s.journalRepo.FindLinesByJournalIDs(ctx, batch.EntryIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch lines of batch %s: %w", batchID, err)
	}

	now := time.Now().UTC()
	entries := make([]domain.JournalEntry, 0, len(batch.EntryIDs))
	merged := make(map[string]decimal.Decimal)
	perEntry := make(map[string]map[string]decimal.Decimal, len(batch.EntryIDs))

	for _, journalID := range batch.EntryIDs {
		entry, ok := entriesByID[journalID]
		if !ok {
			return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("entry %s of batch %s not found", journalID, batchID))
		}
		if entry.Status != domain.EntryDraft {
			return nil, nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, journalID, entry.Status)
		}

		deltas, err := s.validator.validateEntry(ctx, &entry, linesByEntry[journalID])
		if err != nil {
			logger.Warn("Batch entry failed posting validation", slog.String("batch_id", batchID), slog.String("journal_id", journalID), slog.String("error", err.Error()))
			return nil, nil, err
		}
		merged = accounting.MergeDeltas(merged, deltas)
		perEntry[journalID] = deltas
		entries = append(entries, entry)
	}

	if err := s.batchRepo.PostBatch(ctx, *batch, entries, linesByEntry, merged, userID, now); err != nil {
		logger.Error("Failed to post batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		return nil, nil, fmt.Errorf("failed to post batch %s: %w", batchID, err)
	}

	batch.Status = domain.BatchPosted
	batch.LastUpdatedAt = now
	batch.LastUpdatedBy = userID

	logger.Info("Batch posted", slog.String("batch_id", batchID), slog.Int("entries", len(entries)), slog.Int("accounts_touched", len(merged)))

	events := make([]domain.Event, 0, len(entries)+1)
	for _, entry := range entries {
		events = append(events, domain.JournalEntryPosted{
			JournalID:  entry.JournalID,
			PeriodID:   entry.PeriodID,
			BatchID:    &batch.BatchID,
			Deltas:     perEntry[entry.JournalID],
			OccurredAt: now,
		})
	}
	events = append(events, domain.PostingBatchPosted{
		BatchID:    batchID,
		EntryIDs:   batch.EntryIDs,
		Deltas:     merged,
		OccurredAt: now,
	})
	return batch, events, nil
}

func (s *batchService) DeleteBatch(ctx context.Context, batchID string, userID string) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return err
	}
	if !batchAcceptsMembers(batch.Status) {
		return fmt.Errorf("%w: cannot delete a %s batch", ErrBatchTransition, batch.Status)
	}
	if len(batch.EntryIDs) > 0 {
		return fmt.Errorf("%w: %d entries still attached", ErrBatchNotEmpty, len(batch.EntryIDs))
	}

	if err := s.batchRepo.DeleteBatch(ctx, batchID); err != nil {
		logger.Error("Failed to delete batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		return fmt.Errorf("failed to delete batch %s: %w", batchID, err)
	}

	logger.Info("Batch deleted", slog.String("batch_id", batchID), slog.String("deleted_by", userID))
	return nil
}

// ReverseBatch mirrors every member entry of a posted batch into a new Draft
// batch of reversal entries. Nothing moves until the reversal batch goes
// through its own approve-and-post cycle.
func (s *batchService) ReverseBatch(ctx context.Context, batchID string, reason string, userID string) (*domain.PostingBatch, []domain.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, nil, apperrors.NewValidationError("a reason is required to reverse a batch")
	}

	batch, err := s.GetBatchByID(ctx, batchID)
	if err != nil {
		return nil, nil, err
	}
	if batch.Status != domain.BatchPosted {
		return nil, nil, fmt.Errorf("%w: cannot reverse a %s batch", ErrBatchTransition, batch.Status)
	}
	if batch.ReversingBatchID != nil {
		return nil, nil, fmt.Errorf("%w: batch %s reversed by %s", ErrBatchAlreadyReversed, batchID, *batch.ReversingBatchID)
	}

	entriesByID, err := s.journalRepo.FindEntriesByIDs(ctx, batch.EntryIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch entries of batch %s: %w", batchID, err)
	}
	linesByEntry, err := s.journalRepo.FindLinesByJournalIDs(ctx, batch.EntryIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch lines of batch %s: %w", batchID, err)
	}

	for _, journalID := range batch.EntryIDs {
		entry, ok := entriesByID[journalID]
		if !ok {
			return nil, nil, apperrors.NewNotFoundError(fmt.Sprintf("entry %s of batch %s not found", journalID, batchID))
		}
		if entry.Status != domain.EntryPosted {
			return nil, nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotPosted, journalID, entry.Status)
		}
		if entry.ReversingJournalID != nil {
			return nil, nil, fmt.Errorf("%w: entry %s reversed by %s", ErrEntryAlreadyReversed, journalID, *entry.ReversingJournalID)
		}
	}

	now := time.Now().UTC()

	// Reversal drafts are dated today, not on the originals' dates, so they
	// must land in the period that is open now. The originals' periods may
	// have closed since posting.
	period, err := s.periodSvc.ResolveOpenPeriodForDate(ctx, now)
	if err != nil {
		logger.Warn("No open period for batch reversal date", slog.String("batch_id", batchID), slog.String("error", err.Error()))
		return nil, nil, err
	}

	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	reversalBatchID := uuid.NewString()
	reversalBatch := domain.PostingBatch{
		BatchID:         reversalBatchID,
		BatchNumber:     batch.BatchNumber + "-REV",
		BatchDate:       now,
		PeriodID:        &period.PeriodID,
		Description:     fmt.Sprintf("Reversal of batch %s: %s", batch.BatchNumber, reason),
		Status:          domain.BatchDraft,
		OriginalBatchID: &batchID,
		AuditFields:     audit,
	}

	reversals := make([]domain.JournalEntry, 0, len(batch.EntryIDs))
	reversalLines := make(map[string][]domain.JournalLine, len(batch.EntryIDs))
	events := make([]domain.Event, 0, len(batch.EntryIDs))

	for _, journalID := range batch.EntryIDs {
		original := entriesByID[journalID]
		reversalID := uuid.NewString()

		lines := make([]domain.JournalLine, len(linesByEntry[journalID]))
		for i, orig := range linesByEntry[journalID] {
			lines[i] = domain.JournalLine{
				LineID:      uuid.NewString(),
				JournalID:   reversalID,
				AccountID:   orig.AccountID,
				Debit:       orig.Credit,
				Credit:      orig.Debit,
				LineOrder:   orig.LineOrder,
				Memo:        orig.Memo,
				AuditFields: audit,
			}
		}

		origID := journalID
		reversals = append(reversals, domain.JournalEntry{
			JournalID:         reversalID,
			JournalDate:       now,
			PeriodID:          period.PeriodID,
			Reference:         original.Reference,
			Description:       fmt.Sprintf("Reversal of: %s", original.Description),
			Source:            domain.SourceSystem,
			Status:            domain.EntryDraft,
			BatchID:           &reversalBatchID,
			OriginalJournalID: &origID,
			Lines:             lines,
			AuditFields:       audit,
		})
		reversalLines[reversalID] = lines
		events = append(events, domain.JournalEntryReversed{
			JournalID:          journalID,
			ReversingJournalID: reversalID,
			OccurredAt:         now,
		})
	}

	if err := s.batchRepo.SaveReversalBatch(ctx, reversalBatch, reversals, reversalLines, userID, now); err != nil {
		logger.Error("Failed to save reversal batch", slog.String("error", err.Error()), slog.String("batch_id", batchID))
		return nil, nil, fmt.Errorf("failed to save reversal of batch %s: %w", batchID, err)
	}

	reversalBatch.EntryIDs = make([]string, len(reversals))
	for i := range reversals {
		reversalBatch.EntryIDs[i] = reversals[i].JournalID
	}

	logger.Info("Batch reversed", slog.String("batch_id", batchID), slog.String("reversing_batch_id", reversalBatchID), slog.String("reason", reason))
	return &reversalBatch, events, nil
}
