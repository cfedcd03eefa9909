package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/domain"
	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
	"github.com/finpost/gl_engine_app/internal/dto"
	"github.com/finpost/gl_engine_app/internal/middleware"
	"github.com/finpost/gl_engine_app/internal/utils/accounting"
)

var (
	ErrEntryUnbalanced      = errors.New("journal entry debits and credits do not balance")
	ErrEntryMinLines        = errors.New("journal entry must have at least two lines")
	ErrEntryNotDraft        = errors.New("journal entry is not in draft status")
	ErrEntryNotPosted       = errors.New("journal entry is not posted")
	ErrEntryAlreadyReversed = errors.New("journal entry already has a reversal")
	ErrEntryIsReversal      = errors.New("reversal entries cannot themselves be reversed")
	ErrEntryInBatch         = errors.New("journal entry belongs to a batch and must be posted through it")
	ErrDescriptionMissing   = errors.New("journal entry description is required")
)

// journalService provides journal-entry lifecycle and posting operations.
type journalService struct {
	journalRepo portsrepo.JournalRepositoryWithTx
	accountSvc  portssvc.AccountSvcFacade
	periodSvc   portssvc.PeriodSvcFacade
	validator   *postingValidator
}

// NewJournalService creates a new JournalService.
func NewJournalService(journalRepo portsrepo.JournalRepositoryWithTx, accountSvc portssvc.AccountSvcFacade, periodSvc portssvc.PeriodSvcFacade) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
		periodSvc:   periodSvc,
		validator:   newPostingValidator(accountSvc, periodSvc),
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// resolvePeriod picks the entry's period: the explicit one when given (the
// date must fall inside it), otherwise the open period covering the date.
func (s *journalService) resolvePeriod(ctx context.Context, periodID string, date time.Time) (*domain.AccountingPeriod, error) {
	if periodID == "" {
		return s.periodSvc.ResolveOpenPeriodForDate(ctx, date)
	}
	period, err := s.periodSvc.GetPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !period.Contains(date) {
		return nil, apperrors.NewValidationError(fmt.Sprintf("entry date %s falls outside period %s", date.Format("2006-01-02"), period.Name))
	}
	return period, nil
}

func (s *journalService) CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(req.Description) == "" {
		return nil, ErrDescriptionMissing
	}

	period, err := s.resolvePeriod(ctx, req.PeriodID, req.Date)
	if err != nil {
		logger.Warn("Failed to resolve period for new entry", slog.String("error", err.Error()))
		return nil, err
	}

	source := req.Source
	if source == "" {
		source = domain.SourceManual
	}

	now := time.Now().UTC()
	journalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     creatorUserID,
		LastUpdatedAt: now,
		LastUpdatedBy: creatorUserID,
	}

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, reqLine := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			JournalID:   journalID,
			AccountID:   reqLine.AccountID,
			Debit:       reqLine.Debit,
			Credit:      reqLine.Credit,
			LineOrder:   i + 1,
			Memo:        reqLine.Memo,
			AuditFields: audit,
		}
	}

	// New entries must arrive balanced; only line edits on an existing draft
	// may leave it transiently unbalanced.
	if err := s.validator.checkBalance(journalID, lines); err != nil {
		return nil, err
	}

	accountIDs := uniqueAccountIDs(lines)
	accounts, err := s.accountSvc.GetAccountsByIDs(ctx, accountIDs)
	if err != nil {
		logger.Error("Failed to fetch accounts for entry creation", slog.String("error", err.Error()))
		return nil, err
	}
	for _, id := range accountIDs {
		acc, ok := accounts[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
		}
		if !acc.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrAccountInactive, acc.Code)
		}
	}

	entry := domain.JournalEntry{
		JournalID:   journalID,
		JournalDate: req.Date,
		PeriodID:    period.PeriodID,
		Reference:   strings.TrimSpace(req.Reference),
		Description: strings.TrimSpace(req.Description),
		Source:      source,
		Status:      domain.EntryDraft,
		Lines:       lines,
		AuditFields: audit,
	}

	if err := s.journalRepo.SaveEntry(ctx, entry, lines); err != nil {
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	logger.Info("Journal entry created", slog.String("journal_id", journalID), slog.String("period_id", period.PeriodID), slog.Int("lines", len(lines)))
	return &entry, nil
}

func (s *journalService) GetEntryByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	entry, err := s.journalRepo.FindEntryByID(ctx, journalID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("journal entry %s not found: %w", journalID, err)
		}
		return nil, fmt.Errorf("failed to find journal entry %s: %w", journalID, err)
	}

	lines, err := s.journalRepo.FindLinesByJournalID(ctx, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch lines for entry %s: %w", journalID, err)
	}
	entry.Lines = lines
	return entry, nil
}

func (s *journalService) ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	entries, nextToken, err := s.journalRepo.ListEntries(ctx, limit, params.NextToken, params.IncludeReversals)
	if err != nil {
		logger.Error("Failed to list journal entries", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	if params.IncludeLines && len(entries) > 0 {
		ids := make([]string, len(entries))
		for i := range entries {
			ids[i] = entries[i].JournalID
		}
		linesByID, err := s.journalRepo.FindLinesByJournalIDs(ctx, ids)
		if err != nil {
			logger.Warn("Failed to fetch lines for listed entries", slog.String("error", err.Error()))
		} else {
			for i := range entries {
				entries[i].Lines = linesByID[entries[i].JournalID]
			}
		}
	}

	resp := &dto.ListEntriesResponse{
		Entries:   make([]dto.EntryResponse, len(entries)),
		NextToken: nextToken,
	}
	for i := range entries {
		resp.Entries[i] = dto.ToEntryResponse(&entries[i])
	}
	return resp, nil
}

// requireDraft loads an entry with lines and fails unless it is still Draft.
func (s *journalService) requireDraft(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	entry, err := s.GetEntryByID(ctx, journalID)
	if err != nil {
		return nil, err
	}
	if entry.Status != domain.EntryDraft {
		return nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, journalID, entry.Status)
	}
	return entry, nil
}

func (s *journalService) UpdateEntry(ctx context.Context, journalID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.requireDraft(ctx, journalID)
	if err != nil {
		return nil, err
	}

	if req.Date != nil {
		// A new date re-resolves the period so the draft never points at a
		// period that no longer covers it.
		period, err := s.resolvePeriod(ctx, "", *req.Date)
		if err != nil {
			return nil, err
		}
		entry.JournalDate = *req.Date
		entry.PeriodID = period.PeriodID
	}
	if req.Reference != nil {
		entry.Reference = strings.TrimSpace(*req.Reference)
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			return nil, ErrDescriptionMissing
		}
		entry.Description = strings.TrimSpace(*req.Description)
	}

	entry.LastUpdatedAt = time.Now().UTC()
	entry.LastUpdatedBy = userID

	if err := s.journalRepo.UpdateEntry(ctx, *entry); err != nil {
		logger.Error("Failed to update journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to update journal entry %s: %w", journalID, err)
	}

	logger.Info("Journal entry updated", slog.String("journal_id", journalID))
	return entry, nil
}

func (s *journalService) AddLine(ctx context.Context, journalID string, req dto.CreateLineRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.requireDraft(ctx, journalID)
	if err != nil {
		return nil, err
	}

	account, err := s.accountSvc.GetAccountByID(ctx, req.AccountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrAccountInactive, account.Code)
	}

	maxOrder := 0
	for _, l := range entry.Lines {
		if l.LineOrder > maxOrder {
			maxOrder = l.LineOrder
		}
	}

	now := time.Now().UTC()
	line := domain.JournalLine{
		LineID:    uuid.NewString(),
		JournalID: journalID,
		AccountID: req.AccountID,
		Debit:     req.Debit,
		Credit:    req.Credit,
		LineOrder: maxOrder + 1,
		Memo:      req.Memo,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}
	if err := validateLineAmounts(line); err != nil {
		return nil, err
	}

	if err := s.journalRepo.InsertLine(ctx, line); err != nil {
		logger.Error("Failed to insert journal line", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to insert line into entry %s: %w", journalID, err)
	}

	entry.Lines = append(entry.Lines, line)
	logger.Info("Journal line added", slog.String("journal_id", journalID), slog.String("line_id", line.LineID))
	return entry, nil
}

func (s *journalService) UpdateLine(ctx context.Context, journalID, lineID string, req dto.UpdateLineRequest, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.requireDraft(ctx, journalID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range entry.Lines {
		if entry.Lines[i].LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("line %s not found in entry %s", lineID, journalID))
	}

	line := entry.Lines[idx]
	if req.AccountID != nil {
		account, err := s.accountSvc.GetAccountByID(ctx, *req.AccountID)
		if err != nil {
			return nil, err
		}
		if !account.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrAccountInactive, account.Code)
		}
		line.AccountID = *req.AccountID
	}
	if req.Debit != nil {
		line.Debit = *req.Debit
	}
	if req.Credit != nil {
		line.Credit = *req.Credit
	}
	if req.Memo != nil {
		line.Memo = *req.Memo
	}
	if err := validateLineAmounts(line); err != nil {
		return nil, err
	}

	line.LastUpdatedAt = time.Now().UTC()
	line.LastUpdatedBy = userID

	if err := s.journalRepo.UpdateLine(ctx, line); err != nil {
		logger.Error("Failed to update journal line", slog.String("error", err.Error()), slog.String("line_id", lineID))
		return nil, fmt.Errorf("failed to update line %s: %w", lineID, err)
	}

	entry.Lines[idx] = line
	logger.Info("Journal line updated", slog.String("journal_id", journalID), slog.String("line_id", lineID))
	return entry, nil
}

func (s *journalService) RemoveLine(ctx context.Context, journalID, lineID string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.requireDraft(ctx, journalID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range entry.Lines {
		if entry.Lines[i].LineID == lineID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("line %s not found in entry %s", lineID, journalID))
	}

	if err := s.journalRepo.DeleteLine(ctx, journalID, lineID); err != nil {
		logger.Error("Failed to delete journal line", slog.String("error", err.Error()), slog.String("line_id", lineID))
		return nil, fmt.Errorf("failed to delete line %s: %w", lineID, err)
	}

	entry.Lines = append(entry.Lines[:idx], entry.Lines[idx+1:]...)
	logger.Info("Journal line removed", slog.String("journal_id", journalID), slog.String("line_id", lineID))
	return entry, nil
}

// PostEntry validates and applies one draft entry. The repository runs the
// apply step in a single transaction with the touched account rows locked,
// so a failure leaves entry, lines and balances exactly as they were.
func (s *journalService) PostEntry(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, []domain.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	entry, err := s.requireDraft(ctx, journalID)
	if err != nil {
		return nil, nil, err
	}
	if entry.BatchID != nil {
		return nil, nil, fmt.Errorf("%w: entry %s is in batch %s", ErrEntryInBatch, journalID, *entry.BatchID)
	}

	deltas, err := s.validator.validateEntry(ctx, entry, entry.Lines)
	if err != nil {
		logger.Warn("Entry failed posting validation", slog.String("journal_id", journalID), slog.String("error", err.Error()))
		return nil, nil, err
	}

	now := time.Now().UTC()
	if err := s.journalRepo.PostEntry(ctx, *entry, entry.Lines, deltas, userID, now); err != nil {
		logger.Error("Failed to post journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, nil, fmt.Errorf("failed to post journal entry %s: %w", journalID, err)
	}

	entry.Status = domain.EntryPosted
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	logger.Info("Journal entry posted", slog.String("journal_id", journalID), slog.Int("accounts_touched", len(deltas)))
	events := []domain.Event{domain.JournalEntryPosted{
		JournalID:  journalID,
		PeriodID:   entry.PeriodID,
		BatchID:    entry.BatchID,
		Deltas:     deltas,
		OccurredAt: now,
	}}
	return entry, events, nil
}

func (s *journalService) RejectEntry(ctx context.Context, journalID string, reason string, userID string) (*domain.JournalEntry, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("a reason is required to reject an entry")
	}

	entry, err := s.requireDraft(ctx, journalID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.journalRepo.UpdateEntryStatus(ctx, journalID, domain.EntryRejected, userID, now); err != nil {
		logger.Error("Failed to reject journal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, fmt.Errorf("failed to reject journal entry %s: %w", journalID, err)
	}

	entry.Status = domain.EntryRejected
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	logger.Info("Journal entry rejected", slog.String("journal_id", journalID), slog.String("reason", reason), slog.String("rejected_by", userID))
	return entry, nil
}

// ReverseEntry generates the mirror draft for a posted entry. Posted rows are
// immutable, so the reversal is a brand-new entry with debits and credits
// swapped; balances move only when that draft is itself posted.
func (s *journalService) ReverseEntry(ctx context.Context, journalID string, reversalDate time.Time, userID string) (*domain.JournalEntry, []domain.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	original, err := s.GetEntryByID(ctx, journalID)
	if err != nil {
		return nil, nil, err
	}
	if original.Status != domain.EntryPosted {
		return nil, nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotPosted, journalID, original.Status)
	}
	if original.ReversingJournalID != nil {
		return nil, nil, fmt.Errorf("%w: entry %s reversed by %s", ErrEntryAlreadyReversed, journalID, *original.ReversingJournalID)
	}
	if original.OriginalJournalID != nil {
		return nil, nil, fmt.Errorf("%w: entry %s reverses %s", ErrEntryIsReversal, journalID, *original.OriginalJournalID)
	}

	// The reversal is dated on its own date and must land in an open period.
	period, err := s.periodSvc.ResolveOpenPeriodForDate(ctx, reversalDate)
	if err != nil {
		logger.Warn("No open period for reversal date", slog.String("journal_id", journalID), slog.String("error", err.Error()))
		return nil, nil, err
	}

	now := time.Now().UTC()
	reversalID := uuid.NewString()
	audit := domain.AuditFields{
		CreatedAt:     now,
		CreatedBy:     userID,
		LastUpdatedAt: now,
		LastUpdatedBy: userID,
	}

	lines := make([]domain.JournalLine, len(original.Lines))
	for i, orig := range original.Lines {
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

	reversal := domain.JournalEntry{
		JournalID:         reversalID,
		JournalDate:       reversalDate,
		PeriodID:          period.PeriodID,
		Reference:         original.Reference,
		Description:       fmt.Sprintf("Reversal of: %s", original.Description),
		Source:            domain.SourceSystem,
		Status:            domain.EntryDraft,
		OriginalJournalID: &journalID,
		Lines:             lines,
		AuditFields:       audit,
	}

	if err := s.journalRepo.SaveReversal(ctx, reversal, lines, userID, now); err != nil {
		logger.Error("Failed to save reversal entry", slog.String("error", err.Error()), slog.String("journal_id", journalID))
		return nil, nil, fmt.Errorf("failed to save reversal for entry %s: %w", journalID, err)
	}

	logger.Info("Journal entry reversed", slog.String("journal_id", journalID), slog.String("reversing_journal_id", reversalID))
	events := []domain.Event{domain.JournalEntryReversed{
		JournalID:          journalID,
		ReversingJournalID: reversalID,
		OccurredAt:         now,
	}}
	return &reversal, events, nil
}

// validateLineAmounts wraps the per-line invariant in a validation error for
// the API boundary.
func validateLineAmounts(line domain.JournalLine) error {
	if err := accounting.ValidateLine(line); err != nil {
		return apperrors.NewValidationError(err.Error())
	}
	return nil
}
