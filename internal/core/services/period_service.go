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
)

var (
	ErrPeriodOverlap       = errors.New("period range overlaps an existing accounting period")
	ErrPeriodClosed        = errors.New("accounting period is closed")
	ErrPeriodAlreadyClosed = errors.New("accounting period is already closed")
	ErrPeriodAlreadyOpen   = errors.New("accounting period is already open")
	ErrNoPeriodForDate     = errors.New("no accounting period covers the date")
)

// periodService provides fiscal-calendar operations.
type periodService struct {
	periodRepo portsrepo.PeriodRepositoryFacade
}

// NewPeriodService creates a new PeriodService.
func NewPeriodService(periodRepo portsrepo.PeriodRepositoryFacade) portssvc.PeriodSvcFacade {
	return &periodService{periodRepo: periodRepo}
}

// Ensure periodService implements the portssvc.PeriodSvcFacade interface
var _ portssvc.PeriodSvcFacade = (*periodService)(nil)

func (s *periodService) CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, creatorUserID string) (*domain.AccountingPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !req.StartDate.Before(req.EndDate) && !req.StartDate.Equal(req.EndDate) {
		return nil, apperrors.NewValidationError("period start date must not be after end date")
	}

	overlap, err := s.periodRepo.FindOverlappingPeriod(ctx, req.StartDate, req.EndDate, "")
	if err != nil {
		logger.Error("Failed to check period overlap", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check period overlap: %w", err)
	}
	if overlap != nil {
		logger.Warn("Period overlap rejected", slog.String("name", req.Name), slog.String("overlapping_period_id", overlap.PeriodID))
		return nil, fmt.Errorf("%w: %s intersects %s", ErrPeriodOverlap, req.Name, overlap.Name)
	}

	now := time.Now().UTC()
	period := domain.AccountingPeriod{
		PeriodID:   uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		FiscalYear: req.FiscalYear,
		PeriodType: req.PeriodType,
		Status:     domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		logger.Error("Failed to save period", slog.String("error", err.Error()), slog.String("name", period.Name))
		return nil, fmt.Errorf("failed to save period: %w", err)
	}

	logger.Info("Accounting period created", slog.String("period_id", period.PeriodID), slog.Int("fiscal_year", period.FiscalYear))
	return &period, nil
}

func (s *periodService) GetPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("period %s not found: %w", periodID, err)
		}
		return nil, fmt.Errorf("failed to find period %s: %w", periodID, err)
	}
	return period, nil
}

func (s *periodService) ListPeriods(ctx context.Context, params dto.ListPeriodsParams) (*dto.ListPeriodsResponse, error) {
	limit := params.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	periods, nextToken, err := s.periodRepo.ListPeriods(ctx, params.FiscalYear, limit, params.NextToken)
	if err != nil {
		return nil, fmt.Errorf("failed to list periods: %w", err)
	}
	return &dto.ListPeriodsResponse{
		Periods:   dto.ToPeriodResponses(periods),
		NextToken: nextToken,
	}, nil
}

// ClosePeriod transitions Open -> Closed. Closing twice is an error so that
// automated close jobs cannot silently mask a double execution.
func (s *periodService) ClosePeriod(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, []domain.Event, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	period, err := s.GetPeriodByID(ctx, periodID)
	if err != nil {
		return nil, nil, err
	}
	if period.Status == domain.PeriodClosed {
		logger.Warn("Attempt to close an already-closed period", slog.String("period_id", periodID))
		return nil, nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyClosed, period.Name)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodClosed, "", userID, now); err != nil {
		logger.Error("Failed to close period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, nil, fmt.Errorf("failed to close period %s: %w", periodID, err)
	}

	period.Status = domain.PeriodClosed
	period.LastUpdatedAt = now
	period.LastUpdatedBy = userID

	logger.Info("Accounting period closed", slog.String("period_id", periodID), slog.String("closed_by", userID))
	events := []domain.Event{domain.AccountingPeriodClosed{
		PeriodID:   period.PeriodID,
		FiscalYear: period.FiscalYear,
		OccurredAt: now,
	}}
	return period, events, nil
}

// ReopenPeriod transitions Closed -> Open. The reason is mandatory and the
// reopen is logged at warn level so it stands out in audit trawls.
func (s *periodService) ReopenPeriod(ctx context.Context, periodID string, reason string, userID string) (*domain.AccountingPeriod, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("a reason is required to reopen a period")
	}

	period, err := s.GetPeriodByID(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if period.Status == domain.PeriodOpen {
		return nil, fmt.Errorf("%w: %s", ErrPeriodAlreadyOpen, period.Name)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.UpdatePeriodStatus(ctx, periodID, domain.PeriodOpen, reason, userID, now); err != nil {
		logger.Error("Failed to reopen period", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to reopen period %s: %w", periodID, err)
	}

	period.Status = domain.PeriodOpen
	period.LastUpdatedAt = now
	period.LastUpdatedBy = userID

	logger.Warn("Accounting period reopened", slog.String("period_id", periodID), slog.String("reopened_by", userID), slog.String("reason", reason))
	return period, nil
}

// ResolveOpenPeriodForDate is the period lock check used by posting code.
func (s *periodService) ResolveOpenPeriodForDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	period, err := s.periodRepo.FindPeriodForDate(ctx, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNoPeriodForDate, date.Format("2006-01-02"))
		}
		return nil, fmt.Errorf("failed to resolve period for date %s: %w", date.Format("2006-01-02"), err)
	}
	if period.Status == domain.PeriodClosed {
		return nil, fmt.Errorf("%w: %s", ErrPeriodClosed, period.Name)
	}
	return period, nil
}
