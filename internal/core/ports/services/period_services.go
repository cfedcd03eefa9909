package services

import (
	"context"
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/finpost/gl_engine_app/internal/dto"
)

// PeriodSvcFacade exposes fiscal-calendar operations.
type PeriodSvcFacade interface {
	// CreatePeriod adds a new open period; fails when the range overlaps an
	// existing period (inclusive boundaries count as overlap).
	CreatePeriod(ctx context.Context, req dto.CreatePeriodRequest, creatorUserID string) (*domain.AccountingPeriod, error)

	// GetPeriodByID retrieves a single period.
	GetPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// ListPeriods retrieves a page of periods, optionally filtered by fiscal year.
	ListPeriods(ctx context.Context, params dto.ListPeriodsParams) (*dto.ListPeriodsResponse, error)

	// ClosePeriod transitions Open -> Closed. Closing an already-closed period
	// is an error, not a no-op.
	ClosePeriod(ctx context.Context, periodID string, userID string) (*domain.AccountingPeriod, []domain.Event, error)

	// ReopenPeriod transitions Closed -> Open. It is a distinct, audited
	// operation requiring a reason; no posting call ever reopens a period.
	ReopenPeriod(ctx context.Context, periodID string, reason string, userID string) (*domain.AccountingPeriod, error)

	// ResolveOpenPeriodForDate returns the open period containing the date.
	// It fails when no period covers the date or the covering period is closed;
	// posting code uses it as the period lock check.
	ResolveOpenPeriodForDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error)
}
