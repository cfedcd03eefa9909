package repositories

import (
	"context"
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
)

// PeriodReader defines read operations for fiscal-calendar data
type PeriodReader interface {
	// FindPeriodByID retrieves a specific period by its unique identifier.
	FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error)

	// FindPeriodForDate retrieves the period containing the given date, if any.
	FindPeriodForDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error)

	// FindOverlappingPeriod returns the first period whose inclusive
	// [start, end] range intersects the given range, excluding excludePeriodID
	// (pass "" when creating). Nil result means no overlap.
	FindOverlappingPeriod(ctx context.Context, start, end time.Time, excludePeriodID string) (*domain.AccountingPeriod, error)

	// ListPeriods retrieves a page of periods using token-based pagination over
	// the start date, optionally filtered by fiscal year (0 = all).
	ListPeriods(ctx context.Context, fiscalYear int, limit int, nextToken *string) ([]domain.AccountingPeriod, *string, error)
}

// PeriodWriter defines write operations for fiscal-calendar data
type PeriodWriter interface {
	// SavePeriod persists a new period.
	SavePeriod(ctx context.Context, period domain.AccountingPeriod) error

	// UpdatePeriodStatus transitions a period between Open and Closed.
	// Reason is recorded for reopen audits; empty on close.
	UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, reason string, userID string, now time.Time) error
}

// PeriodRepositoryFacade combines all period-related repository interfaces
type PeriodRepositoryFacade interface {
	PeriodReader
	PeriodWriter
}
