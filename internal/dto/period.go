package dto

import (
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
)

// CreatePeriodRequest carries the fields for a new accounting period.
type CreatePeriodRequest struct {
	Name       string            `json:"name" binding:"required"`
	StartDate  time.Time         `json:"startDate" binding:"required"`
	EndDate    time.Time         `json:"endDate" binding:"required"`
	FiscalYear int               `json:"fiscalYear" binding:"required"`
	PeriodType domain.PeriodType `json:"periodType" binding:"required,oneof=MONTH QUARTER ADJUSTMENT"`
}

// ReopenPeriodRequest reopens a closed period. The reason is recorded.
type ReopenPeriodRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ListPeriodsParams filters the period listing.
type ListPeriodsParams struct {
	FiscalYear int     `form:"fiscalYear"`
	Limit      int     `form:"limit"`
	NextToken  *string `form:"nextToken"`
}

// ListPeriodsResponse is a page of periods plus the cursor for the next page.
type ListPeriodsResponse struct {
	Periods   []PeriodResponse `json:"periods"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// PeriodResponse is the API shape of an accounting period.
type PeriodResponse struct {
	PeriodID   string              `json:"periodID"`
	Name       string              `json:"name"`
	StartDate  time.Time           `json:"startDate"`
	EndDate    time.Time           `json:"endDate"`
	FiscalYear int                 `json:"fiscalYear"`
	PeriodType domain.PeriodType   `json:"periodType"`
	Status     domain.PeriodStatus `json:"status"`
}

// ToPeriodResponse converts a domain period to its response DTO.
func ToPeriodResponse(p *domain.AccountingPeriod) PeriodResponse {
	return PeriodResponse{
		PeriodID:   p.PeriodID,
		Name:       p.Name,
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		FiscalYear: p.FiscalYear,
		PeriodType: p.PeriodType,
		Status:     p.Status,
	}
}

// ToPeriodResponses converts a slice of periods.
func ToPeriodResponses(periods []domain.AccountingPeriod) []PeriodResponse {
	out := make([]PeriodResponse, len(periods))
	for i := range periods {
		out[i] = ToPeriodResponse(&periods[i])
	}
	return out
}
