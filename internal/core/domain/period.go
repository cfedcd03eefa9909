package domain

import "time"

// PeriodType distinguishes regular calendar periods from adjustment periods.
type PeriodType string

const (
	PeriodMonth      PeriodType = "MONTH"
	PeriodQuarter    PeriodType = "QUARTER"
	PeriodAdjustment PeriodType = "ADJUSTMENT"
)

// PeriodStatus indicates whether a period accepts postings.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// AccountingPeriod is one non-overlapping slice of the fiscal calendar.
// StartDate and EndDate are inclusive; StartDate <= EndDate always holds.
type AccountingPeriod struct {
	PeriodID   string       `json:"periodID"`
	Name       string       `json:"name"`
	StartDate  time.Time    `json:"startDate"`
	EndDate    time.Time    `json:"endDate"`
	FiscalYear int          `json:"fiscalYear"`
	PeriodType PeriodType   `json:"periodType"`
	Status     PeriodStatus `json:"status"`
	AuditFields
}

// Contains reports whether the given date falls inside the period (inclusive).
func (p AccountingPeriod) Contains(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}
