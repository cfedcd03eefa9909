package models

import "time"

// PeriodType distinguishes regular calendar periods from adjustment periods.
type PeriodType string

// PeriodStatus indicates whether a period accepts postings.
type PeriodStatus string

// AccountingPeriod represents a fiscal-calendar row.
type AccountingPeriod struct {
	PeriodID   string       `db:"period_id"`
	Name       string       `db:"name"`
	StartDate  time.Time    `db:"start_date"`
	EndDate    time.Time    `db:"end_date"`
	FiscalYear int          `db:"fiscal_year"`
	PeriodType PeriodType   `db:"period_type"`
	Status     PeriodStatus `db:"status"`
	AuditFields
}
