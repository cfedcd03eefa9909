package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finpost/gl_engine_app/internal/apperrors"
	"github.com/finpost/gl_engine_app/internal/core/domain"
	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	"github.com/finpost/gl_engine_app/internal/models"
	"github.com/finpost/gl_engine_app/internal/utils/mapping"
	"github.com/finpost/gl_engine_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const periodColumns = `period_id, name, start_date, end_date, fiscal_year, period_type, status, created_at, created_by, last_updated_at, last_updated_by`

type PgxPeriodRepository struct {
	pool *pgxpool.Pool
}

// newPgxPeriodRepository creates a new repository for fiscal-calendar data.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{pool: pool}
}

// Ensure PgxPeriodRepository implements portsrepo.PeriodRepositoryFacade
var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

func scanPeriod(row pgx.Row) (models.AccountingPeriod, error) {
	var m models.AccountingPeriod
	err := row.Scan(
		&m.PeriodID,
		&m.Name,
		&m.StartDate,
		&m.EndDate,
		&m.FiscalYear,
		&m.PeriodType,
		&m.Status,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	return m, err
}

// SavePeriod persists a new period.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, period domain.AccountingPeriod) error {
	m := mapping.ToModelPeriod(period)

	query := `
		INSERT INTO accounting_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.pool.Exec(ctx, query,
		m.PeriodID,
		m.Name,
		m.StartDate,
		m.EndDate,
		m.FiscalYear,
		m.PeriodType,
		m.Status,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: period %s already exists", apperrors.ErrDuplicate, m.Name)
		}
		return fmt.Errorf("failed to save period %s: %w", m.PeriodID, err)
	}
	return nil
}

// FindPeriodByID retrieves a period by its ID.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, periodID string) (*domain.AccountingPeriod, error) {
	query := `SELECT ` + periodColumns + ` FROM accounting_periods WHERE period_id = $1;`

	m, err := scanPeriod(r.pool.QueryRow(ctx, query, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period by ID %s: %w", periodID, err)
	}

	period := mapping.ToDomainPeriod(m)
	return &period, nil
}

// FindPeriodForDate retrieves the period whose inclusive range contains the
// date. Regular periods win over adjustment periods when both cover a date.
func (r *PgxPeriodRepository) FindPeriodForDate(ctx context.Context, date time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE start_date <= $1 AND end_date >= $1
		ORDER BY CASE WHEN period_type = 'ADJUSTMENT' THEN 1 ELSE 0 END, start_date
		LIMIT 1;
	`
	m, err := scanPeriod(r.pool.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find period for date %s: %w", date.Format("2006-01-02"), err)
	}

	period := mapping.ToDomainPeriod(m)
	return &period, nil
}

// FindOverlappingPeriod returns the first period whose inclusive [start, end]
// range intersects the given range, or nil when there is none.
func (r *PgxPeriodRepository) FindOverlappingPeriod(ctx context.Context, start, end time.Time, excludePeriodID string) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE start_date <= $2 AND end_date >= $1 AND period_id != $3
		ORDER BY start_date
		LIMIT 1;
	`
	m, err := scanPeriod(r.pool.QueryRow(ctx, query, start, end, excludePeriodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check period overlap: %w", err)
	}

	period := mapping.ToDomainPeriod(m)
	return &period, nil
}

// ListPeriods retrieves a page of periods ordered by start date, optionally
// filtered by fiscal year (0 = all years). Periods never overlap, so the
// start date alone is a sufficient cursor.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, fiscalYear int, limit int, nextToken *string) ([]domain.AccountingPeriod, *string, error) {
	if limit <= 0 {
		limit = 25
	}
	fetchLimit := limit + 1

	var rows pgx.Rows
	var err error

	if nextToken != nil && *nextToken != "" {
		lastStart, decodeErr := pagination.DecodeDateBasedToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query := `
			SELECT ` + periodColumns + `
			FROM accounting_periods
			WHERE ($1 = 0 OR fiscal_year = $1) AND start_date > $2
			ORDER BY start_date
			LIMIT $3;
		`
		rows, err = r.pool.Query(ctx, query, fiscalYear, lastStart, fetchLimit)
	} else {
		query := `
			SELECT ` + periodColumns + `
			FROM accounting_periods
			WHERE ($1 = 0 OR fiscal_year = $1)
			ORDER BY start_date
			LIMIT $2;
		`
		rows, err = r.pool.Query(ctx, query, fiscalYear, fetchLimit)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query periods: %w", err)
	}
	defer rows.Close()

	fetched := make([]models.AccountingPeriod, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanPeriod(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan period row: %w", scanErr)
		}
		fetched = append(fetched, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating period rows: %w", err)
	}

	var nextTokenVal *string
	if len(fetched) > limit {
		last := fetched[limit-1]
		token := pagination.EncodeDateBasedToken(last.StartDate)
		nextTokenVal = &token
		fetched = fetched[:limit]
	}

	periods := make([]domain.AccountingPeriod, len(fetched))
	for i, m := range fetched {
		periods[i] = mapping.ToDomainPeriod(m)
	}
	return periods, nextTokenVal, nil
}

// UpdatePeriodStatus transitions a period between Open and Closed. The reopen
// reason lands in the reopen_reason column for later audits.
func (r *PgxPeriodRepository) UpdatePeriodStatus(ctx context.Context, periodID string, status domain.PeriodStatus, reason string, userID string, now time.Time) error {
	query := `
		UPDATE accounting_periods
		SET status = $2, reopen_reason = NULLIF($3, ''), last_updated_at = $4, last_updated_by = $5
		WHERE period_id = $1;
	`
	ct, err := r.pool.Exec(ctx, query, periodID, models.PeriodStatus(status), reason, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of period %s: %w", periodID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
