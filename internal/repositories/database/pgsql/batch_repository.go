package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
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
	"github.com/shopspring/decimal"
)

const batchColumns = `batch_id, batch_number, batch_date, period_id, description, status, approver_id, decided_at, original_batch_id, reversing_batch_id, created_at, created_by, last_updated_at, last_updated_by`

type PgxBatchRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountTransactionSupport
}

// newPgxBatchRepository creates a new repository for posting-batch data.
func newPgxBatchRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountTransactionSupport) portsrepo.BatchRepositoryWithTx {
	return &PgxBatchRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxBatchRepository implements portsrepo.BatchRepositoryWithTx
var _ portsrepo.BatchRepositoryWithTx = (*PgxBatchRepository)(nil)

// scanBatch reads one batch row in batchColumns order.
func scanBatch(row pgx.Row) (models.PostingBatch, error) {
	var m models.PostingBatch
	var periodID, approverID, originalID, reversingID sql.NullString
	var decidedAt sql.NullTime
	err := row.Scan(
		&m.BatchID,
		&m.BatchNumber,
		&m.BatchDate,
		&periodID,
		&m.Description,
		&m.Status,
		&approverID,
		&decidedAt,
		&originalID,
		&reversingID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.PostingBatch{}, err
	}
	if periodID.Valid {
		m.PeriodID = &periodID.String
	}
	if approverID.Valid {
		m.ApproverID = &approverID.String
	}
	if decidedAt.Valid {
		m.DecidedAt = &decidedAt.Time
	}
	if originalID.Valid {
		m.OriginalBatchID = &originalID.String
	}
	if reversingID.Valid {
		m.ReversingBatchID = &reversingID.String
	}
	return m, nil
}

// insertBatchTx writes one batch row inside a transaction.
func insertBatchTx(ctx context.Context, tx pgx.Tx, m models.PostingBatch) error {
	query := `
		INSERT INTO posting_batches (` + batchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		m.BatchID,
		m.BatchNumber,
		m.BatchDate,
		m.PeriodID,
		m.Description,
		m.Status,
		m.ApproverID,
		m.DecidedAt,
		m.OriginalBatchID,
		m.ReversingBatchID,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: batch number %s already exists", apperrors.ErrDuplicate, m.BatchNumber)
		}
		return fmt.Errorf("failed to insert batch %s: %w", m.BatchID, err)
	}
	return nil
}

// SaveBatch persists a new batch.
func (r *PgxBatchRepository) SaveBatch(ctx context.Context, batch domain.PostingBatch) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertBatchTx(ctx, tx, mapping.ToModelBatch(batch)); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindBatchByID retrieves a batch by its ID.
func (r *PgxBatchRepository) FindBatchByID(ctx context.Context, batchID string) (*domain.PostingBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM posting_batches WHERE batch_id = $1;`

	m, err := scanBatch(r.Pool.QueryRow(ctx, query, batchID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find batch by ID %s: %w", batchID, err)
	}

	batch := mapping.ToDomainBatch(m)
	return &batch, nil
}

// FindBatchByNumber retrieves a batch by its unique batch number.
func (r *PgxBatchRepository) FindBatchByNumber(ctx context.Context, batchNumber string) (*domain.PostingBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM posting_batches WHERE batch_number = $1;`

	m, err := scanBatch(r.Pool.QueryRow(ctx, query, batchNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find batch by number %s: %w", batchNumber, err)
	}

	batch := mapping.ToDomainBatch(m)
	return &batch, nil
}

// FindEntryIDsByBatchID retrieves the member entry ids of a batch in
// deterministic creation order.
func (r *PgxBatchRepository) FindEntryIDsByBatchID(ctx context.Context, batchID string) ([]string, error) {
	query := `SELECT journal_id FROM journals WHERE batch_id = $1 ORDER BY created_at, journal_id;`

	rows, err := r.Pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries of batch %s: %w", batchID, err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan entry id of batch %s: %w", batchID, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entry ids of batch %s: %w", batchID, err)
	}
	return ids, nil
}

// ListBatches retrieves a paginated batch list using token-based pagination
// over (batch_date, created_at) descending.
func (r *PgxBatchRepository) ListBatches(ctx context.Context, limit int, nextToken *string) ([]domain.PostingBatch, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + batchColumns + ` FROM posting_batches`
	orderByClause := ` ORDER BY batch_date DESC, created_at DESC`

	var rows pgx.Rows
	var err error

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query := baseQuery + ` WHERE (batch_date, created_at) < ($1, $2)` + orderByClause + ` LIMIT $` + strconv.Itoa(3) + `;`
		rows, err = r.Pool.Query(ctx, query, lastDate, lastCreatedAt, fetchLimit)
	} else {
		query := baseQuery + orderByClause + ` LIMIT $1;`
		rows, err = r.Pool.Query(ctx, query, fetchLimit)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query batches: %w", err)
	}
	defer rows.Close()

	fetched := make([]models.PostingBatch, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanBatch(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan batch row: %w", scanErr)
		}
		fetched = append(fetched, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating batch rows: %w", err)
	}

	var nextTokenVal *string
	if len(fetched) > limit {
		last := fetched[limit-1]
		token := pagination.EncodeToken(last.BatchDate, last.CreatedAt)
		nextTokenVal = &token
		fetched = fetched[:limit]
	}

	batches := make([]domain.PostingBatch, len(fetched))
	for i, m := range fetched {
		batches[i] = mapping.ToDomainBatch(m)
	}
	return batches, nextTokenVal, nil
}

// UpdateBatchStatus transitions a batch's status, recording the approver
// decision when one was made.
func (r *PgxBatchRepository) UpdateBatchStatus(ctx context.Context, batchID string, status domain.BatchStatus, approverID *string, decidedAt *time.Time, userID string, now time.Time) error {
	query := `
		UPDATE posting_batches
		SET status = $2, approver_id = COALESCE($3, approver_id), decided_at = COALESCE($4, decided_at), last_updated_at = $5, last_updated_by = $6
		WHERE batch_id = $1;
	`
	ct, err := r.Pool.Exec(ctx, query, batchID, models.BatchStatus(status), approverID, decidedAt, now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of batch %s: %w", batchID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// AttachEntry assigns a draft entry to the batch. The guard clause makes a
// concurrent attach to another batch lose with a conflict.
func (r *PgxBatchRepository) AttachEntry(ctx context.Context, batchID, journalID string, userID string, now time.Time) error {
	query := `
		UPDATE journals
		SET batch_id = $1, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $2 AND status = 'DRAFT' AND (batch_id IS NULL OR batch_id = $1);
	`
	ct, err := r.Pool.Exec(ctx, query, batchID, journalID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to attach entry %s to batch %s: %w", journalID, batchID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is not an attachable draft", apperrors.ErrConflict, journalID)
	}
	return nil
}

// DetachEntry removes an entry from the batch.
func (r *PgxBatchRepository) DetachEntry(ctx context.Context, batchID, journalID string, userID string, now time.Time) error {
	query := `
		UPDATE journals
		SET batch_id = NULL, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $2 AND batch_id = $1 AND status = 'DRAFT';
	`
	ct, err := r.Pool.Exec(ctx, query, batchID, journalID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to detach entry %s from batch %s: %w", journalID, batchID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: entry %s is not a detachable member of batch %s", apperrors.ErrConflict, journalID, batchID)
	}
	return nil
}

// DeleteBatch removes an empty Draft/Pending batch. Member entries block the
// delete through the service-level check plus the foreign key on journals.
func (r *PgxBatchRepository) DeleteBatch(ctx context.Context, batchID string) error {
	query := `DELETE FROM posting_batches WHERE batch_id = $1 AND status IN ('DRAFT', 'PENDING');`

	ct, err := r.Pool.Exec(ctx, query, batchID)
	if err != nil {
		return fmt.Errorf("failed to delete batch %s: %w", batchID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %s is not a deletable draft", apperrors.ErrConflict, batchID)
	}
	return nil
}

// PostBatch applies every member entry inside one transaction. All touched
// accounts across the whole batch are locked up front in sorted-id order, so
// batch posting takes its locks with the same discipline as single-entry
// posting and the two cannot deadlock each other.
func (r *PgxBatchRepository) PostBatch(ctx context.Context, batch domain.PostingBatch, entries []domain.JournalEntry, linesByEntry map[string][]domain.JournalLine, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	accountIDs := make([]string, 0, len(deltas))
	for accID := range deltas {
		accountIDs = append(accountIDs, accID)
	}

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to lock accounts for batch %s: %w", batch.BatchID, err)
	}
	for _, acc := range lockedAccounts {
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrConflict, acc.Code)
		}
	}

	if err := r.accountRepo.ApplyBalanceDeltasInTx(ctx, tx, deltas, userID, now); err != nil {
		return fmt.Errorf("failed to apply balance deltas for batch %s: %w", batch.BatchID, err)
	}

	// One running map across the whole batch: an account touched by several
	// member entries accrues line by line in posting order.
	running := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accID, acc := range lockedAccounts {
		running[accID] = acc.Balance
	}

	for _, entry := range entries {
		if err := stampLinesAndPostTx(ctx, tx, entry, linesByEntry[entry.JournalID], lockedAccounts, running, userID, now); err != nil {
			return err
		}
	}

	statusQuery := `
		UPDATE posting_batches
		SET status = 'POSTED', last_updated_at = $2, last_updated_by = $3
		WHERE batch_id = $1 AND status = 'APPROVED';
	`
	ct, err := tx.Exec(ctx, statusQuery, batch.BatchID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark batch %s posted: %w", batch.BatchID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %s is no longer approved", apperrors.ErrConflict, batch.BatchID)
	}

	return r.Commit(ctx, tx)
}

// SaveReversalBatch persists the reversal batch with its draft entries and
// flips every original entry plus the original batch in one transaction.
func (r *PgxBatchRepository) SaveReversalBatch(ctx context.Context, batch domain.PostingBatch, entries []domain.JournalEntry, linesByEntry map[string][]domain.JournalLine, userID string, now time.Time) error {
	if batch.OriginalBatchID == nil {
		return apperrors.NewAppError(500, "reversal batch has no original batch id", nil)
	}
	originalBatchID := *batch.OriginalBatchID

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	markBatchQuery := `
		UPDATE posting_batches
		SET status = 'REVERSED', reversing_batch_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE batch_id = $1 AND status = 'POSTED' AND reversing_batch_id IS NULL;
	`
	ct, err := tx.Exec(ctx, markBatchQuery, originalBatchID, batch.BatchID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark batch %s reversed: %w", originalBatchID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: batch %s is not reversible", apperrors.ErrConflict, originalBatchID)
	}

	if err := insertBatchTx(ctx, tx, mapping.ToModelBatch(batch)); err != nil {
		return err
	}

	markEntryQuery := `
		UPDATE journals
		SET status = 'REVERSED', reversing_journal_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $1 AND status = 'POSTED' AND reversing_journal_id IS NULL;
	`

	for _, entry := range entries {
		if entry.OriginalJournalID == nil {
			return apperrors.NewAppError(500, "reversal entry "+entry.JournalID+" has no original journal id", nil)
		}

		ct, err := tx.Exec(ctx, markEntryQuery, *entry.OriginalJournalID, entry.JournalID, now, userID)
		if err != nil {
			return fmt.Errorf("failed to mark journal %s reversed: %w", *entry.OriginalJournalID, err)
		}
		if ct.RowsAffected() == 0 {
			return fmt.Errorf("%w: journal %s is not reversible", apperrors.ErrConflict, *entry.OriginalJournalID)
		}

		if err := insertEntryTx(ctx, tx, mapping.ToModelJournalEntry(entry)); err != nil {
			return err
		}

		lineBatch := &pgx.Batch{}
		modelLines := make([]models.JournalLine, len(linesByEntry[entry.JournalID]))
		for i, l := range linesByEntry[entry.JournalID] {
			modelLines[i] = mapping.ToModelJournalLine(l)
		}
		queueLineInserts(lineBatch, modelLines)

		br := tx.SendBatch(ctx, lineBatch)
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to insert reversal lines for journal %s: %w", entry.JournalID, err)
		}
	}

	return r.Commit(ctx, tx)
}
