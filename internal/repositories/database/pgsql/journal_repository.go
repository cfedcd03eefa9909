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
	"github.com/finpost/gl_engine_app/internal/utils/accounting"
	"github.com/finpost/gl_engine_app/internal/utils/mapping"
	"github.com/finpost/gl_engine_app/internal/utils/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const journalColumns = `journal_id, journal_date, period_id, reference, description, source, status, batch_id, original_journal_id, reversing_journal_id, created_at, created_by, last_updated_at, last_updated_by`

const lineColumns = `line_id, journal_id, account_id, debit, credit, line_order, memo, created_at, created_by, last_updated_at, last_updated_by, running_balance`

type PgxJournalRepository struct {
	BaseRepository
	accountRepo portsrepo.AccountTransactionSupport
}

// newPgxJournalRepository creates a new repository for journal entry and line data.
func newPgxJournalRepository(pool *pgxpool.Pool, accountRepo portsrepo.AccountTransactionSupport) portsrepo.JournalRepositoryWithTx {
	return &PgxJournalRepository{
		BaseRepository: BaseRepository{Pool: pool},
		accountRepo:    accountRepo,
	}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

// scanEntry reads one journal header row in journalColumns order.
func scanEntry(row pgx.Row) (models.JournalEntry, error) {
	var m models.JournalEntry
	var batchID, originalID, reversingID sql.NullString
	err := row.Scan(
		&m.JournalID,
		&m.JournalDate,
		&m.PeriodID,
		&m.Reference,
		&m.Description,
		&m.Source,
		&m.Status,
		&batchID,
		&originalID,
		&reversingID,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return models.JournalEntry{}, err
	}
	if batchID.Valid {
		m.BatchID = &batchID.String
	}
	if originalID.Valid {
		m.OriginalJournalID = &originalID.String
	}
	if reversingID.Valid {
		m.ReversingJournalID = &reversingID.String
	}
	return m, nil
}

func scanLine(row pgx.Row) (models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(
		&m.LineID,
		&m.JournalID,
		&m.AccountID,
		&m.Debit,
		&m.Credit,
		&m.LineOrder,
		&m.Memo,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
		&m.RunningBalance,
	)
	return m, err
}

// insertEntryTx writes the header row inside a transaction.
func insertEntryTx(ctx context.Context, tx pgx.Tx, entry models.JournalEntry) error {
	query := `
		INSERT INTO journals (` + journalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := tx.Exec(ctx, query,
		entry.JournalID,
		entry.JournalDate,
		entry.PeriodID,
		entry.Reference,
		entry.Description,
		entry.Source,
		entry.Status,
		entry.BatchID,
		entry.OriginalJournalID,
		entry.ReversingJournalID,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert journal %s: %w", entry.JournalID, err)
	}
	return nil
}

// queueLineInserts adds INSERT commands for all lines to a pgx batch.
func queueLineInserts(batch *pgx.Batch, lines []models.JournalLine) {
	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	for _, l := range lines {
		batch.Queue(query,
			l.LineID,
			l.JournalID,
			l.AccountID,
			l.Debit,
			l.Credit,
			l.LineOrder,
			l.Memo,
			l.CreatedAt,
			l.CreatedBy,
			l.LastUpdatedAt,
			l.LastUpdatedBy,
			l.RunningBalance,
		)
	}
}

// SaveEntry persists a draft entry and its lines atomically.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertEntryTx(ctx, tx, mapping.ToModelJournalEntry(entry)); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	modelLines := make([]models.JournalLine, len(lines))
	for i, l := range lines {
		modelLines[i] = mapping.ToModelJournalLine(l)
	}
	queueLineInserts(batch, modelLines)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert lines for journal %s: %w", entry.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

// FindEntryByID retrieves a journal entry header by its ID.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, journalID string) (*domain.JournalEntry, error) {
	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = $1;`

	m, err := scanEntry(r.Pool.QueryRow(ctx, query, journalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal by ID %s: %w", journalID, err)
	}

	entry := mapping.ToDomainJournalEntry(m)
	return &entry, nil
}

// FindEntriesByIDs retrieves multiple entry headers keyed by id.
func (r *PgxJournalRepository) FindEntriesByIDs(ctx context.Context, journalIDs []string) (map[string]domain.JournalEntry, error) {
	if len(journalIDs) == 0 {
		return map[string]domain.JournalEntry{}, nil
	}

	query := `SELECT ` + journalColumns + ` FROM journals WHERE journal_id = ANY($1);`

	rows, err := r.Pool.Query(ctx, query, journalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals by IDs: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]domain.JournalEntry)
	for rows.Next() {
		m, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		entries[m.JournalID] = mapping.ToDomainJournalEntry(m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating journal rows: %w", err)
	}
	return entries, nil
}

// FindLinesByJournalID retrieves the lines of one entry in line order.
func (r *PgxJournalRepository) FindLinesByJournalID(ctx context.Context, journalID string) ([]domain.JournalLine, error) {
	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE journal_id = $1 ORDER BY line_order;`

	rows, err := r.Pool.Query(ctx, query, journalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for journal %s: %w", journalID, err)
	}
	defer rows.Close()

	lines := []models.JournalLine{}
	for rows.Next() {
		m, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row for journal %s: %w", journalID, err)
		}
		lines = append(lines, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for journal %s: %w", journalID, err)
	}
	return mapping.ToDomainJournalLineSlice(lines), nil
}

// FindLinesByJournalIDs retrieves lines for multiple entries, grouped by journal ID.
func (r *PgxJournalRepository) FindLinesByJournalIDs(ctx context.Context, journalIDs []string) (map[string][]domain.JournalLine, error) {
	if len(journalIDs) == 0 {
		return map[string][]domain.JournalLine{}, nil
	}

	query := `SELECT ` + lineColumns + ` FROM journal_lines WHERE journal_id = ANY($1) ORDER BY journal_id, line_order;`

	rows, err := r.Pool.Query(ctx, query, journalIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines by journal IDs: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]domain.JournalLine)
	for rows.Next() {
		m, err := scanLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row: %w", err)
		}
		grouped[m.JournalID] = append(grouped[m.JournalID], mapping.ToDomainJournalLine(m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows: %w", err)
	}
	return grouped, nil
}

// ListEntries retrieves a paginated list of journal entries using token-based
// pagination over (journal_date, created_at) descending.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, limit int, nextToken *string, includeReversals bool) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `SELECT ` + journalColumns + ` FROM journals`
	filterClause := ``
	if !includeReversals {
		filterClause = ` WHERE status != 'REVERSED' AND original_journal_id IS NULL`
	}
	orderByClause := ` ORDER BY journal_date DESC, created_at DESC`

	var rows pgx.Rows
	var err error
	args := []interface{}{}

	if nextToken != nil && *nextToken != "" {
		lastDate, lastCreatedAt, decodeErr := pagination.DecodeToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}

		cursorClause := ` (journal_date, created_at) < ($1, $2)`
		if filterClause == "" {
			cursorClause = ` WHERE` + cursorClause
		} else {
			cursorClause = filterClause + ` AND` + cursorClause
		}
		args = append(args, lastDate, lastCreatedAt)
		query := baseQuery + cursorClause + orderByClause + ` LIMIT $` + strconv.Itoa(len(args)+1) + `;`
		args = append(args, fetchLimit)
		rows, err = r.Pool.Query(ctx, query, args...)
	} else {
		query := baseQuery + filterClause + orderByClause + ` LIMIT $1;`
		rows, err = r.Pool.Query(ctx, query, fetchLimit)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	fetched := make([]models.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		m, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, fmt.Errorf("failed to scan journal row: %w", scanErr)
		}
		fetched = append(fetched, m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal rows: %w", err)
	}

	var nextTokenVal *string
	if len(fetched) > limit {
		last := fetched[limit-1]
		token := pagination.EncodeToken(last.JournalDate, last.CreatedAt)
		nextTokenVal = &token
		fetched = fetched[:limit]
	}

	entries := make([]domain.JournalEntry, len(fetched))
	for i, m := range fetched {
		entries[i] = mapping.ToDomainJournalEntry(m)
	}
	return entries, nextTokenVal, nil
}

// CountDraftLinesForAccount counts lines of Draft entries referencing an account.
func (r *PgxJournalRepository) CountDraftLinesForAccount(ctx context.Context, accountID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journal_lines l
		JOIN journals j ON l.journal_id = j.journal_id
		WHERE l.account_id = $1 AND j.status = 'DRAFT';
	`
	var count int
	if err := r.Pool.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draft lines for account %s: %w", accountID, err)
	}
	return count, nil
}

// UpdateEntry updates the header fields of a draft entry.
func (r *PgxJournalRepository) UpdateEntry(ctx context.Context, entry domain.JournalEntry) error {
	m := mapping.ToModelJournalEntry(entry)

	query := `
		UPDATE journals
		SET journal_date = $2, period_id = $3, reference = $4, description = $5, last_updated_at = $6, last_updated_by = $7
		WHERE journal_id = $1 AND status = 'DRAFT';
	`
	ct, err := r.Pool.Exec(ctx, query,
		m.JournalID,
		m.JournalDate,
		m.PeriodID,
		m.Reference,
		m.Description,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update journal %s: %w", m.JournalID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s is not an editable draft", apperrors.ErrConflict, m.JournalID)
	}
	return nil
}

// InsertLine adds one line to a draft entry.
func (r *PgxJournalRepository) InsertLine(ctx context.Context, line domain.JournalLine) error {
	m := mapping.ToModelJournalLine(line)

	query := `
		INSERT INTO journal_lines (` + lineColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.LineID,
		m.JournalID,
		m.AccountID,
		m.Debit,
		m.Credit,
		m.LineOrder,
		m.Memo,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
		m.RunningBalance,
	)
	if err != nil {
		return fmt.Errorf("failed to insert line %s: %w", m.LineID, err)
	}
	return nil
}

// UpdateLine rewrites one draft line.
func (r *PgxJournalRepository) UpdateLine(ctx context.Context, line domain.JournalLine) error {
	m := mapping.ToModelJournalLine(line)

	query := `
		UPDATE journal_lines
		SET account_id = $3, debit = $4, credit = $5, memo = $6, last_updated_at = $7, last_updated_by = $8
		WHERE line_id = $1 AND journal_id = $2;
	`
	ct, err := r.Pool.Exec(ctx, query,
		m.LineID,
		m.JournalID,
		m.AccountID,
		m.Debit,
		m.Credit,
		m.Memo,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update line %s: %w", m.LineID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DeleteLine removes one line from a draft entry.
func (r *PgxJournalRepository) DeleteLine(ctx context.Context, journalID, lineID string) error {
	query := `DELETE FROM journal_lines WHERE line_id = $1 AND journal_id = $2;`

	ct, err := r.Pool.Exec(ctx, query, lineID, journalID)
	if err != nil {
		return fmt.Errorf("failed to delete line %s: %w", lineID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateEntryStatus transitions an entry's status.
func (r *PgxJournalRepository) UpdateEntryStatus(ctx context.Context, journalID string, status domain.EntryStatus, userID string, now time.Time) error {
	query := `
		UPDATE journals
		SET status = $2, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $1;
	`
	ct, err := r.Pool.Exec(ctx, query, journalID, models.EntryStatus(status), now, userID)
	if err != nil {
		return fmt.Errorf("failed to update status of journal %s: %w", journalID, err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveReversal inserts the reversal draft with its lines and marks the
// original entry Reversed, all within one transaction. The guard on the
// original's status makes concurrent double reversals lose cleanly.
func (r *PgxJournalRepository) SaveReversal(ctx context.Context, reversal domain.JournalEntry, lines []domain.JournalLine, userID string, now time.Time) error {
	if reversal.OriginalJournalID == nil {
		return apperrors.NewAppError(500, "reversal entry has no original journal id", nil)
	}
	originalID := *reversal.OriginalJournalID

	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	markQuery := `
		UPDATE journals
		SET status = 'REVERSED', reversing_journal_id = $2, last_updated_at = $3, last_updated_by = $4
		WHERE journal_id = $1 AND status = 'POSTED' AND reversing_journal_id IS NULL;
	`
	ct, err := tx.Exec(ctx, markQuery, originalID, reversal.JournalID, now, userID)
	if err != nil {
		return fmt.Errorf("failed to mark journal %s reversed: %w", originalID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s is not reversible", apperrors.ErrConflict, originalID)
	}

	if err := insertEntryTx(ctx, tx, mapping.ToModelJournalEntry(reversal)); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	modelLines := make([]models.JournalLine, len(lines))
	for i, l := range lines {
		modelLines[i] = mapping.ToModelJournalLine(l)
	}
	queueLineInserts(batch, modelLines)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert reversal lines for journal %s: %w", reversal.JournalID, err)
	}

	return r.Commit(ctx, tx)
}

// PostEntry applies one entry's deltas and marks it Posted in a single
// transaction: lock accounts (sorted ids), re-check active, bump balances,
// stamp per-line running balances, flip the status. Any failure rolls the
// whole thing back.
func (r *PgxJournalRepository) PostEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := r.postEntryTx(ctx, tx, entry, lines, deltas, userID, now); err != nil {
		return err
	}

	return r.Commit(ctx, tx)
}

// postEntryTx posts one entry inside an existing transaction. Shared between
// single-entry posting and batch posting.
func (r *PgxJournalRepository) postEntryTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, deltas map[string]decimal.Decimal, userID string, now time.Time) error {
	accountIDs := make([]string, 0, len(deltas))
	for accID := range deltas {
		accountIDs = append(accountIDs, accID)
	}

	lockedAccounts, err := r.accountRepo.FindAccountsByIDsForUpdate(ctx, tx, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to lock accounts for journal %s: %w", entry.JournalID, err)
	}
	for _, acc := range lockedAccounts {
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", apperrors.ErrConflict, acc.Code)
		}
	}

	if err := r.accountRepo.ApplyBalanceDeltasInTx(ctx, tx, deltas, userID, now); err != nil {
		return fmt.Errorf("failed to apply balance deltas for journal %s: %w", entry.JournalID, err)
	}

	// Stamp running balances line by line, starting from the pre-posting
	// balance of each locked account.
	running := make(map[string]decimal.Decimal, len(lockedAccounts))
	for accID, acc := range lockedAccounts {
		running[accID] = acc.Balance
	}

	return stampLinesAndPostTx(ctx, tx, entry, lines, lockedAccounts, running, userID, now)
}

// stampLinesAndPostTx writes the running balance onto each line and flips the
// entry to Posted, inside the caller's transaction. The running map carries
// balances across entries when a batch posts several entries touching the
// same account.
func stampLinesAndPostTx(ctx context.Context, tx pgx.Tx, entry domain.JournalEntry, lines []domain.JournalLine, lockedAccounts map[string]domain.Account, running map[string]decimal.Decimal, userID string, now time.Time) error {
	stampQuery := `
		UPDATE journal_lines
		SET running_balance = $3, last_updated_at = $4, last_updated_by = $5
		WHERE line_id = $1 AND journal_id = $2;
	`
	batch := &pgx.Batch{}
	for _, line := range lines {
		acc, ok := lockedAccounts[line.AccountID]
		if !ok {
			return apperrors.NewAppError(500, "locked account "+line.AccountID+" missing during posting", nil)
		}
		signed, err := accounting.SignedDelta(line, acc.NormalBalance)
		if err != nil {
			return apperrors.NewAppError(500, "failed to compute signed delta for line "+line.LineID, err)
		}
		newBalance := running[line.AccountID].Add(signed)
		running[line.AccountID] = newBalance
		batch.Queue(stampQuery, line.LineID, line.JournalID, newBalance, now, userID)
	}

	statusQuery := `
		UPDATE journals
		SET status = 'POSTED', last_updated_at = $2, last_updated_by = $3
		WHERE journal_id = $1 AND status = 'DRAFT';
	`
	batch.Queue(statusQuery, entry.JournalID, now, userID)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len()-1; i++ {
		ct, err := br.Exec()
		if err != nil {
			br.Close()
			return fmt.Errorf("failed to stamp running balance for journal %s: %w", entry.JournalID, err)
		}
		if ct.RowsAffected() == 0 {
			br.Close()
			return fmt.Errorf("%w: line %s of journal %s vanished during posting", apperrors.ErrConflict, lines[i].LineID, entry.JournalID)
		}
	}
	ct, err := br.Exec()
	if err != nil {
		br.Close()
		return fmt.Errorf("failed to mark journal %s posted: %w", entry.JournalID, err)
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close posting batch for journal %s: %w", entry.JournalID, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal %s is no longer a draft", apperrors.ErrConflict, entry.JournalID)
	}
	return nil
}
