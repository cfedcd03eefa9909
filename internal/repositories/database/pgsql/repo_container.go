package pgsql

import (
	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider assembles the pgsql-backed repositories. The journal
// and batch repositories share the account repository so every posting path
// locks and updates balances through the same code.
func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool, accountRepo)
	batchRepo := newPgxBatchRepository(dbPool, accountRepo)
	periodRepo := newPgxPeriodRepository(dbPool)

	return &portsrepo.RepositoryProvider{
		AccountRepo: accountRepo,
		JournalRepo: journalRepo,
		BatchRepo:   batchRepo,
		PeriodRepo:  periodRepo,
	}
}
