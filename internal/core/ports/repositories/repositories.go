package repositories

// RepositoryProvider bundles the repositories the service layer depends on.
// It is assembled once at the composition root; nothing is resolved dynamically.
type RepositoryProvider struct {
	AccountRepo AccountRepositoryWithTx
	JournalRepo JournalRepositoryWithTx
	BatchRepo   BatchRepositoryWithTx
	PeriodRepo  PeriodRepositoryFacade
}
