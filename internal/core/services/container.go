package services

import (
	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
)

// NewServiceContainer wires the services in dependency order: periods and
// accounts first, then the posting paths that build on them.
func NewServiceContainer(repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Period = NewPeriodService(repos.PeriodRepo)
	container.Account = NewAccountService(repos.AccountRepo, repos.JournalRepo)
	container.Journal = NewJournalService(repos.JournalRepo, container.Account, container.Period)
	container.Batch = NewBatchService(repos.BatchRepo, repos.JournalRepo, container.Account, container.Period)

	return container
}
