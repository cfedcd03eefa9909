package services_test

import (
	"testing"

	portsrepo "github.com/finpost/gl_engine_app/internal/core/ports/repositories"
	"github.com/finpost/gl_engine_app/internal/core/services"
	"github.com/stretchr/testify/assert"
)

// TestNewServiceContainer wires the container exactly the way the composition
// root does and checks every facade comes back usable.
func TestNewServiceContainer(t *testing.T) {
	repos := &portsrepo.RepositoryProvider{
		AccountRepo: new(MockAccountRepository),
		JournalRepo: new(MockJournalRepository),
		BatchRepo:   new(MockBatchRepository),
		PeriodRepo:  new(MockPeriodRepository),
	}

	container := services.NewServiceContainer(repos)

	assert.NotNil(t, container.Account, "Account service should be wired")
	assert.NotNil(t, container.Period, "Period service should be wired")
	assert.NotNil(t, container.Journal, "Journal service should be wired")
	assert.NotNil(t, container.Batch, "Batch service should be wired")
}
