package services

import (
	"context"

	"github.com/finpost/gl_engine_app/internal/core/domain"
)

// ServiceContainer holds instances of all the application services.
// This is the main entry point for accessing service functionality and
// is used throughout the application, particularly in the handlers.
type ServiceContainer struct {
	Account AccountSvcFacade
	Period  PeriodSvcFacade
	Journal JournalSvcFacade
	Batch   BatchSvcFacade
}

// EventPublisher receives the domain events produced by successful ledger
// operations. The core never publishes directly; services return events and
// the composition root forwards them here.
type EventPublisher interface {
	Publish(ctx context.Context, events ...domain.Event)
}
