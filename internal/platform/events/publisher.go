package events

import (
	"context"
	"log/slog"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	portssvc "github.com/finpost/gl_engine_app/internal/core/ports/services"
)

// LogPublisher writes domain events to the structured logger. It is the
// default sink; swapping in a broker-backed publisher only requires another
// implementation of the EventPublisher port.
type LogPublisher struct {
	logger *slog.Logger
}

var _ portssvc.EventPublisher = (*LogPublisher)(nil)

// NewLogPublisher creates a publisher that records events via the given logger.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs each event with its name and payload.
func (p *LogPublisher) Publish(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		p.logger.InfoContext(ctx, "Domain event",
			slog.String("event", event.EventName()),
			slog.Any("payload", event),
		)
	}
}
