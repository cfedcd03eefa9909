package services

import (
	"context"
	"time"

	"github.com/finpost/gl_engine_app/internal/core/domain"
	"github.com/finpost/gl_engine_app/internal/dto"
)

// JournalSvcFacade exposes journal-entry operations.
// Operations that move money return the domain events they produced; the
// caller forwards them to whatever sink is configured.
type JournalSvcFacade interface {
	// CreateEntry validates and persists a new Draft entry with its lines.
	CreateEntry(ctx context.Context, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// GetEntryByID retrieves an entry with its lines.
	GetEntryByID(ctx context.Context, journalID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated entry list.
	ListEntries(ctx context.Context, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)

	// UpdateEntry updates header fields while the entry is Draft.
	UpdateEntry(ctx context.Context, journalID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error)

	// AddLine appends a line to a Draft entry. The edited entry may be
	// transiently unbalanced; balance is enforced at the post boundary.
	AddLine(ctx context.Context, journalID string, req dto.CreateLineRequest, userID string) (*domain.JournalEntry, error)

	// UpdateLine rewrites one line of a Draft entry.
	UpdateLine(ctx context.Context, journalID, lineID string, req dto.UpdateLineRequest, userID string) (*domain.JournalEntry, error)

	// RemoveLine deletes one line of a Draft entry.
	RemoveLine(ctx context.Context, journalID, lineID string, userID string) (*domain.JournalEntry, error)

	// PostEntry validates the Draft entry (balance, open period, active
	// accounts) and applies its deltas atomically. Nothing mutates on failure.
	PostEntry(ctx context.Context, journalID string, userID string) (*domain.JournalEntry, []domain.Event, error)

	// RejectEntry transitions Draft -> Rejected; terminal.
	RejectEntry(ctx context.Context, journalID string, reason string, userID string) (*domain.JournalEntry, error)

	// ReverseEntry generates a Draft mirror entry for a Posted one and marks
	// the original Reversed. The ledger effect lands when the draft posts.
	ReverseEntry(ctx context.Context, journalID string, reversalDate time.Time, userID string) (*domain.JournalEntry, []domain.Event, error)
}
