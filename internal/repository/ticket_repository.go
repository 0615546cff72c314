package repository

import (
	"context"
	"errors"
	"time"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// ErrNotFound is returned when a ticket id does not exist.
var ErrNotFound = errors.New("ticket not found")

// ErrConflict is returned when a guarded status update finds the ticket in
// a different state than expected. A lost New->Processing claim surfaces as
// ErrConflict and the worker skips the ticket.
var ErrConflict = errors.New("ticket status conflict")

// StatusUpdate is the field delta applied together with a status
// transition. Classification fields are only ever written with the
// PROCESSED transition and cleared on requeue.
type StatusUpdate struct {
	Status              domain.TicketStatus
	Classification      *domain.Classification
	ProcessedAt         *time.Time
	ClearClassification bool
}

// SnapshotFilter bounds ListSnapshot results. Empty slices mean no
// restriction.
type SnapshotFilter struct {
	Statuses    []domain.TicketStatus
	Sentiments  []domain.Sentiment
	Sources     []domain.TicketSource
	CreatedFrom *time.Time
	Limit       int
}

// TicketRepository is the ticket store contract. It is the sole
// synchronization point between connectors, the worker and readers.
type TicketRepository interface {
	// Insert stores a new ticket, assigning ID and CreatedAt.
	Insert(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListPending returns up to limit NEW tickets ordered by
	// created_at ASC, id ASC. The secondary id ordering makes the
	// retrieval order total even across equal timestamps.
	ListPending(ctx context.Context, limit int) ([]domain.Ticket, error)
	// ListSnapshot returns one consistent read of the collection for
	// aggregation and alerting.
	ListSnapshot(ctx context.Context, filter SnapshotFilter) ([]domain.Ticket, error)
	// UpdateStatus applies the delta. When expected is non-nil the write
	// is conditional on the current status (compare-and-set) and returns
	// ErrConflict on mismatch.
	UpdateStatus(ctx context.Context, id string, expected *domain.TicketStatus, update StatusUpdate) error
}
