package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// MemoryTicketRepository is an in-memory TicketRepository. It backs tests
// and serves as the store when POSTGRES_DSN is not configured.
type MemoryTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]domain.Ticket
	now     func() time.Time
}

// NewMemoryTicketRepository builds an empty in-memory store.
func NewMemoryTicketRepository() *MemoryTicketRepository {
	return &MemoryTicketRepository{
		tickets: make(map[string]domain.Ticket),
		now:     time.Now,
	}
}

// SetNow overrides the clock used for assigned timestamps. Test hook.
func (r *MemoryTicketRepository) SetNow(now func() time.Time) {
	r.now = now
}

func (r *MemoryTicketRepository) Insert(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	if ticket.CreatedAt.IsZero() {
		ticket.CreatedAt = r.now()
	}
	r.tickets[ticket.ID] = cloneTicket(*ticket)
	return nil
}

func (r *MemoryTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := cloneTicket(ticket)
	return &copied, nil
}

func (r *MemoryTicketRepository) ListPending(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	var pending []domain.Ticket
	for _, ticket := range r.tickets {
		if ticket.Status == domain.TicketStatusNew {
			pending = append(pending, cloneTicket(ticket))
		}
	}
	r.mu.RUnlock()

	sortTickets(pending)
	if len(pending) > limit {
		pending = pending[:limit]
	}
	return pending, nil
}

func (r *MemoryTicketRepository) ListSnapshot(ctx context.Context, filter SnapshotFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if !matchesFilter(ticket, filter) {
			continue
		}
		result = append(result, cloneTicket(ticket))
	}
	r.mu.RUnlock()

	sortTickets(result)
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryTicketRepository) UpdateStatus(ctx context.Context, id string, expected *domain.TicketStatus, update StatusUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return ErrNotFound
	}
	if expected != nil && ticket.Status != *expected {
		return ErrConflict
	}

	ticket.Status = update.Status
	if update.Classification != nil {
		c := *update.Classification
		ticket.Sentiment = &c.Sentiment
		ticket.Summary = &c.Summary
		ticket.Confidence = &c.Confidence
		ticket.Keywords = append([]string(nil), c.Keywords...)
	} else if update.ClearClassification {
		ticket.Sentiment = nil
		ticket.Summary = nil
		ticket.Confidence = nil
		ticket.Keywords = nil
		ticket.ProcessedAt = nil
	}
	if update.ProcessedAt != nil {
		processedAt := *update.ProcessedAt
		ticket.ProcessedAt = &processedAt
	}

	r.tickets[id] = ticket
	return nil
}

func matchesFilter(ticket domain.Ticket, filter SnapshotFilter) bool {
	if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
		return false
	}
	if len(filter.Sentiments) > 0 {
		if ticket.Sentiment == nil || !containsSentiment(filter.Sentiments, *ticket.Sentiment) {
			return false
		}
	}
	if len(filter.Sources) > 0 && !containsSource(filter.Sources, ticket.Source) {
		return false
	}
	if filter.CreatedFrom != nil && ticket.CreatedAt.Before(*filter.CreatedFrom) {
		return false
	}
	return true
}

// sortTickets applies the documented pending order: created_at ASC with id
// ASC as the total-order tie breaker.
func sortTickets(tickets []domain.Ticket) {
	sort.Slice(tickets, func(i, j int) bool {
		if tickets[i].CreatedAt.Equal(tickets[j].CreatedAt) {
			return strings.Compare(tickets[i].ID, tickets[j].ID) < 0
		}
		return tickets[i].CreatedAt.Before(tickets[j].CreatedAt)
	})
}

func cloneTicket(t domain.Ticket) domain.Ticket {
	copied := t
	if t.Sentiment != nil {
		sentiment := *t.Sentiment
		copied.Sentiment = &sentiment
	}
	if t.Summary != nil {
		summary := *t.Summary
		copied.Summary = &summary
	}
	if t.Confidence != nil {
		confidence := *t.Confidence
		copied.Confidence = &confidence
	}
	if t.ProcessedAt != nil {
		processedAt := *t.ProcessedAt
		copied.ProcessedAt = &processedAt
	}
	copied.Keywords = append([]string(nil), t.Keywords...)
	if t.RawMetadata != nil {
		meta := make(map[string]any, len(t.RawMetadata))
		for k, v := range t.RawMetadata {
			meta[k] = v
		}
		copied.RawMetadata = meta
	}
	return copied
}

func containsStatus(list []domain.TicketStatus, v domain.TicketStatus) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsSentiment(list []domain.Sentiment, v domain.Sentiment) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsSource(list []domain.TicketSource, v domain.TicketSource) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
