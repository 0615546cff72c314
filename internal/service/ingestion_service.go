package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/events"
	"github.com/spec-kit/sentiment-watchdog/internal/observability"
	"github.com/spec-kit/sentiment-watchdog/internal/repository"
	"github.com/spec-kit/sentiment-watchdog/pkg/util"
)

// MaxMessageLength bounds an accepted message body.
const MaxMessageLength = 10000

const defaultSender = "unknown@unknown.com"

// IngestionService accepts raw customer messages from the connectors and
// records them as NEW tickets.
type IngestionService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// IngestionDependencies bundles collaborators for the ingestion service.
type IngestionDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

// IngestInput describes one incoming message.
type IngestInput struct {
	Source      domain.TicketSource
	Sender      string
	Subject     string
	Message     string
	RawMetadata map[string]any
}

// NewIngestionService constructs the service.
func NewIngestionService(deps IngestionDependencies) *IngestionService {
	return &IngestionService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
	}
}

// Ingest validates the input and stores it as a NEW ticket. Classification
// happens later in the worker; ingestion never blocks on the classifier.
func (s *IngestionService) Ingest(ctx context.Context, input IngestInput) (*domain.Ticket, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, util.NewValidationError("message must not be empty", nil)
	}
	if len(message) > MaxMessageLength {
		return nil, util.NewValidationError("message too long", map[string]any{
			"max_length": MaxMessageLength,
		})
	}

	sender := strings.TrimSpace(input.Sender)
	if sender == "" {
		sender = defaultSender
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		subject = defaultSubject(input.Source)
	}

	ticket := &domain.Ticket{
		Source:      input.Source,
		Sender:      sender,
		Subject:     subject,
		Message:     message,
		Status:      domain.TicketStatusNew,
		RawMetadata: input.RawMetadata,
	}
	if err := s.tickets.Insert(ctx, ticket); err != nil {
		return nil, util.NewInternalError(err)
	}

	s.metrics.RecordIngested(ticket.Source)
	s.publish(ctx, events.Event{
		Type:     events.EventTicketIngested,
		TicketID: ticket.ID,
		Payload: events.TicketIngestedPayload{
			Source: ticket.Source,
			Sender: ticket.Sender,
		},
	})
	s.logger.Info("ticket ingested",
		zap.String("ticket_id", ticket.ID),
		zap.String("source", string(ticket.Source)),
	)
	return ticket, nil
}

// Requeue moves a failed ticket back to NEW, clearing any classification
// fields so the worker picks it up on the next batch. Only ERROR tickets are
// eligible.
func (s *IngestionService) Requeue(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	expected := domain.TicketStatusError
	err := s.tickets.UpdateStatus(ctx, ticketID, &expected, repository.StatusUpdate{
		Status:              domain.TicketStatusNew,
		ClearClassification: true,
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		case errors.Is(err, repository.ErrConflict):
			return nil, util.NewConflict("only failed tickets can be requeued", map[string]any{
				"ticket_id": ticketID,
			})
		}
		return nil, util.NewInternalError(err)
	}

	s.logger.Info("ticket requeued", zap.String("ticket_id", ticketID))
	return s.tickets.GetByID(ctx, ticketID)
}

func (s *IngestionService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func defaultSubject(source domain.TicketSource) string {
	switch source {
	case domain.SourceFormContact:
		return "Contact Submission"
	case domain.SourceFormFeedback:
		return "Feedback Submission"
	case domain.SourceFormSupport:
		return "Support Submission"
	case domain.SourceFormCustom:
		return "Custom Submission"
	}
	return fmt.Sprintf("%s Submission", source)
}
