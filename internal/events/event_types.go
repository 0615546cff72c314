package events

import (
	"time"

	"github.com/spec-kit/sentiment-watchdog/internal/analytics"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketIngested    EventType = "ticket_ingested"
	EventTicketClassified  EventType = "ticket_classified"
	EventTicketFailed      EventType = "ticket_failed"
	EventAlertLevelChanged EventType = "alert_level_changed"
)

// Event represents a domain event emitted by the pipeline.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketIngestedPayload payload.
type TicketIngestedPayload struct {
	Source domain.TicketSource `json:"source"`
	Sender string              `json:"sender"`
}

// TicketClassifiedPayload payload.
type TicketClassifiedPayload struct {
	Sentiment  domain.Sentiment `json:"sentiment"`
	Confidence float64          `json:"confidence"`
	Summary    string           `json:"summary"`
}

// TicketFailedPayload payload.
type TicketFailedPayload struct {
	Reason string `json:"reason"`
}

// AlertLevelChangedPayload payload.
type AlertLevelChangedPayload struct {
	OldLevel analytics.AlertLevel `json:"old_level"`
	NewLevel analytics.AlertLevel `json:"new_level"`
	Ratio    float64              `json:"ratio"`
}
