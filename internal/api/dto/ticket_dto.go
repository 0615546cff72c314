package dto

import (
	"time"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// TicketResponse is the wire shape of a ticket.
type TicketResponse struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Sender      string     `json:"sender"`
	Subject     string     `json:"subject"`
	Message     string     `json:"message"`
	Status      string     `json:"status"`
	Sentiment   *string    `json:"sentiment,omitempty"`
	Summary     *string    `json:"summary,omitempty"`
	Confidence  *float64   `json:"confidence,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// FromTicket maps a domain ticket to its response shape.
func FromTicket(ticket *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:          ticket.ID,
		Source:      string(ticket.Source),
		Sender:      ticket.Sender,
		Subject:     ticket.Subject,
		Message:     ticket.Message,
		Status:      string(ticket.Status),
		Summary:     ticket.Summary,
		Confidence:  ticket.Confidence,
		Keywords:    ticket.Keywords,
		CreatedAt:   ticket.CreatedAt,
		ProcessedAt: ticket.ProcessedAt,
	}
	if ticket.Sentiment != nil {
		sentiment := string(*ticket.Sentiment)
		resp.Sentiment = &sentiment
	}
	return resp
}

// FromTickets maps a slice of tickets.
func FromTickets(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, FromTicket(&tickets[i]))
	}
	return out
}
