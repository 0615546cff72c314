package dto

// WebhookFormRequest is the payload accepted by the form webhook endpoints.
type WebhookFormRequest struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Subject  string         `json:"subject"`
	Message  string         `json:"message"`
	Metadata map[string]any `json:"metadata"`
}

// IngestResponse acknowledges an accepted submission.
type IngestResponse struct {
	TicketID string `json:"ticket_id"`
	Status   string `json:"status"`
}
