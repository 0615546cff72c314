package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sentiment-watchdog/internal/api/dto"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/service"
	"github.com/spec-kit/sentiment-watchdog/pkg/util"
)

// WebhookHandler accepts form submissions from the website connectors.
type WebhookHandler struct {
	ingestion *service.IngestionService
}

// NewWebhookHandler constructs the handler.
func NewWebhookHandler(ingestion *service.IngestionService) *WebhookHandler {
	return &WebhookHandler{ingestion: ingestion}
}

// ContactForm POST /webhook/contact-form.
func (h *WebhookHandler) ContactForm(c *fiber.Ctx) error {
	return h.ingestForm(c, domain.SourceFormContact)
}

// Feedback POST /webhook/feedback.
func (h *WebhookHandler) Feedback(c *fiber.Ctx) error {
	return h.ingestForm(c, domain.SourceFormFeedback)
}

// Support POST /webhook/support.
func (h *WebhookHandler) Support(c *fiber.Ctx) error {
	return h.ingestForm(c, domain.SourceFormSupport)
}

// Custom POST /webhook/custom.
func (h *WebhookHandler) Custom(c *fiber.Ctx) error {
	return h.ingestForm(c, domain.SourceFormCustom)
}

func (h *WebhookHandler) ingestForm(c *fiber.Ctx, source domain.TicketSource) error {
	var req dto.WebhookFormRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Message) == "" {
		return util.NewValidationError("message required", nil)
	}

	metadata := req.Metadata
	if req.Name != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata["name"] = req.Name
	}

	ticket, err := h.ingestion.Ingest(c.UserContext(), service.IngestInput{
		Source:      source,
		Sender:      req.Email,
		Subject:     req.Subject,
		Message:     req.Message,
		RawMetadata: metadata,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.IngestResponse{
		TicketID: ticket.ID,
		Status:   string(ticket.Status),
	}})
}
