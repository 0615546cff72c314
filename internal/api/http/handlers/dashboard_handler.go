package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sentiment-watchdog/internal/analytics"
	"github.com/spec-kit/sentiment-watchdog/internal/api/dto"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/service"
)

// DashboardHandler serves the read-side aggregates.
type DashboardHandler struct {
	dashboard *service.DashboardService
	ingestion *service.IngestionService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(dashboard *service.DashboardService, ingestion *service.IngestionService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, ingestion: ingestion}
}

// Stats GET /api/v1/stats.
func (h *DashboardHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.dashboard.Stats(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Tickets GET /api/v1/tickets. Supports range, sentiments and sources query
// filters; returns the matching window plus its sentiment breakdown.
func (h *DashboardHandler) Tickets(c *fiber.Ctx) error {
	filter := analytics.WindowFilter{
		Range:      parseRange(c),
		Sentiments: parseSentiments(c.Query("sentiments")),
		Sources:    parseSources(c.Query("sources")),
	}

	tickets, breakdown, hasData, err := h.dashboard.FilteredTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	response := fiber.Map{
		"data":     dto.FromTickets(tickets),
		"has_data": hasData,
	}
	if hasData {
		response["breakdown"] = breakdown
	}
	return c.JSON(response)
}

// Trend GET /api/v1/trend.
func (h *DashboardHandler) Trend(c *fiber.Ctx) error {
	rows, err := h.dashboard.Trend(c.UserContext(), parseRange(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rows})
}

// Sources GET /api/v1/sources.
func (h *DashboardHandler) Sources(c *fiber.Ctx) error {
	counts, err := h.dashboard.SourceBreakdown(c.UserContext(), parseRange(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// Alerts GET /api/v1/alerts.
func (h *DashboardHandler) Alerts(c *fiber.Ctx) error {
	report, err := h.dashboard.Alerts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"level":             report.Level,
		"ratio":             report.Ratio,
		"top_anger_tickets": dto.FromTickets(report.TopAngerTickets),
	}})
}

// RecentTickets GET /api/v1/tickets/recent.
func (h *DashboardHandler) RecentTickets(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	tickets, err := h.dashboard.RecentTickets(c.UserContext(), limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTickets(tickets)})
}

// GetTicket GET /api/v1/tickets/:id.
func (h *DashboardHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.dashboard.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// RequeueTicket POST /api/v1/tickets/:id/requeue.
func (h *DashboardHandler) RequeueTicket(c *fiber.Ctx) error {
	ticket, err := h.ingestion.Requeue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

func parseRange(c *fiber.Ctx) analytics.TimeRange {
	return analytics.TimeRange(c.Query("range", string(analytics.Range7d)))
}

func parseSentiments(raw string) []domain.Sentiment {
	var out []domain.Sentiment
	for _, part := range strings.Split(raw, ",") {
		sentiment := domain.Sentiment(strings.TrimSpace(strings.ToLower(part)))
		if sentiment.Valid() {
			out = append(out, sentiment)
		}
	}
	return out
}

func parseSources(raw string) []domain.TicketSource {
	var out []domain.TicketSource
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, domain.TicketSource(part))
		}
	}
	return out
}
