package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/analytics"
	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/events"
)

// WebhookPoster posts a message to a Slack incoming webhook.
type WebhookPoster func(url string, msg *slack.WebhookMessage) error

// NotificationService pushes pipeline events to Slack. It is a pure
// observer: failures are logged and never propagate back into the pipeline.
// Disabled entirely when no webhook URL is configured.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	post       WebhookPoster
}

// NewNotificationService creates the service. post defaults to
// slack.PostWebhook.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig, post WebhookPoster) *NotificationService {
	if post == nil {
		post = slack.PostWebhook
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
		post:       post,
	}
}

// Enabled reports whether notifications are configured.
func (n *NotificationService) Enabled() bool {
	return strings.TrimSpace(n.cfg.SlackWebhookURL) != ""
}

// RegisterHandlers subscribes to the events worth surfacing to humans.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil || !n.Enabled() {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketClassified, n.handleTicketClassified)
	n.dispatcher.Subscribe(events.EventAlertLevelChanged, n.handleAlertLevelChanged)
}

func (n *NotificationService) handleTicketClassified(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketClassifiedPayload)
	if !ok || payload.Sentiment != domain.SentimentAnger {
		return nil
	}

	text := fmt.Sprintf(":rotating_light: Angry customer detected (ticket %s, confidence %.2f)\n> %s",
		event.TicketID, payload.Confidence, payload.Summary)
	n.send(text, string(event.Type))
	return nil
}

func (n *NotificationService) handleAlertLevelChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.AlertLevelChangedPayload)
	if !ok {
		return nil
	}
	// Only escalations page; recoveries are visible on the dashboard.
	if !levelAbove(payload.NewLevel, payload.OldLevel) {
		return nil
	}

	text := fmt.Sprintf(":warning: Sentiment alert level raised to *%s* (anger ratio %.0f%% over the last 24h)",
		payload.NewLevel, payload.Ratio*100)
	n.send(text, string(event.Type))
	return nil
}

func (n *NotificationService) send(text, eventType string) {
	err := n.post(n.cfg.SlackWebhookURL, &slack.WebhookMessage{Text: text})
	if err != nil {
		n.logger.Warn("slack notification failed",
			zap.String("event_type", eventType), zap.Error(err))
		return
	}
	n.logger.Debug("slack notification sent", zap.String("event_type", eventType))
}

var levelRank = map[analytics.AlertLevel]int{
	analytics.AlertStable:   0,
	analytics.AlertElevated: 1,
	analytics.AlertCritical: 2,
}

func levelAbove(a, b analytics.AlertLevel) bool {
	return levelRank[a] > levelRank[b]
}
