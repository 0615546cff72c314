package service

import (
	"context"
	"strings"
	"testing"

	"github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/analytics"
	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/events"
)

type capturedPost struct {
	url  string
	text string
}

func newNotificationFixture(webhookURL string) (*NotificationService, events.Dispatcher, *[]capturedPost) {
	posts := &[]capturedPost{}
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewNotificationService(dispatcher, zap.NewNop(), config.NotificationConfig{
		SlackWebhookURL: webhookURL,
	}, func(url string, msg *slack.WebhookMessage) error {
		*posts = append(*posts, capturedPost{url: url, text: msg.Text})
		return nil
	})
	svc.RegisterHandlers()
	return svc, dispatcher, posts
}

func TestNotifyOnAngryClassification(t *testing.T) {
	_, dispatcher, posts := newNotificationFixture("https://hooks.slack.example/T000/B000")

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventTicketClassified,
		TicketID: "t1",
		Payload: events.TicketClassifiedPayload{
			Sentiment:  domain.SentimentAnger,
			Confidence: 0.92,
			Summary:    "Customer furious about repeated outages",
		},
	})

	if len(*posts) != 1 {
		t.Fatalf("posts = %d, want 1", len(*posts))
	}
	if !strings.Contains((*posts)[0].text, "t1") {
		t.Errorf("message %q missing ticket id", (*posts)[0].text)
	}
}

func TestNoNotifyOnCalmSentiments(t *testing.T) {
	_, dispatcher, posts := newNotificationFixture("https://hooks.slack.example/T000/B000")

	for _, sentiment := range []domain.Sentiment{domain.SentimentNeutral, domain.SentimentDelight, domain.SentimentConfusion} {
		_ = dispatcher.Publish(context.Background(), events.Event{
			Type:     events.EventTicketClassified,
			TicketID: "t1",
			Payload:  events.TicketClassifiedPayload{Sentiment: sentiment},
		})
	}

	if len(*posts) != 0 {
		t.Fatalf("posts = %d, want 0", len(*posts))
	}
}

func TestNotifyOnAlertEscalationOnly(t *testing.T) {
	_, dispatcher, posts := newNotificationFixture("https://hooks.slack.example/T000/B000")

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventAlertLevelChanged,
		Payload: events.AlertLevelChangedPayload{
			OldLevel: analytics.AlertStable,
			NewLevel: analytics.AlertCritical,
			Ratio:    0.42,
		},
	})
	// Recovery must stay quiet.
	_ = dispatcher.Publish(context.Background(), events.Event{
		Type: events.EventAlertLevelChanged,
		Payload: events.AlertLevelChangedPayload{
			OldLevel: analytics.AlertCritical,
			NewLevel: analytics.AlertStable,
			Ratio:    0.05,
		},
	})

	if len(*posts) != 1 {
		t.Fatalf("posts = %d, want 1 (escalation only)", len(*posts))
	}
	if !strings.Contains((*posts)[0].text, "critical") {
		t.Errorf("message %q missing level", (*posts)[0].text)
	}
}

func TestDisabledWithoutWebhookURL(t *testing.T) {
	svc, dispatcher, posts := newNotificationFixture("")

	if svc.Enabled() {
		t.Fatal("Enabled() = true with empty webhook URL")
	}
	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventTicketClassified,
		Payload: events.TicketClassifiedPayload{Sentiment: domain.SentimentAnger},
	})
	if len(*posts) != 0 {
		t.Fatalf("posts = %d, want 0 when disabled", len(*posts))
	}
}
