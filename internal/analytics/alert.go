package analytics

import (
	"sort"
	"time"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// AlertLevel grades the recent anger ratio.
type AlertLevel string

const (
	AlertStable   AlertLevel = "stable"
	AlertElevated AlertLevel = "elevated"
	AlertCritical AlertLevel = "critical"
)

const (
	criticalAngerRatio = 0.30
	elevatedAngerRatio = 0.20
	alertWindow        = 24 * time.Hour
	topAngerLimit      = 5
)

// AlertReport is the alerting evaluator output.
type AlertReport struct {
	Level           AlertLevel      `json:"level"`
	Ratio           float64         `json:"ratio"`
	TopAngerTickets []domain.Ticket `json:"top_anger_tickets"`
}

// EvaluateAlert computes the anger ratio over tickets created in the last
// 24 hours. An empty window yields Stable with ratio 0, never an error.
func EvaluateAlert(tickets []domain.Ticket, now time.Time) AlertReport {
	cutoff := now.Add(-alertWindow)

	var windowTotal int
	var angry []domain.Ticket
	for _, ticket := range tickets {
		if ticket.CreatedAt.Before(cutoff) {
			continue
		}
		windowTotal++
		if ticket.Sentiment != nil && *ticket.Sentiment == domain.SentimentAnger {
			angry = append(angry, ticket)
		}
	}

	report := AlertReport{Level: AlertStable}
	if windowTotal == 0 {
		return report
	}

	report.Ratio = float64(len(angry)) / float64(windowTotal)
	switch {
	case report.Ratio >= criticalAngerRatio:
		report.Level = AlertCritical
	case report.Ratio >= elevatedAngerRatio:
		report.Level = AlertElevated
	}

	sort.Slice(angry, func(i, j int) bool {
		return angry[i].CreatedAt.After(angry[j].CreatedAt)
	})
	if len(angry) > topAngerLimit {
		angry = angry[:topAngerLimit]
	}
	report.TopAngerTickets = angry
	return report
}
