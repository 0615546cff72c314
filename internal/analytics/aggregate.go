// Package analytics computes aggregates and alerts over ticket snapshots.
// All functions are pure: they read one snapshot and never touch the store.
package analytics

import (
	"sort"
	"time"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// SystemStats counts tickets per lifecycle state. Unrecognized statuses
// count toward Total only, so the bucket sum may be below Total.
type SystemStats struct {
	Total      int `json:"total"`
	New        int `json:"new"`
	Processing int `json:"processing"`
	Processed  int `json:"processed"`
	Error      int `json:"error"`
}

// ComputeSystemStats tallies the snapshot.
func ComputeSystemStats(tickets []domain.Ticket) SystemStats {
	var stats SystemStats
	for _, ticket := range tickets {
		stats.Total++
		switch ticket.Status {
		case domain.TicketStatusNew:
			stats.New++
		case domain.TicketStatusProcessing:
			stats.Processing++
		case domain.TicketStatusProcessed:
			stats.Processed++
		case domain.TicketStatusError:
			stats.Error++
		}
	}
	return stats
}

// TimeRange names the supported trailing windows.
type TimeRange string

const (
	Range24h TimeRange = "24h"
	Range3d  TimeRange = "3d"
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
)

// Duration returns the window length, with ok=false for unknown ranges.
func (r TimeRange) Duration() (time.Duration, bool) {
	switch r {
	case Range24h:
		return 24 * time.Hour, true
	case Range3d:
		return 3 * 24 * time.Hour, true
	case Range7d:
		return 7 * 24 * time.Hour, true
	case Range30d:
		return 30 * 24 * time.Hour, true
	}
	return 0, false
}

// WindowFilter selects tickets in a trailing window with optional sentiment
// and source restrictions. Empty sets mean no restriction.
type WindowFilter struct {
	Range      TimeRange
	Sentiments []domain.Sentiment
	Sources    []domain.TicketSource
}

// FilterWindow keeps tickets with CreatedAt >= now - range that match the
// optional filters.
func FilterWindow(tickets []domain.Ticket, now time.Time, filter WindowFilter) []domain.Ticket {
	window, ok := filter.Range.Duration()
	if !ok {
		window = 7 * 24 * time.Hour
	}
	cutoff := now.Add(-window)

	var result []domain.Ticket
	for _, ticket := range tickets {
		if ticket.CreatedAt.Before(cutoff) {
			continue
		}
		if len(filter.Sentiments) > 0 {
			if ticket.Sentiment == nil || !sentimentIn(filter.Sentiments, *ticket.Sentiment) {
				continue
			}
		}
		if len(filter.Sources) > 0 && !sourceIn(filter.Sources, ticket.Source) {
			continue
		}
		result = append(result, ticket)
	}
	return result
}

// SentimentBreakdown reports per-sentiment counts and their share of the
// snapshot.
type SentimentBreakdown struct {
	Counts      map[domain.Sentiment]int     `json:"counts"`
	Percentages map[domain.Sentiment]float64 `json:"percentages"`
	Total       int                          `json:"total"`
}

// ComputeSentimentBreakdown tallies sentiments. ok is false on empty input:
// callers must branch on it rather than render degenerate zeros.
func ComputeSentimentBreakdown(tickets []domain.Ticket) (SentimentBreakdown, bool) {
	if len(tickets) == 0 {
		return SentimentBreakdown{}, false
	}

	breakdown := SentimentBreakdown{
		Counts:      make(map[domain.Sentiment]int, len(domain.Sentiments)),
		Percentages: make(map[domain.Sentiment]float64, len(domain.Sentiments)),
		Total:       len(tickets),
	}
	for _, sentiment := range domain.Sentiments {
		breakdown.Counts[sentiment] = 0
	}
	for _, ticket := range tickets {
		if ticket.Sentiment != nil {
			breakdown.Counts[*ticket.Sentiment]++
		}
	}
	for sentiment, count := range breakdown.Counts {
		breakdown.Percentages[sentiment] = float64(count) / float64(breakdown.Total) * 100
	}
	return breakdown, true
}

// TrendRow is one calendar date with counts for every sentiment.
type TrendRow struct {
	Date   string                   `json:"date"`
	Counts map[domain.Sentiment]int `json:"counts"`
}

// ComputeDailyTrend groups tickets by local calendar date and sentiment.
// The result is dense: every date between the minimum and maximum observed
// date is present, zero-filled, ascending.
func ComputeDailyTrend(tickets []domain.Ticket) []TrendRow {
	if len(tickets) == 0 {
		return nil
	}

	counts := make(map[string]map[domain.Sentiment]int)
	var minDay, maxDay time.Time
	for _, ticket := range tickets {
		local := ticket.CreatedAt.Local()
		day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.Local)
		key := day.Format("2006-01-02")
		if counts[key] == nil {
			counts[key] = make(map[domain.Sentiment]int)
		}
		if ticket.Sentiment != nil {
			counts[key][*ticket.Sentiment]++
		}
		if minDay.IsZero() || day.Before(minDay) {
			minDay = day
		}
		if maxDay.IsZero() || day.After(maxDay) {
			maxDay = day
		}
	}

	var rows []TrendRow
	for day := minDay; !day.After(maxDay); day = day.AddDate(0, 0, 1) {
		key := day.Format("2006-01-02")
		row := TrendRow{Date: key, Counts: make(map[domain.Sentiment]int, len(domain.Sentiments))}
		for _, sentiment := range domain.Sentiments {
			row.Counts[sentiment] = counts[key][sentiment]
		}
		rows = append(rows, row)
	}
	return rows
}

// SourceCount is one entry of the per-source breakdown.
type SourceCount struct {
	Source domain.TicketSource `json:"source"`
	Count  int                 `json:"count"`
}

// ComputeSourceBreakdown counts tickets per source, ordered by count
// descending with ties broken by source name ascending.
func ComputeSourceBreakdown(tickets []domain.Ticket) []SourceCount {
	counts := make(map[domain.TicketSource]int)
	for _, ticket := range tickets {
		counts[ticket.Source]++
	}

	result := make([]SourceCount, 0, len(counts))
	for source, count := range counts {
		result = append(result, SourceCount{Source: source, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count == result[j].Count {
			return result[i].Source < result[j].Source
		}
		return result[i].Count > result[j].Count
	})
	return result
}

func sentimentIn(list []domain.Sentiment, v domain.Sentiment) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func sourceIn(list []domain.TicketSource, v domain.TicketSource) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
