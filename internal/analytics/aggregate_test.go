package analytics

import (
	"testing"
	"time"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

func processedTicket(id string, createdAt time.Time, sentiment domain.Sentiment, source domain.TicketSource) domain.Ticket {
	s := sentiment
	return domain.Ticket{
		ID:        id,
		Source:    source,
		Status:    domain.TicketStatusProcessed,
		Sentiment: &s,
		CreatedAt: createdAt,
	}
}

func TestComputeSystemStats(t *testing.T) {
	now := time.Now()
	tickets := []domain.Ticket{
		{ID: "1", Status: domain.TicketStatusNew, CreatedAt: now},
		{ID: "2", Status: domain.TicketStatusNew, CreatedAt: now},
		{ID: "3", Status: domain.TicketStatusProcessing, CreatedAt: now},
		{ID: "4", Status: domain.TicketStatusProcessed, CreatedAt: now},
		{ID: "5", Status: domain.TicketStatusError, CreatedAt: now},
		{ID: "6", Status: domain.TicketStatus("ARCHIVED"), CreatedAt: now},
	}

	stats := ComputeSystemStats(tickets)
	if stats.Total != 6 {
		t.Errorf("total = %d, want 6", stats.Total)
	}
	if stats.New != 2 || stats.Processing != 1 || stats.Processed != 1 || stats.Error != 1 {
		t.Errorf("stats = %+v", stats)
	}
	// The unknown status folds into Total only.
	if sum := stats.New + stats.Processing + stats.Processed + stats.Error; sum != 5 {
		t.Errorf("bucket sum = %d, want 5", sum)
	}
}

func TestComputeSystemStatsEmpty(t *testing.T) {
	stats := ComputeSystemStats(nil)
	if stats.Total != 0 {
		t.Fatalf("stats = %+v, want zeros", stats)
	}
}

func TestFilterWindowCutoff(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	inside := processedTicket("in", now.Add(-23*time.Hour), domain.SentimentNeutral, domain.SourceEmail)
	boundary := processedTicket("edge", now.Add(-24*time.Hour), domain.SentimentNeutral, domain.SourceEmail)
	outside := processedTicket("out", now.Add(-25*time.Hour), domain.SentimentNeutral, domain.SourceEmail)

	got := FilterWindow([]domain.Ticket{inside, boundary, outside}, now, WindowFilter{Range: Range24h})
	if len(got) != 2 {
		t.Fatalf("window = %d tickets, want 2 (boundary is inclusive)", len(got))
	}
	for _, ticket := range got {
		if ticket.ID == "out" {
			t.Error("ticket outside the window kept")
		}
	}
}

func TestFilterWindowEmptySetsMeanNoRestriction(t *testing.T) {
	now := time.Now()
	tickets := []domain.Ticket{
		processedTicket("1", now.Add(-time.Hour), domain.SentimentAnger, domain.SourceEmail),
		processedTicket("2", now.Add(-time.Hour), domain.SentimentDelight, domain.SourceFormContact),
	}

	got := FilterWindow(tickets, now, WindowFilter{Range: Range24h})
	if len(got) != 2 {
		t.Fatalf("empty filter sets excluded tickets: got %d, want 2", len(got))
	}
}

func TestFilterWindowSentimentAndSourceSets(t *testing.T) {
	now := time.Now()
	tickets := []domain.Ticket{
		processedTicket("1", now.Add(-time.Hour), domain.SentimentAnger, domain.SourceEmail),
		processedTicket("2", now.Add(-time.Hour), domain.SentimentDelight, domain.SourceEmail),
		processedTicket("3", now.Add(-time.Hour), domain.SentimentAnger, domain.SourceFormContact),
	}

	got := FilterWindow(tickets, now, WindowFilter{
		Range:      Range24h,
		Sentiments: []domain.Sentiment{domain.SentimentAnger},
		Sources:    []domain.TicketSource{domain.SourceEmail},
	})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("filtered = %+v, want only ticket 1", got)
	}
}

func TestComputeSentimentBreakdown(t *testing.T) {
	now := time.Now()
	tickets := []domain.Ticket{
		processedTicket("1", now, domain.SentimentAnger, domain.SourceEmail),
		processedTicket("2", now, domain.SentimentAnger, domain.SourceEmail),
		processedTicket("3", now, domain.SentimentDelight, domain.SourceEmail),
		processedTicket("4", now, domain.SentimentNeutral, domain.SourceEmail),
	}

	breakdown, ok := ComputeSentimentBreakdown(tickets)
	if !ok {
		t.Fatal("expected data")
	}
	if breakdown.Counts[domain.SentimentAnger] != 2 {
		t.Errorf("anger count = %d", breakdown.Counts[domain.SentimentAnger])
	}
	if breakdown.Percentages[domain.SentimentAnger] != 50 {
		t.Errorf("anger pct = %f, want 50", breakdown.Percentages[domain.SentimentAnger])
	}
	if breakdown.Counts[domain.SentimentConfusion] != 0 {
		t.Errorf("confusion count = %d, want explicit zero", breakdown.Counts[domain.SentimentConfusion])
	}
}

func TestComputeSentimentBreakdownEmptyInput(t *testing.T) {
	if _, ok := ComputeSentimentBreakdown(nil); ok {
		t.Fatal("empty input must report no data, not zeros")
	}
}

func TestComputeDailyTrendIsDense(t *testing.T) {
	day1 := time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)
	day3 := time.Date(2025, 6, 3, 9, 0, 0, 0, time.Local)
	tickets := []domain.Ticket{
		processedTicket("1", day1, domain.SentimentAnger, domain.SourceEmail),
		processedTicket("2", day3, domain.SentimentNeutral, domain.SourceEmail),
	}

	rows := ComputeDailyTrend(tickets)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3 (dense across the gap)", len(rows))
	}
	if rows[0].Date != "2025-06-01" || rows[1].Date != "2025-06-02" || rows[2].Date != "2025-06-03" {
		t.Fatalf("dates = %s, %s, %s", rows[0].Date, rows[1].Date, rows[2].Date)
	}
	if rows[0].Counts[domain.SentimentAnger] != 1 {
		t.Errorf("day1 anger = %d", rows[0].Counts[domain.SentimentAnger])
	}
	for sentiment, count := range rows[1].Counts {
		if count != 0 {
			t.Errorf("gap day %s = %d, want 0", sentiment, count)
		}
	}
	if len(rows[1].Counts) != len(domain.Sentiments) {
		t.Errorf("gap day has %d sentiment columns, want %d", len(rows[1].Counts), len(domain.Sentiments))
	}
	if rows[2].Counts[domain.SentimentNeutral] != 1 {
		t.Errorf("day3 neutral = %d", rows[2].Counts[domain.SentimentNeutral])
	}
}

func TestComputeDailyTrendEmpty(t *testing.T) {
	if rows := ComputeDailyTrend(nil); rows != nil {
		t.Fatalf("rows = %+v, want nil", rows)
	}
}

func TestComputeSourceBreakdownOrdering(t *testing.T) {
	now := time.Now()
	var tickets []domain.Ticket
	add := func(n int, source domain.TicketSource) {
		for i := 0; i < n; i++ {
			tickets = append(tickets, processedTicket("", now, domain.SentimentNeutral, source))
		}
	}
	add(3, domain.SourceFormSupport)
	add(1, domain.SourceEmail)
	add(3, domain.SourceFormContact)

	got := ComputeSourceBreakdown(tickets)
	if len(got) != 3 {
		t.Fatalf("entries = %d, want 3", len(got))
	}
	// Count descending; the 3/3 tie breaks on source name ascending.
	if got[0].Source != domain.SourceFormContact || got[1].Source != domain.SourceFormSupport {
		t.Errorf("order = %s, %s; want Form_Contact then Form_Support", got[0].Source, got[1].Source)
	}
	if got[2].Source != domain.SourceEmail || got[2].Count != 1 {
		t.Errorf("last = %+v", got[2])
	}
}
