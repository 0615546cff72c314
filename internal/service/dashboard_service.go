package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/analytics"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/events"
	"github.com/spec-kit/sentiment-watchdog/internal/repository"
	"github.com/spec-kit/sentiment-watchdog/pkg/util"
)

const (
	statsCacheTTL  = 60 * time.Second
	reportCacheTTL = 30 * time.Second
)

// DashboardService computes read-side aggregates over the ticket snapshot,
// with a Redis cache in front. A broken cache degrades to misses: every read
// still answers from the store.
type DashboardService struct {
	tickets    repository.TicketRepository
	cache      *redis.Client
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.Mutex
	lastLevel analytics.AlertLevel
}

// DashboardDependencies bundles collaborators for the dashboard service.
type DashboardDependencies struct {
	TicketRepo repository.TicketRepository
	Cache      *redis.Client
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Now        func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(deps DashboardDependencies) *DashboardService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &DashboardService{
		tickets:    deps.TicketRepo,
		cache:      deps.Cache,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        now,
		lastLevel:  analytics.AlertStable,
	}
}

// Stats returns lifecycle counts for the whole collection.
func (s *DashboardService) Stats(ctx context.Context) (analytics.SystemStats, error) {
	var stats analytics.SystemStats
	if s.cacheGet(ctx, "dashboard:stats", &stats) {
		return stats, nil
	}

	snapshot, err := s.tickets.ListSnapshot(ctx, repository.SnapshotFilter{})
	if err != nil {
		return stats, util.NewInternalError(err)
	}
	stats = analytics.ComputeSystemStats(snapshot)
	s.cacheSet(ctx, "dashboard:stats", stats, statsCacheTTL)
	return stats, nil
}

// FilteredTickets returns processed tickets in the trailing window with
// optional sentiment and source restrictions, plus their sentiment
// breakdown. hasData is false when the window is empty.
func (s *DashboardService) FilteredTickets(ctx context.Context, filter analytics.WindowFilter) ([]domain.Ticket, analytics.SentimentBreakdown, bool, error) {
	type cached struct {
		Tickets   []domain.Ticket              `json:"tickets"`
		Breakdown analytics.SentimentBreakdown `json:"breakdown"`
		HasData   bool                         `json:"has_data"`
	}

	key := filterCacheKey(filter)
	var entry cached
	if s.cacheGet(ctx, key, &entry) {
		return entry.Tickets, entry.Breakdown, entry.HasData, nil
	}

	snapshot, err := s.tickets.ListSnapshot(ctx, repository.SnapshotFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusProcessed},
	})
	if err != nil {
		return nil, analytics.SentimentBreakdown{}, false, util.NewInternalError(err)
	}

	window := analytics.FilterWindow(snapshot, s.now(), filter)
	breakdown, hasData := analytics.ComputeSentimentBreakdown(window)

	s.cacheSet(ctx, key, cached{Tickets: window, Breakdown: breakdown, HasData: hasData}, reportCacheTTL)
	return window, breakdown, hasData, nil
}

// Trend returns the dense per-day sentiment counts for the trailing window.
func (s *DashboardService) Trend(ctx context.Context, timeRange analytics.TimeRange) ([]analytics.TrendRow, error) {
	key := "dashboard:trend:" + string(timeRange)
	var rows []analytics.TrendRow
	if s.cacheGet(ctx, key, &rows) {
		return rows, nil
	}

	snapshot, err := s.tickets.ListSnapshot(ctx, repository.SnapshotFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusProcessed},
	})
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	window := analytics.FilterWindow(snapshot, s.now(), analytics.WindowFilter{Range: timeRange})
	rows = analytics.ComputeDailyTrend(window)
	s.cacheSet(ctx, key, rows, reportCacheTTL)
	return rows, nil
}

// SourceBreakdown returns per-source ticket counts for the trailing window.
func (s *DashboardService) SourceBreakdown(ctx context.Context, timeRange analytics.TimeRange) ([]analytics.SourceCount, error) {
	key := "dashboard:sources:" + string(timeRange)
	var counts []analytics.SourceCount
	if s.cacheGet(ctx, key, &counts) {
		return counts, nil
	}

	snapshot, err := s.tickets.ListSnapshot(ctx, repository.SnapshotFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusProcessed},
	})
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	window := analytics.FilterWindow(snapshot, s.now(), analytics.WindowFilter{Range: timeRange})
	counts = analytics.ComputeSourceBreakdown(window)
	s.cacheSet(ctx, key, counts, reportCacheTTL)
	return counts, nil
}

// Alerts evaluates the anger alert over the last 24 hours. A level change
// between evaluations emits an alert_level_changed event.
func (s *DashboardService) Alerts(ctx context.Context) (analytics.AlertReport, error) {
	var report analytics.AlertReport
	if s.cacheGet(ctx, "dashboard:alerts", &report) {
		return report, nil
	}

	snapshot, err := s.tickets.ListSnapshot(ctx, repository.SnapshotFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusProcessed},
	})
	if err != nil {
		return report, util.NewInternalError(err)
	}

	report = analytics.EvaluateAlert(snapshot, s.now())
	s.trackLevelChange(ctx, report)
	s.cacheSet(ctx, "dashboard:alerts", report, reportCacheTTL)
	return report, nil
}

// RecentTickets returns the newest processed tickets first, bounded by
// limit. Tickets still moving through the pipeline are not shown.
func (s *DashboardService) RecentTickets(ctx context.Context, limit int) ([]domain.Ticket, error) {
	if limit <= 0 {
		limit = 20
	}

	snapshot, err := s.tickets.ListSnapshot(ctx, repository.SnapshotFilter{
		Statuses: []domain.TicketStatus{domain.TicketStatusProcessed},
	})
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	sort.Slice(snapshot, func(i, j int) bool {
		if snapshot[i].CreatedAt.Equal(snapshot[j].CreatedAt) {
			return snapshot[i].ID > snapshot[j].ID
		}
		return snapshot[i].CreatedAt.After(snapshot[j].CreatedAt)
	})
	if len(snapshot) > limit {
		snapshot = snapshot[:limit]
	}
	return snapshot, nil
}

// GetTicket fetches a single ticket by id.
func (s *DashboardService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, util.NewNotFound("ticket", map[string]any{"ticket_id": id})
		}
		return nil, util.NewInternalError(err)
	}
	return ticket, nil
}

func (s *DashboardService) trackLevelChange(ctx context.Context, report analytics.AlertReport) {
	s.mu.Lock()
	old := s.lastLevel
	s.lastLevel = report.Level
	s.mu.Unlock()

	if old == report.Level || s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type: events.EventAlertLevelChanged,
		Payload: events.AlertLevelChangedPayload{
			OldLevel: old,
			NewLevel: report.Level,
			Ratio:    report.Ratio,
		},
	})
	s.logger.Warn("alert level changed",
		zap.String("old_level", string(old)),
		zap.String("new_level", string(report.Level)),
		zap.Float64("ratio", report.Ratio),
	)
}

// cacheGet returns true on a hit. Any cache failure is a miss.
func (s *DashboardService) cacheGet(ctx context.Context, key string, target any) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Debug("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		s.logger.Debug("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (s *DashboardService) cacheSet(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		s.logger.Debug("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func filterCacheKey(filter analytics.WindowFilter) string {
	sentiments := make([]string, 0, len(filter.Sentiments))
	for _, sentiment := range filter.Sentiments {
		sentiments = append(sentiments, string(sentiment))
	}
	sources := make([]string, 0, len(filter.Sources))
	for _, source := range filter.Sources {
		sources = append(sources, string(source))
	}
	sort.Strings(sentiments)
	sort.Strings(sources)
	return fmt.Sprintf("dashboard:tickets:%s:%s:%s",
		filter.Range, strings.Join(sentiments, ","), strings.Join(sources, ","))
}
