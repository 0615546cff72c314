package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/classifier"
	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/observability"
	"github.com/spec-kit/sentiment-watchdog/internal/repository"
)

// fakeClock advances instantly and records sleep requests.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) sleepCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleeps)
}

// stubClassifier returns a fixed result or error, counting calls.
type stubClassifier struct {
	result classifier.Result
	err    error
	calls  int
}

func (s *stubClassifier) Classify(ctx context.Context, cleaned string) (classifier.Result, error) {
	s.calls++
	if s.err != nil {
		return classifier.Result{}, s.err
	}
	return s.result, nil
}

func testConfig() config.WorkerConfig {
	return config.WorkerConfig{
		BatchSize:       10,
		IntervalSeconds: 60,
		PacingSeconds:   2,
		CooldownSeconds: 60,
	}
}

func newTestWorker(repo repository.TicketRepository, cls Classifier, clock Clock) *Worker {
	return New(testConfig(), Dependencies{
		Repo:       repo,
		Classifier: cls,
		Metrics:    observability.NewMetrics(),
		Logger:     zap.NewNop(),
		Clock:      clock,
	})
}

func seedTicket(t *testing.T, repo *repository.MemoryTicketRepository, id, message string, createdAt time.Time) {
	t.Helper()
	ticket := &domain.Ticket{
		ID:        id,
		Source:    domain.SourceEmail,
		Sender:    "customer@example.com",
		Message:   message,
		Status:    domain.TicketStatusNew,
		CreatedAt: createdAt,
	}
	if err := repo.Insert(context.Background(), ticket); err != nil {
		t.Fatalf("Insert: %v", err)
	}
}

func TestProcessOneHappyPath(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	seedTicket(t, repo, "t1", "My internet has been down for 3 days! I need it fixed NOW!", clock.Now())

	cls := &stubClassifier{result: classifier.Result{
		Sentiment:  domain.SentimentAnger,
		Summary:    "Customer frustrated by outage",
		Confidence: 0.95,
		Keywords:   []string{"outage", "down", "fix"},
	}}
	w := newTestWorker(repo, cls, clock)

	result, err := w.ProcessBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Processed != 1 || result.Errored != 0 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}

	got, _ := repo.GetByID(context.Background(), "t1")
	if got.Status != domain.TicketStatusProcessed {
		t.Errorf("status = %s, want PROCESSED", got.Status)
	}
	if got.Sentiment == nil || *got.Sentiment != domain.SentimentAnger {
		t.Errorf("sentiment = %v, want anger", got.Sentiment)
	}
	if got.Confidence == nil || *got.Confidence < 0 || *got.Confidence > 1 {
		t.Errorf("confidence = %v, want in [0,1]", got.Confidence)
	}
	if len(got.Keywords) == 0 {
		t.Error("keywords empty, want non-empty")
	}
	if got.ProcessedAt == nil {
		t.Error("processedAt not set")
	}

	stats, err := repo.ListSnapshot(context.Background(), repository.SnapshotFilter{})
	if err != nil {
		t.Fatalf("ListSnapshot: %v", err)
	}
	var newCount, processedCount int
	for _, ticket := range stats {
		switch ticket.Status {
		case domain.TicketStatusNew:
			newCount++
		case domain.TicketStatusProcessed:
			processedCount++
		}
	}
	if processedCount != 1 || newCount != 0 {
		t.Errorf("processed = %d, new = %d; want 1, 0", processedCount, newCount)
	}
}

func TestProcessOneEmptyMessageNeverEntersProcessing(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	seedTicket(t, repo, "t1", "   ", clock.Now())

	cls := &stubClassifier{result: classifier.Result{Sentiment: domain.SentimentNeutral}}
	w := newTestWorker(repo, cls, clock)

	result, err := w.ProcessBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Errored != 1 || result.Processed != 0 {
		t.Fatalf("result = %+v, want 1 errored", result)
	}
	if cls.calls != 0 {
		t.Fatalf("classifier called %d times for empty message", cls.calls)
	}

	got, _ := repo.GetByID(context.Background(), "t1")
	if got.Status != domain.TicketStatusError {
		t.Errorf("status = %s, want ERROR", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Error("processedAt not set on terminal error")
	}
	if got.Sentiment != nil {
		t.Error("sentiment present on errored ticket")
	}
}

func TestProcessOneClassificationFailureIsTerminal(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	seedTicket(t, repo, "t1", "a perfectly reasonable message", clock.Now())

	cls := &stubClassifier{err: classifier.ErrClassificationFailed}
	w := newTestWorker(repo, cls, clock)

	result, err := w.ProcessBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Errored != 1 {
		t.Fatalf("result = %+v, want 1 errored", result)
	}

	got, _ := repo.GetByID(context.Background(), "t1")
	if got.Status != domain.TicketStatusError {
		t.Errorf("status = %s, want ERROR (failed tickets are never re-queued)", got.Status)
	}
	if got.ProcessedAt == nil {
		t.Error("processedAt not set")
	}
}

func TestProcessOneLostClaimIsSkipNotError(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	seedTicket(t, repo, "t1", "a perfectly reasonable message", clock.Now())

	// Another worker got there first.
	expected := domain.TicketStatusNew
	if err := repo.UpdateStatus(context.Background(), "t1", &expected, repository.StatusUpdate{
		Status: domain.TicketStatusProcessing,
	}); err != nil {
		t.Fatalf("pre-claim: %v", err)
	}

	cls := &stubClassifier{result: classifier.Result{Sentiment: domain.SentimentNeutral}}
	w := newTestWorker(repo, cls, clock)

	out, err := w.ProcessOne(context.Background(), domain.Ticket{ID: "t1", Message: "a perfectly reasonable message"})
	if err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if out != outcomeSkipped {
		t.Fatalf("outcome = %v, want skipped", out)
	}
	if cls.calls != 0 {
		t.Errorf("classifier called despite lost claim")
	}
}

func TestProcessBatchContinuesPastFailures(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	base := clock.Now()
	seedTicket(t, repo, "a", "", base)
	seedTicket(t, repo, "b", "a message that classifies fine today", base.Add(time.Second))
	seedTicket(t, repo, "c", "another message that classifies fine", base.Add(2*time.Second))

	cls := &stubClassifier{result: classifier.Result{
		Sentiment:  domain.SentimentNeutral,
		Summary:    "ok",
		Confidence: 0.7,
		Keywords:   []string{},
	}}
	w := newTestWorker(repo, cls, clock)

	result, err := w.ProcessBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Processed != 2 || result.Errored != 1 {
		t.Fatalf("result = %+v, want 2 processed, 1 errored", result)
	}
}

func TestProcessBatchPacesClassifierCalls(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	base := clock.Now()
	seedTicket(t, repo, "a", "first message needing classification", base)
	seedTicket(t, repo, "b", "second message needing classification", base.Add(time.Second))
	seedTicket(t, repo, "c", "third message needing classification", base.Add(2*time.Second))

	cls := &stubClassifier{result: classifier.Result{Sentiment: domain.SentimentNeutral, Confidence: 0.5, Keywords: []string{}}}
	w := newTestWorker(repo, cls, clock)

	if _, err := w.ProcessBatch(context.Background(), 10); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	// Two pacing delays between three classifier invocations.
	if clock.sleepCount() != 2 {
		t.Fatalf("sleeps = %d, want 2", clock.sleepCount())
	}
	for _, d := range clock.sleeps {
		if d != 2*time.Second {
			t.Errorf("pacing delay = %s, want 2s", d)
		}
	}
}

func TestProcessBatchEmptyPendingIsNoop(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	cls := &stubClassifier{}
	w := newTestWorker(repo, cls, newFakeClock())

	result, err := w.ProcessBatch(context.Background(), 10)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Processed != 0 || result.Errored != 0 {
		t.Fatalf("result = %+v, want zeros", result)
	}
	if cls.calls != 0 {
		t.Errorf("classifier called on empty batch")
	}
}

// End to end against the real classifier pipeline: transport fails on all
// three attempts and the ticket lands in ERROR.
func TestProcessOneTransportExhaustionEndToEnd(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	clock := newFakeClock()
	seedTicket(t, repo, "t1", "the portal keeps rejecting my password over and over", clock.Now())

	transport := &countingFailingTransport{}
	policy := classifier.RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       func(ctx context.Context, d time.Duration) {},
	}
	svc := classifier.NewService(transport, policy, nil, zap.NewNop())
	w := newTestWorker(repo, svc, clock)

	result, err := w.ProcessBatch(context.Background(), 1)
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if result.Errored != 1 {
		t.Fatalf("result = %+v, want 1 errored", result)
	}
	if transport.calls != 3 {
		t.Fatalf("transport attempts = %d, want exactly 3", transport.calls)
	}

	got, _ := repo.GetByID(context.Background(), "t1")
	if got.Status != domain.TicketStatusError {
		t.Errorf("status = %s, want ERROR", got.Status)
	}
}

type countingFailingTransport struct {
	calls int
}

func (t *countingFailingTransport) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	t.calls++
	return "", errors.New("connection refused")
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := repository.NewMemoryTicketRepository()
	cls := &stubClassifier{result: classifier.Result{Sentiment: domain.SentimentNeutral}}
	w := newTestWorker(repo, cls, newFakeClock())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after cancellation")
	}
}
