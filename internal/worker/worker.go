// Package worker drains pending tickets through the classification
// pipeline and applies the lifecycle state transitions.
package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/classifier"
	"github.com/spec-kit/sentiment-watchdog/internal/config"
	"github.com/spec-kit/sentiment-watchdog/internal/domain"
	"github.com/spec-kit/sentiment-watchdog/internal/events"
	"github.com/spec-kit/sentiment-watchdog/internal/normalize"
	"github.com/spec-kit/sentiment-watchdog/internal/observability"
	"github.com/spec-kit/sentiment-watchdog/internal/repository"
)

// Classifier maps a cleaned message to a sentiment judgement.
type Classifier interface {
	Classify(ctx context.Context, cleaned string) (classifier.Result, error)
}

// BatchResult reports one processBatch run.
type BatchResult struct {
	Processed int
	Errored   int
}

type outcome int

const (
	outcomeProcessed outcome = iota
	outcomeErrored
	outcomeSkipped
)

// Dependencies bundles collaborators for the worker.
type Dependencies struct {
	Repo       repository.TicketRepository
	Classifier Classifier
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Logger     *zap.Logger
	Clock      Clock
}

// Worker is the single live classification worker for a deployment.
// Tickets within one batch are handled strictly sequentially to bound load
// on the external classifier.
type Worker struct {
	repo       repository.TicketRepository
	classifier Classifier
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	clock      Clock
	cfg        config.WorkerConfig
}

// New constructs the worker.
func New(cfg config.WorkerConfig, deps Dependencies) *Worker {
	clock := deps.Clock
	if clock == nil {
		clock = NewRealClock()
	}
	return &Worker{
		repo:       deps.Repo,
		classifier: deps.Classifier,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		clock:      clock,
		cfg:        cfg,
	}
}

// Run processes batches on the configured interval until ctx is cancelled.
// Cancellation is honored at one-second granularity. An unexpected batch
// failure is logged and followed by a cooldown, never a crash.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("classification worker started",
		zap.Int("batch_size", w.cfg.BatchSize),
		zap.Duration("interval", w.cfg.Interval()),
	)

	for ctx.Err() == nil {
		start := w.clock.Now()
		result, err := w.safeProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Error("processing loop failure", zap.Error(err))
			w.wait(ctx, w.cfg.Cooldown())
			continue
		}
		if result.Processed+result.Errored > 0 {
			w.logger.Info("batch complete",
				zap.Int("processed", result.Processed),
				zap.Int("errors", result.Errored),
			)
		}

		elapsed := w.clock.Now().Sub(start)
		w.wait(ctx, w.cfg.Interval()-elapsed)
	}

	w.logger.Info("classification worker stopped")
}

func (w *Worker) safeProcessBatch(ctx context.Context) (result BatchResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in batch: %v", r)
		}
	}()
	return w.ProcessBatch(ctx, w.cfg.BatchSize)
}

// ProcessBatch fetches up to limit pending tickets and processes them
// sequentially with a pacing delay between classifier invocations. A store
// fetch failure is returned to the caller; per-ticket failures only abort
// that ticket.
func (w *Worker) ProcessBatch(ctx context.Context, limit int) (BatchResult, error) {
	var result BatchResult

	pending, err := w.repo.ListPending(ctx, limit)
	if err != nil {
		return result, fmt.Errorf("fetch pending: %w", err)
	}
	if len(pending) == 0 {
		return result, nil
	}

	classifierCalled := false
	for i := range pending {
		ticket := pending[i]

		if needsClassification(ticket) {
			if classifierCalled {
				w.clock.Sleep(ctx, w.cfg.Pacing())
			}
			classifierCalled = true
		}

		out, err := w.ProcessOne(ctx, ticket)
		if err != nil {
			w.logger.Error("ticket processing aborted",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		switch out {
		case outcomeProcessed:
			result.Processed++
		case outcomeErrored:
			result.Errored++
		}
	}

	return result, nil
}

// ProcessOne drives a single ticket through its lifecycle. A lost claim is
// a skip, not an error. The returned error indicates a store failure for
// this ticket only.
func (w *Worker) ProcessOne(ctx context.Context, ticket domain.Ticket) (outcome, error) {
	// Empty messages go straight to ERROR without ever entering
	// PROCESSING or touching the classifier.
	if strings.TrimSpace(ticket.Message) == "" {
		out, err := w.writeTerminalError(ctx, ticket.ID, domain.TicketStatusNew, "empty message")
		if err != nil {
			return outcomeSkipped, err
		}
		return out, nil
	}

	expected := domain.TicketStatusNew
	if err := w.repo.UpdateStatus(ctx, ticket.ID, &expected, repository.StatusUpdate{
		Status: domain.TicketStatusProcessing,
	}); err != nil {
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			w.logger.Debug("claim lost, skipping ticket", zap.String("ticket_id", ticket.ID))
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("claim ticket: %w", err)
	}

	// A claimed ticket must not stay in PROCESSING if classification
	// panics below; the guard forces the terminal write.
	settled := false
	defer func() {
		if !settled {
			_, _ = w.writeTerminalError(ctx, ticket.ID, domain.TicketStatusProcessing, "processing aborted")
		}
	}()

	cleaned := normalize.Clean(ticket.Message)
	result, classifyErr := w.classifier.Classify(ctx, cleaned)
	if classifyErr != nil {
		out, err := w.writeTerminalError(ctx, ticket.ID, domain.TicketStatusProcessing, classifyErr.Error())
		settled = true
		if err != nil {
			return outcomeSkipped, err
		}
		w.logger.Warn("ticket classification failed",
			zap.String("ticket_id", ticket.ID), zap.Error(classifyErr))
		return out, nil
	}

	processedAt := w.clock.Now()
	expected = domain.TicketStatusProcessing
	err := w.repo.UpdateStatus(ctx, ticket.ID, &expected, repository.StatusUpdate{
		Status: domain.TicketStatusProcessed,
		Classification: &domain.Classification{
			Sentiment:  result.Sentiment,
			Summary:    result.Summary,
			Confidence: result.Confidence,
			Keywords:   result.Keywords,
		},
		ProcessedAt: &processedAt,
	})
	settled = true
	if err != nil {
		return outcomeSkipped, fmt.Errorf("write processed: %w", err)
	}

	w.metrics.RecordClassified(result.Sentiment)
	w.publish(ctx, events.Event{
		Type:     events.EventTicketClassified,
		TicketID: ticket.ID,
		Payload: events.TicketClassifiedPayload{
			Sentiment:  result.Sentiment,
			Confidence: result.Confidence,
			Summary:    result.Summary,
		},
	})
	w.logger.Info("ticket processed",
		zap.String("ticket_id", ticket.ID),
		zap.String("sentiment", string(result.Sentiment)),
		zap.Float64("confidence", result.Confidence),
	)
	return outcomeProcessed, nil
}

// writeTerminalError transitions a ticket to ERROR with processedAt set,
// guarded by the expected current status.
func (w *Worker) writeTerminalError(ctx context.Context, ticketID string, expected domain.TicketStatus, reason string) (outcome, error) {
	processedAt := w.clock.Now()
	err := w.repo.UpdateStatus(ctx, ticketID, &expected, repository.StatusUpdate{
		Status:      domain.TicketStatusError,
		ProcessedAt: &processedAt,
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			return outcomeSkipped, nil
		}
		return outcomeSkipped, fmt.Errorf("write error status: %w", err)
	}

	w.metrics.RecordClassifyError()
	w.publish(ctx, events.Event{
		Type:     events.EventTicketFailed,
		TicketID: ticketID,
		Payload:  events.TicketFailedPayload{Reason: reason},
	})
	return outcomeErrored, nil
}

func (w *Worker) publish(ctx context.Context, event events.Event) {
	if w.dispatcher == nil {
		return
	}
	_ = w.dispatcher.Publish(ctx, event)
}

// wait sleeps for d in steps of at most one second so cancellation is
// observed promptly.
func (w *Worker) wait(ctx context.Context, d time.Duration) {
	for remaining := d; remaining > 0 && ctx.Err() == nil; remaining -= time.Second {
		step := time.Second
		if remaining < step {
			step = remaining
		}
		w.clock.Sleep(ctx, step)
	}
}

func needsClassification(ticket domain.Ticket) bool {
	return strings.TrimSpace(ticket.Message) != ""
}
