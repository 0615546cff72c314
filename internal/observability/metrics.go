package observability

import (
	"sync"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// Metrics provides basic in-memory counters for the ingestion and
// classification pipeline.
type Metrics struct {
	mu             sync.Mutex
	ingested       map[domain.TicketSource]int64
	classified     map[domain.Sentiment]int64
	classifyErrors int64
	requestCount   map[string]int64
	errorCount     map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		ingested:     make(map[domain.TicketSource]int64),
		classified:   make(map[domain.Sentiment]int64),
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordIngested counts an accepted ticket per source.
func (m *Metrics) RecordIngested(source domain.TicketSource) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested[source]++
}

// RecordClassified counts a successful classification per sentiment.
func (m *Metrics) RecordClassified(sentiment domain.Sentiment) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classified[sentiment]++
}

// RecordClassifyError counts a ticket that reached the ERROR state.
func (m *Metrics) RecordClassifyError() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.classifyErrors++
}

// RecordRequest increments the counter for an HTTP route.
func (m *Metrics) RecordRequest(path, method string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[method+" "+path]++
}

// RecordError increments the counter for a failed request by error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[method+" "+path+" "+code]++
}

// Snapshot returns a copy of all counters keyed for serialization.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]int64, len(m.ingested)+len(m.classified)+len(m.requestCount)+1)
	for source, n := range m.ingested {
		out["ingested."+string(source)] = n
	}
	for sentiment, n := range m.classified {
		out["classified."+string(sentiment)] = n
	}
	out["classify_errors"] = m.classifyErrors
	for route, n := range m.requestCount {
		out["http."+route] = n
	}
	for route, n := range m.errorCount {
		out["http_error."+route] = n
	}
	return out
}
