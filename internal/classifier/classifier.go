// Package classifier maps cleaned customer messages to a sentiment
// judgement via an external model.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/domain"
)

// ErrClassificationFailed marks a ticket whose classification attempts are
// exhausted. The caller transitions the ticket to ERROR; it is never
// re-queued automatically.
var ErrClassificationFailed = errors.New("classification failed")

// MinMessageLength is the cleaned-message length below which the external
// model is not contacted.
const MinMessageLength = 10

const shortMessageSummary = "Message too short for analysis"

// Result is a validated classification outcome.
type Result struct {
	Sentiment  domain.Sentiment
	Summary    string
	Confidence float64
	Keywords   []string
}

// Transport sends a prompt pair to the external model and returns its raw
// text response.
type Transport interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service runs the classification pipeline: short-circuit, bounded retry
// against the transport, response validation and lexicon overrides.
type Service struct {
	transport Transport
	retry     RetryPolicy
	lexicon   *Lexicon
	logger    *zap.Logger
}

// NewService constructs the pipeline. lexicon may be nil.
func NewService(transport Transport, retry RetryPolicy, lexicon *Lexicon, logger *zap.Logger) *Service {
	return &Service{transport: transport, retry: retry, lexicon: lexicon, logger: logger}
}

// Classify returns the sentiment judgement for an already-cleaned message.
// Messages shorter than MinMessageLength never reach the transport. Length
// counts characters, not bytes.
func (s *Service) Classify(ctx context.Context, cleaned string) (Result, error) {
	if utf8.RuneCountInString(cleaned) < MinMessageLength {
		return Result{
			Sentiment:  domain.SentimentNeutral,
			Summary:    shortMessageSummary,
			Confidence: 0.5,
			Keywords:   []string{},
		}, nil
	}

	systemPrompt, userPrompt := buildPrompts(cleaned)

	var result Result
	err := s.retry.Do(ctx, func() error {
		raw, err := s.transport.Complete(ctx, systemPrompt, userPrompt)
		if err != nil {
			s.logger.Warn("classifier transport error", zap.Error(err))
			return err
		}
		parsed, err := parseResponse(raw)
		if err != nil {
			s.logger.Warn("classifier parse error", zap.Error(err))
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrClassificationFailed) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("%w: %v", ErrClassificationFailed, err)
	}

	if s.lexicon != nil {
		result = s.lexicon.Apply(cleaned, result)
	}
	return result, nil
}

// parseResponse decodes the model's JSON object. All four keys must be
// present; present-but-invalid values (null, wrong type, unknown sentiment)
// are coerced, never failed. Only a truly absent key is unrecoverable.
func parseResponse(raw string) (Result, error) {
	text := stripFences(raw)

	var payload map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return Result{}, fmt.Errorf("decoding classifier response: %w", err)
	}

	for _, key := range []string{"sentiment", "summary", "confidence", "keywords"} {
		if _, ok := payload[key]; !ok {
			return Result{}, fmt.Errorf("%w: response missing required keys", ErrClassificationFailed)
		}
	}

	return Result{
		Sentiment:  coerceSentiment(payload["sentiment"]),
		Summary:    coerceSummary(payload["summary"]),
		Confidence: coerceConfidence(payload["confidence"]),
		Keywords:   coerceKeywords(payload["keywords"]),
	}, nil
}

// coerceSentiment defaults to neutral for null, non-string or unknown
// values.
func coerceSentiment(raw json.RawMessage) domain.Sentiment {
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return domain.SentimentNeutral
	}
	sentiment := domain.Sentiment(strings.ToLower(strings.TrimSpace(asString)))
	if !sentiment.Valid() {
		return domain.SentimentNeutral
	}
	return sentiment
}

func coerceSummary(raw json.RawMessage) string {
	var asString string
	if err := json.Unmarshal(raw, &asString); err != nil {
		return ""
	}
	return asString
}

// stripFences removes markdown code fences some models wrap around JSON.
func stripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// coerceConfidence clamps into [0,1], defaulting to 0.5 when the value is
// null or not a number. Unmarshal treats a JSON null as a no-op success, so
// it is checked up front.
func coerceConfidence(raw json.RawMessage) float64 {
	if string(raw) == "null" {
		return 0.5
	}
	var asFloat float64
	if err := json.Unmarshal(raw, &asFloat); err != nil {
		var asString string
		if err := json.Unmarshal(raw, &asString); err != nil {
			return 0.5
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(asString), 64)
		if err != nil {
			return 0.5
		}
		asFloat = parsed
	}
	if asFloat < 0 {
		return 0
	}
	if asFloat > 1 {
		return 1
	}
	return asFloat
}

// coerceKeywords accepts only a string sequence, dropping blanks and
// truncating to the storage bound.
func coerceKeywords(raw json.RawMessage) []string {
	var asSlice []string
	if err := json.Unmarshal(raw, &asSlice); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(asSlice))
	for _, kw := range asSlice {
		if kw = strings.TrimSpace(kw); kw != "" {
			out = append(out, kw)
		}
	}
	if len(out) > domain.MaxKeywords {
		out = out[:domain.MaxKeywords]
	}
	return out
}
