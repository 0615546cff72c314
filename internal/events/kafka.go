package events

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/sentiment-watchdog/internal/config"
)

// KafkaSink mirrors dispatcher events onto a Kafka topic for downstream
// consumers. Publish failures are logged, never propagated: the sink is an
// observer, not part of the ticket lifecycle.
type KafkaSink struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewKafkaSink builds the sink. Returns nil when no brokers are configured.
func NewKafkaSink(cfg config.KafkaConfig, logger *zap.Logger) *KafkaSink {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.LeastBytes{},
		},
		logger: logger,
	}
}

// Register subscribes the sink to every event type.
func (s *KafkaSink) Register(dispatcher Dispatcher) {
	if s == nil || dispatcher == nil {
		return
	}
	for _, eventType := range []EventType{
		EventTicketIngested,
		EventTicketClassified,
		EventTicketFailed,
		EventAlertLevelChanged,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *KafkaSink) handle(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("kafka sink marshal", zap.Error(err))
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(string(event.Type) + ":" + event.TicketID),
		Value: data,
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		s.logger.Warn("kafka sink write", zap.Error(err), zap.String("event", string(event.Type)))
	}
	return nil
}

// Close closes the underlying writer.
func (s *KafkaSink) Close() error {
	if s == nil {
		return nil
	}
	return s.writer.Close()
}
