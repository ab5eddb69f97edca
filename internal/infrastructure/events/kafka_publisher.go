package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"x402_gateway/internal/domain/entities"
	"x402_gateway/internal/usecase/interfaces"

	"github.com/IBM/sarama"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	EventSettlementSettled = "settlement.settled"
	EventSettlementFailed  = "settlement.failed"
)

// SettlementEvent is the message value published after a settlement reaches
// a terminal state. Keyed by payment_attempt_id.
type SettlementEvent struct {
	EventType           string          `json:"event_type"`
	SettlementID        string          `json:"settlement_id"`
	PaymentAttemptID    string          `json:"payment_attempt_id"`
	Status              string          `json:"status"`
	FacilitatorResponse json.RawMessage `json:"facilitator_response,omitempty"`
	OccurredAt          time.Time       `json:"occurred_at"`
}

func InitProducer(broker string, logger *zap.Logger) (sarama.SyncProducer, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5

	producer, err := sarama.NewSyncProducer([]string{broker}, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Info("Kafka producer initialized", zap.String("broker", broker))
	return producer, nil
}

type messageSender interface {
	SendMessage(msg *sarama.ProducerMessage) (partition int32, offset int64, err error)
}

type KafkaSettlementPublisher struct {
	producer messageSender
	topic    string
	logger   *zap.Logger
}

var _ interfaces.ISettlementEventPublisher = (*KafkaSettlementPublisher)(nil)

func NewKafkaSettlementPublisher(producer sarama.SyncProducer, topic string, logger *zap.Logger) *KafkaSettlementPublisher {
	return &KafkaSettlementPublisher{producer: producer, topic: topic, logger: logger}
}

func (p *KafkaSettlementPublisher) PublishSettlementFinalized(ctx context.Context, s entities.Settlement) error {
	eventType := EventSettlementFailed
	if s.Status == entities.SettlementStatusSettled {
		eventType = EventSettlementSettled
	}
	eventJSON, err := json.Marshal(SettlementEvent{
		EventType:           eventType,
		SettlementID:        s.ID,
		PaymentAttemptID:    s.PaymentAttemptID,
		Status:              string(s.Status),
		FacilitatorResponse: s.FacilitatorResponse,
		OccurredAt:          s.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(s.PaymentAttemptID),
		Value: sarama.ByteEncoder(eventJSON),
	}

	// Inject trace context into Kafka message headers
	carrier := make(saramaHeaderCarrier, 0)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	msg.Headers = []sarama.RecordHeader(carrier)

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	traceID := ""
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		traceID = sc.TraceID().String()
	}
	p.logger.Info("Settlement event published",
		zap.String("trace_id", traceID),
		zap.String("topic", p.topic),
		zap.String("event_type", eventType),
		zap.String("settlement_id", s.ID),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// saramaHeaderCarrier implements propagation.TextMapCarrier for producer headers.
type saramaHeaderCarrier []sarama.RecordHeader

func (c saramaHeaderCarrier) Get(key string) string {
	for _, h := range c {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *saramaHeaderCarrier) Set(key, value string) {
	*c = append(*c, sarama.RecordHeader{Key: []byte(key), Value: []byte(value)})
}

func (c saramaHeaderCarrier) Keys() []string {
	keys := make([]string, len(c))
	for i, h := range c {
		keys[i] = string(h.Key)
	}
	return keys
}

// LogPublisher is used when KAFKA_BROKER is unset.
type LogPublisher struct {
	logger *zap.Logger
}

var _ interfaces.ISettlementEventPublisher = (*LogPublisher)(nil)

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishSettlementFinalized(_ context.Context, s entities.Settlement) error {
	p.logger.Debug("settlement finalized",
		zap.String("settlement_id", s.ID),
		zap.String("payment_attempt_id", s.PaymentAttemptID),
		zap.String("status", string(s.Status)),
	)
	return nil
}
