package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/tair/library-ledger/internal/library/domain"
	"github.com/tair/library-ledger/pkg/logger"
)

// Publisher wraps a Kafka sync producer for library stock events.
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.MaxMessageBytes = 1000000

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{
		producer: producer,
		brokers:  brokers,
	}, nil
}

// PublishTransactionCreated publishes a transaction created event with tracing
func (p *Publisher) PublishTransactionCreated(ctx context.Context, event TransactionCreatedEvent) error {
	event.EventID = uuid.NewString()
	event.EventType = EventTypeTransactionCreated

	return p.publish(ctx, TopicTransactions,
		fmt.Sprintf("book_%d", event.BookID),
		event.EventID, event.EventType, event,
		attribute.Int64("transaction.id", int64(event.TransactionID)),
		attribute.Int64("book.id", int64(event.BookID)),
		attribute.String("transaction.kind", event.Kind),
		attribute.Int64("transaction.quantity", event.Quantity),
	)
}

// PublishStockReplenished publishes a replenishment event. It satisfies the
// command.EventPublisher contract, so failures are logged rather than
// returned.
func (p *Publisher) PublishStockReplenished(ctx context.Context, bookID uint, moved int64) {
	event := StockReplenishedEvent{
		EventID:   uuid.NewString(),
		EventType: EventTypeStockReplenished,
		BookID:    bookID,
		Moved:     moved,
	}
	if err := p.publish(ctx, TopicStock,
		fmt.Sprintf("book_%d", bookID),
		event.EventID, event.EventType, event,
		attribute.Int64("book.id", int64(bookID)),
		attribute.Int64("stock.moved", moved),
	); err != nil {
		logger.Error(ctx).Err(err).Uint("book_id", bookID).Msg("Failed to publish replenishment event")
	}
}

// PublishLoanExpired publishes a loan expired event for a force-returned
// loan. It satisfies the sweeper.EventPublisher contract.
func (p *Publisher) PublishLoanExpired(ctx context.Context, txn *domain.Transaction) {
	event := LoanExpiredEvent{
		EventID:       uuid.NewString(),
		EventType:     EventTypeLoanExpired,
		TransactionID: txn.ID,
		BookID:        txn.BookID,
		Quantity:      txn.Quantity,
	}
	if err := p.publish(ctx, TopicTransactions,
		fmt.Sprintf("book_%d", txn.BookID),
		event.EventID, event.EventType, event,
		attribute.Int64("transaction.id", int64(txn.ID)),
		attribute.Int64("book.id", int64(txn.BookID)),
	); err != nil {
		logger.Error(ctx).Err(err).Uint("transaction_id", txn.ID).Msg("Failed to publish loan expired event")
	}
}

// TriggerReplenishment publishes the purchase's transaction event so the
// consumer group evaluates replenishment out of band. It satisfies the
// command.ReplenishmentTrigger contract.
func (p *Publisher) TriggerReplenishment(ctx context.Context, txn *domain.Transaction) {
	if err := p.PublishTransactionCreated(ctx, NewTransactionCreatedEvent(txn)); err != nil {
		logger.Error(ctx).Err(err).Uint("transaction_id", txn.ID).Msg("Failed to publish transaction event")
	}
}

func (p *Publisher) publish(ctx context.Context, topic, key, eventID, eventType string, payload interface{}, attrs ...attribute.KeyValue) error {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish."+eventType,
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(append([]attribute.KeyValue{
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", topic),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", eventType),
			attribute.String("event.id", eventID),
		}, attrs...)...),
	)
	defer span.End()

	eventBytes, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	// Inject trace context into Kafka headers
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(eventType)},
		{Key: []byte("event_id"), Value: []byte(eventID)},
	}
	for k, v := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		return fmt.Errorf("failed to send message to Kafka: %w", err)
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published successfully")

	logger.Info(ctx).
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("topic", topic).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Event published")

	return nil
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
