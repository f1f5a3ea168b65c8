package kafka

import (
	"context"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Producer interface {
	Produce(ctx context.Context, message []byte) error
	Close() error
}

type eventProducer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

// NewProducer builds a producer bound to a single topic; the commerce service
// publishes all order lifecycle and webhook telemetry events to one stream.
func NewProducer(brokers []string, topic string, l *zap.Logger) (Producer, error) {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
		Logger:   zap.NewStdLog(l.With(zap.String("kafka_component", "producer"))),
	}

	l.Info("Kafka producer initialized", zap.Strings("brokers", brokers), zap.String("topic", topic))
	return &eventProducer{writer: writer, logger: l}, nil
}

func (p *eventProducer) Produce(ctx context.Context, message []byte) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{Value: message})
	if err != nil {
		p.logger.Error("Failed to produce message to Kafka", zap.Error(err))
		return fmt.Errorf("failed to produce message: %w", err)
	}
	return nil
}

func (p *eventProducer) Close() error {
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka producer", zap.Error(err))
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	p.logger.Info("Kafka producer closed.")
	return nil
}
