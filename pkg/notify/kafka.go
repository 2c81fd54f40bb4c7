package notify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// KafkaBroker writes changes to one topic. Each instance reads with its own
// consumer group so every instance receives every change.
type KafkaBroker struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	groupID string
	log     *zap.Logger
}

func NewKafkaBroker(brokers []string, topic, groupPrefix string, log *zap.Logger) (*KafkaBroker, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...any) {
			log.Sugar().Errorf(msg, args...)
		}),
	}

	return &KafkaBroker{
		writer:  writer,
		brokers: brokers,
		topic:   topic,
		groupID: instanceGroupID(groupPrefix),
		log:     log.With(zap.String("broker", "kafka"), zap.String("topic", topic)),
	}, nil
}

func instanceGroupID(prefix string) string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = uuid.NewString()
	}
	return fmt.Sprintf("%s-%s", prefix, host)
}

func (b *KafkaBroker) Publish(ctx context.Context, change Change) error {
	body, err := change.Marshal()
	if err != nil {
		return err
	}

	if err := b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(change.BookingID),
		Value: body,
		Time:  change.At,
	}); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

func (b *KafkaBroker) Run(ctx context.Context, deliver func(Change)) error {
	return consumeWithRetry(ctx, b.log, reconnectDelay, func(ctx context.Context) error {
		return b.consume(ctx, deliver)
	})
}

func (b *KafkaBroker) consume(ctx context.Context, deliver func(Change)) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     b.brokers,
		Topic:       b.topic,
		GroupID:     b.groupID,
		StartOffset: kafka.LastOffset,
		MaxWait:     500 * time.Millisecond,
	})
	defer reader.Close()

	b.log.Info("Consuming changes", zap.String("group_id", b.groupID))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		change, err := ParseChange(msg.Value)
		if err != nil {
			b.log.Warn("Ignoring malformed message", zap.Error(err), zap.Int64("offset", msg.Offset))
			continue
		}
		deliver(change)
	}
}

func (b *KafkaBroker) Close() error {
	return b.writer.Close()
}
