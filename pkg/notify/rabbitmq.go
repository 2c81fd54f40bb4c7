package notify

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	rabbitExchangeKind = "topic"
	rabbitRoutingKey   = "booking.changed"
	rabbitBindingKey   = "booking.*"
)

// RabbitMQBroker publishes to a topic exchange; every instance consumes
// through its own exclusive queue so all of them see every change.
type RabbitMQBroker struct {
	url      string
	exchange string
	log      *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQBroker(url, exchange string, log *zap.Logger) (*RabbitMQBroker, error) {
	b := &RabbitMQBroker{
		url:      url,
		exchange: exchange,
		log:      log.With(zap.String("broker", "rabbitmq"), zap.String("exchange", exchange)),
	}
	if err := b.dial(); err != nil {
		return nil, err
	}
	return b, nil
}

// dial opens a fresh connection and publishing channel. Caller holds mu
// unless the broker is not yet shared.
func (b *RabbitMQBroker) dial() error {
	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(b.exchange, rabbitExchangeKind, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	b.conn = conn
	b.channel = ch
	return nil
}

// connection returns the live connection and publishing channel, redialing
// if either has been closed by the server.
func (b *RabbitMQBroker) connection() (*amqp.Connection, *amqp.Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil && !b.conn.IsClosed() && !b.channel.IsClosed() {
		return b.conn, b.channel, nil
	}
	if b.conn != nil {
		_ = b.conn.Close()
		b.log.Info("Redialing")
	}
	if err := b.dial(); err != nil {
		return nil, nil, err
	}
	return b.conn, b.channel, nil
}

func (b *RabbitMQBroker) Publish(ctx context.Context, change Change) error {
	body, err := change.Marshal()
	if err != nil {
		return err
	}

	_, ch, err := b.connection()
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx,
		b.exchange,
		rabbitRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	return nil
}

func (b *RabbitMQBroker) Run(ctx context.Context, deliver func(Change)) error {
	return consumeWithRetry(ctx, b.log, reconnectDelay, func(ctx context.Context) error {
		return b.consume(ctx, deliver)
	})
}

func (b *RabbitMQBroker) consume(ctx context.Context, deliver func(Change)) error {
	conn, _, err := b.connection()
	if err != nil {
		return err
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq consumer channel: %w", err)
	}
	defer ch.Close()

	// Server-named, exclusive, auto-deleted: one queue per instance
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}

	if err := ch.QueueBind(q.Name, rabbitBindingKey, b.exchange, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue bind: %w", err)
	}

	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq consume: %w", err)
	}

	b.log.Info("Consuming changes", zap.String("queue", q.Name))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return fmt.Errorf("rabbitmq delivery channel closed")
			}
			change, err := ParseChange(msg.Body)
			if err != nil {
				b.log.Warn("Ignoring malformed message", zap.Error(err))
				continue
			}
			deliver(change)
		}
	}
}

func (b *RabbitMQBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channel != nil {
		_ = b.channel.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
