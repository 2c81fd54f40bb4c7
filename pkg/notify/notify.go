// Package notify carries the "bookings changed" signal to every observer.
//
// Payloads are hints only: receivers are expected to re-read the store.
// Delivery is at-least-once and unordered relative to writes made by other
// instances.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"court-booking/pkg/database"
	"court-booking/pkg/utils"

	"go.uber.org/zap"
)

type Change struct {
	BookingID string    `json:"booking_id,omitempty"`
	Action    string    `json:"action,omitempty"`
	At        time.Time `json:"at"`
}

func (c Change) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

func ParseChange(body []byte) (Change, error) {
	var change Change
	if err := json.Unmarshal(body, &change); err != nil {
		return Change{}, fmt.Errorf("decode change: %w", err)
	}
	return change, nil
}

// Publisher signals that bookings changed.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
}

// Feed hands out subscriptions; the returned func releases the subscription.
type Feed interface {
	Subscribe() (<-chan Change, func())
}

// Broker moves changes between instances. Run blocks, passing every received
// change to deliver, until ctx is done.
type Broker interface {
	Publish(ctx context.Context, change Change) error
	Run(ctx context.Context, deliver func(Change)) error
	Close() error
}

// Notifier is the Publisher and Feed handed to the core. Without a broker
// changes are broadcast in process only.
type Notifier struct {
	hub    *Hub
	broker Broker
	log    *zap.Logger
}

func NewNotifier(broker Broker, log *zap.Logger) *Notifier {
	return &Notifier{
		hub:    NewHub(),
		broker: broker,
		log:    log.With(zap.String("component", "notifier")),
	}
}

// New builds the notifier for the configured driver.
func New(cfg utils.NotifyConfig, db database.PgxIface, log *zap.Logger) (*Notifier, error) {
	var (
		broker Broker
		err    error
	)

	switch cfg.Driver {
	case utils.NotifyDriverMemory, "":
	case utils.NotifyDriverPostgres:
		broker, err = NewPostgresBroker(db, cfg.PGChannel, log)
	case utils.NotifyDriverRabbitMQ:
		broker, err = NewRabbitMQBroker(cfg.RabbitMQURL, cfg.RabbitMQExchange, log)
	case utils.NotifyDriverKafka:
		broker, err = NewKafkaBroker(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaGroupID, log)
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s notifier: %w", cfg.Driver, err)
	}

	return NewNotifier(broker, log), nil
}

func (n *Notifier) Publish(ctx context.Context, change Change) error {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}

	if n.broker == nil {
		n.hub.Broadcast(change)
		return nil
	}

	if err := n.broker.Publish(ctx, change); err != nil {
		// Local observers still get refreshed
		n.hub.Broadcast(change)
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (n *Notifier) Subscribe() (<-chan Change, func()) {
	return n.hub.Subscribe()
}

// Run pumps broker traffic into the local hub until ctx is done.
func (n *Notifier) Run(ctx context.Context) error {
	if n.broker == nil {
		<-ctx.Done()
		return nil
	}

	n.log.Info("Change feed listener started")
	err := n.broker.Run(ctx, n.hub.Broadcast)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// reconnectDelay separates consume attempts after a broker connection drops.
const reconnectDelay = 2 * time.Second

// consumeWithRetry reruns consume until ctx is done. A consume that returns
// for any other reason is treated as a lost connection.
func consumeWithRetry(ctx context.Context, log *zap.Logger, delay time.Duration, consume func(context.Context) error) error {
	for {
		err := consume(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		log.Warn("Broker connection lost, retrying", zap.Error(err), zap.Duration("delay", delay))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func (n *Notifier) Close() error {
	n.hub.Close()
	if n.broker != nil {
		return n.broker.Close()
	}
	return nil
}
