package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"court-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PostgresBroker uses LISTEN/NOTIFY on the booking database itself.
type PostgresBroker struct {
	db      database.PgxIface
	channel string
	log     *zap.Logger
}

func NewPostgresBroker(db database.PgxIface, channel string, log *zap.Logger) (*PostgresBroker, error) {
	if db == nil {
		return nil, errors.New("database cannot be nil")
	}
	if channel == "" {
		return nil, errors.New("channel cannot be empty")
	}

	return &PostgresBroker{
		db:      db,
		channel: channel,
		log:     log.With(zap.String("broker", "postgres"), zap.String("channel", channel)),
	}, nil
}

func (b *PostgresBroker) Publish(ctx context.Context, change Change) error {
	payload, err := change.Marshal()
	if err != nil {
		return err
	}

	if _, err := b.db.Exec(ctx, `SELECT pg_notify($1, $2)`, b.channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify %s: %w", b.channel, err)
	}
	return nil
}

// Run keeps a LISTEN connection open, reconnecting after failures.
func (b *PostgresBroker) Run(ctx context.Context, deliver func(Change)) error {
	return consumeWithRetry(ctx, b.log, reconnectDelay, func(ctx context.Context) error {
		return b.listen(ctx, deliver)
	})
}

func (b *PostgresBroker) listen(ctx context.Context, deliver func(Change)) error {
	pooled, err := b.db.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}
	// A LISTENing connection must not go back to the pool
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{b.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", b.channel, err)
	}

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}

		change, err := ParseChange([]byte(notification.Payload))
		if err != nil {
			b.log.Warn("Ignoring malformed notification", zap.Error(err))
			// Still a change signal
			change = Change{At: time.Now().UTC()}
		}
		deliver(change)
	}
}

func (b *PostgresBroker) Close() error {
	return nil
}
