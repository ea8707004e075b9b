package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"majlis/internal/pkg/logx"
)

// MessagesInsertChannel is the NOTIFY channel the messages insert trigger publishes on. The payload
// is the decimal id of the inserted row.
const MessagesInsertChannel = "messages_insert"

const (
	minRetryDelay = 500 * time.Millisecond
	maxRetryDelay = 30 * time.Second
)

// Listener holds one LISTEN connection and hands every notification payload to a callback.
type Listener struct {
	pool    *pgxpool.Pool
	channel string
	logger  zerolog.Logger
}

// NewListener returns a Listener for channel on a connection borrowed from pool.
func NewListener(pool *pgxpool.Pool, channel string) *Listener {
	return &Listener{
		pool:    pool,
		channel: channel,
		logger:  logx.Component("pg_listener").With().Str("channel", channel).Logger(),
	}
}

// Run listens until ctx is done, reconnecting with exponential backoff when the connection drops.
// handle is called sequentially in notification order.
func (l *Listener) Run(ctx context.Context, handle func(payload string)) {
	delay := minRetryDelay

	for {
		err := l.listen(ctx, handle, func() { delay = minRetryDelay })
		if ctx.Err() != nil {
			l.logger.Info().Msg("Listener stopped.")
			return
		}

		l.logger.Warn().Err(err).Dur("retry_in", delay).Msg("Listen connection lost, retrying.")

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}

		delay = min(delay*2, maxRetryDelay)
	}
}

func (l *Listener) listen(ctx context.Context, handle func(string), connected func()) error {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	// A connection in LISTEN state must not go back to the pool.
	conn := pooled.Hijack()
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return err
	}

	connected()
	l.logger.Info().Msg("Listening for notifications.")

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		if n.Channel != l.channel {
			continue
		}

		handle(n.Payload)
	}
}
