package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
)

// Listener turns postgres notifications on NotifyChannel into relay wake-ups.
// database/sql cannot LISTEN, so it holds its own pgx connection.
type Listener struct {
	dsn    string
	wake   chan struct{}
	logger *slog.Logger
}

func NewListener(dsn string, logger *slog.Logger) *Listener {
	return &Listener{dsn: dsn, wake: make(chan struct{}, 1), logger: logger}
}

func (l *Listener) Wake() <-chan struct{} {
	return l.wake
}

// Run listens until ctx is done, reconnecting after connection failures.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return nil
		}
		l.logger.WarnContext(ctx, "dns outbox listener disconnected", "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return fmt.Errorf("connect listener: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{NotifyChannel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", NotifyChannel, err)
	}
	for {
		if _, err := conn.WaitForNotification(ctx); err != nil {
			return err
		}
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
}
