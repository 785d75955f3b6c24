// Package service delivers poll messages to registrars one at a time, oldest
// first, and removes or advances them on acknowledgement.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/platform/sentinel"
)

// Store reads and amends poll messages. UpdatePollMessage serializes with
// commands on the message's domain.
type Store interface {
	Deliverable(ctx context.Context, clientID id.ClientID, now time.Time) ([]poll.Message, error)
	UpdatePollMessage(ctx context.Context, msgID id.PollMessageID, fn func(m *poll.Message) (keep bool, err error)) error
}

// Queue is the per-registrar poll queue.
type Queue struct {
	store  Store
	logger *slog.Logger
}

type Option func(*Queue)

func WithLogger(logger *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = logger
	}
}

func New(store Store, opts ...Option) (*Queue, error) {
	if store == nil {
		return nil, errors.New("poll store is required")
	}
	q := &Queue{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(q)
	}
	return q, nil
}

// Head is the oldest deliverable message and how many are queued in total.
type Head struct {
	Message *poll.Message
	Count   int
}

// Request returns the oldest message deliverable to clientID at now. Message
// is nil when the queue is empty.
func (q *Queue) Request(ctx context.Context, clientID id.ClientID, now time.Time) (Head, error) {
	msgs, err := q.store.Deliverable(ctx, clientID, now)
	if err != nil {
		return Head{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read poll queue")
	}
	if len(msgs) == 0 {
		return Head{}, nil
	}
	return Head{Message: &msgs[0], Count: len(msgs)}, nil
}

// Ack acknowledges a message and returns how many remain deliverable. Only
// the addressee may acknowledge, and only once the message is deliverable.
func (q *Queue) Ack(ctx context.Context, clientID id.ClientID, msgID id.PollMessageID, now time.Time) (int, error) {
	err := q.store.UpdatePollMessage(ctx, msgID, func(m *poll.Message) (bool, error) {
		if m.ClientID != clientID {
			return false, dErrors.New(dErrors.CodeForbidden, "message is addressed to another registrar")
		}
		if !m.IsDeliverableAt(now) {
			return false, dErrors.New(dErrors.CodeNotFound, "message is not yet deliverable")
		}
		next, keep := m.Ack()
		if keep {
			*m = next
		}
		return keep, nil
	})
	if errors.Is(err, sentinel.ErrNotFound) {
		return 0, dErrors.New(dErrors.CodeNotFound, "message not found")
	}
	if errors.Is(err, sentinel.ErrUnavailable) {
		return 0, dErrors.Wrap(err, dErrors.CodeUnavailable, "domain is busy, retry the acknowledgement")
	}
	if err != nil {
		var coded dErrors.Coded
		if errors.As(err, &coded) {
			return 0, err
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to acknowledge message")
	}
	q.logger.InfoContext(ctx, "poll message acknowledged", "client_id", clientID, "message_id", msgID)

	remaining, err := q.store.Deliverable(ctx, clientID, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read poll queue")
	}
	return len(remaining), nil
}
