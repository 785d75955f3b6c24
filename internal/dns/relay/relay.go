// Package relay moves DNS refresh signals from the outbox to the publisher.
// It is the only background loop in the registry and drives nothing but that
// side effect.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	dnsMetrics "domainreg/internal/dns/metrics"
	dns "domainreg/internal/dns/models"
)

// Outbox is the relay's view of the pending queue.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]dns.Refresh, error)
	MarkPublished(ctx context.Context, ids []int64) error
	MarkFailed(ctx context.Context, ids []int64, cause error) error
}

// Publisher delivers a batch downstream.
type Publisher interface {
	Publish(ctx context.Context, batch []dns.Refresh) error
}

type Relay struct {
	outbox    Outbox
	publisher Publisher
	wake      <-chan struct{}
	interval  time.Duration
	batchSize int
	attempts  uint
	logger    *slog.Logger
	metrics   *dnsMetrics.Metrics
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m *dnsMetrics.Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

// WithWake drains the outbox as soon as a signal arrives instead of waiting
// for the next tick.
func WithWake(wake <-chan struct{}) Option {
	return func(r *Relay) { r.wake = wake }
}

func WithInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithAttempts(n uint) Option {
	return func(r *Relay) {
		if n > 0 {
			r.attempts = n
		}
	}
}

func New(outbox Outbox, publisher Publisher, opts ...Option) (*Relay, error) {
	if outbox == nil {
		return nil, errors.New("outbox is required")
	}
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	r := &Relay{
		outbox:    outbox,
		publisher: publisher,
		interval:  5 * time.Second,
		batchSize: 100,
		attempts:  5,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run drains the outbox on every tick or wake-up until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "dns relay started", "interval", r.interval)
	for {
		if err := r.Drain(ctx); err != nil && ctx.Err() == nil {
			r.logger.ErrorContext(ctx, "dns relay drain failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "dns relay stopped")
			return nil
		case <-ticker.C:
		case <-r.wake:
		}
	}
}

// Drain publishes batches until the outbox is empty or a batch fails.
func (r *Relay) Drain(ctx context.Context) error {
	for {
		batch, err := r.outbox.Pending(ctx, r.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		if err := r.publishBatch(ctx, batch); err != nil {
			return err
		}
		if len(batch) < r.batchSize {
			return nil
		}
	}
}

func (r *Relay) publishBatch(ctx context.Context, batch []dns.Refresh) error {
	ids := make([]int64, len(batch))
	for i, ref := range batch {
		ids[i] = ref.ID
	}

	start := time.Now()
	err := retry.Do(
		func() error { return r.publisher.Publish(ctx, batch) },
		retry.Attempts(r.attempts),
		retry.DelayType(retry.BackOffDelay),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(5*time.Second),
		retry.MaxJitter(100*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			r.logger.WarnContext(ctx, "retrying dns refresh publish",
				"attempt", n+1,
				"batch", len(batch),
				"error", err,
			)
		}),
		retry.Context(ctx),
	)
	r.metrics.ObserveBatch(len(batch), time.Since(start).Seconds(), err)
	if err != nil {
		if markErr := r.outbox.MarkFailed(ctx, ids, err); markErr != nil {
			r.logger.ErrorContext(ctx, "failed to record dns publish failure", "error", markErr)
		}
		return fmt.Errorf("publish dns refresh batch: %w", err)
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return err
	}
	r.logger.DebugContext(ctx, "dns refresh batch published", "size", len(batch))
	return nil
}
