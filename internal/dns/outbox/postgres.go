// Package outbox persists DNS refresh signals in the same transaction as the
// domain mutation that caused them, for the relay to publish later.
package outbox

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	dns "domainreg/internal/dns/models"
	id "domainreg/pkg/domain"
	txcontext "domainreg/pkg/platform/tx"
)

// NotifyChannel is the LISTEN/NOTIFY channel raised on every enqueue.
const NotifyChannel = "dns_refresh"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Enqueue joins the caller's transaction when ctx carries one.
func (s *PostgresStore) Enqueue(ctx context.Context, r dns.Refresh) error {
	q := txcontext.QuerierFrom(ctx, s.db)
	_, err := q.ExecContext(ctx, `
		INSERT INTO dns_outbox (domain, reason, requested_at)
		VALUES ($1, $2, $3)
	`, string(r.Domain), string(r.Reason), r.RequestedAt)
	if err != nil {
		return fmt.Errorf("insert dns outbox entry: %w", err)
	}
	if _, err := q.ExecContext(ctx, `SELECT pg_notify($1, $2)`, NotifyChannel, string(r.Domain)); err != nil {
		return fmt.Errorf("notify dns outbox: %w", err)
	}
	return nil
}

func (s *PostgresStore) Pending(ctx context.Context, limit int) ([]dns.Refresh, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, domain, reason, requested_at
		FROM dns_outbox
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query dns outbox: %w", err)
	}
	defer rows.Close()

	var out []dns.Refresh
	for rows.Next() {
		var r dns.Refresh
		var name, reason string
		if err := rows.Scan(&r.ID, &name, &reason, &r.RequestedAt); err != nil {
			return nil, fmt.Errorf("scan dns outbox entry: %w", err)
		}
		r.Domain = id.DomainName(name)
		r.Reason = dns.Reason(reason)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dns outbox: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) MarkPublished(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE dns_outbox SET published_at = NOW(), last_error = NULL
		WHERE id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("mark dns outbox published: %w", err)
	}
	return nil
}

func (s *PostgresStore) MarkFailed(ctx context.Context, ids []int64, cause error) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE dns_outbox SET attempts = attempts + 1, last_error = $2
		WHERE id = ANY($1)
	`, pq.Array(ids), cause.Error())
	if err != nil {
		return fmt.Errorf("mark dns outbox failed: %w", err)
	}
	return nil
}
