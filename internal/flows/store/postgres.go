package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/platform/sentinel"
	txcontext "domainreg/pkg/platform/tx"
)

// SQLSTATEs for a transaction that lost a conflict and may be retried.
const (
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// PostgresStore keeps each entity as a JSONB document next to the columns it
// is looked up by.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// RunInTx runs fn in a transaction holding an advisory lock on the domain
// name, so a create of a name that does not exist yet is also serialized.
// Every read happens after the lock is granted, and read committed isolation
// lets those reads see whatever the previous holder committed.
func (s *PostgresStore) RunInTx(ctx context.Context, name id.DomainName, fn func(ctx context.Context, tx flows.Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin domain transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, string(name)); err != nil {
		return fmt.Errorf("lock domain %s: %w", name, err)
	}

	if err := fn(txcontext.WithTx(ctx, sqlTx), &postgresTx{tx: sqlTx}); err != nil {
		return translate(err)
	}
	if err := sqlTx.Commit(); err != nil {
		return translate(fmt.Errorf("commit domain transaction: %w", err))
	}
	return nil
}

func translate(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && (pqErr.Code == serializationFailure || pqErr.Code == deadlockDetected) {
		return fmt.Errorf("%w: %v", sentinel.ErrConflict, err)
	}
	return err
}

func (s *PostgresStore) Ledger(ctx context.Context, repoID id.RepoID) (billing.Ledger, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, doc FROM billing_events
		WHERE repo_id = $1
		ORDER BY event_time, id
	`, uuid.UUID(repoID))
	if err != nil {
		return billing.Ledger{}, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var l billing.Ledger
	for rows.Next() {
		var kind string
		var doc []byte
		if err := rows.Scan(&kind, &doc); err != nil {
			return billing.Ledger{}, fmt.Errorf("scan billing event: %w", err)
		}
		switch billing.Kind(kind) {
		case billing.KindOneTime:
			var o billing.OneTime
			if err := json.Unmarshal(doc, &o); err != nil {
				return billing.Ledger{}, fmt.Errorf("decode one-time: %w", err)
			}
			l.OneTimes = append(l.OneTimes, o)
		case billing.KindRecurring:
			var r billing.Recurring
			if err := json.Unmarshal(doc, &r); err != nil {
				return billing.Ledger{}, fmt.Errorf("decode recurring: %w", err)
			}
			l.Recurrings = append(l.Recurrings, r)
		case billing.KindCancellation:
			var c billing.Cancellation
			if err := json.Unmarshal(doc, &c); err != nil {
				return billing.Ledger{}, fmt.Errorf("decode cancellation: %w", err)
			}
			l.Cancellations = append(l.Cancellations, c)
		}
	}
	if err := rows.Err(); err != nil {
		return billing.Ledger{}, fmt.Errorf("iterate ledger: %w", err)
	}
	return l, nil
}

func (s *PostgresStore) Deliverable(ctx context.Context, clientID id.ClientID, now time.Time) ([]poll.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT doc FROM poll_messages
		WHERE client_id = $1 AND event_time <= $2
		ORDER BY event_time, id
	`, string(clientID), now)
	if err != nil {
		return nil, fmt.Errorf("query poll messages: %w", err)
	}
	defer rows.Close()

	var out []poll.Message
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan poll message: %w", err)
		}
		var m poll.Message
		if err := json.Unmarshal(doc, &m); err != nil {
			return nil, fmt.Errorf("decode poll message: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate poll messages: %w", err)
	}
	return out, nil
}

// UpdatePollMessage takes the advisory lock of the message's domain before
// locking the row, the same order RunInTx uses.
func (s *PostgresStore) UpdatePollMessage(ctx context.Context, msgID id.PollMessageID, fn func(m *poll.Message) (keep bool, err error)) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin poll transaction: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	var target string
	err = sqlTx.QueryRowContext(ctx, `SELECT doc->>'TargetID' FROM poll_messages WHERE id = $1`, uuid.UUID(msgID)).Scan(&target)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find poll message: %w", err)
	}
	if _, err := sqlTx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, target); err != nil {
		return fmt.Errorf("lock domain %s: %w", target, err)
	}

	var doc []byte
	err = sqlTx.QueryRowContext(ctx, `SELECT doc FROM poll_messages WHERE id = $1 FOR UPDATE`, uuid.UUID(msgID)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find poll message: %w", err)
	}
	var m poll.Message
	if err := json.Unmarshal(doc, &m); err != nil {
		return fmt.Errorf("decode poll message: %w", err)
	}

	keep, err := fn(&m)
	if err != nil {
		return err
	}
	if keep {
		err = upsertPoll(ctx, sqlTx, m)
	} else {
		_, err = sqlTx.ExecContext(ctx, `DELETE FROM poll_messages WHERE id = $1`, uuid.UUID(msgID))
	}
	if err != nil {
		return fmt.Errorf("ack poll message: %w", err)
	}
	return sqlTx.Commit()
}

type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) Domain(ctx context.Context, name id.DomainName) (domain.Domain, error) {
	var doc []byte
	err := t.tx.QueryRowContext(ctx, `
		SELECT doc FROM domains
		WHERE name = $1
		ORDER BY creation_time DESC
		LIMIT 1
		FOR UPDATE
	`, string(name)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Domain{}, sentinel.ErrNotFound
	}
	if err != nil {
		return domain.Domain{}, fmt.Errorf("find domain: %w", err)
	}
	var d domain.Domain
	if err := json.Unmarshal(doc, &d); err != nil {
		return domain.Domain{}, fmt.Errorf("decode domain: %w", err)
	}
	return d, nil
}

func (t *postgresTx) OneTime(ctx context.Context, eventID id.BillingEventID) (billing.OneTime, error) {
	var doc []byte
	err := t.tx.QueryRowContext(ctx, `
		SELECT doc FROM billing_events WHERE id = $1 AND kind = $2
	`, uuid.UUID(eventID), string(billing.KindOneTime)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.OneTime{}, sentinel.ErrNotFound
	}
	if err != nil {
		return billing.OneTime{}, fmt.Errorf("find one-time charge: %w", err)
	}
	var o billing.OneTime
	if err := json.Unmarshal(doc, &o); err != nil {
		return billing.OneTime{}, fmt.Errorf("decode one-time charge: %w", err)
	}
	return o, nil
}

func (t *postgresTx) Recurring(ctx context.Context, eventID id.BillingEventID) (billing.Recurring, error) {
	var doc []byte
	err := t.tx.QueryRowContext(ctx, `
		SELECT doc FROM billing_events WHERE id = $1 AND kind = $2
	`, uuid.UUID(eventID), string(billing.KindRecurring)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Recurring{}, sentinel.ErrNotFound
	}
	if err != nil {
		return billing.Recurring{}, fmt.Errorf("find recurring: %w", err)
	}
	var r billing.Recurring
	if err := json.Unmarshal(doc, &r); err != nil {
		return billing.Recurring{}, fmt.Errorf("decode recurring: %w", err)
	}
	return r, nil
}

func (t *postgresTx) PollMessage(ctx context.Context, msgID id.PollMessageID) (poll.Message, error) {
	var doc []byte
	err := t.tx.QueryRowContext(ctx, `SELECT doc FROM poll_messages WHERE id = $1 FOR UPDATE`, uuid.UUID(msgID)).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return poll.Message{}, sentinel.ErrNotFound
	}
	if err != nil {
		return poll.Message{}, fmt.Errorf("find poll message: %w", err)
	}
	var m poll.Message
	if err := json.Unmarshal(doc, &m); err != nil {
		return poll.Message{}, fmt.Errorf("decode poll message: %w", err)
	}
	return m, nil
}

func (t *postgresTx) HistoryEntries(ctx context.Context, repoID id.RepoID, since time.Time) ([]history.Entry, error) {
	rows, err := t.tx.QueryContext(ctx, `
		SELECT doc FROM history_entries
		WHERE repo_id = $1 AND modification_time >= $2
		ORDER BY modification_time, id
	`, uuid.UUID(repoID), since)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []history.Entry
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		var e history.Entry
		if err := json.Unmarshal(doc, &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return out, nil
}

func (t *postgresTx) Apply(ctx context.Context, m flows.Mutation) error {
	for _, ref := range m.DeleteBilling {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM billing_events WHERE id = $1`, uuid.UUID(ref.ID)); err != nil {
			return fmt.Errorf("delete billing event: %w", err)
		}
	}
	for _, msgID := range m.DeletePolls {
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM poll_messages WHERE id = $1`, uuid.UUID(msgID)); err != nil {
			return fmt.Errorf("delete poll message: %w", err)
		}
	}
	if err := t.saveDomain(ctx, m.Domain); err != nil {
		return err
	}
	if err := t.insertHistory(ctx, m.History); err != nil {
		return err
	}
	for _, o := range m.OneTimes {
		if err := t.upsertBilling(ctx, billing.KindOneTime, o.Common, &o.BillingTime, o); err != nil {
			return err
		}
	}
	for _, r := range m.Recurrings {
		if err := t.upsertBilling(ctx, billing.KindRecurring, r.Common, nil, r); err != nil {
			return err
		}
	}
	for _, c := range m.Cancellations {
		if err := t.upsertBilling(ctx, billing.KindCancellation, c.Common, &c.BillingTime, c); err != nil {
			return err
		}
	}
	for _, p := range m.PollMessages {
		if err := upsertPoll(ctx, t.tx, p); err != nil {
			return err
		}
	}
	return nil
}

func (t *postgresTx) saveDomain(ctx context.Context, d domain.Domain) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode domain: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO domains (repo_id, name, sponsor, creation_time, deletion_time, expiration_time, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (repo_id) DO UPDATE SET
			sponsor = EXCLUDED.sponsor,
			deletion_time = EXCLUDED.deletion_time,
			expiration_time = EXCLUDED.expiration_time,
			doc = EXCLUDED.doc
	`, uuid.UUID(d.RepoID), string(d.Name), string(d.CurrentSponsorClientID), d.CreationTime,
		d.DeletionTime, d.RegistrationExpirationTime, doc)
	if err != nil {
		return fmt.Errorf("save domain: %w", err)
	}
	return nil
}

func (t *postgresTx) insertHistory(ctx context.Context, e history.Entry) error {
	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO history_entries (id, repo_id, type, modification_time, client_id, doc)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(e.ID), uuid.UUID(e.RepoID), string(e.Type), e.ModificationTime, string(e.ClientID), doc)
	if err != nil {
		return fmt.Errorf("insert history entry: %w", err)
	}
	return nil
}

func (t *postgresTx) upsertBilling(ctx context.Context, kind billing.Kind, c billing.Common, billingTime *time.Time, event any) error {
	doc, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode billing event: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO billing_events (id, kind, repo_id, client_id, reason, event_time, billing_time, doc)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			event_time = EXCLUDED.event_time,
			billing_time = EXCLUDED.billing_time,
			doc = EXCLUDED.doc
	`, uuid.UUID(c.ID), string(kind), uuid.UUID(c.RepoID), string(c.ClientID), string(c.Reason),
		c.EventTime, billingTime, doc)
	if err != nil {
		return fmt.Errorf("save billing event: %w", err)
	}
	return nil
}

func upsertPoll(ctx context.Context, q txcontext.Querier, m poll.Message) error {
	doc, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode poll message: %w", err)
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO poll_messages (id, client_id, kind, event_time, repo_id, doc)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			event_time = EXCLUDED.event_time,
			doc = EXCLUDED.doc
	`, uuid.UUID(m.ID), string(m.ClientID), string(m.Kind), m.EventTime, uuid.UUID(m.RepoID), doc)
	if err != nil {
		return fmt.Errorf("save poll message: %w", err)
	}
	return nil
}
