package models

import (
	"context"
	"time"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
)

// Tx reads one domain's object graph and applies a command's writes. It is
// valid only inside Store.RunInTx.
type Tx interface {
	// Domain returns the most recent resource registered under name, deleted
	// or not, as stored. Returns sentinel.ErrNotFound if none.
	Domain(ctx context.Context, name id.DomainName) (domain.Domain, error)
	OneTime(ctx context.Context, eventID id.BillingEventID) (billing.OneTime, error)
	Recurring(ctx context.Context, eventID id.BillingEventID) (billing.Recurring, error)
	// PollMessage returns sentinel.ErrNotFound once a message was consumed.
	PollMessage(ctx context.Context, msgID id.PollMessageID) (poll.Message, error)
	HistoryEntries(ctx context.Context, repoID id.RepoID, since time.Time) ([]history.Entry, error)
	Apply(ctx context.Context, m Mutation) error
}

// Store runs commands against the domain store. Commands on the same name
// are serialized; commands on different names run in parallel. A non-nil
// error from fn discards every write.
type Store interface {
	RunInTx(ctx context.Context, name id.DomainName, fn func(ctx context.Context, tx Tx) error) error
	Ledger(ctx context.Context, repoID id.RepoID) (billing.Ledger, error)
}
