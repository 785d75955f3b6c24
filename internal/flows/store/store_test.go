package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/money"
	"domainreg/pkg/platform/sentinel"
)

// graphStore is what both store implementations offer the services.
type graphStore interface {
	flows.Store
	Deliverable(ctx context.Context, clientID id.ClientID, now time.Time) ([]poll.Message, error)
	UpdatePollMessage(ctx context.Context, msgID id.PollMessageID, fn func(m *poll.Message) (keep bool, err error)) error
}

var (
	_ graphStore = (*InMemory)(nil)
	_ graphStore = (*PostgresStore)(nil)
)

// StoreSuite runs against whichever store SetupTest installs.
type StoreSuite struct {
	suite.Suite
	store graphStore
	ctx   context.Context
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

type InMemoryStoreSuite struct {
	StoreSuite
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.init(NewInMemory(WithLockTimeout(50 * time.Millisecond)))
}

func (s *StoreSuite) init(store graphStore) {
	s.store = store
	s.ctx = context.Background()
	s.now = time.Date(1999, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// createMutation builds a freshly registered domain with its charge, autorenew
// and a welcome message for the sponsor.
func (s *StoreSuite) createMutation(name id.DomainName) flows.Mutation {
	d := domain.Domain{
		RepoID:                     id.NewRepoID(),
		Name:                       name,
		CreationClientID:           "TheRegistrar",
		CurrentSponsorClientID:     "TheRegistrar",
		CreationTime:               s.now,
		RegistrationExpirationTime: s.now.AddDate(1, 0, 0),
		DeletionTime:               domain.NotDeleted(),
		TransferData:               domain.TransferData{Status: domain.TransferNone},
	}
	d = d.WithNameservers([]string{"ns1.example.net"})
	entry := history.NewEntry(history.TypeDomainCreate, s.now, d.RepoID, d.Name, "TheRegistrar", false)
	m := flows.New(d, entry)
	m.NewOneTime("TheRegistrar", billing.ReasonCreate, s.now, s.now.AddDate(0, 0, 5), 1, money.MustOf(money.USD, "13.00"))
	m.Domain.AutorenewBillingEvent, m.Domain.AutorenewPollMessage = m.NewAutorenew("TheRegistrar", d.RegistrationExpirationTime)
	m.PollMessages = append(m.PollMessages, poll.NewOneTime("TheRegistrar", s.now, "Welcome.", d.RepoID, d.Name, entry.ID))
	return m
}

func (s *StoreSuite) apply(m flows.Mutation) {
	s.Require().NoError(s.store.RunInTx(s.ctx, m.Domain.Name, func(ctx context.Context, tx flows.Tx) error {
		return tx.Apply(ctx, m)
	}))
}

func (s *StoreSuite) TestApplyAndRead() {
	m := s.createMutation("example.tld")
	s.apply(m)

	err := s.store.RunInTx(s.ctx, "example.tld", func(ctx context.Context, tx flows.Tx) error {
		d, err := tx.Domain(ctx, "example.tld")
		s.Require().NoError(err)
		s.Equal(m.Domain.RepoID, d.RepoID)
		s.Equal([]string{"ns1.example.net"}, d.Nameservers)
		s.True(d.RegistrationExpirationTime.Equal(m.Domain.RegistrationExpirationTime))

		o, err := tx.OneTime(ctx, m.OneTimes[0].ID)
		s.Require().NoError(err)
		s.True(o.Cost.Equal(money.MustOf(money.USD, "13.00")))

		r, err := tx.Recurring(ctx, d.AutorenewBillingEvent)
		s.Require().NoError(err)
		s.True(r.IsOpen())

		msg, err := tx.PollMessage(ctx, d.AutorenewPollMessage)
		s.Require().NoError(err)
		s.Equal(poll.KindAutorenew, msg.Kind)

		entries, err := tx.HistoryEntries(ctx, d.RepoID, s.now)
		s.Require().NoError(err)
		s.Require().Len(entries, 1)
		s.Equal(m.History.ID, entries[0].ID)

		_, err = tx.Domain(ctx, "missing.tld")
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	})
	s.Require().NoError(err)

	l, err := s.store.Ledger(s.ctx, m.Domain.RepoID)
	s.Require().NoError(err)
	s.Len(l.OneTimes, 1)
	s.Len(l.Recurrings, 1)
	s.Empty(l.Cancellations)
}

func (s *StoreSuite) TestFailedCommandWritesNothing() {
	m := s.createMutation("example.tld")
	boom := errors.New("validation failed")

	err := s.store.RunInTx(s.ctx, "example.tld", func(ctx context.Context, tx flows.Tx) error {
		s.Require().NoError(tx.Apply(ctx, m))
		return boom
	})
	s.ErrorIs(err, boom)

	s.Require().NoError(s.store.RunInTx(s.ctx, "example.tld", func(ctx context.Context, tx flows.Tx) error {
		_, err := tx.Domain(ctx, "example.tld")
		s.ErrorIs(err, sentinel.ErrNotFound)
		return nil
	}))
	l, err := s.store.Ledger(s.ctx, m.Domain.RepoID)
	s.Require().NoError(err)
	s.Empty(l.OneTimes)
}

func (s *StoreSuite) TestDeleteBilling() {
	m := s.createMutation("example.tld")
	s.apply(m)

	next := flows.New(m.Domain, history.NewEntry(history.TypeDomainUpdate, s.now, m.Domain.RepoID, m.Domain.Name, "TheRegistrar", false))
	next.DeleteBilling = []billing.EventRef{m.OneTimes[0].Ref()}
	s.apply(next)

	l, err := s.store.Ledger(s.ctx, m.Domain.RepoID)
	s.Require().NoError(err)
	s.Empty(l.OneTimes)
	s.Len(l.Recurrings, 1)
}

func (s *StoreSuite) TestPollQueue() {
	m := s.createMutation("example.tld")
	s.apply(m)
	welcome := m.PollMessages[len(m.PollMessages)-1]

	msgs, err := s.store.Deliverable(s.ctx, "TheRegistrar", s.now)
	s.Require().NoError(err)
	s.Require().Len(msgs, 1)
	s.Equal(welcome.ID, msgs[0].ID)

	msgs, err = s.store.Deliverable(s.ctx, "TheRegistrar", s.now.AddDate(1, 0, 0))
	s.Require().NoError(err)
	s.Len(msgs, 2)

	msgs, err = s.store.Deliverable(s.ctx, "NewRegistrar", s.now.AddDate(1, 0, 0))
	s.Require().NoError(err)
	s.Empty(msgs)

	s.Require().NoError(s.store.UpdatePollMessage(s.ctx, welcome.ID, func(*poll.Message) (bool, error) {
		return false, nil
	}))
	err = s.store.UpdatePollMessage(s.ctx, welcome.ID, func(*poll.Message) (bool, error) {
		return false, nil
	})
	s.ErrorIs(err, sentinel.ErrNotFound)

	s.Require().NoError(s.store.UpdatePollMessage(s.ctx, m.Domain.AutorenewPollMessage, func(msg *poll.Message) (bool, error) {
		next, keep := msg.Ack()
		*msg = next
		return keep, nil
	}))
	msgs, err = s.store.Deliverable(s.ctx, "TheRegistrar", s.now.AddDate(1, 0, 0))
	s.Require().NoError(err)
	s.Empty(msgs, "the acknowledged autorenew moved a year out")

	refused := errors.New("not yours")
	err = s.store.UpdatePollMessage(s.ctx, m.Domain.AutorenewPollMessage, func(*poll.Message) (bool, error) {
		return false, refused
	})
	s.ErrorIs(err, refused)
	msgs, err = s.store.Deliverable(s.ctx, "TheRegistrar", s.now.AddDate(2, 0, 0))
	s.Require().NoError(err)
	s.Len(msgs, 1)
}

func (s *InMemoryStoreSuite) TestSameNameIsSerialized() {
	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.store.RunInTx(s.ctx, "example.tld", func(context.Context, flows.Tx) error {
			close(entered)
			<-release
			return nil
		})
	}()
	<-entered

	err := s.store.RunInTx(s.ctx, "example.tld", func(context.Context, flows.Tx) error { return nil })
	s.ErrorIs(err, sentinel.ErrUnavailable)

	close(release)
	s.Require().NoError(<-done)
	s.NoError(s.store.RunInTx(s.ctx, "example.tld", func(context.Context, flows.Tx) error { return nil }))
}

func (s *InMemoryStoreSuite) TestPollAckWaitsForCommandOnItsDomain() {
	m := s.createMutation("example.tld")
	s.apply(m)
	msgID := m.Domain.AutorenewPollMessage
	ackAdvances := func(msg *poll.Message) (bool, error) {
		next, keep := msg.Ack()
		*msg = next
		return keep, nil
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.store.RunInTx(s.ctx, "example.tld", func(ctx context.Context, tx flows.Tx) error {
			msg, err := tx.PollMessage(ctx, msgID)
			if err != nil {
				return err
			}
			close(entered)
			<-release
			next := flows.New(m.Domain, history.NewEntry(history.TypeDomainRenew, s.now, m.Domain.RepoID, m.Domain.Name, "TheRegistrar", false))
			msg.AutorenewEndTime = s.now.AddDate(3, 0, 0)
			next.PollMessages = append(next.PollMessages, msg)
			return tx.Apply(ctx, next)
		})
	}()
	<-entered

	err := s.store.UpdatePollMessage(s.ctx, msgID, ackAdvances)
	s.ErrorIs(err, sentinel.ErrUnavailable, "an ack cannot slip in while the domain is locked")

	close(release)
	s.Require().NoError(<-done)

	var seen poll.Message
	s.Require().NoError(s.store.UpdatePollMessage(s.ctx, msgID, func(msg *poll.Message) (bool, error) {
		seen = *msg
		return ackAdvances(msg)
	}))
	s.True(seen.AutorenewEndTime.Equal(s.now.AddDate(3, 0, 0)), "the ack sees what the command committed")

	msgs, err := s.store.Deliverable(s.ctx, "TheRegistrar", s.now.AddDate(1, 0, 0))
	s.Require().NoError(err)
	for _, msg := range msgs {
		s.NotEqual(msgID, msg.ID, "the acknowledged occurrence is not delivered again")
	}
}
