//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	flows "domainreg/internal/flows/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	"domainreg/pkg/testutil/containers"
)

var errAlreadyExists = errors.New("already exists")

type PostgresStoreSuite struct {
	StoreSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "domains", "history_entries", "billing_events", "poll_messages"))
	s.init(NewPostgres(s.postgres.DB))
}

func (s *PostgresStoreSuite) TestCreatesOfOneNameAreSerialized() {
	first := s.createMutation("race.tld")
	second := s.createMutation("race.tld")

	errs := make(chan error, 2)
	for _, m := range []flows.Mutation{first, second} {
		go func() {
			errs <- s.store.RunInTx(s.ctx, m.Domain.Name, func(ctx context.Context, tx flows.Tx) error {
				if _, err := tx.Domain(ctx, m.Domain.Name); err == nil {
					return errAlreadyExists
				}
				return tx.Apply(ctx, m)
			})
		}()
	}
	var failures int
	for range 2 {
		if err := <-errs; err != nil {
			s.ErrorIs(err, errAlreadyExists)
			failures++
		}
	}
	s.Equal(1, failures)
}

func (s *PostgresStoreSuite) TestPollAckWaitsForCommandOnItsDomain() {
	m := s.createMutation("example.tld")
	s.apply(m)
	msgID := m.Domain.AutorenewPollMessage
	extendedEnd := s.now.AddDate(3, 0, 0)

	acked := make(chan poll.Message, 1)
	ackDone := make(chan error, 1)
	err := s.store.RunInTx(s.ctx, "example.tld", func(ctx context.Context, tx flows.Tx) error {
		msg, err := tx.PollMessage(ctx, msgID)
		if err != nil {
			return err
		}
		go func() {
			ackDone <- s.store.UpdatePollMessage(s.ctx, msgID, func(msg *poll.Message) (bool, error) {
				acked <- *msg
				next, keep := msg.Ack()
				*msg = next
				return keep, nil
			})
		}()

		select {
		case <-acked:
			s.Fail("ack ran while the domain was locked")
		case <-time.After(200 * time.Millisecond):
		}

		next := flows.New(m.Domain, history.NewEntry(history.TypeDomainRenew, s.now, m.Domain.RepoID, m.Domain.Name, "TheRegistrar", false))
		msg.AutorenewEndTime = extendedEnd
		next.PollMessages = append(next.PollMessages, msg)
		return tx.Apply(ctx, next)
	})
	s.Require().NoError(err)
	s.Require().NoError(<-ackDone)

	seen := <-acked
	s.True(seen.AutorenewEndTime.Equal(extendedEnd), "the ack sees what the command committed")

	s.Require().NoError(s.store.RunInTx(s.ctx, "example.tld", func(ctx context.Context, tx flows.Tx) error {
		msg, err := tx.PollMessage(ctx, msgID)
		s.Require().NoError(err)
		s.True(msg.EventTime.Equal(m.Domain.RegistrationExpirationTime.AddDate(1, 0, 0)))
		s.True(msg.AutorenewEndTime.Equal(extendedEnd))
		return nil
	}))
}
