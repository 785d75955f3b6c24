package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	billing "domainreg/internal/billing/models"
	"domainreg/internal/grace"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/timeutil"
)

type testPolicy map[grace.Type]time.Duration

func (p testPolicy) GraceLength(t grace.Type) time.Duration { return p[t] }

var policy = testPolicy{
	grace.Add:        timeutil.Days(5),
	grace.Renew:      timeutil.Days(5),
	grace.AutoRenew:  timeutil.Days(45),
	grace.Transfer:   timeutil.Days(5),
	grace.Redemption: timeutil.Days(30),
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type ProjectionSuite struct {
	suite.Suite
	domain Domain
}

func TestProjectionSuite(t *testing.T) {
	suite.Run(t, new(ProjectionSuite))
}

func (s *ProjectionSuite) SetupTest() {
	s.domain = Domain{
		RepoID:                     id.NewRepoID(),
		Name:                       "example.tld",
		CreationClientID:           "TheRegistrar",
		CurrentSponsorClientID:     "TheRegistrar",
		CreationTime:               day(1999, time.January, 1),
		RegistrationExpirationTime: day(2000, time.January, 1),
		Statuses:                   NewStatusSet(Inactive),
		AutorenewBillingEvent:      id.NewBillingEventID(),
		AutorenewPollMessage:       id.NewPollMessageID(),
		TransferData:               TransferData{Status: TransferNone},
		DeletionTime:               NotDeleted(),
	}
}

func (s *ProjectionSuite) withPendingTransfer(requested, automatic time.Time, years int) Domain {
	transferCharge := id.NewBillingEventID()
	d := s.domain
	d.Statuses = d.Statuses.With(PendingTransfer)
	d.TransferData = TransferData{
		Status:                        TransferPending,
		GainingClientID:               "NewRegistrar",
		LosingClientID:                "TheRegistrar",
		TransferRequestTime:           requested,
		PendingTransferExpirationTime: automatic,
		TransferPeriodYears:           years,
		Bundle: PendingTransferBundle{
			TransferBillingEvent: &transferCharge,
			GainingRecurring:     id.NewBillingEventID(),
			GainingAutorenewPoll: id.NewPollMessageID(),
			GainingTransferPoll:  id.NewPollMessageID(),
			LosingTransferPoll:   id.NewPollMessageID(),
		},
	}
	return d
}

func (s *ProjectionSuite) TestNothingDue() {
	now := day(1999, time.June, 1)
	got := ProjectAt(s.domain, now, policy)
	s.Equal(s.domain.RegistrationExpirationTime, got.RegistrationExpirationTime)
	s.Empty(got.GracePeriods)
	s.Equal(StateActive, got.State(now))
}

func (s *ProjectionSuite) TestAutorenew() {
	s.Run("expiration passed adds a year and an auto-renew grace", func() {
		got := ProjectAt(s.domain, day(2000, time.January, 10), policy)
		s.Equal(day(2001, time.January, 1), got.RegistrationExpirationTime)
		s.Require().Len(got.GracePeriods, 1)
		gp := got.GracePeriods[0]
		s.Equal(grace.AutoRenew, gp.Type)
		s.Equal(day(2000, time.January, 1).Add(timeutil.Days(45)), gp.ExpirationTime)
		s.Equal(billing.EventRef{Kind: billing.KindRecurring, ID: s.domain.AutorenewBillingEvent}, *gp.Billing)
	})

	s.Run("several years elapsed", func() {
		got := ProjectAt(s.domain, day(2003, time.March, 1), policy)
		s.Equal(day(2004, time.January, 1), got.RegistrationExpirationTime)
		s.Empty(got.GracePeriods, "auto-renew grace from 2003-01-01 has ended")
	})

	s.Run("pending delete does not auto-renew", func() {
		d := s.domain
		d.Statuses = d.Statuses.With(PendingDelete)
		got := ProjectAt(d, day(2000, time.January, 10), policy)
		s.Equal(day(2000, time.January, 1), got.RegistrationExpirationTime)
	})
}

// TestAutomaticTransfer covers a transfer requested on 1999-12-01 with a
// five day automatic transfer length, read on 1999-12-10.
func (s *ProjectionSuite) TestAutomaticTransfer() {
	pending := s.withPendingTransfer(day(1999, time.December, 1), day(1999, time.December, 6), 1)

	s.Run("not yet due", func() {
		got := ProjectAt(pending, day(1999, time.December, 5), policy)
		s.Equal(TransferPending, got.TransferData.Status)
		s.Equal(StatePendingTransfer, got.State(day(1999, time.December, 5)))
	})

	s.Run("due: sponsor changes and a year is added", func() {
		now := day(1999, time.December, 10)
		got := ProjectAt(pending, now, policy)
		s.Equal(id.ClientID("NewRegistrar"), got.CurrentSponsorClientID)
		s.Equal(day(2001, time.January, 1), got.RegistrationExpirationTime)
		s.Equal(TransferServerApproved, got.TransferData.Status)
		s.True(got.TransferData.Bundle.IsEmpty())
		s.False(got.Statuses.Has(PendingTransfer))
		s.Equal(day(1999, time.December, 6), got.LastTransferTime)
		s.Equal(pending.TransferData.Bundle.GainingRecurring, got.AutorenewBillingEvent)
		s.Equal(pending.TransferData.Bundle.GainingAutorenewPoll, got.AutorenewPollMessage)

		s.Require().Len(got.GracePeriods, 1)
		gp := got.GracePeriods[0]
		s.Equal(grace.Transfer, gp.Type)
		s.Equal(day(1999, time.December, 6).Add(timeutil.Days(5)), gp.ExpirationTime)
		s.Equal(*pending.TransferData.Bundle.TransferBillingEvent, gp.Billing.ID)
		s.Require().NoError(got.Validate())
	})

	s.Run("idempotent at the same instant", func() {
		now := day(1999, time.December, 10)
		once := ProjectAt(pending, now, policy)
		s.Equal(once, ProjectAt(once, now, policy))
	})

	s.Run("transfer subsumes an auto-renew in progress", func() {
		d := s.withPendingTransfer(day(2000, time.January, 5), day(2000, time.January, 10), 1)
		got := ProjectAt(d, day(2000, time.January, 11), policy)
		s.Equal(day(2001, time.January, 1), got.RegistrationExpirationTime)
		s.False(got.GracePeriods.Has(grace.AutoRenew))
		s.True(got.GracePeriods.Has(grace.Transfer))
	})

	s.Run("zero-year transfer has no grace period", func() {
		d := s.withPendingTransfer(day(1999, time.December, 1), day(1999, time.December, 6), 0)
		d.TransferData.Bundle.TransferBillingEvent = nil
		got := ProjectAt(d, day(1999, time.December, 7), policy)
		s.Equal(day(2000, time.January, 1), got.RegistrationExpirationTime)
		s.Empty(got.GracePeriods)
	})
}

func (s *ProjectionSuite) TestCheckAllowed() {
	d := s.domain
	d.Statuses = d.Statuses.With(ClientTransferProhibited)
	err := d.CheckAllowed(ClientTransferProhibited, PendingDelete, ServerTransferProhibited)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(StatusSet{ClientTransferProhibited}, failure.Statuses)

	s.NoError(d.CheckAllowed(PendingDelete))
}

func (s *ProjectionSuite) TestValidate() {
	s.Require().NoError(s.domain.Validate())

	d := s.domain
	d.Statuses = d.Statuses.With(PendingTransfer).With(PendingDelete)
	err := d.Validate()
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))

	withHosts := s.domain.WithNameservers([]string{"ns2.example.net", "ns1.example.net", "ns1.example.net"})
	s.Equal([]string{"ns1.example.net", "ns2.example.net"}, withHosts.Nameservers)
	s.False(withHosts.Statuses.Has(Inactive))
	s.NoError(withHosts.Validate())
}

func TestExtendRegistrationWithCap(t *testing.T) {
	suite.Run(t, new(registrationSuite))
}

type registrationSuite struct{ suite.Suite }

func (s *registrationSuite) TestCap() {
	now := day(2000, time.January, 1)
	s.Equal(day(2002, time.January, 1), ExtendRegistrationWithCap(now, day(2001, time.January, 1), 1))
	s.Equal(day(2010, time.January, 1), ExtendRegistrationWithCap(now, day(2009, time.June, 1), 1))
	s.Equal(day(2011, time.January, 1), ExtendRegistrationWithCap(now, day(2011, time.January, 1), 1),
		"never moves an expiration backwards")
	s.True(ExceedsMaxRegistration(now, day(2010, time.January, 2)))
	s.False(ExceedsMaxRegistration(now, day(2010, time.January, 1)))
}
