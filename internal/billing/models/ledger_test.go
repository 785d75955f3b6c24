package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/money"
	"domainreg/pkg/timeutil"
)

type LedgerSuite struct {
	suite.Suite
	now   time.Time
	grace time.Duration
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerSuite))
}

func (s *LedgerSuite) SetupTest() {
	s.now = time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)
	s.grace = timeutil.Days(45)
}

func (s *LedgerSuite) common(reason Reason, at time.Time) Common {
	return Common{
		ID:        id.NewBillingEventID(),
		ClientID:  "TheRegistrar",
		TargetID:  "example.tld",
		Reason:    reason,
		EventTime: at,
	}
}

func (s *LedgerSuite) oneTime(reason Reason, cost string) OneTime {
	return OneTime{
		Common:      s.common(reason, s.now),
		BillingTime: s.now.Add(timeutil.Days(5)),
		PeriodYears: 1,
		Cost:        money.MustOf(money.USD, cost),
	}
}

func (s *LedgerSuite) flatPrice(Recurring, time.Time) money.Money {
	return money.MustOf(money.USD, "11.00")
}

func (s *LedgerSuite) TestNoDoubleBilling() {
	s.Run("create then cancel in add grace nets to zero", func() {
		create := s.oneTime(ReasonCreate, "10.00")
		cancel := Cancellation{
			Common:      s.common(ReasonCreate, s.now.Add(time.Hour)),
			BillingTime: create.BillingTime,
			Target:      create.Ref(),
		}
		ledger := Ledger{OneTimes: []OneTime{create}, Cancellations: []Cancellation{cancel}}
		s.Require().NoError(ledger.Validate())
		s.Empty(ledger.ActiveOneTimes())

		total, err := Total(money.USD, ledger.Charges(s.now, s.grace, s.flatPrice))
		s.Require().NoError(err)
		s.True(total.IsZero())
	})

	s.Run("uncancelled charges are summed", func() {
		ledger := Ledger{OneTimes: []OneTime{s.oneTime(ReasonCreate, "10.00"), s.oneTime(ReasonRenew, "22.00")}}
		total, err := Total(money.USD, ledger.Charges(s.now, s.grace, s.flatPrice))
		s.Require().NoError(err)
		s.True(total.Equal(money.MustOf(money.USD, "32.00")))
	})
}

func (s *LedgerSuite) TestRecurring() {
	recurring := Recurring{
		Common:            s.common(ReasonRenew, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)),
		RecurrenceEndTime: timeutil.EndOfTime,
	}
	recurring.Flags = []Flag{FlagAutoRenew}

	s.Run("occurrences are yearly from the event time", func() {
		occ := recurring.Occurrences(time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC), s.grace)
		s.Require().Len(occ, 3)
		s.Equal(time.Date(2003, 1, 1, 0, 0, 0, 0, time.UTC), occ[2].EventTime)
		s.Equal(occ[0].EventTime.Add(s.grace), occ[0].BillingTime)
	})

	s.Run("closing stops occurrences at the end time", func() {
		closed, err := recurring.CloseAt(time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC))
		s.Require().NoError(err)
		s.False(closed.IsOpen())
		s.Len(closed.Occurrences(time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), s.grace), 1)
		s.True(closed.Reopen().IsOpen())
	})

	s.Run("end time cannot be pushed later", func() {
		closed, err := recurring.CloseAt(s.now)
		s.Require().NoError(err)
		_, err = closed.CloseAt(s.now.Add(time.Hour))
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})

	s.Run("cancellation matches the occurrence by billing time", func() {
		first := recurring.Occurrences(time.Date(2001, 2, 1, 0, 0, 0, 0, time.UTC), s.grace)[0]
		cancel := Cancellation{
			Common:      s.common(ReasonRenew, first.EventTime.Add(timeutil.Days(3))),
			BillingTime: first.BillingTime,
			Target:      recurring.Ref(),
		}
		ledger := Ledger{Recurrings: []Recurring{recurring}, Cancellations: []Cancellation{cancel}}
		charges := ledger.Charges(time.Date(2002, 2, 1, 0, 0, 0, 0, time.UTC), s.grace, s.flatPrice)
		s.Require().Len(charges, 1)
		s.True(charges[0].Synthetic)
		s.Equal(time.Date(2002, 1, 1, 0, 0, 0, 0, time.UTC), charges[0].EventTime)
	})
}

func (s *LedgerSuite) TestValidate() {
	orphan := Cancellation{
		Common: s.common(ReasonCreate, s.now),
		Target: EventRef{Kind: KindOneTime, ID: id.NewBillingEventID()},
	}
	err := Ledger{Cancellations: []Cancellation{orphan}}.Validate()
	s.Require().Error(err)
	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(FailCancellationTargetMismatch, failure.Kind)
}
