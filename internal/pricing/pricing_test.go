package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"domainreg/internal/tld"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/money"
)

type PricingSuite struct {
	suite.Suite
	ctx    context.Context
	reg    tld.Registry
	pricer StaticPricer
	at     time.Time
}

func TestPricingSuite(t *testing.T) {
	suite.Run(t, new(PricingSuite))
}

func (s *PricingSuite) SetupTest() {
	s.ctx = context.Background()
	s.at = time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)
	s.reg = tld.Registry{
		TLD:       "tld",
		Currency:  money.USD,
		Phase:     tld.PhaseGeneralAvailability,
		Durations: tld.DefaultDurations(),
		Prices: tld.Prices{
			Create:             "13.00",
			Renew:              "11.00",
			Restore:            "17.00",
			ServerStatusUpdate: "19.00",
			Premium:            map[string]string{"rich": "100.00"},
		},
	}
}

func (s *PricingSuite) TestPrices() {
	s.Run("create multiplies by years", func() {
		f, err := s.pricer.CreatePrice(s.ctx, s.reg, "example.tld", s.at, 2)
		s.Require().NoError(err)
		s.True(f.TotalCost().Equal(money.MustOf(money.USD, "26.00")))
		s.False(f.IsPremium())
	})

	s.Run("premium label overrides", func() {
		f, err := s.pricer.RenewPrice(s.ctx, s.reg, "rich.tld", s.at, 1)
		s.Require().NoError(err)
		s.True(f.TotalCost().Equal(money.MustOf(money.USD, "100.00")))
		s.True(f.IsPremium())
	})

	s.Run("restore includes a one year renewal", func() {
		f, err := s.pricer.RestorePrice(s.ctx, s.reg, "example.tld", s.at)
		s.Require().NoError(err)
		s.True(f.CostOf(FeeRestore).Equal(money.MustOf(money.USD, "17.00")))
		s.True(f.CostOf(FeeRenew).Equal(money.MustOf(money.USD, "11.00")))
		s.True(f.TotalCost().Equal(money.MustOf(money.USD, "28.00")))
	})

	s.Run("transfer is one year of renewal", func() {
		f, err := s.pricer.TransferPrice(s.ctx, s.reg, "example.tld", s.at)
		s.Require().NoError(err)
		s.True(f.CostOf(FeeTransfer).Equal(money.MustOf(money.USD, "11.00")))
	})
}

func (s *PricingSuite) TestValidateFeeChallenge() {
	standard, err := s.pricer.CreatePrice(s.ctx, s.reg, "example.tld", s.at, 1)
	s.Require().NoError(err)
	premium, err := s.pricer.CreatePrice(s.ctx, s.reg, "rich.tld", s.at, 1)
	s.Require().NoError(err)

	s.Run("no challenge on a standard name", func() {
		s.NoError(ValidateFeeChallenge("example.tld", nil, standard))
	})

	s.Run("premium requires a challenge", func() {
		s.assertFailure(ValidateFeeChallenge("rich.tld", nil, premium), FailFeesRequired)
	})

	s.Run("matching challenge", func() {
		s.NoError(ValidateFeeChallenge("example.tld", &Challenge{Total: money.MustOf(money.USD, "13")}, standard))
	})

	s.Run("wrong amount", func() {
		err := ValidateFeeChallenge("example.tld", &Challenge{Total: money.MustOf(money.USD, "12.00")}, standard)
		s.assertFailure(err, FailFeeMismatch)
	})

	s.Run("wrong currency", func() {
		err := ValidateFeeChallenge("example.tld", &Challenge{Total: money.MustOf(money.EUR, "13.00")}, standard)
		s.assertFailure(err, FailCurrencyMismatch)
	})

	s.Run("unsupported attribute", func() {
		err := ValidateFeeChallenge("example.tld", &Challenge{
			Total:      money.MustOf(money.USD, "13.00"),
			Attributes: []string{"refundable"},
		}, standard)
		s.assertFailure(err, FailUnsupportedFeeAttribute)
	})
}

func (s *PricingSuite) assertFailure(err error, kind FailureKind) {
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	var failure *Failure
	s.Require().ErrorAs(err, &failure)
	s.Equal(kind, failure.Kind)
}

func (s *PricingSuite) TestVerifyPremiumNotBlocked() {
	premium, err := s.pricer.CreatePrice(s.ctx, s.reg, "rich.tld", s.at, 1)
	s.Require().NoError(err)
	standard, err := s.pricer.CreatePrice(s.ctx, s.reg, "example.tld", s.at, 1)
	s.Require().NoError(err)

	s.NoError(VerifyPremiumNotBlocked("rich.tld", premium, false))
	s.NoError(VerifyPremiumNotBlocked("example.tld", standard, true))
	err = VerifyPremiumNotBlocked("rich.tld", premium, true)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}
