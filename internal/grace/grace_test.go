package grace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	billing "domainreg/internal/billing/models"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/money"
	"domainreg/pkg/timeutil"
)

type fixedPolicy map[Type]time.Duration

func (p fixedPolicy) GraceLength(t Type) time.Duration { return p[t] }

var policy = fixedPolicy{
	Add:        timeutil.Days(5),
	Renew:      timeutil.Days(5),
	AutoRenew:  timeutil.Days(45),
	Transfer:   timeutil.Days(5),
	Redemption: timeutil.Days(30),
	SunrushAdd: timeutil.Days(30),
}

var now = time.Date(2000, 6, 1, 0, 0, 0, 0, time.UTC)

func createCharge() billing.OneTime {
	return billing.OneTime{
		Common: billing.Common{
			ID:        id.NewBillingEventID(),
			ClientID:  "TheRegistrar",
			Reason:    billing.ReasonCreate,
			EventTime: now,
		},
		BillingTime: now.Add(timeutil.Days(5)),
		PeriodYears: 1,
		Cost:        money.MustOf(money.USD, "10.00"),
	}
}

func TestNew(t *testing.T) {
	charge := createCharge()
	ref := charge.Ref()
	p := New(Add, now, policy, "TheRegistrar", &ref)
	assert.Equal(t, now.Add(timeutil.Days(5)), p.ExpirationTime)
	assert.True(t, p.IsActiveAt(now))
	assert.False(t, p.IsActiveAt(p.ExpirationTime))
}

func TestCancel(t *testing.T) {
	history := id.NewHistoryEntryID()

	t.Run("credits at the grace expiration", func(t *testing.T) {
		charge := createCharge()
		p := ForOneTime(Add, charge.BillingTime, "TheRegistrar", charge)
		later := now.Add(time.Hour)

		c, ok, err := Cancel(p, later, id.NewRepoID(), "example.tld", history)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, later, c.EventTime)
		assert.Equal(t, charge.BillingTime, c.BillingTime)
		assert.Equal(t, billing.ReasonCreate, c.Reason)
		assert.True(t, c.Cancels(charge))
	})

	t.Run("auto-renew cancels the recurring occurrence", func(t *testing.T) {
		recurring := id.NewBillingEventID()
		p := ForRecurring(AutoRenew, now.Add(timeutil.Days(45)), "TheRegistrar", recurring)
		c, ok, err := Cancel(p, now, id.NewRepoID(), "example.tld", history)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, billing.ReasonRenew, c.Reason)
		assert.Equal(t, billing.EventRef{Kind: billing.KindRecurring, ID: recurring}, c.Target)
	})

	t.Run("redemption is not cancellable", func(t *testing.T) {
		p := WithoutBilling(Redemption, now.Add(timeutil.Days(30)), "TheRegistrar")
		_, ok, err := Cancel(p, now, id.NewRepoID(), "example.tld", history)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("billable period without a charge is fatal", func(t *testing.T) {
		p := WithoutBilling(Renew, now, "TheRegistrar")
		_, _, err := Cancel(p, now, id.NewRepoID(), "example.tld", history)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	})
}

func TestSunrushConversionExpiration(t *testing.T) {
	sunrush := ForOneTime(SunrushAdd, now.Add(timeutil.Days(30)), "TheRegistrar", createCharge())

	t.Run("normal add window when it fits", func(t *testing.T) {
		at := now.Add(timeutil.Days(2))
		assert.Equal(t, at.Add(timeutil.Days(5)), SunrushConversionExpiration(at, sunrush, policy))
	})

	t.Run("capped by the sunrush window", func(t *testing.T) {
		at := now.Add(timeutil.Days(28))
		assert.Equal(t, sunrush.ExpirationTime, SunrushConversionExpiration(at, sunrush, policy))
	})
}

func TestSet(t *testing.T) {
	charge := createCharge()
	set := Set{
		ForOneTime(Add, now.Add(timeutil.Days(5)), "TheRegistrar", charge),
		ForRecurring(AutoRenew, now.Add(timeutil.Days(1)), "TheRegistrar", id.NewBillingEventID()),
	}

	assert.True(t, set.Has(Add))
	assert.Len(t, set.Without(Add), 1)
	assert.Len(t, set.Unexpired(now.Add(timeutil.Days(2))), 1)
	assert.Len(t, set.With(WithoutBilling(Redemption, now, "TheRegistrar")).Cancellable(), 2)
	require.NoError(t, set.Validate())

	dup := Set{
		WithoutBilling(Redemption, now, "TheRegistrar"),
		WithoutBilling(Redemption, now, "TheRegistrar"),
	}
	err := dup.Validate()
	require.Error(t, err)
	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, FailDuplicateGraceType, failure.Kind)
}
