// Package pricing computes what a registry operation costs and checks a
// registrar's fee acknowledgement against it.
package pricing

import (
	"context"
	"fmt"
	"time"

	"domainreg/internal/tld"
	id "domainreg/pkg/domain"
	"domainreg/pkg/money"
)

// FeeType names the operation a fee is for.
type FeeType string

const (
	FeeCreate             FeeType = "CREATE"
	FeeRenew              FeeType = "RENEW"
	FeeRestore            FeeType = "RESTORE"
	FeeTransfer           FeeType = "TRANSFER"
	FeeServerStatusUpdate FeeType = "SERVER_STATUS_UPDATE"
)

// Fee is one priced component of an operation.
type Fee struct {
	Type    FeeType
	Cost    money.Money
	Premium bool
}

// FeesAndCredits is the full price of an operation.
type FeesAndCredits struct {
	Currency money.Currency
	Fees     []Fee
}

// TotalCost sums every fee.
func (f FeesAndCredits) TotalCost() money.Money {
	total := money.Zero(f.Currency)
	for _, fee := range f.Fees {
		// Fees are built in the registry currency, so Plus cannot fail here.
		total, _ = total.Plus(fee.Cost)
	}
	return total
}

// CostOf returns the cost of the first fee of type t, or zero.
func (f FeesAndCredits) CostOf(t FeeType) money.Money {
	for _, fee := range f.Fees {
		if fee.Type == t {
			return fee.Cost
		}
	}
	return money.Zero(f.Currency)
}

// IsPremium reports whether any fee is a premium price.
func (f FeesAndCredits) IsPremium() bool {
	for _, fee := range f.Fees {
		if fee.Premium {
			return true
		}
	}
	return false
}

// Pricer prices registry operations.
type Pricer interface {
	CreatePrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time, years int) (FeesAndCredits, error)
	RenewPrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time, years int) (FeesAndCredits, error)
	// RestorePrice includes the mandatory one-year renewal.
	RestorePrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time) (FeesAndCredits, error)
	TransferPrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time) (FeesAndCredits, error)
	ServerStatusUpdatePrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time) (FeesAndCredits, error)
}

// StaticPricer prices from the TLD's configured schedule. Premium labels
// override both create and renew prices.
type StaticPricer struct{}

var _ Pricer = StaticPricer{}

func (StaticPricer) CreatePrice(_ context.Context, reg tld.Registry, name id.DomainName, _ time.Time, years int) (FeesAndCredits, error) {
	cost, premium, err := annualPrice(reg, name, reg.Prices.Create)
	if err != nil {
		return FeesAndCredits{}, err
	}
	return single(reg, FeeCreate, cost.Times(years), premium), nil
}

func (StaticPricer) RenewPrice(_ context.Context, reg tld.Registry, name id.DomainName, _ time.Time, years int) (FeesAndCredits, error) {
	cost, premium, err := annualPrice(reg, name, reg.Prices.Renew)
	if err != nil {
		return FeesAndCredits{}, err
	}
	return single(reg, FeeRenew, cost.Times(years), premium), nil
}

func (p StaticPricer) RestorePrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time) (FeesAndCredits, error) {
	restore, err := money.Of(reg.Currency, reg.Prices.Restore)
	if err != nil {
		return FeesAndCredits{}, fmt.Errorf("restore price for %s: %w", reg.TLD, err)
	}
	renew, err := p.RenewPrice(ctx, reg, name, at, 1)
	if err != nil {
		return FeesAndCredits{}, err
	}
	return FeesAndCredits{
		Currency: reg.Currency,
		Fees:     []Fee{{Type: FeeRestore, Cost: restore}, renew.Fees[0]},
	}, nil
}

// TransferPrice is one year at the renewal price.
func (p StaticPricer) TransferPrice(ctx context.Context, reg tld.Registry, name id.DomainName, at time.Time) (FeesAndCredits, error) {
	renew, err := p.RenewPrice(ctx, reg, name, at, 1)
	if err != nil {
		return FeesAndCredits{}, err
	}
	fee := renew.Fees[0]
	fee.Type = FeeTransfer
	return FeesAndCredits{Currency: reg.Currency, Fees: []Fee{fee}}, nil
}

func (StaticPricer) ServerStatusUpdatePrice(_ context.Context, reg tld.Registry, _ id.DomainName, _ time.Time) (FeesAndCredits, error) {
	cost, err := money.Of(reg.Currency, reg.Prices.ServerStatusUpdate)
	if err != nil {
		return FeesAndCredits{}, fmt.Errorf("server status price for %s: %w", reg.TLD, err)
	}
	return single(reg, FeeServerStatusUpdate, cost, false), nil
}

func annualPrice(reg tld.Registry, name id.DomainName, standard string) (money.Money, bool, error) {
	if premium, ok := reg.Prices.Premium[name.Label()]; ok {
		cost, err := money.Of(reg.Currency, premium)
		if err != nil {
			return money.Money{}, false, fmt.Errorf("premium price for %s: %w", name, err)
		}
		return cost, true, nil
	}
	cost, err := money.Of(reg.Currency, standard)
	if err != nil {
		return money.Money{}, false, fmt.Errorf("price for %s: %w", reg.TLD, err)
	}
	return cost, false, nil
}

func single(reg tld.Registry, t FeeType, cost money.Money, premium bool) FeesAndCredits {
	return FeesAndCredits{Currency: reg.Currency, Fees: []Fee{{Type: t, Cost: cost, Premium: premium}}}
}
