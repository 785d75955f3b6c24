package service

import (
	"context"
	"fmt"
	"slices"
	"time"

	billing "domainreg/internal/billing/models"
	dns "domainreg/internal/dns/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	"domainreg/internal/grace"
	history "domainreg/internal/history/models"
	"domainreg/internal/pricing"
	"domainreg/internal/tld"
	platformstrings "domainreg/pkg/platform/strings"
)

var updateDisallowedStatuses = []domain.StatusValue{
	domain.PendingDelete,
	domain.ServerUpdateProhibited,
}

// Update adds and removes statuses and nameservers.
func (s *Service) Update(ctx context.Context, actor flows.Actor, cmd flows.UpdateCommand) (flows.Result, error) {
	return s.mutate(ctx, "update", cmd.Name, dns.ReasonUpdate, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		snap, reg, err := s.load(ctx, tx, cmd.Name, now)
		if err != nil {
			return outcome{}, err
		}
		d := snap.Domain
		if err := d.CheckAllowed(updateDisallowedStatuses...); err != nil {
			return outcome{}, err
		}
		if err := s.authorizeSponsor(ctx, actor, d); err != nil {
			return outcome{}, err
		}
		if !actor.Superuser && !slices.Contains(cmd.RemoveStatuses, domain.ClientUpdateProhibited) {
			if err := d.CheckAllowed(domain.ClientUpdateProhibited); err != nil {
				return outcome{}, err
			}
		}
		if err := verifyUpdateValues(d, actor, cmd); err != nil {
			return outcome{}, err
		}

		entry := history.NewEntry(history.TypeDomainUpdate, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
		entry.Reason = cmd.Reason
		entry.RequestedByRegistrar = cmd.RequestedByRegistrar
		m := flows.New(d, entry)
		m.RefreshDNS = true

		next := d
		for _, v := range cmd.AddStatuses {
			next.Statuses = next.Statuses.With(v)
		}
		for _, v := range cmd.RemoveStatuses {
			next.Statuses = next.Statuses.Without(v)
		}
		nameservers := slices.DeleteFunc(slices.Concat(next.Nameservers, cmd.AddNameservers), func(h string) bool {
			return slices.Contains(cmd.RemoveNameservers, h)
		})
		next = next.WithNameservers(nameservers)

		if next.Statuses.IsPublishable() {
			if sunrush := next.GracePeriods.OfType(grace.SunrushAdd); len(sunrush) > 0 {
				converted, err := convertSunrush(ctx, tx, &m, reg, sunrush[0], now)
				if err != nil {
					return outcome{}, err
				}
				next.GracePeriods = next.GracePeriods.Without(grace.SunrushAdd).With(converted)
			}
		}

		var fees *pricing.FeesAndCredits
		if actor.Superuser && cmd.RequestedByRegistrar && changesServerStatus(d.Statuses, next.Statuses) {
			price, err := s.pricer.ServerStatusUpdatePrice(ctx, reg, d.Name, now)
			if err != nil {
				return outcome{}, err
			}
			if err := pricing.ValidateFeeChallenge(d.Name, cmd.Fee, price); err != nil {
				return outcome{}, err
			}
			m.NewOneTime(d.CurrentSponsorClientID, billing.ReasonServerStatus, now, now, 0, price.TotalCost())
			fees = &price
		}

		m.Domain = next.Touched(actor.ClientID, now)
		return outcome{mutation: m, fees: fees}, nil
	})
}

// verifyUpdateValues rejects statuses the actor may not set and values that
// are both added and removed.
func verifyUpdateValues(d domain.Domain, actor flows.Actor, cmd flows.UpdateCommand) error {
	for _, v := range slices.Concat(cmd.AddStatuses, cmd.RemoveStatuses) {
		settable := v.IsClientSettable() || (actor.Superuser && v.IsServerSettable())
		if !settable {
			return &Failure{Kind: FailUnsupportedStatus, Domain: d.Name, ClientID: actor.ClientID, Value: string(v)}
		}
	}
	for _, v := range cmd.AddStatuses {
		if slices.Contains(cmd.RemoveStatuses, v) {
			return &Failure{Kind: FailAddRemoveSameValue, Domain: d.Name, Value: string(v)}
		}
	}
	if both := platformstrings.Overlap(cmd.AddNameservers, cmd.RemoveNameservers); len(both) > 0 {
		return &Failure{Kind: FailAddRemoveSameValue, Domain: d.Name, Value: both[0]}
	}
	return nil
}

// convertSunrush replaces a sunrush registration's charge and grace period
// with an ordinary ADD pair once the domain becomes publishable. The new
// window never outlasts the sunrush one.
func convertSunrush(ctx context.Context, tx flows.Tx, m *flows.Mutation, reg tld.Registry, sunrush grace.Period, now time.Time) (grace.Period, error) {
	original, err := tx.OneTime(ctx, sunrush.Billing.ID)
	if err != nil {
		return grace.Period{}, fmt.Errorf("load sunrush charge: %w", err)
	}
	c, ok, err := grace.Cancel(sunrush, now, m.Domain.RepoID, m.Domain.Name, m.History.ID)
	if err != nil {
		return grace.Period{}, err
	}
	if ok {
		m.Cancellations = append(m.Cancellations, c)
	}
	end := grace.SunrushConversionExpiration(now, sunrush, reg)
	charge := m.NewOneTime(sunrush.ClientID, billing.ReasonCreate, now, end, original.PeriodYears, original.Cost)
	charge.Flags = original.Flags
	m.OneTimes[len(m.OneTimes)-1] = charge
	return grace.ForOneTime(grace.Add, end, sunrush.ClientID, charge), nil
}

// changesServerStatus reports whether a server-settable status differs between before and after.
func changesServerStatus(before, after domain.StatusSet) bool {
	for _, v := range before {
		if v.IsServerSettable() && !after.Has(v) {
			return true
		}
	}
	for _, v := range after {
		if v.IsServerSettable() && !before.Has(v) {
			return true
		}
	}
	return false
}
