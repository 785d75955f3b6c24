package service

import (
	"context"
	"time"

	billing "domainreg/internal/billing/models"
	dns "domainreg/internal/dns/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	"domainreg/internal/grace"
	history "domainreg/internal/history/models"
	"domainreg/internal/pricing"
	"domainreg/pkg/timeutil"
)

// Restore brings a domain back out of redemption. The registration restarts
// at one year from now whatever it was before, and the sponsor pays the
// restore fee plus a year's renewal.
func (s *Service) Restore(ctx context.Context, actor flows.Actor, cmd flows.RestoreCommand) (flows.Result, error) {
	return s.mutate(ctx, "restore", cmd.Name, dns.ReasonRestore, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		snap, reg, err := s.load(ctx, tx, cmd.Name, now)
		if err != nil {
			return outcome{}, err
		}
		d := snap.Domain
		if err := s.authorizeSponsor(ctx, actor, d); err != nil {
			return outcome{}, err
		}
		if !d.GracePeriods.Has(grace.Redemption) {
			return outcome{}, &Failure{Kind: FailNotInRedemption, Domain: d.Name, ClientID: actor.ClientID}
		}
		price, err := s.pricer.RestorePrice(ctx, reg, d.Name, now)
		if err != nil {
			return outcome{}, err
		}
		if err := s.verifyPremium(ctx, actor, d.Name, price); err != nil {
			return outcome{}, err
		}
		if err := pricing.ValidateFeeChallenge(d.Name, cmd.Fee, price); err != nil {
			return outcome{}, err
		}

		entry := history.NewEntry(history.TypeDomainRestore, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
		entry = entry.WithRecords(history.TransactionRecord{
			TLD:           d.TLD(),
			ReportingTime: now,
			Field:         history.RestoredDomains,
			Amount:        1,
		})
		m := flows.New(d, entry)
		m.RefreshDNS = true

		sponsor := d.CurrentSponsorClientID
		m.NewOneTime(sponsor, billing.ReasonRestore, now, now, 0, price.CostOf(pricing.FeeRestore))
		m.NewOneTime(sponsor, billing.ReasonRenew, now, now, 1, price.CostOf(pricing.FeeRenew))
		if d.DeletePollMessage != nil {
			m.DeletePolls = append(m.DeletePolls, *d.DeletePollMessage)
		}

		newExpiration := timeutil.AddYears(now, 1)
		next := d
		next.AutorenewBillingEvent, next.AutorenewPollMessage = m.NewAutorenew(sponsor, newExpiration)
		next.RegistrationExpirationTime = newExpiration
		next.DeletionTime = domain.NotDeleted()
		next.DeletePollMessage = nil
		next.GracePeriods = nil
		next.Statuses = domain.NewStatusSet()
		next = next.WithNameservers(next.Nameservers)
		m.Domain = next.Touched(actor.ClientID, now)
		return outcome{mutation: m, fees: &price}, nil
	})
}
