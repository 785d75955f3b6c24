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

var renewDisallowedStatuses = []domain.StatusValue{
	domain.ClientRenewProhibited,
	domain.PendingDelete,
	domain.PendingTransfer,
	domain.ServerRenewProhibited,
}

// Renew extends a registration by the requested number of years.
func (s *Service) Renew(ctx context.Context, actor flows.Actor, cmd flows.RenewCommand) (flows.Result, error) {
	return s.mutate(ctx, "renew", cmd.Name, dns.ReasonRenew, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		snap, reg, err := s.load(ctx, tx, cmd.Name, now)
		if err != nil {
			return outcome{}, err
		}
		d := snap.Domain
		if err := d.CheckAllowed(renewDisallowedStatuses...); err != nil {
			return outcome{}, err
		}
		if err := s.authorizeSponsor(ctx, actor, d); err != nil {
			return outcome{}, err
		}
		if !sameDate(cmd.CurrentExpirationDate, d.RegistrationExpirationTime) {
			return outcome{}, &Failure{Kind: FailCurrentExpirationMismatch, Domain: d.Name, Expected: d.RegistrationExpirationTime}
		}
		if err := verifyPeriod(d.Name, cmd.PeriodYears); err != nil {
			return outcome{}, err
		}
		newExpiration := timeutil.AddYears(d.RegistrationExpirationTime, cmd.PeriodYears)
		if domain.ExceedsMaxRegistration(now, newExpiration) {
			return outcome{}, &Failure{Kind: FailExceedsMaxRegistrationYears, Domain: d.Name, Years: cmd.PeriodYears}
		}
		price, err := s.pricer.RenewPrice(ctx, reg, d.Name, now, cmd.PeriodYears)
		if err != nil {
			return outcome{}, err
		}
		if err := pricing.ValidateFeeChallenge(d.Name, cmd.Fee, price); err != nil {
			return outcome{}, err
		}

		entry := history.NewEntry(history.TypeDomainRenew, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
		entry.PeriodYears = cmd.PeriodYears
		entry = entry.WithRecords(history.TransactionRecord{
			TLD:           d.TLD(),
			ReportingTime: now.Add(reg.Durations.RenewGrace),
			Field:         history.NetRenewsField(cmd.PeriodYears),
			Amount:        1,
		})
		m := flows.New(d, entry)
		m.RefreshDNS = true

		sponsor := d.CurrentSponsorClientID
		graceEnd := now.Add(reg.Durations.RenewGrace)
		charge := m.NewOneTime(sponsor, billing.ReasonRenew, now, graceEnd, cmd.PeriodYears, price.TotalCost())
		if err := m.UpdateAutorenewEnd(snap, now); err != nil {
			return outcome{}, err
		}

		next := d
		next.AutorenewBillingEvent, next.AutorenewPollMessage = m.NewAutorenew(sponsor, newExpiration)
		next.RegistrationExpirationTime = newExpiration
		next.GracePeriods = next.GracePeriods.With(grace.ForOneTime(grace.Renew, graceEnd, sponsor, charge))
		m.Domain = next.Touched(actor.ClientID, now)
		return outcome{mutation: m, fees: &price}, nil
	})
}

// sameDate compares the calendar dates of two instants in UTC.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
