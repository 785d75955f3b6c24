package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	billing "domainreg/internal/billing/models"
	dns "domainreg/internal/dns/models"
	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	"domainreg/internal/grace"
	history "domainreg/internal/history/models"
	"domainreg/internal/pricing"
	"domainreg/internal/tld"
	id "domainreg/pkg/domain"
	"domainreg/pkg/platform/sentinel"
	"domainreg/pkg/timeutil"
)

// Create registers a name that does not currently exist.
func (s *Service) Create(ctx context.Context, actor flows.Actor, cmd flows.CreateCommand) (flows.Result, error) {
	return s.mutate(ctx, "create", cmd.Name, dns.ReasonCreate, actor, func(ctx context.Context, tx flows.Tx, now time.Time) (outcome, error) {
		reg, err := s.registries.Get(ctx, cmd.Name.TLD())
		if err != nil {
			return outcome{}, err
		}
		existing, err := tx.Domain(ctx, cmd.Name)
		switch {
		case err == nil && !existing.IsDeletedAt(now):
			return outcome{}, &Failure{Kind: FailDomainAlreadyExists, Domain: cmd.Name, ClientID: actor.ClientID}
		case err != nil && !errors.Is(err, sentinel.ErrNotFound):
			return outcome{}, fmt.Errorf("load domain: %w", err)
		}

		if actor.Superuser {
			_, err = s.auth.VerifyActive(ctx, actor.ClientID)
		} else {
			err = s.auth.VerifyTLDAccess(ctx, actor.ClientID, cmd.Name.TLD())
		}
		if err != nil {
			return outcome{}, err
		}
		if err := verifyPeriod(cmd.Name, cmd.PeriodYears); err != nil {
			return outcome{}, err
		}
		price, err := s.pricer.CreatePrice(ctx, reg, cmd.Name, now, cmd.PeriodYears)
		if err != nil {
			return outcome{}, err
		}
		if err := s.verifyPremium(ctx, actor, cmd.Name, price); err != nil {
			return outcome{}, err
		}
		if err := pricing.ValidateFeeChallenge(cmd.Name, cmd.Fee, price); err != nil {
			return outcome{}, err
		}

		expiration := timeutil.AddYears(now, cmd.PeriodYears)
		d := domain.Domain{
			RepoID:                     id.NewRepoID(),
			Name:                       cmd.Name,
			CreationClientID:           actor.ClientID,
			CurrentSponsorClientID:     actor.ClientID,
			CreationTime:               now,
			RegistrationExpirationTime: expiration,
			DeletionTime:               domain.NotDeleted(),
			TransferData:               domain.TransferData{Status: domain.TransferNone},
		}
		d = d.WithNameservers(cmd.Nameservers).Touched(actor.ClientID, now)

		entry := history.NewEntry(history.TypeDomainCreate, now, d.RepoID, d.Name, actor.ClientID, actor.Superuser)
		entry.PeriodYears = cmd.PeriodYears
		entry = entry.WithRecords(history.TransactionRecord{
			TLD:           d.TLD(),
			ReportingTime: now.Add(reg.Durations.AddGrace),
			Field:         history.NetAddsField(cmd.PeriodYears),
			Amount:        1,
		})
		m := flows.New(d, entry)
		m.RefreshDNS = true

		graceType := createGraceType(reg, d)
		graceEnd := now.Add(reg.GraceLength(graceType))
		charge := m.NewOneTime(actor.ClientID, billing.ReasonCreate, now, graceEnd, cmd.PeriodYears, price.TotalCost())
		d.AutorenewBillingEvent, d.AutorenewPollMessage = m.NewAutorenew(actor.ClientID, expiration)
		d.GracePeriods = grace.Set{grace.ForOneTime(graceType, graceEnd, actor.ClientID, charge)}
		m.Domain = d

		return outcome{mutation: m, fees: &price}, nil
	})
}

// createGraceType is SUNRUSH_ADD for a sunrush registration that cannot be
// published yet, and ADD otherwise.
func createGraceType(reg tld.Registry, d domain.Domain) grace.Type {
	if reg.Phase == tld.PhaseSunrush && len(d.Nameservers) == 0 {
		return grace.SunrushAdd
	}
	return grace.Add
}
