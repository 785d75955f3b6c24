package models

import (
	"time"

	billing "domainreg/internal/billing/models"
	"domainreg/internal/grace"
	"domainreg/pkg/timeutil"
)

// ProjectAt returns the domain as it effectively is at t, applying the changes
// that happen by the passage of time alone:
//
//  1. a pending transfer whose automatic approval instant has passed is
//     approved, promoting the speculative bundle into the live fields;
//  2. a registration whose expiration has passed is auto-renewed and gains an
//     AUTO_RENEW grace period;
//  3. grace periods that have ended are dropped.
//
// It is pure: nothing is written, and projecting an already projected domain
// at the same instant is a no-op.
func ProjectAt(d Domain, t time.Time, policy grace.Policy) Domain {
	if td := d.TransferData; td.IsPending() && !td.PendingTransferExpirationTime.After(t) {
		return ProjectAt(applyAutomaticTransfer(d, policy), t, policy)
	}

	next := d
	if !next.Statuses.Has(PendingDelete) && !next.RegistrationExpirationTime.After(t) {
		exp := next.RegistrationExpirationTime
		lastAutorenew := timeutil.AddYears(exp, timeutil.YearsBetween(exp, t))
		next.RegistrationExpirationTime = timeutil.AddYears(lastAutorenew, 1)
		next.GracePeriods = next.GracePeriods.With(grace.ForRecurring(
			grace.AutoRenew,
			lastAutorenew.Add(policy.GraceLength(grace.AutoRenew)),
			next.CurrentSponsorClientID,
			next.AutorenewBillingEvent,
		))
	}
	next.GracePeriods = next.GracePeriods.Unexpired(t)
	return next
}

// applyAutomaticTransfer performs the server approval at the transfer's
// expiration instant. The registration is first projected to just before that
// instant so an auto-renew falling due then is subsumed, not added on top.
func applyAutomaticTransfer(d Domain, policy grace.Policy) Domain {
	td := d.TransferData
	at := td.PendingTransferExpirationTime
	before := ProjectAt(d, at.Add(-time.Millisecond), policy)

	extraYears := td.TransferPeriodYears
	if before.GracePeriods.Has(grace.AutoRenew) {
		extraYears = 0
	}

	next := before
	next.RegistrationExpirationTime = ExtendRegistrationWithCap(at, before.RegistrationExpirationTime, extraYears)
	next.AutorenewBillingEvent = td.Bundle.GainingRecurring
	next.AutorenewPollMessage = td.Bundle.GainingAutorenewPoll
	next.GracePeriods = nil
	if td.TransferPeriodYears > 0 && td.Bundle.TransferBillingEvent != nil {
		ref := billing.EventRef{Kind: billing.KindOneTime, ID: *td.Bundle.TransferBillingEvent}
		next.GracePeriods = grace.Set{{
			Type:           grace.Transfer,
			ExpirationTime: at.Add(policy.GraceLength(grace.Transfer)),
			ClientID:       td.GainingClientID,
			Billing:        &ref,
		}}
	}
	next.Statuses = before.Statuses.Without(PendingTransfer)
	next.TransferData = td.Resolved(TransferServerApproved, at)
	next.LastTransferTime = at
	next.CurrentSponsorClientID = td.GainingClientID
	next.LastEppUpdateTime = at
	next.LastEppUpdateClientID = td.GainingClientID
	return next
}
