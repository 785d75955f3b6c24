// Package grace tracks the windows after a billable action during which the
// action can be undone with the charge refunded.
//
// Invariants:
//   - ADD, RENEW, AUTO_RENEW, TRANSFER and SUNRUSH_ADD periods reference
//     exactly one billing event; REDEMPTION references none.
//   - REDEMPTION and SUNRUSH_ADD appear at most once per domain.
package grace

import (
	"time"

	billing "domainreg/internal/billing/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/timeutil"
)

// Type is the kind of grace window.
type Type string

const (
	Add        Type = "ADD"
	Renew      Type = "RENEW"
	AutoRenew  Type = "AUTO_RENEW"
	Transfer   Type = "TRANSFER"
	Redemption Type = "REDEMPTION"
	SunrushAdd Type = "SUNRUSH_ADD"
)

// Billable reports whether periods of this type carry a billing reference.
func (t Type) Billable() bool {
	return t != Redemption
}

// CancellationReason is the billing reason credited when the period is cancelled.
func (t Type) CancellationReason() billing.Reason {
	switch t {
	case Add, SunrushAdd:
		return billing.ReasonCreate
	case Renew, AutoRenew:
		return billing.ReasonRenew
	case Transfer:
		return billing.ReasonTransfer
	default:
		return ""
	}
}

// Policy supplies per-TLD window lengths.
type Policy interface {
	GraceLength(t Type) time.Duration
}

// Period is one grace window. Billing is nil for non-cancellable periods.
type Period struct {
	Type           Type
	ExpirationTime time.Time
	ClientID       id.ClientID
	Billing        *billing.EventRef
}

// ForOneTime ties a period to a one-time charge.
func ForOneTime(t Type, expiration time.Time, clientID id.ClientID, charge billing.OneTime) Period {
	ref := charge.Ref()
	return Period{Type: t, ExpirationTime: expiration, ClientID: clientID, Billing: &ref}
}

// ForRecurring ties a period to an auto-renew recurrence.
func ForRecurring(t Type, expiration time.Time, clientID id.ClientID, recurring id.BillingEventID) Period {
	ref := billing.EventRef{Kind: billing.KindRecurring, ID: recurring}
	return Period{Type: t, ExpirationTime: expiration, ClientID: clientID, Billing: &ref}
}

// WithoutBilling creates a non-cancellable period.
func WithoutBilling(t Type, expiration time.Time, clientID id.ClientID) Period {
	return Period{Type: t, ExpirationTime: expiration, ClientID: clientID}
}

// New starts a period of type t at now, with the policy's length for t.
func New(t Type, now time.Time, policy Policy, clientID id.ClientID, ref *billing.EventRef) Period {
	return Period{Type: t, ExpirationTime: now.Add(policy.GraceLength(t)), ClientID: clientID, Billing: ref}
}

// SunrushConversionExpiration is when the ADD grace created by converting a
// sunrush registration ends: the normal add window from now, but never past
// the original sunrush window.
func SunrushConversionExpiration(now time.Time, sunrush Period, policy Policy) time.Time {
	return timeutil.EarliestOf(now.Add(policy.GraceLength(Add)), sunrush.ExpirationTime)
}

// IsActiveAt reports whether the window is still open at t.
func (p Period) IsActiveAt(t time.Time) bool {
	return p.ExpirationTime.After(t)
}

// Validate checks the billing reference invariant.
func (p Period) Validate() error {
	switch {
	case p.Type.Billable() && p.Billing == nil:
		return &Failure{Kind: FailMissingBillingRef, Type: p.Type, ClientID: p.ClientID}
	case !p.Type.Billable() && p.Billing != nil:
		return &Failure{Kind: FailUnexpectedBillingRef, Type: p.Type, ClientID: p.ClientID}
	}
	return nil
}

// Cancel builds the Cancellation that refunds the period's charge. It is
// credited at the instant the charge would have posted. ok is false for
// periods without a billing reference.
func Cancel(p Period, now time.Time, repoID id.RepoID, target id.DomainName, history id.HistoryEntryID) (c billing.Cancellation, ok bool, err error) {
	if err := p.Validate(); err != nil {
		return billing.Cancellation{}, false, err
	}
	if p.Billing == nil {
		return billing.Cancellation{}, false, nil
	}
	return billing.Cancellation{
		Common: billing.Common{
			ID:            id.NewBillingEventID(),
			RepoID:        repoID,
			ClientID:      p.ClientID,
			TargetID:      target,
			Reason:        p.Type.CancellationReason(),
			EventTime:     now,
			ParentHistory: history,
		},
		BillingTime: p.ExpirationTime,
		Target:      *p.Billing,
	}, true, nil
}
