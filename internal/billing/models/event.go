// Package models holds the billing ledger: one-time charges, open-ended
// recurring auto-renew charges, and cancellations that void either.
//
// Events are never edited to change what was charged. A charge is voided by
// appending a Cancellation whose BillingTime equals the instant the original
// charge would have posted, so the two offset exactly.
package models

import (
	"slices"
	"time"

	id "domainreg/pkg/domain"
	"domainreg/pkg/money"
	"domainreg/pkg/timeutil"
)

// Reason is why a registrar is charged.
type Reason string

const (
	ReasonCreate       Reason = "CREATE"
	ReasonRenew        Reason = "RENEW"
	ReasonRestore      Reason = "RESTORE"
	ReasonTransfer     Reason = "TRANSFER"
	ReasonServerStatus Reason = "SERVER_STATUS"
)

// Flag qualifies a billing event.
type Flag string

const (
	FlagAutoRenew    Flag = "AUTO_RENEW"
	FlagAnchorTenant Flag = "ANCHOR_TENANT"
	FlagSunrise      Flag = "SUNRISE"
	FlagLandrush     Flag = "LANDRUSH"
	FlagSynthetic    Flag = "SYNTHETIC"
)

// Kind tags the billing event variant.
type Kind string

const (
	KindOneTime      Kind = "ONE_TIME"
	KindRecurring    Kind = "RECURRING"
	KindCancellation Kind = "CANCELLATION"
)

// EventRef is a typed handle to a billing event of a known variant.
type EventRef struct {
	Kind Kind
	ID   id.BillingEventID
}

// Common holds the fields shared by every variant.
type Common struct {
	ID            id.BillingEventID
	RepoID        id.RepoID
	ClientID      id.ClientID
	TargetID      id.DomainName
	Reason        Reason
	Flags         []Flag
	EventTime     time.Time
	ParentHistory id.HistoryEntryID
}

// HasFlag reports whether f is set.
func (c Common) HasFlag(f Flag) bool {
	return slices.Contains(c.Flags, f)
}

// OneTime is a single charge. It becomes un-cancellable at BillingTime.
type OneTime struct {
	Common
	BillingTime time.Time
	PeriodYears int
	Cost        money.Money
}

func (o OneTime) Ref() EventRef { return EventRef{Kind: KindOneTime, ID: o.ID} }

// Recurring is the open-ended auto-renew charge for the current sponsor.
// It produces one occurrence per year starting at EventTime, strictly before
// RecurrenceEndTime.
type Recurring struct {
	Common
	RecurrenceEndTime time.Time
}

func (r Recurring) Ref() EventRef { return EventRef{Kind: KindRecurring, ID: r.ID} }

// IsOpen reports whether the recurrence runs forever.
func (r Recurring) IsOpen() bool {
	return timeutil.IsEndOfTime(r.RecurrenceEndTime)
}

// CloseAt ends the recurrence at t. An end time may only move earlier;
// pushing it later must go through Reopen.
func (r Recurring) CloseAt(t time.Time) (Recurring, error) {
	if t.After(r.RecurrenceEndTime) {
		return Recurring{}, &Failure{
			Kind:      FailRecurrenceExtended,
			Event:     r.ID,
			Current:   r.RecurrenceEndTime,
			Requested: t,
		}
	}
	r.RecurrenceEndTime = t
	return r, nil
}

// Reopen restores a closed recurrence to run forever.
func (r Recurring) Reopen() Recurring {
	r.RecurrenceEndTime = timeutil.EndOfTime
	return r
}

// Occurrence is one yearly instance of a Recurring.
type Occurrence struct {
	EventTime   time.Time
	BillingTime time.Time
}

// Occurrences lists the instances with EventTime at or before asOf. Each one
// bills at the end of its auto-renew grace window.
func (r Recurring) Occurrences(asOf time.Time, autoRenewGrace time.Duration) []Occurrence {
	var out []Occurrence
	end := timeutil.EarliestOf(r.RecurrenceEndTime, asOf.Add(time.Nanosecond))
	for year := 0; ; year++ {
		at := timeutil.AddYears(r.EventTime, year)
		if !at.Before(end) {
			return out
		}
		out = append(out, Occurrence{EventTime: at, BillingTime: at.Add(autoRenewGrace)})
	}
}

// Cancellation voids exactly one OneTime or one Recurring occurrence.
type Cancellation struct {
	Common
	BillingTime time.Time
	Target      EventRef
}

func (c Cancellation) Ref() EventRef { return EventRef{Kind: KindCancellation, ID: c.ID} }

// Cancels reports whether c voids the given one-time charge.
func (c Cancellation) Cancels(o OneTime) bool {
	return c.Target == o.Ref()
}

// CancelsOccurrence reports whether c voids the given recurring occurrence.
// A recurring cancellation is matched on the occurrence's billing instant.
func (c Cancellation) CancelsOccurrence(r Recurring, occ Occurrence) bool {
	return c.Target == r.Ref() && c.BillingTime.Equal(occ.BillingTime)
}
