package models

import (
	"sort"
	"time"

	id "domainreg/pkg/domain"
	"domainreg/pkg/money"
)

// Charge is a billable line derived from the ledger after cancellations.
type Charge struct {
	Source      EventRef
	ClientID    id.ClientID
	Reason      Reason
	EventTime   time.Time
	BillingTime time.Time
	Cost        money.Money
	Synthetic   bool
}

// RecurringPrice prices one auto-renew occurrence.
type RecurringPrice func(r Recurring, eventTime time.Time) money.Money

// Ledger is the billing history of one domain.
type Ledger struct {
	OneTimes      []OneTime
	Recurrings    []Recurring
	Cancellations []Cancellation
}

// Validate checks that every cancellation points at an event in the ledger.
func (l Ledger) Validate() error {
	known := make(map[EventRef]bool, len(l.OneTimes)+len(l.Recurrings))
	for _, o := range l.OneTimes {
		known[o.Ref()] = true
	}
	for _, r := range l.Recurrings {
		known[r.Ref()] = true
	}
	for _, c := range l.Cancellations {
		if !known[c.Target] {
			return &Failure{Kind: FailCancellationTargetMismatch, Event: c.ID}
		}
	}
	return nil
}

// IsCancelled reports whether a cancellation voids o.
func (l Ledger) IsCancelled(o OneTime) bool {
	for _, c := range l.Cancellations {
		if c.Cancels(o) {
			return true
		}
	}
	return false
}

// ActiveOneTimes returns the one-time charges that have not been cancelled.
func (l Ledger) ActiveOneTimes() []OneTime {
	var out []OneTime
	for _, o := range l.OneTimes {
		if !l.IsCancelled(o) {
			out = append(out, o)
		}
	}
	return out
}

// Charges expands recurrings up to asOf and drops everything cancelled.
// The result is ordered by billing time.
func (l Ledger) Charges(asOf time.Time, autoRenewGrace time.Duration, price RecurringPrice) []Charge {
	var out []Charge
	for _, o := range l.ActiveOneTimes() {
		out = append(out, Charge{
			Source:      o.Ref(),
			ClientID:    o.ClientID,
			Reason:      o.Reason,
			EventTime:   o.EventTime,
			BillingTime: o.BillingTime,
			Cost:        o.Cost,
		})
	}
	for _, r := range l.Recurrings {
		for _, occ := range r.Occurrences(asOf, autoRenewGrace) {
			if l.occurrenceCancelled(r, occ) {
				continue
			}
			out = append(out, Charge{
				Source:      r.Ref(),
				ClientID:    r.ClientID,
				Reason:      r.Reason,
				EventTime:   occ.EventTime,
				BillingTime: occ.BillingTime,
				Cost:        price(r, occ.EventTime),
				Synthetic:   true,
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].BillingTime.Before(out[j].BillingTime) })
	return out
}

func (l Ledger) occurrenceCancelled(r Recurring, occ Occurrence) bool {
	for _, c := range l.Cancellations {
		if c.CancelsOccurrence(r, occ) {
			return true
		}
	}
	return false
}

// Total sums charge costs in a single currency.
func Total(currency money.Currency, charges []Charge) (money.Money, error) {
	sum := money.Zero(currency)
	for _, c := range charges {
		var err error
		if sum, err = sum.Plus(c.Cost); err != nil {
			return money.Money{}, err
		}
	}
	return sum, nil
}
