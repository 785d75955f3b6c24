// Package models is the domain resource aggregate and its state machine.
//
// A Domain as stored may lag behind the clock: transfers that were approved by
// the passage of time and auto-renewals that have come due are not written
// back until the next mutation. Every reader must call ProjectAt before
// acting on a Domain.
//
// Invariants:
//   - pendingTransfer and pendingDelete never coexist.
//   - TransferData is PENDING exactly when pendingTransfer is set, and only
//     then does it carry a PendingTransferBundle.
//   - inactive is set exactly when the domain has no nameservers.
package models

import (
	"slices"
	"time"

	"domainreg/internal/grace"
	id "domainreg/pkg/domain"
	"domainreg/pkg/timeutil"
)

// State is the coarse lifecycle state derived from statuses and times.
type State string

const (
	StateActive                  State = "ACTIVE"
	StatePendingTransfer         State = "PENDING_TRANSFER"
	StatePendingDeleteRedemption State = "PENDING_DELETE_REDEMPTION"
	StatePendingDelete           State = "PENDING_DELETE"
	StateDeleted                 State = "DELETED"
)

// Domain is the aggregate root for one registration.
type Domain struct {
	RepoID id.RepoID
	Name   id.DomainName

	CreationClientID       id.ClientID
	CurrentSponsorClientID id.ClientID
	LastEppUpdateClientID  id.ClientID

	CreationTime               time.Time
	LastEppUpdateTime          time.Time
	LastTransferTime           time.Time
	RegistrationExpirationTime time.Time

	Statuses         StatusSet
	Nameservers      []string
	SubordinateHosts []string
	GracePeriods     grace.Set
	TransferData     TransferData

	// AutorenewBillingEvent is the single active Recurring for the sponsor.
	AutorenewBillingEvent id.BillingEventID
	// AutorenewPollMessage is the matching Autorenew poll message. It may have
	// been deleted once all its events were acknowledged.
	AutorenewPollMessage id.PollMessageID

	// DeletionTime is EndOfTime unless a delete has been requested.
	DeletionTime      time.Time
	DeletePollMessage *id.PollMessageID
}

// TLD returns the domain's top-level domain.
func (d Domain) TLD() string {
	return d.Name.TLD()
}

// IsDeletedAt reports whether the domain no longer exists at t.
func (d Domain) IsDeletedAt(t time.Time) bool {
	return !d.DeletionTime.After(t)
}

// State reports the lifecycle state at t. Call it on a projected domain.
func (d Domain) State(t time.Time) State {
	switch {
	case d.IsDeletedAt(t):
		return StateDeleted
	case d.Statuses.Has(PendingDelete) && d.GracePeriods.Has(grace.Redemption):
		return StatePendingDeleteRedemption
	case d.Statuses.Has(PendingDelete):
		return StatePendingDelete
	case d.Statuses.Has(PendingTransfer):
		return StatePendingTransfer
	default:
		return StateActive
	}
}

// CheckAllowed fails when the domain carries any of the disallowed statuses.
func (d Domain) CheckAllowed(disallowed ...StatusValue) error {
	if hit := d.Statuses.Intersect(disallowed...); len(hit) > 0 {
		return &Failure{Kind: FailStatusProhibits, Domain: d.Name, Statuses: hit}
	}
	return nil
}

// WithNameservers replaces the nameserver list and keeps inactive in sync.
func (d Domain) WithNameservers(hosts []string) Domain {
	d.Nameservers = slices.Clone(hosts)
	slices.Sort(d.Nameservers)
	d.Nameservers = slices.Compact(d.Nameservers)
	if len(d.Nameservers) == 0 {
		d.Statuses = d.Statuses.With(Inactive)
	} else {
		d.Statuses = d.Statuses.Without(Inactive)
	}
	return d
}

// Touched records an EPP mutation by clientID at now.
func (d Domain) Touched(clientID id.ClientID, now time.Time) Domain {
	d.LastEppUpdateClientID = clientID
	d.LastEppUpdateTime = now
	return d
}

// Validate checks the aggregate invariants. A failure here is a programming
// error and aborts the transaction.
func (d Domain) Validate() error {
	if d.Statuses.Has(PendingTransfer) && d.Statuses.Has(PendingDelete) {
		return &Failure{Kind: FailInvariant, Domain: d.Name, Detail: "pendingTransfer and pendingDelete both set"}
	}
	if d.Statuses.Has(PendingTransfer) != d.TransferData.IsPending() {
		return &Failure{Kind: FailInvariant, Domain: d.Name, Detail: "pendingTransfer status disagrees with transfer data"}
	}
	if d.TransferData.IsPending() == d.TransferData.Bundle.IsEmpty() {
		return &Failure{Kind: FailInvariant, Domain: d.Name, Detail: "pending transfer bundle does not match transfer status"}
	}
	if (len(d.Nameservers) == 0) != d.Statuses.Has(Inactive) {
		return &Failure{Kind: FailInvariant, Domain: d.Name, Detail: "inactive status disagrees with nameservers"}
	}
	if d.AutorenewBillingEvent.IsNil() {
		return &Failure{Kind: FailInvariant, Domain: d.Name, Detail: "missing autorenew billing event"}
	}
	return d.GracePeriods.Validate()
}

// NotDeleted is the DeletionTime of a live domain.
func NotDeleted() time.Time { return timeutil.EndOfTime }
