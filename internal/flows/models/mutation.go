// Package models holds the object graph a domain command reads and the change
// set it produces. A command never writes directly: it returns a Mutation that
// the store applies atomically.
package models

import (
	"time"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	id "domainreg/pkg/domain"
	"domainreg/pkg/money"
	"domainreg/pkg/timeutil"
)

// Actor is the registrar issuing a command.
type Actor struct {
	ClientID  id.ClientID
	Superuser bool
}

// Snapshot is the live object graph loaded under the domain lock.
type Snapshot struct {
	// Domain is projected to the transaction instant.
	Domain domain.Domain
	// Recurring is the domain's current autorenew charge.
	Recurring billing.Recurring
	// AutorenewPoll is nil once all of its events were acknowledged.
	AutorenewPoll *poll.Message
	// History holds recent entries for transaction-record cancellation.
	History []history.Entry
}

// Mutation is every write a command makes. Recurrings and PollMessages are
// upserts; everything else listed is created or deleted.
type Mutation struct {
	Domain        domain.Domain
	History       history.Entry
	OneTimes      []billing.OneTime
	Recurrings    []billing.Recurring
	Cancellations []billing.Cancellation
	PollMessages  []poll.Message

	DeleteBilling []billing.EventRef
	DeletePolls   []id.PollMessageID

	// RefreshDNS asks for the zone entry to be republished.
	RefreshDNS bool
}

// New starts a mutation for the given domain and history entry.
func New(d domain.Domain, entry history.Entry) Mutation {
	return Mutation{Domain: d, History: entry}
}

// DeleteBundle removes the speculative entities of a pending transfer.
func (m *Mutation) DeleteBundle(b domain.PendingTransferBundle) {
	m.DeleteBilling = append(m.DeleteBilling, b.BillingRefs()...)
	m.DeletePolls = append(m.DeletePolls, b.PollMessages()...)
}

// UpdateAutorenewEnd moves the end of the current sponsor's autorenew charge
// and notification to end. Moving it to EndOfTime reopens both, recreating
// the poll message under its old id if it had been consumed. A poll message
// left with no remaining events is deleted.
func (m *Mutation) UpdateAutorenewEnd(snap Snapshot, end time.Time) error {
	recurring := snap.Recurring
	if timeutil.IsEndOfTime(end) {
		recurring = recurring.Reopen()
	} else {
		closed, err := recurring.CloseAt(end)
		if err != nil {
			return err
		}
		recurring = closed
	}
	m.Recurrings = append(m.Recurrings, recurring)

	d := snap.Domain
	msg := snap.AutorenewPoll
	if msg == nil {
		if !timeutil.IsEndOfTime(end) {
			return nil
		}
		recreated := poll.NewAutorenew(d.CurrentSponsorClientID, d.RegistrationExpirationTime, d.RepoID, d.Name, m.History.ID)
		recreated.ID = d.AutorenewPollMessage
		msg = &recreated
	}
	updated, keep := msg.EndAutorenewAt(end)
	switch {
	case keep:
		m.PollMessages = append(m.PollMessages, updated)
	case snap.AutorenewPoll != nil:
		m.DeletePolls = append(m.DeletePolls, updated.ID)
	}
	return nil
}

// NewAutorenew creates the recurring charge and notification for a sponsor
// starting at expiration and returns their ids.
func (m *Mutation) NewAutorenew(clientID id.ClientID, expiration time.Time) (id.BillingEventID, id.PollMessageID) {
	d := m.Domain
	recurring := billing.Recurring{
		Common: billing.Common{
			ID:            id.NewBillingEventID(),
			RepoID:        d.RepoID,
			ClientID:      clientID,
			TargetID:      d.Name,
			Reason:        billing.ReasonRenew,
			Flags:         []billing.Flag{billing.FlagAutoRenew},
			EventTime:     expiration,
			ParentHistory: m.History.ID,
		},
		RecurrenceEndTime: timeutil.EndOfTime,
	}
	msg := poll.NewAutorenew(clientID, expiration, d.RepoID, d.Name, m.History.ID)
	m.Recurrings = append(m.Recurrings, recurring)
	m.PollMessages = append(m.PollMessages, msg)
	return recurring.ID, msg.ID
}

// NewOneTime appends a one-time charge owned by the mutation's history entry.
func (m *Mutation) NewOneTime(clientID id.ClientID, reason billing.Reason, eventTime, billingTime time.Time, years int, cost money.Money) billing.OneTime {
	charge := billing.OneTime{
		Common: billing.Common{
			ID:            id.NewBillingEventID(),
			RepoID:        m.Domain.RepoID,
			ClientID:      clientID,
			TargetID:      m.Domain.Name,
			Reason:        reason,
			EventTime:     eventTime,
			ParentHistory: m.History.ID,
		},
		BillingTime: billingTime,
		PeriodYears: years,
		Cost:        cost,
	}
	m.OneTimes = append(m.OneTimes, charge)
	return charge
}
