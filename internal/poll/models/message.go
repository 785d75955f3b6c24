// Package models holds poll messages: per-registrar notifications that become
// deliverable at EventTime and stay queued until acknowledged.
package models

import (
	"time"

	id "domainreg/pkg/domain"
	"domainreg/pkg/timeutil"
)

// Kind tags the message variant.
type Kind string

const (
	KindOneTime   Kind = "ONE_TIME"
	KindAutorenew Kind = "AUTORENEW"
)

// Standard message texts.
const (
	MsgAutorenew         = "Domain was auto-renewed."
	MsgDeleted           = "Domain deleted."
	MsgTransferRequested = "Transfer requested."
	MsgTransferApproved  = "Transfer approved."
	MsgTransferRejected  = "Transfer rejected."
	MsgTransferCancelled = "Transfer cancelled."
)

// Message is a OneTime or Autorenew notification addressed to one registrar.
//
// An Autorenew message recurs yearly from EventTime until AutorenewEndTime.
// Acknowledging it advances EventTime by a year rather than removing it.
type Message struct {
	ID            id.PollMessageID
	Kind          Kind
	ClientID      id.ClientID
	EventTime     time.Time
	Msg           string
	RepoID        id.RepoID
	TargetID      id.DomainName
	ParentHistory id.HistoryEntryID

	// AutorenewEndTime is set for Autorenew messages only.
	AutorenewEndTime time.Time

	// Response payloads, OneTime messages only.
	Transfer      *TransferResponse
	PendingAction *PendingActionNotification
}

// NewOneTime builds a OneTime message.
func NewOneTime(clientID id.ClientID, eventTime time.Time, msg string, repoID id.RepoID, target id.DomainName, history id.HistoryEntryID) Message {
	return Message{
		ID:            id.NewPollMessageID(),
		Kind:          KindOneTime,
		ClientID:      clientID,
		EventTime:     eventTime,
		Msg:           msg,
		RepoID:        repoID,
		TargetID:      target,
		ParentHistory: history,
	}
}

// NewAutorenew builds the open-ended auto-renew notification for a sponsor.
func NewAutorenew(clientID id.ClientID, eventTime time.Time, repoID id.RepoID, target id.DomainName, history id.HistoryEntryID) Message {
	return Message{
		ID:               id.NewPollMessageID(),
		Kind:             KindAutorenew,
		ClientID:         clientID,
		EventTime:        eventTime,
		Msg:              MsgAutorenew,
		RepoID:           repoID,
		TargetID:         target,
		ParentHistory:    history,
		AutorenewEndTime: timeutil.EndOfTime,
	}
}

// WithTransfer attaches a transfer response payload.
func (m Message) WithTransfer(r TransferResponse) Message {
	m.Transfer = &r
	return m
}

// WithPendingAction attaches a pending-action payload.
func (m Message) WithPendingAction(p PendingActionNotification) Message {
	m.PendingAction = &p
	return m
}

// IsDeliverableAt reports whether the message may be delivered at t.
func (m Message) IsDeliverableAt(t time.Time) bool {
	return !m.EventTime.After(t)
}

// HasRemainingEvents reports whether an Autorenew message still has an
// occurrence before its end time.
func (m Message) HasRemainingEvents() bool {
	if m.Kind != KindAutorenew {
		return true
	}
	return m.EventTime.Before(m.AutorenewEndTime)
}

// EndAutorenewAt caps the recurrence. keep is false when no occurrence would
// remain, in which case the message should be deleted.
func (m Message) EndAutorenewAt(end time.Time) (out Message, keep bool) {
	m.AutorenewEndTime = end
	return m, m.HasRemainingEvents()
}

// Ack processes an acknowledgement. A OneTime message is consumed. An
// Autorenew message advances one year and is consumed only when the next
// occurrence would reach its end time.
func (m Message) Ack() (next Message, keep bool) {
	if m.Kind != KindAutorenew {
		return Message{}, false
	}
	m.EventTime = timeutil.AddYears(m.EventTime, 1)
	if !m.EventTime.Before(m.AutorenewEndTime) {
		return Message{}, false
	}
	return m, true
}
