package models

import (
	"time"

	billing "domainreg/internal/billing/models"
	id "domainreg/pkg/domain"
)

// TransferStatus is the state of the most recent transfer.
type TransferStatus string

const (
	TransferNone            TransferStatus = "NONE"
	TransferPending         TransferStatus = "PENDING"
	TransferClientApproved  TransferStatus = "CLIENT_APPROVED"
	TransferClientRejected  TransferStatus = "CLIENT_REJECTED"
	TransferClientCancelled TransferStatus = "CLIENT_CANCELLED"
	TransferServerApproved  TransferStatus = "SERVER_APPROVED"
	TransferServerCancelled TransferStatus = "SERVER_CANCELLED"
)

// IsApproved reports whether the transfer completed.
func (s TransferStatus) IsApproved() bool {
	return s == TransferClientApproved || s == TransferServerApproved
}

// PendingTransferBundle holds typed handles to the speculative entities that
// take effect if the transfer is approved automatically. It is populated only
// while the transfer is PENDING.
type PendingTransferBundle struct {
	// TransferBillingEvent is absent for zero-year transfers.
	TransferBillingEvent *id.BillingEventID
	GainingRecurring     id.BillingEventID
	GainingAutorenewPoll id.PollMessageID
	GainingTransferPoll  id.PollMessageID
	LosingTransferPoll   id.PollMessageID
	// AutorenewCancellation is present when the transfer subsumes an auto-renew.
	AutorenewCancellation *id.BillingEventID
}

// IsEmpty reports whether the bundle holds no handles.
func (b PendingTransferBundle) IsEmpty() bool {
	return b.GainingRecurring.IsNil()
}

// BillingRefs lists the speculative billing events.
func (b PendingTransferBundle) BillingRefs() []billing.EventRef {
	if b.IsEmpty() {
		return nil
	}
	refs := []billing.EventRef{{Kind: billing.KindRecurring, ID: b.GainingRecurring}}
	if b.TransferBillingEvent != nil {
		refs = append(refs, billing.EventRef{Kind: billing.KindOneTime, ID: *b.TransferBillingEvent})
	}
	if b.AutorenewCancellation != nil {
		refs = append(refs, billing.EventRef{Kind: billing.KindCancellation, ID: *b.AutorenewCancellation})
	}
	return refs
}

// PollMessages lists the speculative poll messages.
func (b PendingTransferBundle) PollMessages() []id.PollMessageID {
	if b.IsEmpty() {
		return nil
	}
	return []id.PollMessageID{b.GainingAutorenewPoll, b.GainingTransferPoll, b.LosingTransferPoll}
}

// TransferData records the current or most recent transfer.
type TransferData struct {
	Status                        TransferStatus
	GainingClientID               id.ClientID
	LosingClientID                id.ClientID
	TransferRequestTime           time.Time
	PendingTransferExpirationTime time.Time
	TransferPeriodYears           int
	Bundle                        PendingTransferBundle
}

// IsPending reports whether a transfer awaits resolution.
func (t TransferData) IsPending() bool {
	return t.Status == TransferPending
}

// Resolved returns the data with a terminal status at the given instant and
// the speculative bundle dropped.
func (t TransferData) Resolved(status TransferStatus, at time.Time) TransferData {
	t.Status = status
	t.PendingTransferExpirationTime = at
	t.Bundle = PendingTransferBundle{}
	return t
}

// HasHistory reports whether a transfer was ever requested.
func (t TransferData) HasHistory() bool {
	return t.Status != "" && t.Status != TransferNone
}
