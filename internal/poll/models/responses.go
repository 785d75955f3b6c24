package models

import (
	"time"

	id "domainreg/pkg/domain"
)

// TransferResponse describes a transfer's state for a poll message or query.
type TransferResponse struct {
	DomainName                    id.DomainName
	GainingClientID               id.ClientID
	LosingClientID                id.ClientID
	TransferStatus                string
	TransferRequestTime           time.Time
	PendingTransferExpirationTime time.Time
	// ExtendedRegistrationExpirationTime is nil when the transfer did not
	// change the expiration.
	ExtendedRegistrationExpirationTime *time.Time
}

// PendingActionNotification reports the outcome of a previously pending action.
type PendingActionNotification struct {
	Name          id.DomainName
	Result        bool
	ProcessedDate time.Time
}
