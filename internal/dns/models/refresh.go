// Package models holds the DNS refresh signal a completed mutation emits.
package models

import (
	"time"

	id "domainreg/pkg/domain"
)

// Reason names the command that changed what the zone should publish.
type Reason string

const (
	ReasonCreate          Reason = "CREATE"
	ReasonRenew           Reason = "RENEW"
	ReasonDelete          Reason = "DELETE"
	ReasonRestore         Reason = "RESTORE"
	ReasonUpdate          Reason = "UPDATE"
	ReasonTransferRequest Reason = "TRANSFER_REQUEST"
	ReasonTransferApprove Reason = "TRANSFER_APPROVE"
	ReasonTransferReject  Reason = "TRANSFER_REJECT"
	ReasonTransferCancel  Reason = "TRANSFER_CANCEL"
)

// Refresh asks the DNS publisher to republish one domain.
type Refresh struct {
	// ID is the outbox sequence number, zero until enqueued.
	ID          int64         `json:"-"`
	Domain      id.DomainName `json:"domain"`
	Reason      Reason        `json:"reason"`
	RequestedAt time.Time     `json:"requested_at"`
}
