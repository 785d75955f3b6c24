// Package models holds the append-only audit trail of domain mutations and the
// transaction records that reporting reads from it.
package models

import (
	"fmt"
	"time"

	id "domainreg/pkg/domain"
)

// Type names the mutation that produced an entry.
type Type string

const (
	TypeDomainCreate          Type = "DOMAIN_CREATE"
	TypeDomainRenew           Type = "DOMAIN_RENEW"
	TypeDomainDelete          Type = "DOMAIN_DELETE"
	TypeDomainRestore         Type = "DOMAIN_RESTORE"
	TypeDomainUpdate          Type = "DOMAIN_UPDATE"
	TypeDomainTransferRequest Type = "DOMAIN_TRANSFER_REQUEST"
	TypeDomainTransferApprove Type = "DOMAIN_TRANSFER_APPROVE"
	TypeDomainTransferReject  Type = "DOMAIN_TRANSFER_REJECT"
	TypeDomainTransferCancel  Type = "DOMAIN_TRANSFER_CANCEL"
)

// ReportField is a column of the registry's monthly transaction report.
type ReportField string

const (
	TransferSuccessful    ReportField = "TRANSFER_GAINING_SUCCESSFUL"
	TransferNacked        ReportField = "TRANSFER_GAINING_NACKED"
	DeletedDomainsGrace   ReportField = "DELETED_DOMAINS_GRACE"
	DeletedDomainsNoGrace ReportField = "DELETED_DOMAINS_NOGRACE"
	RestoredDomains       ReportField = "RESTORED_DOMAINS"
)

// NetAddsField is the NET_ADDS_<n>_YR field for a registration period.
func NetAddsField(years int) ReportField {
	return ReportField(fmt.Sprintf("NET_ADDS_%d_YR", years))
}

// NetRenewsField is the NET_RENEWS_<n>_YR field for a renewal period.
func NetRenewsField(years int) ReportField {
	return ReportField(fmt.Sprintf("NET_RENEWS_%d_YR", years))
}

// AddFields and RenewFields are every NET_ADDS and NET_RENEWS column.
var (
	AddFields   = fieldRange(NetAddsField)
	RenewFields = fieldRange(NetRenewsField)
)

func fieldRange(f func(int) ReportField) []ReportField {
	out := make([]ReportField, 0, 10)
	for y := 1; y <= 10; y++ {
		out = append(out, f(y))
	}
	return out
}

// TransactionRecord is one signed contribution to a report field. It is
// reported once ReportingTime has passed, and is final from then on.
type TransactionRecord struct {
	TLD           string
	ReportingTime time.Time
	Field         ReportField
	Amount        int
}

// Entry is the audit record written once per mutation.
type Entry struct {
	ID                   id.HistoryEntryID
	Type                 Type
	ModificationTime     time.Time
	RepoID               id.RepoID
	DomainName           id.DomainName
	ClientID             id.ClientID
	BySuperuser          bool
	Reason               string
	RequestedByRegistrar bool
	PeriodYears          int
	TransactionRecords   []TransactionRecord
}

// NewEntry starts an entry for a mutation at now.
func NewEntry(t Type, now time.Time, repoID id.RepoID, name id.DomainName, clientID id.ClientID, superuser bool) Entry {
	return Entry{
		ID:               id.NewHistoryEntryID(),
		Type:             t,
		ModificationTime: now,
		RepoID:           repoID,
		DomainName:       name,
		ClientID:         clientID,
		BySuperuser:      superuser,
	}
}

// WithRecords appends transaction records.
func (e Entry) WithRecords(records ...TransactionRecord) Entry {
	e.TransactionRecords = append(append([]TransactionRecord(nil), e.TransactionRecords...), records...)
	return e
}
