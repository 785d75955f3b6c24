package models

import (
	"time"

	billing "domainreg/internal/billing/models"
	domain "domainreg/internal/domain/models"
	history "domainreg/internal/history/models"
	poll "domainreg/internal/poll/models"
	"domainreg/internal/pricing"
	id "domainreg/pkg/domain"
)

type CreateCommand struct {
	Name        id.DomainName
	PeriodYears int
	Nameservers []string
	Fee         *pricing.Challenge
}

type RenewCommand struct {
	Name id.DomainName
	// CurrentExpirationDate must match the date part of the expiration the
	// registrar believes the domain has.
	CurrentExpirationDate time.Time
	PeriodYears           int
	Fee                   *pricing.Challenge
}

// DeleteOverride lets a superuser pick the redemption and pending-delete windows.
type DeleteOverride struct {
	RedemptionGraceDays int
	PendingDeleteDays   int
}

type DeleteCommand struct {
	Name     id.DomainName
	Override *DeleteOverride
}

type RestoreCommand struct {
	Name id.DomainName
	Fee  *pricing.Challenge
}

type UpdateCommand struct {
	Name              id.DomainName
	AddStatuses       []domain.StatusValue
	RemoveStatuses    []domain.StatusValue
	AddNameservers    []string
	RemoveNameservers []string
	// RequestedByRegistrar marks a superuser change made on a registrar's
	// behalf. Server status changes made this way are charged.
	RequestedByRegistrar bool
	Reason               string
	Fee                  *pricing.Challenge
}

type TransferRequestCommand struct {
	Name        id.DomainName
	PeriodYears int
	Fee         *pricing.Challenge
	// AutomaticTransferDays is honored for superusers only.
	AutomaticTransferDays *int
}

// Result is a committed command.
type Result struct {
	// Domain is the resource as the command left it.
	Domain domain.Domain
	// History is the audit entry with its transaction records.
	History history.Entry

	CreatedBilling []billing.EventRef
	UpdatedBilling []billing.EventRef
	DeletedBilling []billing.EventRef
	SavedPolls     []id.PollMessageID
	DeletedPolls   []id.PollMessageID

	Transfer *poll.TransferResponse
	Fees     *pricing.FeesAndCredits
	// ActionPending is set when the command completes later, as a deferred delete does.
	ActionPending bool
}

// NewResult summarizes a mutation.
func NewResult(m Mutation) Result {
	r := Result{
		Domain:         m.Domain,
		History:        m.History,
		DeletedBilling: m.DeleteBilling,
		DeletedPolls:   m.DeletePolls,
	}
	for _, o := range m.OneTimes {
		r.CreatedBilling = append(r.CreatedBilling, o.Ref())
	}
	for _, c := range m.Cancellations {
		r.CreatedBilling = append(r.CreatedBilling, c.Ref())
	}
	for _, rec := range m.Recurrings {
		r.UpdatedBilling = append(r.UpdatedBilling, rec.Ref())
	}
	for _, p := range m.PollMessages {
		r.SavedPolls = append(r.SavedPolls, p.ID)
	}
	return r
}

// Info is the read-only view of a domain.
type Info struct {
	Domain domain.Domain
	State  domain.State
}
