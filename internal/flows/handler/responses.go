package handler

import (
	"time"

	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	poll "domainreg/internal/poll/models"
	"domainreg/internal/pricing"
	"domainreg/pkg/timeutil"
)

// DomainResponse is a domain as the registrar sees it.
type DomainResponse struct {
	Name             string                `json:"name"`
	RepoID           string                `json:"repo_id"`
	State            string                `json:"state"`
	Sponsor          string                `json:"sponsor"`
	CreationClientID string                `json:"creation_client_id"`
	Statuses         []string              `json:"statuses"`
	Nameservers      []string              `json:"nameservers"`
	CreationTime     time.Time             `json:"creation_time"`
	ExpirationTime   time.Time             `json:"expiration_time"`
	LastUpdateTime   time.Time             `json:"last_update_time"`
	LastTransferTime *time.Time            `json:"last_transfer_time,omitempty"`
	DeletionTime     *time.Time            `json:"deletion_time,omitempty"`
	GracePeriods     []GracePeriodResponse `json:"grace_periods"`
	TransferStatus   string                `json:"transfer_status"`
}

type GracePeriodResponse struct {
	Type           string    `json:"type"`
	ExpirationTime time.Time `json:"expiration_time"`
	ClientID       string    `json:"client_id"`
}

// FeesResponse is what a command charged.
type FeesResponse struct {
	Currency string        `json:"currency"`
	Total    string        `json:"total"`
	Fees     []FeeResponse `json:"fees"`
}

type FeeResponse struct {
	Type    string `json:"type"`
	Amount  string `json:"amount"`
	Premium bool   `json:"premium,omitempty"`
}

// TransferResponse describes a transfer's state.
type TransferResponse struct {
	Domain                 string     `json:"domain"`
	Status                 string     `json:"status"`
	GainingClientID        string     `json:"gaining_client_id"`
	LosingClientID         string     `json:"losing_client_id"`
	RequestTime            time.Time  `json:"request_time"`
	ActionTime             time.Time  `json:"action_time"`
	ExtendedExpirationTime *time.Time `json:"extended_expiration_time,omitempty"`
}

// CommandResponse is returned by every mutating endpoint.
type CommandResponse struct {
	Domain        DomainResponse    `json:"domain"`
	HistoryID     string            `json:"history_id"`
	ActionPending bool              `json:"action_pending"`
	Fees          *FeesResponse     `json:"fees,omitempty"`
	Transfer      *TransferResponse `json:"transfer,omitempty"`
}

func FromDomain(d domain.Domain, state domain.State) DomainResponse {
	resp := DomainResponse{
		Name:             d.Name.String(),
		RepoID:           d.RepoID.String(),
		State:            string(state),
		Sponsor:          d.CurrentSponsorClientID.String(),
		CreationClientID: d.CreationClientID.String(),
		Statuses:         make([]string, 0, len(d.Statuses)),
		Nameservers:      append([]string{}, d.Nameservers...),
		CreationTime:     d.CreationTime,
		ExpirationTime:   d.RegistrationExpirationTime,
		LastUpdateTime:   d.LastEppUpdateTime,
		GracePeriods:     make([]GracePeriodResponse, 0, len(d.GracePeriods)),
		TransferStatus:   string(d.TransferData.Status),
	}
	for _, s := range d.Statuses {
		resp.Statuses = append(resp.Statuses, string(s))
	}
	for _, p := range d.GracePeriods {
		resp.GracePeriods = append(resp.GracePeriods, GracePeriodResponse{
			Type:           string(p.Type),
			ExpirationTime: p.ExpirationTime,
			ClientID:       p.ClientID.String(),
		})
	}
	if !d.LastTransferTime.IsZero() {
		t := d.LastTransferTime
		resp.LastTransferTime = &t
	}
	if !timeutil.IsEndOfTime(d.DeletionTime) {
		t := d.DeletionTime
		resp.DeletionTime = &t
	}
	return resp
}

func FromFees(f *pricing.FeesAndCredits) *FeesResponse {
	if f == nil {
		return nil
	}
	scale := f.Currency.Scale()
	resp := &FeesResponse{
		Currency: string(f.Currency),
		Total:    f.TotalCost().Amount.StringFixed(scale),
		Fees:     make([]FeeResponse, 0, len(f.Fees)),
	}
	for _, fee := range f.Fees {
		resp.Fees = append(resp.Fees, FeeResponse{
			Type:    string(fee.Type),
			Amount:  fee.Cost.Amount.StringFixed(scale),
			Premium: fee.Premium,
		})
	}
	return resp
}

func FromTransfer(t poll.TransferResponse) *TransferResponse {
	return &TransferResponse{
		Domain:                 t.DomainName.String(),
		Status:                 t.TransferStatus,
		GainingClientID:        t.GainingClientID.String(),
		LosingClientID:         t.LosingClientID.String(),
		RequestTime:            t.TransferRequestTime,
		ActionTime:             t.PendingTransferExpirationTime,
		ExtendedExpirationTime: t.ExtendedRegistrationExpirationTime,
	}
}

// FromResult converts a committed command. now is the command instant.
func FromResult(res flows.Result, now time.Time) *CommandResponse {
	resp := &CommandResponse{
		Domain:        FromDomain(res.Domain, res.Domain.State(now)),
		HistoryID:     res.History.ID.String(),
		ActionPending: res.ActionPending,
		Fees:          FromFees(res.Fees),
	}
	if res.Transfer != nil {
		resp.Transfer = FromTransfer(*res.Transfer)
	}
	return resp
}
