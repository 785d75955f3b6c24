package handler

import (
	"fmt"
	"strings"
	"time"

	domain "domainreg/internal/domain/models"
	flows "domainreg/internal/flows/models"
	"domainreg/internal/pricing"
	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/money"
	platformstrings "domainreg/pkg/platform/strings"
)

const (
	maxNameservers  = 13
	maxStatusValues = 16
	maxReasonLength = 512
)

// FeeRequest acknowledges the price of a billable command.
type FeeRequest struct {
	Currency   string   `json:"currency"`
	Amount     string   `json:"amount"`
	Attributes []string `json:"attributes,omitempty"`
}

func (f *FeeRequest) challenge() (*pricing.Challenge, error) {
	if f == nil {
		return nil, nil
	}
	currency, err := money.ParseCurrency(f.Currency)
	if err != nil {
		return nil, err
	}
	total, err := money.Of(currency, f.Amount)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, "fee.amount must be a decimal amount")
	}
	return &pricing.Challenge{Total: total, Attributes: f.Attributes}, nil
}

// CreateRequest is the body of POST /domains.
type CreateRequest struct {
	Name        string      `json:"name"`
	PeriodYears int         `json:"period_years"`
	Nameservers []string    `json:"nameservers"`
	Fee         *FeeRequest `json:"fee,omitempty"`

	cmd flows.CreateCommand
}

func (r *CreateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	name, err := id.ParseDomainName(r.Name)
	if err != nil {
		return err
	}
	hosts, err := parseHosts("nameservers", r.Nameservers)
	if err != nil {
		return err
	}
	fee, err := r.Fee.challenge()
	if err != nil {
		return err
	}
	r.cmd = flows.CreateCommand{Name: name, PeriodYears: defaultYears(r.PeriodYears), Nameservers: hosts, Fee: fee}
	return nil
}

// Command returns the validated command.
func (r *CreateRequest) Command() flows.CreateCommand { return r.cmd }

// RenewRequest is the body of POST /domains/{name}/renew.
type RenewRequest struct {
	// CurrentExpirationDate is YYYY-MM-DD and must match the registration.
	CurrentExpirationDate string      `json:"current_expiration_date"`
	PeriodYears           int         `json:"period_years"`
	Fee                   *FeeRequest `json:"fee,omitempty"`

	expiration time.Time
	fee        *pricing.Challenge
}

func (r *RenewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	exp, err := time.Parse(time.DateOnly, strings.TrimSpace(r.CurrentExpirationDate))
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "current_expiration_date must be YYYY-MM-DD")
	}
	r.expiration = exp
	r.fee, err = r.Fee.challenge()
	return err
}

func (r *RenewRequest) Command(name id.DomainName) flows.RenewCommand {
	return flows.RenewCommand{Name: name, CurrentExpirationDate: r.expiration, PeriodYears: defaultYears(r.PeriodYears), Fee: r.fee}
}

// DeleteRequest is the optional body of POST /domains/{name}/delete. The
// override is honored for superusers only.
type DeleteRequest struct {
	Override *struct {
		RedemptionGraceDays int `json:"redemption_grace_days"`
		PendingDeleteDays   int `json:"pending_delete_days"`
	} `json:"override,omitempty"`
}

func (r *DeleteRequest) Validate() error {
	if r.Override != nil && (r.Override.RedemptionGraceDays < 0 || r.Override.PendingDeleteDays < 0) {
		return dErrors.New(dErrors.CodeValidation, "override days cannot be negative")
	}
	return nil
}

func (r *DeleteRequest) Command(name id.DomainName) flows.DeleteCommand {
	cmd := flows.DeleteCommand{Name: name}
	if r.Override != nil {
		cmd.Override = &flows.DeleteOverride{
			RedemptionGraceDays: r.Override.RedemptionGraceDays,
			PendingDeleteDays:   r.Override.PendingDeleteDays,
		}
	}
	return cmd
}

// RestoreRequest is the optional body of POST /domains/{name}/restore.
type RestoreRequest struct {
	Fee *FeeRequest `json:"fee,omitempty"`

	fee *pricing.Challenge
}

func (r *RestoreRequest) Validate() error {
	var err error
	r.fee, err = r.Fee.challenge()
	return err
}

func (r *RestoreRequest) Command(name id.DomainName) flows.RestoreCommand {
	return flows.RestoreCommand{Name: name, Fee: r.fee}
}

// UpdateRequest is the body of PATCH /domains/{name}.
type UpdateRequest struct {
	AddStatuses          []string    `json:"add_statuses,omitempty"`
	RemoveStatuses       []string    `json:"remove_statuses,omitempty"`
	AddNameservers       []string    `json:"add_nameservers,omitempty"`
	RemoveNameservers    []string    `json:"remove_nameservers,omitempty"`
	RequestedByRegistrar bool        `json:"requested_by_registrar,omitempty"`
	Reason               string      `json:"reason,omitempty"`
	Fee                  *FeeRequest `json:"fee,omitempty"`

	cmd flows.UpdateCommand
}

func (r *UpdateRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Reason) > maxReasonLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("reason must be at most %d characters", maxReasonLength))
	}
	add, err := parseStatuses("add_statuses", r.AddStatuses)
	if err != nil {
		return err
	}
	remove, err := parseStatuses("remove_statuses", r.RemoveStatuses)
	if err != nil {
		return err
	}
	addHosts, err := parseHosts("add_nameservers", r.AddNameservers)
	if err != nil {
		return err
	}
	removeHosts, err := parseHosts("remove_nameservers", r.RemoveNameservers)
	if err != nil {
		return err
	}
	fee, err := r.Fee.challenge()
	if err != nil {
		return err
	}
	r.cmd = flows.UpdateCommand{
		AddStatuses:          add,
		RemoveStatuses:       remove,
		AddNameservers:       addHosts,
		RemoveNameservers:    removeHosts,
		RequestedByRegistrar: r.RequestedByRegistrar,
		Reason:               strings.TrimSpace(r.Reason),
		Fee:                  fee,
	}
	return nil
}

func (r *UpdateRequest) Command(name id.DomainName) flows.UpdateCommand {
	cmd := r.cmd
	cmd.Name = name
	return cmd
}

// TransferRequest is the body of POST /domains/{name}/transfer.
type TransferRequest struct {
	// PeriodYears defaults to one. Zero is accepted from superusers only.
	PeriodYears           *int        `json:"period_years,omitempty"`
	Fee                   *FeeRequest `json:"fee,omitempty"`
	AutomaticTransferDays *int        `json:"automatic_transfer_days,omitempty"`

	fee *pricing.Challenge
}

func (r *TransferRequest) Validate() error {
	if r.AutomaticTransferDays != nil && *r.AutomaticTransferDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "automatic_transfer_days cannot be negative")
	}
	var err error
	r.fee, err = r.Fee.challenge()
	return err
}

func (r *TransferRequest) Command(name id.DomainName) flows.TransferRequestCommand {
	years := 1
	if r.PeriodYears != nil {
		years = *r.PeriodYears
	}
	return flows.TransferRequestCommand{Name: name, PeriodYears: years, Fee: r.fee, AutomaticTransferDays: r.AutomaticTransferDays}
}

func defaultYears(years int) int {
	if years == 0 {
		return 1
	}
	return years
}

func parseStatuses(field string, raw []string) ([]domain.StatusValue, error) {
	if len(raw) > maxStatusValues {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s has too many values", field))
	}
	out := make([]domain.StatusValue, 0, len(raw))
	for _, s := range raw {
		v, ok := domain.ParseStatusValue(strings.TrimSpace(s))
		if !ok {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s: unknown status %q", field, s))
		}
		out = append(out, v)
	}
	return out, nil
}

// parseHosts validates nameserver host names with the domain name rules
// and drops repeats.
func parseHosts(field string, raw []string) ([]string, error) {
	if len(raw) > maxNameservers {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s allows at most %d hosts", field, maxNameservers))
	}
	hosts := platformstrings.NormalizeHosts(raw)
	for _, h := range hosts {
		if _, err := id.ParseDomainName(h); err != nil {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s: invalid host %q", field, h))
		}
	}
	return hosts, nil
}
