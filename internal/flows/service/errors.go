package service

import (
	"fmt"
	"time"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// FailureKind enumerates rejected domain commands.
type FailureKind string

const (
	FailDomainNotFound              FailureKind = "domain_not_found"
	FailDomainAlreadyExists         FailureKind = "domain_already_exists"
	FailCurrentExpirationMismatch   FailureKind = "current_expiration_mismatch"
	FailExceedsMaxRegistrationYears FailureKind = "exceeds_max_registration_years"
	FailPeriodOutOfRange            FailureKind = "period_out_of_range"
	FailNotInRedemption             FailureKind = "not_in_redemption"
	FailSubordinateHostsExist       FailureKind = "subordinate_hosts_exist"
	FailNoTransferHistory           FailureKind = "no_transfer_history"
	FailNotAuthorizedToView         FailureKind = "not_authorized_to_view"
	FailUnsupportedStatus           FailureKind = "unsupported_status"
	FailAddRemoveSameValue          FailureKind = "add_remove_same_value"
)

// Failure is a command rejected before any change was computed.
type Failure struct {
	Kind     FailureKind
	Domain   id.DomainName
	ClientID id.ClientID
	Years    int
	Value    string
	Expected time.Time
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailDomainNotFound:
		return fmt.Sprintf("domain %s does not exist", f.Domain)
	case FailDomainAlreadyExists:
		return fmt.Sprintf("domain %s already exists", f.Domain)
	case FailCurrentExpirationMismatch:
		return fmt.Sprintf("%s: current expiration date is %s", f.Domain, f.Expected.Format(time.DateOnly))
	case FailPeriodOutOfRange, FailExceedsMaxRegistrationYears:
		return fmt.Sprintf("%s: %s (%d years)", f.Domain, f.Kind, f.Years)
	case FailUnsupportedStatus, FailAddRemoveSameValue:
		return fmt.Sprintf("%s: %s %q", f.Domain, f.Kind, f.Value)
	default:
		return fmt.Sprintf("%s: %s (client %s)", f.Domain, f.Kind, f.ClientID)
	}
}

func (f *Failure) ErrorCode() dErrors.Code {
	switch f.Kind {
	case FailDomainNotFound, FailNoTransferHistory:
		return dErrors.CodeNotFound
	case FailDomainAlreadyExists, FailNotInRedemption, FailSubordinateHostsExist:
		return dErrors.CodeConflict
	case FailNotAuthorizedToView:
		return dErrors.CodeForbidden
	default:
		return dErrors.CodeValidation
	}
}
