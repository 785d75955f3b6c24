package transfer

import (
	"fmt"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// FailureKind enumerates rejected transfer commands.
type FailureKind string

const (
	FailAlreadyPendingTransfer      FailureKind = "already_pending_transfer"
	FailNotPendingTransfer          FailureKind = "not_pending_transfer"
	FailNotTransferInitiator        FailureKind = "not_transfer_initiator"
	FailAlreadySponsored            FailureKind = "already_sponsored"
	FailTransferPeriodMustBeOneYear FailureKind = "transfer_period_must_be_one_year"
	FailTransferPeriodZeroWithFee   FailureKind = "transfer_period_zero_with_fee"
	FailSuperuserInAutorenewGrace   FailureKind = "superuser_in_autorenew_grace"
	FailResourceNotOwned            FailureKind = "resource_not_owned"
)

// Failure is a transfer command rejected before any change was computed.
type Failure struct {
	Kind     FailureKind
	Domain   id.DomainName
	ClientID id.ClientID
	Years    int
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailTransferPeriodMustBeOneYear:
		return fmt.Sprintf("%s: transfer period of %d years is not allowed", f.Domain, f.Years)
	default:
		return fmt.Sprintf("%s: %s (client %s)", f.Domain, f.Kind, f.ClientID)
	}
}

func (f *Failure) ErrorCode() dErrors.Code {
	switch f.Kind {
	case FailNotTransferInitiator, FailResourceNotOwned:
		return dErrors.CodeForbidden
	case FailAlreadyPendingTransfer, FailAlreadySponsored, FailNotPendingTransfer:
		return dErrors.CodeConflict
	default:
		return dErrors.CodeValidation
	}
}
