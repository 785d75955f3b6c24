package pricing

import (
	"fmt"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
	"domainreg/pkg/money"
)

// FailureKind enumerates fee policy violations.
type FailureKind string

const (
	FailCurrencyMismatch        FailureKind = "currency_mismatch"
	FailFeeMismatch             FailureKind = "fee_mismatch"
	FailFeesRequired            FailureKind = "fees_required"
	FailUnsupportedFeeAttribute FailureKind = "unsupported_fee_attribute"
	FailPremiumNameBlocked      FailureKind = "premium_name_blocked"
)

// Failure is a rejected fee acknowledgement.
type Failure struct {
	Kind      FailureKind
	Domain    id.DomainName
	Expected  money.Money
	Got       money.Money
	Attribute string
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailFeeMismatch, FailCurrencyMismatch:
		return fmt.Sprintf("%s: %s, expected %s got %s", f.Domain, f.Kind, f.Expected, f.Got)
	case FailFeesRequired:
		return fmt.Sprintf("%s: fee of %s must be acknowledged", f.Domain, f.Expected)
	case FailPremiumNameBlocked:
		return fmt.Sprintf("%s: premium names are blocked for this registrar", f.Domain)
	default:
		return fmt.Sprintf("%s: unsupported fee attribute %q", f.Domain, f.Attribute)
	}
}

func (f *Failure) ErrorCode() dErrors.Code {
	if f.Kind == FailPremiumNameBlocked {
		return dErrors.CodeForbidden
	}
	return dErrors.CodeValidation
}
