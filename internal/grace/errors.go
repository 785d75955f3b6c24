package grace

import (
	"fmt"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// FailureKind enumerates grace period invariant failures.
type FailureKind string

const (
	FailMissingBillingRef    FailureKind = "missing_billing_ref"
	FailUnexpectedBillingRef FailureKind = "unexpected_billing_ref"
	FailDuplicateGraceType   FailureKind = "duplicate_grace_type"
)

// Failure is a broken grace period invariant.
type Failure struct {
	Kind     FailureKind
	Type     Type
	ClientID id.ClientID
}

func (f *Failure) Error() string {
	return fmt.Sprintf("grace period %s: %s", f.Type, f.Kind)
}

func (f *Failure) ErrorCode() dErrors.Code { return dErrors.CodeInvariantViolation }
