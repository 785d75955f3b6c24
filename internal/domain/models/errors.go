package models

import (
	"fmt"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// FailureKind enumerates state machine failures.
type FailureKind string

const (
	FailStatusProhibits FailureKind = "status_prohibits_operation"
	FailInvariant       FailureKind = "domain_invariant"
)

// Failure is a rejected transition or a broken aggregate invariant.
type Failure struct {
	Kind     FailureKind
	Domain   id.DomainName
	Statuses StatusSet
	Detail   string
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailStatusProhibits:
		return fmt.Sprintf("%s: status %v prohibits this operation", f.Domain, []StatusValue(f.Statuses))
	default:
		return fmt.Sprintf("%s: %s", f.Domain, f.Detail)
	}
}

func (f *Failure) ErrorCode() dErrors.Code {
	if f.Kind == FailStatusProhibits {
		return dErrors.CodeForbidden
	}
	return dErrors.CodeInvariantViolation
}
