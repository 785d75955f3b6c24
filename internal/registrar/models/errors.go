package models

import (
	"fmt"

	id "domainreg/pkg/domain"
	dErrors "domainreg/pkg/domain-errors"
)

// FailureKind enumerates authorization refusals.
type FailureKind string

const (
	FailUnknownRegistrar  FailureKind = "unknown_registrar"
	FailRegistrarInactive FailureKind = "registrar_inactive"
	FailResourceNotOwned  FailureKind = "resource_not_owned"
	FailTLDNotAllowed     FailureKind = "tld_not_allowed"
)

// Failure is a registrar that may not perform the requested command.
type Failure struct {
	Kind     FailureKind
	ClientID id.ClientID
	Domain   id.DomainName
	TLD      string
}

func (f *Failure) Error() string {
	switch f.Kind {
	case FailResourceNotOwned:
		return fmt.Sprintf("registrar %s does not sponsor %s", f.ClientID, f.Domain)
	case FailTLDNotAllowed:
		return fmt.Sprintf("registrar %s is not accredited for .%s", f.ClientID, f.TLD)
	default:
		return fmt.Sprintf("registrar %s: %s", f.ClientID, f.Kind)
	}
}

func (f *Failure) ErrorCode() dErrors.Code {
	if f.Kind == FailUnknownRegistrar {
		return dErrors.CodeUnauthorized
	}
	return dErrors.CodeForbidden
}
