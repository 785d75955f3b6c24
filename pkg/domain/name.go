package domain

import (
	"strings"

	dErrors "domainreg/pkg/domain-errors"
)

const maxLabelLength = 63

// DomainName is a lower-case, ASCII fully-qualified name with exactly one
// label above its TLD. IDN and reservation checks live outside this package.
type DomainName string

func (n DomainName) String() string { return string(n) }

// Label returns the registrable label, e.g. "example" for "example.tld".
func (n DomainName) Label() string {
	label, _, _ := strings.Cut(string(n), ".")
	return label
}

// TLD returns everything above the first label, e.g. "co.uk" for "example.co.uk".
func (n DomainName) TLD() string {
	_, tld, _ := strings.Cut(string(n), ".")
	return tld
}

// ParseDomainName normalises and validates a name.
func ParseDomainName(s string) (DomainName, error) {
	s = strings.ToLower(strings.TrimSuffix(strings.TrimSpace(s), "."))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain name is required")
	}
	labels := strings.Split(s, ".")
	if len(labels) < 2 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "domain name must have exactly one part above the TLD")
	}
	for _, label := range labels {
		if err := validateLabel(label); err != nil {
			return "", err
		}
	}
	return DomainName(s), nil
}

func validateLabel(label string) error {
	switch {
	case label == "":
		return dErrors.New(dErrors.CodeInvalidInput, "domain labels cannot be empty")
	case len(label) > maxLabelLength:
		return dErrors.New(dErrors.CodeInvalidInput, "domain labels cannot be longer than 63 characters")
	case strings.HasPrefix(label, "-"):
		return dErrors.New(dErrors.CodeInvalidInput, "domain labels cannot begin with a dash")
	case strings.HasSuffix(label, "-"):
		return dErrors.New(dErrors.CodeInvalidInput, "domain labels cannot end with a dash")
	}
	for _, r := range label {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-') {
			return dErrors.New(dErrors.CodeInvalidInput, "domain names can only contain a-z, 0-9, '.' and '-'")
		}
	}
	return nil
}
