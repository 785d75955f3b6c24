// Package models describes the registrars that may issue domain commands.
package models

import (
	"slices"
	"time"

	id "domainreg/pkg/domain"
)

// State is a registrar's account state.
type State string

const (
	StateActive    State = "ACTIVE"
	StateSuspended State = "SUSPENDED"
	StateDisabled  State = "DISABLED"
)

// Registrar is an accredited client of the registry.
type Registrar struct {
	ClientID          id.ClientID `json:"client_id"`
	Name              string      `json:"name"`
	State             State       `json:"state"`
	AllowedTLDs       []string    `json:"allowed_tlds"`
	BlockPremiumNames bool        `json:"block_premium_names"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// IsActive reports whether the registrar may issue commands.
func (r *Registrar) IsActive() bool {
	return r.State == StateActive
}

// AllowsTLD reports whether the registrar is accredited for tld.
func (r *Registrar) AllowsTLD(tld string) bool {
	return slices.Contains(r.AllowedTLDs, tld)
}
