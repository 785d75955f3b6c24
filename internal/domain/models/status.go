package models

import (
	"slices"
	"strings"
)

// StatusValue is an EPP status flag. Flags are independent of each other.
type StatusValue string

const (
	ClientDeleteProhibited   StatusValue = "clientDeleteProhibited"
	ClientHold               StatusValue = "clientHold"
	ClientRenewProhibited    StatusValue = "clientRenewProhibited"
	ClientTransferProhibited StatusValue = "clientTransferProhibited"
	ClientUpdateProhibited   StatusValue = "clientUpdateProhibited"
	Inactive                 StatusValue = "inactive"
	OK                       StatusValue = "ok"
	PendingCreate            StatusValue = "pendingCreate"
	PendingDelete            StatusValue = "pendingDelete"
	PendingTransfer          StatusValue = "pendingTransfer"
	PendingUpdate            StatusValue = "pendingUpdate"
	ServerDeleteProhibited   StatusValue = "serverDeleteProhibited"
	ServerHold               StatusValue = "serverHold"
	ServerRenewProhibited    StatusValue = "serverRenewProhibited"
	ServerTransferProhibited StatusValue = "serverTransferProhibited"
	ServerUpdateProhibited   StatusValue = "serverUpdateProhibited"
)

var allStatuses = []StatusValue{
	ClientDeleteProhibited, ClientHold, ClientRenewProhibited, ClientTransferProhibited,
	ClientUpdateProhibited, Inactive, OK, PendingCreate, PendingDelete, PendingTransfer,
	PendingUpdate, ServerDeleteProhibited, ServerHold, ServerRenewProhibited,
	ServerTransferProhibited, ServerUpdateProhibited,
}

// ParseStatusValue accepts the EPP spelling of a status.
func ParseStatusValue(s string) (StatusValue, bool) {
	for _, v := range allStatuses {
		if strings.EqualFold(string(v), s) {
			return v, true
		}
	}
	return "", false
}

// IsClientSettable reports whether a registrar may add or remove the flag.
func (v StatusValue) IsClientSettable() bool {
	return strings.HasPrefix(string(v), "client")
}

// IsServerSettable reports whether only the registry may change the flag.
// Changing one of these is a charged operation when a registrar asks for it.
func (v StatusValue) IsServerSettable() bool {
	return strings.HasPrefix(string(v), "server")
}

// DNSProhibited lists the statuses that keep a domain out of the zone.
var DNSProhibited = []StatusValue{ClientHold, Inactive, PendingDelete, ServerHold}

// StatusSet is a sorted, duplicate-free set of statuses. Methods return new sets.
type StatusSet []StatusValue

// NewStatusSet builds a set from values.
func NewStatusSet(values ...StatusValue) StatusSet {
	out := StatusSet(nil)
	for _, v := range values {
		out = out.With(v)
	}
	return out
}

func (s StatusSet) Has(v StatusValue) bool {
	return slices.Contains(s, v)
}

// Intersect returns the members of s that are also in values.
func (s StatusSet) Intersect(values ...StatusValue) StatusSet {
	var out StatusSet
	for _, v := range s {
		if slices.Contains(values, v) {
			out = append(out, v)
		}
	}
	return out
}

func (s StatusSet) With(v StatusValue) StatusSet {
	if s.Has(v) {
		return s
	}
	out := append(slices.Clone(s), v)
	slices.Sort(out)
	return out
}

func (s StatusSet) Without(v StatusValue) StatusSet {
	if !s.Has(v) {
		return s
	}
	out := make(StatusSet, 0, len(s)-1)
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

// IsPublishable reports whether the domain should appear in DNS.
func (s StatusSet) IsPublishable() bool {
	return len(s.Intersect(DNSProhibited...)) == 0
}
