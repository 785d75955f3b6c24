// Package domain holds identifier and value types that are parsed once at a
// trust boundary and then passed around as strongly typed values.
package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "domainreg/pkg/domain-errors"
)

// RepoID identifies a domain resource for its whole life. It never changes,
// even across transfers.
type RepoID uuid.UUID

// BillingEventID identifies any billing event: one-time, recurring or cancellation.
type BillingEventID uuid.UUID

// PollMessageID identifies a poll message in a registrar's queue.
type PollMessageID uuid.UUID

// HistoryEntryID identifies an append-only history entry.
type HistoryEntryID uuid.UUID

func NewRepoID() RepoID                 { return RepoID(uuid.New()) }
func NewBillingEventID() BillingEventID { return BillingEventID(uuid.New()) }
func NewPollMessageID() PollMessageID   { return PollMessageID(uuid.New()) }
func NewHistoryEntryID() HistoryEntryID { return HistoryEntryID(uuid.New()) }

func (id RepoID) String() string         { return uuid.UUID(id).String() }
func (id BillingEventID) String() string { return uuid.UUID(id).String() }
func (id PollMessageID) String() string  { return uuid.UUID(id).String() }
func (id HistoryEntryID) String() string { return uuid.UUID(id).String() }

func (id RepoID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id BillingEventID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id PollMessageID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id HistoryEntryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps ids readable in JSON payloads and stored documents.
func (id RepoID) MarshalText() ([]byte, error)         { return uuid.UUID(id).MarshalText() }
func (id BillingEventID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id PollMessageID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id HistoryEntryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *RepoID) UnmarshalText(b []byte) error         { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *BillingEventID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PollMessageID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *HistoryEntryID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func ParseRepoID(s string) (RepoID, error) {
	u, err := parseUUID(s, "repo ID")
	return RepoID(u), err
}

func ParseBillingEventID(s string) (BillingEventID, error) {
	u, err := parseUUID(s, "billing event ID")
	return BillingEventID(u), err
}

func ParsePollMessageID(s string) (PollMessageID, error) {
	u, err := parseUUID(s, "poll message ID")
	return PollMessageID(u), err
}

func ParseHistoryEntryID(s string) (HistoryEntryID, error) {
	u, err := parseUUID(s, "history entry ID")
	return HistoryEntryID(u), err
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	if len(s) > 64 || !utf8.ValidString(s) {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}

// ClientID is a registrar's login identifier, e.g. "TheRegistrar".
type ClientID string

const (
	minClientIDLength = 3
	maxClientIDLength = 16
)

func (c ClientID) String() string { return string(c) }

// ParseClientID validates a registrar client identifier.
func ParseClientID(s string) (ClientID, error) {
	s = strings.TrimSpace(s)
	if len(s) < minClientIDLength || len(s) > maxClientIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "client ID must be 3 to 16 characters")
	}
	for _, r := range s {
		if !isClientIDRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "client ID contains invalid characters")
		}
	}
	return ClientID(s), nil
}

func isClientIDRune(r rune) bool {
	return r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_'
}
