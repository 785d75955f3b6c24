package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "domainreg/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
//
// Justification: ids cross the HTTP boundary on poll ack and registrar lookups.
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParsePollMessageID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParsePollMessageID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParsePollMessageID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		valid := uuid.New()
		id, err := ParsePollMessageID(valid.String())
		require.NoError(t, err)
		assert.Equal(t, PollMessageID(valid), id)
	})

	t.Run("rejects oversized input", func(t *testing.T) {
		_, err := ParseRepoID(strings.Repeat("a", 1000))
		require.Error(t, err)
	})
}

func TestAllIDTypes_ConsistentBehavior(t *testing.T) {
	valid := uuid.New().String()
	for _, input := range []string{"", "invalid", uuid.Nil.String()} {
		t.Run("all reject: "+input, func(t *testing.T) {
			_, errRepo := ParseRepoID(input)
			_, errBilling := ParseBillingEventID(input)
			_, errPoll := ParsePollMessageID(input)
			_, errHistory := ParseHistoryEntryID(input)
			require.Error(t, errRepo)
			require.Error(t, errBilling)
			require.Error(t, errPoll)
			require.Error(t, errHistory)
		})
	}

	_, err := ParseBillingEventID(valid)
	require.NoError(t, err)
}

func TestParseClientID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"typical", "TheRegistrar", false},
		{"with dash", "new-regr", false},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 17), true},
		{"space inside", "the registrar", true},
		{"sql injection", "';--", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClientID(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ClientID(tt.input), got)
		})
	}
}

func TestParseDomainName(t *testing.T) {
	t.Run("normalises case and trailing dot", func(t *testing.T) {
		name, err := ParseDomainName("Example.TLD.")
		require.NoError(t, err)
		assert.Equal(t, DomainName("example.tld"), name)
		assert.Equal(t, "example", name.Label())
		assert.Equal(t, "tld", name.TLD())
	})

	t.Run("multi-part tld", func(t *testing.T) {
		name, err := ParseDomainName("example.co.uk")
		require.NoError(t, err)
		assert.Equal(t, "co.uk", name.TLD())
	})

	for _, bad := range []string{"", "tld", "-lead.tld", "trail-.tld", "bad_char.tld", "a..tld", strings.Repeat("a", 64) + ".tld"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseDomainName(bad)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func TestIDJSON(t *testing.T) {
	type doc struct {
		Repo RepoID         `json:"repo"`
		Poll *PollMessageID `json:"poll,omitempty"`
	}
	pollID := NewPollMessageID()
	in := doc{Repo: NewRepoID(), Poll: &pollID}

	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"repo":"`+in.Repo.String()+`"`)

	var out doc
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in.Repo, out.Repo)
	require.NotNil(t, out.Poll)
	assert.Equal(t, pollID, *out.Poll)
}
