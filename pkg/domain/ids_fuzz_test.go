//go:build go1.18

package domain

import (
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzParseDomainName tests that parsing never panics on arbitrary input
// and that accepted names are stable under re-parsing.
//
// Justification: domain names arrive from registrars on every command.
func FuzzParseDomainName(f *testing.F) {
	f.Add("")
	f.Add("example.tld")
	f.Add("EXAMPLE.tld.")
	f.Add("xn--bcher-kva.tld")
	f.Add("'; DROP TABLE domains;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))

	f.Fuzz(func(t *testing.T, input string) {
		name, err := ParseDomainName(input)
		if err != nil {
			return
		}
		again, err := ParseDomainName(name.String())
		if err != nil {
			t.Errorf("accepted name failed re-parse: %v", err)
		}
		if again != name {
			t.Error("re-parse changed name")
		}
		if !utf8.ValidString(name.String()) || strings.ToLower(name.String()) != name.String() {
			t.Error("accepted name is not lower-case ASCII")
		}
	})
}

// FuzzParseClientID checks that accepted client IDs stay within bounds.
func FuzzParseClientID(f *testing.F) {
	f.Add("TheRegistrar")
	f.Add("")
	f.Add("a\x00b")

	f.Fuzz(func(t *testing.T, input string) {
		id, err := ParseClientID(input)
		if err == nil && (len(id) < minClientIDLength || len(id) > maxClientIDLength) {
			t.Errorf("accepted out-of-range client ID %q", id)
		}
	})
}
