// Package strings normalizes user-supplied string lists before validation.
package strings

import (
	"strings"
)

// NormalizeHosts lower-cases host names, strips surrounding whitespace and a
// single trailing root dot, and drops blanks and repeats. First occurrence
// order is kept.
func NormalizeHosts(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		host := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(v)), ".")
		if host == "" {
			continue
		}
		if _, ok := seen[host]; ok {
			continue
		}
		seen[host] = struct{}{}
		result = append(result, host)
	}
	return result
}

// Overlap returns the values present in both a and b, in a's order.
func Overlap(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, v := range b {
		inB[v] = struct{}{}
	}
	var out []string
	for _, v := range a {
		if _, ok := inB[v]; ok {
			out = append(out, v)
		}
	}
	return out
}
