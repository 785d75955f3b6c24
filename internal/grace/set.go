package grace

import "time"

// Set is the grace periods attached to one domain.
type Set []Period

// OfType returns the periods of type t.
func (s Set) OfType(t Type) Set {
	var out Set
	for _, p := range s {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// Has reports whether any period of type t exists.
func (s Set) Has(t Type) bool {
	return len(s.OfType(t)) > 0
}

// Without returns the set minus periods of type t.
func (s Set) Without(t Type) Set {
	var out Set
	for _, p := range s {
		if p.Type != t {
			out = append(out, p)
		}
	}
	return out
}

// With returns a copy of the set with p appended.
func (s Set) With(p Period) Set {
	out := make(Set, 0, len(s)+1)
	out = append(out, s...)
	return append(out, p)
}

// Unexpired drops periods that ended at or before t.
func (s Set) Unexpired(t time.Time) Set {
	var out Set
	for _, p := range s {
		if p.IsActiveAt(t) {
			out = append(out, p)
		}
	}
	return out
}

// Cancellable returns the periods that reference a charge.
func (s Set) Cancellable() Set {
	var out Set
	for _, p := range s {
		if p.Billing != nil {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks every period and the uniqueness of REDEMPTION and SUNRUSH_ADD.
func (s Set) Validate() error {
	seen := map[Type]int{}
	for _, p := range s {
		if err := p.Validate(); err != nil {
			return err
		}
		seen[p.Type]++
	}
	for _, t := range []Type{Redemption, SunrushAdd} {
		if seen[t] > 1 {
			return &Failure{Kind: FailDuplicateGraceType, Type: t}
		}
	}
	return nil
}
