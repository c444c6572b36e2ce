package model

import "fmt"

// Relationship classifies a component relative to the root that owns it.
type Relationship int

const (
	// Indirect components are only reached transitively.
	Indirect Relationship = iota
	// Direct components are declared by their owning root.
	Direct
)

// RelationshipOf maps a walker classification onto the lattice.
func RelationshipOf(direct bool) Relationship {
	if direct {
		return Direct
	}
	return Indirect
}

// Promote joins two observations. Once direct, always direct.
func Promote(a, b Relationship) Relationship {
	return max(a, b)
}

// String returns the wire form ("direct" or "indirect").
func (r Relationship) String() string {
	if r == Direct {
		return "direct"
	}
	return "indirect"
}

// MarshalText implements encoding.TextMarshaler.
func (r Relationship) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Relationship) UnmarshalText(b []byte) error {
	switch string(b) {
	case "direct":
		*r = Direct
	case "indirect":
		*r = Indirect
	default:
		return fmt.Errorf("unknown relationship %q", b)
	}
	return nil
}

// Scope classifies whether a component ships with the build output.
// ScopeUnknown means no rule applied and is omitted from reports.
type Scope int

const (
	ScopeUnknown Scope = iota
	ScopeDevelopment
	ScopeRuntime
)

// PromoteScope joins two scope observations: runtime beats development and
// unknown never overrides a known scope.
func PromoteScope(a, b Scope) Scope {
	return max(a, b)
}

// EffectiveScope folds a list of observations with [PromoteScope].
func EffectiveScope(scopes ...Scope) Scope {
	s := ScopeUnknown
	for _, o := range scopes {
		s = PromoteScope(s, o)
	}
	return s
}

// String returns the wire form; ScopeUnknown renders as the empty string.
func (s Scope) String() string {
	switch s {
	case ScopeRuntime:
		return "runtime"
	case ScopeDevelopment:
		return "development"
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Scope) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scope) UnmarshalText(b []byte) error {
	switch string(b) {
	case "runtime":
		*s = ScopeRuntime
	case "development":
		*s = ScopeDevelopment
	case "":
		*s = ScopeUnknown
	default:
		return fmt.Errorf("unknown scope %q", b)
	}
	return nil
}
