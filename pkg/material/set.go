package material

import (
	"slices"
	"strings"
)

// Set is an immutable, sorted and de-duplicated collection of material
// identifiers. The zero value is an empty set.
type Set struct {
	ids []string
}

// NewSet builds a set from ids. Identifiers are trimmed; empty identifiers
// are dropped and duplicates collapse.
func NewSet(ids ...string) Set {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return Set{ids: slices.Compact(out)}
}

// Parse splits a comma-separated identifier list as written by the BOM
// analyzer ("M1,M2,M3"). Double quotes are ignored.
func Parse(s string) Set {
	s = strings.ReplaceAll(s, `"`, "")
	if strings.TrimSpace(s) == "" {
		return Set{}
	}
	return NewSet(strings.Split(s, ",")...)
}

// Len returns the number of identifiers in the set.
func (s Set) Len() int { return len(s.ids) }

// Strings returns a copy of the identifiers in ascending order.
func (s Set) Strings() []string { return slices.Clone(s.ids) }

// String joins the identifiers with commas.
func (s Set) String() string { return strings.Join(s.ids, ",") }

// Contains reports whether id is a member of the set.
func (s Set) Contains(id string) bool {
	_, ok := slices.BinarySearch(s.ids, id)
	return ok
}

// Equal reports whether both sets hold the same identifiers.
func (s Set) Equal(o Set) bool { return slices.Equal(s.ids, o.ids) }

// Cost returns |a Δ b|, the number of materials present in exactly one of
// the two sets.
func Cost(a, b Set) int {
	shared := Shared(a, b)
	return len(a.ids) + len(b.ids) - 2*shared
}

// Shared returns |a ∩ b|.
func Shared(a, b Set) int {
	i, j, n := 0, 0, 0
	for i < len(a.ids) && j < len(b.ids) {
		switch c := strings.Compare(a.ids[i], b.ids[j]); {
		case c == 0:
			n++
			i++
			j++
		case c < 0:
			i++
		default:
			j++
		}
	}
	return n
}

// Purge returns s without any identifier contained in commons.
func Purge(s, commons Set) Set {
	if commons.Len() == 0 || s.Len() == 0 {
		return s
	}
	out := make([]string, 0, len(s.ids))
	for _, id := range s.ids {
		if !commons.Contains(id) {
			out = append(out, id)
		}
	}
	return Set{ids: out}
}

// MarshalText encodes the set in the same comma-separated form accepted by
// [Parse], so sets round-trip through JSON and YAML as plain strings.
func (s Set) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a comma-separated identifier list.
func (s *Set) UnmarshalText(text []byte) error {
	*s = Parse(string(text))
	return nil
}
