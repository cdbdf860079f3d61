package inspect

import (
	"maps"
	"slices"
)

// Set is an unordered collection of member names. Insertion order is
// not significant and duplicates collapse.
type Set map[string]struct{}

// NewSet creates a Set from the given names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, name := range names {
		s[name] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set.
func (s Set) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Len returns the number of names in the set.
func (s Set) Len() int { return len(s) }

// Names returns the set's contents sorted lexicographically.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Equal reports whether two sets hold the same names.
func (s Set) Equal(other Set) bool {
	return maps.Equal(s, other)
}

func (s Set) add(name string) {
	s[name] = struct{}{}
}
