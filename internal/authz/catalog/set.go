package catalog

import "sort"

// Set is an unordered collection of permission ids.
type Set map[ID]struct{}

// NewSet builds a Set from the given ids, collapsing duplicates.
func NewSet(ids ...ID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is a member.
func (s Set) Contains(id ID) bool {
	_, ok := s[id]
	return ok
}

// Equal reports order-independent exact membership equality.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if _, ok := other[id]; !ok {
			return false
		}
	}
	return true
}

// Slice returns the members sorted lexicographically.
func (s Set) Slice() []ID {
	ids := make([]ID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
