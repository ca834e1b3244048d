package state

import "sort"

// IDSet is a sorted, duplicate-free list of identifiers. It serializes as a
// plain JSON array.
type IDSet []string

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s = s.Add(id)
	}
	return s
}

// Add returns the set with id inserted.
func (s IDSet) Add(id string) IDSet {
	i := sort.SearchStrings(s, id)
	if i < len(s) && s[i] == id {
		return s
	}
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = id
	return s
}

// Contains reports whether id is in the set.
func (s IDSet) Contains(id string) bool {
	i := sort.SearchStrings(s, id)
	return i < len(s) && s[i] == id
}

// Union returns a new set holding the members of both.
func (s IDSet) Union(other IDSet) IDSet {
	out := s.Clone()
	for _, id := range other {
		out = out.Add(id)
	}
	return out
}

// Clone returns an independent copy.
func (s IDSet) Clone() IDSet {
	if s == nil {
		return nil
	}
	return append(IDSet(nil), s...)
}

// Normalize sorts and deduplicates a set read from an untrusted source.
func (s IDSet) Normalize() IDSet {
	return NewIDSet(s...)
}
