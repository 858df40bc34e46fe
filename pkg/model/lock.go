package model

import "sort"

// LockKey is an opaque, comparable token naming a shared resource: a
// group identifier, a shard identifier, or a table name. Two procedures
// whose lock-key sets intersect must never execute concurrently.
type LockKey string

// LockDefault is the sentinel key used when a command declares no
// specific resource. Unclassified commands serialize against each other
// rather than racing unsafely.
const LockDefault LockKey = "lock"

// LockSet is a set of lock keys. Keys are derived fresh for every
// scheduling decision and never persisted.
type LockSet map[LockKey]struct{}

// NewLockSet creates a LockSet from the given keys.
func NewLockSet(keys ...LockKey) LockSet {
	s := make(LockSet, len(keys))
	for _, k := range keys {
		s[k] = struct{}{}
	}
	return s
}

// Add inserts a key into the set.
func (s LockSet) Add(k LockKey) {
	s[k] = struct{}{}
}

// Has reports whether the set contains k.
func (s LockSet) Has(k LockKey) bool {
	_, ok := s[k]
	return ok
}

// Intersects reports whether the two sets share any key.
func (s LockSet) Intersects(other LockSet) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for k := range small {
		if _, ok := large[k]; ok {
			return true
		}
	}
	return false
}

// Sorted returns the keys in lexicographic order, for deterministic
// logging and tests.
func (s LockSet) Sorted() []LockKey {
	keys := make([]LockKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
