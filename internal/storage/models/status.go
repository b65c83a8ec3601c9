// Package models defines data structures for storage entities.
package models

// Transitions lists, for every known status, the statuses it may move to.
// Terminal statuses are present with no successors.
type Transitions[S ~string] map[S][]S

// Allows reports whether moving from one status to another is permitted.
func (t Transitions[S]) Allows(from, to S) bool {
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Known reports whether s is a status of this machine.
func (t Transitions[S]) Known(s S) bool {
	_, ok := t[s]
	return ok
}

// Terminal reports whether s has no outgoing transitions.
func (t Transitions[S]) Terminal(s S) bool {
	next, ok := t[s]
	return ok && len(next) == 0
}
