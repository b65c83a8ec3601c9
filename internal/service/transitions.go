package service

import "github.com/condo-admin/backend/internal/storage/models"

// advance checks a status change against a transition table.
func advance[S ~string](t models.Transitions[S], entity string, from, to S) error {
	if !t.Known(to) {
		return invalid("unknown %s status %q", entity, to)
	}
	if t.Terminal(from) {
		return invalid("%s is already %s", entity, from)
	}
	if !t.Allows(from, to) {
		return invalid("%s cannot move from %s to %s", entity, from, to)
	}
	return nil
}
