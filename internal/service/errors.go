package service

import (
	"errors"
	"fmt"

	"github.com/condo-admin/backend/internal/storage"
)

// Sentinel errors returned by services. The HTTP layer maps them to status codes.
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
)

func notFound(entity, id string) error {
	return fmt.Errorf("%s %s: %w", entity, id, ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func forbidden(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrForbidden, fmt.Sprintf(format, args...))
}

// storeErr translates storage sentinels into service errors.
func storeErr(err error, entity, id string) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return notFound(entity, id)
	case errors.Is(err, storage.ErrDuplicate):
		return fmt.Errorf("%s already exists: %w", entity, ErrConflict)
	}
	return err
}
