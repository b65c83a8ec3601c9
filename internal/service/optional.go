package service

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/condo-admin/backend/internal/storage/models"
)

// Optional is a field of a partial update. Set is false when the field was
// absent; Set with a nil Value means it was explicitly cleared.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON records that the field was present, and whether it was null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// apply overwrites *dst when the field was supplied with a value.
// It reports false if the field was explicitly cleared.
func (o Optional[T]) apply(dst *T) bool {
	if !o.Set {
		return true
	}
	if o.Value == nil {
		return false
	}
	*dst = *o.Value
	return true
}

// applyPtr overwrites a nullable destination when the field was supplied.
func (o Optional[T]) applyPtr(dst **T) {
	if !o.Set {
		return
	}
	if o.Value == nil {
		*dst = nil
		return
	}
	v := *o.Value
	*dst = &v
}

// dateOption unwraps a supplied date so it can be applied to a time field.
func dateOption(o Optional[models.Date]) Optional[time.Time] {
	if o.Value == nil {
		return Optional[time.Time]{Set: o.Set}
	}
	return Some(o.Value.Time)
}
