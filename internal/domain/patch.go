package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Optional is a tri-state JSON field: absent, explicitly null, or a value.
// The distinction matters for partial updates, where "key absent" means
// keep the existing value while "key present with null" means clear it.
//
// encoding/json only calls UnmarshalJSON for keys present in the input, so
// the zero value (Set == false) is exactly the "absent" state.
type Optional[T any] struct {
	Set   bool // key was present in the JSON body
	Valid bool // value was non-null
	Value T
}

// Some returns an Optional holding the given value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Valid: true, Value: v}
}

// Null returns an Optional that was explicitly set to null.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

// UnmarshalJSON records presence and decodes the value unless it is null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Valid = false
		var zero T
		o.Value = zero
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// TimeEntryPatch carries the resolved fields of an update request into the
// service layer. StartedAt is a plain pointer because "set to null" is not a
// legal state for it; EndedAt and the coordinates are tri-state since
// explicit null clears them (reopening the entry, dropping a coordinate).
type TimeEntryPatch struct {
	StartedAt *time.Time
	EndedAt   Optional[time.Time]
	StartLat  Optional[float64]
	StartLng  Optional[float64]
	EndLat    Optional[float64]
	EndLng    Optional[float64]
}
