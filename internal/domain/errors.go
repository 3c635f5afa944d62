package domain

import (
	"errors"
	"sort"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. overlapping interval, end time before start time).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrForbidden is returned when an authenticated caller does not own the
// target resource. Handlers should map this to HTTP 403, distinct from both
// 401 (no identity) and 422 (validation).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned by the repo layer when a store-level uniqueness
// constraint rejects a write — in particular the one-open-entry-per-user
// partial index on time_entries. Services translate it into the same
// validation failure the pre-write check would have produced.
var ErrConflict = errors.New("conflict")

// ValidationError is a structured validation failure: a mapping from field
// name (or the synthetic "clock" key for clock-in/out failures) to one or
// more human-readable messages. It matches ErrValidation via errors.Is, so
// callers can branch on the sentinel without losing the field detail.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError builds a ValidationError with a single field message.
// Further messages can be attached with Add.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// Add appends a message to the given field's message list and returns the
// receiver so calls can be chained.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// Message returns the first message in field order, for use as the top-level
// "message" of an error response. Fields are sorted so the result is
// deterministic regardless of map iteration order.
func (e *ValidationError) Message() string {
	for _, field := range e.sortedFields() {
		if msgs := e.Fields[field]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return "validation error"
}

// Error implements the error interface. All field messages are included so
// wrapped errors stay useful in logs.
func (e *ValidationError) Error() string {
	var parts []string
	for _, field := range e.sortedFields() {
		parts = append(parts, field+": "+strings.Join(e.Fields[field], "; "))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// Is makes errors.Is(err, ErrValidation) true for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func (e *ValidationError) sortedFields() []string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
