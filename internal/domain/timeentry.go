// Package domain contains the core data types for the Timeclock application.
// This package has zero external dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TimeEntry represents one clocked interval of a user's working time.
// EndedAt is nil while the user is still clocked in ("open entry"); at most
// one entry per user may be open at any instant. Both timestamps are always
// stored and compared in UTC.
//
// The interval is half-open: [StartedAt, EndedAt), with a nil EndedAt
// standing for unbounded future. Two entries of the same user must never
// overlap under that rule; touching endpoints are allowed.
type TimeEntry struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"` // nil while the user is clocked in
	StartLat  *float64   `json:"start_lat"`
	StartLng  *float64   `json:"start_lng"`
	EndLat    *float64   `json:"end_lat"`
	EndLng    *float64   `json:"end_lng"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Open reports whether the entry is still open (no end recorded).
func (e TimeEntry) Open() bool {
	return e.EndedAt == nil
}
