// Package service contains the business logic for the Timeclock API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here — services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkrogh/timeclock/backend/internal/domain"
	"github.com/mkrogh/timeclock/backend/internal/repo"
)

// Clock-rule messages, keyed to the fields they are reported under.
const (
	msgAlreadyClockedIn    = "You already have an open time entry. Clock out first."
	msgNoOpenEntry         = "You have no open time entry to clock out of."
	msgEndBeforeStart      = "End time must be after start time."
	msgSecondOpenEntry     = "You already have another open time entry. Only one open entry is allowed."
	msgOverlappingInterval = "This time interval overlaps with an existing entry."
)

// TimeEntryService enforces the interval-consistency rules for a user's time
// entries: at most one open entry per user, every closed interval strictly
// end-after-start, and no two intervals of the same user overlapping. All
// timestamps are normalized to UTC on the way in; the overlap scan only ever
// compares already-normalized instants.
//
// The service is stateless. The "current open entry" is always recomputed
// from the store, never cached, so checks stay correct across instances.
type TimeEntryService struct {
	entries repo.TimeEntryRepo
	now     func() time.Time
}

// NewTimeEntryService constructs a TimeEntryService backed by the provided
// repo. now supplies the wall clock for clock-in/out stamps; pass nil to use
// time.Now (tests inject a fixed clock).
func NewTimeEntryService(entries repo.TimeEntryRepo, now func() time.Time) *TimeEntryService {
	if now == nil {
		now = time.Now
	}
	return &TimeEntryService{entries: entries, now: now}
}

// ClockIn creates a new open entry for the user, stamped with the current UTC
// instant and the optional clock-in coordinates. Fails with a "clock" field
// validation error if the user already has an open entry — whether detected
// by the pre-check or by the store's one-open-per-user index when two
// clock-ins race.
func (s *TimeEntryService) ClockIn(ctx context.Context, userID uuid.UUID, lat, lng *float64) (domain.TimeEntry, error) {
	_, err := s.entries.FindOpen(ctx, userID)
	switch {
	case err == nil:
		return domain.TimeEntry{}, domain.NewValidationError("clock", msgAlreadyClockedIn)
	case !errors.Is(err, domain.ErrNotFound):
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.ClockIn: %w", err)
	}

	entry := domain.TimeEntry{
		UserID:    userID,
		StartedAt: s.now().UTC(),
		StartLat:  lat,
		StartLng:  lng,
	}

	created, err := s.entries.Create(ctx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// Lost a race with a concurrent clock-in; same failure as the pre-check.
			return domain.TimeEntry{}, domain.NewValidationError("clock", msgAlreadyClockedIn)
		}
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.ClockIn: %w", err)
	}
	return created, nil
}

// ClockOut closes the user's open entry, stamping ended_at with the current
// UTC instant and recording the optional clock-out coordinates. Fails with a
// "clock" field validation error if the user has no open entry.
func (s *TimeEntryService) ClockOut(ctx context.Context, userID uuid.UUID, lat, lng *float64) (domain.TimeEntry, error) {
	open, err := s.entries.FindOpen(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TimeEntry{}, domain.NewValidationError("clock", msgNoOpenEntry)
		}
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.ClockOut: %w", err)
	}

	ended := s.now().UTC()
	open.EndedAt = &ended
	open.EndLat = lat
	open.EndLng = lng

	updated, err := s.entries.Update(ctx, open)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.ClockOut: %w", err)
	}
	return updated, nil
}

// GetOpenEntry returns the user's current open entry.
// Returns domain.ErrNotFound when the user is not clocked in.
func (s *TimeEntryService) GetOpenEntry(ctx context.Context, userID uuid.UUID) (domain.TimeEntry, error) {
	entry, err := s.entries.FindOpen(ctx, userID)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.GetOpenEntry: %w", err)
	}
	return entry, nil
}

// GetByID returns a single entry by ID.
// Ownership is the caller's concern; the handler rejects foreign entries.
func (s *TimeEntryService) GetByID(ctx context.Context, id uuid.UUID) (domain.TimeEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.GetByID: %w", err)
	}
	return entry, nil
}

// ListPaged returns one page of the user's entries, newest started first,
// plus the total count. Always returns a non-nil slice so callers can safely
// range over it.
func (s *TimeEntryService) ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.TimeEntry, int64, error) {
	entries, total, err := s.entries.ListPaged(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TimeEntryService.ListPaged: %w", err)
	}
	if entries == nil {
		entries = []domain.TimeEntry{}
	}
	return entries, total, nil
}

// HasOverlap reports whether the half-open interval [newStart, newEnd) would
// overlap any of the user's existing entries, excluding excludeID (pass
// uuid.Nil to exclude nothing). A nil end — on either side — is treated as
// unbounded future, so an open entry blocks every interval that begins before
// it could ever close, no matter how far ahead that interval lies. Touching
// endpoints do not count as overlap: [10:00,12:00) and [12:00,14:00) are
// adjacent, not overlapping.
//
// This is an O(n) scan over the user's entries, fine at personal-scale entry
// counts.
func (s *TimeEntryService) HasOverlap(ctx context.Context, userID uuid.UUID, newStart time.Time, newEnd *time.Time, excludeID uuid.UUID) (bool, error) {
	existing, err := s.entries.ListForUser(ctx, userID, excludeID)
	if err != nil {
		return false, fmt.Errorf("service.TimeEntryService.HasOverlap: %w", err)
	}

	start := newStart.UTC()
	for _, entry := range existing {
		oldStart := entry.StartedAt.UTC()

		// No overlap when the candidate starts at or after the new interval ends.
		if newEnd != nil && !oldStart.Before(newEnd.UTC()) {
			continue
		}
		// An open candidate has an unbounded end: it overlaps anything that
		// passed the first check.
		if entry.EndedAt == nil {
			return true, nil
		}
		// No overlap when the candidate ends at or before the new interval starts.
		if !entry.EndedAt.UTC().After(start) {
			continue
		}
		return true, nil
	}

	return false, nil
}

// Update applies a partial update to an entry, re-validating every interval
// rule before anything is persisted. The checks run in order and
// short-circuit: end-after-start, single-open, then overlap (with the entry
// excluded from the scan so it never collides with itself). The write is a
// single repo call, so a failed update leaves the stored entry untouched.
func (s *TimeEntryService) Update(ctx context.Context, id uuid.UUID, patch domain.TimeEntryPatch) (domain.TimeEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.Update: %w", err)
	}

	// Resolve the effective interval: absent patch fields keep the stored
	// value, a present-with-null end reopens the entry.
	newStart := entry.StartedAt.UTC()
	if patch.StartedAt != nil {
		newStart = patch.StartedAt.UTC()
	}

	var newEnd *time.Time
	switch {
	case !patch.EndedAt.Set:
		if entry.EndedAt != nil {
			t := entry.EndedAt.UTC()
			newEnd = &t
		}
	case patch.EndedAt.Valid:
		t := patch.EndedAt.Value.UTC()
		newEnd = &t
	}

	if newEnd != nil && !newEnd.After(newStart) {
		return domain.TimeEntry{}, domain.NewValidationError("ended_at", msgEndBeforeStart)
	}

	if newEnd == nil {
		open, err := s.entries.FindOpen(ctx, entry.UserID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.Update: %w", err)
		}
		if err == nil && open.ID != entry.ID {
			return domain.TimeEntry{}, domain.NewValidationError("ended_at", msgSecondOpenEntry)
		}
	}

	overlap, err := s.HasOverlap(ctx, entry.UserID, newStart, newEnd, entry.ID)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.Update: %w", err)
	}
	if overlap {
		return domain.TimeEntry{}, domain.
			NewValidationError("started_at", msgOverlappingInterval).
			Add("ended_at", msgOverlappingInterval)
	}

	entry.StartedAt = newStart
	entry.EndedAt = newEnd
	entry.StartLat = resolveCoord(patch.StartLat, entry.StartLat)
	entry.StartLng = resolveCoord(patch.StartLng, entry.StartLng)
	entry.EndLat = resolveCoord(patch.EndLat, entry.EndLat)
	entry.EndLng = resolveCoord(patch.EndLng, entry.EndLng)

	updated, err := s.entries.Update(ctx, entry)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// A concurrent write opened another entry between the check and
			// the persist; report it exactly like the pre-check would have.
			return domain.TimeEntry{}, domain.NewValidationError("ended_at", msgSecondOpenEntry)
		}
		return domain.TimeEntry{}, fmt.Errorf("service.TimeEntryService.Update: %w", err)
	}
	return updated, nil
}

// resolveCoord applies the tri-state patch rule for a coordinate field:
// absent keeps the stored value, explicit null clears it, a value replaces it.
func resolveCoord(patch domain.Optional[float64], current *float64) *float64 {
	if !patch.Set {
		return current
	}
	if !patch.Valid {
		return nil
	}
	v := patch.Value
	return &v
}
