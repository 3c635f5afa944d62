package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := domain.NewValidationError("clock", "You already have an open time entry. Clock out first.")

	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.NotErrorIs(t, err, domain.ErrNotFound)

	wrapped := fmt.Errorf("service.TimeEntryService.ClockIn: %w", err)
	assert.ErrorIs(t, wrapped, domain.ErrValidation)

	var verr *domain.ValidationError
	require.True(t, errors.As(wrapped, &verr))
	assert.Equal(t, err.Fields, verr.Fields)
}

func TestValidationError_MessageIsDeterministic(t *testing.T) {
	err := (&domain.ValidationError{}).
		Add("started_at", "This time interval overlaps with an existing entry.").
		Add("ended_at", "End time must be after start time.")

	// First message in sorted field order, regardless of Add order.
	assert.Equal(t, "End time must be after start time.", err.Message())
}

func TestValidationError_AddAppends(t *testing.T) {
	err := domain.NewValidationError("lat", "The lat field must be between -90 and 90.")
	err.Add("lat", "The lat field is required when lng is present.")

	assert.Len(t, err.Fields["lat"], 2)
}
