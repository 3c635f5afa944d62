package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

func intp(n int) *int { return &n }

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name        string
		page        *int
		perPage     *int
		wantPage    int
		wantPerPage int
	}{
		{name: "defaults", wantPage: 1, wantPerPage: 15},
		{name: "explicit values", page: intp(3), perPage: intp(25), wantPage: 3, wantPerPage: 25},
		{name: "zero page falls back", page: intp(0), wantPage: 1, wantPerPage: 15},
		{name: "negative page falls back", page: intp(-2), wantPage: 1, wantPerPage: 15},
		{name: "per_page capped at 100", perPage: intp(500), wantPage: 1, wantPerPage: 100},
		{name: "zero per_page falls back", perPage: intp(0), wantPage: 1, wantPerPage: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := domain.NewPaginationParams(tt.page, tt.perPage)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantPerPage, p.PerPage)
		})
	}
}

func TestPaginationParams_Offset(t *testing.T) {
	assert.Equal(t, 0, domain.PaginationParams{Page: 1, PerPage: 15}.Offset())
	assert.Equal(t, 30, domain.PaginationParams{Page: 3, PerPage: 15}.Offset())
}

func TestPaginationParams_LastPage(t *testing.T) {
	p := domain.PaginationParams{Page: 1, PerPage: 15}

	assert.Equal(t, 1, p.LastPage(0), "empty result set still has one page")
	assert.Equal(t, 1, p.LastPage(15))
	assert.Equal(t, 2, p.LastPage(16))
	assert.Equal(t, 3, p.LastPage(31))
}
