package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mkrogh/timeclock/backend/internal/domain"
	"github.com/mkrogh/timeclock/backend/internal/middleware"
)

// ClockIn handles POST /api/time-entries/clock-in.
func (s *Server) ClockIn(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req clockRequest
	if err := decodeBody(r, &req); err != nil {
		writeFieldError(w, "body", "The request body must be valid JSON.")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := s.entries.ClockIn(r.Context(), user.ID, req.Lat, req.Lng)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTimeEntryResponse(entry))
}

// ClockOut handles POST /api/time-entries/clock-out.
func (s *Server) ClockOut(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	var req clockRequest
	if err := decodeBody(r, &req); err != nil {
		writeFieldError(w, "body", "The request body must be valid JSON.")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := s.entries.ClockOut(r.Context(), user.ID, req.Lat, req.Lng)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toTimeEntryResponse(entry))
}

// Current handles GET /api/time-entries/current.
// Responds {"data":null} when the user is not clocked in, so the client can
// treat "am I clocked in" as a plain nullable read.
func (s *Server) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	entry, err := s.entries.GetOpenEntry(r.Context(), user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, dataResponse{Data: nil})
			return
		}
		writeError(w, r, err)
		return
	}

	resp := toTimeEntryResponse(entry)
	writeJSON(w, http.StatusOK, dataResponse{Data: &resp})
}

// ListTimeEntries handles GET /api/time-entries.
// Supports ?page= and ?per_page= (defaults: page=1, per_page=15, max=100).
// Entries are ordered by started_at descending.
func (s *Server) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "per_page"))
	entries, total, err := s.entries.ListPaged(r.Context(), user.ID, params)
	if err != nil {
		writeError(w, r, err)
		return
	}

	data := make([]timeEntryResponse, len(entries))
	for i, e := range entries {
		data[i] = toTimeEntryResponse(e)
	}

	writeJSON(w, http.StatusOK, pagedResponse{
		Data:  data,
		Links: newPageLinks(r.URL.Path, params, total),
		Meta: pageMeta{
			CurrentPage: params.Page,
			LastPage:    params.LastPage(total),
			PerPage:     params.PerPage,
			Total:       total,
		},
	})
}

// GetTimeEntry handles GET /api/time-entries/{id}.
// Callers may only view their own entries.
func (s *Server) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}

	entry, err := s.entries.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entry.UserID != user.ID {
		writeError(w, r, domain.ErrForbidden)
		return
	}

	resp := toTimeEntryResponse(entry)
	writeJSON(w, http.StatusOK, dataResponse{Data: &resp})
}

// UpdateTimeEntry handles PUT /api/time-entries/{id}.
// Callers may only update their own entries; interval rules are enforced by
// the service and surface as 422 field errors.
func (s *Server) UpdateTimeEntry(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		writeUnauthenticated(w)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, domain.ErrNotFound)
		return
	}

	// Ownership check before the engine runs, mirroring the view path.
	entry, err := s.entries.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if entry.UserID != user.ID {
		writeError(w, r, domain.ErrForbidden)
		return
	}

	var req updateTimeEntryRequest
	if err := decodeBody(r, &req); err != nil {
		writeFieldError(w, "body", "The request body must be valid JSON.")
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.entries.Update(r.Context(), id, req.patch())
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp := toTimeEntryResponse(updated)
	writeJSON(w, http.StatusOK, dataResponse{Data: &resp})
}

// --- request types ----------------------------------------------------------

// clockRequest is the optional body of the clock-in/clock-out endpoints.
// Both endpoints accept an empty body when no location was captured.
type clockRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

func (req clockRequest) validate() error {
	verr := &domain.ValidationError{}
	checkLatitude(verr, "lat", req.Lat)
	checkLongitude(verr, "lng", req.Lng)
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// updateTimeEntryRequest is the body of PUT /api/time-entries/{id}.
// ended_at and the coordinates are tri-state: an absent key keeps the stored
// value, an explicit null clears it.
type updateTimeEntryRequest struct {
	StartedAt *time.Time                 `json:"started_at"`
	EndedAt   domain.Optional[time.Time] `json:"ended_at"`
	StartLat  domain.Optional[float64]   `json:"start_lat"`
	StartLng  domain.Optional[float64]   `json:"start_lng"`
	EndLat    domain.Optional[float64]   `json:"end_lat"`
	EndLng    domain.Optional[float64]   `json:"end_lng"`
}

func (req updateTimeEntryRequest) validate() error {
	verr := &domain.ValidationError{}
	checkLatitude(verr, "start_lat", optionalValue(req.StartLat))
	checkLongitude(verr, "start_lng", optionalValue(req.StartLng))
	checkLatitude(verr, "end_lat", optionalValue(req.EndLat))
	checkLongitude(verr, "end_lng", optionalValue(req.EndLng))
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func (req updateTimeEntryRequest) patch() domain.TimeEntryPatch {
	return domain.TimeEntryPatch{
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
		StartLat:  req.StartLat,
		StartLng:  req.StartLng,
		EndLat:    req.EndLat,
		EndLng:    req.EndLng,
	}
}

func checkLatitude(verr *domain.ValidationError, field string, v *float64) {
	if v != nil && (*v < -90 || *v > 90) {
		verr.Add(field, fmt.Sprintf("The %s field must be between -90 and 90.", field))
	}
}

func checkLongitude(verr *domain.ValidationError, field string, v *float64) {
	if v != nil && (*v < -180 || *v > 180) {
		verr.Add(field, fmt.Sprintf("The %s field must be between -180 and 180.", field))
	}
}

func optionalValue(o domain.Optional[float64]) *float64 {
	if !o.Set || !o.Valid {
		return nil
	}
	return &o.Value
}

// --- response types ---------------------------------------------------------

// timeEntryResponse is the wire form of a time entry: timestamps as ISO-8601
// UTC strings ("Z" suffix), coordinates as floats or null. Nullable fields
// are serialized explicitly rather than omitted so clients can rely on the
// full shape.
type timeEntryResponse struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	StartedAt string    `json:"started_at"`
	EndedAt   *string   `json:"ended_at"`
	StartLat  *float64  `json:"start_lat"`
	StartLng  *float64  `json:"start_lng"`
	EndLat    *float64  `json:"end_lat"`
	EndLng    *float64  `json:"end_lng"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

func toTimeEntryResponse(e domain.TimeEntry) timeEntryResponse {
	resp := timeEntryResponse{
		ID:        e.ID,
		UserID:    e.UserID,
		StartedAt: formatUTC(e.StartedAt),
		StartLat:  e.StartLat,
		StartLng:  e.StartLng,
		EndLat:    e.EndLat,
		EndLng:    e.EndLng,
		CreatedAt: formatUTC(e.CreatedAt),
		UpdatedAt: formatUTC(e.UpdatedAt),
	}
	if e.EndedAt != nil {
		ended := formatUTC(*e.EndedAt)
		resp.EndedAt = &ended
	}
	return resp
}

func formatUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// dataResponse wraps a single resource, with null for "no resource".
type dataResponse struct {
	Data *timeEntryResponse `json:"data"`
}

// pagedResponse is the list envelope: data plus links and meta blocks.
type pagedResponse struct {
	Data  []timeEntryResponse `json:"data"`
	Links pageLinks           `json:"links"`
	Meta  pageMeta            `json:"meta"`
}

type pageLinks struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type pageMeta struct {
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
}

func newPageLinks(path string, p domain.PaginationParams, total int64) pageLinks {
	last := p.LastPage(total)
	links := pageLinks{
		First: pageURL(path, 1),
		Last:  pageURL(path, last),
	}
	if p.Page > 1 {
		prev := pageURL(path, p.Page-1)
		links.Prev = &prev
	}
	if p.Page < last {
		next := pageURL(path, p.Page+1)
		links.Next = &next
	}
	return links
}

func pageURL(path string, page int) string {
	return fmt.Sprintf("%s?page=%d", path, page)
}

// --- shared helpers ---------------------------------------------------------

// decodeBody decodes a JSON request body into v. An empty body is not an
// error — several endpoints accept bodiless POSTs.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// queryInt parses an integer query parameter, returning nil when absent or
// malformed so pagination falls back to its defaults.
func queryInt(r *http.Request, key string) *int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &n
}

func writeUnauthenticated(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthenticated."})
}
