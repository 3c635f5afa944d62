// Package repo contains all database access logic for the Timeclock API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/mkrogh/timeclock/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// uniqueViolation is the Postgres error code for a unique constraint failure.
const uniqueViolation = "23505"

// openEntryIndex is the partial unique index that allows at most one row with
// a NULL ended_at per user. Writes that trip it are reported as
// domain.ErrConflict so the service layer can surface a clock conflict.
const openEntryIndex = "time_entries_one_open_per_user"

// TimeEntryRepo defines the persistence operations for time entries.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the engine to be unit-tested with a mock.
type TimeEntryRepo interface {
	// Create inserts a new entry and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	// Returns domain.ErrConflict if the entry is open and the user already
	// has an open entry.
	Create(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error)

	// GetByID retrieves a single entry by its UUID primary key.
	// Returns domain.ErrNotFound if no entry with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.TimeEntry, error)

	// FindOpen returns the user's open entry (ended_at IS NULL).
	// The one-open-per-user index guarantees at most one row matches.
	// Returns domain.ErrNotFound when the user is not clocked in.
	FindOpen(ctx context.Context, userID uuid.UUID) (domain.TimeEntry, error)

	// ListForUser returns all entries for a user, excluding excludeID when it
	// is not uuid.Nil. Ordering is unspecified; the overlap scan does not
	// depend on it.
	ListForUser(ctx context.Context, userID, excludeID uuid.UUID) ([]domain.TimeEntry, error)

	// Update overwrites the mutable fields of an entry and returns the
	// refreshed record. Returns domain.ErrNotFound if the entry does not
	// exist and domain.ErrConflict if clearing ended_at would leave the user
	// with two open entries.
	Update(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error)

	// ListPaged returns one page of a user's entries ordered by started_at
	// descending, along with the total entry count for that user.
	ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.TimeEntry, int64, error)
}

// pgTimeEntryRepo is the Postgres implementation of TimeEntryRepo.
type pgTimeEntryRepo struct {
	db db
}

// NewTimeEntryRepo constructs a TimeEntryRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTimeEntryRepo(db db) TimeEntryRepo {
	return &pgTimeEntryRepo{db: db}
}

// entryColumns is the canonical column list shared by every query that scans
// a full row through scanTimeEntry.
const entryColumns = `id, user_id, started_at, ended_at, start_lat, start_lng, end_lat, end_lng, created_at, updated_at`

func (r *pgTimeEntryRepo) Create(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	const q = `
		INSERT INTO time_entries (user_id, started_at, ended_at, start_lat, start_lng, end_lat, end_lng)
		VALUES (@user_id, @started_at, @ended_at, @start_lat, @start_lng, @end_lat, @end_lng)
		RETURNING ` + entryColumns

	args := pgx.NamedArgs{
		"user_id":    entry.UserID,
		"started_at": entry.StartedAt,
		"ended_at":   entry.EndedAt, // nil becomes NULL
		"start_lat":  entry.StartLat,
		"start_lng":  entry.StartLng,
		"end_lat":    entry.EndLat,
		"end_lng":    entry.EndLng,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTimeEntry(row)
	if err != nil {
		if isOpenEntryConflict(err) {
			return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.Create: %w", domain.ErrConflict)
		}
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTimeEntryRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.TimeEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE id = @id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id})
	result, err := scanTimeEntry(row)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgTimeEntryRepo) FindOpen(ctx context.Context, userID uuid.UUID) (domain.TimeEntry, error) {
	const q = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = @user_id AND ended_at IS NULL`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID})
	result, err := scanTimeEntry(row)
	if err != nil {
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.FindOpen: %w", err)
	}
	return result, nil
}

func (r *pgTimeEntryRepo) ListForUser(ctx context.Context, userID, excludeID uuid.UUID) ([]domain.TimeEntry, error) {
	q := `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = @user_id`
	args := pgx.NamedArgs{"user_id": userID}

	if excludeID != uuid.Nil {
		q += ` AND id != @exclude_id`
		args["exclude_id"] = excludeID
	}

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.ListForUser: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TimeEntryRepo.ListForUser: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TimeEntryRepo.ListForUser: rows: %w", err)
	}

	return entries, nil
}

func (r *pgTimeEntryRepo) Update(ctx context.Context, entry domain.TimeEntry) (domain.TimeEntry, error) {
	const q = `
		UPDATE time_entries
		SET started_at = @started_at,
		    ended_at   = @ended_at,
		    start_lat  = @start_lat,
		    start_lng  = @start_lng,
		    end_lat    = @end_lat,
		    end_lng    = @end_lng,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + entryColumns

	args := pgx.NamedArgs{
		"id":         entry.ID,
		"started_at": entry.StartedAt,
		"ended_at":   entry.EndedAt,
		"start_lat":  entry.StartLat,
		"start_lng":  entry.StartLng,
		"end_lat":    entry.EndLat,
		"end_lng":    entry.EndLng,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanTimeEntry(row)
	if err != nil {
		if isOpenEntryConflict(err) {
			return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.Update: %w", domain.ErrConflict)
		}
		return domain.TimeEntry{}, fmt.Errorf("repo.TimeEntryRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTimeEntryRepo) ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.TimeEntry, int64, error) {
	const countQ = `SELECT count(*) FROM time_entries WHERE user_id = @user_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"user_id": userID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TimeEntryRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + entryColumns + `
		FROM time_entries
		WHERE user_id = @user_id
		ORDER BY started_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.PerPage,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TimeEntryRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		e, err := scanTimeEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.TimeEntryRepo.ListPaged: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.TimeEntryRepo.ListPaged: rows: %w", err)
	}

	return entries, total, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanTimeEntry
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTimeEntry maps a single database row into a domain.TimeEntry.
// All timestamps are normalized to UTC here, at the persistence boundary,
// so the rest of the system only ever sees UTC instants.
func scanTimeEntry(s scanner) (domain.TimeEntry, error) {
	var (
		e        domain.TimeEntry
		id       pgtype.UUID
		userID   pgtype.UUID
		endedAt  pgtype.Timestamptz
		startLat pgtype.Float8
		startLng pgtype.Float8
		endLat   pgtype.Float8
		endLng   pgtype.Float8
	)

	err := s.Scan(&id, &userID, &e.StartedAt, &endedAt, &startLat, &startLng, &endLat, &endLng, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TimeEntry{}, domain.ErrNotFound
		}
		return domain.TimeEntry{}, err
	}

	e.ID = uuid.UUID(id.Bytes)
	e.UserID = uuid.UUID(userID.Bytes)
	e.StartedAt = e.StartedAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	if endedAt.Valid {
		t := endedAt.Time.UTC()
		e.EndedAt = &t
	}
	e.StartLat = float8Ptr(startLat)
	e.StartLng = float8Ptr(startLng)
	e.EndLat = float8Ptr(endLat)
	e.EndLng = float8Ptr(endLng)

	return e, nil
}

func float8Ptr(f pgtype.Float8) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

// isOpenEntryConflict reports whether err is a unique violation on the
// one-open-entry-per-user partial index.
func isOpenEntryConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == openEntryIndex
}
