package classroom

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// Repository persists classes and attendance records in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const pgUniqueViolation = "23505"

// InsertClass writes a new class. A duplicate class code surfaces as
// ErrCodeTaken so the service can retry with a fresh code.
func (r *Repository) InsertClass(ctx context.Context, class Class) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO classes (id, class_code, class_name, owner_email, window_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, class.ID, class.Code, class.Name, class.OwnerEmail, class.Window.Milliseconds(), class.CreatedAt)
	if isUniqueViolation(err) {
		return ErrCodeTaken
	}
	return err
}

// ClassByCode returns the class for code, or nil if not found. It returns
// an error only for database failures, not for missing rows.
func (r *Repository) ClassByCode(ctx context.Context, code string) (*Class, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, class_code, class_name, owner_email, window_ms, created_at
		FROM classes WHERE class_code = $1
	`, code)
	var class Class
	var windowMs int64
	if err := row.Scan(&class.ID, &class.Code, &class.Name, &class.OwnerEmail, &windowMs, &class.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	class.Window = time.Duration(windowMs) * time.Millisecond
	return &class, nil
}

// ClassesByOwner returns the owner's classes, newest first.
func (r *Repository) ClassesByOwner(ctx context.Context, ownerEmail string) ([]Class, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_code, class_name, owner_email, window_ms, created_at
		FROM classes
		WHERE owner_email = $1
		ORDER BY created_at DESC
	`, ownerEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var class Class
		var windowMs int64
		if err := rows.Scan(&class.ID, &class.Code, &class.Name, &class.OwnerEmail, &windowMs, &class.CreatedAt); err != nil {
			return nil, err
		}
		class.Window = time.Duration(windowMs) * time.Millisecond
		classes = append(classes, class)
	}
	return classes, rows.Err()
}

// HasAttendee reports whether the identity already holds a record in the class.
func (r *Repository) HasAttendee(ctx context.Context, classID, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM attendance_records WHERE class_id = $1 AND attendee_email = $2
		)
	`, classID, email).Scan(&exists)
	return exists, err
}

// AppendAttendee inserts the record only if no record for the same
// (class, attendee) pair exists, in one atomic statement. Returns false
// when the insert was suppressed by the unique index.
func (r *Repository) AppendAttendee(ctx context.Context, rec Record) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_records (id, class_id, attendee_email, attendee_name, registration, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (class_id, attendee_email) DO NOTHING
	`, rec.ID, rec.ClassID, rec.Email, rec.Name, rec.Registration, rec.SubmittedAt)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Attendees returns a class's records in admission order.
func (r *Repository) Attendees(ctx context.Context, classID string) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, class_id, attendee_email, attendee_name, registration, submitted_at
		FROM attendance_records
		WHERE class_id = $1
		ORDER BY submitted_at, id
	`, classID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ClassID, &rec.Email, &rec.Name, &rec.Registration, &rec.SubmittedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// InsertAuditEvent appends one row to the admission audit trail.
func (r *Repository) InsertAuditEvent(ctx context.Context, classCode, attendeeEmail, outcome string, occurredAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admission_audit (class_code, attendee_email, outcome, occurred_at)
		VALUES ($1, $2, $3, $4)
	`, classCode, attendeeEmail, outcome, occurredAt)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
