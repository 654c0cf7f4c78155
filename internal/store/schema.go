package store

import "context"

// EnsureSchema creates the tables and indexes the app needs. The unique
// index on (class_id, attendee_email) is what makes the admission append
// race-safe, so it is part of the schema contract, not an optimization.
func (d *DB) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id          TEXT PRIMARY KEY,
		email       TEXT UNIQUE NOT NULL,
		google_id   TEXT UNIQUE,
		name        TEXT NOT NULL DEFAULT '',
		picture_url TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS classes (
		id          TEXT PRIMARY KEY,
		class_code  TEXT UNIQUE NOT NULL,
		class_name  TEXT NOT NULL,
		owner_email TEXT NOT NULL,
		window_ms   BIGINT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_classes_owner ON classes(owner_email, created_at DESC);

	CREATE TABLE IF NOT EXISTS attendance_records (
		id             TEXT PRIMARY KEY,
		class_id       TEXT NOT NULL REFERENCES classes(id),
		attendee_email TEXT NOT NULL,
		attendee_name  TEXT NOT NULL,
		registration   TEXT NOT NULL,
		submitted_at   TIMESTAMPTZ NOT NULL,
		UNIQUE (class_id, attendee_email)
	);

	CREATE TABLE IF NOT EXISTS admission_audit (
		id             BIGSERIAL PRIMARY KEY,
		class_code     TEXT NOT NULL,
		attendee_email TEXT NOT NULL,
		outcome        TEXT NOT NULL,
		occurred_at    TIMESTAMPTZ NOT NULL
	);
	`
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}
