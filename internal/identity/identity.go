package identity

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// User is the unified account record, regardless of which provider the
// profile arrived from.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	GoogleID   string    `json:"google_id,omitempty"`
	Name       string    `json:"name"`
	PictureURL string    `json:"picture_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile is what a federated login hands back.
type Profile struct {
	Email      string
	GoogleID   string
	Name       string
	PictureURL string
}

// Repository persists users in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// LookupOrCreate upserts the user keyed by email (the stable handle) and
// refreshes the provider id, display name and avatar on every login.
func (r *Repository) LookupOrCreate(ctx context.Context, p Profile) (User, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, email, google_id, name, picture_url)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			google_id   = COALESCE(NULLIF(EXCLUDED.google_id, ''), users.google_id),
			name        = EXCLUDED.name,
			picture_url = EXCLUDED.picture_url
		RETURNING id, email, COALESCE(google_id, ''), name, picture_url, created_at
	`, uuid.NewString(), p.Email, p.GoogleID, p.Name, p.PictureURL)

	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.GoogleID, &u.Name, &u.PictureURL, &u.CreatedAt); err != nil {
		return User{}, err
	}
	return u, nil
}
