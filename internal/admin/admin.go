package admin

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/google/uuid"
)

// Credential is an admin username/password pair. It exists only for the
// login equality check and plays no part in the attendance pipeline.
type Credential struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"-"`
}

// Repository persists admin credentials.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// GetByUsername returns the credential or nil when the username is unknown.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Credential, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM admin_users WHERE username = $1`, username)
	var cred Credential
	if err := row.Scan(&cred.ID, &cred.Username, &cred.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &cred, nil
}

// Create inserts a credential unless the username is already taken.
func (r *Repository) Create(ctx context.Context, username, password string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO admin_users (id, username, password)
		VALUES ($1, $2, $3)
		ON CONFLICT (username) DO NOTHING
	`, uuid.NewString(), username, password)
	return err
}

// EnsureDefault seeds the stock admin account on first start.
func (r *Repository) EnsureDefault(ctx context.Context) error {
	existing, err := r.GetByUsername(ctx, "admin")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	log.Println("creating default admin user")
	return r.Create(ctx, "admin", "admin123")
}
