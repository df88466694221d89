package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicate is returned when an insert collides with an existing external id.
var ErrDuplicate = errors.New("identity already exists")

const uniqueViolation = "23505"

// Repository persists identities in Postgres, one table per role.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// roleTable returns the table name, external-id column, and display role for
// an identity variant.
func roleTable(role Role) (table, keyCol, display string) {
	if role == RoleFaculty {
		return "faculty", "staff_id", "Faculty"
	}
	return "students", "roll_no", "Student"
}

// List returns all identities of the given role.
func (r *Repository) List(ctx context.Context, role Role) ([]Identity, error) {
	table, keyCol, _ := roleTable(role)
	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, %s, name, dept, dob, gender, phone, email, face_trained, created_at
		FROM %s ORDER BY %s
	`, keyCol, table, keyCol))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Identity
	for rows.Next() {
		var ident Identity
		ident.Role = role
		if err := rows.Scan(&ident.ID, &ident.ExternalID, &ident.Name, &ident.Dept, &ident.DOB,
			&ident.Gender, &ident.Phone, &ident.Email, &ident.FaceTrained, &ident.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

// GetByExternalID returns the identity with the given roll number or staff id,
// or nil when absent.
func (r *Repository) GetByExternalID(ctx context.Context, role Role, externalID string) (*Identity, error) {
	table, keyCol, _ := roleTable(role)
	row := r.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, %s, name, dept, dob, gender, phone, email, face_trained, created_at
		FROM %s WHERE %s = $1
	`, keyCol, table, keyCol), externalID)
	var ident Identity
	ident.Role = role
	if err := row.Scan(&ident.ID, &ident.ExternalID, &ident.Name, &ident.Dept, &ident.DOB,
		&ident.Gender, &ident.Phone, &ident.Email, &ident.FaceTrained, &ident.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &ident, nil
}

// Create inserts a new identity. Returns ErrDuplicate when the external id is
// already taken.
func (r *Repository) Create(ctx context.Context, role Role, in Insert) (Identity, error) {
	table, keyCol, display := roleTable(role)
	ident := Identity{
		ID:         uuid.NewString(),
		Role:       role,
		ExternalID: in.ExternalID,
		Name:       in.Name,
		Dept:       in.Dept,
		DOB:        in.DOB,
		Gender:     in.Gender,
		Phone:      in.Phone,
		Email:      in.Email,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, %s, name, role, dept, dob, gender, phone, email, face_trained, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE,$10)
	`, table, keyCol), ident.ID, ident.ExternalID, ident.Name, display, ident.Dept, ident.DOB,
		ident.Gender, ident.Phone, ident.Email, ident.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Identity{}, ErrDuplicate
		}
		return Identity{}, err
	}
	return ident, nil
}

// Update applies the non-nil fields and returns the updated identity, or nil
// when the external id is unknown.
func (r *Repository) Update(ctx context.Context, role Role, externalID string, upd Update) (*Identity, error) {
	table, keyCol, _ := roleTable(role)
	set := []string{}
	args := []any{externalID}
	add := func(col string, val any) {
		args = append(args, val)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Dept != nil {
		add("dept", *upd.Dept)
	}
	if upd.DOB != nil {
		add("dob", *upd.DOB)
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	if upd.Email != nil {
		add("email", *upd.Email)
	}
	if upd.FaceTrained != nil {
		add("face_trained", *upd.FaceTrained)
	}
	if len(set) > 0 {
		query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $1", table, joinClauses(set, ", "), keyCol)
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return nil, err
		}
	}
	return r.GetByExternalID(ctx, role, externalID)
}

// SetFaceTrained flips the face-trained flag.
func (r *Repository) SetFaceTrained(ctx context.Context, role Role, externalID string, trained bool) error {
	table, keyCol, _ := roleTable(role)
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE %s SET face_trained = $2 WHERE %s = $1", table, keyCol),
		externalID, trained)
	return err
}

// Delete removes an identity; reports whether a row was deleted.
func (r *Repository) Delete(ctx context.Context, role Role, externalID string) (bool, error) {
	table, keyCol, _ := roleTable(role)
	res, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE %s = $1", table, keyCol), externalID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// BulkInsert inserts rows one by one with ON CONFLICT DO NOTHING so a
// duplicate key never aborts the rest of the batch. Returns the number of
// rows actually inserted; the difference from len(rows) is the cross-batch
// duplicate count.
func (r *Repository) BulkInsert(ctx context.Context, role Role, rows []Insert) (int, error) {
	table, keyCol, display := roleTable(role)
	query := fmt.Sprintf(`
		INSERT INTO %s (id, %s, name, role, dept, dob, gender, phone, email, face_trained, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,FALSE,$10)
		ON CONFLICT (%s) DO NOTHING
	`, table, keyCol, keyCol)

	inserted := 0
	now := time.Now().UTC()
	for _, in := range rows {
		res, err := r.db.ExecContext(ctx, query, uuid.NewString(), in.ExternalID, in.Name, display,
			in.Dept, in.DOB, in.Gender, in.Phone, in.Email, now)
		if err != nil {
			return inserted, fmt.Errorf("bulk insert %s %s: %w", display, in.ExternalID, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			inserted++
		}
	}
	return inserted, nil
}

func joinClauses(parts []string, sep string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for i := 1; i < len(parts); i++ {
		out += sep + parts[i]
	}
	return out
}
