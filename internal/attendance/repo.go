package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"facetrack/internal/identity"
)

// Record is one dated presence entry for an identity, keyed by its external
// id. Records are append-only: there is no update or delete path.
type Record struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Date       string    `json:"date"`
	LoginTime  string    `json:"loginTime"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// AbsentEntry is a row of the derived absent reporting view.
type AbsentEntry struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"externalId"`
	Date       string    `json:"date"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DelayEntry is a row of the derived delay reporting view.
type DelayEntry struct {
	ID            string    `json:"id"`
	ExternalID    string    `json:"externalId"`
	Date          string    `json:"date"`
	DelayDuration int       `json:"delayDuration"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Repository persists attendance logs in Postgres, one log family per role.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func logTables(role identity.Role) (attendance, absent, delay, keyCol string) {
	if role == identity.RoleFaculty {
		return "faculty_attendance_logs", "faculty_absent_logs", "faculty_delay_logs", "staff_id"
	}
	return "student_attendance_logs", "student_absent_logs", "student_delay_logs", "roll_no"
}

// Insert appends one attendance record to the role's log. It deliberately
// performs no same-day existence check; repeated recognitions each write a
// new row and the store's single-insert atomicity is the only concurrency
// guarantee.
func (r *Repository) Insert(ctx context.Context, role identity.Role, rec Record) (Record, error) {
	table, _, _, keyCol := logTables(role)
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (id, %s, date, login_time, status, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, table, keyCol), rec.ID, rec.ExternalID, rec.Date, rec.LoginTime, rec.Status, rec.CreatedAt)
	if err != nil {
		return Record{}, fmt.Errorf("insert %s attendance for %s: %w", role, rec.ExternalID, err)
	}
	return rec, nil
}

// ListByDate returns the role's attendance records for a calendar day, or all
// records when date is empty.
func (r *Repository) ListByDate(ctx context.Context, role identity.Role, date string) ([]Record, error) {
	table, _, _, keyCol := logTables(role)
	query := fmt.Sprintf(`
		SELECT id, %s, date, login_time, status, created_at
		FROM %s
	`, keyCol, table)
	args := []any{}
	if date != "" {
		query += " WHERE date = $1"
		args = append(args, date)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.ExternalID, &rec.Date, &rec.LoginTime, &rec.Status, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// CountByDate returns the number of attendance rows for a day. Duplicate
// records for one identity each count; callers relying on distinct-identity
// semantics must handle that themselves.
func (r *Repository) CountByDate(ctx context.Context, role identity.Role, date string) (int, error) {
	table, _, _, _ := logTables(role)
	var n int
	err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE date = $1", table), date).Scan(&n)
	return n, err
}

// AbsentByDate reads the derived absent view. The pipeline never writes it.
func (r *Repository) AbsentByDate(ctx context.Context, role identity.Role, date string) ([]AbsentEntry, error) {
	_, table, _, keyCol := logTables(role)
	query := fmt.Sprintf("SELECT id, %s, date, created_at FROM %s", keyCol, table)
	args := []any{}
	if date != "" {
		query += " WHERE date = $1"
		args = append(args, date)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AbsentEntry
	for rows.Next() {
		var e AbsentEntry
		if err := rows.Scan(&e.ID, &e.ExternalID, &e.Date, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// DelayByDate reads the derived delay view. The pipeline never writes it.
func (r *Repository) DelayByDate(ctx context.Context, role identity.Role, date string) ([]DelayEntry, error) {
	_, _, table, keyCol := logTables(role)
	query := fmt.Sprintf("SELECT id, %s, date, delay_duration, created_at FROM %s", keyCol, table)
	args := []any{}
	if date != "" {
		query += " WHERE date = $1"
		args = append(args, date)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DelayEntry
	for rows.Next() {
		var e DelayEntry
		if err := rows.Scan(&e.ID, &e.ExternalID, &e.Date, &e.DelayDuration, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
