package store

import (
	"context"
	"database/sql"
	"fmt"
)

// tableDDL maps every table this service needs to its create statement.
// The absent and delay tables are derived reporting views: the pipeline never
// writes them, but the reporting endpoints read them, so they are provisioned
// alongside the rest.
var tableDDL = map[string]string{
	"students": `CREATE TABLE students (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		roll_no VARCHAR(50) NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'Student',
		dept TEXT NOT NULL,
		dob TEXT NOT NULL,
		gender TEXT NOT NULL,
		phone VARCHAR(15) NOT NULL,
		email TEXT NOT NULL,
		face_trained BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"faculty": `CREATE TABLE faculty (
		id UUID PRIMARY KEY,
		name TEXT NOT NULL,
		staff_id VARCHAR(50) NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'Faculty',
		dept TEXT NOT NULL,
		dob TEXT NOT NULL,
		gender TEXT NOT NULL,
		phone VARCHAR(15) NOT NULL,
		email TEXT NOT NULL,
		face_trained BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"student_attendance_logs": `CREATE TABLE student_attendance_logs (
		id UUID PRIMARY KEY,
		roll_no VARCHAR(50) NOT NULL,
		date TEXT NOT NULL,
		login_time TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"faculty_attendance_logs": `CREATE TABLE faculty_attendance_logs (
		id UUID PRIMARY KEY,
		staff_id VARCHAR(50) NOT NULL,
		date TEXT NOT NULL,
		login_time TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"student_absent_logs": `CREATE TABLE student_absent_logs (
		id UUID PRIMARY KEY,
		roll_no VARCHAR(50) NOT NULL,
		date TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"faculty_absent_logs": `CREATE TABLE faculty_absent_logs (
		id UUID PRIMARY KEY,
		staff_id VARCHAR(50) NOT NULL,
		date TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"student_delay_logs": `CREATE TABLE student_delay_logs (
		id UUID PRIMARY KEY,
		roll_no VARCHAR(50) NOT NULL,
		date TEXT NOT NULL,
		delay_duration INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"faculty_delay_logs": `CREATE TABLE faculty_delay_logs (
		id UUID PRIMARY KEY,
		staff_id VARCHAR(50) NOT NULL,
		date TEXT NOT NULL,
		delay_duration INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"face_detections": `CREATE TABLE face_detections (
		id UUID PRIMARY KEY,
		user_id VARCHAR(50) NOT NULL,
		user_name TEXT NOT NULL,
		user_type TEXT NOT NULL,
		confidence INTEGER NOT NULL,
		detected_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	"admin_users": `CREATE TABLE admin_users (
		id UUID PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL
	)`,
}

// Bootstrap ensures every required table exists. It lists the current schema
// and creates only what is missing, so it is safe to run on every start.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	existing, err := listTables(ctx, db)
	if err != nil {
		return fmt.Errorf("bootstrap: list tables: %w", err)
	}
	for _, name := range missingTables(existing) {
		if _, err := db.ExecContext(ctx, tableDDL[name]); err != nil {
			return fmt.Errorf("bootstrap: create table %s: %w", name, err)
		}
	}
	return nil
}

func listTables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema()
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// missingTables returns the required tables absent from existing, in a stable
// order so bootstrap logs stay diffable.
func missingTables(existing []string) []string {
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	var missing []string
	for _, name := range tableOrder {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

var tableOrder = []string{
	"students",
	"faculty",
	"student_attendance_logs",
	"faculty_attendance_logs",
	"student_absent_logs",
	"faculty_absent_logs",
	"student_delay_logs",
	"faculty_delay_logs",
	"face_detections",
	"admin_users",
}
