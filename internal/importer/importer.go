package importer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"facetrack/internal/identity"
)

// ErrNoValidRows signals that nothing in the uploaded sheet was importable;
// handlers map it to a 400 carrying the row error details.
var ErrNoValidRows = errors.New("no valid rows found in file")

// RowError describes why one spreadsheet row was rejected. Row numbers are
// 1-indexed Excel rows, so the first data row (after the header) is row 2.
type RowError struct {
	Row    int               `json:"row"`
	Data   map[string]string `json:"data"`
	Errors []string          `json:"errors"`
}

// Result summarizes a bulk import. Success + Duplicates counts the valid
// rows; Errors counts schema failures and in-batch duplicate keys.
type Result struct {
	Success      int        `json:"success"`
	Duplicates   int        `json:"duplicates"`
	Errors       int        `json:"errors"`
	ErrorDetails []RowError `json:"errorDetails"`
}

// BulkInserter is the identity-repo slice imports write through.
type BulkInserter interface {
	BulkInsert(ctx context.Context, role identity.Role, rows []identity.Insert) (int, error)
}

// Importer parses spreadsheet uploads into identity rows.
type Importer struct {
	repo     BulkInserter
	validate *validator.Validate
}

// New creates an importer.
func New(repo BulkInserter) *Importer {
	return &Importer{repo: repo, validate: validator.New()}
}

// keyHeader returns the external-id column header for a role.
func keyHeader(role identity.Role) string {
	if role == identity.RoleFaculty {
		return "staffId"
	}
	return "rollNo"
}

// Import parses the first sheet of an .xlsx upload, validates each row,
// rejects duplicates within the batch, and bulk-inserts the remainder.
// Rows whose key already exists in storage are unordered-insert conflicts
// and come back as Duplicates, so one bad row never blocks the rest.
func (im *Importer) Import(ctx context.Context, role identity.Role, file io.Reader) (Result, error) {
	rows, err := ParseSheet(file)
	if err != nil {
		return Result{}, err
	}
	if len(rows) == 0 {
		return Result{}, ErrNoValidRows
	}

	var (
		valid     []identity.Insert
		rowErrors []RowError
		seen      = map[string]bool{}
		key       = keyHeader(role)
	)
	for idx, row := range rows {
		// +2: Excel rows are 1-indexed and row 1 is the header.
		excelRow := idx + 2
		in := identity.Insert{
			ExternalID: row[key],
			Name:       row["name"],
			Dept:       row["dept"],
			DOB:        row["dob"],
			Gender:     row["gender"],
			Phone:      row["phone"],
			Email:      row["email"],
		}
		if err := im.validate.Struct(in); err != nil {
			rowErrors = append(rowErrors, RowError{Row: excelRow, Data: row, Errors: validationMessages(err)})
			continue
		}
		if seen[in.ExternalID] {
			rowErrors = append(rowErrors, RowError{
				Row:    excelRow,
				Data:   row,
				Errors: []string{fmt.Sprintf("duplicate %s in file", key)},
			})
			continue
		}
		seen[in.ExternalID] = true
		valid = append(valid, in)
	}

	if len(valid) == 0 {
		return Result{Errors: len(rowErrors), ErrorDetails: rowErrors}, ErrNoValidRows
	}

	inserted, err := im.repo.BulkInsert(ctx, role, valid)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Success:      inserted,
		Duplicates:   len(valid) - inserted,
		Errors:       len(rowErrors),
		ErrorDetails: rowErrors,
	}, nil
}

// ParseSheet reads the first sheet into header-keyed string maps. Every cell
// comes back as a string; missing trailing cells are empty strings.
func ParseSheet(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, errors.New("excel file does not contain any sheets")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	headers := rows[0]
	var out []map[string]string
	for _, row := range rows[1:] {
		record := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(row) {
				record[h] = row[i]
			} else {
				record[h] = ""
			}
		}
		out = append(out, record)
	}
	return out, nil
}

func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %s validation", fe.Field(), fe.Tag()))
	}
	return msgs
}
