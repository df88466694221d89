package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/xuri/excelize/v2"

	"facetrack/internal/identity"
)

// fakeStore counts inserts and treats preexisting keys as conflicts, the way
// the unordered bulk insert does.
type fakeStore struct {
	existing map[string]bool
	inserted []identity.Insert
}

func (f *fakeStore) BulkInsert(ctx context.Context, role identity.Role, rows []identity.Insert) (int, error) {
	n := 0
	for _, row := range rows {
		if f.existing[row.ExternalID] {
			continue
		}
		f.existing[row.ExternalID] = true
		f.inserted = append(f.inserted, row)
		n++
	}
	return n, nil
}

func buildSheet(t *testing.T, rows [][]string) io.Reader {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, cell := range row {
			axis, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, axis, cell); err != nil {
				t.Fatalf("set cell: %v", err)
			}
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}
	return &buf
}

var studentHeader = []string{"rollNo", "name", "dept", "dob", "gender", "phone", "email"}

func studentRow(rollNo string) []string {
	return []string{rollNo, "Student " + rollNo, "CSE", "2004-01-15", "F", "9876543210", rollNo + "@example.edu"}
}

func TestImportCountsSuccessDuplicatesAndErrors(t *testing.T) {
	// N=6: 3 fresh, 1 already in storage, 1 schema-invalid, 1 in-batch dup.
	rows := [][]string{
		studentHeader,
		studentRow("CS101"),
		studentRow("CS102"),
		studentRow("CS900"), // exists in storage already
		{"CS103", "No Email", "CSE", "2004-02-02", "M", "9876500000", "not-an-email"},
		studentRow("CS101"), // duplicate within the file
		studentRow("CS104"),
	}
	store := &fakeStore{existing: map[string]bool{"CS900": true}}
	im := New(store)

	result, err := im.Import(context.Background(), identity.RoleStudent, buildSheet(t, rows))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Success != 3 {
		t.Errorf("success = %d, want 3", result.Success)
	}
	if result.Duplicates != 1 {
		t.Errorf("duplicates = %d, want 1 (cross-batch)", result.Duplicates)
	}
	if result.Errors != 2 {
		t.Errorf("errors = %d, want 2 (schema + in-batch dup)", result.Errors)
	}
	if len(result.ErrorDetails) != 2 {
		t.Fatalf("error details = %d, want 2", len(result.ErrorDetails))
	}
	// Excel row numbers: header is row 1, so the invalid row is row 5.
	if result.ErrorDetails[0].Row != 5 {
		t.Errorf("invalid row number = %d, want 5", result.ErrorDetails[0].Row)
	}
	if result.ErrorDetails[1].Row != 6 {
		t.Errorf("in-batch dup row number = %d, want 6", result.ErrorDetails[1].Row)
	}
}

func TestImportZeroValidRowsFails(t *testing.T) {
	rows := [][]string{
		studentHeader,
		{"", "Missing Roll", "CSE", "2004-01-01", "M", "9876543210", "x@example.edu"},
		{"CS101", "", "CSE", "2004-01-01", "M", "9876543210", "y@example.edu"},
	}
	im := New(&fakeStore{existing: map[string]bool{}})

	result, err := im.Import(context.Background(), identity.RoleStudent, buildSheet(t, rows))
	if !errors.Is(err, ErrNoValidRows) {
		t.Fatalf("err = %v, want ErrNoValidRows", err)
	}
	if result.Errors != 2 || len(result.ErrorDetails) != 2 {
		t.Errorf("expected 2 row errors, got %+v", result)
	}
}

func TestImportFacultyUsesStaffIdColumn(t *testing.T) {
	rows := [][]string{
		{"staffId", "name", "dept", "dob", "gender", "phone", "email"},
		{"F-1", "Dr. Rao", "ECE", "1980-06-01", "M", "9876500001", "rao@example.edu"},
	}
	store := &fakeStore{existing: map[string]bool{}}
	im := New(store)

	result, err := im.Import(context.Background(), identity.RoleFaculty, buildSheet(t, rows))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Success != 1 {
		t.Errorf("success = %d, want 1", result.Success)
	}
	if len(store.inserted) != 1 || store.inserted[0].ExternalID != "F-1" {
		t.Errorf("unexpected inserts: %+v", store.inserted)
	}
}

func TestImportEmptySheet(t *testing.T) {
	im := New(&fakeStore{existing: map[string]bool{}})

	_, err := im.Import(context.Background(), identity.RoleStudent, buildSheet(t, [][]string{studentHeader}))
	if !errors.Is(err, ErrNoValidRows) {
		t.Errorf("err = %v, want ErrNoValidRows", err)
	}
}

func TestParseSheetCoercesMissingCells(t *testing.T) {
	rows := [][]string{
		{"rollNo", "name", "dept"},
		{"CS101", "Asha"}, // dept cell missing entirely
	}
	parsed, err := ParseSheet(buildSheet(t, rows))
	if err != nil {
		t.Fatalf("ParseSheet failed: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("rows = %d, want 1", len(parsed))
	}
	if parsed[0]["dept"] != "" {
		t.Errorf("missing cell = %q, want empty string", parsed[0]["dept"])
	}
	if parsed[0]["rollNo"] != "CS101" {
		t.Errorf("rollNo = %q", parsed[0]["rollNo"])
	}
}

func TestImportLargeBatchArithmetic(t *testing.T) {
	const n, dupes = 40, 5
	rows := [][]string{studentHeader}
	existing := map[string]bool{}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("CS%03d", i)
		rows = append(rows, studentRow(id))
		if i < dupes {
			existing[id] = true
		}
	}
	im := New(&fakeStore{existing: existing})

	result, err := im.Import(context.Background(), identity.RoleStudent, buildSheet(t, rows))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if result.Success != n-dupes || result.Duplicates != dupes || result.Errors != 0 {
		t.Errorf("got success=%d duplicates=%d errors=%d, want %d/%d/0",
			result.Success, result.Duplicates, result.Errors, n-dupes, dupes)
	}
}
