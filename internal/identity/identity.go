package identity

import "time"

// Role distinguishes the two identity variants. It is chosen explicitly at
// construction time, never inferred from which id field happens to be set.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleFaculty
}

// Identity is a student or faculty member tracked by the system. ExternalID
// is the roll number for students and the staff id for faculty; each is
// unique within its role's id space.
type Identity struct {
	ID          string    `json:"id"`
	Role        Role      `json:"type"`
	ExternalID  string    `json:"externalId"`
	Name        string    `json:"name"`
	Dept        string    `json:"dept"`
	DOB         string    `json:"dob"`
	Gender      string    `json:"gender"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	FaceTrained bool      `json:"faceTrained"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Insert carries the caller-supplied fields for a new identity. FaceTrained
// and CreatedAt are always set by the store.
type Insert struct {
	ExternalID string `json:"externalId" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Dept       string `json:"dept" validate:"required"`
	DOB        string `json:"dob" validate:"required"`
	Gender     string `json:"gender" validate:"required"`
	Phone      string `json:"phone" validate:"required,max=15"`
	Email      string `json:"email" validate:"required,email"`
}

// Update lists the mutable fields; nil means leave unchanged.
type Update struct {
	Name        *string `json:"name"`
	Dept        *string `json:"dept"`
	DOB         *string `json:"dob"`
	Gender      *string `json:"gender"`
	Phone       *string `json:"phone"`
	Email       *string `json:"email"`
	FaceTrained *bool   `json:"faceTrained"`
}
