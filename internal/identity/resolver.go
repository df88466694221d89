package identity

import "context"

// Lookup is the slice of the repository the resolver needs.
type Lookup interface {
	GetByExternalID(ctx context.Context, role Role, externalID string) (*Identity, error)
}

// Resolver maps a recognizer-reported id to a stored identity. The student
// and faculty id spaces are assumed disjoint; when both somehow contain the
// same literal id, the student record wins.
type Resolver struct {
	repo Lookup
}

// NewResolver creates a resolver over the given lookup.
func NewResolver(repo Lookup) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve looks the id up as a roll number first, then as a staff id.
// Returns (nil, nil) when neither store knows it.
func (r *Resolver) Resolve(ctx context.Context, externalID string) (*Identity, error) {
	student, err := r.repo.GetByExternalID(ctx, RoleStudent, externalID)
	if err != nil {
		return nil, err
	}
	if student != nil {
		return student, nil
	}
	return r.repo.GetByExternalID(ctx, RoleFaculty, externalID)
}
