package recognizer

import (
	"context"
	"math/rand"
	"sync"

	"facetrack/internal/identity"
)

// Population lists the identities the simulator may "recognize".
type Population interface {
	List(ctx context.Context, role identity.Role) ([]identity.Identity, error)
}

// Simulator stands in for the recognition backend when it is unreachable.
// It draws one uniform sample: with probability rate it recognizes a
// uniformly chosen identity from the union of students and faculty, with a
// confidence uniform in [confMin, confMax]; otherwise it reports no match.
// It is a pure decision over the current population plus randomness and
// performs no writes.
type Simulator struct {
	population Population
	rate       float64
	confMin    int
	confMax    int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulator creates a simulator with the given policy constants. rng may
// be nil, in which case a time-seeded source is used; tests pass a seeded one.
func NewSimulator(population Population, rate float64, confMin, confMax int, rng *rand.Rand) *Simulator {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	if confMax < confMin {
		confMax = confMin
	}
	return &Simulator{
		population: population,
		rate:       rate,
		confMin:    confMin,
		confMax:    confMax,
		rng:        rng,
	}
}

// Recognize runs one simulated recognition attempt. An empty population never
// recognizes anyone.
func (s *Simulator) Recognize(ctx context.Context) (Result, error) {
	students, err := s.population.List(ctx, identity.RoleStudent)
	if err != nil {
		return Result{}, err
	}
	faculty, err := s.population.List(ctx, identity.RoleFaculty)
	if err != nil {
		return Result{}, err
	}
	all := append(students, faculty...)
	if len(all) == 0 {
		return Result{}, nil
	}

	s.mu.Lock()
	hit := s.rng.Float64() < s.rate
	pick := s.rng.Intn(len(all))
	confidence := s.confMin + s.rng.Intn(s.confMax-s.confMin+1)
	s.mu.Unlock()

	if !hit {
		return Result{}, nil
	}
	return Result{
		Recognized: true,
		UserID:     all[pick].ExternalID,
		Confidence: confidence,
	}, nil
}
