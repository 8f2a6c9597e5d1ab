// Package balancer picks the least-loaded examiner for a practical exam.
package balancer

import (
	"errors"
	"math/rand/v2"
)

// ErrNoExaminers is returned when there is no active examiner to assign.
var ErrNoExaminers = errors.New("no active examiners available")

// Load is an examiner's current workload.
type Load struct {
	ExaminerID int
	Count      int
}

// Rand is the subset of *rand.Rand used for tie breaking.
type Rand interface {
	IntN(n int) int
}

// PickLeastLoaded returns an examiner holding the minimal count, choosing
// uniformly at random among ties. A nil rng uses the global source.
func PickLeastLoaded(loads []Load, rng Rand) (Load, error) {
	if len(loads) == 0 {
		return Load{}, ErrNoExaminers
	}

	minCount := loads[0].Count
	for _, l := range loads[1:] {
		if l.Count < minCount {
			minCount = l.Count
		}
	}

	candidates := make([]Load, 0, len(loads))
	for _, l := range loads {
		if l.Count == minCount {
			candidates = append(candidates, l)
		}
	}

	if len(candidates) == 1 {
		return candidates[0], nil
	}
	if rng == nil {
		return candidates[rand.IntN(len(candidates))], nil
	}
	return candidates[rng.IntN(len(candidates))], nil
}
