package distribution

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/dtroode/salesdesk/internal/model"
)

// Picker returns the index in reps of the rep that receives the next lead.
// ok is false when no rep can take it. reps must be non-empty and sorted as
// EligibleReps returns them; loads holds the current lead count per rep.
type Picker func(reps []model.User, loads map[uuid.UUID]int, cfg model.LeadAssignmentConfig) (idx int, ok bool)

// RoundRobin picks the rep after the one at cfg.LastAssignedIndex.
func RoundRobin(reps []model.User, _ map[uuid.UUID]int, cfg model.LeadAssignmentConfig) (int, bool) {
	if len(reps) == 0 {
		return -1, false
	}
	return (NormalizeCursor(cfg.LastAssignedIndex, len(reps)) + 1) % len(reps), true
}

// LoadBalanced picks the rep with the fewest leads, the lowest id on ties.
// Reps at or above cfg.MaxLeadsPerRep are not considered.
func LoadBalanced(reps []model.User, loads map[uuid.UUID]int, cfg model.LeadAssignmentConfig) (int, bool) {
	best := -1
	for i, r := range reps {
		load := loads[r.ID]
		if cfg.MaxLeadsPerRep != nil && load >= *cfg.MaxLeadsPerRep {
			continue
		}
		// reps are sorted by id, so keeping the first minimum breaks ties by id.
		if best < 0 || load < loads[reps[best].ID] {
			best = i
		}
	}
	return best, best >= 0
}

// NewRandom returns a uniform picker drawing from rng. A nil rng uses the
// global source.
func NewRandom(rng *rand.Rand) Picker {
	return func(reps []model.User, _ map[uuid.UUID]int, _ model.LeadAssignmentConfig) (int, bool) {
		if len(reps) == 0 {
			return -1, false
		}
		if rng == nil {
			return rand.IntN(len(reps)), true
		}
		return rng.IntN(len(reps)), true
	}
}

// PickerFor returns the picker implementing method.
func PickerFor(method model.AssignmentMethod, rng *rand.Rand) (Picker, error) {
	switch method {
	case model.MethodRoundRobin:
		return RoundRobin, nil
	case model.MethodLoadBalanced:
		return LoadBalanced, nil
	case model.MethodRandom:
		return NewRandom(rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownMethod, method)
	}
}
