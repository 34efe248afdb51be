// Package distribution selects sales reps for leads. It performs no I/O.
package distribution

import (
	"bytes"
	"slices"

	"github.com/dtroode/salesdesk/internal/model"
)

// EligibleReps filters roster by the config's roles and exclusions and sorts
// the result by user id so indexes are stable between runs.
func EligibleReps(roster []model.User, cfg model.LeadAssignmentConfig) []model.User {
	reps := make([]model.User, 0, len(roster))
	for _, u := range roster {
		if u.DeletedAt != nil || !cfg.HasRole(u.Role) || cfg.Excludes(u.ID) {
			continue
		}
		reps = append(reps, u)
	}

	slices.SortFunc(reps, func(a, b model.User) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return reps
}

// NormalizeCursor maps cursor into [0, n). A negative cursor means no rep has
// been picked yet and maps to n-1, so the next pick is the first rep.
func NormalizeCursor(cursor, n int) int {
	if n <= 0 {
		return -1
	}
	if cursor < 0 {
		return n - 1
	}
	return cursor % n
}
