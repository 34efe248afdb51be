package distribution

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/salesdesk/internal/model"
)

func rep(b byte, role model.Role) model.User {
	var id uuid.UUID
	id[0] = b
	return model.User{ID: id, Role: role}
}

func intPtr(v int) *int { return &v }

func TestEligibleReps(t *testing.T) {
	a := rep(1, model.RoleUser)
	b := rep(2, model.RoleManager)
	c := rep(3, model.RoleAdmin)
	viewer := rep(4, model.RoleViewer)
	deleted := rep(5, model.RoleUser)
	now := time.Now()
	deleted.DeletedAt = &now

	cfg := model.DefaultAssignmentConfig(uuid.New())

	t.Run("sorted by id and filtered by role", func(t *testing.T) {
		got := EligibleReps([]model.User{c, viewer, a, deleted, b}, cfg)
		assert.Equal(t, []model.User{a, b, c}, got)
	})

	t.Run("excluded users dropped", func(t *testing.T) {
		cfg := cfg
		cfg.ExcludeUserIDs = []uuid.UUID{b.ID}
		got := EligibleReps([]model.User{a, b, c}, cfg)
		assert.Equal(t, []model.User{a, c}, got)
	})

	t.Run("no matching role", func(t *testing.T) {
		cfg := cfg
		cfg.EligibleRoles = []model.Role{model.RoleViewer}
		got := EligibleReps([]model.User{a, b, c}, cfg)
		assert.Empty(t, got)
	})
}

func TestNormalizeCursor(t *testing.T) {
	tests := []struct {
		cursor, n, want int
	}{
		{cursor: -1, n: 3, want: 2},
		{cursor: -7, n: 3, want: 2},
		{cursor: 0, n: 3, want: 0},
		{cursor: 2, n: 3, want: 2},
		{cursor: 5, n: 3, want: 2},
		{cursor: 4, n: 2, want: 0},
		{cursor: 3, n: 0, want: -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeCursor(tt.cursor, tt.n), "cursor=%d n=%d", tt.cursor, tt.n)
	}
}

func TestRoundRobin(t *testing.T) {
	reps := []model.User{rep(1, model.RoleUser), rep(2, model.RoleUser), rep(3, model.RoleUser)}

	t.Run("continues after last assigned", func(t *testing.T) {
		cfg := model.LeadAssignmentConfig{LastAssignedIndex: 2}
		idx, ok := RoundRobin(reps, nil, cfg)
		require.True(t, ok)
		assert.Equal(t, 0, idx)

		cfg.LastAssignedIndex = idx
		idx, ok = RoundRobin(reps, nil, cfg)
		require.True(t, ok)
		assert.Equal(t, 1, idx)
	})

	t.Run("fresh cursor starts at first rep", func(t *testing.T) {
		idx, ok := RoundRobin(reps, nil, model.LeadAssignmentConfig{LastAssignedIndex: -1})
		require.True(t, ok)
		assert.Equal(t, 0, idx)
	})

	t.Run("cursor beyond shrunk roster", func(t *testing.T) {
		idx, ok := RoundRobin(reps[:2], nil, model.LeadAssignmentConfig{LastAssignedIndex: 7})
		require.True(t, ok)
		assert.Equal(t, 0, idx)
	})

	t.Run("every rep once per cycle", func(t *testing.T) {
		cfg := model.LeadAssignmentConfig{LastAssignedIndex: -1}
		seen := map[int]int{}
		for range reps {
			idx, ok := RoundRobin(reps, nil, cfg)
			require.True(t, ok)
			seen[idx]++
			cfg.LastAssignedIndex = idx
		}
		assert.Equal(t, map[int]int{0: 1, 1: 1, 2: 1}, seen)
	})

	t.Run("empty", func(t *testing.T) {
		_, ok := RoundRobin(nil, nil, model.LeadAssignmentConfig{})
		assert.False(t, ok)
	})
}

func TestLoadBalanced(t *testing.T) {
	a, b, c := rep(1, model.RoleUser), rep(2, model.RoleUser), rep(3, model.RoleUser)
	reps := []model.User{a, b, c}

	tests := []struct {
		name     string
		loads    map[uuid.UUID]int
		maxLeads *int
		want     int
		wantOK   bool
	}{
		{name: "fewest leads", loads: map[uuid.UUID]int{a.ID: 3, b.ID: 1, c.ID: 2}, want: 1, wantOK: true},
		{name: "tie by id", loads: map[uuid.UUID]int{a.ID: 2, b.ID: 1, c.ID: 1}, want: 1, wantOK: true},
		{name: "no loads", loads: nil, want: 0, wantOK: true},
		{name: "capped rep skipped", loads: map[uuid.UUID]int{a.ID: 2, b.ID: 2, c.ID: 3}, maxLeads: intPtr(3), want: 0, wantOK: true},
		{name: "least loaded at cap", loads: map[uuid.UUID]int{a.ID: 2, b.ID: 2, c.ID: 2}, maxLeads: intPtr(2), want: -1, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, ok := LoadBalanced(reps, tt.loads, model.LeadAssignmentConfig{MaxLeadsPerRep: tt.maxLeads})
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, idx)
		})
	}
}

func TestLoadBalanced_NeverExceedsCap(t *testing.T) {
	reps := []model.User{rep(1, model.RoleUser), rep(2, model.RoleUser)}
	loads := map[uuid.UUID]int{}
	cfg := model.LeadAssignmentConfig{MaxLeadsPerRep: intPtr(2)}

	assigned, skipped := 0, 0
	for range 7 {
		idx, ok := LoadBalanced(reps, loads, cfg)
		if !ok {
			skipped++
			continue
		}
		loads[reps[idx].ID]++
		assigned++
	}

	assert.Equal(t, 4, assigned)
	assert.Equal(t, 3, skipped)
	for _, r := range reps {
		assert.Equal(t, 2, loads[r.ID])
	}
}

func TestRandom(t *testing.T) {
	reps := []model.User{rep(1, model.RoleUser), rep(2, model.RoleUser), rep(3, model.RoleUser)}
	pick := NewRandom(rand.New(rand.NewPCG(1, 2)))

	counts := make([]int, len(reps))
	for range 300 {
		idx, ok := pick(reps, nil, model.LeadAssignmentConfig{})
		require.True(t, ok)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(reps))
		counts[idx]++
	}
	for i, n := range counts {
		assert.Positive(t, n, "rep %d never picked", i)
	}

	_, ok := NewRandom(nil)(reps[:1], nil, model.LeadAssignmentConfig{})
	assert.True(t, ok)
}

func TestPickerFor(t *testing.T) {
	for _, m := range []model.AssignmentMethod{model.MethodRoundRobin, model.MethodLoadBalanced, model.MethodRandom} {
		p, err := PickerFor(m, nil)
		require.NoError(t, err, m)
		assert.NotNil(t, p)
	}

	_, err := PickerFor("weighted", nil)
	assert.ErrorIs(t, err, model.ErrUnknownMethod)
}
