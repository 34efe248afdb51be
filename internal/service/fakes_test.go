package service

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/dtroode/salesdesk/internal/model"
)

// fakeTwoFactorStore serializes updates the way a row lock would.
type fakeTwoFactorStore struct {
	mu     sync.Mutex
	users  map[uuid.UUID]bool
	states map[uuid.UUID]model.TwoFactorState
	writes int
}

func newFakeTwoFactorStore(users ...uuid.UUID) *fakeTwoFactorStore {
	s := &fakeTwoFactorStore{
		users:  map[uuid.UUID]bool{},
		states: map[uuid.UUID]model.TwoFactorState{},
	}
	for _, u := range users {
		s.users[u] = true
	}
	return s
}

func (s *fakeTwoFactorStore) Get(_ context.Context, userID uuid.UUID) (model.TwoFactorState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.users[userID] {
		return model.TwoFactorState{}, model.ErrNotFound
	}
	st := s.states[userID].Clone()
	st.UserID = userID
	return st, nil
}

func (s *fakeTwoFactorStore) Update(_ context.Context, userID uuid.UUID, fn func(*model.TwoFactorState) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.users[userID] {
		return model.ErrNotFound
	}
	current := s.states[userID].Clone()
	current.UserID = userID

	next := current.Clone()
	if err := fn(&next); err != nil {
		return err
	}
	if next.Equal(current) {
		return nil
	}

	s.writes++
	if next.IsZero() {
		delete(s.states, userID)
		return nil
	}
	s.states[userID] = next
	return nil
}

func (s *fakeTwoFactorStore) state(userID uuid.UUID) (model.TwoFactorState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.states[userID]
	return st.Clone(), ok
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fakeTenant struct {
	config *model.LeadAssignmentConfig
	users  []model.User
	leads  []model.Lead
}

func (t *fakeTenant) clone() *fakeTenant {
	c := &fakeTenant{
		users: slices.Clone(t.users),
		leads: make([]model.Lead, len(t.leads)),
	}
	if t.config != nil {
		cfg := *t.config
		c.config = &cfg
	}
	for i, l := range t.leads {
		c.leads[i] = l
		if l.AssignedTo != nil {
			id := *l.AssignedTo
			c.leads[i].AssignedTo = &id
		}
	}
	return c
}

// fakeAssignmentStore runs one tenant transaction at a time and restores the
// tenant snapshot when fn fails.
type fakeAssignmentStore struct {
	mu          sync.Mutex
	tenants     map[uuid.UUID]*fakeTenant
	failAssign  map[uuid.UUID]error
	cursorSaves int
	configErr   error
}

func newFakeAssignmentStore() *fakeAssignmentStore {
	return &fakeAssignmentStore{
		tenants:    map[uuid.UUID]*fakeTenant{},
		failAssign: map[uuid.UUID]error{},
	}
}

func (s *fakeAssignmentStore) tenant(id uuid.UUID) *fakeTenant {
	t, ok := s.tenants[id]
	if !ok {
		t = &fakeTenant{}
		s.tenants[id] = t
	}
	return t
}

func (s *fakeAssignmentStore) GetConfig(_ context.Context, tenantID uuid.UUID) (model.LeadAssignmentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return model.LeadAssignmentConfig{}, model.ErrNotFound
	}
	if t.config == nil {
		return model.DefaultAssignmentConfig(tenantID), nil
	}
	return *t.config, nil
}

func (s *fakeAssignmentStore) SaveConfig(_ context.Context, cfg model.LeadAssignmentConfig) (model.LeadAssignmentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[cfg.TenantID]
	if !ok {
		return model.LeadAssignmentConfig{}, model.ErrNotFound
	}
	cfg.LastAssignedIndex = -1
	if t.config != nil {
		cfg.LastAssignedIndex = t.config.LastAssignedIndex
	}
	t.config = &cfg
	return cfg, nil
}

func (s *fakeAssignmentStore) InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(context.Context, model.AssignmentTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tenants[tenantID]
	if !ok {
		return model.ErrNotFound
	}
	snapshot := t.clone()
	if err := fn(ctx, &fakeAssignmentTx{store: s, tenant: t, tenantID: tenantID}); err != nil {
		s.tenants[tenantID] = snapshot
		return err
	}
	return nil
}

type fakeAssignmentTx struct {
	store    *fakeAssignmentStore
	tenant   *fakeTenant
	tenantID uuid.UUID
}

func (tx *fakeAssignmentTx) Config(context.Context) (model.LeadAssignmentConfig, error) {
	if tx.store.configErr != nil {
		return model.LeadAssignmentConfig{}, tx.store.configErr
	}
	if tx.tenant.config == nil {
		return model.LeadAssignmentConfig{}, model.ErrNotFound
	}
	return *tx.tenant.config, nil
}

func (tx *fakeAssignmentTx) Roster(context.Context) ([]model.User, error) {
	return slices.Clone(tx.tenant.users), nil
}

func (tx *fakeAssignmentTx) UnassignedLeads(_ context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	var out []model.Lead
	for _, l := range tx.tenant.leads {
		if l.AssignedTo != nil {
			continue
		}
		if filter.LeadID != uuid.Nil && l.ID != filter.LeadID {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (tx *fakeAssignmentTx) GetLead(_ context.Context, leadID uuid.UUID) (model.Lead, error) {
	for _, l := range tx.tenant.leads {
		if l.ID == leadID {
			return l, nil
		}
	}
	return model.Lead{}, model.ErrNotFound
}

func (tx *fakeAssignmentTx) AssignedCounts(context.Context) (map[uuid.UUID]int, error) {
	counts := map[uuid.UUID]int{}
	for _, l := range tx.tenant.leads {
		if l.AssignedTo != nil {
			counts[*l.AssignedTo]++
		}
	}
	return counts, nil
}

func (tx *fakeAssignmentTx) Assign(_ context.Context, leadID, repID uuid.UUID) error {
	if err := tx.store.failAssign[leadID]; err != nil {
		return err
	}
	for i := range tx.tenant.leads {
		l := &tx.tenant.leads[i]
		if l.ID != leadID {
			continue
		}
		if l.AssignedTo != nil {
			return model.ErrLeadAlreadyAssigned
		}
		id := repID
		l.AssignedTo = &id
		return nil
	}
	return model.ErrNotFound
}

func (tx *fakeAssignmentTx) SaveCursor(_ context.Context, cursor int) error {
	tx.store.cursorSaves++
	tx.tenant.config.LastAssignedIndex = cursor
	return nil
}
