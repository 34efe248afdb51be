package service

import (
	"context"
	"encoding/json"
	"io"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/salesdesk/internal/mocks"
	"github.com/dtroode/salesdesk/internal/model"
	"github.com/dtroode/salesdesk/internal/testutil"
)

type distributorFixture struct {
	svc      *Distributor
	store    *fakeAssignmentStore
	events   *recordingPublisher
	tenantID uuid.UUID
	reps     []model.User
	now      time.Time
}

func orderedID(prefix byte) uuid.UUID {
	id := uuid.New()
	id[0] = prefix
	return id
}

func newDistributorFixture(t *testing.T, repCount int) *distributorFixture {
	t.Helper()

	f := &distributorFixture{
		store:    newFakeAssignmentStore(),
		events:   &recordingPublisher{},
		tenantID: uuid.New(),
		now:      time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	tenant := f.store.tenant(f.tenantID)
	for i := range repCount {
		u := model.User{ID: orderedID(byte(i + 1)), TenantID: f.tenantID, Role: model.RoleUser}
		f.reps = append(f.reps, u)
		tenant.users = append(tenant.users, u)
	}

	f.svc = NewDistributor(f.store, nil, f.events, nil, testutil.MakeNoopLogger())
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *distributorFixture) configure(mutate func(cfg *model.LeadAssignmentConfig)) {
	cfg := model.DefaultAssignmentConfig(f.tenantID)
	cfg.Enabled = true
	if mutate != nil {
		mutate(&cfg)
	}
	f.store.tenant(f.tenantID).config = &cfg
}

func (f *distributorFixture) addLeads(n int) []uuid.UUID {
	tenant := f.store.tenant(f.tenantID)
	ids := make([]uuid.UUID, n)
	for i := range n {
		ids[i] = uuid.New()
		tenant.leads = append(tenant.leads, model.Lead{
			ID:        ids[i],
			TenantID:  f.tenantID,
			CreatedAt: f.now.Add(time.Duration(len(tenant.leads)) * time.Minute),
		})
	}
	return ids
}

func (f *distributorFixture) assignee(t *testing.T, leadID uuid.UUID) *uuid.UUID {
	t.Helper()
	for _, l := range f.store.tenant(f.tenantID).leads {
		if l.ID == leadID {
			return l.AssignedTo
		}
	}
	t.Fatalf("lead %s not found", leadID)
	return nil
}

func (f *distributorFixture) cursor() int {
	return f.store.tenant(f.tenantID).config.LastAssignedIndex
}

func TestDistributor_RoundRobin_ContinuesFromCursor(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 3)
	f.configure(func(cfg *model.LeadAssignmentConfig) { cfg.LastAssignedIndex = 2 })
	leads := f.addLeads(2)

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)

	assert.Equal(t, 2, res.AssignedCount)
	assert.Equal(t, 0, res.SkippedCount)
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.Errors)
	assert.Equal(t, f.reps[0].ID, *f.assignee(t, leads[0]))
	assert.Equal(t, f.reps[1].ID, *f.assignee(t, leads[1]))
	assert.Equal(t, 1, f.cursor())
	assert.Equal(t, 1, f.store.cursorSaves)
}

func TestDistributor_RoundRobin_OneLeadPerRep(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 4)
	f.configure(nil)
	leads := f.addLeads(4)

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	require.Equal(t, 4, res.AssignedCount)

	seen := map[uuid.UUID]int{}
	for _, id := range leads {
		seen[*f.assignee(t, id)]++
	}
	assert.Len(t, seen, 4)
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}
	assert.Equal(t, 3, f.cursor())
}

func TestDistributor_RoundRobin_ShrunkRoster(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(func(cfg *model.LeadAssignmentConfig) { cfg.LastAssignedIndex = 5 })
	leads := f.addLeads(1)

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AssignedCount)
	assert.Equal(t, f.reps[0].ID, *f.assignee(t, leads[0]))
	assert.Equal(t, 0, f.cursor())
}

func TestDistributor_LoadBalanced_Cap(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(func(cfg *model.LeadAssignmentConfig) {
		cfg.Method = model.MethodLoadBalanced
		limit := 2
		cfg.MaxLeadsPerRep = &limit
	})

	tenant := f.store.tenant(f.tenantID)
	owner := f.reps[0].ID
	tenant.leads = append(tenant.leads, model.Lead{ID: uuid.New(), TenantID: f.tenantID, AssignedTo: &owner})
	leads := f.addLeads(5)

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)

	assert.Equal(t, 3, res.AssignedCount)
	assert.Equal(t, 2, res.SkippedCount)
	assert.Empty(t, res.Errors)

	assert.Equal(t, f.reps[1].ID, *f.assignee(t, leads[0]))
	assert.Equal(t, f.reps[0].ID, *f.assignee(t, leads[1]))
	assert.Equal(t, f.reps[1].ID, *f.assignee(t, leads[2]))
	assert.Nil(t, f.assignee(t, leads[3]))
	assert.Nil(t, f.assignee(t, leads[4]))
	assert.Equal(t, -1, f.cursor())
	assert.Zero(t, f.store.cursorSaves)
}

func TestDistributor_Random(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 3)
	f.configure(func(cfg *model.LeadAssignmentConfig) { cfg.Method = model.MethodRandom })
	f.svc.rng = rand.New(rand.NewPCG(7, 11))
	leads := f.addLeads(30)

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 30, res.AssignedCount)

	valid := map[uuid.UUID]bool{}
	for _, r := range f.reps {
		valid[r.ID] = true
	}
	for _, id := range leads {
		assert.True(t, valid[*f.assignee(t, id)])
	}
}

func TestDistributor_NoLeads(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(nil)

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AssignedCount)
	assert.Equal(t, 0, res.SkippedCount)
	assert.NotNil(t, res.Errors)
	assert.Empty(t, res.Errors)
	assert.Zero(t, f.store.cursorSaves)
}

func TestDistributor_NoEligibleReps(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(func(cfg *model.LeadAssignmentConfig) {
		cfg.EligibleRoles = []model.Role{model.RoleViewer}
		cfg.LastAssignedIndex = 0
	})
	leads := f.addLeads(2)

	_, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	assert.ErrorIs(t, err, model.ErrNoEligibleReps)

	for _, id := range leads {
		assert.Nil(t, f.assignee(t, id))
	}
	assert.Equal(t, 0, f.cursor())
	assert.Empty(t, f.events.types())
}

func TestDistributor_ExcludedUsers(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 3)
	f.configure(func(cfg *model.LeadAssignmentConfig) {
		cfg.ExcludeUserIDs = []uuid.UUID{f.reps[0].ID, f.reps[2].ID}
	})
	leads := f.addLeads(2)

	_, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	for _, id := range leads {
		assert.Equal(t, f.reps[1].ID, *f.assignee(t, id))
	}
}

func TestDistributor_Noop(t *testing.T) {
	t.Parallel()

	t.Run("disabled config", func(t *testing.T) {
		f := newDistributorFixture(t, 2)
		f.configure(func(cfg *model.LeadAssignmentConfig) { cfg.Enabled = false })
		leads := f.addLeads(1)

		res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, 0, res.AssignedCount)
		assert.Nil(t, f.assignee(t, leads[0]))
	})

	t.Run("no config", func(t *testing.T) {
		f := newDistributorFixture(t, 2)
		f.addLeads(1)

		res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
		require.NoError(t, err)
		assert.Equal(t, 0, res.AssignedCount)
		assert.NotNil(t, res.Errors)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		f := newDistributorFixture(t, 2)
		_, err := f.svc.DistributeUnassignedLeads(context.Background(), uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestDistributor_ConfigLoadFailure(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(nil)
	f.store.configErr = assert.AnError
	leads := f.addLeads(1)

	_, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, f.assignee(t, leads[0]))
}

func TestDistributor_PerLeadFailure(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 3)
	f.configure(nil)
	leads := f.addLeads(3)
	f.store.failAssign[leads[1]] = assert.AnError

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)

	assert.Equal(t, 2, res.AssignedCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, leads[1], res.Errors[0].LeadID)
	assert.ErrorIs(t, res.Errors[0], assert.AnError)

	assert.Equal(t, f.reps[0].ID, *f.assignee(t, leads[0]))
	assert.Nil(t, f.assignee(t, leads[1]))
	assert.Equal(t, f.reps[1].ID, *f.assignee(t, leads[2]))
	assert.Equal(t, 1, f.cursor())
}

func TestDistributor_LeadAssignedMeanwhile(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(nil)
	leads := f.addLeads(1)
	f.store.failAssign[leads[0]] = model.ErrLeadAlreadyAssigned

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	require.Len(t, res.Errors, 1)
	assert.ErrorIs(t, res.Errors[0], model.ErrLeadAlreadyAssigned)
	assert.Equal(t, -1, f.cursor())
}

func TestDistributor_RerunOnlyTouchesUnassigned(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(nil)
	leads := f.addLeads(2)

	_, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	first := *f.assignee(t, leads[0])

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.AssignedCount)
	assert.Equal(t, first, *f.assignee(t, leads[0]))
	assert.Equal(t, 1, f.cursor())
}

func TestDistributor_AssignLead(t *testing.T) {
	t.Parallel()

	t.Run("assigns only the given lead", func(t *testing.T) {
		f := newDistributorFixture(t, 2)
		f.configure(nil)
		leads := f.addLeads(2)

		res, err := f.svc.AssignLead(context.Background(), f.tenantID, leads[1])
		require.NoError(t, err)
		assert.Equal(t, 1, res.AssignedCount)
		assert.Nil(t, f.assignee(t, leads[0]))
		assert.Equal(t, f.reps[0].ID, *f.assignee(t, leads[1]))
		assert.Equal(t, 0, f.cursor())
	})

	t.Run("already assigned", func(t *testing.T) {
		f := newDistributorFixture(t, 2)
		f.configure(nil)
		leads := f.addLeads(1)
		_, err := f.svc.AssignLead(context.Background(), f.tenantID, leads[0])
		require.NoError(t, err)

		res, err := f.svc.AssignLead(context.Background(), f.tenantID, leads[0])
		require.NoError(t, err)
		assert.Equal(t, 0, res.AssignedCount)
		assert.Equal(t, 0, f.cursor())
	})

	t.Run("unknown lead", func(t *testing.T) {
		f := newDistributorFixture(t, 2)
		f.configure(nil)

		_, err := f.svc.AssignLead(context.Background(), f.tenantID, uuid.New())
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestDistributor_Config(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 1)
	ctx := context.Background()

	cfg, err := f.svc.GetConfig(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultAssignmentConfig(f.tenantID), cfg)

	_, err = f.svc.GetConfig(ctx, uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)

	f.configure(func(cfg *model.LeadAssignmentConfig) { cfg.LastAssignedIndex = 4 })

	update := model.DefaultAssignmentConfig(f.tenantID)
	update.Enabled = true
	update.Method = model.MethodLoadBalanced
	update.LastAssignedIndex = 99
	saved, err := f.svc.UpdateConfig(ctx, update)
	require.NoError(t, err)
	assert.Equal(t, model.MethodLoadBalanced, saved.Method)
	assert.Equal(t, 4, saved.LastAssignedIndex)

	bad := update
	bad.Method = "weighted"
	_, err = f.svc.UpdateConfig(ctx, bad)
	assert.ErrorIs(t, err, model.ErrUnknownMethod)

	zero := 0
	bad = update
	bad.MaxLeadsPerRep = &zero
	_, err = f.svc.UpdateConfig(ctx, bad)
	assert.ErrorIs(t, err, model.ErrInvalidConfig)

	bad = update
	bad.TenantID = uuid.New()
	_, err = f.svc.UpdateConfig(ctx, bad)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDistributor_EventsAndReport(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 2)
	f.configure(nil)
	leads := f.addLeads(2)

	reports := mocks.NewReportStorage(t)
	f.svc.reports = reports

	var report model.DistributionReport
	wantKey := "distribution/" + f.tenantID.String() + "/2026-03-01T09:00:00Z.json"
	reports.On("Upload", mock.Anything, wantKey, mock.Anything, mock.AnythingOfType("int64"), "application/json").
		Run(func(args mock.Arguments) {
			data, err := io.ReadAll(args.Get(2).(io.Reader))
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(data, &report))
		}).
		Return(nil).
		Once()

	_, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)

	assert.Equal(t, []string{model.EventLeadAssigned, model.EventLeadAssigned}, f.events.types())
	assert.Equal(t, leads[0], f.events.events[0].SubjectID)
	assert.Equal(t, f.reps[0].ID.String(), f.events.events[0].Data["assigned_to"])

	assert.Equal(t, f.tenantID, report.TenantID)
	assert.Equal(t, model.MethodRoundRobin, report.Method)
	assert.Equal(t, 2, report.AssignedCount)
	assert.Len(t, report.Assignments, 2)
	assert.NotNil(t, report.Errors)
}

func TestDistributor_PublishesOnlyCommittedAssignments(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 1)
	f.configure(nil)
	leads := f.addLeads(1)

	publisher := mocks.NewEventPublisher(t)
	publisher.On("Publish", mock.Anything, mock.MatchedBy(func(events []model.Event) bool {
		return len(events) == 1 && events[0].Type == model.EventLeadAssigned && events[0].SubjectID == leads[0]
	})).Return(nil).Once()
	f.svc.events = publisher

	_, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)

	// Nothing is left to assign, so the second run must not publish.
	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Zero(t, res.AssignedCount)
}

func TestDistributor_SideEffectFailuresIgnored(t *testing.T) {
	t.Parallel()

	f := newDistributorFixture(t, 1)
	f.configure(nil)
	f.addLeads(1)
	f.events.err = assert.AnError

	reports := mocks.NewReportStorage(t)
	reports.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	f.svc.reports = reports

	res, err := f.svc.DistributeUnassignedLeads(context.Background(), f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.AssignedCount)
}

func TestReportKey(t *testing.T) {
	id := uuid.MustParse("7f1c0a9e-8a0c-4c55-9d77-2b7a4f0c1e11")
	at := time.Date(2026, 3, 1, 11, 30, 0, 0, time.FixedZone("X", 2*3600))

	key := ReportKey(id, at)
	assert.Equal(t, "distribution/7f1c0a9e-8a0c-4c55-9d77-2b7a4f0c1e11/2026-03-01T09:30:00Z.json", key)
	assert.True(t, strings.HasSuffix(key, ".json"))
}
