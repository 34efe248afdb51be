package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/salesdesk/internal/distribution"
	"github.com/dtroode/salesdesk/internal/logger"
	"github.com/dtroode/salesdesk/internal/model"
)

// Distributor assigns unassigned leads to eligible sales reps.
type Distributor struct {
	store    model.AssignmentStore
	reports  model.ReportStorage
	events   model.EventPublisher
	recorder DistributionRecorder
	logger   *logger.Logger
	rng      *rand.Rand
	now      func() time.Time
}

func NewDistributor(
	store model.AssignmentStore,
	reports model.ReportStorage,
	events model.EventPublisher,
	recorder DistributionRecorder,
	logger *logger.Logger,
) *Distributor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Distributor{
		store:    store,
		reports:  reports,
		events:   events,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// batch is the outcome of one committed run.
type batch struct {
	ran    bool
	method model.AssignmentMethod
	result model.DistributionResult
}

// DistributeUnassignedLeads assigns every unassigned lead of the tenant.
// A tenant without an enabled config is a no-op.
func (d *Distributor) DistributeUnassignedLeads(ctx context.Context, tenantID uuid.UUID) (model.DistributionResult, error) {
	d.logger.Debug("Distributor service: distributing unassigned leads",
		"tenant_id", tenantID)

	return d.run(ctx, tenantID, func(ctx context.Context, tx model.AssignmentTx) ([]model.Lead, error) {
		return tx.UnassignedLeads(ctx, model.LeadFilter{})
	})
}

// AssignLead assigns a single lead if it is still unassigned.
func (d *Distributor) AssignLead(ctx context.Context, tenantID, leadID uuid.UUID) (model.DistributionResult, error) {
	d.logger.Debug("Distributor service: assigning lead",
		"tenant_id", tenantID,
		"lead_id", leadID)

	return d.run(ctx, tenantID, func(ctx context.Context, tx model.AssignmentTx) ([]model.Lead, error) {
		lead, err := tx.GetLead(ctx, leadID)
		if err != nil {
			return nil, fmt.Errorf("failed to get lead: %w", err)
		}
		if lead.AssignedTo != nil {
			return nil, nil
		}
		return []model.Lead{lead}, nil
	})
}

func (d *Distributor) GetConfig(ctx context.Context, tenantID uuid.UUID) (model.LeadAssignmentConfig, error) {
	cfg, err := d.store.GetConfig(ctx, tenantID)
	if err != nil {
		return model.LeadAssignmentConfig{}, fmt.Errorf("failed to get assignment config: %w", err)
	}
	return cfg, nil
}

// UpdateConfig replaces the tenant's config. The round-robin cursor is kept.
func (d *Distributor) UpdateConfig(ctx context.Context, cfg model.LeadAssignmentConfig) (model.LeadAssignmentConfig, error) {
	if err := cfg.Validate(); err != nil {
		return model.LeadAssignmentConfig{}, err
	}

	saved, err := d.store.SaveConfig(ctx, cfg)
	if err != nil {
		d.logger.Error("Distributor service: failed to save assignment config",
			"tenant_id", cfg.TenantID,
			"error", err.Error())
		return model.LeadAssignmentConfig{}, fmt.Errorf("failed to save assignment config: %w", err)
	}

	d.logger.Info("Distributor service: assignment config updated",
		"tenant_id", cfg.TenantID,
		"enabled", saved.Enabled,
		"method", saved.Method)

	return saved, nil
}

func (d *Distributor) run(
	ctx context.Context,
	tenantID uuid.UUID,
	load func(ctx context.Context, tx model.AssignmentTx) ([]model.Lead, error),
) (model.DistributionResult, error) {
	started := d.now()

	b := batch{result: emptyResult()}
	err := d.store.InTenantTx(ctx, tenantID, func(ctx context.Context, tx model.AssignmentTx) error {
		b = batch{result: emptyResult()}

		cfg, err := tx.Config(ctx)
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load assignment config: %w", err)
		}
		if !cfg.Enabled {
			return nil
		}

		b.ran = true
		b.method = cfg.Method
		return d.distribute(ctx, tx, cfg, load, &b.result)
	})
	if err != nil {
		if !errors.Is(err, model.ErrNoEligibleReps) && !errors.Is(err, model.ErrNotFound) {
			d.logger.Error("Distributor service: distribution failed",
				"tenant_id", tenantID,
				"error", err.Error())
		}
		return model.DistributionResult{}, fmt.Errorf("failed to distribute leads: %w", err)
	}

	if !b.ran {
		d.logger.Debug("Distributor service: distribution disabled",
			"tenant_id", tenantID)
		return b.result, nil
	}

	d.logger.Info("Distributor service: leads distributed",
		"tenant_id", tenantID,
		"method", b.method,
		"assigned", b.result.AssignedCount,
		"skipped", b.result.SkippedCount,
		"failed", len(b.result.Errors))

	d.recorder.LeadsDistributed(string(b.method), b.result.AssignedCount, b.result.SkippedCount, len(b.result.Errors))
	d.publishAssignments(ctx, tenantID, b)
	d.archive(ctx, tenantID, b, started)

	return b.result, nil
}

func (d *Distributor) distribute(
	ctx context.Context,
	tx model.AssignmentTx,
	cfg model.LeadAssignmentConfig,
	load func(ctx context.Context, tx model.AssignmentTx) ([]model.Lead, error),
	result *model.DistributionResult,
) error {
	roster, err := tx.Roster(ctx)
	if err != nil {
		return fmt.Errorf("failed to load roster: %w", err)
	}

	reps := distribution.EligibleReps(roster, cfg)
	if len(reps) == 0 {
		return model.ErrNoEligibleReps
	}

	pick, err := distribution.PickerFor(cfg.Method, d.rng)
	if err != nil {
		return err
	}

	leads, err := load(ctx, tx)
	if err != nil {
		return fmt.Errorf("failed to load leads: %w", err)
	}
	if len(leads) == 0 {
		return nil
	}

	loads := map[uuid.UUID]int{}
	if cfg.Method == model.MethodLoadBalanced {
		loads, err = tx.AssignedCounts(ctx)
		if err != nil {
			return fmt.Errorf("failed to load assigned counts: %w", err)
		}
		if loads == nil {
			loads = map[uuid.UUID]int{}
		}
	}

	cursorMoved := false
	for _, lead := range leads {
		idx, ok := pick(reps, loads, cfg)
		if !ok {
			result.SkippedCount++
			continue
		}

		rep := reps[idx]
		if err := tx.Assign(ctx, lead.ID, rep.ID); err != nil {
			d.logger.Warn("Distributor service: failed to assign lead",
				"tenant_id", cfg.TenantID,
				"lead_id", lead.ID,
				"error", err.Error())
			result.Errors = append(result.Errors, model.LeadError{LeadID: lead.ID, Err: err})
			continue
		}

		loads[rep.ID]++
		result.AssignedCount++
		result.Assignments = append(result.Assignments, model.Assignment{LeadID: lead.ID, RepID: rep.ID})
		if cfg.Method == model.MethodRoundRobin {
			cfg.LastAssignedIndex = idx
			cursorMoved = true
		}
	}

	if cursorMoved {
		if err := tx.SaveCursor(ctx, cfg.LastAssignedIndex); err != nil {
			return fmt.Errorf("failed to save cursor: %w", err)
		}
	}
	return nil
}

func (d *Distributor) publishAssignments(ctx context.Context, tenantID uuid.UUID, b batch) {
	if d.events == nil || len(b.result.Assignments) == 0 {
		return
	}

	now := d.now()
	events := make([]model.Event, 0, len(b.result.Assignments))
	for _, a := range b.result.Assignments {
		events = append(events, model.Event{
			Type:      model.EventLeadAssigned,
			SubjectID: a.LeadID,
			TenantID:  tenantID,
			Data: map[string]string{
				"assigned_to": a.RepID.String(),
				"method":      string(b.method),
			},
			OccurredAt: now,
		})
	}

	if err := d.events.Publish(ctx, events...); err != nil {
		d.logger.Warn("Distributor service: failed to publish events",
			"tenant_id", tenantID,
			"count", len(events),
			"error", err.Error())
	}
}

func (d *Distributor) archive(ctx context.Context, tenantID uuid.UUID, b batch, started time.Time) {
	if d.reports == nil {
		return
	}

	finished := d.now()
	report := model.DistributionReport{
		TenantID:      tenantID,
		Method:        b.method,
		AssignedCount: b.result.AssignedCount,
		SkippedCount:  b.result.SkippedCount,
		Assignments:   make([]model.ReportEntry, 0, len(b.result.Assignments)),
		Errors:        make([]model.ReportError, 0, len(b.result.Errors)),
		StartedAt:     started.UTC(),
		FinishedAt:    finished.UTC(),
	}
	for _, a := range b.result.Assignments {
		report.Assignments = append(report.Assignments, model.ReportEntry{LeadID: a.LeadID, RepID: a.RepID})
	}
	for _, e := range b.result.Errors {
		report.Errors = append(report.Errors, model.ReportError{LeadID: e.LeadID, Error: e.Err.Error()})
	}

	data, err := json.Marshal(report)
	if err != nil {
		d.logger.Warn("Distributor service: failed to marshal report",
			"tenant_id", tenantID,
			"error", err.Error())
		return
	}

	key := ReportKey(tenantID, finished)
	if err := d.reports.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		d.logger.Warn("Distributor service: failed to archive report",
			"tenant_id", tenantID,
			"key", key,
			"error", err.Error())
	}
}

// ReportKey is the object key of a report finished at t.
func ReportKey(tenantID uuid.UUID, t time.Time) string {
	return fmt.Sprintf("distribution/%s/%s.json", tenantID, t.UTC().Format(time.RFC3339))
}

func emptyResult() model.DistributionResult {
	return model.DistributionResult{
		Errors:      []model.LeadError{},
		Assignments: []model.Assignment{},
	}
}
