package model

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// AssignmentStore persists lead assignment configs and runs distribution
// batches.
//
// GetConfig returns DefaultAssignmentConfig for a tenant that never saved one
// and ErrNotFound for an unknown tenant. SaveConfig never changes
// LastAssignedIndex.
//
// InTenantTx runs fn inside one transaction scoped to the tenant and returns
// ErrNotFound when the tenant does not exist. The transaction commits when fn
// returns nil and rolls back otherwise. Concurrent calls for the same tenant
// are serialized once fn has loaded the config.
type AssignmentStore interface {
	GetConfig(ctx context.Context, tenantID uuid.UUID) (LeadAssignmentConfig, error)
	SaveConfig(ctx context.Context, cfg LeadAssignmentConfig) (LeadAssignmentConfig, error)
	InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(ctx context.Context, tx AssignmentTx) error) error
}

// AssignmentTx is the unit of work of a single distribution batch.
type AssignmentTx interface {
	// Config loads and locks the tenant's config. ErrNotFound means the tenant
	// never configured distribution.
	Config(ctx context.Context) (LeadAssignmentConfig, error)
	// Roster returns the tenant's active users.
	Roster(ctx context.Context) ([]User, error)
	// UnassignedLeads returns unassigned leads in creation order.
	UnassignedLeads(ctx context.Context, filter LeadFilter) ([]Lead, error)
	// GetLead returns a lead of the tenant regardless of its assignment.
	GetLead(ctx context.Context, leadID uuid.UUID) (Lead, error)
	// AssignedCounts returns the number of leads currently assigned to each rep.
	AssignedCounts(ctx context.Context) (map[uuid.UUID]int, error)
	// Assign sets the lead's owner. A failure only undoes this lead.
	Assign(ctx context.Context, leadID, repID uuid.UUID) error
	// SaveCursor persists the round-robin cursor.
	SaveCursor(ctx context.Context, cursor int) error
}

// AssignmentMethod selects the distribution strategy.
type AssignmentMethod string

const (
	MethodRoundRobin   AssignmentMethod = "round_robin"
	MethodLoadBalanced AssignmentMethod = "load_balanced"
	MethodRandom       AssignmentMethod = "random"
)

// Valid reports whether m is a known method.
func (m AssignmentMethod) Valid() bool {
	switch m {
	case MethodRoundRobin, MethodLoadBalanced, MethodRandom:
		return true
	}
	return false
}

// LeadAssignmentConfig is a tenant's distribution settings.
// LastAssignedIndex is the index of the rep that received the previous
// round-robin assignment; -1 means none yet.
type LeadAssignmentConfig struct {
	TenantID          uuid.UUID
	Enabled           bool
	Method            AssignmentMethod
	EligibleRoles     []Role
	ExcludeUserIDs    []uuid.UUID
	MaxLeadsPerRep    *int
	LastAssignedIndex int
	UpdatedAt         time.Time
}

// DefaultAssignmentConfig is the config of a tenant that never saved one.
func DefaultAssignmentConfig(tenantID uuid.UUID) LeadAssignmentConfig {
	return LeadAssignmentConfig{
		TenantID:          tenantID,
		Method:            MethodRoundRobin,
		EligibleRoles:     []Role{RoleUser, RoleManager, RoleAdmin},
		LastAssignedIndex: -1,
	}
}

// Validate checks the user-editable fields.
func (c LeadAssignmentConfig) Validate() error {
	if !c.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, c.Method)
	}
	for _, r := range c.EligibleRoles {
		if !r.Valid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidConfig, r)
		}
	}
	if c.MaxLeadsPerRep != nil && *c.MaxLeadsPerRep <= 0 {
		return fmt.Errorf("%w: max leads per rep must be positive", ErrInvalidConfig)
	}
	return nil
}

// HasRole reports whether role is eligible for assignment.
func (c LeadAssignmentConfig) HasRole(role Role) bool {
	return slices.Contains(c.EligibleRoles, role)
}

// Excludes reports whether the user is excluded from assignment.
func (c LeadAssignmentConfig) Excludes(userID uuid.UUID) bool {
	return slices.Contains(c.ExcludeUserIDs, userID)
}

// Assignment records one lead handed to one rep.
type Assignment struct {
	LeadID uuid.UUID
	RepID  uuid.UUID
}

// LeadError is a per-lead write failure inside a batch.
type LeadError struct {
	LeadID uuid.UUID
	Err    error
}

func (e LeadError) Error() string {
	return fmt.Sprintf("lead %s: %v", e.LeadID, e.Err)
}

func (e LeadError) Unwrap() error {
	return e.Err
}

// DistributionResult summarizes a distribution batch.
type DistributionResult struct {
	AssignedCount int
	SkippedCount  int
	Errors        []LeadError
	Assignments   []Assignment
}

// DistributionReport is the archived record of a committed batch.
type DistributionReport struct {
	TenantID      uuid.UUID        `json:"tenant_id"`
	Method        AssignmentMethod `json:"method"`
	AssignedCount int              `json:"assigned_count"`
	SkippedCount  int              `json:"skipped_count"`
	Assignments   []ReportEntry    `json:"assignments"`
	Errors        []ReportError    `json:"errors"`
	StartedAt     time.Time        `json:"started_at"`
	FinishedAt    time.Time        `json:"finished_at"`
}

// ReportEntry is a single assignment inside a report.
type ReportEntry struct {
	LeadID uuid.UUID `json:"lead_id"`
	RepID  uuid.UUID `json:"rep_id"`
}

// ReportError is a single per-lead failure inside a report.
type ReportError struct {
	LeadID uuid.UUID `json:"lead_id"`
	Error  string    `json:"error"`
}
