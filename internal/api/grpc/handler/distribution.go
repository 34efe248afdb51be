package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dtroode/salesdesk/internal/api/grpc/proto"
	"github.com/dtroode/salesdesk/internal/logger"
	"github.com/dtroode/salesdesk/internal/model"
)

// DistributionService assigns leads to sales reps.
type DistributionService interface {
	DistributeUnassignedLeads(ctx context.Context, tenantID uuid.UUID) (model.DistributionResult, error)
	AssignLead(ctx context.Context, tenantID, leadID uuid.UUID) (model.DistributionResult, error)
	GetConfig(ctx context.Context, tenantID uuid.UUID) (model.LeadAssignmentConfig, error)
	UpdateConfig(ctx context.Context, cfg model.LeadAssignmentConfig) (model.LeadAssignmentConfig, error)
}

var _ proto.DistributionServer = (*Distribution)(nil)

// Distribution handles gRPC endpoints of salesdesk.v1.Distribution.
//
// Only managers and admins may call it. A request may name a tenant_id;
// without one the caller's tenant is used, and only admins may name another.
type Distribution struct {
	service        DistributionService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewDistribution(service DistributionService, contextManager model.ContextManager, logger *logger.Logger) *Distribution {
	return &Distribution{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *Distribution) DistributeUnassignedLeads(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := h.tenant(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := h.service.DistributeUnassignedLeads(ctx, tenantID)
	if err != nil {
		return nil, h.fail("distribute", tenantID, err)
	}
	return resultToStruct(result)
}

func (h *Distribution) AssignLead(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := h.tenant(ctx, req)
	if err != nil {
		return nil, err
	}
	leadID, ok, err := uuidField(req, "lead_id")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, invalidArgument("lead_id is required")
	}

	result, err := h.service.AssignLead(ctx, tenantID, leadID)
	if err != nil {
		return nil, h.fail("assign_lead", tenantID, err)
	}
	return resultToStruct(result)
}

func (h *Distribution) GetConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := h.tenant(ctx, req)
	if err != nil {
		return nil, err
	}

	cfg, err := h.service.GetConfig(ctx, tenantID)
	if err != nil {
		return nil, h.fail("get_config", tenantID, err)
	}
	return configToStruct(cfg)
}

// UpdateConfig replaces the config. Omitted fields take their default values.
func (h *Distribution) UpdateConfig(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID, err := h.tenant(ctx, req)
	if err != nil {
		return nil, err
	}
	cfg, err := configFromStruct(tenantID, req)
	if err != nil {
		return nil, err
	}

	saved, err := h.service.UpdateConfig(ctx, cfg)
	if err != nil {
		return nil, h.fail("update_config", tenantID, err)
	}
	return configToStruct(saved)
}

func (h *Distribution) tenant(ctx context.Context, req *structpb.Struct) (uuid.UUID, error) {
	principal, ok := h.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}
	if principal.Role != model.RoleAdmin && principal.Role != model.RoleManager {
		return uuid.Nil, status.Error(codes.PermissionDenied, "lead distribution requires a manager or admin")
	}

	tenantID, ok, err := uuidField(req, "tenant_id")
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return principal.TenantID, nil
	}
	if tenantID != principal.TenantID && principal.Role != model.RoleAdmin {
		return uuid.Nil, status.Error(codes.PermissionDenied, "cannot act on another tenant")
	}
	return tenantID, nil
}

func (h *Distribution) fail(operation string, tenantID uuid.UUID, err error) error {
	h.logger.Debug("Distribution handler: request failed",
		"operation", operation,
		"tenant_id", tenantID,
		"error", err.Error())
	return handleError(err)
}

func resultToStruct(r model.DistributionResult) (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"assigned_count": r.AssignedCount,
		"skipped_count":  r.SkippedCount,
		"assignments": anyList(r.Assignments, func(a model.Assignment) any {
			return map[string]any{"lead_id": a.LeadID.String(), "rep_id": a.RepID.String()}
		}),
		"errors": anyList(r.Errors, func(e model.LeadError) any {
			return map[string]any{"lead_id": e.LeadID.String(), "error": e.Err.Error()}
		}),
	})
}

func configToStruct(cfg model.LeadAssignmentConfig) (*structpb.Struct, error) {
	var maxLeads any
	if cfg.MaxLeadsPerRep != nil {
		maxLeads = *cfg.MaxLeadsPerRep
	}
	var updatedAt any
	if !cfg.UpdatedAt.IsZero() {
		updatedAt = cfg.UpdatedAt.UTC().Format(time.RFC3339)
	}

	return newStruct(map[string]any{
		"tenant_id":           cfg.TenantID.String(),
		"enabled":             cfg.Enabled,
		"method":              string(cfg.Method),
		"eligible_roles":      anyList(cfg.EligibleRoles, func(r model.Role) any { return string(r) }),
		"exclude_user_ids":    anyList(cfg.ExcludeUserIDs, func(id uuid.UUID) any { return id.String() }),
		"max_leads_per_rep":   maxLeads,
		"last_assigned_index": cfg.LastAssignedIndex,
		"updated_at":          updatedAt,
	})
}

func configFromStruct(tenantID uuid.UUID, req *structpb.Struct) (model.LeadAssignmentConfig, error) {
	cfg := model.DefaultAssignmentConfig(tenantID)

	enabled, ok, err := boolField(req, "enabled")
	if err != nil {
		return cfg, err
	}
	if ok {
		cfg.Enabled = enabled
	}

	method, ok, err := stringField(req, "method")
	if err != nil {
		return cfg, err
	}
	if ok {
		cfg.Method = model.AssignmentMethod(method)
	}

	roles, ok, err := stringListField(req, "eligible_roles")
	if err != nil {
		return cfg, err
	}
	if ok {
		cfg.EligibleRoles = make([]model.Role, 0, len(roles))
		for _, r := range roles {
			cfg.EligibleRoles = append(cfg.EligibleRoles, model.Role(r))
		}
	}

	excluded, _, err := stringListField(req, "exclude_user_ids")
	if err != nil {
		return cfg, err
	}
	for _, s := range excluded {
		id, err := uuid.Parse(s)
		if err != nil {
			return cfg, invalidArgument("exclude_user_ids must contain uuids")
		}
		cfg.ExcludeUserIDs = append(cfg.ExcludeUserIDs, id)
	}

	maxLeads, ok, err := intField(req, "max_leads_per_rep")
	if err != nil {
		return cfg, err
	}
	if ok {
		cfg.MaxLeadsPerRep = &maxLeads
	}

	return cfg, nil
}
