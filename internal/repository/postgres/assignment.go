package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dtroode/salesdesk/internal/model"
)

const foreignKeyViolation = "23503"

var (
	_ model.AssignmentStore = (*AssignmentRepository)(nil)
	_ model.AssignmentTx    = (*assignmentTx)(nil)
)

// AssignmentRepository stores lead assignment configs and runs distribution
// batches in tenant-scoped transactions.
type AssignmentRepository struct {
	db *Connection
}

func NewAssignmentRepository(db *Connection) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const configColumns = `enabled, method, eligible_roles, exclude_user_ids, max_leads_per_rep, last_assigned_index, updated_at`

func (r *AssignmentRepository) GetConfig(ctx context.Context, tenantID uuid.UUID) (model.LeadAssignmentConfig, error) {
	const query = `
        SELECT t.id, c.tenant_id IS NOT NULL,
               COALESCE(c.enabled, FALSE), COALESCE(c.method, ''), c.eligible_roles, c.exclude_user_ids,
               c.max_leads_per_rep, COALESCE(c.last_assigned_index, -1), COALESCE(c.updated_at, t.created_at)
        FROM tenants t
        LEFT JOIN lead_assignment_configs c ON c.tenant_id = t.id
        WHERE t.id = $1
    `

	var (
		id         uuid.UUID
		configured bool
		raw        rawConfig
	)
	err := r.db.QueryRow(ctx, query, tenantID).Scan(
		&id, &configured,
		&raw.enabled, &raw.method, &raw.eligibleRoles, &raw.excludeUserIDs,
		&raw.maxLeadsPerRep, &raw.lastAssignedIndex, &raw.updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LeadAssignmentConfig{}, model.ErrNotFound
		}
		return model.LeadAssignmentConfig{}, fmt.Errorf("failed to get assignment config: %w", err)
	}

	if !configured {
		return model.DefaultAssignmentConfig(tenantID), nil
	}
	return raw.toModel(tenantID)
}

// SaveConfig upserts the config. last_assigned_index is left to the
// distribution batches.
func (r *AssignmentRepository) SaveConfig(ctx context.Context, cfg model.LeadAssignmentConfig) (model.LeadAssignmentConfig, error) {
	const query = `
        INSERT INTO lead_assignment_configs (tenant_id, enabled, method, eligible_roles, exclude_user_ids, max_leads_per_rep, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, now())
        ON CONFLICT (tenant_id) DO UPDATE SET
            enabled = EXCLUDED.enabled,
            method = EXCLUDED.method,
            eligible_roles = EXCLUDED.eligible_roles,
            exclude_user_ids = EXCLUDED.exclude_user_ids,
            max_leads_per_rep = EXCLUDED.max_leads_per_rep,
            updated_at = EXCLUDED.updated_at
        RETURNING ` + configColumns

	var raw rawConfig
	err := r.db.QueryRow(ctx, query,
		cfg.TenantID,
		cfg.Enabled,
		string(cfg.Method),
		rolesToStrings(cfg.EligibleRoles),
		idsToStrings(cfg.ExcludeUserIDs),
		maxLeadsParam(cfg.MaxLeadsPerRep),
	).Scan(raw.dest()...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return model.LeadAssignmentConfig{}, model.ErrNotFound
		}
		return model.LeadAssignmentConfig{}, fmt.Errorf("failed to save assignment config: %w", err)
	}

	return raw.toModel(cfg.TenantID)
}

// InTenantTx runs fn in a transaction. Config locks the config row, which
// serializes batches of the same tenant.
func (r *AssignmentRepository) InTenantTx(ctx context.Context, tenantID uuid.UUID, fn func(context.Context, model.AssignmentTx) error) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, tenantID).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check tenant: %w", err)
	}
	if !exists {
		return model.ErrNotFound
	}

	if err := fn(ctx, &assignmentTx{tx: tx, tenantID: tenantID}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit distribution: %w", err)
	}
	return nil
}

type assignmentTx struct {
	tx       pgx.Tx
	tenantID uuid.UUID
}

func (t *assignmentTx) Config(ctx context.Context) (model.LeadAssignmentConfig, error) {
	query := `SELECT ` + configColumns + `
        FROM lead_assignment_configs
        WHERE tenant_id = $1
        FOR UPDATE`

	var raw rawConfig
	if err := t.tx.QueryRow(ctx, query, t.tenantID).Scan(raw.dest()...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.LeadAssignmentConfig{}, model.ErrNotFound
		}
		return model.LeadAssignmentConfig{}, fmt.Errorf("failed to lock assignment config: %w", err)
	}
	return raw.toModel(t.tenantID)
}

func (t *assignmentTx) Roster(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users
        WHERE tenant_id = $1 AND deleted_at IS NULL
        ORDER BY id`

	rows, err := t.tx.Query(ctx, query, t.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster: %w", err)
	}
	return users, nil
}

const leadColumns = `id, tenant_id, assigned_to, attributes, created_at`

func (t *assignmentTx) UnassignedLeads(ctx context.Context, filter model.LeadFilter) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + `
        FROM leads
        WHERE tenant_id = $1 AND assigned_to IS NULL`
	args := []any{t.tenantID}
	if filter.LeadID != uuid.Nil {
		query += ` AND id = $2`
		args = append(args, filter.LeadID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query unassigned leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leads: %w", err)
	}
	return leads, nil
}

func (t *assignmentTx) GetLead(ctx context.Context, leadID uuid.UUID) (model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE tenant_id = $1 AND id = $2`

	l, err := scanLead(t.tx.QueryRow(ctx, query, t.tenantID, leadID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Lead{}, model.ErrNotFound
		}
		return model.Lead{}, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

func (t *assignmentTx) AssignedCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	const query = `
        SELECT assigned_to, count(*)
        FROM leads
        WHERE tenant_id = $1 AND assigned_to IS NOT NULL
        GROUP BY assigned_to
    `

	rows, err := t.tx.Query(ctx, query, t.tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assigned counts: %w", err)
	}
	defer rows.Close()

	counts := map[uuid.UUID]int{}
	for rows.Next() {
		var (
			repID uuid.UUID
			n     int
		)
		if err := rows.Scan(&repID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan assigned count: %w", err)
		}
		counts[repID] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assigned counts: %w", err)
	}
	return counts, nil
}

// Assign writes inside a savepoint so a failure leaves the batch usable.
func (t *assignmentTx) Assign(ctx context.Context, leadID, repID uuid.UUID) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create savepoint: %w", err)
	}
	defer sp.Rollback(ctx)

	const query = `
        UPDATE leads SET assigned_to = $3, updated_at = now()
        WHERE tenant_id = $1 AND id = $2 AND assigned_to IS NULL
    `
	tag, err := sp.Exec(ctx, query, t.tenantID, leadID, repID)
	if err != nil {
		return fmt.Errorf("failed to assign lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrLeadAlreadyAssigned
	}

	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("failed to release savepoint: %w", err)
	}
	return nil
}

func (t *assignmentTx) SaveCursor(ctx context.Context, cursor int) error {
	const query = `UPDATE lead_assignment_configs SET last_assigned_index = $2, updated_at = now() WHERE tenant_id = $1`

	if _, err := t.tx.Exec(ctx, query, t.tenantID, cursor); err != nil {
		return fmt.Errorf("failed to save cursor: %w", err)
	}
	return nil
}

type rawConfig struct {
	enabled           bool
	method            string
	eligibleRoles     []string
	excludeUserIDs    []string
	maxLeadsPerRep    *int32
	lastAssignedIndex int32
	updatedAt         time.Time
}

func (c *rawConfig) dest() []any {
	return []any{
		&c.enabled, &c.method, &c.eligibleRoles, &c.excludeUserIDs,
		&c.maxLeadsPerRep, &c.lastAssignedIndex, &c.updatedAt,
	}
}

func (c *rawConfig) toModel(tenantID uuid.UUID) (model.LeadAssignmentConfig, error) {
	cfg := model.LeadAssignmentConfig{
		TenantID:          tenantID,
		Enabled:           c.enabled,
		Method:            model.AssignmentMethod(c.method),
		EligibleRoles:     make([]model.Role, 0, len(c.eligibleRoles)),
		LastAssignedIndex: int(c.lastAssignedIndex),
		UpdatedAt:         c.updatedAt,
	}
	for _, r := range c.eligibleRoles {
		cfg.EligibleRoles = append(cfg.EligibleRoles, model.Role(r))
	}
	for _, s := range c.excludeUserIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return model.LeadAssignmentConfig{}, fmt.Errorf("failed to parse excluded user id %q: %w", s, err)
		}
		cfg.ExcludeUserIDs = append(cfg.ExcludeUserIDs, id)
	}
	if c.maxLeadsPerRep != nil {
		limit := int(*c.maxLeadsPerRep)
		cfg.MaxLeadsPerRep = &limit
	}
	return cfg, nil
}

func scanLead(row pgx.Row) (model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.AssignedTo, &l.Attributes, &l.CreatedAt)
	return l, err
}

func rolesToStrings(roles []model.Role) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		out = append(out, string(r))
	}
	return out
}

func idsToStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func maxLeadsParam(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}
