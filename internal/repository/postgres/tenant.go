package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dtroode/salesdesk/internal/model"
)

var _ model.TenantStore = (*TenantRepository)(nil)

type TenantRepository struct {
	db *Connection
}

func NewTenantRepository(db *Connection) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(ctx context.Context, tenant model.Tenant) (model.Tenant, error) {
	const query = `INSERT INTO tenants (id, name, created_at) VALUES ($1, $2, $3)
			  RETURNING id, name, created_at`

	var saved model.Tenant
	if err := r.db.QueryRow(ctx, query, tenant.ID, tenant.Name, tenant.CreatedAt).
		Scan(&saved.ID, &saved.Name, &saved.CreatedAt); err != nil {
		return model.Tenant{}, fmt.Errorf("failed to create tenant: %w", err)
	}
	return saved, nil
}

func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (model.Tenant, error) {
	const query = `SELECT id, name, created_at FROM tenants WHERE id = $1`

	var tenant model.Tenant
	if err := r.db.QueryRow(ctx, query, id).Scan(&tenant.ID, &tenant.Name, &tenant.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Tenant{}, model.ErrNotFound
		}
		return model.Tenant{}, fmt.Errorf("failed to get tenant: %w", err)
	}
	return tenant, nil
}
