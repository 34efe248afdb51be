package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines operations for tenant users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
}

// Role is a user's role inside a tenant.
type Role string

const (
	RoleUser    Role = "user"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
	RoleViewer  Role = "viewer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleManager, RoleAdmin, RoleViewer:
		return true
	}
	return false
}

// User represents a tenant member.
type User struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Email     string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time
}

// TenantStore defines operations for tenants.
type TenantStore interface {
	Create(ctx context.Context, tenant Tenant) (Tenant, error)
	GetByID(ctx context.Context, id uuid.UUID) (Tenant, error)
}

// Tenant is a customer organization.
type Tenant struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}
