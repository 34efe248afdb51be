package context

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"

	"github.com/dtroode/salesdesk/internal/model"
)

// Metadata keys carrying the authenticated principal inside a gRPC context.
const (
	userIDKey   string = "user_id"
	tenantIDKey string = "tenant_id"
	roleKey     string = "role"
)

// Manager stores the principal in incoming gRPC metadata.
type Manager struct{}

var _ model.ContextManager = (*Manager)(nil)

// NewManager creates a new gRPC context manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// SetPrincipalToContext returns a context whose incoming metadata carries
// principal, replacing any values a client may have sent under the same keys.
func (m *Manager) SetPrincipalToContext(ctx context.Context, principal model.Principal) context.Context {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		md = metadata.MD{}
	} else {
		md = md.Copy()
	}

	md.Set(userIDKey, principal.UserID.String())
	md.Set(tenantIDKey, principal.TenantID.String())
	md.Set(roleKey, string(principal.Role))

	return metadata.NewIncomingContext(ctx, md)
}

// GetPrincipalFromContext returns the principal set by SetPrincipalToContext.
func (m *Manager) GetPrincipalFromContext(ctx context.Context) (model.Principal, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return model.Principal{}, false
	}

	userID, ok := parseID(md, userIDKey)
	if !ok {
		return model.Principal{}, false
	}
	tenantID, ok := parseID(md, tenantIDKey)
	if !ok {
		return model.Principal{}, false
	}

	roles := md.Get(roleKey)
	if len(roles) == 0 || !model.Role(roles[0]).Valid() {
		return model.Principal{}, false
	}

	return model.Principal{
		UserID:   userID,
		TenantID: tenantID,
		Role:     model.Role(roles[0]),
	}, true
}

func parseID(md metadata.MD, key string) (uuid.UUID, bool) {
	values := md.Get(key)
	if len(values) == 0 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(values[0])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
