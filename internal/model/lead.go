package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lead is a CRM lead. Attributes holds tenant-defined fields and is passed
// through untouched.
type Lead struct {
	ID         uuid.UUID
	TenantID   uuid.UUID
	AssignedTo *uuid.UUID
	Attributes json.RawMessage
	CreatedAt  time.Time
}

// LeadFilter narrows the set of unassigned leads loaded for distribution.
// A zero filter selects every unassigned lead of the tenant.
type LeadFilter struct {
	LeadID uuid.UUID
}
