package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	EventTwoFactorEnabled                = "two_factor.enabled"
	EventTwoFactorDisabled               = "two_factor.disabled"
	EventTwoFactorBackupCodeUsed         = "two_factor.backup_code_used"
	EventTwoFactorBackupCodesRegenerated = "two_factor.backup_codes_regenerated"
	EventLeadAssigned                    = "lead.assigned"
)

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...Event) error
}

// Event is a domain event. SubjectID is the user or lead the event is about.
type Event struct {
	Type       string            `json:"type"`
	SubjectID  uuid.UUID         `json:"subject_id"`
	TenantID   uuid.UUID         `json:"tenant_id,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
