package model

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
)

// TwoFactorStore persists per-user two-factor state.
//
// Get returns ErrNotFound when the user does not exist and a zero state when
// the user never enrolled. Update runs fn as a single atomic read-modify-write
// against the user's state: if fn returns an error nothing is written,
// otherwise the modified state is persisted. A state left zero by fn removes
// the stored record.
type TwoFactorStore interface {
	Get(ctx context.Context, userID uuid.UUID) (TwoFactorState, error)
	Update(ctx context.Context, userID uuid.UUID, fn func(state *TwoFactorState) error) error
}

// OTPManager generates TOTP secrets and validates codes against them.
type OTPManager interface {
	GenerateSecret(accountName string) (secret string, uri string, err error)
	Validate(code, secret string, now time.Time) bool
}

// TwoFactorState is the stored two-factor record of a user.
// BackupCodes and PendingBackupCodes hold digests, never plaintext codes.
type TwoFactorState struct {
	UserID             uuid.UUID
	Enabled            bool
	Secret             string
	BackupCodes        []string
	PendingSecret      string
	PendingBackupCodes []string
	EnabledAt          *time.Time
	UpdatedAt          time.Time
}

// IsZero reports whether the state carries no two-factor data at all.
func (s TwoFactorState) IsZero() bool {
	return !s.Enabled &&
		s.Secret == "" &&
		len(s.BackupCodes) == 0 &&
		s.PendingSecret == "" &&
		len(s.PendingBackupCodes) == 0 &&
		s.EnabledAt == nil
}

// Equal compares the persisted fields of two states.
func (s TwoFactorState) Equal(o TwoFactorState) bool {
	if s.Enabled != o.Enabled || s.Secret != o.Secret || s.PendingSecret != o.PendingSecret {
		return false
	}
	if !slices.Equal(s.BackupCodes, o.BackupCodes) || !slices.Equal(s.PendingBackupCodes, o.PendingBackupCodes) {
		return false
	}
	switch {
	case s.EnabledAt == nil && o.EnabledAt == nil:
		return true
	case s.EnabledAt == nil || o.EnabledAt == nil:
		return false
	default:
		return s.EnabledAt.Equal(*o.EnabledAt)
	}
}

// Clone returns a deep copy of s.
func (s TwoFactorState) Clone() TwoFactorState {
	c := s
	c.BackupCodes = slices.Clone(s.BackupCodes)
	c.PendingBackupCodes = slices.Clone(s.PendingBackupCodes)
	if s.EnabledAt != nil {
		at := *s.EnabledAt
		c.EnabledAt = &at
	}
	return c
}

// TwoFactorStatus is the public view of a user's two-factor state.
type TwoFactorStatus struct {
	Enabled        bool
	EnabledAt      *time.Time
	HasBackupCodes bool
}

// TwoFactorSetup is returned once when enrollment starts.
type TwoFactorSetup struct {
	Secret      string
	QRCodeURI   string
	BackupCodes []string
}
