package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dtroode/salesdesk/internal/logger"
	"github.com/dtroode/salesdesk/internal/model"
	"github.com/dtroode/salesdesk/internal/otp"
)

const (
	outcomeSuccess     = "success"
	outcomeInvalidCode = "invalid_code"
	outcomeRejected    = "rejected"
	outcomeLimited     = "rate_limited"
	outcomeError       = "error"
)

// TwoFactor manages TOTP enrollment and verification per user.
type TwoFactor struct {
	userStore model.UserStore
	store     model.TwoFactorStore
	otp       model.OTPManager
	limiter   model.Limiter
	events    model.EventPublisher
	recorder  TwoFactorRecorder
	logger    *logger.Logger
	now       func() time.Time
}

func NewTwoFactor(
	userStore model.UserStore,
	store model.TwoFactorStore,
	otpManager model.OTPManager,
	limiter model.Limiter,
	events model.EventPublisher,
	recorder TwoFactorRecorder,
	logger *logger.Logger,
) *TwoFactor {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &TwoFactor{
		userStore: userStore,
		store:     store,
		otp:       otpManager,
		limiter:   limiter,
		events:    events,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *TwoFactor) GetStatus(ctx context.Context, userID uuid.UUID) (model.TwoFactorStatus, error) {
	state, err := s.store.Get(ctx, userID)
	if err != nil {
		return model.TwoFactorStatus{}, fmt.Errorf("failed to get two-factor state: %w", err)
	}

	return model.TwoFactorStatus{
		Enabled:        state.Enabled,
		EnabledAt:      state.EnabledAt,
		HasBackupCodes: state.Enabled && len(state.BackupCodes) > 0,
	}, nil
}

// Initialize starts enrollment. The returned backup codes are the only
// plaintext copy; the store keeps their digests.
func (s *TwoFactor) Initialize(ctx context.Context, userID uuid.UUID) (model.TwoFactorSetup, error) {
	s.logger.Debug("TwoFactor service: initializing setup",
		"user_id", userID)

	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return model.TwoFactorSetup{}, fmt.Errorf("failed to get user: %w", err)
	}

	secret, uri, err := s.otp.GenerateSecret(user.Email)
	if err != nil {
		s.logger.Error("TwoFactor service: failed to generate secret",
			"user_id", userID,
			"error", err.Error())
		return model.TwoFactorSetup{}, fmt.Errorf("failed to generate secret: %w", err)
	}

	codes, err := otp.GenerateBackupCodes()
	if err != nil {
		return model.TwoFactorSetup{}, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	err = s.store.Update(ctx, userID, func(state *model.TwoFactorState) error {
		if state.Enabled {
			return model.ErrAlreadyEnabled
		}
		state.PendingSecret = secret
		state.PendingBackupCodes = otp.HashBackupCodes(codes)
		return nil
	})
	if err != nil {
		return model.TwoFactorSetup{}, fmt.Errorf("failed to store pending setup: %w", err)
	}

	s.logger.Info("TwoFactor service: setup initialized",
		"user_id", userID)

	return model.TwoFactorSetup{
		Secret:      secret,
		QRCodeURI:   uri,
		BackupCodes: codes,
	}, nil
}

// VerifyAndEnable promotes the pending setup when code is valid for the
// pending secret. An invalid code leaves the pending setup in place.
func (s *TwoFactor) VerifyAndEnable(ctx context.Context, userID uuid.UUID, code string) error {
	const op = "verify_and_enable"

	now := s.now()
	err := s.store.Update(ctx, userID, func(state *model.TwoFactorState) error {
		if state.PendingSecret == "" {
			return model.ErrNoPendingSetup
		}
		if err := s.guard(ctx, op, userID); err != nil {
			return err
		}
		if !s.otp.Validate(code, state.PendingSecret, now) {
			s.charge(ctx, userID)
			return model.ErrInvalidCode
		}

		enabledAt := now.UTC()
		state.Enabled = true
		state.Secret = state.PendingSecret
		state.BackupCodes = state.PendingBackupCodes
		state.EnabledAt = &enabledAt
		state.PendingSecret = ""
		state.PendingBackupCodes = nil
		return nil
	})
	if err != nil {
		s.record(op, err)
		return fmt.Errorf("failed to enable two-factor: %w", err)
	}
	s.record(op, nil)

	s.logger.Info("TwoFactor service: two-factor enabled",
		"user_id", userID)

	s.publish(ctx, model.Event{
		Type:       model.EventTwoFactorEnabled,
		SubjectID:  userID,
		OccurredAt: now,
	})
	return nil
}

// Disable clears all two-factor state. code may be a TOTP code for the
// committed secret or an unused backup code.
func (s *TwoFactor) Disable(ctx context.Context, userID uuid.UUID, code string) error {
	const op = "disable"

	now := s.now()
	var method string
	err := s.store.Update(ctx, userID, func(state *model.TwoFactorState) error {
		if !state.Enabled {
			return model.ErrNotEnabled
		}
		if err := s.guard(ctx, op, userID); err != nil {
			return err
		}

		switch {
		case s.otp.Validate(code, state.Secret, now):
			method = "totp"
		default:
			if _, ok := otp.MatchBackupCode(state.BackupCodes, code); !ok {
				s.charge(ctx, userID)
				return model.ErrInvalidCode
			}
			method = "backup_code"
		}

		*state = model.TwoFactorState{UserID: state.UserID}
		return nil
	})
	if err != nil {
		s.record(op, err)
		return fmt.Errorf("failed to disable two-factor: %w", err)
	}
	s.record(op, nil)

	s.logger.Info("TwoFactor service: two-factor disabled",
		"user_id", userID,
		"method", method)

	s.publish(ctx, model.Event{
		Type:       model.EventTwoFactorDisabled,
		SubjectID:  userID,
		Data:       map[string]string{"method": method},
		OccurredAt: now,
	})
	return nil
}

// CheckEnabled reports whether login must ask for a second factor.
// Lookup failures report false.
func (s *TwoFactor) CheckEnabled(ctx context.Context, userID uuid.UUID) bool {
	state, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("TwoFactor service: failed to check two-factor state",
				"user_id", userID,
				"error", err.Error())
		}
		return false
	}
	return state.Enabled
}

// VerifyLoginCode checks code against the committed secret, then against the
// backup codes. A matching backup code is consumed in the same update.
// Users without two-factor always pass.
func (s *TwoFactor) VerifyLoginCode(ctx context.Context, userID uuid.UUID, code string) error {
	const op = "verify_login"

	now := s.now()
	usedBackup := false
	remaining := 0
	err := s.store.Update(ctx, userID, func(state *model.TwoFactorState) error {
		if !state.Enabled {
			return nil
		}
		if err := s.guard(ctx, op, userID); err != nil {
			return err
		}
		if s.otp.Validate(code, state.Secret, now) {
			return nil
		}

		idx, ok := otp.MatchBackupCode(state.BackupCodes, code)
		if !ok {
			s.charge(ctx, userID)
			return model.ErrInvalidCode
		}
		state.BackupCodes = append(state.BackupCodes[:idx:idx], state.BackupCodes[idx+1:]...)
		usedBackup = true
		remaining = len(state.BackupCodes)
		return nil
	})
	if err != nil {
		s.record(op, err)
		return fmt.Errorf("failed to verify login code: %w", err)
	}
	s.record(op, nil)

	if usedBackup {
		s.logger.Info("TwoFactor service: backup code used",
			"user_id", userID,
			"remaining", remaining)

		s.publish(ctx, model.Event{
			Type:       model.EventTwoFactorBackupCodeUsed,
			SubjectID:  userID,
			Data:       map[string]string{"remaining": strconv.Itoa(remaining)},
			OccurredAt: now,
		})
	}
	return nil
}

// RegenerateBackupCodes replaces the backup codes. Only a TOTP code is
// accepted so a leaked backup code cannot mint new ones.
func (s *TwoFactor) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	const op = "regenerate_backup_codes"

	codes, err := otp.GenerateBackupCodes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate backup codes: %w", err)
	}

	now := s.now()
	err = s.store.Update(ctx, userID, func(state *model.TwoFactorState) error {
		if !state.Enabled {
			return model.ErrNotEnabled
		}
		if err := s.guard(ctx, op, userID); err != nil {
			return err
		}
		if !s.otp.Validate(code, state.Secret, now) {
			s.charge(ctx, userID)
			return model.ErrInvalidCode
		}
		state.BackupCodes = otp.HashBackupCodes(codes)
		return nil
	})
	if err != nil {
		s.record(op, err)
		return nil, fmt.Errorf("failed to regenerate backup codes: %w", err)
	}
	s.record(op, nil)

	s.logger.Info("TwoFactor service: backup codes regenerated",
		"user_id", userID)

	s.publish(ctx, model.Event{
		Type:       model.EventTwoFactorBackupCodesRegenerated,
		SubjectID:  userID,
		OccurredAt: now,
	})
	return codes, nil
}

// guard rejects a code check once the user has used up their failed
// attempts. Limiter failures let the call through.
func (s *TwoFactor) guard(ctx context.Context, op string, userID uuid.UUID) error {
	if s.limiter == nil {
		return nil
	}

	exceeded, retryAfter, err := s.limiter.Exceeded(ctx, userID.String(), s.now())
	if err != nil {
		s.logger.Warn("TwoFactor service: rate limiter unavailable",
			"user_id", userID,
			"error", err.Error())
		return nil
	}
	if exceeded {
		s.logger.Info("TwoFactor service: verification rate limited",
			"user_id", userID,
			"operation", op,
			"retry_after", retryAfter)
		return fmt.Errorf("%w: retry after %s", model.ErrRateLimited, retryAfter.Round(time.Second))
	}
	return nil
}

// charge counts one rejected code against the user.
func (s *TwoFactor) charge(ctx context.Context, userID uuid.UUID) {
	if s.limiter == nil {
		return
	}
	if _, _, err := s.limiter.Allow(ctx, userID.String(), s.now()); err != nil {
		s.logger.Warn("TwoFactor service: failed to count attempt",
			"user_id", userID,
			"error", err.Error())
	}
}

func (s *TwoFactor) record(op string, err error) {
	switch {
	case err == nil:
		s.recorder.TwoFactorAttempt(op, outcomeSuccess)
	case errors.Is(err, model.ErrInvalidCode):
		s.recorder.TwoFactorAttempt(op, outcomeInvalidCode)
	case errors.Is(err, model.ErrRateLimited):
		s.recorder.TwoFactorAttempt(op, outcomeLimited)
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrNotEnabled),
		errors.Is(err, model.ErrNoPendingSetup),
		errors.Is(err, model.ErrAlreadyEnabled):
		s.recorder.TwoFactorAttempt(op, outcomeRejected)
	default:
		s.recorder.TwoFactorAttempt(op, outcomeError)
		s.logger.Error("TwoFactor service: operation failed",
			"operation", op,
			"error", err.Error())
	}
}

func (s *TwoFactor) publish(ctx context.Context, events ...model.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, events...); err != nil {
		s.logger.Warn("TwoFactor service: failed to publish events",
			"count", len(events),
			"error", err.Error())
	}
}
