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

// TwoFactorService manages a user's two-factor authentication.
type TwoFactorService interface {
	GetStatus(ctx context.Context, userID uuid.UUID) (model.TwoFactorStatus, error)
	Initialize(ctx context.Context, userID uuid.UUID) (model.TwoFactorSetup, error)
	VerifyAndEnable(ctx context.Context, userID uuid.UUID, code string) error
	Disable(ctx context.Context, userID uuid.UUID, code string) error
	CheckEnabled(ctx context.Context, userID uuid.UUID) bool
	VerifyLoginCode(ctx context.Context, userID uuid.UUID, code string) error
	RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, code string) ([]string, error)
}

var _ proto.TwoFactorServer = (*TwoFactor)(nil)

// TwoFactor handles gRPC endpoints of salesdesk.v1.TwoFactor. Every call acts
// on the authenticated caller.
type TwoFactor struct {
	service        TwoFactorService
	contextManager model.ContextManager
	logger         *logger.Logger
}

func NewTwoFactor(service TwoFactorService, contextManager model.ContextManager, logger *logger.Logger) *TwoFactor {
	return &TwoFactor{
		service:        service,
		contextManager: contextManager,
		logger:         logger,
	}
}

func (h *TwoFactor) GetStatus(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}

	st, err := h.service.GetStatus(ctx, userID)
	if err != nil {
		return nil, h.fail("get_status", userID, err)
	}

	var enabledAt any
	if st.EnabledAt != nil {
		enabledAt = st.EnabledAt.UTC().Format(time.RFC3339)
	}
	return newStruct(map[string]any{
		"enabled":          st.Enabled,
		"enabled_at":       enabledAt,
		"has_backup_codes": st.HasBackupCodes,
	})
}

// Initialize returns the secret and backup codes. They are never logged.
func (h *TwoFactor) Initialize(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}

	setup, err := h.service.Initialize(ctx, userID)
	if err != nil {
		return nil, h.fail("initialize", userID, err)
	}

	return newStruct(map[string]any{
		"secret":       setup.Secret,
		"qr_code_uri":  setup.QRCodeURI,
		"backup_codes": anyList(setup.BackupCodes, func(c string) any { return c }),
	})
}

func (h *TwoFactor) VerifyAndEnable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, code, err := h.userAndCode(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := h.service.VerifyAndEnable(ctx, userID, code); err != nil {
		return nil, h.fail("verify_and_enable", userID, err)
	}
	return newStruct(map[string]any{"enabled": true})
}

func (h *TwoFactor) Disable(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, code, err := h.userAndCode(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := h.service.Disable(ctx, userID, code); err != nil {
		return nil, h.fail("disable", userID, err)
	}
	return newStruct(map[string]any{"enabled": false})
}

func (h *TwoFactor) CheckEnabled(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return nil, err
	}
	return newStruct(map[string]any{"enabled": h.service.CheckEnabled(ctx, userID)})
}

func (h *TwoFactor) VerifyLoginCode(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, code, err := h.userAndCode(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := h.service.VerifyLoginCode(ctx, userID, code); err != nil {
		return nil, h.fail("verify_login", userID, err)
	}
	return newStruct(map[string]any{"verified": true})
}

func (h *TwoFactor) RegenerateBackupCodes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	userID, code, err := h.userAndCode(ctx, req)
	if err != nil {
		return nil, err
	}

	backupCodes, err := h.service.RegenerateBackupCodes(ctx, userID, code)
	if err != nil {
		return nil, h.fail("regenerate_backup_codes", userID, err)
	}
	return newStruct(map[string]any{
		"backup_codes": anyList(backupCodes, func(c string) any { return c }),
	})
}

func (h *TwoFactor) fail(operation string, userID uuid.UUID, err error) error {
	h.logger.Debug("TwoFactor handler: request failed",
		"operation", operation,
		"user_id", userID,
		"error", err.Error())
	return handleError(err)
}

func (h *TwoFactor) userID(ctx context.Context) (uuid.UUID, error) {
	principal, ok := h.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return uuid.Nil, status.Error(codes.Unauthenticated, "missing authorization token")
	}
	return principal.UserID, nil
}

func (h *TwoFactor) userAndCode(ctx context.Context, req *structpb.Struct) (uuid.UUID, string, error) {
	userID, err := h.userID(ctx)
	if err != nil {
		return uuid.Nil, "", err
	}
	code, err := requiredString(req, "code")
	if err != nil {
		return uuid.Nil, "", err
	}
	return userID, code, nil
}
