package handler

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dtroode/salesdesk/internal/model"
)

func TestHandleError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       error
		wantCode codes.Code
		wantMsg  string
	}{
		{
			name:     "status passthrough",
			in:       status.Error(codes.PermissionDenied, "nope"),
			wantCode: codes.PermissionDenied,
			wantMsg:  "nope",
		},
		{
			name:     "invalid code",
			in:       fmt.Errorf("failed to verify: %w", model.ErrInvalidCode),
			wantCode: codes.InvalidArgument,
			wantMsg:  "invalid verification code",
		},
		{
			name:     "unknown method",
			in:       fmt.Errorf("%w: %q", model.ErrUnknownMethod, "weighted"),
			wantCode: codes.InvalidArgument,
			wantMsg:  `unknown assignment method: "weighted"`,
		},
		{
			name:     "invalid config",
			in:       model.ErrInvalidConfig,
			wantCode: codes.InvalidArgument,
		},
		{
			name:     "already enabled",
			in:       model.ErrAlreadyEnabled,
			wantCode: codes.FailedPrecondition,
		},
		{
			name:     "not enabled",
			in:       model.ErrNotEnabled,
			wantCode: codes.FailedPrecondition,
		},
		{
			name:     "no pending setup",
			in:       model.ErrNoPendingSetup,
			wantCode: codes.FailedPrecondition,
		},
		{
			name:     "no eligible reps",
			in:       fmt.Errorf("failed to distribute: %w", model.ErrNoEligibleReps),
			wantCode: codes.FailedPrecondition,
			wantMsg:  "no eligible sales reps",
		},
		{
			name:     "rate limited",
			in:       fmt.Errorf("disable: %w", model.ErrRateLimited),
			wantCode: codes.ResourceExhausted,
		},
		{
			name:     "not found",
			in:       fmt.Errorf("failed to get config: %w", model.ErrNotFound),
			wantCode: codes.NotFound,
			wantMsg:  "not found",
		},
		{
			name:     "other -> Internal",
			in:       errors.New("boom"),
			wantCode: codes.Internal,
			wantMsg:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := handleError(tt.in)
			st, ok := status.FromError(err)
			assert.True(t, ok)
			assert.Equal(t, tt.wantCode, st.Code())
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, st.Message())
			}
		})
	}
}
