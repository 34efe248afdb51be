package middleware

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dtroode/salesdesk/internal/mocks"
	"github.com/dtroode/salesdesk/internal/model"
	"github.com/dtroode/salesdesk/internal/testutil"
)

func TestAuthenticate_AuthFunc(t *testing.T) {
	t.Parallel()

	principal := model.Principal{UserID: uuid.New(), TenantID: uuid.New(), Role: model.RoleUser}

	tests := []struct {
		name         string
		mdAuthHeader string
		parsed       model.Principal
		parseErr     error
		wantErr      bool
	}{
		{
			name:    "missing authorization header",
			wantErr: true,
		},
		{
			name:         "invalid token",
			mdAuthHeader: "Bearer invalid",
			parseErr:     errors.New("signature is invalid"),
			wantErr:      true,
		},
		{
			name:         "valid token",
			mdAuthHeader: "Bearer token",
			parsed:       principal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cm := mocks.NewContextManager(t)
			if !tt.wantErr {
				cm.On("SetPrincipalToContext", mock.Anything, tt.parsed).Return(context.Background())
			}

			parser := mocks.NewTokenParser(t)
			if tt.mdAuthHeader != "" {
				parser.On("ParseAccessToken", "invalid").Return(model.Principal{}, tt.parseErr).Maybe()
				parser.On("ParseAccessToken", "token").Return(tt.parsed, nil).Maybe()
			}
			m := NewAuthenticate(parser, cm, testutil.MakeNoopLogger())

			ctx := context.Background()
			if tt.mdAuthHeader != "" {
				ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", tt.mdAuthHeader))
			}

			newCtx, err := m.AuthFunc(ctx)

			if tt.wantErr {
				st, ok := status.FromError(err)
				assert.True(t, ok)
				assert.Equal(t, codes.Unauthenticated, st.Code())
				assert.Nil(t, newCtx)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, newCtx)
		})
	}
}
