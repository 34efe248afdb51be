package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dtroode/salesdesk/internal/model"
)

// Claims carries the caller identity of an access token.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"user_id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Role      string    `json:"role"`
	TokenType string    `json:"typ"`
}

var _ model.TokenManager = (*JWT)(nil)

// JWT implements TokenManager backed by symmetric HMAC.
type JWT struct {
	secretKey string
	ttl       time.Duration
	now       func() time.Time
}

const (
	defaultAccessTTL = 15 * time.Minute
	typeAccess       = "access"
)

// NewJWT creates a token manager. A zero ttl falls back to 15 minutes.
func NewJWT(secretKey string, ttl time.Duration) *JWT {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &JWT{secretKey: secretKey, ttl: ttl, now: time.Now}
}

// GenerateAccessToken creates a short-lived access token for principal.
func (j *JWT) GenerateAccessToken(principal model.Principal) (string, error) {
	now := j.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
		UserID:    principal.UserID,
		TenantID:  principal.TenantID,
		Role:      string(principal.Role),
		TokenType: typeAccess,
	})

	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ParseAccessToken validates the token and returns the principal it carries.
func (j *JWT) ParseAccessToken(tokenString string) (model.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("wrong signing method %v", t.Header["alg"])
		}
		return []byte(j.secretKey), nil
	}, jwt.WithTimeFunc(j.now))
	if err != nil {
		return model.Principal{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if !token.Valid {
		return model.Principal{}, fmt.Errorf("access token is invalid")
	}
	if claims.TokenType != typeAccess {
		return model.Principal{}, fmt.Errorf("token type mismatch: %s", claims.TokenType)
	}

	role := model.Role(claims.Role)
	if !role.Valid() {
		return model.Principal{}, fmt.Errorf("unknown role %q", claims.Role)
	}
	if claims.UserID == uuid.Nil || claims.TenantID == uuid.Nil {
		return model.Principal{}, fmt.Errorf("access token has no subject")
	}

	return model.Principal{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Role:     role,
	}, nil
}
