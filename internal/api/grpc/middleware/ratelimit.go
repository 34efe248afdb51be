package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/dtroode/salesdesk/internal/logger"
	"github.com/dtroode/salesdesk/internal/model"
)

// RequestLimiter caps the request rate of each authenticated caller. It
// satisfies the go-grpc-middleware ratelimit.Limiter interface and must run
// after authentication.
type RequestLimiter struct {
	limiter        model.Limiter
	contextManager model.ContextManager
	logger         *logger.Logger
	now            func() time.Time
}

func NewRequestLimiter(limiter model.Limiter, contextManager model.ContextManager, logger *logger.Logger) *RequestLimiter {
	return &RequestLimiter{
		limiter:        limiter,
		contextManager: contextManager,
		logger:         logger,
		now:            time.Now,
	}
}

// Limit rejects the call when the caller used up its window. Unauthenticated
// calls and limiter failures are let through.
func (l *RequestLimiter) Limit(ctx context.Context) error {
	principal, ok := l.contextManager.GetPrincipalFromContext(ctx)
	if !ok {
		return nil
	}

	allowed, retryAfter, err := l.limiter.Allow(ctx, principal.UserID.String(), l.now())
	if err != nil {
		l.logger.Warn("RequestLimiter middleware: limiter unavailable",
			"user_id", principal.UserID,
			"error", err.Error())
		return nil
	}
	if !allowed {
		return fmt.Errorf("retry after %s", retryAfter.Round(time.Second))
	}
	return nil
}
