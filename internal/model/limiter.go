package model

import (
	"context"
	"time"
)

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	// Allow records one attempt and reports whether it fits in the window.
	Allow(ctx context.Context, key string, now time.Time) (allowed bool, retryAfter time.Duration, err error)
	// Exceeded reports, without recording anything, whether the key has
	// already used up its window.
	Exceeded(ctx context.Context, key string, now time.Time) (exceeded bool, retryAfter time.Duration, err error)
}
