package middleware

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// RequestRecorder receives one observation per finished call.
type RequestRecorder interface {
	ObserveRequest(method, code string, duration time.Duration)
}

// Metrics is a unary interceptor that records call counts and durations.
type Metrics struct {
	recorder RequestRecorder
}

func NewMetrics(recorder RequestRecorder) *Metrics {
	return &Metrics{recorder: recorder}
}

func (m *Metrics) HandleGRPC(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	m.recorder.ObserveRequest(info.FullMethod, codeOf(err).String(), time.Since(start))
	return resp, err
}
