package router

import (
	"context"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/auth"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/ratelimit"
	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/selector"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/dtroode/salesdesk/internal/api/grpc/handler"
	"github.com/dtroode/salesdesk/internal/api/grpc/middleware"
	"github.com/dtroode/salesdesk/internal/api/grpc/proto"
	"github.com/dtroode/salesdesk/internal/logger"
	"github.com/dtroode/salesdesk/internal/model"
)

// Dependencies are the collaborators the router wires into the gRPC server.
type Dependencies struct {
	TwoFactorService    handler.TwoFactorService
	DistributionService handler.DistributionService
	TokenParser         middleware.TokenParser
	ContextManager      model.ContextManager
	RequestRecorder     middleware.RequestRecorder
	RequestLimiter      model.Limiter
	Logger              *logger.Logger
}

// Router registers salesdesk services and their interceptors on a gRPC server.
type Router struct {
	deps Dependencies
}

func New(deps Dependencies) *Router {
	return &Router{deps: deps}
}

// authRequired reports whether a call must carry a bearer token. Health
// checks and reflection are public.
func authRequired(_ context.Context, c interceptors.CallMeta) bool {
	method := c.FullMethod()
	return !strings.HasPrefix(method, "/grpc.health.") && !strings.HasPrefix(method, "/grpc.reflection.")
}

// Register builds the gRPC server. Interceptors run in order: logging,
// metrics, authentication, then the per-caller request limit.
func (r *Router) Register() *grpc.Server {
	logging := middleware.NewLogging(r.deps.Logger)
	metrics := middleware.NewMetrics(r.deps.RequestRecorder)
	authenticate := middleware.NewAuthenticate(r.deps.TokenParser, r.deps.ContextManager, r.deps.Logger)

	unary := []grpc.UnaryServerInterceptor{
		logging.HandleGRPC,
		metrics.HandleGRPC,
		selector.UnaryServerInterceptor(
			auth.UnaryServerInterceptor(authenticate.AuthFunc),
			selector.MatchFunc(authRequired),
		),
	}
	if r.deps.RequestLimiter != nil {
		limiter := middleware.NewRequestLimiter(r.deps.RequestLimiter, r.deps.ContextManager, r.deps.Logger)
		unary = append(unary, ratelimit.UnaryServerInterceptor(limiter))
	}

	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(unary...),
		grpc.ChainStreamInterceptor(
			selector.StreamServerInterceptor(
				auth.StreamServerInterceptor(authenticate.AuthFunc),
				selector.MatchFunc(authRequired),
			),
		),
	)

	r.registerTwoFactorRoutes(s)
	r.registerDistributionRoutes(s)
	r.registerHealth(s)
	reflection.Register(s)

	return s
}

func (r *Router) registerTwoFactorRoutes(server *grpc.Server) {
	h := handler.NewTwoFactor(r.deps.TwoFactorService, r.deps.ContextManager, r.deps.Logger)
	proto.RegisterTwoFactorServer(server, h)
}

func (r *Router) registerDistributionRoutes(server *grpc.Server) {
	h := handler.NewDistribution(r.deps.DistributionService, r.deps.ContextManager, r.deps.Logger)
	proto.RegisterDistributionServer(server, h)
}

func (r *Router) registerHealth(server *grpc.Server) {
	hs := health.NewServer()
	hs.SetServingStatus(proto.TwoFactorServiceName, healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(proto.DistributionServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
}
