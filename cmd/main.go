package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	grpcctx "github.com/dtroode/salesdesk/internal/api/grpc/context"
	"github.com/dtroode/salesdesk/internal/api/grpc/router"
	grpcServer "github.com/dtroode/salesdesk/internal/api/grpc/server"
	"github.com/dtroode/salesdesk/internal/config"
	"github.com/dtroode/salesdesk/internal/events"
	"github.com/dtroode/salesdesk/internal/events/kafka"
	"github.com/dtroode/salesdesk/internal/logger"
	"github.com/dtroode/salesdesk/internal/metrics"
	"github.com/dtroode/salesdesk/internal/model"
	"github.com/dtroode/salesdesk/internal/otp"
	"github.com/dtroode/salesdesk/internal/ratelimit"
	"github.com/dtroode/salesdesk/internal/repository/postgres"
	"github.com/dtroode/salesdesk/internal/server"
	"github.com/dtroode/salesdesk/internal/service"
	storage "github.com/dtroode/salesdesk/internal/storage/minio"
	"github.com/dtroode/salesdesk/internal/token"
)

var (
	buildVersion = "N/A" // set by ldflags
	buildDate    = "N/A" // set by ldflags
	buildCommit  = "N/A" // set by ldflags
)

const (
	twoFactorLimiterPrefix = "salesdesk:2fa:"
	requestLimiterPrefix   = "salesdesk:rpc:"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, os.Interrupt)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	logger := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := postgres.NewConnection(ctx, cfg.Database.DSN, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal("failed to initialize storage", "error", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(registry)

	var closers []io.Closer

	attemptLimiter, requestLimiter, redisClient := newLimiters(cfg, logger)
	if redisClient != nil {
		closers = append(closers, redisClient)
	}

	publisher := newPublisher(cfg, logger)
	if c, ok := publisher.(io.Closer); ok {
		closers = append(closers, c)
	}

	reports := newReportStorage(ctx, cfg, logger)

	userRepo := postgres.NewUserRepository(db)
	twoFactorRepo := postgres.NewTwoFactorRepository(db)
	assignmentRepo := postgres.NewAssignmentRepository(db)

	otpManager := otp.NewTOTP(cfg.TOTP.Issuer, cfg.TOTP.Skew)
	tokenManager := token.NewJWT(cfg.JWT.Secret, cfg.JWT.AccessTTL)

	twoFactorService := service.NewTwoFactor(userRepo, twoFactorRepo, otpManager, attemptLimiter, publisher, appMetrics, logger)
	distributor := service.NewDistributor(assignmentRepo, reports, publisher, appMetrics, logger)

	r := router.New(router.Dependencies{
		TwoFactorService:    twoFactorService,
		DistributionService: distributor,
		TokenParser:         tokenManager,
		ContextManager:      grpcctx.NewManager(),
		RequestRecorder:     appMetrics,
		RequestLimiter:      requestLimiter,
		Logger:              logger,
	})

	servers := []model.Server{
		grpcServer.NewGRPCServer(r.Register(), fmt.Sprintf(":%s", cfg.GRPC.Port)),
		metrics.NewHTTPServer(registry, fmt.Sprintf(":%s", cfg.HTTP.MetricsPort)),
	}

	var sl model.SecurityLayer

	if cfg.GRPC.EnableHTTPS {
		sl = server.NewTLSListener(cfg.GRPC.CertFileName, cfg.GRPC.PrivateKeyFileName)
	} else {
		sl = server.NewPlainListener()
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s model.Server) {
			defer wg.Done()
			logger.Info("Starting server on", "address", s.Address())
			if err := s.Start(sl); err != nil {
				logger.Error("failed to start server", "error", err, "address", s.Address())
				stop()
			}
		}(s)
	}

	logAppVersion()

	<-ctx.Done()
	logger.Info("received interruption signal, shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	for _, s := range servers {
		if err := s.Stop(shutdownCtx); err != nil {
			logger.Error("error during server shutdown", "error", err, "address", s.Address())
		}
	}

	wg.Wait()

	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Warn("failed to close resource", "error", err)
		}
	}
	logger.Info("shutdown complete")
}

func logAppVersion() {
	tmpl := `
Build version: %s
Build date: %s
Build commit: %s
`

	fmt.Printf(tmpl, buildVersion, buildDate, buildCommit)
}

// newLimiters shares one Redis client between the two-factor attempt
// limiter and the request limiter, or falls back to process memory.
func newLimiters(cfg *config.Config, logger *logger.Logger) (attempts, requests model.Limiter, client *redis.Client) {
	if cfg.Redis.Addr == "" {
		logger.Info("using in-memory rate limiter")
		return ratelimit.NewMemory(cfg.RateLimit.Attempts, cfg.RateLimit.Window),
			ratelimit.NewMemory(cfg.RateLimit.Requests, cfg.RateLimit.RequestsWindow),
			nil
	}

	client = redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	logger.Info("using redis rate limiter", "address", cfg.Redis.Addr)

	return ratelimit.NewRedisLimiter(client, cfg.RateLimit.Attempts, cfg.RateLimit.Window, twoFactorLimiterPrefix),
		ratelimit.NewRedisLimiter(client, cfg.RateLimit.Requests, cfg.RateLimit.RequestsWindow, requestLimiterPrefix),
		client
}

func newPublisher(cfg *config.Config, logger *logger.Logger) model.EventPublisher {
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("event publishing disabled")
		return events.Discard{}
	}
	logger.Info("publishing events to kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return kafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
}

// newReportStorage returns nil when archiving is off; the distributor
// skips reports in that case.
func newReportStorage(ctx context.Context, cfg *config.Config, logger *logger.Logger) model.ReportStorage {
	if !cfg.Storage.Enabled {
		logger.Info("report archiving disabled")
		return nil
	}

	client, err := storage.New(ctx, storage.Options{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		UseSSL:    cfg.Storage.UseSSL,
	})
	if err != nil {
		logger.Fatal("failed to initialize report storage", "error", err)
	}
	return client
}
