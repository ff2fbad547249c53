package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/core/port"
	"github.com/oakmund/admin-iam/internal/infra/config"
	"github.com/oakmund/admin-iam/internal/infra/database"
	"github.com/oakmund/admin-iam/internal/infra/kafka"
	"github.com/oakmund/admin-iam/internal/infra/logger"
	infraredis "github.com/oakmund/admin-iam/internal/infra/redis"
	"github.com/oakmund/admin-iam/internal/infra/security"
	"github.com/oakmund/admin-iam/internal/infra/telemetry"
	"github.com/oakmund/admin-iam/internal/repository/postgres"
	redisrepo "github.com/oakmund/admin-iam/internal/repository/redis"
	"github.com/oakmund/admin-iam/internal/transport/http/handlers"
	"github.com/oakmund/admin-iam/internal/transport/http/middleware"
	"github.com/oakmund/admin-iam/internal/transport/http/routes"
	"github.com/oakmund/admin-iam/internal/usecase"

	"github.com/jackc/pgx/v5/pgxpool"
)

const blacklistPurgeInterval = 15 * time.Minute

// Application owns every long-lived component and their shutdown order.
type Application struct {
	cfg         *config.AppConfig
	logger      *zap.Logger
	pool        *pgxpool.Pool
	redisClient *infraredis.Client
	producer    *kafka.Producer
	tracer      *telemetry.TracerProvider
	metrics     *telemetry.Provider
	auth        *usecase.AuthService
	server      *http.Server
}

// New wires the full dependency graph from configuration.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("attach telemetry: %w", err)
	}

	var tracer *telemetry.TracerProvider
	if cfg.Telemetry.OTLPEndpoint != "" {
		tracer, err = telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
		if err != nil {
			return nil, fmt.Errorf("init tracer provider: %w", err)
		}
	}

	if err := security.ConfigurePBKDF2(security.PBKDF2Config{
		Iterations: cfg.Auth.HashIterations,
		SaltLength: cfg.Auth.SaltLength,
		KeyLength:  cfg.Auth.KeyLength,
	}); err != nil {
		return nil, fmt.Errorf("configure password hashing: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	redisClient, err := infraredis.NewClient(cfg.Redis, log)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)
	blacklist := redisrepo.NewBlacklistStore(redisClient.Client(), cfg.Redis.BlacklistPrefix)
	throttle := redisrepo.NewRateLimitStore(redisClient.Client(), redisrepo.ThrottleConfig{
		KeyPrefix: cfg.Redis.ThrottlePrefix,
		TTL:       2 * cfg.RateLimit.WindowDuration,
	})

	var (
		producer   *kafka.Producer
		loginAudit port.LoginAuditEmitter
		errAudit   port.ErrorAuditEmitter
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err = kafka.NewProducer(cfg.Kafka, log)
		if err != nil {
			redisClient.Close()
			pool.Close()
			return nil, fmt.Errorf("init kafka producer: %w", err)
		}
		emitter := kafka.NewAuditEmitter(producer, cfg.App, log)
		loginAudit, errAudit = emitter, emitter
	} else {
		log.Warn("no kafka brokers configured, audit events go to the log only")
		stub := kafka.NewStubEmitter(log)
		loginAudit, errAudit = stub, stub
	}

	issuer, err := security.NewTokenIssuer(
		cfg.JWT.SigningKey,
		cfg.JWT.Issuer,
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
	)
	if err != nil {
		redisClient.Close()
		pool.Close()
		return nil, fmt.Errorf("init token issuer: %w", err)
	}

	authService := usecase.NewAuthService(
		usecase.AuthConfig{
			LockoutThreshold:    cfg.Auth.LockoutThreshold,
			LockoutDuration:     cfg.Auth.LockoutDuration,
			RotateRefreshTokens: cfg.Auth.RotateRefreshTokens,
		},
		repos.Users,
		repos.Lockouts,
		blacklist,
		issuer,
		loginAudit,
		errAudit,
		log,
	)

	httpMetrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		return nil, fmt.Errorf("init http metrics: %w", err)
	}

	health := handlers.NewHealthHandler(
		handlers.WithReadinessCheck("postgres", pool.Ping),
		handlers.WithReadinessCheck("redis", redisClient.HealthCheck),
	)

	router := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		AuthService: authService,
		AuthHandler: handlers.NewAuthHandler(authService, issuer.AccessTTL(), metrics, log),
		Health:      health,
		RateLimiter: middleware.NewRateLimiter(throttle, log),
		HTTPMetrics: httpMetrics,
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.App.Host, cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Application{
		cfg:         cfg,
		logger:      log,
		pool:        pool,
		redisClient: redisClient,
		producer:    producer,
		tracer:      tracer,
		metrics:     metrics,
		auth:        authService,
		server:      server,
	}, nil
}

// Run serves HTTP until the context is cancelled, then shuts everything down
// in reverse dependency order.
func (a *Application) Run(ctx context.Context) error {
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	go a.purgeLoop(purgeCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.shutdown()
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown failed", zap.Error(err))
	}

	a.shutdown()
	return nil
}

// purgeLoop sweeps expired blacklist entries so the store never accumulates
// dead weight between TTL reclaims.
func (a *Application) purgeLoop(ctx context.Context) {
	ticker := time.NewTicker(blacklistPurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.auth.PurgeExpiredBlacklist(ctx)
			if err != nil {
				a.logger.Warn("blacklist purge failed", zap.Error(err))
				continue
			}
			if removed > 0 {
				a.metrics.ObservePurged(removed)
				a.logger.Info("purged expired blacklist entries", zap.Int("removed", removed))
			}
		}
	}
}

func (a *Application) shutdown() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close failed", zap.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Error("redis close failed", zap.Error(err))
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(context.Background()); err != nil {
			a.logger.Error("tracer shutdown failed", zap.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
}
