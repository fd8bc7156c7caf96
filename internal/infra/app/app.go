// Package app assembles the service: configuration, stores, services, and
// the HTTP server lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/port"
	"github.com/zaheer037/smart-auth/internal/infra/config"
	"github.com/zaheer037/smart-auth/internal/infra/database"
	"github.com/zaheer037/smart-auth/internal/infra/delivery"
	"github.com/zaheer037/smart-auth/internal/infra/geoip"
	kafkainfra "github.com/zaheer037/smart-auth/internal/infra/kafka"
	"github.com/zaheer037/smart-auth/internal/infra/logger"
	redisinfra "github.com/zaheer037/smart-auth/internal/infra/redis"
	"github.com/zaheer037/smart-auth/internal/infra/security"
	"github.com/zaheer037/smart-auth/internal/infra/telemetry"
	mongorepo "github.com/zaheer037/smart-auth/internal/repository/mongo"
	redisrepo "github.com/zaheer037/smart-auth/internal/repository/redis"
	"github.com/zaheer037/smart-auth/internal/transport/http/middleware"
	"github.com/zaheer037/smart-auth/internal/transport/http/routes"
	"github.com/zaheer037/smart-auth/internal/usecase"
)

type Application struct {
	cfg    *config.AppConfig
	engine *gin.Engine
	logger *zap.Logger
	mongo  *database.Client
	redis  *redisinfra.Client
	kafka  *kafkainfra.Producer
}

func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	metrics, err := telemetry.Attach(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	mongoClient, err := database.NewClient(ctx, cfg.Mongo, log)
	if err != nil {
		return nil, fmt.Errorf("init mongo: %w", err)
	}

	if err := mongorepo.EnsureIndexes(ctx, mongoClient.Database()); err != nil {
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("ensure indexes: %w", err)
	}

	redisClient, err := redisinfra.NewClient(cfg.Redis, log)
	if err != nil {
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("init redis: %w", err)
	}

	users := mongorepo.NewUserRepository(mongoClient.Database(), cfg.Mongo.QueryTimeout)
	logins := mongorepo.NewLoginRepository(mongoClient.Database(), cfg.Mongo.QueryTimeout)

	var kafkaProducer *kafkainfra.Producer
	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			kafkaProducer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	rateLimitWindow := cfg.RateLimit.WindowDuration
	if rateLimitWindow <= 0 {
		rateLimitWindow = time.Minute
	}
	rateLimitStore := redisrepo.NewRateLimitRepository(redisClient.Client(), redisrepo.SlidingWindowConfig{
		KeyPrefix: "smartauth:rate-limit",
		TTL:       rateLimitWindow * 2,
	})
	rateLimiter := middleware.NewRateLimiter(rateLimitStore, log)

	signer, err := security.NewTokenSigner(cfg.JWT.Secret, cfg.App.Name, cfg.JWT.TokenTTL)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("init token signer: %w", err)
	}

	tokenService, err := usecase.NewTokenService(users, signer)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("init token service: %w", err)
	}

	resolver := geoip.New(cfg.GeoIP.Endpoint, cfg.GeoIP.Timeout, log)
	dispatcher := delivery.NewLoggingDispatcher(log)

	otpService, err := usecase.NewOTPService(
		cfg.OTP, users, logins, resolver, dispatcher, eventPublisher,
		usecase.NewRiskEvaluator(), tokenService, metrics, log,
	)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("init otp service: %w", err)
	}

	auditService, err := usecase.NewAuditService(users, logins)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("init audit service: %w", err)
	}

	userService, err := usecase.NewUserService(users)
	if err != nil {
		_ = redisClient.Close()
		_ = mongoClient.Close(ctx)
		return nil, fmt.Errorf("init user service: %w", err)
	}

	engine := routes.Register(routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Database:    mongoClient,
		Cache:       redisClient,
		Services: routes.ServiceSet{
			OTP:    otpService,
			Tokens: tokenService,
			Users:  userService,
			Audit:  auditService,
		},
	})

	return &Application{
		cfg:    cfg,
		engine: engine,
		logger: log,
		mongo:  mongoClient,
		redis:  redisClient,
		kafka:  kafkaProducer,
	}, nil
}

func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer func() {
		if a.mongo != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = a.mongo.Close(closeCtx)
		}
	}()
	defer func() {
		if a.redis != nil {
			_ = a.redis.Close()
		}
	}()
	defer func() {
		if a.kafka != nil {
			_ = a.kafka.Close()
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting smart-auth API",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}
