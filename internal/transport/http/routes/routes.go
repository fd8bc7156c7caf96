// Package routes wires the Gin engine: middleware chain, health and
// metrics endpoints, and the versioned API groups.
package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/zaheer037/smart-auth/internal/core/domain"
	"github.com/zaheer037/smart-auth/internal/infra/config"
	"github.com/zaheer037/smart-auth/internal/transport/http/handlers"
	"github.com/zaheer037/smart-auth/internal/transport/http/middleware"
	"github.com/zaheer037/smart-auth/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	OTP    *usecase.OTPService
	Tokens *usecase.TokenService
	Users  *usecase.UserService
	Audit  *usecase.AuditService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with routes and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(deps.Config.App.AllowedOrigins))
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{
		Namespace: deps.Config.Telemetry.Namespace,
	}); err == nil {
		r.Use(metrics.Handler())
	} else if deps.Logger != nil {
		deps.Logger.Warn("http metrics disabled", zap.Error(err))
	}

	authMiddleware := middleware.RequireAuth(deps.Services.Tokens)

	healthOptions := make([]handlers.HealthOption, 0, 2)
	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("mongo", deps.Database.Ping))
	}
	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}
	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		authHandler := handlers.NewAuthHandler(deps.Services.OTP)
		authHandler.RegisterRoutes(authGroup, buildIssueMiddlewares(deps)...)

		userGroup := api.Group("/user")
		userGroup.Use(authMiddleware)
		userHandler := handlers.NewUserHandler(deps.Services.Audit)
		userHandler.RegisterRoutes(userGroup)

		adminGroup := api.Group("/admin")
		adminGroup.Use(authMiddleware, middleware.RequireRole(domain.RoleAdmin))
		adminHandler := handlers.NewAdminHandler(deps.Services.Users, deps.Services.Audit)
		adminHandler.RegisterRoutes(adminGroup)
	}

	return r
}

// buildIssueMiddlewares assembles the per-IP sliding window sitting in
// front of the code issuance endpoints.
func buildIssueMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil {
		return nil
	}

	cfg := deps.Config.RateLimit
	if cfg.SendMaxAttempts <= 0 || cfg.WindowDuration <= 0 {
		return nil
	}

	rule := middleware.RateLimitRule{
		Name:       "otp-issue",
		Limit:      cfg.SendMaxAttempts,
		Window:     cfg.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{deps.RateLimiter.RateLimit(rule)}
}
