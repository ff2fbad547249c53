package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/oakmund/admin-iam/internal/infra/config"
	"github.com/oakmund/admin-iam/internal/transport/http/handlers"
	"github.com/oakmund/admin-iam/internal/transport/http/middleware"
	"github.com/oakmund/admin-iam/internal/usecase"
)

// Dependencies bundles everything the router needs.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	AuthService *usecase.AuthService
	AuthHandler *handlers.AuthHandler
	Health      *handlers.HealthHandler
	RateLimiter *middleware.RateLimiter
	HTTPMetrics *middleware.HTTPMetrics
}

// Register builds the Gin engine with the full middleware chain and routes.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config != nil && deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.EnrichContext())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.Logger))
	if deps.HTTPMetrics != nil {
		router.Use(deps.HTTPMetrics.Handler())
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterSwagger(router)
	if deps.Health != nil {
		router.GET("/healthz", deps.Health.Healthz)
		router.GET("/readyz", deps.Health.Readyz)
	}

	api := router.Group("/api/v1")
	auth := api.Group("/auth")

	loginLimit := rateLimitFor(deps, "login", deps.Config.RateLimit.LoginMaxAttempts)
	refreshLimit := rateLimitFor(deps, "refresh", deps.Config.RateLimit.RefreshMaxAttempts)

	auth.POST("/login", loginLimit, deps.AuthHandler.Login)
	auth.POST("/logout", deps.AuthHandler.Logout)
	auth.POST("/refresh", refreshLimit, deps.AuthHandler.Refresh)
	auth.POST("/password/change",
		middleware.RequireAuth(deps.AuthService),
		deps.AuthHandler.ChangePassword)

	return router
}

func rateLimitFor(deps Dependencies, name string, limit int) gin.HandlerFunc {
	if deps.RateLimiter == nil || limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return deps.RateLimiter.RateLimit(middleware.RateLimitRule{
		Name:       name,
		Limit:      limit,
		Window:     deps.Config.RateLimit.WindowDuration,
		Identifier: middleware.ClientIPIdentifier(name),
	})
}
