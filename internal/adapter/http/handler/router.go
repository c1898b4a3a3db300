package handler

import (
	"merchant-acquirer/internal/adapter/http/middleware"
	redisStore "merchant-acquirer/internal/adapter/storage/redis"
	"merchant-acquirer/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc         ports.AuthService
	RegistrationSvc ports.RegistrationService
	AuditSvc        ports.AuditService // nil = audit endpoints and access audit disabled
	TokenSvc        ports.TokenService
	RateLimitStore  *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers  []ports.HealthChecker
	MetricsGatherer prometheus.Gatherer // nil = /metrics disabled
	Logger          zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep, verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Prometheus metrics
	if deps.MetricsGatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{})))
	}

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/register", rl("auth_register"), authHandler.Register)
		auth.POST("/login", rl("auth_login"), authHandler.Login)
	}

	// --- JWT-authenticated portal routes ---
	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	portal := v1.Group("", jwtAuth)
	if deps.AuditSvc != nil {
		portal.Use(middleware.AccessAudit(deps.AuditSvc))
	}

	merchantHandler := NewMerchantHandler(deps.RegistrationSvc)
	merchants := portal.Group("/merchants")
	{
		merchants.POST("", rl("portal"), merchantHandler.Create)
		merchants.GET("", rl("portal"), merchantHandler.List)
		merchants.GET("/:id", rl("portal"), merchantHandler.Get)
		merchants.PUT("/:id/ready", rl("transitions"), merchantHandler.ReadyToReview)
	}

	// Checker batch transitions live outside /merchants so the path does not
	// collide with the :id wildcard.
	registration := portal.Group("/registration")
	{
		registration.PUT("/bulk-approve", rl("transitions"), merchantHandler.BulkApprove)
		registration.PUT("/bulk-reject", rl("transitions"), merchantHandler.BulkReject)
		registration.PUT("/bulk-revert", rl("transitions"), merchantHandler.BulkRevert)
	}

	registryHandler := NewRegistryHandler(deps.RegistrationSvc)
	portal.POST("/registry/endpoints", rl("portal"), registryHandler.RegisterEndpoint)

	if deps.AuditSvc != nil {
		auditHandler := NewAuditHandler(deps.AuditSvc)
		portal.GET("/audits", rl("portal"), auditHandler.List)
	}

	return r
}
