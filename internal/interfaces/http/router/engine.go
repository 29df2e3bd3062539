package router

import (
	"github.com/gin-gonic/gin"
	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"github.com/smartinvoice/backend/internal/infrastructure/logger"
	"github.com/smartinvoice/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// EngineConfig selects the middleware of the HTTP engine
type EngineConfig struct {
	Logger  *zap.Logger
	HTTP    config.HTTPConfig
	Tracing middleware.TracingConfig
	Metrics middleware.HTTPMetricsConfig
	Auth    middleware.JWTMiddlewareConfig
	// RateLimiter is applied per owner after authentication; nil disables it
	RateLimiter *middleware.RateLimiter
}

// NewEngine builds the gin engine with the full middleware chain and route table.
//
// Engine-wide, in order: request id, panic recovery, request logging,
// tracing, metrics, security headers, CORS and the body size limit.
// The API group then authenticates the owner, tags the span and applies
// the rate limit.
func NewEngine(cfg EngineConfig, h Handlers) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(cfg.Tracing))
	engine.Use(middleware.HTTPMetrics(cfg.Metrics))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))
	auth := cfg.Auth
	auth.SkipPaths = append(auth.SkipPaths, r.BasePath()+"/system/health", r.BasePath()+"/system/info")
	if auth.Logger == nil {
		auth.Logger = log
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(auth), middleware.SpanEnricher())
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter))
	}
	r.Register(APIGroups(h)...)
	r.Setup()

	return engine
}
