package http

import (
	"github.com/amicci/supplier-search/config"
	"github.com/amicci/supplier-search/internal/infrastructure/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter creates and configures the Gin router. limiter may be nil to
// disable per-client rate limiting.
func SetupRouter(cfg *config.Config, handler *Handler, limiter *ratelimit.Registry) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RequestIDMiddleware())
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/", handler.Root)
	router.GET("/health", handler.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	suppliers := router.Group("/suppliers")
	if limiter != nil {
		suppliers.Use(RateLimitMiddleware(limiter))
	}
	{
		suppliers.GET("/category/:term", handler.SearchSuppliersByCategory)
	}

	return router
}
