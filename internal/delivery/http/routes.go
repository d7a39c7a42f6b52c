package http

import (
	"github.com/gin-gonic/gin"
	"github.com/labelcheck/backend/config"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler) *gin.Engine {
	// Set Gin mode based on environment
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware())
	router.Use(LoggerMiddleware())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	// Health check endpoint
	router.GET("/health", handler.HealthCheck)

	// Label verification upload endpoint. The body limit leaves headroom
	// over the per-file limit for multipart boundaries and text fields.
	router.POST("/upload",
		BodyLimitMiddleware(cfg.Upload.MaxBytes+64*1024),
		handler.VerifyLabel,
	)

	return router
}
