package api

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/jroosing/zonepress/internal/api/handlers"
	"github.com/jroosing/zonepress/internal/api/middleware"
	"github.com/jroosing/zonepress/internal/config"

	_ "github.com/jroosing/zonepress/internal/api/docs" // swagger docs
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, cfg *config.Config) {
	// Swagger UI at /swagger/*
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")

	// Health stays reachable for probes without a key.
	api.GET("/health", h.Health)

	protected := api.Group("")
	if cfg != nil && cfg.API.APIKey != "" {
		protected.Use(middleware.RequireAPIKey(cfg.API.APIKey))
	}

	protected.GET("/documents", h.ListDocuments)
	protected.GET("/documents/:name", h.GetDocument)

	protected.GET("/publications", h.ListPublications)
	protected.GET("/publications/:id", h.GetPublication)
}
