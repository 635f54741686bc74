package api

import (
	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/analytics"
	"github.com/gcbaptista/go-filter-engine/internal/lookup"
	"github.com/gcbaptista/go-filter-engine/services"
)

// API holds dependencies for API handlers, primarily the filter engine manager.
type API struct {
	engine    services.IndexManager
	analytics *analytics.Service
	parser    *lookup.Parser
}

// NewAPI creates a new API handler structure. The lookup syntax and the
// analytics data directory come from the provided settings; nil settings
// fall back to the defaults.
func NewAPI(engine services.IndexManager, cfg *config.Settings) *API {
	if cfg == nil {
		cfg = &config.Settings{}
		cfg.ApplyDefaults()
	}

	return &API{
		engine:    engine,
		analytics: analytics.NewService(engine, cfg.DataDir),
		parser:    lookup.NewParser(lookup.SyntaxFromSettings(cfg)),
	}
}

// SetupRoutes defines all the API routes for the filter engine.
func SetupRoutes(router *gin.Engine, engine services.IndexManager, cfg *config.Settings) {
	apiHandler := NewAPI(engine, cfg)

	router.Use(RequestIDMiddleware())
	router.Use(RequestSizeLimitMiddleware(32 << 20)) // 32 MB request body limit
	router.Use(CORSMiddleware())

	router.GET("/health", apiHandler.HealthCheckHandler)
	router.GET("/analytics", apiHandler.GetAnalyticsHandler)

	jobs := router.Group("/jobs")
	jobs.GET("/metrics", apiHandler.GetJobMetricsHandler)
	jobs.GET("/:jobId", apiHandler.GetJobHandler)

	indexes := router.Group("/indexes")
	indexes.POST("", apiHandler.CreateIndexHandler)
	indexes.GET("", apiHandler.ListIndexesHandler)

	index := indexes.Group("/:indexName")
	index.GET("", apiHandler.GetIndexHandler)
	index.DELETE("", apiHandler.DeleteIndexHandler)
	index.PATCH("/settings", apiHandler.UpdateIndexSettingsHandler)
	index.POST("/rename", apiHandler.RenameIndexHandler)
	index.GET("/stats", apiHandler.GetIndexStatsHandler)
	index.GET("/jobs", apiHandler.ListJobsHandler)

	index.GET("/filter", apiHandler.FilterHandler)
	index.POST("/multi_filter", apiHandler.MultiFilterHandler)

	documents := index.Group("/documents")
	documents.PUT("", apiHandler.AddDocumentsHandler)
	documents.GET("", apiHandler.GetDocumentsHandler)
	documents.DELETE("", apiHandler.DeleteAllDocumentsHandler)
	documents.GET("/:documentId", apiHandler.GetDocumentHandler)
	documents.DELETE("/:documentId", apiHandler.DeleteDocumentHandler)

	presets := index.Group("/presets")
	presets.GET("", apiHandler.ListPresetsHandler)
	presets.PUT("/:presetName", apiHandler.PutPresetHandler)
	presets.GET("/:presetName", apiHandler.GetPresetHandler)
	presets.DELETE("/:presetName", apiHandler.DeletePresetHandler)
	presets.GET("/:presetName/results", apiHandler.ExecutePresetHandler)
}
