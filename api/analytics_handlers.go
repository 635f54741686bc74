package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// GetAnalyticsHandler serves the aggregated filter analytics dashboard.
// The dashboard is assembled from recorded filter events, so an engine that
// has never run a filter returns zeroed aggregates rather than an error.
func (api *API) GetAnalyticsHandler(c *gin.Context) {
	dashboard, err := api.analytics.GetDashboardData()
	if err != nil {
		SendInternalError(c, "build analytics dashboard", err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

// HealthCheckHandler reports liveness plus a coarse shape of the instance.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"service":   "go-filter-engine",
		"indexes":   len(api.engine.ListIndexes()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
