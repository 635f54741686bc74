package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

// jobManager returns the engine's job manager view, or replies 501 when
// the wired engine cannot track background jobs.
func (api *API) jobManager(c *gin.Context) (services.JobManager, bool) {
	manager, ok := api.engine.(services.JobManager)
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Job management not supported by this engine"})
	}
	return manager, ok
}

// GetJobHandler returns the status of one background job.
func (api *API) GetJobHandler(c *gin.Context) {
	jobID := c.Param("jobId")

	manager, ok := api.jobManager(c)
	if !ok {
		return
	}

	job, err := manager.GetJob(jobID)
	if err != nil {
		if errors.Is(err, internalErrors.ErrJobNotFound) {
			SendJobNotFoundError(c, jobID)
			return
		}
		SendInternalError(c, "get job", err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListJobsHandler lists the background jobs of one index, optionally
// filtered by status. Jobs outlive index deletion, so the index itself
// does not have to exist.
func (api *API) ListJobsHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	var statusFilter *model.JobStatus
	if statusParam := c.Query("status"); statusParam != "" {
		status := model.JobStatus(statusParam)
		statusFilter = &status
	}

	manager, ok := api.jobManager(c)
	if !ok {
		return
	}

	jobs := manager.ListJobs(indexName, statusFilter)
	c.JSON(http.StatusOK, gin.H{
		"jobs":       jobs,
		"index_name": indexName,
		"total":      len(jobs),
	})
}

// GetJobMetricsHandler reports aggregate job throughput numbers. Metrics
// live on the concrete engine's manager, not the services interface.
func (api *API) GetJobMetricsHandler(c *gin.Context) {
	concreteEngine, ok := api.asyncEngine()
	if !ok {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "Job metrics not supported by this engine"})
		return
	}

	manager := concreteEngine.JobManager()
	c.JSON(http.StatusOK, gin.H{
		"metrics":          manager.GetMetrics(),
		"success_rate":     manager.GetJobSuccessRate(),
		"current_workload": manager.GetCurrentWorkload(),
	})
}
