package jobs

import (
	"context"
	stderrors "errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/model"
)

const (
	cleanupInterval = 1 * time.Hour
	maxJobAge       = 24 * time.Hour
)

// Manager tracks background jobs and runs them on a bounded worker pool.
type Manager struct {
	mu    sync.RWMutex
	jobs  map[string]*model.Job
	slots chan struct{} // One token per allowed concurrent job
	quit  chan struct{}
	wg    sync.WaitGroup
	stats *metrics
}

// NewManager creates a job manager allowing maxWorkers concurrent jobs.
func NewManager(maxWorkers int) *Manager {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Manager{
		jobs:  make(map[string]*model.Job),
		slots: make(chan struct{}, maxWorkers),
		quit:  make(chan struct{}),
		stats: newMetrics(),
	}
}

// Start launches the background cleanup loop.
func (m *Manager) Start() {
	log.Printf("Job manager started with %d max workers", cap(m.slots))
	go m.cleanupLoop()
}

// Stop shuts the manager down. Running jobs have their contexts cancelled
// and show up as cancelling until they return; Stop blocks until the last
// one has. Jobs that honor their context land in cancelled, jobs that run
// to completion anyway land in completed.
func (m *Manager) Stop() {
	close(m.quit)

	m.mu.Lock()
	for _, job := range m.jobs {
		if job.Status == model.JobStatusRunning {
			m.stats.statusChanged(job.Status, model.JobStatusCancelling)
			job.Status = model.JobStatusCancelling
		}
	}
	m.mu.Unlock()

	m.wg.Wait()
	log.Printf("Job manager stopped")
}

// CreateJob registers a new pending job and returns its ID.
func (m *Manager) CreateJob(jobType model.JobType, indexName string, metadata map[string]string) string {
	job := &model.Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		IndexName: indexName,
		Status:    model.JobStatusPending,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()

	m.stats.jobCreated(jobType)
	log.Printf("Created job %s (type: %s) for index '%s'", job.ID, job.Type, job.IndexName)
	return job.ID
}

// GetJob retrieves a job by ID.
func (m *Manager) GetJob(jobID string) (*model.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if job, ok := m.jobs[jobID]; ok {
		return copyJob(job), nil
	}
	return nil, errors.NewJobNotFoundError(jobID)
}

// ListJobs returns all jobs for a specific index, optionally filtered by
// status, newest first.
func (m *Manager) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	m.mu.RLock()
	var result []*model.Job
	for _, job := range m.jobs {
		if job.IndexName != indexName {
			continue
		}
		if status != nil && job.Status != *status {
			continue
		}
		result = append(result, copyJob(job))
	}
	m.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// copyJob returns a copy safe to hand out without racing status updates.
func copyJob(job *model.Job) *model.Job {
	jobCopy := *job
	if job.Progress != nil {
		progressCopy := *job.Progress
		jobCopy.Progress = &progressCopy
	}
	return &jobCopy
}

// ExecuteJob dispatches a pending job onto the worker pool. It blocks until
// a worker slot frees up, then runs jobFunc in its own goroutine. The context
// handed to jobFunc is cancelled when the manager stops, so long jobs should
// check it between units of work.
func (m *Manager) ExecuteJob(jobID string, jobFunc func(ctx context.Context, job *model.Job) error) error {
	m.mu.Lock()
	job, ok := m.jobs[jobID]
	if !ok {
		m.mu.Unlock()
		return errors.NewJobNotFoundError(jobID)
	}
	if job.Status != model.JobStatusPending {
		m.mu.Unlock()
		return fmt.Errorf("job with ID '%s' is not in pending status (current: %s)", jobID, job.Status)
	}

	now := time.Now()
	job.StartedAt = &now
	job.Status = model.JobStatusRunning
	m.stats.statusChanged(model.JobStatusPending, model.JobStatusRunning)
	m.mu.Unlock()

	select {
	case m.slots <- struct{}{}:
	case <-m.quit:
		m.updateJobStatus(jobID, model.JobStatusCancelled, "Job manager shutting down")
		return fmt.Errorf("job manager is shutting down")
	}

	m.wg.Add(1)
	go m.run(jobID, job, jobFunc)
	return nil
}

// run executes one dispatched job, releases its worker slot, and records the
// outcome. It owns the context whose cancellation mirrors manager shutdown.
func (m *Manager) run(jobID string, job *model.Job, jobFunc func(ctx context.Context, job *model.Job) error) {
	defer func() {
		<-m.slots
		m.wg.Done()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	returned := make(chan struct{})
	defer close(returned)
	go func() {
		select {
		case <-m.quit:
			cancel()
		case <-returned:
		}
	}()

	start := time.Now()
	err := jobFunc(ctx, job)
	took := time.Since(start)

	// Record metrics before flipping the status so a caller that observes
	// the final status also observes the metrics.
	switch {
	case err == nil:
		m.stats.jobFinished(job.Type, took, true)
		m.updateJobStatus(jobID, model.JobStatusCompleted, "")
		log.Printf("Job %s completed successfully in %v", jobID, took)
	case stderrors.Is(err, context.Canceled):
		m.updateJobStatus(jobID, model.JobStatusCancelled, err.Error())
		log.Printf("Job %s cancelled after %v", jobID, took)
	default:
		m.stats.jobFinished(job.Type, took, false)
		m.updateJobStatus(jobID, model.JobStatusFailed, err.Error())
		log.Printf("Job %s failed after %v: %v", jobID, took, err)
	}
}

// UpdateJobProgress updates the progress of a running job. Unknown job IDs
// are ignored; progress is advisory.
func (m *Manager) UpdateJobProgress(jobID string, current, total int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}
	if job.Progress == nil {
		job.Progress = &model.JobProgress{}
	}
	job.Progress.Current = current
	job.Progress.Total = total
	job.Progress.Message = message
}

// updateJobStatus moves a job to a new status, recording the transition and
// stamping CompletedAt once the job reaches a terminal state.
func (m *Manager) updateJobStatus(jobID string, status model.JobStatus, errorMsg string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.jobs[jobID]
	if !ok {
		return
	}

	m.stats.statusChanged(job.Status, status)
	job.Status = status
	if errorMsg != "" {
		job.Error = errorMsg
	}
	if status.IsTerminal() {
		now := time.Now()
		job.CompletedAt = &now
	}
}

// cleanupLoop prunes finished jobs on a fixed interval until shutdown.
func (m *Manager) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanupOldJobs(maxJobAge)
		case <-m.quit:
			return
		}
	}
}

// CleanupOldJobs removes finished jobs whose completion is older than maxAge.
func (m *Manager) CleanupOldJobs(maxAge time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	pruned := 0
	for id, job := range m.jobs {
		if job.CompletedAt == nil || !job.CompletedAt.Before(cutoff) {
			continue
		}
		delete(m.jobs, id)
		pruned++
	}

	if pruned > 0 {
		log.Printf("Pruned %d finished jobs", pruned)
	}
}

// GetMetrics returns a snapshot of the manager's job counters.
func (m *Manager) GetMetrics() MetricsSnapshot {
	return m.stats.snapshot()
}

// GetJobSuccessRate returns the overall job success rate.
func (m *Manager) GetJobSuccessRate() float64 {
	return m.stats.successRate()
}

// GetCurrentWorkload returns the number of jobs not yet in a terminal state.
func (m *Manager) GetCurrentWorkload() int64 {
	return m.stats.activeJobs()
}
