package jobs

import (
	"sync"
	"time"

	"github.com/gcbaptista/go-filter-engine/model"
)

// MetricsSnapshot is a point-in-time copy of the manager's counters, safe to
// marshal without holding any lock.
type MetricsSnapshot struct {
	JobsCreated          int64                           `json:"jobs_created"`
	JobsCompleted        int64                           `json:"jobs_completed"`
	JobsFailed           int64                           `json:"jobs_failed"`
	TotalExecutionTime   time.Duration                   `json:"total_execution_time_ns"`
	AverageExecutionTime time.Duration                   `json:"average_execution_time_ns"`
	AverageByType        map[model.JobType]time.Duration `json:"average_execution_time_ns_by_type"`
	JobsByType           map[model.JobType]int64         `json:"jobs_by_type"`
	JobsByStatus         map[model.JobStatus]int64       `json:"jobs_by_status"`
	LastUpdated          time.Time                       `json:"last_updated"`
}

// typeCounters accumulates lifetime figures for one job type. Durations are
// summed rather than sampled, so averages cover every run since startup.
type typeCounters struct {
	created  int64
	finished int64
	runtime  time.Duration
}

// metrics holds the manager's counters. All access goes through its mutex;
// the manager hands out MetricsSnapshot copies, never the struct itself.
type metrics struct {
	mu        sync.Mutex
	created   int64
	completed int64
	failed    int64
	totalRun  time.Duration
	byType    map[model.JobType]*typeCounters
	byStatus  map[model.JobStatus]int64
	updatedAt time.Time
}

func newMetrics() *metrics {
	return &metrics{
		byType:    make(map[model.JobType]*typeCounters),
		byStatus:  make(map[model.JobStatus]int64),
		updatedAt: time.Now(),
	}
}

// forType returns the counters for a job type, creating them on first use.
// Callers must hold the mutex.
func (m *metrics) forType(jobType model.JobType) *typeCounters {
	tc, ok := m.byType[jobType]
	if !ok {
		tc = &typeCounters{}
		m.byType[jobType] = tc
	}
	return tc
}

// jobCreated counts a freshly created job, which always starts out pending.
func (m *metrics) jobCreated(jobType model.JobType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.created++
	m.forType(jobType).created++
	m.byStatus[model.JobStatusPending]++
	m.updatedAt = time.Now()
}

// statusChanged moves one job between status buckets. The old bucket is
// clamped at zero so a missed transition cannot drive it negative.
func (m *metrics) statusChanged(oldStatus, newStatus model.JobStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" {
		if m.byStatus[oldStatus]--; m.byStatus[oldStatus] < 0 {
			m.byStatus[oldStatus] = 0
		}
	}
	m.byStatus[newStatus]++
	m.updatedAt = time.Now()
}

// jobFinished records the outcome of a run. Execution time only counts
// toward the averages when the job succeeded, matching what the duration
// figures are used for: sizing expectations for healthy runs.
func (m *metrics) jobFinished(jobType model.JobType, executionTime time.Duration, succeeded bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !succeeded {
		m.failed++
		m.updatedAt = time.Now()
		return
	}

	m.completed++
	m.totalRun += executionTime
	tc := m.forType(jobType)
	tc.finished++
	tc.runtime += executionTime
	m.updatedAt = time.Now()
}

// snapshot copies the counters into an independent MetricsSnapshot.
func (m *metrics) snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		JobsCreated:        m.created,
		JobsCompleted:      m.completed,
		JobsFailed:         m.failed,
		TotalExecutionTime: m.totalRun,
		AverageByType:      make(map[model.JobType]time.Duration, len(m.byType)),
		JobsByType:         make(map[model.JobType]int64, len(m.byType)),
		JobsByStatus:       make(map[model.JobStatus]int64, len(m.byStatus)),
		LastUpdated:        m.updatedAt,
	}

	if m.completed > 0 {
		snap.AverageExecutionTime = m.totalRun / time.Duration(m.completed)
	}
	for jobType, tc := range m.byType {
		snap.JobsByType[jobType] = tc.created
		if tc.finished > 0 {
			snap.AverageByType[jobType] = tc.runtime / time.Duration(tc.finished)
		}
	}
	for status, count := range m.byStatus {
		snap.JobsByStatus[status] = count
	}
	return snap
}

// successRate reports completed/(completed+failed), or 1.0 before any job
// has finished.
func (m *metrics) successRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	finished := m.completed + m.failed
	if finished == 0 {
		return 1.0
	}
	return float64(m.completed) / float64(finished)
}

// activeJobs counts jobs that are pending, running, or winding down.
func (m *metrics) activeJobs() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.byStatus[model.JobStatusPending] +
		m.byStatus[model.JobStatusRunning] +
		m.byStatus[model.JobStatusCancelling]
}
