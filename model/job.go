package model

import (
	"time"
)

// Job is one background operation tracked by the job manager. Handlers
// return it directly, so every field carries its wire name.
type Job struct {
	ID          string            `json:"id"`
	Type        JobType           `json:"type"`
	Status      JobStatus         `json:"status"`
	IndexName   string            `json:"index_name"`
	Progress    *JobProgress      `json:"progress,omitempty"`
	Error       string            `json:"error,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	StartedAt   *time.Time        `json:"started_at,omitempty"`
	CompletedAt *time.Time        `json:"completed_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// JobProgress reports how far along a running job is.
type JobProgress struct {
	Current int    `json:"current"`
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// JobStatus is a job's position in the lifecycle from pending through
// running to a terminal state. Cancelling covers the window between shutdown
// starting and a running job observing its cancelled context.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusRunning    JobStatus = "running"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelling JobStatus = "cancelling"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether the status is final. Terminal jobs never change
// status again and become eligible for cleanup.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// JobType names the operation a job performs.
type JobType string

const (
	JobTypeCreateIndex    JobType = "create_index"
	JobTypeDeleteIndex    JobType = "delete_index"
	JobTypeRenameIndex    JobType = "rename_index"
	JobTypeUpdateSettings JobType = "update_settings"
	JobTypeRebuildIndex   JobType = "rebuild_index"
	JobTypeAddDocuments   JobType = "add_documents"
	JobTypeDeleteDocument JobType = "delete_document"
	JobTypeDeleteAllDocs  JobType = "delete_all_docs"
)
