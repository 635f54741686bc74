// Package testing provides utilities and helpers for testing the filter engine.
package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/engine"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

// CreateTestEngine creates a new engine instance backed by a per-test data
// directory. The engine is shut down when the test finishes.
func CreateTestEngine(t *testing.T) *engine.Engine {
	cfg := &config.Settings{DataDir: t.TempDir()}
	cfg.ApplyDefaults()

	eng := engine.NewEngine(cfg)
	t.Cleanup(eng.Close)

	return eng
}

// CreateTestIndex creates an index whose field lists cover what the fixture
// documents carry.
func CreateTestIndex(t *testing.T, eng *engine.Engine, indexName string) config.IndexSettings {
	settings := config.IndexSettings{
		Name:             indexName,
		SearchableFields: []string{"title", "overview"},
		FilterableFields: []string{"state", "year", "tags", "rating"},
	}
	require.NoError(t, eng.CreateIndex(settings), "Failed to create test index")

	return settings
}

// AddTestDocuments loads the three fixture documents into an index: two
// published titles and one still in progress.
func AddTestDocuments(t *testing.T, eng *engine.Engine, indexName string) []model.Document {
	indexAccessor, err := eng.GetIndex(indexName)
	require.NoError(t, err, "Failed to get index accessor")

	docs := []model.Document{
		{
			"id":       "doc1",
			"title":    "Static Horizon",
			"overview": "A lighthouse keeper hears a broadcast from tomorrow",
			"state":    "published",
			"year":     1999,
			"tags":     []string{"sci-fi", "mystery"},
			"rating":   9.5,
		},
		{
			"id":       "doc2",
			"title":    "Paper Compass",
			"overview": "A cartographer maps a city that keeps rearranging itself",
			"state":    "published",
			"year":     2010,
			"tags":     []string{"sci-fi", "thriller"},
			"rating":   9.2,
		},
		{
			"id":       "doc3",
			"title":    "Hollow Orbit",
			"overview": "A salvage crew drifts through a wormhole graveyard",
			"state":    "in-progress",
			"year":     2014,
			"tags":     []string{"sci-fi", "drama"},
			"rating":   8.8,
		},
	}
	require.NoError(t, indexAccessor.AddDocuments(docs), "Failed to add test documents")

	return docs
}

// JobPollingOptions configures how long WaitForJobCompletion keeps polling
// and how often.
type JobPollingOptions struct {
	Timeout      time.Duration
	PollInterval time.Duration
}

func DefaultJobPollingOptions() JobPollingOptions {
	return JobPollingOptions{
		Timeout:      10 * time.Second,
		PollInterval: 20 * time.Millisecond,
	}
}

// WaitForJobCompletion polls a job until it completes. A job that fails, is
// cancelled, or outlives the timeout fails the test.
func WaitForJobCompletion(t *testing.T, jobManager services.JobManager, jobID string, opts JobPollingOptions) *model.Job {
	t.Helper()
	deadline := time.Now().Add(opts.Timeout)

	for time.Now().Before(deadline) {
		job, err := jobManager.GetJob(jobID)
		require.NoError(t, err, "Failed to get job status")

		switch job.Status {
		case model.JobStatusCompleted:
			return job
		case model.JobStatusFailed:
			t.Fatalf("Job %s failed: %s", jobID, job.Error)
		case model.JobStatusCancelling, model.JobStatusCancelled:
			t.Fatalf("Job %s was cancelled", jobID)
		}

		time.Sleep(opts.PollInterval)
	}

	t.Fatalf("Job %s did not complete within %v timeout", jobID, opts.Timeout)
	return nil
}

// AssertJobCompleted checks the terminal state of a finished job against
// the operation that produced it.
func AssertJobCompleted(t *testing.T, job *model.Job, expectedType model.JobType, expectedIndex string) {
	assert.Equal(t, model.JobStatusCompleted, job.Status, "job status")
	assert.Equal(t, expectedType, job.Type, "job type")
	assert.Equal(t, expectedIndex, job.IndexName, "job index name")
	assert.NotNil(t, job.CompletedAt, "completion timestamp")
	assert.Empty(t, job.Error, "error on a completed job")
}

// AsyncOperationTest drives one async engine operation from dispatch through
// completion: SetupFunc prepares state and names the index, OperationFunc
// starts the job, and ValidateFunc checks the effect once the job is done.
type AsyncOperationTest struct {
	Name            string
	SetupFunc       func(t *testing.T, eng *engine.Engine) string
	OperationFunc   func(t *testing.T, eng *engine.Engine, indexName string) string
	ValidateFunc    func(t *testing.T, eng *engine.Engine, indexName string, job *model.Job)
	ExpectedJobType model.JobType
}

// RunAsyncOperationTests runs each case against a fresh engine.
func RunAsyncOperationTests(t *testing.T, tests []AsyncOperationTest) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			eng := CreateTestEngine(t)
			indexName := tt.SetupFunc(t, eng)

			jobID := tt.OperationFunc(t, eng, indexName)
			require.NotEmpty(t, jobID, "Job ID should not be empty")

			job := WaitForJobCompletion(t, eng, jobID, DefaultJobPollingOptions())
			AssertJobCompleted(t, job, tt.ExpectedJobType, indexName)

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, eng, indexName, job)
			}
		})
	}
}

// FilterTestCase holds one filter request and what it should find.
type FilterTestCase struct {
	Name          string
	Request       services.FilterRequest
	ExpectedTotal int
	ExpectedFirst string // Expected first result document ID
	ValidateFunc  func(t *testing.T, response services.PagedResponse)
}

// RunFilterTests executes each case against an already-populated index.
func RunFilterTests(t *testing.T, indexAccessor services.IndexAccessor, tests []FilterTestCase) {
	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			response, err := indexAccessor.Filter(context.Background(), tt.Request)
			require.NoError(t, err, "Filter should not fail")

			assert.Equal(t, tt.ExpectedTotal, response.Total, "result total")

			if tt.ExpectedFirst != "" && len(response.Items) > 0 {
				firstDocID, exists := response.Items[0].GetID()
				require.True(t, exists, "First result should have a document ID")
				assert.Equal(t, tt.ExpectedFirst, firstDocID, "first result ID")
			}

			if tt.ValidateFunc != nil {
				tt.ValidateFunc(t, response)
			}
		})
	}
}
