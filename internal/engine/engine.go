// Package engine wires the per-index services together and manages their
// lifecycle: creation, loading from disk, settings updates, renames, and
// deletion, plus the background jobs that run the heavy operations.
package engine

import (
	"log"
	"path/filepath"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/internal/jobs"
	"github.com/gcbaptista/go-filter-engine/internal/lookup"
	"github.com/gcbaptista/go-filter-engine/internal/presets"
	"github.com/gcbaptista/go-filter-engine/internal/search"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

// Engine manages all filter indexes and implements services.IndexManager.
// One lookup parser and one multi-filter worker pool are shared across all
// indexes; each index gets its own storage, indexer, and searcher.
type Engine struct {
	mu         sync.RWMutex
	indexes    map[string]*IndexInstance
	config     *config.Settings
	dataDir    string
	parser     *lookup.Parser
	filterPool *ants.Pool
	jobManager *jobs.Manager
}

// NewEngine creates the engine, starts the background job manager, and
// loads any indexes persisted under the configured data directory.
func NewEngine(cfg *config.Settings) *Engine {
	if cfg == nil {
		cfg = &config.Settings{}
		cfg.ApplyDefaults()
	}

	filterPool, err := ants.NewPool(cfg.MultiFilterWorkers)
	if err != nil {
		log.Printf("Warning: Could not create multi-filter worker pool: %v. Multi-filter requests will spawn plain goroutines.", err)
		filterPool = nil
	}

	jobManager := jobs.NewManager(cfg.MaxJobWorkers)
	jobManager.Start()

	engine := &Engine{
		indexes:    make(map[string]*IndexInstance),
		config:     cfg,
		dataDir:    cfg.DataDir,
		parser:     lookup.NewParser(lookup.SyntaxFromSettings(cfg)),
		filterPool: filterPool,
		jobManager: jobManager,
	}

	engine.loadIndexesFromDisk()
	return engine
}

// Close stops the background job manager, waiting for running jobs, and
// releases the multi-filter worker pool.
func (e *Engine) Close() {
	e.jobManager.Stop()
	if e.filterPool != nil {
		e.filterPool.Release()
	}
}

// JobManager exposes the background job manager for API wiring.
func (e *Engine) JobManager() *jobs.Manager {
	return e.jobManager
}

// GetJob retrieves a background job by ID.
func (e *Engine) GetJob(jobID string) (*model.Job, error) {
	return e.jobManager.GetJob(jobID)
}

// ListJobs returns the background jobs of one index, newest first,
// optionally filtered by status.
func (e *Engine) ListJobs(indexName string, status *model.JobStatus) []*model.Job {
	return e.jobManager.ListJobs(indexName, status)
}

// GetIndex retrieves an index by name for querying and document operations.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings returns a copy of the settings for the named index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return config.IndexSettings{}, errors.NewIndexNotFoundError(name)
	}
	return instance.Settings(), nil
}

// ListIndexes returns the names of all indexes in lexical order.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	e.mu.RUnlock()

	sort.Strings(names)
	return names
}

// newSearcher builds a search service for an instance using the engine's
// shared parser, worker pool, and pagination limits.
func (e *Engine) newSearcher(instance *IndexInstance) (*search.Service, error) {
	searchService, err := search.NewService(instance.FieldIndex, instance.DocumentStore, instance.settings, e.parser, e.filterPool)
	if err != nil {
		return nil, err
	}
	searchService.DefaultPageSize = e.config.DefaultPageSize
	searchService.MaxPageSize = e.config.MaxPageSize
	return searchService, nil
}

// attachServices wires the searcher and preset store of a freshly created
// or loaded instance. NewIndexInstance leaves both unset because they
// depend on engine-level state.
func (e *Engine) attachServices(instance *IndexInstance) error {
	searchService, err := e.newSearcher(instance)
	if err != nil {
		return err
	}
	instance.SetSearcher(searchService)

	presetsPath := filepath.Join(e.indexPath(instance.settings.Name), presetsFile)
	instance.SetPresetStore(presets.NewStore(presetsPath, e.parser))
	return nil
}
