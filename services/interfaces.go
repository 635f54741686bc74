package services

import (
	"context"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/query"
)

// TreeSearchOptions carries the optional knobs a filter request may add on
// top of the compiled clause tree. Both are collaborator concerns: the core
// compiler knows nothing about them.
type TreeSearchOptions struct {
	Query    string `json:"query,omitempty"`    // optional free-text query over the searchable fields
	Ordering string `json:"ordering,omitempty"` // "field" ascending, "-field" descending; empty keeps index order
}

// TreeSearcher is the index collaborator boundary: it evaluates a compiled
// clause tree and returns the matching document IDs inside the pagination
// window plus the pre-pagination total. Implementations own field handling,
// tokenization, ordering, and storage.
type TreeSearcher interface {
	SearchTree(ctx context.Context, tree *query.Tree, page query.Page, opts TreeSearchOptions) (query.Result, error)
}

// FilterRequest is one filter query as the API surface sees it: the raw
// query-string filter plus pagination and collaborator options.
type FilterRequest struct {
	RawQuery string `json:"raw_query"`
	Query    string `json:"query,omitempty"`
	Ordering string `json:"ordering,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

// PagedResponse is the caller-facing result shape for a filter query.
type PagedResponse struct {
	Items    []model.Document `json:"items"`
	Total    int              `json:"total"`
	HasNext  bool             `json:"has_next"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	Took     int64            `json:"took"`     // milliseconds
	QueryID  string           `json:"query_id"` // unique UUID for this filter query
}

// NamedFilter is a single named filter within a multi-filter request.
type NamedFilter struct {
	Name     string `json:"name"`
	RawQuery string `json:"raw_query"`
	Query    string `json:"query,omitempty"`
	Ordering string `json:"ordering,omitempty"`
}

// MultiFilterRequest executes multiple named filter queries against one
// index in a single call. Page and PageSize apply to every filter.
type MultiFilterRequest struct {
	Filters  []NamedFilter `json:"filters"`
	Page     int           `json:"page,omitempty"`
	PageSize int           `json:"page_size,omitempty"`
}

// MultiFilterResult carries the per-filter responses keyed by filter name.
type MultiFilterResult struct {
	Results          map[string]PagedResponse `json:"results"`
	TotalFilters     int                      `json:"total_filters"`
	ProcessingTimeMs float64                  `json:"processing_time_ms"`
}

// Indexer is the write side of an index: batch ingest and deletion.
type Indexer interface {
	AddDocuments(docs []model.Document) error
	DeleteAllDocuments() error
	DeleteDocument(docID string) error
}

// Filterer executes a single filter query against an index.
type Filterer interface {
	Filter(ctx context.Context, req FilterRequest) (PagedResponse, error)
}

// MultiFilterer executes several named filter queries in one call.
type MultiFilterer interface {
	MultiFilter(ctx context.Context, req MultiFilterRequest) (*MultiFilterResult, error)
}

// DocumentReader is read access to the stored documents of an index.
type DocumentReader interface {
	GetDocument(docID string) (model.Document, error)
	ListDocuments(page, pageSize int) ([]model.Document, int, error) // returns page of documents and total count
}

// PresetStore holds the saved filter presets of an index.
type PresetStore interface {
	PutPreset(preset model.Preset) (model.Preset, error)
	GetPreset(name string) (model.Preset, error)
	ListPresets() []model.Preset
	DeletePreset(name string) error
}

// IndexManager owns the index lifecycle: creation, renames, deletion,
// settings, and persistence.
type IndexManager interface {
	CreateIndex(settings config.IndexSettings) error
	RenameIndex(oldName, newName string) error
	DeleteIndex(name string) error
	GetIndex(name string) (IndexAccessor, error) // IndexAccessor combines the per-index capabilities
	ListIndexes() []string
	GetIndexSettings(name string) (config.IndexSettings, error)
	UpdateIndexSettings(name string, settings config.IndexSettings) error
	PersistIndexData(indexName string) error
}

// JobManager exposes read access to tracked background jobs.
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(indexName string, status *model.JobStatus) []*model.Job
}

// IndexAccessor bundles everything callers can do with one index.
type IndexAccessor interface {
	Indexer
	Filterer
	MultiFilterer
	DocumentReader
	PresetStore
	Settings() config.IndexSettings
	Stats() model.IndexStats
}
