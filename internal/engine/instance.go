package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/index"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/internal/indexing"
	"github.com/gcbaptista/go-filter-engine/internal/presets"
	"github.com/gcbaptista/go-filter-engine/internal/search"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
	"github.com/gcbaptista/go-filter-engine/store"
)

// IndexInstance holds all components and services for a single filter index.
// It implements the services.IndexAccessor interface.
type IndexInstance struct {
	settings      *config.IndexSettings
	FieldIndex    *index.FieldIndex
	DocumentStore *store.DocumentStore
	indexer       *indexing.Service
	searcher      *search.Service
	presets       *presets.Store
}

// NewIndexInstance creates and initializes a new IndexInstance. The
// searcher and preset store are attached by the engine afterwards because
// they need the shared parser and worker pool.
func NewIndexInstance(settings config.IndexSettings) (*IndexInstance, error) {
	if settings.Name == "" {
		return nil, fmt.Errorf("index settings carry no name")
	}

	docStore := &store.DocumentStore{
		Docs:                   make(map[uint32]model.Document),
		ExternalIDtoInternalID: make(map[string]uint32),
	}

	fieldIndex := &index.FieldIndex{
		Values:   make(map[string]map[string][]uint32),
		Presence: make(map[string][]uint32),
		Tokens:   make(map[string]index.PostingList),
		Settings: &settings,
	}

	indexerService, err := indexing.NewService(fieldIndex, docStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}

	return &IndexInstance{
		settings:      &settings,
		FieldIndex:    fieldIndex,
		DocumentStore: docStore,
		indexer:       indexerService,
	}, nil
}

// notReady reports use of a capability before the engine attached the
// service behind it.
func (i *IndexInstance) notReady(what string) error {
	return fmt.Errorf("%s not initialized for index '%s'", what, i.settings.Name)
}

// The accessor methods below fan out to the per-index services. Each one
// guards against a service the engine has not attached yet.

func (i *IndexInstance) AddDocuments(docs []model.Document) error {
	if i.indexer == nil {
		return i.notReady("indexer service")
	}
	return i.indexer.AddDocuments(docs)
}

func (i *IndexInstance) DeleteAllDocuments() error {
	if i.indexer == nil {
		return i.notReady("indexer service")
	}
	return i.indexer.DeleteAllDocuments()
}

func (i *IndexInstance) DeleteDocument(docID string) error {
	if i.indexer == nil {
		return i.notReady("indexer service")
	}
	return i.indexer.DeleteDocument(docID)
}

func (i *IndexInstance) Filter(ctx context.Context, req services.FilterRequest) (services.PagedResponse, error) {
	if i.searcher == nil {
		return services.PagedResponse{}, i.notReady("search service")
	}
	return i.searcher.Filter(ctx, req)
}

func (i *IndexInstance) MultiFilter(ctx context.Context, req services.MultiFilterRequest) (*services.MultiFilterResult, error) {
	if i.searcher == nil {
		return nil, i.notReady("search service")
	}
	return i.searcher.MultiFilter(ctx, req)
}

// GetDocument returns the stored document with the given external ID.
func (i *IndexInstance) GetDocument(docID string) (model.Document, error) {
	i.DocumentStore.Mu.RLock()
	defer i.DocumentStore.Mu.RUnlock()

	internalID, exists := i.DocumentStore.ExternalIDtoInternalID[docID]
	if !exists {
		return nil, errors.NewDocumentNotFoundError(docID, i.settings.Name)
	}
	return i.DocumentStore.Docs[internalID], nil
}

// ListDocuments returns one page of stored documents in internal ID order,
// which is insertion order, plus the total document count.
func (i *IndexInstance) ListDocuments(page, pageSize int) ([]model.Document, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	i.DocumentStore.Mu.RLock()
	defer i.DocumentStore.Mu.RUnlock()

	total := len(i.DocumentStore.Docs)

	internalIDs := make([]uint32, 0, total)
	for internalID := range i.DocumentStore.Docs {
		internalIDs = append(internalIDs, internalID)
	}
	sort.Slice(internalIDs, func(a, b int) bool { return internalIDs[a] < internalIDs[b] })

	start := (page - 1) * pageSize
	if start >= total {
		return []model.Document{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	docs := make([]model.Document, 0, end-start)
	for _, internalID := range internalIDs[start:end] {
		docs = append(docs, i.DocumentStore.Docs[internalID])
	}
	return docs, total, nil
}

func (i *IndexInstance) PutPreset(preset model.Preset) (model.Preset, error) {
	if i.presets == nil {
		return model.Preset{}, i.notReady("preset store")
	}
	return i.presets.Put(preset)
}

func (i *IndexInstance) GetPreset(name string) (model.Preset, error) {
	if i.presets == nil {
		return model.Preset{}, i.notReady("preset store")
	}
	return i.presets.Get(name)
}

func (i *IndexInstance) ListPresets() []model.Preset {
	if i.presets == nil {
		return nil
	}
	return i.presets.List()
}

func (i *IndexInstance) DeletePreset(name string) error {
	if i.presets == nil {
		return i.notReady("preset store")
	}
	return i.presets.Delete(name)
}

// Settings returns a copy of the index configuration.
func (i *IndexInstance) Settings() config.IndexSettings {
	i.FieldIndex.Mu.RLock()
	defer i.FieldIndex.Mu.RUnlock()
	return *i.settings
}

// Stats reports document and per-field cardinality counts for this index.
func (i *IndexInstance) Stats() model.IndexStats {
	i.DocumentStore.Mu.RLock()
	i.FieldIndex.Mu.RLock()
	defer i.DocumentStore.Mu.RUnlock()
	defer i.FieldIndex.Mu.RUnlock()

	distinct := make(map[string]int, len(i.FieldIndex.Values))
	for field, values := range i.FieldIndex.Values {
		distinct[field] = len(values)
	}

	return model.IndexStats{
		Name:             i.settings.Name,
		DocumentCount:    len(i.DocumentStore.Docs),
		SearchableFields: append([]string(nil), i.settings.SearchableFields...),
		FilterableFields: append([]string(nil), i.settings.FilterableFields...),
		DistinctValues:   distinct,
	}
}

// SetSearcher attaches the search service once the engine has built it.
func (i *IndexInstance) SetSearcher(searcher *search.Service) {
	i.searcher = searcher
}

// SetPresetStore attaches the preset store once the engine has built it.
func (i *IndexInstance) SetPresetStore(store *presets.Store) {
	i.presets = store
}

// applySettings swaps the settings struct shared by the index services.
// The store and field index locks serialize the swap against concurrent
// reads from the indexer and searcher.
func (i *IndexInstance) applySettings(newSettings config.IndexSettings) {
	i.DocumentStore.Mu.Lock()
	i.FieldIndex.Mu.Lock()
	*i.settings = newSettings
	i.FieldIndex.Mu.Unlock()
	i.DocumentStore.Mu.Unlock()
}
