package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/index"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/internal/indexing"
	"github.com/gcbaptista/go-filter-engine/internal/persistence"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/store"
)

const (
	dataDirPerm       = 0755
	indexesDirName    = "indexes"
	settingsFile      = "settings.gob"
	fieldIndexFile    = "field_index.gob"
	documentStoreFile = "document_store.gob"
	presetsFile       = "presets.gob"
)

// indexesDir returns the directory all index data lives under. Other files
// in the data directory, like the analytics snapshot, stay out of its way.
func (e *Engine) indexesDir() string {
	return filepath.Join(e.dataDir, indexesDirName)
}

// indexPath returns the directory holding one index's persisted files.
func (e *Engine) indexPath(name string) string {
	return filepath.Join(e.indexesDir(), name)
}

// loadIndexesFromDisk restores every index found in the data directory.
// A directory that fails to load is skipped with a warning so one bad
// index cannot keep the rest of the engine from starting.
func (e *Engine) loadIndexesFromDisk() {
	log.Printf("Loading indexes from disk: %s", e.indexesDir())

	if err := os.MkdirAll(e.indexesDir(), dataDirPerm); err != nil {
		log.Printf("Warning: Could not create data directory %s: %v. Proceeding without persistence for new indexes if loading fails.", e.indexesDir(), err)
	}

	items, err := os.ReadDir(e.indexesDir())
	if err != nil {
		log.Printf("Warning: Failed to read data directory %s: %v. No indexes loaded.", e.indexesDir(), err)
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		name := item.Name()
		instance, err := e.loadIndex(name)
		if err != nil {
			log.Printf("Warning: Skipping index '%s': %v", name, err)
			continue
		}
		e.indexes[name] = instance
		log.Printf("Loaded index '%s' (%d documents).", name, len(instance.DocumentStore.Docs))
	}
}

// loadIndex restores one index from its directory. Missing data files are
// tolerated since a fresh index may have persisted only its settings, but
// unreadable settings or a name mismatch abort the load.
func (e *Engine) loadIndex(indexName string) (*IndexInstance, error) {
	indexPath := e.indexPath(indexName)

	var settings config.IndexSettings
	if err := persistence.LoadGob(filepath.Join(indexPath, settingsFile), &settings); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Name != indexName {
		return nil, fmt.Errorf("index name in settings ('%s') does not match directory name ('%s')", settings.Name, indexName)
	}

	docStore := &store.DocumentStore{}
	if !loadOptionalGob(filepath.Join(indexPath, documentStoreFile), "document store", indexName, docStore) {
		docStore.Docs = make(map[uint32]model.Document)
		docStore.ExternalIDtoInternalID = make(map[string]uint32)
	}

	fieldIndex := &index.FieldIndex{Settings: &settings}
	if !loadOptionalGob(filepath.Join(indexPath, fieldIndexFile), "field index", indexName, fieldIndex) {
		fieldIndex.Values = make(map[string]map[string][]uint32)
		fieldIndex.Presence = make(map[string][]uint32)
		fieldIndex.Tokens = make(map[string]index.PostingList)
	}
	// Decoding replaces the Settings pointer with the persisted copy;
	// re-link it so every service shares the one struct that settings
	// updates mutate.
	fieldIndex.Settings = &settings

	indexer, err := indexing.NewService(fieldIndex, docStore)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexer service: %w", err)
	}

	instance := &IndexInstance{
		settings:      &settings,
		FieldIndex:    fieldIndex,
		DocumentStore: docStore,
		indexer:       indexer,
	}
	if err := e.attachServices(instance); err != nil {
		return nil, fmt.Errorf("failed to create search service: %w", err)
	}
	return instance, nil
}

// loadOptionalGob fills target from path when the file exists. A missing
// file means the piece has not been persisted yet; a corrupted one is
// logged and treated the same way so the rest of the index still loads.
func loadOptionalGob(path, what, indexName string, target interface{}) bool {
	switch err := persistence.LoadGob(path, target); err {
	case nil:
		return true
	case os.ErrNotExist:
		log.Printf("Info: No %s file at %s for index %s. Starting empty.", what, path, indexName)
	default:
		log.Printf("Warning: Failed to load %s for index %s from %s: %v. Starting empty.", what, indexName, path, err)
	}
	return false
}

// PersistIndexData flushes one index's current in-memory state to disk.
func (e *Engine) PersistIndexData(indexName string) error {
	e.mu.RLock()
	instance, exists := e.indexes[indexName]
	e.mu.RUnlock()
	if !exists {
		return errors.NewIndexNotFoundError(indexName)
	}

	return e.persistUpdatedIndexUnsafe(indexName, instance.Settings(), instance)
}

// persistUpdatedIndexUnsafe writes an index's settings, field index, and
// document store under its directory. The preset store writes its own file
// on mutation, so it is not rewritten here. The caller is responsible for
// holding whatever lock guards the instance.
func (e *Engine) persistUpdatedIndexUnsafe(name string, settings config.IndexSettings, instance *IndexInstance) error {
	indexPath := e.indexPath(name)
	if err := os.MkdirAll(indexPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for index %s: %w", name, err)
	}

	pieces := []struct {
		file string
		what string
		data interface{}
	}{
		{settingsFile, "settings", settings},
		{fieldIndexFile, "field index", instance.FieldIndex},
		{documentStoreFile, "document store", instance.DocumentStore},
	}
	for _, p := range pieces {
		if err := persistence.SaveGob(filepath.Join(indexPath, p.file), p.data); err != nil {
			return fmt.Errorf("failed to save %s for index %s: %w", p.what, name, err)
		}
	}
	return nil
}
