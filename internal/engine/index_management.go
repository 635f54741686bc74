package engine

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
)

// CreateIndex creates a new index with the given settings and persists it.
func (e *Engine) CreateIndex(settings config.IndexSettings) error {
	if settings.Name == "" {
		return errors.NewValidationError("name", "index name cannot be empty")
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.installIndexLocked(settings)
}

// installIndexLocked builds, wires, persists, and registers a fresh index.
// The caller holds the engine write lock; the existence check runs here so
// async creates re-validate after winning the lock.
func (e *Engine) installIndexLocked(settings config.IndexSettings) error {
	if _, exists := e.indexes[settings.Name]; exists {
		return errors.NewIndexAlreadyExistsError(settings.Name)
	}

	instance, err := NewIndexInstance(settings)
	if err != nil {
		return fmt.Errorf("failed to create new index instance for '%s': %w", settings.Name, err)
	}
	if err := e.attachServices(instance); err != nil {
		return fmt.Errorf("failed to wire services for new index '%s': %w", settings.Name, err)
	}
	if err := e.persistUpdatedIndexUnsafe(settings.Name, settings, instance); err != nil {
		return fmt.Errorf("failed to persist new index '%s': %w", settings.Name, err)
	}

	e.indexes[settings.Name] = instance
	log.Printf("Created and persisted index '%s'", settings.Name)
	return nil
}

// DeleteIndex deletes an index and its data from disk.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removeIndexLocked(name)
}

// removeIndexLocked drops an index from the registry and removes its files.
// The caller holds the engine write lock.
func (e *Engine) removeIndexLocked(name string) error {
	if _, exists := e.indexes[name]; !exists {
		return errors.NewIndexNotFoundError(name)
	}

	delete(e.indexes, name)

	indexPath := e.indexPath(name)
	if err := os.RemoveAll(indexPath); err != nil {
		return fmt.Errorf("failed to remove index directory %s: %w", indexPath, err)
	}

	log.Printf("Deleted index '%s'", name)
	return nil
}

// RenameIndex renames an index, moving its persisted data to the new
// directory.
func (e *Engine) RenameIndex(oldName, newName string) error {
	if newName == "" {
		return errors.NewValidationError("name", "index name cannot be empty")
	}
	if oldName == newName {
		return errors.NewSameNameError(oldName)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renameIndexLocked(oldName, newName)
}

// renameIndexLocked persists the index under its new name, repoints the
// preset store, and only then removes the old directory, so a failure
// partway leaves the old directory behind rather than losing data. The
// caller holds the engine write lock.
func (e *Engine) renameIndexLocked(oldName, newName string) error {
	instance, exists := e.indexes[oldName]
	if !exists {
		return errors.NewIndexNotFoundError(oldName)
	}
	if _, exists := e.indexes[newName]; exists {
		return errors.NewIndexAlreadyExistsError(newName)
	}

	newSettings := instance.Settings()
	newSettings.Name = newName

	if err := e.persistUpdatedIndexUnsafe(newName, newSettings, instance); err != nil {
		return fmt.Errorf("failed to persist renamed index: %w", err)
	}
	instance.applySettings(newSettings)

	if instance.presets != nil {
		instance.presets.SetPath(filepath.Join(e.indexPath(newName), presetsFile))
		if err := instance.presets.Save(); err != nil {
			log.Printf("Warning: Failed to persist presets for renamed index '%s': %v", newName, err)
		}
	}

	e.indexes[newName] = instance
	delete(e.indexes, oldName)

	oldIndexPath := e.indexPath(oldName)
	if err := os.RemoveAll(oldIndexPath); err != nil {
		log.Printf("Warning: Failed to remove old index directory %s: %v", oldIndexPath, err)
	}

	log.Printf("Renamed index '%s' to '%s'", oldName, newName)
	return nil
}
