package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/model"
)

// UpdateIndexSettings updates the settings for an index synchronously,
// rebuilding the field index inline when the change affects what gets
// indexed. Renames are not allowed through this path.
func (e *Engine) UpdateIndexSettings(name string, newSettings config.IndexSettings) error {
	oldSettings, err := e.GetIndexSettings(name)
	if err != nil {
		return err
	}
	newSettings, err = pinSettingsName(name, newSettings)
	if err != nil {
		return err
	}

	rebuild := requiresFullRebuild(oldSettings, newSettings)
	if err := e.applySettingsUpdate(name, newSettings, rebuild, nil); err != nil {
		return err
	}

	log.Printf("Settings updated for index '%s' (rebuild: %t).", name, rebuild)
	return nil
}

// UpdateIndexSettingsWithAsyncRebuild updates settings through a background
// job, returning the job ID. Changes to the indexed field lists trigger a
// full rebuild job; anything else runs as a lighter settings update job.
func (e *Engine) UpdateIndexSettingsWithAsyncRebuild(name string, newSettings config.IndexSettings) (string, error) {
	oldSettings, err := e.GetIndexSettings(name)
	if err != nil {
		return "", err
	}
	newSettings, err = pinSettingsName(name, newSettings)
	if err != nil {
		return "", err
	}

	if requiresFullRebuild(oldSettings, newSettings) {
		return e.dispatchJob(model.JobTypeRebuildIndex, name, map[string]string{
			"operation": "settings_update_with_rebuild",
		}, func(ctx context.Context, jobID string) error {
			e.jobManager.UpdateJobProgress(jobID, 0, 0, "Rebuilding field index")
			err := e.applySettingsUpdate(name, newSettings, true, func(current, total int) {
				e.jobManager.UpdateJobProgress(jobID, current, total, "Reindexing documents")
			})
			if err != nil {
				return err
			}
			log.Printf("Settings updated and index '%s' rebuilt (async).", name)
			return nil
		})
	}

	return e.dispatchJob(model.JobTypeUpdateSettings, name, map[string]string{
		"operation": "settings_update",
	}, func(ctx context.Context, jobID string) error {
		if err := e.applySettingsUpdate(name, newSettings, false, nil); err != nil {
			return err
		}
		log.Printf("Settings updated for index '%s' (async).", name)
		return nil
	})
}

// pinSettingsName rejects renames smuggled through a settings update and
// stamps the index name onto the settings so a blank name cannot detach
// the index from its directory.
func pinSettingsName(name string, newSettings config.IndexSettings) (config.IndexSettings, error) {
	if newSettings.Name != "" && newSettings.Name != name {
		return config.IndexSettings{}, errors.NewValidationError("name", "index name cannot be changed through settings updates, use rename instead")
	}
	newSettings.Name = name
	return newSettings, nil
}

// requiresFullRebuild determines if a settings change alters what gets
// indexed, which means every stored document has to be reindexed.
func requiresFullRebuild(oldSettings, newSettings config.IndexSettings) bool {
	if !slicesEqual(oldSettings.SearchableFields, newSettings.SearchableFields) {
		return true
	}
	if !slicesEqual(oldSettings.FilterableFields, newSettings.FilterableFields) {
		return true
	}
	return false
}

// applySettingsUpdate swaps in the new settings, optionally reindexes every
// stored document, and persists the result. The progress callback may be
// nil.
func (e *Engine) applySettingsUpdate(name string, newSettings config.IndexSettings, rebuild bool, progress func(current, total int)) error {
	return e.mutateAndPersist(name, func(instance *IndexInstance) error {
		instance.applySettings(newSettings)
		if !rebuild {
			return nil
		}
		if err := instance.indexer.Rebuild(progress); err != nil {
			return fmt.Errorf("failed to rebuild index '%s': %w", name, err)
		}
		return nil
	})
}

// slicesEqual reports whether two string slices hold the same elements in
// the same order.
func slicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
