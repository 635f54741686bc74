package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/model"
)

// dispatchJob registers a job with the manager and hands it the body to run.
// The jobID is returned immediately; callers poll the job for the outcome.
func (e *Engine) dispatchJob(jobType model.JobType, indexName string, metadata map[string]string, body func(ctx context.Context, jobID string) error) (string, error) {
	jobID := e.jobManager.CreateJob(jobType, indexName, metadata)
	err := e.jobManager.ExecuteJob(jobID, func(ctx context.Context, job *model.Job) error {
		return body(ctx, job.ID)
	})
	if err != nil {
		return "", fmt.Errorf("failed to start %s job: %w", jobType, err)
	}
	return jobID, nil
}

// indexExists reports whether an index is currently loaded.
func (e *Engine) indexExists(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, exists := e.indexes[name]
	return exists
}

// mutateAndPersist looks up a live index, applies fn to it, and writes the
// index back to disk. Every document mutation goes through this so the
// on-disk state never trails the in-memory state by more than one job.
func (e *Engine) mutateAndPersist(indexName string, fn func(*IndexInstance) error) error {
	e.mu.RLock()
	instance, exists := e.indexes[indexName]
	e.mu.RUnlock()

	if !exists {
		return errors.NewIndexNotFoundError(indexName)
	}
	if err := fn(instance); err != nil {
		return err
	}

	e.mu.RLock()
	err := e.persistUpdatedIndexUnsafe(indexName, instance.Settings(), instance)
	e.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to persist updated index '%s': %w", indexName, err)
	}
	return nil
}

// CreateIndexAsync creates a new index asynchronously.
func (e *Engine) CreateIndexAsync(settings config.IndexSettings) (string, error) {
	if settings.Name == "" {
		return "", errors.NewValidationError("name", "index name cannot be empty")
	}
	if e.indexExists(settings.Name) {
		return "", errors.NewIndexAlreadyExistsError(settings.Name)
	}

	return e.dispatchJob(model.JobTypeCreateIndex, settings.Name, map[string]string{
		"operation": "create_index",
	}, func(ctx context.Context, jobID string) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.installIndexLocked(settings)
	})
}

// DeleteIndexAsync deletes an index asynchronously.
func (e *Engine) DeleteIndexAsync(name string) (string, error) {
	if !e.indexExists(name) {
		return "", errors.NewIndexNotFoundError(name)
	}

	return e.dispatchJob(model.JobTypeDeleteIndex, name, map[string]string{
		"operation": "delete_index",
	}, func(ctx context.Context, jobID string) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.removeIndexLocked(name)
	})
}

// AddDocumentsAsync adds documents to an index asynchronously.
func (e *Engine) AddDocumentsAsync(indexName string, docs []model.Document) (string, error) {
	if !e.indexExists(indexName) {
		return "", errors.NewIndexNotFoundError(indexName)
	}

	return e.dispatchJob(model.JobTypeAddDocuments, indexName, map[string]string{
		"operation":      "add_documents",
		"document_count": fmt.Sprintf("%d", len(docs)),
	}, func(ctx context.Context, jobID string) error {
		e.jobManager.UpdateJobProgress(jobID, 0, len(docs), "Starting document addition")
		err := e.mutateAndPersist(indexName, func(instance *IndexInstance) error {
			if err := instance.AddDocuments(docs); err != nil {
				return fmt.Errorf("failed to add documents to index '%s': %w", indexName, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		e.jobManager.UpdateJobProgress(jobID, len(docs), len(docs), "Documents added successfully")
		log.Printf("Added %d documents to index '%s' (async).", len(docs), indexName)
		return nil
	})
}

// DeleteAllDocumentsAsync deletes all documents from an index asynchronously.
func (e *Engine) DeleteAllDocumentsAsync(indexName string) (string, error) {
	if !e.indexExists(indexName) {
		return "", errors.NewIndexNotFoundError(indexName)
	}

	return e.dispatchJob(model.JobTypeDeleteAllDocs, indexName, map[string]string{
		"operation": "delete_all_documents",
	}, func(ctx context.Context, jobID string) error {
		err := e.mutateAndPersist(indexName, func(instance *IndexInstance) error {
			if err := instance.DeleteAllDocuments(); err != nil {
				return fmt.Errorf("failed to delete all documents from index '%s': %w", indexName, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Printf("Deleted all documents from index '%s' (async).", indexName)
		return nil
	})
}

// DeleteDocumentAsync deletes a specific document from an index asynchronously.
func (e *Engine) DeleteDocumentAsync(indexName, documentID string) (string, error) {
	if !e.indexExists(indexName) {
		return "", errors.NewIndexNotFoundError(indexName)
	}

	return e.dispatchJob(model.JobTypeDeleteDocument, indexName, map[string]string{
		"operation":   "delete_document",
		"document_id": documentID,
	}, func(ctx context.Context, jobID string) error {
		err := e.mutateAndPersist(indexName, func(instance *IndexInstance) error {
			if err := instance.DeleteDocument(documentID); err != nil {
				return fmt.Errorf("failed to delete document '%s' from index '%s': %w", documentID, indexName, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Printf("Deleted document '%s' from index '%s' (async).", documentID, indexName)
		return nil
	})
}

// RenameIndexAsync renames an index asynchronously.
func (e *Engine) RenameIndexAsync(oldName, newName string) (string, error) {
	if newName == "" {
		return "", errors.NewValidationError("name", "index name cannot be empty")
	}
	if oldName == newName {
		return "", errors.NewSameNameError(oldName)
	}

	e.mu.RLock()
	_, oldExists := e.indexes[oldName]
	_, newExists := e.indexes[newName]
	e.mu.RUnlock()
	if !oldExists {
		return "", errors.NewIndexNotFoundError(oldName)
	}
	if newExists {
		return "", errors.NewIndexAlreadyExistsError(newName)
	}

	return e.dispatchJob(model.JobTypeRenameIndex, oldName, map[string]string{
		"operation": "rename_index",
		"old_name":  oldName,
		"new_name":  newName,
	}, func(ctx context.Context, jobID string) error {
		e.mu.Lock()
		defer e.mu.Unlock()
		return e.renameIndexLocked(oldName, newName)
	})
}
