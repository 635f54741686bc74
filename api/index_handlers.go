package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/engine"
	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/services"
)

// asyncEngine returns the concrete engine when the deployment supports the
// job-based variants of the index operations. Tests may wire the API to a
// bare services.IndexManager, which only gets the synchronous paths.
func (api *API) asyncEngine() (*engine.Engine, bool) {
	concreteEngine, ok := api.engine.(*engine.Engine)
	return concreteEngine, ok
}

// lookupIndex resolves the indexName path parameter to its accessor. It
// writes the error response itself when the index cannot be served, so
// callers just bail out when ok is false.
func (api *API) lookupIndex(c *gin.Context) (accessor services.IndexAccessor, indexName string, ok bool) {
	indexName = c.Param("indexName")
	accessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrIndexNotFound) {
			SendIndexNotFoundError(c, indexName)
		} else {
			SendInternalError(c, "get index", err)
		}
		return nil, indexName, false
	}
	return accessor, indexName, true
}

// CreateIndexHandler creates an index from the settings in the request
// body. With a job-capable engine the build runs in the background and the
// client gets a job ID to poll; otherwise the call blocks until the index
// exists.
func (api *API) CreateIndexHandler(c *gin.Context) {
	var settings config.IndexSettings

	if result := ValidateJSONBinding(c, &settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateIndexSettings(&settings); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var jobID string
	var err error
	if concreteEngine, ok := api.asyncEngine(); ok {
		jobID, err = concreteEngine.CreateIndexAsync(settings)
	} else {
		err = api.engine.CreateIndex(settings)
	}
	if errors.Is(err, internalErrors.ErrIndexAlreadyExists) {
		SendIndexExistsError(c, settings.Name)
		return
	}
	if err != nil {
		SendIndexingError(c, "create index", err)
		return
	}

	if jobID != "" {
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Index creation started for '" + settings.Name + "'",
			"job_id":  jobID,
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Index '" + settings.Name + "' created successfully"})
}

// ListIndexesHandler returns the names of every index the engine holds.
func (api *API) ListIndexesHandler(c *gin.Context) {
	names := api.engine.ListIndexes()
	c.JSON(http.StatusOK, gin.H{"indexes": names, "count": len(names)})
}

// GetIndexHandler returns the settings of one index.
func (api *API) GetIndexHandler(c *gin.Context) {
	indexAccessor, _, ok := api.lookupIndex(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, indexAccessor.Settings())
}

// GetIndexStatsHandler reports document and field counts for one index.
func (api *API) GetIndexStatsHandler(c *gin.Context) {
	indexAccessor, _, ok := api.lookupIndex(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, indexAccessor.Stats())
}

// DeleteIndexHandler removes an index together with its persisted data.
func (api *API) DeleteIndexHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	var jobID string
	var err error
	if concreteEngine, ok := api.asyncEngine(); ok {
		jobID, err = concreteEngine.DeleteIndexAsync(indexName)
	} else {
		err = api.engine.DeleteIndex(indexName)
	}
	if errors.Is(err, internalErrors.ErrIndexNotFound) {
		SendIndexNotFoundError(c, indexName)
		return
	}
	if err != nil {
		// Anything else (file system errors and the like) is on us
		SendIndexingError(c, "delete index", err)
		return
	}

	if jobID != "" {
		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": "Index deletion started for '" + indexName + "'",
			"job_id":  jobID,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Index '" + indexName + "' deleted successfully"})
}

// RenameIndexRequest is the JSON body of a rename call.
type RenameIndexRequest struct {
	NewName string `json:"new_name" binding:"required"`
}

// RenameIndexHandler renames an index, moving its persisted data along.
func (api *API) RenameIndexHandler(c *gin.Context) {
	oldName := c.Param("indexName")

	var req RenameIndexRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	if result := ValidateRenameRequest(oldName, req.NewName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var jobID string
	var err error
	if concreteEngine, ok := api.asyncEngine(); ok {
		jobID, err = concreteEngine.RenameIndexAsync(oldName, req.NewName)
	} else {
		err = api.engine.RenameIndex(oldName, req.NewName)
	}
	if err != nil {
		switch {
		case errors.Is(err, internalErrors.ErrIndexNotFound):
			SendIndexNotFoundError(c, oldName)
		case errors.Is(err, internalErrors.ErrIndexAlreadyExists):
			SendIndexExistsError(c, req.NewName)
		case errors.Is(err, internalErrors.ErrSameName):
			SendSameNameError(c, req.NewName)
		default:
			SendIndexingError(c, "rename index", err)
		}
		return
	}

	if jobID != "" {
		c.JSON(http.StatusAccepted, gin.H{
			"status":   "accepted",
			"message":  fmt.Sprintf("Index rename started: '%s' -> '%s'", oldName, req.NewName),
			"job_id":   jobID,
			"old_name": oldName,
			"new_name": req.NewName,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Index renamed successfully",
		"old_name": oldName,
		"new_name": req.NewName,
	})
}

// UpdateIndexSettingsHandler patches the filterable and searchable field
// lists of an index. The body is read as a raw map so that a key that is
// present-but-null clears its list, while an absent key leaves it alone.
func (api *API) UpdateIndexSettingsHandler(c *gin.Context) {
	indexName := c.Param("indexName")

	settings, err := api.engine.GetIndexSettings(indexName)
	if errors.Is(err, internalErrors.ErrIndexNotFound) {
		SendIndexNotFoundError(c, indexName)
		return
	}
	if err != nil {
		SendInternalError(c, "get index settings", err)
		return
	}

	rawRequest := make(map[string]interface{})
	if err := c.ShouldBindJSON(&rawRequest); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	// Renames go through the rename endpoint, not settings updates
	if nameValue, keyExists := rawRequest["name"]; keyExists {
		if nameStr, isStr := nameValue.(string); !isStr || nameStr != indexName {
			result := &ValidationResult{Valid: true}
			result.AddError("name", "Index name cannot be changed through settings updates, use the rename endpoint instead")
			SendValidationError(c, result)
			return
		}
	}

	updated, requiresRebuild := applyFieldListPatch(rawRequest, &settings)
	if !updated {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "No valid updatable fields provided or no changes detected")
		return
	}

	if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
		SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed,
			"Field name validation failed", fieldConflictDetails(conflicts)...)
		return
	}

	// The engine decides whether the change needs a full rebuild
	if concreteEngine, ok := api.asyncEngine(); ok {
		jobID, err := concreteEngine.UpdateIndexSettingsWithAsyncRebuild(indexName, settings)
		if err != nil {
			SendJobExecutionError(c, "settings update", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":           "accepted",
			"message":          "Settings update started for index '" + indexName + "'",
			"job_id":           jobID,
			"rebuild_required": requiresRebuild,
		})
		return
	}

	if err := api.engine.UpdateIndexSettings(indexName, settings); err != nil {
		SendInternalError(c, "update index settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Settings updated successfully for index '" + indexName + "'",
		"rebuilt": requiresRebuild,
	})
}

// fieldConflictDetails wraps field name conflicts as error details for the
// validation failure response.
func fieldConflictDetails(conflicts []string) []ErrorDetail {
	details := make([]ErrorDetail, len(conflicts))
	for i, conflict := range conflicts {
		details[i] = ErrorDetail{Message: conflict, Code: "FIELD_VALIDATION_ERROR"}
	}
	return details
}

// applyFieldListPatch applies the searchable_fields and filterable_fields
// keys of a raw settings patch. Keys that are absent, malformed, or carry
// the value already configured are skipped, so updated reports whether the
// patch changed anything at all.
func applyFieldListPatch(raw map[string]interface{}, settings *config.IndexSettings) (updated, rebuild bool) {
	if fields, ok := patchedFieldList(raw, "searchable_fields", settings.SearchableFields); ok {
		settings.SearchableFields = fields
		updated = true
	}
	if fields, ok := patchedFieldList(raw, "filterable_fields", settings.FilterableFields); ok {
		settings.FilterableFields = fields
		updated = true
	}
	// Both field lists feed the index postings, so any change forces a rebuild.
	return updated, updated
}

// patchedFieldList extracts the replacement list for one patch key. It
// reports false when the key is absent, not a usable list, or equal to the
// list already in place.
func patchedFieldList(raw map[string]interface{}, key string, current []string) ([]string, bool) {
	value, present := raw[key]
	if !present {
		return nil, false
	}
	fields, ok := stringListValue(value)
	if !ok || slicesEqual(current, fields) {
		return nil, false
	}
	return fields, true
}

// stringListValue coerces a decoded JSON value into a string slice. A null
// clears the list; non-string entries within a list are dropped to empty
// strings the way lenient binding treats them; any other shape is rejected.
func stringListValue(value interface{}) ([]string, bool) {
	if value == nil {
		return []string{}, true
	}
	items, isSlice := value.([]interface{})
	if !isSlice {
		return nil, false
	}
	out := make([]string, len(items))
	for i, v := range items {
		if str, isStr := v.(string); isStr {
			out[i] = str
		}
	}
	return out, true
}

// slicesEqual compares two string slices element by element.
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
