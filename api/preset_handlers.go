package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/model"
)

// PutPresetRequest is the JSON body for storing a preset. The preset name
// comes from the URL path.
type PutPresetRequest struct {
	RawQuery    string `json:"raw_query" binding:"required"`
	Description string `json:"description,omitempty"`
}

// PutPresetHandler creates or replaces a saved filter preset. The preset
// query is compiled before it is stored, so a preset that is saved
// successfully is guaranteed to execute.
func (api *API) PutPresetHandler(c *gin.Context) {
	presetName := c.Param("presetName")
	if result := ValidatePresetName(presetName); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	var req PutPresetRequest
	if result := ValidateJSONBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	stored, err := indexAccessor.PutPreset(model.Preset{
		Name:        presetName,
		RawQuery:    req.RawQuery,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, internalErrors.ErrInvalidInput) || errors.Is(err, internalErrors.ErrUnsupportedLookup) {
			SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid preset query: "+err.Error())
			return
		}
		SendInternalError(c, "store preset", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Preset '" + presetName + "' stored for index '" + indexName + "'",
		"preset":  stored,
	})
}

// GetPresetHandler retrieves a saved preset by name.
func (api *API) GetPresetHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}
	presetName := c.Param("presetName")

	preset, err := indexAccessor.GetPreset(presetName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrPresetNotFound) {
			SendPresetNotFoundError(c, presetName, indexName)
			return
		}
		SendInternalError(c, "get preset", err)
		return
	}

	c.JSON(http.StatusOK, preset)
}

// ListPresetsHandler lists the saved presets of an index.
func (api *API) ListPresetsHandler(c *gin.Context) {
	indexAccessor, _, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	presets := indexAccessor.ListPresets()
	c.JSON(http.StatusOK, gin.H{"presets": presets, "count": len(presets)})
}

// DeletePresetHandler removes a saved preset by name.
func (api *API) DeletePresetHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}
	presetName := c.Param("presetName")

	if err := indexAccessor.DeletePreset(presetName); err != nil {
		if errors.Is(err, internalErrors.ErrPresetNotFound) {
			SendPresetNotFoundError(c, presetName, indexName)
			return
		}
		SendInternalError(c, "delete preset", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Preset '" + presetName + "' deleted from index '" + indexName + "'"})
}

// ExecutePresetHandler runs a saved preset as a filter query. Only the
// reserved parameters (page, page_size, q, ordering) may be supplied; the
// filter clauses come from the stored preset.
func (api *API) ExecutePresetHandler(c *gin.Context) {
	startTime := time.Now()

	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}
	presetName := c.Param("presetName")

	preset, err := indexAccessor.GetPreset(presetName)
	if err != nil {
		if errors.Is(err, internalErrors.ErrPresetNotFound) {
			SendPresetNotFoundError(c, presetName, indexName)
			return
		}
		SendInternalError(c, "get preset", err)
		return
	}

	req, err := filterRequestFromQuery(c.Request.URL.RawQuery)
	if err != nil {
		SendFilterError(c, indexName, err)
		return
	}
	if req.RawQuery != "" {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery,
			"Preset execution accepts only page, page_size, q and ordering parameters")
		return
	}
	req.RawQuery = preset.RawQuery

	response, err := indexAccessor.Filter(c.Request.Context(), req)
	if err != nil {
		SendFilterError(c, indexName, err)
		return
	}

	api.trackFilterEvent(indexName, preset.RawQuery, response, time.Since(startTime))

	c.JSON(http.StatusOK, response)
}
