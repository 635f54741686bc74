package api

import (
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/internal/lookup"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

// reservedFilterParams are the query parameters the filter endpoint consumes
// itself; every other parameter is a filter clause.
var reservedFilterParams = map[string]bool{
	"page":      true,
	"page_size": true,
	"q":         true,
	"ordering":  true,
}

// splitFilterQuery separates the reserved parameters from the filter clauses
// in a raw query string. Filter clauses keep their original encoding, order
// and repeated keys so the lookup parser sees them exactly as sent.
func splitFilterQuery(rawQuery string) (string, map[string]string) {
	reserved := make(map[string]string)
	var filterSegments []string

	for _, segment := range strings.Split(rawQuery, "&") {
		if segment == "" {
			continue
		}

		key := segment
		value := ""
		if idx := strings.Index(segment, "="); idx >= 0 {
			key = segment[:idx]
			value = segment[idx+1:]
		}

		decodedKey, err := url.QueryUnescape(key)
		if err != nil {
			// Leave malformed segments to the lookup parser, which reports
			// them as validation errors
			filterSegments = append(filterSegments, segment)
			continue
		}

		if reservedFilterParams[decodedKey] {
			decodedValue, err := url.QueryUnescape(value)
			if err != nil {
				decodedValue = value
			}
			reserved[decodedKey] = decodedValue
			continue
		}

		filterSegments = append(filterSegments, segment)
	}

	return strings.Join(filterSegments, "&"), reserved
}

// filterRequestFromQuery builds a FilterRequest from the raw query string of
// a filter endpoint request.
func filterRequestFromQuery(rawQuery string) (services.FilterRequest, error) {
	filterRaw, reserved := splitFilterQuery(rawQuery)

	req := services.FilterRequest{
		RawQuery: filterRaw,
		Query:    reserved["q"],
		Ordering: reserved["ordering"],
	}

	if pageStr, ok := reserved["page"]; ok && pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil {
			return req, internalErrors.NewValidationError("page", "must be an integer, got '"+pageStr+"'")
		}
		req.Page = page
	}

	if sizeStr, ok := reserved["page_size"]; ok && sizeStr != "" {
		pageSize, err := strconv.Atoi(sizeStr)
		if err != nil {
			return req, internalErrors.NewValidationError("page_size", "must be an integer, got '"+sizeStr+"'")
		}
		req.PageSize = pageSize
	}

	return req, nil
}

// FilterHandler executes a filter query against an index. The filter clauses
// arrive as query string parameters in field__suffix form; page, page_size,
// q and ordering are reserved for the request itself.
func (api *API) FilterHandler(c *gin.Context) {
	startTime := time.Now()

	if result := ValidateIndexName(c.Param("indexName")); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	req, err := filterRequestFromQuery(c.Request.URL.RawQuery)
	if err != nil {
		SendFilterError(c, indexName, err)
		return
	}

	response, err := indexAccessor.Filter(c.Request.Context(), req)
	if err != nil {
		SendFilterError(c, indexName, err)
		return
	}

	api.trackFilterEvent(indexName, req.RawQuery, response, time.Since(startTime))

	c.JSON(http.StatusOK, response)
}

// MultiFilterHandler runs several named filter queries against one index in
// a single request and returns their results keyed by filter name.
func (api *API) MultiFilterHandler(c *gin.Context) {
	startTime := time.Now()

	if result := ValidateIndexName(c.Param("indexName")); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	var req services.MultiFilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if problem := namedFilterProblem(req.Filters); problem != "" {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, problem)
		return
	}

	results, err := indexAccessor.MultiFilter(c.Request.Context(), req)
	if err != nil {
		SendFilterError(c, indexName, err)
		return
	}

	responseTime := time.Since(startTime)
	rawQueries := make(map[string]string, len(req.Filters))
	for _, namedFilter := range req.Filters {
		rawQueries[namedFilter.Name] = namedFilter.RawQuery
	}
	for name, result := range results.Results {
		api.trackFilterEvent(indexName, rawQueries[name], result, responseTime)
	}

	c.JSON(http.StatusOK, results)
}

// namedFilterProblem reports what is wrong with the filter list of a
// multi-filter request, or "" when the list is usable. Filter names key the
// response map, so they must be present and unique.
func namedFilterProblem(filters []services.NamedFilter) string {
	if len(filters) == 0 {
		return "At least one filter is required"
	}
	seen := make(map[string]bool, len(filters))
	for _, namedFilter := range filters {
		if namedFilter.Name == "" {
			return "All filters must have a non-empty name"
		}
		if seen[namedFilter.Name] {
			return "Filter names must be unique: '" + namedFilter.Name + "' appears multiple times"
		}
		seen[namedFilter.Name] = true
	}
	return ""
}

// trackFilterEvent records a completed filter query for analytics. The raw
// query is re-parsed to recover the lookup suffixes; a query that does not
// parse is recorded without them.
func (api *API) trackFilterEvent(indexName, rawQuery string, response services.PagedResponse, responseTime time.Duration) {
	var suffixes []string
	clauseCount := 0
	if params, err := lookup.ParseRawQuery(rawQuery); err == nil {
		if lookups, err := api.parser.Parse(params); err == nil {
			suffixes = lookups.Suffixes()
			clauseCount = lookups.Len()
		}
	}

	event := model.FilterEvent{
		IndexName:   indexName,
		RawQuery:    rawQuery,
		Suffixes:    suffixes,
		ClauseCount: clauseCount,
		ResultCount: response.Total,
		ZeroResults: response.Total == 0,
		TookMs:      float64(responseTime.Microseconds()) / 1000.0,
		QueryID:     response.QueryID,
	}

	// Tracking must not delay the response; failures are only logged.
	go func() {
		if err := api.analytics.TrackFilterEvent(event); err != nil {
			log.Printf("Warning: Failed to track filter event: %v", err)
		}
	}()
}
