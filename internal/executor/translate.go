package executor

import (
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/query"
	"github.com/gcbaptista/go-filter-engine/services"
)

// Translate builds the caller-facing page from a raw execution result and the
// hydrated documents for its IDs. Items must line up with result.IDs; the
// translator adds derived pagination fields and stamps a fresh query ID.
func Translate(result query.Result, items []model.Document, page query.Page, took time.Duration) services.PagedResponse {
	if items == nil {
		items = []model.Document{}
	}

	pageNum := 1
	if page.Limit > 0 {
		pageNum = page.Offset/page.Limit + 1
	}

	return services.PagedResponse{
		Items:    items,
		Total:    result.Total,
		HasNext:  page.Offset+len(result.IDs) < result.Total,
		Page:     pageNum,
		PageSize: page.Limit,
		Took:     took.Milliseconds(),
		QueryID:  uuid.New().String(),
	}
}

// PageFromRequest converts 1-based page/page_size numbers from the API surface
// into the zero-based offset window handed to the collaborator, applying the
// configured default and cap.
func PageFromRequest(pageNum, pageSize, defaultSize, maxSize int) query.Page {
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if maxSize > 0 && pageSize > maxSize {
		pageSize = maxSize
	}
	if pageNum <= 0 {
		pageNum = 1
	}
	return query.Page{Offset: (pageNum - 1) * pageSize, Limit: pageSize}
}
