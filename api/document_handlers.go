package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/model"
)

// bindDocuments decodes a request body that may be a single document object
// or an array of them. When the shape is wrong the error response has
// already been written and ok is false.
func bindDocuments(c *gin.Context) (docs []model.Document, ok bool) {
	var rawData interface{}
	if err := c.ShouldBindJSON(&rawData); err != nil {
		SendInvalidJSONError(c, err)
		return nil, false
	}

	switch payload := rawData.(type) {
	case []interface{}:
		docs = make([]model.Document, len(payload))
		for i, item := range payload {
			docMap, isMap := item.(map[string]interface{})
			if !isMap {
				SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest,
					fmt.Sprintf("Document at index %d is not a valid object", i))
				return nil, false
			}
			docs[i] = docMap
		}
		return docs, true
	case map[string]interface{}:
		return []model.Document{payload}, true
	default:
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest,
			"Invalid request body. Expecting a document object or an array of documents")
		return nil, false
	}
}

// AddDocumentsHandler ingests a batch of documents into an index. A document
// whose ID is already stored replaces the existing one.
func (api *API) AddDocumentsHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	docs, ok := bindDocuments(c)
	if !ok {
		return
	}

	// Every document needs a usable 'id'; nothing is auto-generated
	if result := ValidateDocuments(docs); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	// Normalize IDs so the index always stores clean strings
	for i := range docs {
		if idStr, isStr := docs[i]["id"].(string); isStr {
			docs[i]["id"] = strings.TrimSpace(idStr)
		}
	}

	if concreteEngine, isAsync := api.asyncEngine(); isAsync {
		jobID, err := concreteEngine.AddDocumentsAsync(indexName, docs)
		if err != nil {
			SendJobExecutionError(c, "document addition", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":         "accepted",
			"message":        fmt.Sprintf("Document addition started for index '%s' (%d documents)", indexName, len(docs)),
			"job_id":         jobID,
			"document_count": len(docs),
		})
		return
	}

	if err := indexAccessor.AddDocuments(docs); err != nil {
		SendIndexingError(c, "add documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": fmt.Sprintf("%d document(s) added/updated in index '%s'", len(docs), indexName)})
}

// DeleteAllDocumentsHandler clears every document from an index. The index
// itself and its settings survive.
func (api *API) DeleteAllDocumentsHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	if concreteEngine, isAsync := api.asyncEngine(); isAsync {
		jobID, err := concreteEngine.DeleteAllDocumentsAsync(indexName)
		if err != nil {
			SendJobExecutionError(c, "document deletion", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":  "accepted",
			"message": fmt.Sprintf("Document deletion started for index '%s'", indexName),
			"job_id":  jobID,
		})
		return
	}

	if err := indexAccessor.DeleteAllDocuments(); err != nil {
		SendIndexingError(c, "delete all documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All documents deleted from index '" + indexName + "'"})
}

// DocumentListRequest carries the pagination parameters of a document
// listing.
type DocumentListRequest struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// GetDocumentsHandler returns one page of the stored documents.
func (api *API) GetDocumentsHandler(c *gin.Context) {
	indexAccessor, _, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	var req DocumentListRequest
	if result := ValidateQueryBinding(c, &req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	page, pageSize, result := ValidatePagination(req.Page, req.PageSize)
	if result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	documents, totalCount, err := indexAccessor.ListDocuments(page, pageSize)
	if err != nil {
		SendInternalError(c, "list documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": documents,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
		"pages":     (totalCount + pageSize - 1) / pageSize,
	})
}

// GetDocumentHandler returns one document by its external ID.
func (api *API) GetDocumentHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}
	documentId := c.Param("documentId")

	document, err := indexAccessor.GetDocument(documentId)
	if err != nil {
		if errors.Is(err, internalErrors.ErrDocumentNotFound) {
			SendDocumentNotFoundError(c, documentId, indexName)
			return
		}
		SendInternalError(c, "get document", err)
		return
	}

	c.JSON(http.StatusOK, document)
}

// DeleteDocumentHandler removes one document by its external ID.
func (api *API) DeleteDocumentHandler(c *gin.Context) {
	documentId := c.Param("documentId")
	if result := ValidateDocumentID(documentId); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	indexAccessor, indexName, ok := api.lookupIndex(c)
	if !ok {
		return
	}

	// Check existence up front so a missing document is a 404 even when the
	// deletion itself runs in a background job
	if _, err := indexAccessor.GetDocument(documentId); err != nil {
		if errors.Is(err, internalErrors.ErrDocumentNotFound) {
			SendDocumentNotFoundError(c, documentId, indexName)
			return
		}
		SendInternalError(c, "get document", err)
		return
	}

	if concreteEngine, isAsync := api.asyncEngine(); isAsync {
		jobID, err := concreteEngine.DeleteDocumentAsync(indexName, documentId)
		if err != nil {
			SendJobExecutionError(c, "document deletion", err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status":      "accepted",
			"message":     fmt.Sprintf("Document deletion started for document '%s' in index '%s'", documentId, indexName),
			"job_id":      jobID,
			"document_id": documentId,
		})
		return
	}

	if err := indexAccessor.DeleteDocument(documentId); err != nil {
		if errors.Is(err, internalErrors.ErrDocumentNotFound) {
			SendDocumentNotFoundError(c, documentId, indexName)
			return
		}
		SendIndexingError(c, "delete document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Document '" + documentId + "' deleted from index '" + indexName + "'"})
}
