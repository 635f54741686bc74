// Package api provides the Gin handlers and request validation for the
// filter engine's HTTP interface.
package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/model"
)

// ValidationError pairs a request field with what is wrong about it. The
// pairs end up verbatim in the details of validation error responses.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects everything wrong with one request.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// AddError records a failure and marks the result invalid.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any failures were recorded.
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// requireTrimmedName enforces the rule every path identifier shares: it must
// be present and carry no surrounding whitespace. label prefixes the error
// messages ("Index name", "Document ID", ...).
func requireTrimmedName(field, label, value string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if value == "" {
		result.AddError(field, label+" is required")
		return result
	}
	if strings.TrimSpace(value) != value {
		result.AddError(field, label+" cannot have leading or trailing whitespace")
	}
	return result
}

// ValidateIndexName checks the index name path parameter.
func ValidateIndexName(indexName string) *ValidationResult {
	return requireTrimmedName("indexName", "Index name", indexName)
}

// ValidateDocumentID checks a document ID path parameter.
func ValidateDocumentID(documentID string) *ValidationResult {
	return requireTrimmedName("documentId", "Document ID", documentID)
}

// ValidatePresetName checks a preset name path parameter.
func ValidatePresetName(presetName string) *ValidationResult {
	return requireTrimmedName("presetName", "Preset name", presetName)
}

// ValidateIndexSettings checks settings for index creation. Defaults are
// filled in first so the field name conflict check sees the final lists.
func ValidateIndexSettings(settings *config.IndexSettings) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if settings == nil {
		result.AddError("settings", "Index settings are required")
		return result
	}
	if settings.Name == "" {
		result.AddError("name", "Index name is required")
	}

	settings.ApplyDefaults()
	for _, conflict := range settings.ValidateFieldNames() {
		result.AddError("field_validation", conflict)
	}

	return result
}

// ValidateDocuments checks a batch of incoming documents. Every document
// must carry a usable string ID; the rest of its fields are free-form.
func ValidateDocuments(docs []model.Document) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if len(docs) == 0 {
		result.AddError("documents", "No documents provided")
		return result
	}

	for i, doc := range docs {
		if message := documentIDProblem(doc); message != "" {
			result.AddError(fmt.Sprintf("documents[%d].id", i), message)
		}
	}

	return result
}

// documentIDProblem checks the one field every incoming document must carry
// and describes what is wrong with it, or returns "" when it is fine.
func documentIDProblem(doc model.Document) string {
	idVal, exists := doc["id"]
	if !exists {
		return "Document must have an 'id' field"
	}
	idStr, ok := idVal.(string)
	if !ok {
		return "Document ID must be a string"
	}
	if strings.TrimSpace(idStr) == "" {
		return "Document ID cannot be empty or whitespace-only"
	}
	return ""
}

// ValidatePagination normalizes pagination parameters for document listing.
// Out-of-range values are clamped rather than rejected, so the result
// currently never carries errors; it keeps the signature uniform with the
// other validators.
func ValidatePagination(page, pageSize int) (int, int, *ValidationResult) {
	result := &ValidationResult{Valid: true}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100 // Maximum page size
	}

	return page, pageSize, result
}

// ValidateRenameRequest checks the pair of names in a rename request.
func ValidateRenameRequest(oldName, newName string) *ValidationResult {
	result := &ValidationResult{Valid: true}

	if oldName == "" {
		result.AddError("oldName", "Current index name is required")
	}
	if newName == "" {
		result.AddError("new_name", "New name is required and cannot be empty")
	}
	if strings.TrimSpace(newName) != newName {
		result.AddError("new_name", "New name cannot have leading or trailing whitespace")
	}
	if oldName == newName {
		result.AddError("new_name", "New name must be different from current name")
	}

	return result
}

// SendValidationError sends the standard 400 payload for a failed result.
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding binds the request body into target, reporting decode
// failures as a validation result instead of a bare error.
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}
	return result
}

// ValidateQueryBinding binds query parameters into target the same way.
func ValidateQueryBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if err := c.ShouldBindQuery(target); err != nil {
		result.AddError("query_parameters", "Invalid query parameters: "+err.Error())
	}
	return result
}
