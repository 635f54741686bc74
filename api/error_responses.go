package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
)

// ErrorCode is the machine-readable code carried by every error response.
// Clients are expected to branch on these rather than on message text.
type ErrorCode string

const (
	// 4xx
	ErrorCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrorCodeIndexNotFound    ErrorCode = "INDEX_NOT_FOUND"
	ErrorCodeDocumentNotFound ErrorCode = "DOCUMENT_NOT_FOUND"
	ErrorCodeJobNotFound      ErrorCode = "JOB_NOT_FOUND"
	ErrorCodePresetNotFound   ErrorCode = "PRESET_NOT_FOUND"
	ErrorCodeIndexExists      ErrorCode = "INDEX_ALREADY_EXISTS"
	ErrorCodeInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrorCodeInvalidJSON      ErrorCode = "INVALID_JSON"
	ErrorCodeInvalidQuery     ErrorCode = "INVALID_QUERY"
	ErrorCodeSameName         ErrorCode = "SAME_NAME_PROVIDED"
	ErrorCodeRequestCanceled  ErrorCode = "REQUEST_CANCELED"

	// 5xx
	ErrorCodeInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrorCodeIndexingFailed     ErrorCode = "INDEXING_FAILED"
	ErrorCodeFilterFailed       ErrorCode = "FILTER_FAILED"
	ErrorCodePersistenceFailed  ErrorCode = "PERSISTENCE_FAILED"
	ErrorCodeJobExecutionFailed ErrorCode = "JOB_EXECUTION_FAILED"
)

// ErrorDetail is one entry in the details list, typically a field-level
// validation failure.
type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// APIError is the JSON envelope every error response shares.
type APIError struct {
	Error     string        `json:"error"`
	Code      ErrorCode     `json:"code"`
	Message   string        `json:"message"`
	Details   []ErrorDetail `json:"details,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	RequestID string        `json:"request_id,omitempty"`
}

// requestIDFrom pulls the request ID the middleware stored on the context,
// or "" when the middleware did not run.
func requestIDFrom(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// SendError writes the error envelope with the given status, code, and
// message. Remaining helpers in this file fix the status and code for the
// failures the handlers actually produce, keeping call sites to one line.
func SendError(c *gin.Context, statusCode int, code ErrorCode, message string, details ...ErrorDetail) {
	c.JSON(statusCode, &APIError{
		Error:     "Request failed",
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
		RequestID: requestIDFrom(c),
	})
}

// SendStructuredValidationError flattens a ValidationResult into the detail
// list of a single VALIDATION_FAILED response.
func SendStructuredValidationError(c *gin.Context, result *ValidationResult) {
	details := make([]ErrorDetail, len(result.Errors))
	for i, err := range result.Errors {
		details[i] = ErrorDetail{Field: err.Field, Message: err.Message, Code: "VALIDATION_ERROR"}
	}
	SendError(c, http.StatusBadRequest, ErrorCodeValidationFailed, "Request validation failed", details...)
}

// scopedNotFound builds the "<kind> '<name>' not found" message, adding the
// index scope when one is known.
func scopedNotFound(kind, name, indexName string) string {
	message := kind + " '" + name + "' not found"
	if indexName != "" {
		message += " in index '" + indexName + "'"
	}
	return message
}

func SendIndexNotFoundError(c *gin.Context, indexName string) {
	SendError(c, http.StatusNotFound, ErrorCodeIndexNotFound, "Index '"+indexName+"' not found")
}

// SendDocumentNotFoundError reports a missing document, scoped to its index
// when one is named.
func SendDocumentNotFoundError(c *gin.Context, documentID, indexName string) {
	SendError(c, http.StatusNotFound, ErrorCodeDocumentNotFound, scopedNotFound("Document", documentID, indexName))
}

func SendJobNotFoundError(c *gin.Context, jobID string) {
	SendError(c, http.StatusNotFound, ErrorCodeJobNotFound, "Job '"+jobID+"' not found")
}

func SendPresetNotFoundError(c *gin.Context, presetName, indexName string) {
	SendError(c, http.StatusNotFound, ErrorCodePresetNotFound, scopedNotFound("Preset", presetName, indexName))
}

// SendIndexExistsError reports a name collision on index creation.
func SendIndexExistsError(c *gin.Context, indexName string) {
	SendError(c, http.StatusConflict, ErrorCodeIndexExists, "Index '"+indexName+"' already exists")
}

// SendSameNameError rejects a rename to the current name.
func SendSameNameError(c *gin.Context, name string) {
	SendError(c, http.StatusBadRequest, ErrorCodeSameName, "New name '"+name+"' is the same as the current name")
}

// SendInvalidJSONError reports a request body that could not be decoded.
func SendInvalidJSONError(c *gin.Context, err error) {
	SendError(c, http.StatusBadRequest, ErrorCodeInvalidJSON, "Invalid JSON in request body: "+err.Error())
}

// SendInternalError reports an unexpected server-side failure during the
// named operation.
func SendInternalError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeInternalError,
		"Internal error during "+operation+": "+err.Error())
}

func SendIndexingError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeIndexingFailed,
		"Indexing operation failed ("+operation+"): "+err.Error())
}

// SendFilterError maps an error from the filter pipeline to its HTTP
// response. Compilation failures are the caller's fault, a canceled
// execution becomes a timeout, everything else is a server-side failure.
func SendFilterError(c *gin.Context, indexName string, err error) {
	var execErr *internalErrors.ExecutionError
	switch {
	case errors.Is(err, internalErrors.ErrInvalidInput),
		errors.Is(err, internalErrors.ErrUnsupportedLookup):
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery,
			"Invalid filter query: "+err.Error())
	case errors.As(err, &execErr) && execErr.Kind == internalErrors.ExecutionCanceled:
		SendError(c, http.StatusRequestTimeout, ErrorCodeRequestCanceled,
			"Filter canceled on index '"+indexName+"': "+err.Error())
	default:
		SendError(c, http.StatusInternalServerError, ErrorCodeFilterFailed,
			"Filter failed on index '"+indexName+"': "+err.Error())
	}
}

// SendJobExecutionError reports a job the engine refused to start.
func SendJobExecutionError(c *gin.Context, operation string, err error) {
	SendError(c, http.StatusInternalServerError, ErrorCodeJobExecutionFailed,
		"Failed to start "+operation+" job: "+err.Error())
}
