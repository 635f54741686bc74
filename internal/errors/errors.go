// Package errors defines the error taxonomy shared by the engine, the
// filter pipeline, and the HTTP layer. Callers branch with errors.Is
// against the sentinels; the concrete types carry the context (index
// names, IDs, lookup suffixes) that ends up in messages and API payloads.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrIndexNotFound      = errors.New("index not found")
	ErrIndexAlreadyExists = errors.New("index already exists")
	ErrDocumentNotFound   = errors.New("document not found")
	ErrJobNotFound        = errors.New("job not found")
	ErrPresetNotFound     = errors.New("preset not found")
	ErrSameName           = errors.New("same name provided")

	// ErrInvalidInput covers malformed values and bad request shapes.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedLookup covers filter keys whose lookup suffix the
	// registry does not know. Kept apart from ErrInvalidInput so the
	// strict policy can be toggled without reclassifying other 4xx cases.
	ErrUnsupportedLookup = errors.New("unsupported lookup")

	// ErrExecution covers failures while running a compiled query against
	// the index collaborator.
	ErrExecution = errors.New("query execution failed")
)

// ValidationError reports which field failed validation and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError builds a ValidationError. Field may be empty when the
// failure is not tied to a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// UnsupportedLookupError reports a filter key whose lookup suffix is not
// registered.
type UnsupportedLookupError struct {
	Field  string
	Suffix string
}

func (e *UnsupportedLookupError) Error() string {
	return fmt.Sprintf("unsupported lookup '%s' for field '%s'", e.Suffix, e.Field)
}

func (e *UnsupportedLookupError) Is(target error) bool { return target == ErrUnsupportedLookup }

// NewUnsupportedLookupError builds an UnsupportedLookupError for the given
// field and suffix.
func NewUnsupportedLookupError(field, suffix string) *UnsupportedLookupError {
	return &UnsupportedLookupError{Field: field, Suffix: suffix}
}

// ExecutionKind classifies why a query execution failed.
type ExecutionKind string

const (
	// ExecutionTransport marks failures reaching the index collaborator.
	ExecutionTransport ExecutionKind = "transport"

	// ExecutionEngine marks failures inside the index collaborator.
	ExecutionEngine ExecutionKind = "engine"

	// ExecutionCanceled marks executions cut short by context cancellation
	// or deadline expiry.
	ExecutionCanceled ExecutionKind = "canceled"
)

// ExecutionError wraps the cause of a failed query execution together with
// its kind. Unwrap keeps the cause reachable, so errors.Is still sees
// context.Canceled through it.
type ExecutionError struct {
	Kind ExecutionKind
	Err  error
}

func (e *ExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("query execution failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("query execution failed (%s)", e.Kind)
}

func (e *ExecutionError) Is(target error) bool { return target == ErrExecution }

func (e *ExecutionError) Unwrap() error { return e.Err }

// NewExecutionError builds an ExecutionError of the given kind wrapping err.
func NewExecutionError(kind ExecutionKind, err error) *ExecutionError {
	return &ExecutionError{Kind: kind, Err: err}
}

// IndexNotFoundError names the index that was looked up and missed.
type IndexNotFoundError struct {
	IndexName string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index named '%s' not found", e.IndexName)
}

func (e *IndexNotFoundError) Is(target error) bool { return target == ErrIndexNotFound }

// NewIndexNotFoundError builds an IndexNotFoundError for the given index.
func NewIndexNotFoundError(indexName string) *IndexNotFoundError {
	return &IndexNotFoundError{IndexName: indexName}
}

// IndexAlreadyExistsError names the index a create or rename collided with.
type IndexAlreadyExistsError struct {
	IndexName string
}

func (e *IndexAlreadyExistsError) Error() string {
	return fmt.Sprintf("index named '%s' already exists", e.IndexName)
}

func (e *IndexAlreadyExistsError) Is(target error) bool { return target == ErrIndexAlreadyExists }

// NewIndexAlreadyExistsError builds an IndexAlreadyExistsError for the
// given index.
func NewIndexAlreadyExistsError(indexName string) *IndexAlreadyExistsError {
	return &IndexAlreadyExistsError{IndexName: indexName}
}

// SameNameError reports a rename whose target equals the current name.
type SameNameError struct {
	Name string
}

func (e *SameNameError) Error() string {
	return fmt.Sprintf("new name '%s' is the same as the current name", e.Name)
}

func (e *SameNameError) Is(target error) bool { return target == ErrSameName }

// NewSameNameError builds a SameNameError for the given name.
func NewSameNameError(name string) *SameNameError {
	return &SameNameError{Name: name}
}

// DocumentNotFoundError names the missing document and, when known, the
// index it was looked up in.
type DocumentNotFoundError struct {
	DocumentID string
	IndexName  string
}

func (e *DocumentNotFoundError) Error() string {
	if e.IndexName != "" {
		return fmt.Sprintf("document with ID '%s' not found in index '%s'", e.DocumentID, e.IndexName)
	}
	return fmt.Sprintf("document with ID '%s' not found", e.DocumentID)
}

func (e *DocumentNotFoundError) Is(target error) bool { return target == ErrDocumentNotFound }

// NewDocumentNotFoundError builds a DocumentNotFoundError. The optional
// second argument scopes the message to an index.
func NewDocumentNotFoundError(documentID string, indexName ...string) *DocumentNotFoundError {
	err := &DocumentNotFoundError{DocumentID: documentID}
	if len(indexName) > 0 {
		err.IndexName = indexName[0]
	}
	return err
}

// PresetNotFoundError names the missing filter preset and, when known, the
// index it was looked up in.
type PresetNotFoundError struct {
	PresetName string
	IndexName  string
}

func (e *PresetNotFoundError) Error() string {
	if e.IndexName != "" {
		return fmt.Sprintf("preset named '%s' not found in index '%s'", e.PresetName, e.IndexName)
	}
	return fmt.Sprintf("preset named '%s' not found", e.PresetName)
}

func (e *PresetNotFoundError) Is(target error) bool { return target == ErrPresetNotFound }

// NewPresetNotFoundError builds a PresetNotFoundError. The optional second
// argument scopes the message to an index.
func NewPresetNotFoundError(presetName string, indexName ...string) *PresetNotFoundError {
	err := &PresetNotFoundError{PresetName: presetName}
	if len(indexName) > 0 {
		err.IndexName = indexName[0]
	}
	return err
}

// JobNotFoundError names the job ID that was looked up and missed.
type JobNotFoundError struct {
	JobID string
}

func (e *JobNotFoundError) Error() string {
	return fmt.Sprintf("job with ID '%s' not found", e.JobID)
}

func (e *JobNotFoundError) Is(target error) bool { return target == ErrJobNotFound }

// NewJobNotFoundError builds a JobNotFoundError for the given job ID.
func NewJobNotFoundError(jobID string) *JobNotFoundError {
	return &JobNotFoundError{JobID: jobID}
}
