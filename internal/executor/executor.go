// Package executor runs compiled clause trees against an index collaborator
// and classifies failures into the execution error taxonomy. It never retries
// and never reorders, deduplicates, or trims what the collaborator returned.
package executor

import (
	"context"
	"errors"
	"fmt"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/query"
	"github.com/gcbaptista/go-filter-engine/services"
)

// Executor dispatches tree searches to a single collaborator.
type Executor struct {
	searcher services.TreeSearcher
}

// New creates an Executor bound to the given collaborator. A nil searcher is
// accepted here and reported as a transport failure on the first Execute call,
// so construction stays infallible for embedding.
func New(searcher services.TreeSearcher) *Executor {
	return &Executor{searcher: searcher}
}

// Execute evaluates the tree and returns the collaborator's result verbatim:
// IDs exactly as received and Total counted before pagination. Zero matches
// is a success with Total 0, not an error. Every failure comes back as an
// *errors.ExecutionError carrying the classification kind.
func (e *Executor) Execute(ctx context.Context, tree *query.Tree, page query.Page, opts services.TreeSearchOptions) (query.Result, error) {
	if e.searcher == nil {
		return query.Result{}, internalErrors.NewExecutionError(internalErrors.ExecutionTransport, fmt.Errorf("no index collaborator configured"))
	}
	if err := ctx.Err(); err != nil {
		return query.Result{}, internalErrors.NewExecutionError(internalErrors.ExecutionCanceled, err)
	}

	result, err := e.searcher.SearchTree(ctx, tree, page, opts)
	if err != nil {
		return query.Result{}, classify(err)
	}
	return result, nil
}

// classify wraps a collaborator failure into an ExecutionError. Errors the
// collaborator already classified pass through untouched.
func classify(err error) error {
	var execErr *internalErrors.ExecutionError
	if errors.As(err, &execErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return internalErrors.NewExecutionError(internalErrors.ExecutionCanceled, err)
	}
	return internalErrors.NewExecutionError(internalErrors.ExecutionEngine, err)
}
