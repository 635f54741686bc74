package executor

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/query"
	"github.com/gcbaptista/go-filter-engine/services"
)

// stubSearcher is a canned TreeSearcher that records what it was called with.
type stubSearcher struct {
	result query.Result
	err    error

	calls   int
	gotTree *query.Tree
	gotPage query.Page
	gotOpts services.TreeSearchOptions
}

func (s *stubSearcher) SearchTree(_ context.Context, tree *query.Tree, page query.Page, opts services.TreeSearchOptions) (query.Result, error) {
	s.calls++
	s.gotTree = tree
	s.gotPage = page
	s.gotOpts = opts
	return s.result, s.err
}

func TestExecutePassesResultVerbatim(t *testing.T) {
	// The collaborator's ordering and contents are authoritative, duplicates
	// and all.
	stub := &stubSearcher{result: query.Result{IDs: []string{"9", "2", "2", "7"}, Total: 40}}
	exec := New(stub)

	tree := &query.Tree{Must: []query.Clause{{Kind: query.KindTerm, Field: "state", Value: "published"}}}
	page := query.Page{Offset: 30, Limit: 100} // window larger than the tail is the collaborator's business
	opts := services.TreeSearchOptions{Query: "insanity", Ordering: "-year"}

	result, err := exec.Execute(context.Background(), tree, page, opts)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !reflect.DeepEqual(result.IDs, []string{"9", "2", "2", "7"}) {
		t.Errorf("Expected IDs passed through verbatim, got %v", result.IDs)
	}
	if result.Total != 40 {
		t.Errorf("Expected Total 40, got %d", result.Total)
	}
	if stub.gotPage != page {
		t.Errorf("Expected page relayed unchanged, got %+v", stub.gotPage)
	}
	if stub.gotOpts != opts {
		t.Errorf("Expected options relayed unchanged, got %+v", stub.gotOpts)
	}
	if stub.gotTree != tree {
		t.Error("Expected the same tree pointer handed to the collaborator")
	}
}

func TestExecuteZeroMatchesIsNotAnError(t *testing.T) {
	stub := &stubSearcher{result: query.Result{IDs: nil, Total: 0}}
	exec := New(stub)

	result, err := exec.Execute(context.Background(), &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{})
	if err != nil {
		t.Fatalf("Execute() with zero matches should succeed, got error %v", err)
	}
	if result.Total != 0 || len(result.IDs) != 0 {
		t.Errorf("Expected empty result with Total 0, got %+v", result)
	}
}

func TestExecuteNilSearcher(t *testing.T) {
	exec := New(nil)

	_, err := exec.Execute(context.Background(), &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{})
	if err == nil {
		t.Fatal("Expected an error with no collaborator configured")
	}

	var execErr *internalErrors.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected an ExecutionError, got %T", err)
	}
	if execErr.Kind != internalErrors.ExecutionTransport {
		t.Errorf("Expected transport kind, got %q", execErr.Kind)
	}
}

func TestExecuteCanceledBeforeDispatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stub := &stubSearcher{result: query.Result{Total: 5}}
	exec := New(stub)

	_, err := exec.Execute(ctx, &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{})

	var execErr *internalErrors.ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Expected an ExecutionError, got %v", err)
	}
	if execErr.Kind != internalErrors.ExecutionCanceled {
		t.Errorf("Expected canceled kind, got %q", execErr.Kind)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("Expected the context sentinel preserved in the chain")
	}
	if stub.calls != 0 {
		t.Errorf("Expected no dispatch after cancellation, got %d calls", stub.calls)
	}
}

func TestExecuteClassifiesCollaboratorErrors(t *testing.T) {
	preclassified := internalErrors.NewExecutionError(internalErrors.ExecutionTransport, fmt.Errorf("connection reset"))

	tests := []struct {
		name     string
		err      error
		wantKind internalErrors.ExecutionKind
	}{
		{"context canceled", context.Canceled, internalErrors.ExecutionCanceled},
		{"deadline exceeded", context.DeadlineExceeded, internalErrors.ExecutionCanceled},
		{"wrapped cancellation", fmt.Errorf("walking postings: %w", context.Canceled), internalErrors.ExecutionCanceled},
		{"already classified", preclassified, internalErrors.ExecutionTransport},
		{"anything else", fmt.Errorf("corrupt posting list"), internalErrors.ExecutionEngine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubSearcher{err: tt.err}
			exec := New(stub)

			_, err := exec.Execute(context.Background(), &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{})

			var execErr *internalErrors.ExecutionError
			if !errors.As(err, &execErr) {
				t.Fatalf("Expected an ExecutionError, got %v", err)
			}
			if execErr.Kind != tt.wantKind {
				t.Errorf("Expected kind %q, got %q", tt.wantKind, execErr.Kind)
			}
			if !errors.Is(err, internalErrors.ErrExecution) {
				t.Error("Expected the error to match ErrExecution")
			}
		})
	}

	t.Run("already classified passes through untouched", func(t *testing.T) {
		stub := &stubSearcher{err: preclassified}
		exec := New(stub)

		_, err := exec.Execute(context.Background(), &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{})
		if !errors.Is(err, preclassified) {
			t.Error("Expected the collaborator's own ExecutionError returned as-is")
		}
	})
}

func TestExecuteDoesNotRetry(t *testing.T) {
	stub := &stubSearcher{err: fmt.Errorf("transient-looking failure")}
	exec := New(stub)

	_, _ = exec.Execute(context.Background(), &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{})
	if stub.calls != 1 {
		t.Errorf("Expected exactly one dispatch, got %d", stub.calls)
	}
}
