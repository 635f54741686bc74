package search

import (
	"context"
	"fmt"
	"time"

	"github.com/gcbaptista/go-filter-engine/services"
)

// MultiFilter executes multiple named filter queries in parallel
func (s *Service) MultiFilter(ctx context.Context, req services.MultiFilterRequest) (*services.MultiFilterResult, error) {
	startTime := time.Now()

	if len(req.Filters) == 0 {
		return nil, fmt.Errorf("at least one filter is required")
	}

	// Create channels for parallel execution
	type filterResult struct {
		name string
		resp services.PagedResponse
		err  error
	}

	resultChan := make(chan filterResult, len(req.Filters))

	// Execute filters in parallel, on the worker pool when one is configured
	for _, namedFilter := range req.Filters {
		if namedFilter.Name == "" {
			return nil, fmt.Errorf("each filter must have a non-empty name")
		}

		nf := namedFilter
		task := func() {
			resp, err := s.Filter(ctx, services.FilterRequest{
				RawQuery: nf.RawQuery,
				Query:    nf.Query,
				Ordering: nf.Ordering,
				Page:     req.Page,
				PageSize: req.PageSize,
			})

			// Send result to channel
			resultChan <- filterResult{name: nf.Name, resp: resp, err: err}
		}

		if s.pool != nil {
			if err := s.pool.Submit(task); err != nil {
				resultChan <- filterResult{name: nf.Name, err: fmt.Errorf("submitting filter to worker pool: %w", err)}
			}
		} else {
			go task()
		}
	}

	// Collect results from all filters
	results := make(map[string]services.PagedResponse)
	for i := 0; i < len(req.Filters); i++ {
		select {
		case fr := <-resultChan:
			if fr.err != nil {
				return nil, fmt.Errorf("error executing filter '%s': %w", fr.name, fr.err)
			}
			results[fr.name] = fr.resp
		case <-ctx.Done():
			return nil, fmt.Errorf("multi-filter cancelled: %w", ctx.Err())
		}
	}

	processingTime := time.Since(startTime)

	return &services.MultiFilterResult{
		Results:          results,
		TotalFilters:     len(req.Filters),
		ProcessingTimeMs: float64(processingTime.Nanoseconds()) / 1e6,
	}, nil
}
