package search

import (
	"context"
	"log"
	"time"

	"github.com/gcbaptista/go-filter-engine/internal/executor"
	"github.com/gcbaptista/go-filter-engine/internal/lookup"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

// Filter runs one raw filter query through the full pipeline: parse and
// compile the query string into a clause tree, execute it, hydrate the
// matching documents, and translate everything into the caller-facing page.
// Parse failures surface as ValidationError or UnsupportedLookupError;
// execution failures as ExecutionError.
func (s *Service) Filter(ctx context.Context, req services.FilterRequest) (services.PagedResponse, error) {
	startTime := time.Now()

	tree, _, err := lookup.CompileQuery(s.parser, req.RawQuery)
	if err != nil {
		return services.PagedResponse{}, err
	}

	page := executor.PageFromRequest(req.Page, req.PageSize, s.DefaultPageSize, s.MaxPageSize)
	opts := services.TreeSearchOptions{Query: req.Query, Ordering: req.Ordering}

	result, err := s.exec.Execute(ctx, tree, page, opts)
	if err != nil {
		return services.PagedResponse{}, err
	}

	return executor.Translate(result, s.hydrate(result.IDs), page, time.Since(startTime)), nil
}

// hydrate resolves external document IDs back into stored documents.
// A document deleted between execution and hydration is skipped with a
// warning rather than failing the whole page.
func (s *Service) hydrate(ids []string) []model.Document {
	s.documentStore.Mu.RLock()
	defer s.documentStore.Mu.RUnlock()

	items := make([]model.Document, 0, len(ids))
	for _, id := range ids {
		internalID, found := s.documentStore.ExternalIDtoInternalID[id]
		if !found {
			log.Printf("Warning: Document '%s' disappeared from index '%s' during result hydration. Skipping.", id, s.settings.Name)
			continue
		}
		items = append(items, s.documentStore.Docs[internalID])
	}
	return items
}
