package search

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/panjf2000/ants/v2"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/index"
	"github.com/gcbaptista/go-filter-engine/internal/executor"
	"github.com/gcbaptista/go-filter-engine/internal/indexing"
	"github.com/gcbaptista/go-filter-engine/internal/lookup"
	"github.com/gcbaptista/go-filter-engine/internal/tokenizer"
	"github.com/gcbaptista/go-filter-engine/query"
	"github.com/gcbaptista/go-filter-engine/services"
	"github.com/gcbaptista/go-filter-engine/store"
)

// Service evaluates compiled clause trees for a single index.
// It fulfills services.TreeSearcher and, through the full parse, compile,
// execute pipeline, services.Filterer and services.MultiFilterer.
type Service struct {
	fieldIndex    *index.FieldIndex
	documentStore *store.DocumentStore
	settings      *config.IndexSettings
	parser        *lookup.Parser
	exec          *executor.Executor
	pool          *ants.Pool // optional worker pool for multi-filter fan-out

	// DefaultPageSize applies when a request omits page_size; MaxPageSize
	// caps what a request may ask for (0 = uncapped).
	DefaultPageSize int
	MaxPageSize     int
}

const defaultPageSize = 10

// NewService creates a new filter search Service. The parser may be nil, in
// which case the default strict syntax applies. The pool may be nil, in which
// case multi-filter requests fan out on plain goroutines.
func NewService(fieldIndex *index.FieldIndex, docStore *store.DocumentStore, settings *config.IndexSettings, parser *lookup.Parser, pool *ants.Pool) (*Service, error) {
	if fieldIndex == nil {
		return nil, fmt.Errorf("field index cannot be nil")
	}
	if docStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if settings == nil {
		return nil, fmt.Errorf("settings cannot be nil")
	}
	if parser == nil {
		parser = lookup.NewParser(lookup.DefaultSyntax())
	}

	s := &Service{
		fieldIndex:      fieldIndex,
		documentStore:   docStore,
		settings:        settings,
		parser:          parser,
		pool:            pool,
		DefaultPageSize: defaultPageSize,
	}
	s.exec = executor.New(s)
	return s, nil
}

// SearchTree evaluates a compiled clause tree and returns the matching
// document IDs inside the pagination window, in deterministic order, plus
// the total match count before pagination.
func (s *Service) SearchTree(ctx context.Context, tree *query.Tree, page query.Page, opts services.TreeSearchOptions) (query.Result, error) {
	if err := ctx.Err(); err != nil {
		return query.Result{}, err
	}

	// Same acquisition order as the indexing service.
	s.documentStore.Mu.RLock()
	s.fieldIndex.Mu.RLock()
	defer s.documentStore.Mu.RUnlock()
	defer s.fieldIndex.Mu.RUnlock()

	candidates := s.collectCandidates(opts.Query)

	if tree != nil {
		for i := range tree.Must {
			if err := ctx.Err(); err != nil {
				return query.Result{}, err
			}
			candidates = s.applyMust(candidates, &tree.Must[i])
		}
		for i := range tree.MustNot {
			if err := ctx.Err(); err != nil {
				return query.Result{}, err
			}
			candidates = s.applyMustNot(candidates, &tree.MustNot[i])
		}
	}

	ordered := s.orderCandidates(candidates, opts)
	total := len(ordered)

	offset := page.Offset
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + page.Limit
	if page.Limit < 0 {
		end = offset
	}
	if end > total {
		end = total
	}

	ids := make([]string, 0, end-offset)
	for _, cand := range ordered[offset:end] {
		if id, ok := s.documentStore.Docs[cand.internalID].GetID(); ok {
			ids = append(ids, id)
		}
	}

	return query.Result{IDs: ids, Total: total}, nil
}

// collectCandidates builds the base candidate set the clause tree narrows
// down: every stored document, or the free-text matches when a query string
// is present. A query string that tokenizes to nothing matches nothing.
func (s *Service) collectCandidates(queryString string) map[uint32]*candidate {
	candidates := make(map[uint32]*candidate)

	if queryString == "" {
		for internalID := range s.documentStore.Docs {
			candidates[internalID] = &candidate{internalID: internalID}
		}
		return candidates
	}

	for _, token := range tokenizer.Tokenize(queryString) {
		for _, entry := range s.fieldIndex.Tokens[token] {
			cand, found := candidates[entry.DocID]
			if !found {
				cand = &candidate{internalID: entry.DocID}
				candidates[entry.DocID] = cand
			}
			cand.score += entry.Frequency
		}
	}
	return candidates
}

// applyMust narrows the candidate set to documents matching the clause.
// Clauses evaluate in filter context: a range boost never changes membership
// or order here, since every survivor matches every Must clause.
func (s *Service) applyMust(candidates map[uint32]*candidate, clause *query.Clause) map[uint32]*candidate {
	if !s.fieldIsFilterable(clause.Field) {
		log.Printf("Warning: Field '%s' is not configured as filterable in index '%s'. Skipping clause.", clause.Field, s.settings.Name)
		return candidates
	}

	matches := s.matchSet(clause)

	filtered := make(map[uint32]*candidate)
	for internalID, cand := range candidates {
		if _, found := matches[internalID]; found {
			filtered[internalID] = cand
		}
	}
	return filtered
}

// applyMustNot removes documents matching the clause from the candidate set.
func (s *Service) applyMustNot(candidates map[uint32]*candidate, clause *query.Clause) map[uint32]*candidate {
	if !s.fieldIsFilterable(clause.Field) {
		log.Printf("Warning: Field '%s' is not configured as filterable in index '%s'. Skipping clause.", clause.Field, s.settings.Name)
		return candidates
	}

	for internalID := range s.matchSet(clause) {
		delete(candidates, internalID)
	}
	return candidates
}

// matchSet resolves one clause to the set of internal IDs it matches.
func (s *Service) matchSet(clause *query.Clause) map[uint32]struct{} {
	matches := make(map[uint32]struct{})
	values := s.fieldIndex.Values[clause.Field]

	switch clause.Kind {
	case query.KindTerm:
		addPostings(matches, values[clause.Value])
	case query.KindTerms:
		for _, value := range clause.Values {
			addPostings(matches, values[value])
		}
	case query.KindRange:
		for value, postings := range values {
			if inRange(value, clause.Lower, clause.Upper) {
				addPostings(matches, postings)
			}
		}
	case query.KindPrefix:
		for value, postings := range values {
			if strings.HasPrefix(value, clause.Value) {
				addPostings(matches, postings)
			}
		}
	case query.KindWildcard:
		for value, postings := range values {
			if globMatch(clause.Value, value) {
				addPostings(matches, postings)
			}
		}
	case query.KindExists:
		if clause.Exists {
			addPostings(matches, s.fieldIndex.Presence[clause.Field])
		} else {
			present := make(map[uint32]struct{})
			addPostings(present, s.fieldIndex.Presence[clause.Field])
			for internalID := range s.documentStore.Docs {
				if _, found := present[internalID]; !found {
					matches[internalID] = struct{}{}
				}
			}
		}
	default:
		log.Printf("Warning: Unknown clause kind '%s' for field '%s' in index '%s'. Matching nothing.", clause.Kind, clause.Field, s.settings.Name)
	}

	return matches
}

func addPostings(set map[uint32]struct{}, postings []uint32) {
	for _, internalID := range postings {
		set[internalID] = struct{}{}
	}
}

func (s *Service) fieldIsFilterable(field string) bool {
	if len(s.settings.FilterableFields) == 0 {
		return true
	}
	for _, f := range s.settings.FilterableFields {
		if f == field {
			return true
		}
	}
	return false
}

// orderCandidates flattens the candidate set into its final deterministic
// order: an explicit ordering field wins, then free-text score, then
// insertion order.
func (s *Service) orderCandidates(candidates map[uint32]*candidate, opts services.TreeSearchOptions) []*candidate {
	ordered := make([]*candidate, 0, len(candidates))
	for _, cand := range candidates {
		ordered = append(ordered, cand)
	}

	switch {
	case opts.Ordering != "":
		field, descending := parseOrdering(opts.Ordering)

		// Pre-compute the ordering key per document. Multi-valued fields
		// order by their first value; documents missing the field sort last.
		keys := make(map[uint32]string, len(ordered))
		hasKey := make(map[uint32]bool, len(ordered))
		for _, cand := range ordered {
			if vals := indexing.CanonicalValues(s.documentStore.Docs[cand.internalID][field]); len(vals) > 0 {
				keys[cand.internalID] = vals[0]
				hasKey[cand.internalID] = true
			}
		}

		sort.Slice(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if hasKey[a.internalID] != hasKey[b.internalID] {
				return hasKey[a.internalID]
			}
			if hasKey[a.internalID] && hasKey[b.internalID] {
				if cmp := compareCanonical(keys[a.internalID], keys[b.internalID]); cmp != 0 {
					if descending {
						return cmp > 0
					}
					return cmp < 0
				}
			}
			return a.internalID < b.internalID
		})
	case opts.Query != "":
		sort.Slice(ordered, func(i, j int) bool {
			a, b := ordered[i], ordered[j]
			if a.score != b.score {
				return a.score > b.score
			}
			return a.internalID < b.internalID
		})
	default:
		sort.Slice(ordered, func(i, j int) bool {
			return ordered[i].internalID < ordered[j].internalID
		})
	}

	return ordered
}

// parseOrdering splits an ordering expression into field and direction.
// A leading '-' means descending.
func parseOrdering(ordering string) (field string, descending bool) {
	if strings.HasPrefix(ordering, "-") {
		return strings.TrimPrefix(ordering, "-"), true
	}
	return ordering, false
}
