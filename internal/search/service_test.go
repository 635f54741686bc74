package search

import (
	"context"
	"reflect"
	"testing"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/index"
	"github.com/gcbaptista/go-filter-engine/internal/indexing"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/query"
	"github.com/gcbaptista/go-filter-engine/services"
	"github.com/gcbaptista/go-filter-engine/store"
)

// newFilterTestService builds a search service over a small populated index.
//
// Internal IDs follow insertion order, so with no free-text query and no
// ordering the documents come back as "1".."5".
func newFilterTestService(t *testing.T) *Service {
	t.Helper()

	settings := &config.IndexSettings{
		Name:             "movies",
		SearchableFields: []string{"title"},
		FilterableFields: []string{"state", "year", "tags", "title", "rating"},
	}
	fieldIndex := &index.FieldIndex{Settings: settings}
	docStore := &store.DocumentStore{}

	indexer, err := indexing.NewService(fieldIndex, docStore)
	if err != nil {
		t.Fatalf("indexing.NewService() error = %v", err)
	}

	docs := []model.Document{
		{"id": "1", "title": "DelusionalInsanity rising", "state": "published", "year": float64(2016), "tags": []string{"epic"}},
		{"id": "2", "title": "Quiet plains", "state": "published", "year": float64(2018), "tags": []string{"calm"}},
		{"id": "3", "title": "DelusionalInsanity returns", "state": "rejected", "year": float64(2019)},
		{"id": "4", "title": "Cold rivers", "state": "in-progress", "year": float64(2021), "tags": []string{"epic", "calm"}},
		{"id": "5", "title": "Insanity delusional twice insanity", "state": "rejected"},
	}
	if err := indexer.AddDocuments(docs); err != nil {
		t.Fatalf("AddDocuments() error = %v", err)
	}

	service, err := NewService(fieldIndex, docStore, settings, nil, nil)
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return service
}

func searchIDs(t *testing.T, s *Service, tree *query.Tree, opts services.TreeSearchOptions) []string {
	t.Helper()
	result, err := s.SearchTree(context.Background(), tree, query.Page{Offset: 0, Limit: 100}, opts)
	if err != nil {
		t.Fatalf("SearchTree() error = %v", err)
	}
	return result.IDs
}

func TestNewServiceValidation(t *testing.T) {
	settings := &config.IndexSettings{Name: "movies"}
	fieldIndex := &index.FieldIndex{Settings: settings}
	docStore := &store.DocumentStore{}

	if _, err := NewService(nil, docStore, settings, nil, nil); err == nil {
		t.Error("Expected an error for a nil field index")
	}
	if _, err := NewService(fieldIndex, nil, settings, nil, nil); err == nil {
		t.Error("Expected an error for a nil document store")
	}
	if _, err := NewService(fieldIndex, docStore, nil, nil, nil); err == nil {
		t.Error("Expected an error for nil settings")
	}
	if _, err := NewService(fieldIndex, docStore, settings, nil, nil); err != nil {
		t.Errorf("Expected nil parser and pool to be accepted, got %v", err)
	}
}

func TestSearchTreeEmptyTreeMatchesEverything(t *testing.T) {
	s := newFilterTestService(t)

	result, err := s.SearchTree(context.Background(), &query.Tree{}, query.Page{Limit: 100}, services.TreeSearchOptions{})
	if err != nil {
		t.Fatalf("SearchTree() error = %v", err)
	}
	if result.Total != 5 {
		t.Errorf("Expected Total 5, got %d", result.Total)
	}
	if !reflect.DeepEqual(result.IDs, []string{"1", "2", "3", "4", "5"}) {
		t.Errorf("Expected insertion order, got %v", result.IDs)
	}

	if got := searchIDs(t, s, nil, services.TreeSearchOptions{}); len(got) != 5 {
		t.Errorf("Expected a nil tree to match everything, got %v", got)
	}
}

func TestSearchTreeClauseKinds(t *testing.T) {
	s := newFilterTestService(t)

	tests := []struct {
		name string
		tree *query.Tree
		want []string
	}{
		{
			"term",
			&query.Tree{Must: []query.Clause{{Kind: query.KindTerm, Field: "state", Value: "published"}}},
			[]string{"1", "2"},
		},
		{
			"term on multi-valued field",
			&query.Tree{Must: []query.Clause{{Kind: query.KindTerm, Field: "tags", Value: "calm"}}},
			[]string{"2", "4"},
		},
		{
			"terms union",
			&query.Tree{Must: []query.Clause{{Kind: query.KindTerms, Field: "state", Values: []string{"published", "in-progress"}}}},
			[]string{"1", "2", "4"},
		},
		{
			"range numeric inclusive",
			&query.Tree{Must: []query.Clause{{Kind: query.KindRange, Field: "year", Lower: "2016", Upper: "2019", Boost: 1.0}}},
			[]string{"1", "2", "3"},
		},
		{
			"range excludes documents without the field",
			&query.Tree{Must: []query.Clause{{Kind: query.KindRange, Field: "year", Lower: "0", Upper: "9999", Boost: 1.0}}},
			[]string{"1", "2", "3", "4"},
		},
		{
			"prefix",
			&query.Tree{Must: []query.Clause{{Kind: query.KindPrefix, Field: "title", Value: "DelusionalInsanity"}}},
			[]string{"1", "3"},
		},
		{
			"wildcard trailing",
			&query.Tree{Must: []query.Clause{{Kind: query.KindWildcard, Field: "title", Value: "*rivers"}}},
			[]string{"4"},
		},
		{
			"wildcard verbatim case",
			&query.Tree{Must: []query.Clause{{Kind: query.KindWildcard, Field: "title", Value: "*Insanity*"}}},
			[]string{"1", "3", "5"},
		},
		{
			"exists true",
			&query.Tree{Must: []query.Clause{{Kind: query.KindExists, Field: "tags", Exists: true}}},
			[]string{"1", "2", "4"},
		},
		{
			"exists false",
			&query.Tree{Must: []query.Clause{{Kind: query.KindExists, Field: "tags", Exists: false}}},
			[]string{"3", "5"},
		},
		{
			"must not",
			&query.Tree{MustNot: []query.Clause{{Kind: query.KindTerm, Field: "state", Value: "rejected"}}},
			[]string{"1", "2", "4"},
		},
		{
			"must and must not combined",
			&query.Tree{
				Must:    []query.Clause{{Kind: query.KindExists, Field: "year", Exists: false}},
				MustNot: []query.Clause{{Kind: query.KindTerm, Field: "state", Value: "published"}},
			},
			[]string{"5"},
		},
		{
			"conjunction intersects",
			&query.Tree{Must: []query.Clause{
				{Kind: query.KindTerm, Field: "state", Value: "rejected"},
				{Kind: query.KindExists, Field: "year", Exists: true},
			}},
			[]string{"3"},
		},
		{
			"no matches",
			&query.Tree{Must: []query.Clause{{Kind: query.KindTerm, Field: "state", Value: "archived"}}},
			[]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := searchIDs(t, s, tt.tree, services.TreeSearchOptions{})
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected IDs %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSearchTreeSkipsNonFilterableFields(t *testing.T) {
	s := newFilterTestService(t)

	// A clause on a field outside the filterable list is skipped, so it
	// constrains nothing in Must and subtracts nothing in MustNot.
	tree := &query.Tree{
		Must:    []query.Clause{{Kind: query.KindTerm, Field: "secret", Value: "x"}},
		MustNot: []query.Clause{{Kind: query.KindTerm, Field: "hidden", Value: "y"}},
	}
	got := searchIDs(t, s, tree, services.TreeSearchOptions{})
	if len(got) != 5 {
		t.Errorf("Expected skipped clauses to leave all 5 documents, got %v", got)
	}
}

func TestSearchTreeFreeTextQuery(t *testing.T) {
	s := newFilterTestService(t)

	t.Run("orders by summed term frequency", func(t *testing.T) {
		// "insanity" appears twice in document 5's title, once in 1 and 3.
		got := searchIDs(t, s, &query.Tree{}, services.TreeSearchOptions{Query: "insanity"})
		if !reflect.DeepEqual(got, []string{"5", "1", "3"}) {
			t.Errorf("Expected [5 1 3], got %v", got)
		}
	})

	t.Run("ties break on insertion order", func(t *testing.T) {
		got := searchIDs(t, s, &query.Tree{}, services.TreeSearchOptions{Query: "delusional"})
		if !reflect.DeepEqual(got, []string{"1", "3", "5"}) {
			t.Errorf("Expected [1 3 5], got %v", got)
		}
	})

	t.Run("combines with clauses", func(t *testing.T) {
		tree := &query.Tree{Must: []query.Clause{{Kind: query.KindTerm, Field: "state", Value: "rejected"}}}
		got := searchIDs(t, s, tree, services.TreeSearchOptions{Query: "insanity"})
		if !reflect.DeepEqual(got, []string{"5", "3"}) {
			t.Errorf("Expected [5 3], got %v", got)
		}
	})

	t.Run("camelCase titles match split tokens", func(t *testing.T) {
		got := searchIDs(t, s, &query.Tree{}, services.TreeSearchOptions{Query: "rising"})
		if !reflect.DeepEqual(got, []string{"1"}) {
			t.Errorf("Expected [1], got %v", got)
		}
	})

	t.Run("query without tokens matches nothing", func(t *testing.T) {
		result, err := s.SearchTree(context.Background(), &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{Query: "!!!"})
		if err != nil {
			t.Fatalf("SearchTree() error = %v", err)
		}
		if result.Total != 0 {
			t.Errorf("Expected Total 0, got %d", result.Total)
		}
	})
}

func TestSearchTreeOrdering(t *testing.T) {
	s := newFilterTestService(t)

	t.Run("descending numeric with missing values last", func(t *testing.T) {
		got := searchIDs(t, s, &query.Tree{}, services.TreeSearchOptions{Ordering: "-year"})
		if !reflect.DeepEqual(got, []string{"4", "3", "2", "1", "5"}) {
			t.Errorf("Expected [4 3 2 1 5], got %v", got)
		}
	})

	t.Run("ascending string", func(t *testing.T) {
		got := searchIDs(t, s, &query.Tree{}, services.TreeSearchOptions{Ordering: "title"})
		if !reflect.DeepEqual(got, []string{"4", "3", "1", "5", "2"}) {
			t.Errorf("Expected [4 3 1 5 2], got %v", got)
		}
	})

	t.Run("ordering wins over free-text score", func(t *testing.T) {
		got := searchIDs(t, s, &query.Tree{}, services.TreeSearchOptions{Query: "insanity", Ordering: "year"})
		if !reflect.DeepEqual(got, []string{"1", "3", "5"}) {
			t.Errorf("Expected [1 3 5], got %v", got)
		}
	})
}

func TestSearchTreePagination(t *testing.T) {
	s := newFilterTestService(t)
	tree := &query.Tree{}

	tests := []struct {
		name      string
		page      query.Page
		wantIDs   []string
		wantTotal int
	}{
		{"first window", query.Page{Offset: 0, Limit: 2}, []string{"1", "2"}, 5},
		{"middle window", query.Page{Offset: 2, Limit: 2}, []string{"3", "4"}, 5},
		{"window past the tail", query.Page{Offset: 4, Limit: 10}, []string{"5"}, 5},
		{"offset beyond total", query.Page{Offset: 10, Limit: 5}, []string{}, 5},
		{"zero limit", query.Page{Offset: 0, Limit: 0}, []string{}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.SearchTree(context.Background(), tree, tt.page, services.TreeSearchOptions{})
			if err != nil {
				t.Fatalf("SearchTree() error = %v", err)
			}
			if result.Total != tt.wantTotal {
				t.Errorf("Expected Total %d, got %d", tt.wantTotal, result.Total)
			}
			if !reflect.DeepEqual(result.IDs, tt.wantIDs) {
				t.Errorf("Expected IDs %v, got %v", tt.wantIDs, result.IDs)
			}
		})
	}
}

func TestSearchTreeCanceledContext(t *testing.T) {
	s := newFilterTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.SearchTree(ctx, &query.Tree{}, query.Page{Limit: 10}, services.TreeSearchOptions{}); err == nil {
		t.Error("Expected an error from a canceled context")
	}
}
