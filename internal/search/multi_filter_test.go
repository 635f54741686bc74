package search

import (
	"context"
	"strings"
	"testing"

	"github.com/panjf2000/ants/v2"

	"github.com/gcbaptista/go-filter-engine/services"
)

func TestMultiFilter(t *testing.T) {
	s := newFilterTestService(t)

	result, err := s.MultiFilter(context.Background(), services.MultiFilterRequest{
		Filters: []services.NamedFilter{
			{Name: "published", RawQuery: "state=published"},
			{Name: "tagless", RawQuery: "tags__exists=false"},
			{Name: "modern", RawQuery: "year__range=2018|2021"},
		},
	})
	if err != nil {
		t.Fatalf("MultiFilter() error = %v", err)
	}

	if result.TotalFilters != 3 {
		t.Errorf("Expected TotalFilters 3, got %d", result.TotalFilters)
	}
	if len(result.Results) != 3 {
		t.Fatalf("Expected 3 named results, got %d", len(result.Results))
	}
	if got := result.Results["published"].Total; got != 2 {
		t.Errorf("Expected 'published' total 2, got %d", got)
	}
	if got := result.Results["tagless"].Total; got != 2 {
		t.Errorf("Expected 'tagless' total 2, got %d", got)
	}
	if got := result.Results["modern"].Total; got != 3 {
		t.Errorf("Expected 'modern' total 3, got %d", got)
	}
}

func TestMultiFilterWithWorkerPool(t *testing.T) {
	pool, err := ants.NewPool(2)
	if err != nil {
		t.Fatalf("ants.NewPool() error = %v", err)
	}
	defer pool.Release()

	s := newFilterTestService(t)
	s.pool = pool

	result, err := s.MultiFilter(context.Background(), services.MultiFilterRequest{
		Filters: []services.NamedFilter{
			{Name: "a", RawQuery: "state=published"},
			{Name: "b", RawQuery: "state=rejected"},
			{Name: "c", RawQuery: "state=in-progress"},
			{Name: "d", RawQuery: ""},
		},
	})
	if err != nil {
		t.Fatalf("MultiFilter() error = %v", err)
	}
	if len(result.Results) != 4 {
		t.Fatalf("Expected 4 results, got %d", len(result.Results))
	}
	if result.Results["b"].Total != 2 || result.Results["d"].Total != 5 {
		t.Errorf("Expected totals 2 and 5, got %d and %d", result.Results["b"].Total, result.Results["d"].Total)
	}
}

func TestMultiFilterValidation(t *testing.T) {
	s := newFilterTestService(t)

	if _, err := s.MultiFilter(context.Background(), services.MultiFilterRequest{}); err == nil {
		t.Error("Expected an error for an empty filter list")
	}

	_, err := s.MultiFilter(context.Background(), services.MultiFilterRequest{
		Filters: []services.NamedFilter{{Name: "", RawQuery: "state=published"}},
	})
	if err == nil {
		t.Error("Expected an error for a filter without a name")
	}
}

func TestMultiFilterPropagatesQueryErrors(t *testing.T) {
	s := newFilterTestService(t)

	_, err := s.MultiFilter(context.Background(), services.MultiFilterRequest{
		Filters: []services.NamedFilter{
			{Name: "ok", RawQuery: "state=published"},
			{Name: "broken", RawQuery: "year__range=only-one-segment"},
		},
	})
	if err == nil {
		t.Fatal("Expected the broken filter to fail the call")
	}
	if !strings.Contains(err.Error(), "broken") {
		t.Errorf("Expected the error to name the failing filter, got %v", err)
	}
}

func TestMultiFilterSharedPagination(t *testing.T) {
	s := newFilterTestService(t)

	result, err := s.MultiFilter(context.Background(), services.MultiFilterRequest{
		Filters: []services.NamedFilter{
			{Name: "all", RawQuery: ""},
		},
		Page:     2,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("MultiFilter() error = %v", err)
	}

	page := result.Results["all"]
	if page.Page != 2 || page.PageSize != 2 {
		t.Errorf("Expected page 2 size 2 applied, got page %d size %d", page.Page, page.PageSize)
	}
	if len(page.Items) != 2 {
		t.Fatalf("Expected the second window [3 4], got %v", page.Items)
	}
	if firstID, _ := page.Items[0].GetID(); firstID != "3" {
		t.Errorf("Expected the second window to start at '3', got %v", page.Items)
	}
}
