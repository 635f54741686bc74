package indexing

import (
	"fmt"
	"testing"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/index"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/store"
)

// benchmarkDocs builds n synthetic catalog documents. Field cardinalities
// are kept low so the value and presence maps grow the way a real catalog
// index does, with many documents per posting list.
func benchmarkDocs(n int) []model.Document {
	docs := make([]model.Document, n)
	for i := 0; i < n; i++ {
		docs[i] = model.Document{
			"id":     fmt.Sprintf("doc_%d", i),
			"title":  fmt.Sprintf("Catalog Entry %d", i),
			"state":  fmt.Sprintf("state_%d", i%3),
			"genre":  fmt.Sprintf("genre_%d", i%5),
			"labels": []string{"catalog", fmt.Sprintf("label_%d", i%10)},
			"year":   float64(2000 + i%25),
		}
	}
	return docs
}

func emptyService(b *testing.B) *Service {
	b.Helper()

	settings := &config.IndexSettings{
		Name:             "bench",
		SearchableFields: []string{"title"},
		FilterableFields: []string{"state", "genre", "labels", "year"},
	}
	service, err := NewService(
		&index.FieldIndex{
			Values:   make(map[string]map[string][]uint32),
			Presence: make(map[string][]uint32),
			Tokens:   make(map[string]index.PostingList),
			Settings: settings,
		},
		&store.DocumentStore{
			Docs:                   make(map[uint32]model.Document),
			ExternalIDtoInternalID: make(map[string]uint32),
		},
	)
	if err != nil {
		b.Fatalf("Failed to create service: %v", err)
	}
	return service
}

func populatedService(b *testing.B, n int) *Service {
	b.Helper()

	service := emptyService(b)
	if err := service.AddDocuments(benchmarkDocs(n)); err != nil {
		b.Fatalf("Failed to pre-populate index: %v", err)
	}
	return service
}

func BenchmarkAddDocuments(b *testing.B) {
	for _, size := range []int{100, 1000, 5000} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			docs := benchmarkDocs(size)
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				b.StopTimer()
				service := emptyService(b)
				b.StartTimer()

				if err := service.AddDocuments(docs); err != nil {
					b.Fatalf("Failed to add documents: %v", err)
				}
			}
		})
	}
}

// BenchmarkUpdateDocument measures the unindex-then-reindex path taken when
// a document ID that is already present is added again.
func BenchmarkUpdateDocument(b *testing.B) {
	service := populatedService(b, 1000)
	update := []model.Document{{
		"id":    "doc_500",
		"title": "Catalog Entry 500 revised",
		"state": "state_1",
		"genre": "genre_2",
		"year":  float64(2024),
	}}
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := service.AddDocuments(update); err != nil {
			b.Fatalf("Failed to update document: %v", err)
		}
	}
}

func BenchmarkDeleteDocument(b *testing.B) {
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		b.StopTimer()
		service := populatedService(b, 1000)
		b.StartTimer()

		if err := service.DeleteDocument("doc_500"); err != nil {
			b.Fatalf("Failed to delete document: %v", err)
		}
	}
}

func BenchmarkRebuild(b *testing.B) {
	for _, size := range []int{500, 2000} {
		b.Run(fmt.Sprintf("docs_%d", size), func(b *testing.B) {
			service := populatedService(b, size)
			b.ReportAllocs()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if err := service.Rebuild(nil); err != nil {
					b.Fatalf("Failed to rebuild: %v", err)
				}
			}
		})
	}
}
