package analytics

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/persistence"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

// MockIndexManager is a simple mock for testing
type MockIndexManager struct {
	docCounts map[string]int // index name -> document count
}

func (m *MockIndexManager) CreateIndex(_ config.IndexSettings) error { return nil }
func (m *MockIndexManager) GetIndex(name string) (services.IndexAccessor, error) {
	count, ok := m.docCounts[name]
	if !ok {
		return nil, fmt.Errorf("index %s not found", name)
	}
	return &mockIndexAccessor{stats: model.IndexStats{Name: name, DocumentCount: count}}, nil
}
func (m *MockIndexManager) GetIndexSettings(_ string) (config.IndexSettings, error) {
	return config.IndexSettings{}, nil
}
func (m *MockIndexManager) UpdateIndexSettings(_ string, _ config.IndexSettings) error {
	return nil
}
func (m *MockIndexManager) RenameIndex(_, _ string) error { return nil }
func (m *MockIndexManager) DeleteIndex(_ string) error    { return nil }
func (m *MockIndexManager) ListIndexes() []string {
	names := make([]string, 0, len(m.docCounts))
	for name := range m.docCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
func (m *MockIndexManager) PersistIndexData(_ string) error { return nil }

// mockIndexAccessor only answers Stats; the analytics service never calls
// the other accessor methods.
type mockIndexAccessor struct {
	services.IndexAccessor
	stats model.IndexStats
}

func (m *mockIndexAccessor) Stats() model.IndexStats { return m.stats }

func waitForPersistedEvents(t *testing.T, path string, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var persisted []model.FilterEvent
		if err := persistence.LoadJSON(path, &persisted); err == nil && len(persisted) == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Timed out waiting for %d persisted events at %s", want, path)
}

func TestAnalyticsService_TrackFilterEvent(t *testing.T) {
	manager := &MockIndexManager{docCounts: map[string]int{"movies": 1}}
	service := NewService(manager, t.TempDir())

	event := model.FilterEvent{
		IndexName:   "movies",
		RawQuery:    "state=published",
		Suffixes:    []string{"term"},
		ClauseCount: 1,
		ResultCount: 10,
		TookMs:      2.5,
	}

	if err := service.TrackFilterEvent(event); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(service.events) != 1 {
		t.Fatalf("Expected 1 event, got %d", len(service.events))
	}

	stored := service.events[0]
	if stored.IndexName != event.IndexName {
		t.Errorf("Expected IndexName %s, got %s", event.IndexName, stored.IndexName)
	}
	if stored.RawQuery != event.RawQuery {
		t.Errorf("Expected RawQuery %s, got %s", event.RawQuery, stored.RawQuery)
	}
	if stored.Timestamp.IsZero() {
		t.Error("Expected a timestamp to be filled in for the stored event")
	}

	// A caller-supplied timestamp is preserved.
	past := time.Now().Add(-3 * time.Hour)
	if err := service.TrackFilterEvent(model.FilterEvent{IndexName: "movies", RawQuery: "x=1", Timestamp: past}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !service.events[1].Timestamp.Equal(past) {
		t.Errorf("Expected caller timestamp to be preserved, got %v", service.events[1].Timestamp)
	}
}

func TestAnalyticsService_EventBufferBounded(t *testing.T) {
	manager := &MockIndexManager{docCounts: map[string]int{}}
	service := NewService(manager, t.TempDir())

	for i := 0; i < maxEventsToKeep; i++ {
		service.events = append(service.events, model.FilterEvent{
			QueryID:   fmt.Sprintf("old-%d", i),
			Timestamp: time.Now(),
		})
	}

	if err := service.TrackFilterEvent(model.FilterEvent{QueryID: "newest"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(service.events) != maxEventsToKeep {
		t.Fatalf("Expected buffer to stay at %d events, got %d", maxEventsToKeep, len(service.events))
	}
	if service.events[0].QueryID != "old-1" {
		t.Errorf("Expected oldest event to be dropped, buffer starts with %s", service.events[0].QueryID)
	}
	if service.events[len(service.events)-1].QueryID != "newest" {
		t.Errorf("Expected newest event at the end, got %s", service.events[len(service.events)-1].QueryID)
	}
}

func TestAnalyticsService_GetDashboardData(t *testing.T) {
	manager := &MockIndexManager{docCounts: map[string]int{"movies": 2, "shows": 1}}
	service := NewService(manager, t.TempDir())

	now := time.Now()
	events := []model.FilterEvent{
		{IndexName: "movies", RawQuery: "state=published", Suffixes: []string{"term"}, ResultCount: 10, TookMs: 0.5, Timestamp: now.Add(-1 * time.Hour)},
		{IndexName: "movies", RawQuery: "state=published", Suffixes: []string{"term"}, ResultCount: 10, TookMs: 3, Timestamp: now.Add(-2 * time.Hour)},
		{IndexName: "movies", RawQuery: "year__range=2020|2026", Suffixes: []string{"range"}, ResultCount: 4, TookMs: 12, Timestamp: now.Add(-2 * time.Hour)},
		{IndexName: "shows", RawQuery: "state=published&tags__exists=false", Suffixes: []string{"term", "exists"}, ResultCount: 0, ZeroResults: true, TookMs: 40, Timestamp: now.Add(-3 * time.Hour)},
		// Inside the 7 day window but outside the 24 hour one.
		{IndexName: "movies", RawQuery: "state=published", Suffixes: []string{"term"}, ResultCount: 10, TookMs: 100, Timestamp: now.Add(-3 * 24 * time.Hour)},
		// Outside both windows.
		{IndexName: "shows", RawQuery: "title__prefix=Del", Suffixes: []string{"prefix"}, ResultCount: 2, TookMs: 1, Timestamp: now.Add(-10 * 24 * time.Hour)},
	}
	for _, event := range events {
		if err := service.TrackFilterEvent(event); err != nil {
			t.Fatalf("Failed to track filter event: %v", err)
		}
	}

	dashboard, err := service.GetDashboardData()
	if err != nil {
		t.Fatalf("Expected dashboard data, got error: %v", err)
	}

	if dashboard.TotalFilters != 4 {
		t.Errorf("Expected 4 filters in the last 24h, got %d", dashboard.TotalFilters)
	}
	if dashboard.ZeroResultRate != 0.25 {
		t.Errorf("Expected zero result rate 0.25, got %f", dashboard.ZeroResultRate)
	}
	expectedAvg := (0.5 + 3 + 12 + 40) / 4.0
	if dashboard.AvgResponseTime != expectedAvg {
		t.Errorf("Expected avg response time %f, got %f", expectedAvg, dashboard.AvgResponseTime)
	}
	if dashboard.TotalDocuments != 3 {
		t.Errorf("Expected 3 total documents, got %d", dashboard.TotalDocuments)
	}

	if dashboard.SuffixUsage["term"] != 4 {
		t.Errorf("Expected 4 term usages over the week, got %d", dashboard.SuffixUsage["term"])
	}
	if dashboard.SuffixUsage["range"] != 1 {
		t.Errorf("Expected 1 range usage, got %d", dashboard.SuffixUsage["range"])
	}
	if dashboard.SuffixUsage["exists"] != 1 {
		t.Errorf("Expected 1 exists usage, got %d", dashboard.SuffixUsage["exists"])
	}
	if _, ok := dashboard.SuffixUsage["prefix"]; ok {
		t.Error("Expected the 10 day old prefix query to be outside the aggregation window")
	}

	if len(dashboard.PopularFilters) != 3 {
		t.Fatalf("Expected 3 popular filters, got %d", len(dashboard.PopularFilters))
	}
	if dashboard.PopularFilters[0].RawQuery != "state=published" || dashboard.PopularFilters[0].FilterCount != 3 {
		t.Errorf("Expected state=published with 3 uses on top, got %+v", dashboard.PopularFilters[0])
	}

	if len(dashboard.IndexUsage) != 2 {
		t.Fatalf("Expected usage for 2 indexes, got %d", len(dashboard.IndexUsage))
	}
	movies := dashboard.IndexUsage[0]
	if movies.IndexName != "movies" || movies.DocumentCount != 2 || movies.FilterCount != 4 {
		t.Errorf("Unexpected movies usage: %+v", movies)
	}
	shows := dashboard.IndexUsage[1]
	if shows.IndexName != "shows" || shows.DocumentCount != 1 || shows.FilterCount != 1 {
		t.Errorf("Unexpected shows usage: %+v", shows)
	}

	latency := dashboard.Latency
	if latency.Bucket0To1ms != 1 || latency.Bucket1To5ms != 1 || latency.Bucket5To25ms != 1 || latency.Bucket25msPlus != 1 {
		t.Errorf("Unexpected latency buckets: %+v", latency)
	}
	if latency.Percentage0To1 != 25 || latency.Percentage25Up != 25 {
		t.Errorf("Unexpected latency percentages: %+v", latency)
	}

	if dashboard.SystemHealth.ActiveIndexes != 2 {
		t.Errorf("Expected 2 active indexes, got %d", dashboard.SystemHealth.ActiveIndexes)
	}
	if dashboard.SystemHealth.Goroutines <= 0 {
		t.Errorf("Expected a positive goroutine count, got %d", dashboard.SystemHealth.Goroutines)
	}
	if dashboard.GeneratedAt.IsZero() {
		t.Error("Expected GeneratedAt to be set")
	}
}

func TestAnalyticsService_PopularFiltersCapped(t *testing.T) {
	manager := &MockIndexManager{docCounts: map[string]int{"movies": 0}}
	service := NewService(manager, t.TempDir())

	for i := 0; i < 7; i++ {
		if err := service.TrackFilterEvent(model.FilterEvent{
			IndexName: "movies",
			RawQuery:  fmt.Sprintf("year=%d", 2000+i),
		}); err != nil {
			t.Fatalf("Failed to track filter event: %v", err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := service.TrackFilterEvent(model.FilterEvent{IndexName: "movies", RawQuery: "state=published"}); err != nil {
			t.Fatalf("Failed to track filter event: %v", err)
		}
	}

	dashboard, err := service.GetDashboardData()
	if err != nil {
		t.Fatalf("Expected dashboard data, got error: %v", err)
	}

	if len(dashboard.PopularFilters) != 5 {
		t.Fatalf("Expected popular filters capped at 5, got %d", len(dashboard.PopularFilters))
	}
	if dashboard.PopularFilters[0].RawQuery != "state=published" || dashboard.PopularFilters[0].FilterCount != 3 {
		t.Errorf("Expected state=published with 3 uses on top, got %+v", dashboard.PopularFilters[0])
	}
}

func TestAnalyticsService_PersistenceRoundTrip(t *testing.T) {
	dir := t.TempDir()
	manager := &MockIndexManager{docCounts: map[string]int{"movies": 1}}

	service := NewService(manager, dir)
	path := filepath.Join(dir, analyticsFileName)

	if err := service.TrackFilterEvent(model.FilterEvent{IndexName: "movies", RawQuery: "state=published", QueryID: "q1"}); err != nil {
		t.Fatalf("Failed to track filter event: %v", err)
	}
	waitForPersistedEvents(t, path, 1)

	if err := service.TrackFilterEvent(model.FilterEvent{IndexName: "movies", RawQuery: "state=draft", QueryID: "q2"}); err != nil {
		t.Fatalf("Failed to track filter event: %v", err)
	}
	waitForPersistedEvents(t, path, 2)

	reloaded := NewService(manager, dir)
	if len(reloaded.events) != 2 {
		t.Fatalf("Expected 2 events after reload, got %d", len(reloaded.events))
	}
	if reloaded.events[0].QueryID != "q1" || reloaded.events[1].QueryID != "q2" {
		t.Errorf("Expected events to reload in order, got %s then %s", reloaded.events[0].QueryID, reloaded.events[1].QueryID)
	}
}

func TestAnalyticsService_LoadMissingAndCorruptFiles(t *testing.T) {
	manager := &MockIndexManager{docCounts: map[string]int{}}

	service := NewService(manager, t.TempDir())
	if len(service.events) != 0 {
		t.Errorf("Expected no events for a fresh data directory, got %d", len(service.events))
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, analyticsFileName), []byte("not json"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}
	service = NewService(manager, dir)
	if len(service.events) != 0 {
		t.Errorf("Expected a corrupt analytics file to be ignored, got %d events", len(service.events))
	}
	if err := service.TrackFilterEvent(model.FilterEvent{IndexName: "movies", RawQuery: "state=published"}); err != nil {
		t.Fatalf("Expected tracking to recover after a corrupt file, got %v", err)
	}
}
