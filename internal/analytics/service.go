package analytics

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/gcbaptista/go-filter-engine/internal/persistence"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/services"
)

const (
	analyticsFileName = "analytics.json"
	maxEventsToKeep   = 10000 // Keep last 10k events for performance
	topFilterCount    = 5

	summaryWindow     = 24 * time.Hour
	aggregationWindow = 7 * 24 * time.Hour
)

// Service records executed filter queries and aggregates them into
// dashboard data. Events live in a bounded in-memory buffer and are
// persisted to <dataDir>/analytics.json so they survive restarts.
type Service struct {
	mutex        sync.RWMutex
	events       []model.FilterEvent
	indexManager services.IndexManager
	dataFilePath string
}

// NewService creates a new analytics service backed by the given index
// manager (for document counts) and data directory.
func NewService(indexManager services.IndexManager, dataDir string) *Service {
	service := &Service{
		events:       make([]model.FilterEvent, 0),
		indexManager: indexManager,
		dataFilePath: filepath.Join(dataDir, analyticsFileName),
	}

	if err := service.loadData(); err != nil {
		log.Printf("Warning: Failed to load analytics data: %v", err)
	}

	return service
}

// TrackFilterEvent records one executed filter query. The event's timestamp
// is filled in when the caller left it zero. Persistence happens on a
// snapshot in the background so the filter path never waits on disk.
func (s *Service) TrackFilterEvent(event model.FilterEvent) error {
	s.mutex.Lock()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	s.events = append(s.events, event)

	// The buffer holds at most maxEventsToKeep events; the oldest fall off.
	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}

	snapshot := make([]model.FilterEvent, len(s.events))
	copy(snapshot, s.events)
	s.mutex.Unlock()

	go func() {
		if err := persistence.SaveJSON(s.dataFilePath, snapshot); err != nil {
			log.Printf("Warning: Failed to save analytics data: %v", err)
		}
	}()

	return nil
}

// GetDashboardData aggregates the recorded events into dashboard data.
// Summary numbers cover the last 24 hours; suffix usage, popular filters,
// and per-index usage cover the last 7 days.
func (s *Service) GetDashboardData() (model.FilterAnalytics, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	now := time.Now()
	recent := eventsSince(s.events, now.Add(-summaryWindow))
	weekly := eventsSince(s.events, now.Add(-aggregationWindow))

	return model.FilterAnalytics{
		TotalFilters:    len(recent),
		ZeroResultRate:  zeroResultRate(recent),
		AvgResponseTime: avgResponseTime(recent),
		TotalDocuments:  s.totalDocuments(),
		SuffixUsage:     suffixUsage(weekly),
		PopularFilters:  popularFilters(weekly),
		IndexUsage:      s.indexUsage(weekly),
		Latency:         latencyDistribution(recent),
		SystemHealth:    s.systemHealth(),
		GeneratedAt:     now,
	}, nil
}

func eventsSince(events []model.FilterEvent, after time.Time) []model.FilterEvent {
	var kept []model.FilterEvent
	for _, event := range events {
		if event.Timestamp.After(after) {
			kept = append(kept, event)
		}
	}
	return kept
}

// zeroResultRate is the fraction of events that matched nothing.
func zeroResultRate(events []model.FilterEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	zero := 0
	for _, event := range events {
		if event.ZeroResults {
			zero++
		}
	}
	return float64(zero) / float64(len(events))
}

// avgResponseTime is the mean query duration in milliseconds.
func avgResponseTime(events []model.FilterEvent) float64 {
	if len(events) == 0 {
		return 0
	}
	var total float64
	for _, event := range events {
		total += event.TookMs
	}
	return total / float64(len(events))
}

// suffixUsage counts how often each lookup suffix appeared in queries.
func suffixUsage(events []model.FilterEvent) map[string]int {
	usage := make(map[string]int)
	for _, event := range events {
		for _, suffix := range event.Suffixes {
			usage[suffix]++
		}
	}
	return usage
}

// popularFilters ranks raw queries by execution count, capped at
// topFilterCount. Ties break on the query string so the order is stable.
func popularFilters(events []model.FilterEvent) []model.PopularFilter {
	counts := make(map[string]int)
	for _, event := range events {
		if event.RawQuery != "" {
			counts[event.RawQuery]++
		}
	}

	ranked := make([]model.PopularFilter, 0, len(counts))
	for query, count := range counts {
		ranked = append(ranked, model.PopularFilter{RawQuery: query, FilterCount: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].FilterCount != ranked[j].FilterCount {
			return ranked[i].FilterCount > ranked[j].FilterCount
		}
		return ranked[i].RawQuery < ranked[j].RawQuery
	})

	if len(ranked) > topFilterCount {
		ranked = ranked[:topFilterCount]
	}
	return ranked
}

// latencyDistribution buckets query durations and derives the share of
// traffic in each bucket.
func latencyDistribution(events []model.FilterEvent) model.LatencyDistribution {
	dist := model.LatencyDistribution{}
	total := len(events)
	if total == 0 {
		return dist
	}

	for _, event := range events {
		switch {
		case event.TookMs < 1:
			dist.Bucket0To1ms++
		case event.TookMs < 5:
			dist.Bucket1To5ms++
		case event.TookMs < 25:
			dist.Bucket5To25ms++
		default:
			dist.Bucket25msPlus++
		}
	}

	dist.Percentage0To1 = float64(dist.Bucket0To1ms) / float64(total) * 100
	dist.Percentage1To5 = float64(dist.Bucket1To5ms) / float64(total) * 100
	dist.Percentage5To25 = float64(dist.Bucket5To25ms) / float64(total) * 100
	dist.Percentage25Up = float64(dist.Bucket25msPlus) / float64(total) * 100

	return dist
}

// totalDocuments sums document counts across all indexes. Indexes that
// fail to resolve are skipped rather than failing the dashboard.
func (s *Service) totalDocuments() int {
	total := 0
	for _, indexName := range s.indexManager.ListIndexes() {
		accessor, err := s.indexManager.GetIndex(indexName)
		if err != nil {
			continue
		}
		total += accessor.Stats().DocumentCount
	}
	return total
}

// indexUsage pairs each index's size with its filter traffic. Indexes with
// no traffic still appear so the dashboard lists everything.
func (s *Service) indexUsage(events []model.FilterEvent) []model.IndexUsage {
	traffic := make(map[string]int)
	for _, event := range events {
		traffic[event.IndexName]++
	}

	var usage []model.IndexUsage
	for _, indexName := range s.indexManager.ListIndexes() {
		documentCount := 0
		if accessor, err := s.indexManager.GetIndex(indexName); err == nil {
			documentCount = accessor.Stats().DocumentCount
		}
		usage = append(usage, model.IndexUsage{
			IndexName:     indexName,
			DocumentCount: documentCount,
			FilterCount:   traffic[indexName],
		})
	}
	return usage
}

func (s *Service) systemHealth() model.SystemHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return model.SystemHealth{
		MemoryUsageMB: float64(m.Alloc) / (1024 * 1024),
		Goroutines:    runtime.NumGoroutine(),
		ActiveIndexes: len(s.indexManager.ListIndexes()),
	}
}

// loadData loads persisted analytics events. A missing file is a fresh start.
func (s *Service) loadData() error {
	err := persistence.LoadJSON(s.dataFilePath, &s.events)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if len(s.events) > maxEventsToKeep {
		s.events = s.events[len(s.events)-maxEventsToKeep:]
	}
	return nil
}
