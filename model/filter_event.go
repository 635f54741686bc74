package model

import "time"

// FilterEvent represents one executed filter query, recorded for analytics.
type FilterEvent struct {
	IndexName   string    `json:"index_name"`
	RawQuery    string    `json:"raw_query"`
	Suffixes    []string  `json:"suffixes"` // lookup suffixes the query used, in clause order
	ClauseCount int       `json:"clause_count"`
	ResultCount int       `json:"result_count"`
	ZeroResults bool      `json:"zero_results"`
	TookMs      float64   `json:"took_ms"`
	QueryID     string    `json:"query_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// PopularFilter represents aggregated data for frequently used filter queries
type PopularFilter struct {
	RawQuery    string `json:"raw_query"`
	FilterCount int    `json:"filter_count"`
}

// IndexUsage represents filter traffic for a specific index
type IndexUsage struct {
	IndexName     string `json:"index_name"`
	DocumentCount int    `json:"document_count"`
	FilterCount   int    `json:"filter_count"`
}

// LatencyDistribution represents response time distribution buckets
type LatencyDistribution struct {
	Bucket0To1ms    int     `json:"bucket_0_1ms"`
	Bucket1To5ms    int     `json:"bucket_1_5ms"`
	Bucket5To25ms   int     `json:"bucket_5_25ms"`
	Bucket25msPlus  int     `json:"bucket_25ms_plus"`
	Percentage0To1  float64 `json:"percentage_0_1"`
	Percentage1To5  float64 `json:"percentage_1_5"`
	Percentage5To25 float64 `json:"percentage_5_25"`
	Percentage25Up  float64 `json:"percentage_25_plus"`
}

// SystemHealth represents runtime health metrics
type SystemHealth struct {
	MemoryUsageMB float64 `json:"memory_usage_mb"`
	Goroutines    int     `json:"goroutines"`
	ActiveIndexes int     `json:"active_indexes"`
}

// FilterAnalytics represents the complete analytics dashboard data
type FilterAnalytics struct {
	// Summary metrics over the last 24 hours
	TotalFilters    int     `json:"total_filters"`
	ZeroResultRate  float64 `json:"zero_result_rate"`
	AvgResponseTime float64 `json:"avg_response_time_ms"`
	TotalDocuments  int     `json:"total_documents"`

	// Detailed analytics over the last 7 days
	SuffixUsage    map[string]int      `json:"suffix_usage"`
	PopularFilters []PopularFilter     `json:"popular_filters"`
	IndexUsage     []IndexUsage        `json:"index_usage"`
	Latency        LatencyDistribution `json:"latency_distribution"`
	SystemHealth   SystemHealth        `json:"system_health"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

// IndexStats represents statistics for a specific index
type IndexStats struct {
	Name             string         `json:"name"`
	DocumentCount    int            `json:"document_count"`
	SearchableFields []string       `json:"searchable_fields"`
	FilterableFields []string       `json:"filterable_fields"`
	DistinctValues   map[string]int `json:"distinct_values"` // indexed field -> distinct value count
}
