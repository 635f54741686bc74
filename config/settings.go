// Package config provides configuration structures for the filter engine.
// It defines the global service settings loaded from TOML and the per-index
// settings that travel with each index.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// LookupPolicy controls how filter keys with an unrecognized lookup suffix
// are handled during parsing.
type LookupPolicy string

const (
	// LookupPolicyStrict rejects unknown suffixes with an error.
	LookupPolicyStrict LookupPolicy = "strict"
	// LookupPolicyPermissive treats the whole key as a field name and falls
	// back to an exact term match.
	LookupPolicyPermissive LookupPolicy = "permissive"
)

// Settings contains the global service configuration, loaded from a TOML
// file at startup. Zero values are filled in by ApplyDefaults.
type Settings struct {
	ServerPort          int          `toml:"server_port"`           // HTTP listen port
	DataDir             string       `toml:"data_dir"`              // Root directory for persisted index data
	SuffixSeparator     string       `toml:"suffix_separator"`      // Separator between field name and lookup suffix in filter keys
	ValueDelimiter      string       `toml:"value_delimiter"`       // Delimiter between values in multi-valued filter payloads
	UnknownLookupPolicy LookupPolicy `toml:"unknown_lookup_policy"` // "strict" or "permissive"
	DefaultPageSize     int          `toml:"default_page_size"`     // Page size applied when the request specifies none
	MaxPageSize         int          `toml:"max_page_size"`         // Upper bound for requested page sizes
	MaxJobWorkers       int          `toml:"max_job_workers"`       // Concurrent background jobs
	MultiFilterWorkers  int          `toml:"multi_filter_workers"`  // Worker pool size for multi-filter requests
}

// LoadSettings reads the TOML settings file at path. A missing file is not
// an error: the defaults are returned so the service can start unconfigured.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			settings := &Settings{}
			settings.ApplyDefaults()
			return settings, nil
		}
		return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
	}

	settings := &Settings{}
	if err := toml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings file %s: %w", path, err)
	}

	settings.ApplyDefaults()
	return settings, nil
}

// ApplyDefaults fills unset fields with their default values.
func (s *Settings) ApplyDefaults() {
	if s.ServerPort == 0 {
		s.ServerPort = 8080
	}
	if s.DataDir == "" {
		s.DataDir = "./filter_engine_data"
	}
	if s.SuffixSeparator == "" {
		s.SuffixSeparator = "__"
	}
	if s.ValueDelimiter == "" {
		s.ValueDelimiter = "|"
	}
	if s.UnknownLookupPolicy == "" {
		s.UnknownLookupPolicy = LookupPolicyStrict
	}
	if s.DefaultPageSize == 0 {
		s.DefaultPageSize = 10
	}
	if s.MaxPageSize == 0 {
		s.MaxPageSize = 100
	}
	if s.MaxJobWorkers == 0 {
		s.MaxJobWorkers = 3
	}
	if s.MultiFilterWorkers == 0 {
		s.MultiFilterWorkers = 10
	}
}

// Validate checks the settings for conflicts and returns a list of problems.
// An empty list means the settings are usable.
func (s *Settings) Validate() []string {
	var conflicts []string

	if s.UnknownLookupPolicy != LookupPolicyStrict && s.UnknownLookupPolicy != LookupPolicyPermissive {
		conflicts = append(conflicts, "unknown_lookup_policy must be 'strict' or 'permissive', got '"+string(s.UnknownLookupPolicy)+"'")
	}
	if s.SuffixSeparator == "" {
		conflicts = append(conflicts, "suffix_separator cannot be empty")
	}
	if s.ValueDelimiter == "" {
		conflicts = append(conflicts, "value_delimiter cannot be empty")
	}
	if s.SuffixSeparator == s.ValueDelimiter {
		conflicts = append(conflicts, "suffix_separator and value_delimiter cannot be the same")
	}
	if s.DefaultPageSize < 1 {
		conflicts = append(conflicts, "default_page_size must be positive")
	}
	if s.MaxPageSize < s.DefaultPageSize {
		conflicts = append(conflicts, "max_page_size cannot be smaller than default_page_size")
	}
	if s.MaxJobWorkers < 1 {
		conflicts = append(conflicts, "max_job_workers must be positive")
	}
	if s.MultiFilterWorkers < 1 {
		conflicts = append(conflicts, "multi_filter_workers must be positive")
	}

	return conflicts
}

// IndexSettings contains all configuration options for one index.
//
// FilterableFields restricts which document fields filter clauses may target;
// an empty list means every field is filterable. SearchableFields lists the
// fields the optional free-text query is matched against, in priority order.
type IndexSettings struct {
	Name             string   `json:"name"`              // Unique name for the index
	SearchableFields []string `json:"searchable_fields"` // Fields matched by the free-text query (e.g., ["title", "description"])
	FilterableFields []string `json:"filterable_fields"` // Fields that filter clauses may target; empty allows all
}

// ValidateFieldNames reports duplicate names within each field list and
// names that are blank once trimmed.
func (settings *IndexSettings) ValidateFieldNames() []string {
	conflicts := duplicateFieldConflicts("searchable_fields", settings.SearchableFields)
	conflicts = append(conflicts, duplicateFieldConflicts("filterable_fields", settings.FilterableFields)...)

	for _, list := range [][]string{settings.SearchableFields, settings.FilterableFields} {
		for _, field := range list {
			if strings.TrimSpace(field) == "" {
				conflicts = append(conflicts, "Field name cannot be empty or whitespace-only")
			}
		}
	}

	return conflicts
}

// duplicateFieldConflicts reports every repeated occurrence of a field name
// in the given list.
func duplicateFieldConflicts(listName string, fields []string) []string {
	var conflicts []string
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		if seen[field] {
			conflicts = append(conflicts, "Duplicate field '"+field+"' found in "+listName)
		}
		seen[field] = true
	}
	return conflicts
}

// ApplyDefaults replaces nil field lists with empty ones. Marshalled
// settings then always carry arrays, never null.
func (settings *IndexSettings) ApplyDefaults() {
	if settings.SearchableFields == nil {
		settings.SearchableFields = []string{}
	}
	if settings.FilterableFields == nil {
		settings.FilterableFields = []string{}
	}
}
