package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSettings_MissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "does_not_exist.toml"))
	if err != nil {
		t.Fatalf("Expected no error for a missing settings file, got: %v", err)
	}

	if settings.ServerPort != 8080 {
		t.Errorf("Expected default server port 8080, got %d", settings.ServerPort)
	}
	if settings.SuffixSeparator != "__" {
		t.Errorf("Expected default suffix separator '__', got '%s'", settings.SuffixSeparator)
	}
	if settings.ValueDelimiter != "|" {
		t.Errorf("Expected default value delimiter '|', got '%s'", settings.ValueDelimiter)
	}
	if settings.UnknownLookupPolicy != LookupPolicyStrict {
		t.Errorf("Expected default policy 'strict', got '%s'", settings.UnknownLookupPolicy)
	}
	if settings.DefaultPageSize != 10 || settings.MaxPageSize != 100 {
		t.Errorf("Expected default page sizes 10/100, got %d/%d", settings.DefaultPageSize, settings.MaxPageSize)
	}
}

func TestLoadSettings_ParsesTOMLAndFillsGaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
server_port = 9090
suffix_separator = "--"
unknown_lookup_policy = "permissive"
default_page_size = 25
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if settings.ServerPort != 9090 {
		t.Errorf("Expected server port 9090, got %d", settings.ServerPort)
	}
	if settings.SuffixSeparator != "--" {
		t.Errorf("Expected suffix separator '--', got '%s'", settings.SuffixSeparator)
	}
	if settings.UnknownLookupPolicy != LookupPolicyPermissive {
		t.Errorf("Expected policy 'permissive', got '%s'", settings.UnknownLookupPolicy)
	}
	if settings.DefaultPageSize != 25 {
		t.Errorf("Expected default page size 25, got %d", settings.DefaultPageSize)
	}

	// Unspecified fields still get defaults
	if settings.ValueDelimiter != "|" {
		t.Errorf("Expected default value delimiter '|', got '%s'", settings.ValueDelimiter)
	}
	if settings.MaxPageSize != 100 {
		t.Errorf("Expected default max page size 100, got %d", settings.MaxPageSize)
	}
}

func TestLoadSettings_MalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("server_port = [not toml"), 0o600); err != nil {
		t.Fatalf("Failed to write settings file: %v", err)
	}

	if _, err := LoadSettings(path); err == nil {
		t.Error("Expected an error for malformed TOML, got none")
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name              string
		mutate            func(*Settings)
		expectedConflicts int
	}{
		{
			name:              "defaults are valid",
			mutate:            func(s *Settings) {},
			expectedConflicts: 0,
		},
		{
			name: "bad policy",
			mutate: func(s *Settings) {
				s.UnknownLookupPolicy = "lenient"
			},
			expectedConflicts: 1,
		},
		{
			name: "separator equals delimiter",
			mutate: func(s *Settings) {
				s.SuffixSeparator = "|"
			},
			expectedConflicts: 1,
		},
		{
			name: "max page size below default",
			mutate: func(s *Settings) {
				s.DefaultPageSize = 50
				s.MaxPageSize = 20
			},
			expectedConflicts: 1,
		},
		{
			name: "negative worker counts",
			mutate: func(s *Settings) {
				s.MaxJobWorkers = -1
				s.MultiFilterWorkers = -1
			},
			expectedConflicts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := &Settings{}
			settings.ApplyDefaults()
			tt.mutate(settings)

			conflicts := settings.Validate()

			if len(conflicts) != tt.expectedConflicts {
				t.Errorf("Expected %d conflicts, got %d. Conflicts: %v", tt.expectedConflicts, len(conflicts), conflicts)
			}
		})
	}
}

func TestIndexSettingsValidateFieldNames(t *testing.T) {
	tests := []struct {
		name           string
		settings       IndexSettings
		expectedErrors int
	}{
		{
			name: "valid configuration",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{"title", "description"},
				FilterableFields: []string{"state", "tags", "id"},
			},
			expectedErrors: 0,
		},
		{
			name: "empty field lists allow everything",
			settings: IndexSettings{
				Name: "test_index",
			},
			expectedErrors: 0,
		},
		{
			name: "duplicate filterable field",
			settings: IndexSettings{
				Name:             "test_index",
				FilterableFields: []string{"state", "state"},
			},
			expectedErrors: 1,
		},
		{
			name: "whitespace-only field name",
			settings: IndexSettings{
				Name:             "test_index",
				SearchableFields: []string{"title", "  "},
			},
			expectedErrors: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.ApplyDefaults()

			if errs := tt.settings.ValidateFieldNames(); len(errs) != tt.expectedErrors {
				t.Errorf("Expected %d field name errors, got %d: %v", tt.expectedErrors, len(errs), errs)
			}
		})
	}
}
