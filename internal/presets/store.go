package presets

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	internalErrors "github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/internal/lookup"
	"github.com/gcbaptista/go-filter-engine/internal/persistence"
	"github.com/gcbaptista/go-filter-engine/model"
)

// Store holds the saved filter presets of a single index and persists them
// to a gob file on every mutation. Preset queries are validated against the
// engine's lookup syntax when stored, so a saved preset is always executable.
type Store struct {
	mu      sync.RWMutex
	presets map[string]model.Preset
	path    string
	parser  *lookup.Parser
}

// NewStore creates a preset store backed by the given file, loading any
// previously persisted presets. A missing file is a fresh start; a corrupt
// file is logged and treated as empty rather than blocking index startup.
func NewStore(path string, parser *lookup.Parser) *Store {
	if parser == nil {
		parser = lookup.NewParser(lookup.DefaultSyntax())
	}
	store := &Store{
		presets: make(map[string]model.Preset),
		path:    path,
		parser:  parser,
	}

	var loaded map[string]model.Preset
	if err := persistence.LoadGob(path, &loaded); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("Warning: Failed to load presets from %s: %v. Starting with an empty preset store.", path, err)
		}
	} else if loaded != nil {
		store.presets = loaded
	}
	return store
}

// Put creates or updates a preset. The preset's query is compiled with the
// store's parser before anything is written, so invalid queries are rejected
// here instead of surfacing when the preset is executed. On update the
// original creation timestamp is preserved.
func (s *Store) Put(preset model.Preset) (model.Preset, error) {
	if preset.Name == "" {
		return model.Preset{}, internalErrors.NewValidationError("name", "preset name cannot be empty")
	}
	if preset.RawQuery == "" {
		return model.Preset{}, internalErrors.NewValidationError("raw_query", "preset query cannot be empty")
	}
	if _, _, err := lookup.CompileQuery(s.parser, preset.RawQuery); err != nil {
		return model.Preset{}, fmt.Errorf("invalid preset query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	existing, exists := s.presets[preset.Name]
	if exists {
		preset.CreatedAt = existing.CreatedAt
	} else {
		preset.CreatedAt = now
	}
	preset.UpdatedAt = now

	s.presets[preset.Name] = preset

	if err := s.saveUnsafe(); err != nil {
		// Rollback the in-memory change
		if exists {
			s.presets[preset.Name] = existing
		} else {
			delete(s.presets, preset.Name)
		}
		return model.Preset{}, fmt.Errorf("failed to persist preset: %w", err)
	}
	return preset, nil
}

// Get retrieves a preset by name.
func (s *Store) Get(name string) (model.Preset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	preset, exists := s.presets[name]
	if !exists {
		return model.Preset{}, internalErrors.NewPresetNotFoundError(name)
	}
	return preset, nil
}

// List returns all presets sorted by name.
func (s *Store) List() []model.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	presets := make([]model.Preset, 0, len(s.presets))
	for _, preset := range s.presets {
		presets = append(presets, preset)
	}
	sort.Slice(presets, func(i, j int) bool { return presets[i].Name < presets[j].Name })
	return presets
}

// Delete removes a preset by name.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	preset, exists := s.presets[name]
	if !exists {
		return internalErrors.NewPresetNotFoundError(name)
	}

	delete(s.presets, name)

	if err := s.saveUnsafe(); err != nil {
		// Rollback the in-memory change
		s.presets[name] = preset
		return fmt.Errorf("failed to persist preset deletion: %w", err)
	}
	return nil
}

// Count returns the number of stored presets.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.presets)
}

// SetPath points the store at a new backing file. Used when an index is
// renamed and its data directory moves; call Save afterwards to write the
// presets at the new location.
func (s *Store) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
}

// Save rewrites the backing file at the current path.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saveUnsafe()
}

// saveUnsafe persists the preset map. Callers must hold at least the read
// lock.
func (s *Store) saveUnsafe() error {
	return persistence.SaveGob(s.path, s.presets)
}
