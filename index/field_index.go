package index

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/gcbaptista/go-filter-engine/config"
)

// FieldIndex holds the per-field structures filter clauses are evaluated
// against: canonical value postings for equality/range/pattern matching,
// presence sets for exists clauses, and token postings over the searchable
// fields for the optional free-text query.
//
// All doc ID slices are kept sorted ascending, which is also insertion
// order, so set intersections stay cheap and results stay deterministic.
type FieldIndex struct {
	Mu       sync.RWMutex
	Values   map[string]map[string][]uint32 // field -> canonical value -> sorted doc IDs
	Presence map[string][]uint32            // field -> sorted doc IDs where the field is populated
	Tokens   map[string]PostingList         // token -> postings over the searchable fields
	Settings *config.IndexSettings          // settings of the owning index
}

// gobFieldIndexData is the gob image of a FieldIndex, minus the mutex.
type gobFieldIndexData struct {
	Values   map[string]map[string][]uint32
	Presence map[string][]uint32
	Tokens   map[string]PostingList
	Settings *config.IndexSettings
}

// GobEncode encodes the index under the read lock.
func (fi *FieldIndex) GobEncode() ([]byte, error) {
	fi.Mu.RLock()
	defer fi.Mu.RUnlock()

	snapshot := gobFieldIndexData{
		Values:   fi.Values,
		Presence: fi.Presence,
		Tokens:   fi.Tokens,
		Settings: fi.Settings,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, fmt.Errorf("failed to gob encode field index data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode swaps the decoded snapshot in under the write lock. Maps gob
// left nil (an empty index encodes that way) are re-initialized.
func (fi *FieldIndex) GobDecode(data []byte) error {
	var snapshot gobFieldIndexData
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snapshot); err != nil {
		return fmt.Errorf("failed to gob decode field index data: %w", err)
	}

	if snapshot.Values == nil {
		snapshot.Values = make(map[string]map[string][]uint32)
	}
	if snapshot.Presence == nil {
		snapshot.Presence = make(map[string][]uint32)
	}
	if snapshot.Tokens == nil {
		snapshot.Tokens = make(map[string]PostingList)
	}

	fi.Mu.Lock()
	defer fi.Mu.Unlock()

	fi.Values = snapshot.Values
	fi.Presence = snapshot.Presence
	fi.Tokens = snapshot.Tokens
	fi.Settings = snapshot.Settings
	return nil
}
