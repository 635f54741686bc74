// Package store implements the per-index document storage shared by the
// indexing and filter services.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/gcbaptista/go-filter-engine/model"
)

// Documents are map[string]interface{} underneath, so gob needs the concrete
// types their values may hold registered up front.
func init() {
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
	gob.Register([]string{})
	gob.Register(float64(0))
	gob.Register(false)
}

// DocumentStore holds the documents of one index. Internal IDs are assigned
// in insertion order, which the search service relies on for deterministic
// result ordering.
type DocumentStore struct {
	Mu                     sync.RWMutex
	Docs                   map[uint32]model.Document // keyed by internal ID
	ExternalIDtoInternalID map[string]uint32         // external document ID to internal ID
	NextID                 uint32
}

// docStoreSnapshot carries the persistable fields through gob, leaving the
// mutex behind.
type docStoreSnapshot struct {
	Docs                   map[uint32]model.Document
	ExternalIDtoInternalID map[string]uint32
	NextID                 uint32
}

// GobEncode encodes the store under the read lock. Documents are normalized
// by the indexing service before they land here, so the maps can be encoded
// as they are.
func (ds *DocumentStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	snapshot := docStoreSnapshot{
		Docs:                   ds.Docs,
		ExternalIDtoInternalID: ds.ExternalIDtoInternalID,
		NextID:                 ds.NextID,
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(snapshot); err != nil {
		return nil, fmt.Errorf("failed to gob encode document store data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode replaces the store's contents with the decoded snapshot,
// re-initializing any map gob left nil (an empty store encodes that way).
func (ds *DocumentStore) GobDecode(data []byte) error {
	var snapshot docStoreSnapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&snapshot); err != nil {
		return fmt.Errorf("failed to gob decode document store data: %w", err)
	}

	if snapshot.Docs == nil {
		snapshot.Docs = make(map[uint32]model.Document)
	}
	if snapshot.ExternalIDtoInternalID == nil {
		snapshot.ExternalIDtoInternalID = make(map[string]uint32)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	ds.Docs = snapshot.Docs
	ds.ExternalIDtoInternalID = snapshot.ExternalIDtoInternalID
	ds.NextID = snapshot.NextID
	return nil
}
