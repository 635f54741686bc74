package indexing

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/gcbaptista/go-filter-engine/index"
	"github.com/gcbaptista/go-filter-engine/internal/tokenizer"
	"github.com/gcbaptista/go-filter-engine/model"
	"github.com/gcbaptista/go-filter-engine/store"
)

// Service implements the indexing logic for a single index.
// It fulfills the services.Indexer interface.
type Service struct {
	fieldIndex    *index.FieldIndex
	documentStore *store.DocumentStore
	// settings are accessible via fieldIndex.Settings
}

// NewService creates a new indexing Service.
// It assumes that fieldIndex and documentStore are properly initialized,
// and that fieldIndex.Settings is not nil.
func NewService(fieldIndex *index.FieldIndex, documentStore *store.DocumentStore) (*Service, error) {
	if fieldIndex == nil {
		return nil, fmt.Errorf("field index cannot be nil")
	}
	if documentStore == nil {
		return nil, fmt.Errorf("document store cannot be nil")
	}
	if fieldIndex.Settings == nil {
		return nil, fmt.Errorf("field index settings cannot be nil")
	}
	if fieldIndex.Values == nil {
		fieldIndex.Values = make(map[string]map[string][]uint32)
	}
	if fieldIndex.Presence == nil {
		fieldIndex.Presence = make(map[string][]uint32)
	}
	if fieldIndex.Tokens == nil {
		fieldIndex.Tokens = make(map[string]index.PostingList)
	}
	if documentStore.Docs == nil {
		documentStore.Docs = make(map[uint32]model.Document)
	}
	if documentStore.ExternalIDtoInternalID == nil {
		documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	}
	return &Service{
		fieldIndex:    fieldIndex,
		documentStore: documentStore,
	}, nil
}

// AddDocuments indexes documents in micro-batches. Filter reads take the
// same locks, so large batches are chopped up and the locks released in
// between rather than held for the whole ingest.
func (s *Service) AddDocuments(docs []model.Document) error {
	const microBatchSize = 10

	for start := 0; start < len(docs); start += microBatchSize {
		end := start + microBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		if err := s.addDocumentMicroBatch(docs[start:end]); err != nil {
			return fmt.Errorf("failed to add document micro-batch starting at index %d: %w", start, err)
		}

		// Readers queued on the locks get in here
		if end < len(docs) {
			time.Sleep(1 * time.Millisecond)
		}
	}
	return nil
}

// addDocumentMicroBatch indexes a handful of documents under one lock
// acquisition, stopping at the first bad document.
func (s *Service) addDocumentMicroBatch(docs []model.Document) error {
	s.documentStore.Mu.Lock()
	s.fieldIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.fieldIndex.Mu.Unlock()

	for _, doc := range docs {
		if err := s.addSingleDocumentUnsafe(doc); err != nil {
			return err
		}
	}
	return nil
}

// addSingleDocumentUnsafe indexes one document, replacing any stored version
// with the same external ID. Caller holds both locks.
func (s *Service) addSingleDocumentUnsafe(doc model.Document) error {
	docID, ok := doc.GetID()
	if !ok {
		return fmt.Errorf("document is missing the required 'id' field")
	}
	if strings.TrimSpace(docID) != docID {
		return fmt.Errorf("document id '%s' cannot have leading or trailing whitespace", docID)
	}

	normalized := model.Document(normalizeDocument(doc))

	// Get or assign the internal ID. Updates first unindex the old version
	// so stale postings never linger.
	internalID, exists := s.documentStore.ExternalIDtoInternalID[docID]
	if exists {
		if oldDoc, found := s.documentStore.Docs[internalID]; found {
			s.unindexDocumentUnsafe(internalID, oldDoc)
		} else {
			log.Printf("Warning: Document with internal ID %d mapped but missing from store; cannot clean up old postings for id '%s'", internalID, docID)
		}
	} else {
		internalID = s.documentStore.NextID
		s.documentStore.ExternalIDtoInternalID[docID] = internalID
		s.documentStore.NextID++
	}

	s.documentStore.Docs[internalID] = normalized
	s.indexDocumentUnsafe(internalID, normalized)
	return nil
}

// indexDocumentUnsafe writes one document's postings: canonical values and
// presence for the filterable fields, token postings for the searchable
// fields. Caller holds both locks.
func (s *Service) indexDocumentUnsafe(internalID uint32, doc model.Document) {
	settings := s.fieldIndex.Settings

	for fieldName, fieldVal := range doc {
		if !s.fieldIsFilterable(fieldName) {
			continue
		}

		values := CanonicalValues(fieldVal)
		if len(values) == 0 {
			continue // absent for filtering purposes
		}

		valueIndex, ok := s.fieldIndex.Values[fieldName]
		if !ok {
			valueIndex = make(map[string][]uint32)
			s.fieldIndex.Values[fieldName] = valueIndex
		}
		for _, value := range values {
			valueIndex[value] = insertSorted(valueIndex[value], internalID)
		}
		s.fieldIndex.Presence[fieldName] = insertSorted(s.fieldIndex.Presence[fieldName], internalID)
	}

	for _, fieldName := range settings.SearchableFields {
		textContent := textForField(doc, fieldName)
		if strings.TrimSpace(textContent) == "" {
			continue
		}

		for token, frequency := range tokenizer.TokenFrequencies(textContent) {
			entry := index.PostingEntry{
				DocID:     internalID,
				FieldName: fieldName,
				Frequency: float64(frequency),
			}
			s.fieldIndex.Tokens[token] = insertPosting(s.fieldIndex.Tokens[token], entry)
		}
	}
}

// unindexDocumentUnsafe removes one document's postings. Caller holds both locks.
func (s *Service) unindexDocumentUnsafe(internalID uint32, doc model.Document) {
	for fieldName, fieldVal := range doc {
		if !s.fieldIsFilterable(fieldName) {
			continue
		}

		values := CanonicalValues(fieldVal)
		if len(values) == 0 {
			continue
		}

		valueIndex := s.fieldIndex.Values[fieldName]
		for _, value := range values {
			remaining := removeSorted(valueIndex[value], internalID)
			if len(remaining) == 0 {
				delete(valueIndex, value)
			} else {
				valueIndex[value] = remaining
			}
		}
		if len(valueIndex) == 0 {
			delete(s.fieldIndex.Values, fieldName)
		}

		remaining := removeSorted(s.fieldIndex.Presence[fieldName], internalID)
		if len(remaining) == 0 {
			delete(s.fieldIndex.Presence, fieldName)
		} else {
			s.fieldIndex.Presence[fieldName] = remaining
		}
	}

	for _, fieldName := range s.fieldIndex.Settings.SearchableFields {
		textContent := textForField(doc, fieldName)
		if strings.TrimSpace(textContent) == "" {
			continue
		}

		for token := range tokenizer.TokenFrequencies(textContent) {
			postingList, ok := s.fieldIndex.Tokens[token]
			if !ok {
				continue
			}
			newList := make(index.PostingList, 0, len(postingList))
			for _, entry := range postingList {
				if entry.DocID != internalID || entry.FieldName != fieldName {
					newList = append(newList, entry)
				}
			}
			if len(newList) == 0 {
				delete(s.fieldIndex.Tokens, token)
			} else {
				s.fieldIndex.Tokens[token] = newList
			}
		}
	}
}

// fieldIsFilterable reports whether filter postings should be built for the
// field. An empty FilterableFields list means every field is filterable.
func (s *Service) fieldIsFilterable(fieldName string) bool {
	filterable := s.fieldIndex.Settings.FilterableFields
	if len(filterable) == 0 {
		return true
	}
	for _, f := range filterable {
		if f == fieldName {
			return true
		}
	}
	return false
}

// textForField extracts the text content the tokenizer sees for a
// searchable field. Slices join with spaces.
func textForField(doc model.Document, fieldName string) string {
	fieldVal, exists := doc[fieldName]
	if !exists {
		return ""
	}
	switch v := fieldVal.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, " ")
	case []interface{}:
		var parts []string
		for _, item := range v {
			if strItem, ok := item.(string); ok {
				parts = append(parts, strItem)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// insertSorted inserts id into a sorted slice, keeping it sorted and
// duplicate-free.
func insertSorted(ids []uint32, id uint32) []uint32 {
	idx := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if idx < len(ids) && ids[idx] == id {
		return ids
	}
	ids = append(ids, 0)
	copy(ids[idx+1:], ids[idx:])
	ids[idx] = id
	return ids
}

// removeSorted removes id from a sorted slice if present.
func removeSorted(ids []uint32, id uint32) []uint32 {
	idx := sort.Search(len(ids), func(i int) bool { return ids[i] >= id })
	if idx < len(ids) && ids[idx] == id {
		return append(ids[:idx], ids[idx+1:]...)
	}
	return ids
}

// insertPosting inserts an entry into a posting list sorted by DocID
// ascending, then FieldName. An existing entry for the same document and
// field is replaced.
func insertPosting(list index.PostingList, entry index.PostingEntry) index.PostingList {
	idx := sort.Search(len(list), func(i int) bool {
		if list[i].DocID != entry.DocID {
			return list[i].DocID > entry.DocID
		}
		return list[i].FieldName >= entry.FieldName
	})
	if idx < len(list) && list[idx].DocID == entry.DocID && list[idx].FieldName == entry.FieldName {
		list[idx] = entry
		return list
	}
	list = append(list, index.PostingEntry{})
	copy(list[idx+1:], list[idx:])
	list[idx] = entry
	return list
}

// DeleteAllDocuments clears the document store and the field index. Internal
// IDs restart from zero afterwards.
func (s *Service) DeleteAllDocuments() error {
	s.documentStore.Mu.Lock()
	s.fieldIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.fieldIndex.Mu.Unlock()

	s.documentStore.Docs = make(map[uint32]model.Document)
	s.documentStore.ExternalIDtoInternalID = make(map[string]uint32)
	s.documentStore.NextID = 0

	s.fieldIndex.Values = make(map[string]map[string][]uint32)
	s.fieldIndex.Presence = make(map[string][]uint32)
	s.fieldIndex.Tokens = make(map[string]index.PostingList)

	return nil
}

// DeleteDocument unindexes and removes one document by its external ID.
func (s *Service) DeleteDocument(docID string) error {
	s.documentStore.Mu.Lock()
	s.fieldIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.fieldIndex.Mu.Unlock()

	internalID, exists := s.documentStore.ExternalIDtoInternalID[docID]
	if !exists {
		return fmt.Errorf("document with ID '%s' not found", docID)
	}

	doc, docExists := s.documentStore.Docs[internalID]
	if !docExists {
		// Mapping without a stored document; clean up the mapping and report
		delete(s.documentStore.ExternalIDtoInternalID, docID)
		return fmt.Errorf("document with ID '%s' found in mapping but not in store (inconsistent state)", docID)
	}

	s.unindexDocumentUnsafe(internalID, doc)

	delete(s.documentStore.Docs, internalID)
	delete(s.documentStore.ExternalIDtoInternalID, docID)

	return nil
}

// Rebuild drops the field index structures and reindexes every stored
// document in internal ID order. The engine runs it after settings changes
// that alter which fields are indexed.
func (s *Service) Rebuild(progress func(current, total int)) error {
	s.documentStore.Mu.Lock()
	s.fieldIndex.Mu.Lock()
	defer s.documentStore.Mu.Unlock()
	defer s.fieldIndex.Mu.Unlock()

	s.fieldIndex.Values = make(map[string]map[string][]uint32)
	s.fieldIndex.Presence = make(map[string][]uint32)
	s.fieldIndex.Tokens = make(map[string]index.PostingList)

	internalIDs := make([]uint32, 0, len(s.documentStore.Docs))
	for internalID := range s.documentStore.Docs {
		internalIDs = append(internalIDs, internalID)
	}
	sort.Slice(internalIDs, func(i, j int) bool { return internalIDs[i] < internalIDs[j] })

	for i, internalID := range internalIDs {
		s.indexDocumentUnsafe(internalID, s.documentStore.Docs[internalID])
		if progress != nil {
			progress(i+1, len(internalIDs))
		}
	}

	return nil
}
