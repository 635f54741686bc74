package index

// PostingEntry records one document containing a token, the searchable
// field it appeared in, and the term frequency within that field.
type PostingEntry struct {
	DocID     uint32  // Internal numeric ID for efficiency
	FieldName string  // The name of the field where the token was found (e.g., "title", "description")
	Frequency float64 // Term frequency within this field for this document
}

// PostingList is a slice of PostingEntry, kept sorted by DocID ascending.
type PostingList []PostingEntry
