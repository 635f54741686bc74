package query

// Kind identifies the atomic clause variant a compiled filter produced.
type Kind int

const (
	KindTerm Kind = iota
	KindTerms
	KindRange
	KindPrefix
	KindWildcard
	KindExists
)

// String returns the clause kind name used in logs and analytics.
func (k Kind) String() string {
	switch k {
	case KindTerm:
		return "term"
	case KindTerms:
		return "terms"
	case KindRange:
		return "range"
	case KindPrefix:
		return "prefix"
	case KindWildcard:
		return "wildcard"
	case KindExists:
		return "exists"
	default:
		return "unknown"
	}
}

// Clause is one atomic search predicate over a single field. Kind selects
// which payload fields are meaningful: Value for term/prefix/wildcard,
// Values for terms, Lower/Upper/Boost for range, Exists for exists.
type Clause struct {
	Kind   Kind     `json:"kind"`
	Field  string   `json:"field"`
	Value  string   `json:"value,omitempty"`
	Values []string `json:"values,omitempty"`
	Lower  string   `json:"lower,omitempty"`
	Upper  string   `json:"upper,omitempty"`
	Boost  float64  `json:"boost,omitempty"`
	Exists bool     `json:"exists,omitempty"`
}

// Tree is the boolean composition of clauses for one compiled request.
// Must entries AND together; MustNot entries subtract from the result.
// A Tree is immutable once built and safe to share across goroutines.
type Tree struct {
	Must    []Clause `json:"must"`
	MustNot []Clause `json:"must_not"`
}

// Empty reports whether the tree constrains nothing, i.e. it matches the
// whole corpus.
func (t *Tree) Empty() bool {
	return t == nil || (len(t.Must) == 0 && len(t.MustNot) == 0)
}

// Page is the pagination window handed to the index collaborator.
// Offset is zero-based; Limit must be positive.
type Page struct {
	Offset int
	Limit  int
}

// Result is what the index collaborator returns: the document IDs inside the
// requested window, in collaborator order, plus the total match count before
// pagination was applied.
type Result struct {
	IDs   []string
	Total int
}

// RawParam is one query-string entry. Order across params is preserved and
// duplicate keys are allowed; both carry meaning during parsing.
type RawParam struct {
	Key   string
	Value string
}
