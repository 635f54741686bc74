package lookup

import (
	"github.com/gcbaptista/go-filter-engine/query"
)

// Compile translates grouped lookups into a boolean clause tree. Non-negated
// clauses land in Must and AND together; exclude lookups land in MustNot.
//
// Compilation is pure and deterministic: tree order follows field
// first-appearance order, then per-field parse order, so identical input
// always yields a structurally identical tree. Safe to call concurrently.
func Compile(lookups *FieldLookups) *query.Tree {
	tree := &query.Tree{}

	for _, field := range lookups.Fields {
		for i := range lookups.Lookups[field] {
			lk := &lookups.Lookups[field][i]
			spec := registry[lk.Suffix]
			clause := spec.build(lk)
			if spec.negate {
				tree.MustNot = append(tree.MustNot, clause)
			} else {
				tree.Must = append(tree.Must, clause)
			}
		}
	}

	return tree
}

// CompileQuery runs the full front half of the pipeline: raw query string to
// clause tree. It is what transport handlers call.
func CompileQuery(parser *Parser, rawQuery string) (*query.Tree, *FieldLookups, error) {
	params, err := ParseRawQuery(rawQuery)
	if err != nil {
		return nil, nil, err
	}
	lookups, err := parser.Parse(params)
	if err != nil {
		return nil, nil, err
	}
	return Compile(lookups), lookups, nil
}
