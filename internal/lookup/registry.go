// Package lookup implements the filter query compiler: it parses
// suffix-decorated query-string parameters into lookups and compiles them
// into a boolean clause tree for the index collaborator.
package lookup

import (
	"sort"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/query"
)

// Lookup suffix names understood by the registry.
const (
	SuffixTerm     = "term"
	SuffixTerms    = "terms"
	SuffixIn       = "in"
	SuffixRange    = "range"
	SuffixPrefix   = "prefix"
	SuffixWildcard = "wildcard"
	SuffixExclude  = "exclude"
	SuffixExists   = "exists"
)

// entry describes one lookup suffix: how its raw value is split and
// validated, and which clause it builds.
type entry struct {
	multiValue bool // split the raw value on the configured delimiter
	negate     bool // the built clause belongs in MustNot
	// prepare validates raw values and extracts the boost. A nil prepare
	// accepts the values as-is with the default boost.
	prepare func(field string, values []string) ([]string, float64, error)
	build   func(lk *Lookup) query.Clause
}

// registry is the static suffix table. It is populated once at package
// initialization and never mutated, so concurrent reads need no locking.
// Adding a lookup means adding an entry here.
var registry = map[string]entry{
	SuffixTerm:     {build: buildTerm},
	SuffixTerms:    {multiValue: true, build: buildTerms},
	SuffixIn:       {multiValue: true, build: buildTerms},
	SuffixRange:    {multiValue: true, prepare: prepareRange, build: buildRange},
	SuffixPrefix:   {build: buildPrefix},
	SuffixWildcard: {build: buildWildcard},
	SuffixExclude:  {negate: true, build: buildTerm},
	SuffixExists:   {prepare: prepareExists, build: buildExists},
}

// Supported reports whether the registry knows the given suffix.
func Supported(suffix string) bool {
	_, ok := registry[suffix]
	return ok
}

// Suffixes returns the registered suffix names in sorted order.
func Suffixes() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const defaultBoost = 1.0

// prepareRange enforces the lower|upper or lower|upper|boost shape and
// strips the boost segment from the value list.
func prepareRange(field string, values []string) ([]string, float64, error) {
	if len(values) != 2 && len(values) != 3 {
		return nil, 0, errors.NewValidationError(field,
			"range lookup requires 2 or 3 delimited segments (lower, upper, optional boost), got "+strconv.Itoa(len(values)))
	}
	if values[0] == "" {
		return nil, 0, errors.NewValidationError(field, "range lookup lower bound cannot be empty")
	}
	if values[1] == "" {
		return nil, 0, errors.NewValidationError(field, "range lookup upper bound cannot be empty")
	}

	boost := defaultBoost
	if len(values) == 3 {
		parsed, err := strconv.ParseFloat(values[2], 64)
		if err != nil {
			return nil, 0, errors.NewValidationError(field, "range lookup boost must be a number, got '"+values[2]+"'")
		}
		boost = parsed
	}

	return values[:2], boost, nil
}

// prepareExists accepts the literals "true" and "false" case-insensitively
// and canonicalizes them to lowercase.
func prepareExists(field string, values []string) ([]string, float64, error) {
	literal := strings.ToLower(values[0])
	if literal != "true" && literal != "false" {
		return nil, 0, errors.NewValidationError(field, "exists lookup requires 'true' or 'false', got '"+values[0]+"'")
	}
	return []string{literal}, defaultBoost, nil
}

// buildTerm produces an equality clause. Accumulated repeated keys arrive
// here with multiple values and become an OR-equality clause instead,
// matching what an explicit in lookup over the same values produces.
func buildTerm(lk *Lookup) query.Clause {
	if len(lk.Values) > 1 {
		return query.Clause{Kind: query.KindTerms, Field: lk.Field, Values: lk.Values}
	}
	return query.Clause{Kind: query.KindTerm, Field: lk.Field, Value: lk.Values[0]}
}

func buildTerms(lk *Lookup) query.Clause {
	return query.Clause{Kind: query.KindTerms, Field: lk.Field, Values: lk.Values}
}

func buildRange(lk *Lookup) query.Clause {
	return query.Clause{
		Kind:  query.KindRange,
		Field: lk.Field,
		Lower: lk.Values[0],
		Upper: lk.Values[1],
		Boost: lk.Boost,
	}
}

func buildPrefix(lk *Lookup) query.Clause {
	return query.Clause{Kind: query.KindPrefix, Field: lk.Field, Value: lk.Values[0]}
}

func buildWildcard(lk *Lookup) query.Clause {
	return query.Clause{Kind: query.KindWildcard, Field: lk.Field, Value: lk.Values[0]}
}

func buildExists(lk *Lookup) query.Clause {
	return query.Clause{Kind: query.KindExists, Field: lk.Field, Exists: lk.Values[0] == "true"}
}
