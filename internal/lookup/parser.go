package lookup

import (
	"strings"

	"github.com/gcbaptista/go-filter-engine/config"
	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/query"
)

// Lookup is one parsed filter unit: a field, the lookup suffix applied to
// it, the ordered values it carries, and the boost for range lookups.
type Lookup struct {
	Field  string
	Suffix string
	Values []string
	Boost  float64
}

// FieldLookups groups parsed lookups by field while preserving field
// first-appearance order and, within a field, parse order. The ordering is
// what makes compilation deterministic.
type FieldLookups struct {
	Fields  []string
	Lookups map[string][]Lookup
}

func newFieldLookups() *FieldLookups {
	return &FieldLookups{Lookups: make(map[string][]Lookup)}
}

func (fl *FieldLookups) add(lk Lookup) {
	if _, seen := fl.Lookups[lk.Field]; !seen {
		fl.Fields = append(fl.Fields, lk.Field)
	}
	fl.Lookups[lk.Field] = append(fl.Lookups[lk.Field], lk)
}

// Len returns the total number of lookups across all fields.
func (fl *FieldLookups) Len() int {
	total := 0
	for _, lookups := range fl.Lookups {
		total += len(lookups)
	}
	return total
}

// Suffixes returns the suffix of every lookup in compilation order,
// repeats included. Callers use it for usage tracking.
func (fl *FieldLookups) Suffixes() []string {
	suffixes := make([]string, 0, fl.Len())
	for _, field := range fl.Fields {
		for _, lk := range fl.Lookups[field] {
			suffixes = append(suffixes, lk.Suffix)
		}
	}
	return suffixes
}

// Syntax carries the configurable pieces of the filter grammar.
type Syntax struct {
	Separator string              // between field name and suffix, default "__"
	Delimiter string              // between values in multi-valued payloads, default "|"
	Policy    config.LookupPolicy // unknown-suffix handling, default strict
}

// DefaultSyntax returns the standard grammar: double-underscore separator,
// pipe delimiter, strict unknown-suffix policy.
func DefaultSyntax() Syntax {
	return Syntax{Separator: "__", Delimiter: "|", Policy: config.LookupPolicyStrict}
}

// SyntaxFromSettings derives the grammar from the service settings.
func SyntaxFromSettings(settings *config.Settings) Syntax {
	return Syntax{
		Separator: settings.SuffixSeparator,
		Delimiter: settings.ValueDelimiter,
		Policy:    settings.UnknownLookupPolicy,
	}
}

// Parser turns ordered raw parameters into grouped lookups. A Parser is
// immutable after construction and safe for concurrent use.
type Parser struct {
	syntax Syntax
}

// NewParser creates a parser for the given grammar. Zero-valued syntax
// fields fall back to the defaults.
func NewParser(syntax Syntax) *Parser {
	defaults := DefaultSyntax()
	if syntax.Separator == "" {
		syntax.Separator = defaults.Separator
	}
	if syntax.Delimiter == "" {
		syntax.Delimiter = defaults.Delimiter
	}
	if syntax.Policy == "" {
		syntax.Policy = defaults.Policy
	}
	return &Parser{syntax: syntax}
}

// Parse consumes the ordered raw parameters and returns the grouped
// lookups. It fails with a ValidationError on malformed payloads and, under
// the strict policy, with an UnsupportedLookupError on unknown suffixes.
//
// Repeated keys naming the same field with no suffix accumulate into a
// single lookup with OR semantics, in first-seen order. Explicitly suffixed
// repeats stay separate and combine as AND.
func (p *Parser) Parse(params []query.RawParam) (*FieldLookups, error) {
	result := newFieldLookups()

	// Index of the accumulating bare lookup per field, so later repeats
	// append to it in place.
	bare := make(map[string]int)

	for _, param := range params {
		field, suffix, explicit, err := p.splitKey(param.Key)
		if err != nil {
			return nil, err
		}

		spec := registry[suffix]

		var values []string
		if spec.multiValue {
			values = strings.Split(param.Value, p.syntax.Delimiter)
		} else {
			values = []string{param.Value}
		}

		boost := defaultBoost
		if spec.prepare != nil {
			values, boost, err = spec.prepare(field, values)
			if err != nil {
				return nil, err
			}
		}

		if !explicit && suffix == SuffixTerm {
			if idx, seen := bare[field]; seen {
				result.Lookups[field][idx].Values = append(result.Lookups[field][idx].Values, values...)
				continue
			}
			bare[field] = len(result.Lookups[field])
		}

		result.add(Lookup{Field: field, Suffix: suffix, Values: values, Boost: boost})
	}

	return result, nil
}

// splitKey resolves a raw key into field and suffix. The segment after the
// last separator occurrence decides: a registered suffix splits the key, an
// unregistered one falls to the configured policy. Keys without the
// separator are always bare term fields.
func (p *Parser) splitKey(key string) (field, suffix string, explicit bool, err error) {
	idx := strings.LastIndex(key, p.syntax.Separator)
	if idx < 0 {
		return key, SuffixTerm, false, nil
	}

	candidate := key[idx+len(p.syntax.Separator):]
	if Supported(candidate) {
		field = key[:idx]
		if field == "" {
			return "", "", false, errors.NewValidationError(key, "empty field name before lookup suffix")
		}
		return field, candidate, true, nil
	}

	if p.syntax.Policy == config.LookupPolicyStrict {
		return "", "", false, errors.NewUnsupportedLookupError(key[:idx], candidate)
	}

	return key, SuffixTerm, false, nil
}
