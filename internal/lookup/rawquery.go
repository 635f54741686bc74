package lookup

import (
	"net/url"
	"strings"

	"github.com/gcbaptista/go-filter-engine/internal/errors"
	"github.com/gcbaptista/go-filter-engine/query"
)

// ParseRawQuery splits a URL-encoded query string into ordered key/value
// pairs. Unlike url.ParseQuery it preserves the relative order of entries
// across different keys, which the parser needs for deterministic
// compilation and repeated-key accumulation.
func ParseRawQuery(raw string) ([]query.RawParam, error) {
	var params []query.RawParam

	for raw != "" {
		var segment string
		segment, raw, _ = strings.Cut(raw, "&")
		if segment == "" {
			continue
		}
		if strings.Contains(segment, ";") {
			return nil, errors.NewValidationError("", "invalid semicolon separator in query")
		}

		rawKey, rawValue, _ := strings.Cut(segment, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, errors.NewValidationError(rawKey, "malformed query key: "+err.Error())
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, errors.NewValidationError(key, "malformed query value: "+err.Error())
		}

		params = append(params, query.RawParam{Key: key, Value: value})
	}

	return params, nil
}
