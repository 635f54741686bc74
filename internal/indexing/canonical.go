package indexing

import (
	"strconv"
	"time"
)

// CanonicalValues flattens a document field value into the canonical string
// form the field index keys postings by. Scalars yield one value, slices one
// per element. A nil value or empty slice yields nothing, which is what
// makes the field count as absent for exists clauses.
func CanonicalValues(fieldVal interface{}) []string {
	switch v := fieldVal.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case bool:
		return []string{strconv.FormatBool(v)}
	case float64:
		return []string{strconv.FormatFloat(v, 'f', -1, 64)}
	case float32:
		return []string{strconv.FormatFloat(float64(v), 'f', -1, 32)}
	case int:
		return []string{strconv.Itoa(v)}
	case int32:
		return []string{strconv.FormatInt(int64(v), 10)}
	case int64:
		return []string{strconv.FormatInt(v, 10)}
	case uint32:
		return []string{strconv.FormatUint(uint64(v), 10)}
	case uint64:
		return []string{strconv.FormatUint(v, 10)}
	case time.Time:
		return []string{v.Format(time.RFC3339)}
	case []string:
		values := make([]string, 0, len(v))
		values = append(values, v...)
		return values
	case []interface{}:
		values := make([]string, 0, len(v))
		for _, item := range v {
			values = append(values, CanonicalValues(item)...)
		}
		return values
	default:
		return nil
	}
}

// normalizeDocument returns a copy of the document with JSON-shaped values
// put into their storable form: []interface{} holding only strings becomes
// []string. Normalizing at ingestion keeps the store and the gob snapshots
// consistent.
func normalizeDocument(doc map[string]interface{}) map[string]interface{} {
	normalized := make(map[string]interface{}, len(doc))
	for key, val := range doc {
		if interfaceSlice, ok := val.([]interface{}); ok {
			stringSlice := make([]string, 0, len(interfaceSlice))
			allStrings := true
			for _, item := range interfaceSlice {
				strItem, isString := item.(string)
				if !isString {
					allStrings = false
					break
				}
				stringSlice = append(stringSlice, strItem)
			}
			if allStrings {
				normalized[key] = stringSlice
				continue
			}
		}
		normalized[key] = val
	}
	return normalized
}
