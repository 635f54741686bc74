package search

import (
	"strconv"
	"strings"
	"time"
)

// compareCanonical orders two canonical field values: numeric comparison when
// both parse as numbers, time comparison when both parse as timestamps,
// lexicographic otherwise. Returns -1, 0, or 1.
func compareCanonical(a, b string) int {
	if aFloat, aOk := convertToFloat64(a); aOk {
		if bFloat, bOk := convertToFloat64(b); bOk {
			switch {
			case aFloat < bFloat:
				return -1
			case aFloat > bFloat:
				return 1
			default:
				return 0
			}
		}
	}

	if aTime, aOk := convertToTime(a); aOk {
		if bTime, bOk := convertToTime(b); bOk {
			switch {
			case aTime.Before(bTime):
				return -1
			case aTime.After(bTime):
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(a, b)
}

// inRange reports whether a canonical value falls inside [lower, upper],
// inclusive on both ends. Bound ordering is the caller's business: an
// inverted range simply matches nothing.
func inRange(value, lower, upper string) bool {
	return compareCanonical(value, lower) >= 0 && compareCanonical(value, upper) <= 0
}

// convertToFloat64 parses a canonical value as a number
func convertToFloat64(val string) (float64, bool) {
	if f, err := strconv.ParseFloat(val, 64); err == nil {
		return f, true
	}
	return 0, false
}

// convertToTime parses a canonical value as a timestamp
func convertToTime(val string) (time.Time, bool) {
	// Try different time formats
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, val); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// globMatch reports whether value matches the wildcard pattern. '*' matches
// any run of characters including none, '?' matches exactly one character,
// every other character matches itself verbatim. There is no escaping.
func globMatch(pattern, value string) bool {
	p := []rune(pattern)
	v := []rune(value)

	pi, vi := 0, 0
	starIdx, backtrack := -1, 0

	for vi < len(v) {
		switch {
		case pi < len(p) && (p[pi] == '?' || p[pi] == v[vi]):
			pi++
			vi++
		case pi < len(p) && p[pi] == '*':
			starIdx = pi
			backtrack = vi
			pi++
		case starIdx >= 0:
			// Extend the last '*' by one more character and retry
			pi = starIdx + 1
			backtrack++
			vi = backtrack
		default:
			return false
		}
	}

	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}
