package intel

import (
	"strconv"
	"strings"
)

// Raw is a single upstream record as decoded from JSON. Upstream APIs are
// inconsistent about field names and types (string vs numeric ids, bool vs
// "Yes" flags), so access goes through tolerant typed accessors instead of
// direct map reads.
type Raw map[string]any

// Str returns the first non-empty string value among the given keys.
// Numeric values are rendered as their decimal form so id fields work
// regardless of how the backend serialized them.
func (r Raw) Str(keys ...string) string {
	for _, key := range keys {
		switch v := r[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// StrOr returns Str(keys...) or the fallback when every key is empty
func (r Raw) StrOr(fallback string, keys ...string) string {
	if s := r.Str(keys...); s != "" {
		return s
	}
	return fallback
}

// Num returns the first numeric value among the given keys, parsing
// numeric strings as well. Missing or unparseable values yield 0.
func (r Raw) Num(keys ...string) float64 {
	for _, key := range keys {
		switch v := r[key].(type) {
		case float64:
			return v
		case int:
			return float64(v)
		case int64:
			return float64(v)
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

// Flag reports whether any of the given keys holds a truthy value:
// boolean true, a positive number, or a "Yes"/"true" style string.
func (r Raw) Flag(keys ...string) bool {
	for _, key := range keys {
		switch v := r[key].(type) {
		case bool:
			if v {
				return true
			}
		case float64:
			if v > 0 {
				return true
			}
		case string:
			switch strings.ToLower(v) {
			case "yes", "true", "y":
				return true
			}
		}
	}
	return false
}

// Strings returns the value under key as a string slice, tolerating both
// []string and the []any produced by generic JSON decoding. Non-string
// elements are dropped.
func (r Raw) Strings(key string) []string {
	switch v := r[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// ExtractItems pulls the item array out of a response envelope. The array
// may live under a source-specific key, under generic "items"/"results"
// keys, or the response may be a bare array. Returns an empty slice, never
// nil, when no recognized key yields an array.
func ExtractItems(data any, preferredKeys ...string) []Raw {
	if data == nil {
		return []Raw{}
	}

	if m, ok := data.(map[string]any); ok {
		keys := append(append([]string{}, preferredKeys...), "items", "results")
		for _, key := range keys {
			if arr, ok := m[key].([]any); ok {
				return toRaws(arr)
			}
		}
		return []Raw{}
	}

	if arr, ok := data.([]any); ok {
		return toRaws(arr)
	}

	return []Raw{}
}

// toRaws converts a decoded JSON array to Raw records, skipping non-object
// elements
func toRaws(arr []any) []Raw {
	out := make([]Raw, 0, len(arr))
	for _, e := range arr {
		if m, ok := e.(map[string]any); ok {
			out = append(out, Raw(m))
		}
	}
	return out
}
