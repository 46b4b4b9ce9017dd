package adapters

import (
	"fmt"
	"strconv"
)

// Tool output is decoded into generic JSON values and read through these
// accessors, so an unexpected type yields a zero value instead of an error.

func obj(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func list(m map[string]any, key string) []any {
	v, _ := m[key].([]any)
	return v
}

func str(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// strList returns the string elements of m[key], skipping anything else.
// A missing or null key yields an empty, non-nil slice.
func strList(m map[string]any, key string) []string {
	out := []string{}
	for _, v := range list(m, key) {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// optString returns a pointer to the string form of m[key], or nil when
// the key is absent or null.
func optString(m map[string]any, key string) *string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		s = fmt.Sprint(t)
	}
	return &s
}

// optNumber returns m[key] as a number when it is one (or a numeric
// string), else nil.
func optNumber(m map[string]any, key string) *float64 {
	switch v := m[key].(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

// strOr returns m[key] when it is a non-empty string, else fallback.
func strOr(m map[string]any, key, fallback string) string {
	if s := str(m, key); s != "" {
		return s
	}
	return fallback
}
