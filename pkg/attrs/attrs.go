// Package attrs converts slog-style key/value attribute slices for audit
// records.
package attrs

import "fmt"

// ExtractString extracts a value from a key-value attribute slice.
// The slice should be formatted as [key1, value1, key2, value2, ...].
// Strings are returned as-is and fmt.Stringer values are formatted.
// Returns empty string if the key is not found.
func ExtractString(attrs []any, key string) string {
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok || k != key {
			continue
		}
		return format(attrs[i+1])
	}
	return ""
}

// ToMap flattens a key-value attribute slice into a string map. Non-string
// keys and a trailing odd element are skipped; later keys win.
func ToMap(attrs []any) map[string]string {
	if len(attrs) < 2 {
		return nil
	}
	out := make(map[string]string, len(attrs)/2)
	for i := 0; i < len(attrs)-1; i += 2 {
		k, ok := attrs[i].(string)
		if !ok {
			continue
		}
		out[k] = format(attrs[i+1])
	}
	return out
}

func format(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
