package domain

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Historical data stores assignee, label, and dependency lists in several
// shapes: a JSON string array, a JSON array of objects carrying "id" or
// "name", a comma-separated string, or a bare string. The normalizers
// below coerce all of them into a plain, de-duplicated []string so the
// rest of the system only ever sees one shape.

// NormalizeStringList coerces a decoded JSON value into a string slice.
// Unknown scalar types and nil return an empty slice, never nil.
func NormalizeStringList(v any) []string {
	switch val := v.(type) {
	case nil:
		return []string{}
	case []string:
		return cleanStringList(val)
	case string:
		return cleanStringList(strings.Split(val, ","))
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			switch entry := item.(type) {
			case string:
				out = append(out, entry)
			case map[string]any:
				if s := objectIdentifier(entry); s != "" {
					out = append(out, s)
				}
			}
		}
		return cleanStringList(out)
	case map[string]any:
		if s := objectIdentifier(val); s != "" {
			return []string{s}
		}
		return []string{}
	default:
		return []string{}
	}
}

// DecodeStringList coerces a raw stored column value into a string slice.
// JSON content is decoded and normalized; anything else is treated as a
// comma-separated string.
func DecodeStringList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}
	}
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
		return NormalizeStringList(decoded)
	}
	return cleanStringList(strings.Split(raw, ","))
}

// EncodeStringList marshals a normalized list for storage. A nil slice
// encodes as an empty JSON array.
func EncodeStringList(list []string) string {
	b, err := json.Marshal(cleanStringList(list))
	if err != nil {
		return "[]"
	}
	return string(b)
}

// objectIdentifier extracts the identifying string from an object-shaped
// list entry. "id" wins over "name"; other keys are ignored.
func objectIdentifier(m map[string]any) string {
	for _, key := range []string{"id", "name"} {
		switch v := m[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// cleanStringList trims entries, drops blanks, and de-duplicates while
// preserving first-seen order.
func cleanStringList(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
