package entries

import (
	"strings"

	"github.com/zenodo/rdm-migrator/lib/cdc"
)

func str(m map[string]any, key string) string {
	value, _ := cdc.String(m[key])
	return strings.TrimSpace(value)
}

func obj(m map[string]any, key string) map[string]any {
	value, _ := m[key].(map[string]any)
	return value
}

func objects(m map[string]any, key string) []map[string]any {
	values, _ := m[key].([]any)
	var out []map[string]any
	for _, value := range values {
		if entry, isOk := value.(map[string]any); isOk {
			out = append(out, entry)
		}
	}
	return out
}

func strs(m map[string]any, key string) []string {
	var out []string
	switch castedValue := m[key].(type) {
	case []any:
		for _, value := range castedValue {
			if s, isOk := cdc.String(value); isOk && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range castedValue {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}

func vocabulary(id string) map[string]any {
	if id == "" {
		return nil
	}
	return map[string]any{"id": id}
}

// compact drops nil values, blank strings and empty containers, recursively. It returns false if nothing is left.
func compact(value any) (any, bool) {
	switch castedValue := value.(type) {
	case nil:
		return nil, false
	case string:
		return castedValue, strings.TrimSpace(castedValue) != ""
	case map[string]any:
		out := compactMap(castedValue)
		return out, out != nil
	case []any:
		var out []any
		for _, item := range castedValue {
			if compacted, isOk := compact(item); isOk {
				out = append(out, compacted)
			}
		}
		return out, len(out) > 0
	case []map[string]any:
		var out []any
		for _, item := range castedValue {
			if compacted := compactMap(item); compacted != nil {
				out = append(out, compacted)
			}
		}
		return out, len(out) > 0
	default:
		return value, true
	}
}

func compactMap(m map[string]any) map[string]any {
	out := make(map[string]any)
	for key, value := range m {
		if compacted, isOk := compact(value); isOk {
			out[key] = compacted
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
