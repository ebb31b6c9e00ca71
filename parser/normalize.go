package parser

import (
	"encoding/json"
	"fmt"
	"time"
)

// normalizeObject deep-copies a caller-supplied document into the generic
// representation used throughout parsing.
func normalizeObject(doc map[string]any) (map[string]any, error) {
	v, err := normalizeValue(doc)
	if err != nil {
		return nil, err
	}
	return v.(map[string]any), nil
}

// normalizeValue converts decoded YAML/JSON into JSON-compatible values:
// YAML mappings with non-string keys (such as unquoted status codes) get
// string keys, and timestamps become strings. The result never aliases v.
func normalizeValue(v any) (any, error) {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := normalizeValue(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			key := fmt.Sprint(k)
			n, err := normalizeValue(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out[key] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			n, err := normalizeValue(val)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, nil
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly), nil
		}
		return t.Format(time.RFC3339Nano), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %T", v)
	}
}
