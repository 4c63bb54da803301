package logformat

import (
	"encoding/json"
	"fmt"

	"github.com/theory/jsonpath"

	"accessparse/internal/logitem"
)

// JSONOptions bundles the JSON directive engine's per-run configuration.
type JSONOptions struct {
	Engine Options

	// Subformats maps a top-level JSON key to a log-format subformat string
	// to run against that key's value.
	Subformats map[string][]Directive

	// FieldPaths optionally maps a key (from Subformats) to a JSONPath
	// expression reaching into the raw JSON object to find the value to
	// feed through that key's subformat, for JSON shapes whose interesting
	// fields are not top-level. A key absent from FieldPaths falls back to
	// a flat top-level lookup by key.
	FieldPaths map[string]string
}

// ParseJSONLine implements the JSON directive engine: walk a (non-nested)
// JSON object, and for each (key, value) pair with a configured subformat,
// invoke the directive engine recursively with value as the input line.
// Empty values are skipped; unknown keys are ignored.
func ParseJSONLine(raw []byte, opt JSONOptions) (*logitem.Item, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON object: %v", ErrLineExhausted, err)
	}

	item := logitem.New(opt.Engine.StartTime)

	for key, dirs := range opt.Subformats {
		value, ok := lookupJSONValue(obj, key, opt.FieldPaths)
		if !ok {
			continue
		}
		str := jsonValueToString(value)
		if str == "" {
			continue
		}
		if err := ParseInto(item, dirs, str, opt.Engine); err != nil {
			return nil, fmt.Errorf("json key %q: %w", key, err)
		}
	}

	return item, nil
}

func lookupJSONValue(obj map[string]any, key string, fieldPaths map[string]string) (any, bool) {
	if path, ok := fieldPaths[key]; ok {
		p, err := jsonpath.Parse(path)
		if err != nil {
			return nil, false
		}
		results := p.Select(obj)
		if len(results) == 0 {
			return nil, false
		}
		return results[0], true
	}
	v, ok := obj[key]
	return v, ok
}

func jsonValueToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
