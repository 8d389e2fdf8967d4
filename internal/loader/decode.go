package loader

import (
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

func decodeYAML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return doc, nil
}

func decodeTOML(data []byte) (map[string]any, error) {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	return tomlDoc(doc), nil
}

// tomlDoc rewrites the []map[string]any slices the TOML parser produces for
// arrays of tables into the []any shape the other formats share.
func tomlDoc(m map[string]any) map[string]any {
	for key, value := range m {
		m[key] = tomlValue(value)
	}
	return m
}

func tomlValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return tomlDoc(t)
	case []map[string]any:
		out := make([]any, len(t))
		for i, elem := range t {
			out[i] = tomlDoc(elem)
		}
		return out
	case []any:
		for i, elem := range t {
			t[i] = tomlValue(elem)
		}
		return t
	default:
		return v
	}
}

func decodeJSON(data []byte) (map[string]any, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("failed to parse JSON: malformed document")
	}
	doc, ok := gjson.ParseBytes(data).Value().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("failed to parse JSON: top level must be an object")
	}
	return doc, nil
}
