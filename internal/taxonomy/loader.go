package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a taxonomy YAML document from disk.
func Load(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a taxonomy YAML document and sanitizes declared property
// names so downstream components only ever see valid ThinkingEngine names.
func Parse(data []byte) (*Taxonomy, error) {
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}

	for i := range t.Events {
		for j := range t.Events[i].Properties {
			t.Events[i].Properties[j].Name = SanitizeName(t.Events[i].Properties[j].Name)
		}
	}
	for i := range t.CommonProperties {
		t.CommonProperties[i].Name = SanitizeName(t.CommonProperties[i].Name)
	}
	for i := range t.UserProperties {
		t.UserProperties[i].Name = SanitizeName(t.UserProperties[i].Name)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}
