// SPDX-License-Identifier: Apache-2.0

// Package schema holds the canonical field registry the parsing pipeline is
// built against: every field the pipeline may emit, the label variants and
// synonyms that denote it, its value type, and an optional numeric range.
//
// The registry is loaded once from a YAML resource and is immutable
// afterwards. Matching behavior changes with the resource, not with code.
package schema

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ValueType is the expected type of a field's value.
type ValueType string

const (
	TypeNumber        ValueType = "number"
	TypeBoolean       ValueType = "boolean"
	TypeString        ValueType = "string"
	TypeBloodPressure ValueType = "bloodPressure"
)

// Range is an inclusive numeric bound for number fields.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Field is one canonical field definition.
type Field struct {
	// Key uniquely identifies the field (e.g. "hdlCholesterol").
	Key string `yaml:"key" json:"key"`
	// Labels are the verbatim user-facing variants matched exactly.
	Labels []string `yaml:"labels" json:"labels,omitempty"`
	// Synonyms are additional variants eligible for containment and fuzzy
	// matching.
	Synonyms []string  `yaml:"synonyms" json:"synonyms,omitempty"`
	Type     ValueType `yaml:"type" json:"type"`
	Range    *Range    `yaml:"range" json:"range,omitempty"`
}

// Registry is the immutable set of canonical fields in declaration order.
type Registry struct {
	fields []Field
	byKey  map[string]int
}

type registryFile struct {
	Fields []Field `yaml:"fields" json:"fields"`
}

//go:embed fields.yaml
var defaultFieldsYAML []byte

// Default loads the registry embedded in the binary.
func Default() (*Registry, error) {
	return Load(defaultFieldsYAML)
}

// Load decodes and validates a registry from YAML bytes.
func Load(data []byte) (*Registry, error) {
	var doc registryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal field schema: %w", err)
	}
	if err := validateConfig(doc); err != nil {
		return nil, err
	}

	byKey := make(map[string]int, len(doc.Fields))
	for i, f := range doc.Fields {
		if _, dup := byKey[f.Key]; dup {
			return nil, fmt.Errorf("duplicate field key %q in schema", f.Key)
		}
		if len(f.Labels) == 0 {
			return nil, fmt.Errorf("field %q declares no label variants", f.Key)
		}
		byKey[f.Key] = i
	}
	return &Registry{fields: doc.Fields, byKey: byKey}, nil
}

// Fields returns the fields in declaration order. Callers must not mutate
// the returned slice.
func (r *Registry) Fields() []Field {
	return r.fields
}

// Lookup returns the field for a key.
func (r *Registry) Lookup(key string) (*Field, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return nil, false
	}
	return &r.fields[i], true
}

// Len reports the number of canonical fields.
func (r *Registry) Len() int {
	return len(r.fields)
}
