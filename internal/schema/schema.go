// Package schema provides shape validation for compose descriptors.
//
// Only the containers the network augmenter touches are described: the
// services table, each service's networks, and the top-level networks
// table. Everything else in a descriptor is accepted as is.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// Schema represents a JSON Schema for validation
type Schema struct {
	ID                   string             `json:"$id,omitempty"`
	Schema               string             `json:"$schema,omitempty"`
	Title                string             `json:"title,omitempty"`
	Description          string             `json:"description,omitempty"`
	Type                 string             `json:"type,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty"`
	AnyOf                []*Schema          `json:"anyOf,omitempty"`
	Ref                  string             `json:"$ref,omitempty"`
	Defs                 map[string]*Schema `json:"$defs,omitempty"`
}

// ValidationError represents a schema validation error
type ValidationError struct {
	Path    string
	Message string
	Value   interface{}
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationResult contains all validation errors
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validator validates decoded YAML documents against a schema
type Validator struct {
	schema *Schema
	defs   map[string]*Schema
}

// NewValidator creates a new validator with the given schema
func NewValidator(schema *Schema) *Validator {
	defs := make(map[string]*Schema)
	for k, v := range schema.Defs {
		defs["#/$defs/"+k] = v
	}
	return &Validator{
		schema: schema,
		defs:   defs,
	}
}

// ValidateFile validates a YAML file
func (v *Validator) ValidateFile(path string) *ValidationResult {
	data, err := os.ReadFile(path)
	if err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{
				Path:    path,
				Message: fmt.Sprintf("failed to read file: %v", err),
			}},
		}
	}

	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &ValidationResult{
			Errors: []ValidationError{{
				Path:    path,
				Message: fmt.Sprintf("invalid YAML: %v", err),
			}},
		}
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}

	return v.Validate(doc)
}

// Validate validates a document against the schema
func (v *Validator) Validate(doc interface{}) *ValidationResult {
	result := &ValidationResult{}
	v.validate(v.schema, doc, "", result)
	result.Valid = len(result.Errors) == 0
	return result
}

// validate recursively validates a value against a schema
func (v *Validator) validate(schema *Schema, value interface{}, path string, result *ValidationResult) {
	if schema == nil {
		return
	}

	if schema.Ref != "" {
		if refSchema, ok := v.defs[schema.Ref]; ok {
			v.validate(refSchema, value, path, result)
		}
		return
	}

	if len(schema.AnyOf) > 0 {
		v.validateAnyOf(schema.AnyOf, value, path, result)
		return
	}

	if schema.Type != "" && !v.checkType(schema.Type, value) {
		result.Errors = append(result.Errors, ValidationError{
			Path:    path,
			Message: fmt.Sprintf("expected %s, got %s", schema.Type, typeName(value)),
			Value:   value,
		})
		return
	}

	if obj, ok := value.(map[string]interface{}); ok {
		for _, req := range schema.Required {
			if _, exists := obj[req]; !exists {
				result.Errors = append(result.Errors, ValidationError{
					Path:    joinPath(path, req),
					Message: "required field is missing",
				})
			}
		}

		// Sorted so the first reported error is stable between runs.
		keys := make([]string, 0, len(obj))
		for key := range obj {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for _, key := range keys {
			if propSchema, ok := schema.Properties[key]; ok {
				v.validate(propSchema, obj[key], joinPath(path, key), result)
			} else if schema.AdditionalProperties != nil {
				v.validate(schema.AdditionalProperties, obj[key], joinPath(path, key), result)
			}
		}
	}

	if arr, ok := value.([]interface{}); ok && schema.Items != nil {
		for i, item := range arr {
			v.validate(schema.Items, item, fmt.Sprintf("%s[%d]", path, i), result)
		}
	}
}

// validateAnyOf accepts the value when one alternative matches. Otherwise
// the errors of the alternative with the same type as the value are
// reported, since they point at the nested field that is wrong.
func (v *Validator) validateAnyOf(alternatives []*Schema, value interface{}, path string, result *ValidationResult) {
	var sameType *ValidationResult
	types := make([]string, 0, len(alternatives))

	for _, s := range alternatives {
		s = v.deref(s)
		sub := &ValidationResult{}
		v.validate(s, value, path, sub)
		if len(sub.Errors) == 0 {
			return
		}
		types = append(types, s.Type)
		if sameType == nil && s.Type != "" && v.checkType(s.Type, value) {
			sameType = sub
		}
	}

	if sameType != nil {
		result.Errors = append(result.Errors, sameType.Errors...)
		return
	}

	result.Errors = append(result.Errors, ValidationError{
		Path:    path,
		Message: fmt.Sprintf("expected %s, got %s", strings.Join(types, " or "), typeName(value)),
		Value:   value,
	})
}

func (v *Validator) deref(s *Schema) *Schema {
	if s.Ref != "" {
		if refSchema, ok := v.defs[s.Ref]; ok {
			return refSchema
		}
	}
	return s
}

// checkType checks if a value matches the expected type
func (v *Validator) checkType(expected string, value interface{}) bool {
	if value == nil {
		return expected == "null"
	}

	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]interface{})
		return ok
	case "array":
		_, ok := value.([]interface{})
		return ok
	case "null":
		return false
	}
	return false
}

func typeName(value interface{}) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case int, int64, uint64, float64:
		return "number"
	case map[string]interface{}, map[interface{}]interface{}:
		return "object"
	case []interface{}:
		return "array"
	}
	return fmt.Sprintf("%T", value)
}

// joinPath joins path segments
func joinPath(base, key string) string {
	if base == "" {
		return key
	}
	return base + "." + key
}

func nullable(s *Schema) *Schema {
	return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
}

// DescriptorSchema returns the schema for the parts of a compose descriptor
// that the network augmenter reads and writes.
func DescriptorSchema() *Schema {
	return &Schema{
		Schema:      "https://json-schema.org/draft/2020-12/schema",
		ID:          "https://github.com/oarkflow/composenet/schema/descriptor",
		Title:       "Compose descriptor (network fields)",
		Description: "Shape of the compose fields touched by composenet",
		Type:        "object",
		Properties: map[string]*Schema{
			"services": nullable(&Schema{
				Type:                 "object",
				Description:          "Services keyed by name",
				AdditionalProperties: nullable(&Schema{Ref: "#/$defs/service"}),
			}),
			"networks": nullable(&Schema{
				Type:                 "object",
				Description:          "Network declarations keyed by name",
				AdditionalProperties: nullable(&Schema{Ref: "#/$defs/network"}),
			}),
		},
		Defs: map[string]*Schema{
			"service": {
				Type: "object",
				Properties: map[string]*Schema{
					"networks": {
						AnyOf: []*Schema{
							{Type: "array", Items: &Schema{Type: "string"}},
							{Type: "object"},
							{Type: "null"},
						},
					},
				},
			},
			"network": {
				Type: "object",
				Properties: map[string]*Schema{
					"driver": {Type: "string"},
					"external": {
						AnyOf: []*Schema{
							{Type: "boolean"},
							{Type: "object"},
						},
					},
				},
			},
		},
	}
}

// ValidateDocument validates a decoded descriptor against DescriptorSchema.
func ValidateDocument(doc interface{}) *ValidationResult {
	return NewValidator(DescriptorSchema()).Validate(doc)
}

// ValidateFile validates a descriptor file and logs every error found.
func ValidateFile(path string) *ValidationResult {
	result := NewValidator(DescriptorSchema()).ValidateFile(path)

	if !result.Valid {
		log.Error("Descriptor validation failed", "errors", len(result.Errors))
		for _, err := range result.Errors {
			log.Error("Validation error", "path", err.Path, "message", err.Message)
		}
	}

	return result
}

// JSON returns the descriptor schema as indented JSON.
func JSON() ([]byte, error) {
	return json.MarshalIndent(DescriptorSchema(), "", "  ")
}
