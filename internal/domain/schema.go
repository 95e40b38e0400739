package domain

import (
	"fmt"
	"strings"
)

// FieldMapping declares how one target field is derived from a raw record.
// Default is nil when no default was declared. A non-nil Default holding
// null is an explicit null default.
type FieldMapping struct {
	Source    string    `json:"source,omitempty"`
	Target    string    `json:"target"`
	Transform string    `json:"transform,omitempty"`
	Cast      FieldType `json:"cast,omitempty"`
	Required  bool      `json:"required"`
	Default   *Value    `json:"default,omitempty"`
	Warning   string    `json:"warning,omitempty"`
}

func (m FieldMapping) HasDefault() bool { return m.Default != nil }

// SchemaDefinition is the declarative mapping from one source platform to
// the canonical target shape.
type SchemaDefinition struct {
	Platform    string         `json:"platform"`
	Description string         `json:"description,omitempty"`
	Fields      []FieldMapping `json:"fields"`
	Sample      RawRecord      `json:"sample,omitempty"`
}

// Warnings returns the operator warnings declared on the schema's mappings.
func (s SchemaDefinition) Warnings() []string {
	var out []string
	for _, f := range s.Fields {
		if f.Warning != "" {
			out = append(out, fmt.Sprintf("%s: %s", f.Target, f.Warning))
		}
	}
	return out
}

// Validate checks the definition and returns every problem found, or nil.
// hasTransform reports whether a transform name is registered.
func (s SchemaDefinition) Validate(hasTransform func(string) bool) error {
	var problems []string

	if strings.TrimSpace(s.Platform) == "" {
		problems = append(problems, "platform must not be empty")
	}
	if len(s.Fields) == 0 {
		problems = append(problems, "at least one field mapping is required")
	}

	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		label := fmt.Sprintf("fields[%d]", i)
		if f.Target != "" {
			label = fmt.Sprintf("fields[%d] (%s)", i, f.Target)
		}

		if f.Target == "" {
			problems = append(problems, label+": target must not be empty")
		} else if seen[f.Target] {
			problems = append(problems, fmt.Sprintf("%s: duplicate target %q", label, f.Target))
		}
		seen[f.Target] = true

		if f.Source == "" && !f.HasDefault() {
			problems = append(problems, label+": source or default is required")
		}
		if f.Source != "" {
			if _, err := ParsePath(f.Source); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", label, err))
			}
		}
		if f.Required && f.HasDefault() {
			problems = append(problems, label+": required field cannot declare a default")
		}
		if f.Required && f.Source == "" {
			problems = append(problems, label+": required field needs a source")
		}
		if f.Transform != "" && hasTransform != nil && !hasTransform(f.Transform) {
			problems = append(problems, fmt.Sprintf("%s: %v", label, &UnknownTransformError{Name: f.Transform}))
		}
		if f.Cast != "" && !f.Cast.IsCastType() {
			problems = append(problems, fmt.Sprintf("%s: unsupported cast %q", label, f.Cast))
		}
	}

	if len(problems) > 0 {
		return &InvalidSchemaError{Platform: s.Platform, Problems: problems}
	}
	return nil
}
