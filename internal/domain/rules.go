package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldRule constrains one field of a canonical record. Field may be a
// dotted path into nested objects. Numeric bounds are inclusive unless the
// matching Exclusive flag is set.
type FieldRule struct {
	Field           string    `yaml:"field"                     json:"field"`
	Type            FieldType `yaml:"type,omitempty"            json:"type,omitempty"`
	Required        bool      `yaml:"required,omitempty"        json:"required,omitempty"`
	Min             *float64  `yaml:"min,omitempty"             json:"min,omitempty"`
	Max             *float64  `yaml:"max,omitempty"             json:"max,omitempty"`
	ExclusiveMin    bool      `yaml:"exclusive_min,omitempty"   json:"exclusive_min,omitempty"`
	ExclusiveMax    bool      `yaml:"exclusive_max,omitempty"   json:"exclusive_max,omitempty"`
	MinLength       *int      `yaml:"min_length,omitempty"      json:"min_length,omitempty"`
	MaxLength       *int      `yaml:"max_length,omitempty"      json:"max_length,omitempty"`
	Allowed         []Value   `yaml:"-"                         json:"allowed,omitempty"`
	CaseInsensitive bool      `yaml:"case_insensitive,omitempty" json:"case_insensitive,omitempty"`
	Pattern         string    `yaml:"pattern,omitempty"         json:"pattern,omitempty"`
}

// TargetRules is the rule set a canonical record must satisfy before it can
// be submitted to a target platform.
type TargetRules struct {
	Platform           string      `json:"platform"`
	Description        string      `json:"description,omitempty"`
	AllowUnknownFields bool        `json:"allow_unknown_fields"`
	Fields             []FieldRule `json:"fields"`
}

// Rule returns the rule for a field.
func (t TargetRules) Rule(field string) (FieldRule, bool) {
	for _, r := range t.Fields {
		if r.Field == field {
			return r, true
		}
	}
	return FieldRule{}, false
}

// TopLevelFields returns the set of top-level names the rules know about.
func (t TargetRules) TopLevelFields() map[string]bool {
	known := make(map[string]bool, len(t.Fields))
	for _, r := range t.Fields {
		top, _, _ := strings.Cut(r.Field, ".")
		if i := strings.IndexByte(top, '['); i >= 0 {
			top = top[:i]
		}
		known[top] = true
	}
	return known
}

// Validate checks the rule set for internal consistency.
func (t TargetRules) Validate() error {
	var problems []string
	if strings.TrimSpace(t.Platform) == "" {
		problems = append(problems, "platform must not be empty")
	}

	seen := make(map[string]bool, len(t.Fields))
	for i, r := range t.Fields {
		label := fmt.Sprintf("fields[%d] (%s)", i, r.Field)
		if r.Field == "" {
			problems = append(problems, fmt.Sprintf("fields[%d]: field must not be empty", i))
			continue
		}
		if _, err := ParsePath(r.Field); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", label, err))
		}
		if seen[r.Field] {
			problems = append(problems, label+": duplicate rule")
		}
		seen[r.Field] = true

		if r.Type != "" && !r.Type.IsRuleType() {
			problems = append(problems, fmt.Sprintf("%s: unknown type %q", label, r.Type))
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			problems = append(problems, fmt.Sprintf("%s: min %v greater than max %v", label, *r.Min, *r.Max))
		}
		if r.MinLength != nil && *r.MinLength < 0 {
			problems = append(problems, label+": min_length must be >= 0")
		}
		if r.MinLength != nil && r.MaxLength != nil && *r.MinLength > *r.MaxLength {
			problems = append(problems, fmt.Sprintf("%s: min_length %d greater than max_length %d", label, *r.MinLength, *r.MaxLength))
		}
		if r.Pattern != "" {
			if _, err := regexp.Compile(r.Pattern); err != nil {
				problems = append(problems, fmt.Sprintf("%s: invalid pattern: %v", label, err))
			}
		}
	}

	if len(problems) > 0 {
		return &InvalidRulesError{Platform: t.Platform, Problems: problems}
	}
	return nil
}
