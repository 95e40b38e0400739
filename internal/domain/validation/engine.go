// Package validation checks canonical records against target platform rules.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/adshift/adshift/internal/domain"
	"golang.org/x/text/cases"
)

// Engine validates canonical records. It is stateless apart from a cache of
// compiled patterns and is safe for concurrent use.
type Engine struct {
	patterns sync.Map // pattern string -> *regexp.Regexp
}

func New() *Engine { return &Engine{} }

// Validate checks record against every rule and returns all issues found.
// The record is never modified.
func (e *Engine) Validate(record domain.CanonicalRecord, rules domain.TargetRules) domain.ValidationReport {
	var issues []domain.ValidationIssue

	for _, rule := range rules.Fields {
		issues = append(issues, e.checkRule(record, rule)...)
	}

	if !rules.AllowUnknownFields {
		known := rules.TopLevelFields()
		for _, f := range record.Fields() {
			if !known[f.Name] {
				issues = append(issues, domain.ValidationIssue{
					Field:    f.Name,
					Kind:     domain.IssueUnknownField,
					Message:  fmt.Sprintf("field is not defined for %s", rules.Platform),
					Expected: "no such field",
					Actual:   f.Value.String(),
				})
			}
		}
	}

	return domain.ValidationReport{
		Platform: rules.Platform,
		Pass:     len(issues) == 0,
		Issues:   issues,
	}
}

func (e *Engine) checkRule(record domain.CanonicalRecord, rule domain.FieldRule) []domain.ValidationIssue {
	v, ok := record.Lookup(rule.Field)
	if !ok || v.IsNull() {
		if rule.Required {
			return []domain.ValidationIssue{{
				Field:    rule.Field,
				Kind:     domain.IssueMissingRequired,
				Message:  "is required",
				Expected: "a value",
				Actual:   "missing",
			}}
		}
		return nil
	}

	if rule.Type != "" && !rule.Type.Matches(v) {
		return []domain.ValidationIssue{{
			Field:    rule.Field,
			Kind:     domain.IssueTypeMismatch,
			Message:  fmt.Sprintf("expected %s, got %s", rule.Type, v.Kind()),
			Expected: string(rule.Type),
			Actual:   v.Kind().String(),
		}}
	}

	var issues []domain.ValidationIssue
	if issue, bad := checkRange(v, rule); bad {
		issues = append(issues, issue)
	}
	if issue, bad := checkLength(v, rule); bad {
		issues = append(issues, issue)
	}
	if issue, bad := checkAllowed(v, rule); bad {
		issues = append(issues, issue)
	}
	if issue, bad := e.checkPattern(v, rule); bad {
		issues = append(issues, issue)
	}
	return issues
}

func checkRange(v domain.Value, rule domain.FieldRule) (domain.ValidationIssue, bool) {
	n, ok := v.AsNumber()
	if !ok || (rule.Min == nil && rule.Max == nil) {
		return domain.ValidationIssue{}, false
	}

	if rule.Min != nil {
		below := n < *rule.Min || (rule.ExclusiveMin && n == *rule.Min)
		if below {
			op := ">="
			if rule.ExclusiveMin {
				op = ">"
			}
			return rangeIssue(rule.Field, op, *rule.Min, v), true
		}
	}
	if rule.Max != nil {
		above := n > *rule.Max || (rule.ExclusiveMax && n == *rule.Max)
		if above {
			op := "<="
			if rule.ExclusiveMax {
				op = "<"
			}
			return rangeIssue(rule.Field, op, *rule.Max, v), true
		}
	}
	return domain.ValidationIssue{}, false
}

func rangeIssue(field, op string, bound float64, v domain.Value) domain.ValidationIssue {
	expected := fmt.Sprintf("%s %s", op, domain.Number(bound))
	return domain.ValidationIssue{
		Field:    field,
		Kind:     domain.IssueOutOfRange,
		Message:  fmt.Sprintf("must be %s", expected),
		Expected: expected,
		Actual:   v.String(),
	}
}

func checkLength(v domain.Value, rule domain.FieldRule) (domain.ValidationIssue, bool) {
	if rule.MinLength == nil && rule.MaxLength == nil {
		return domain.ValidationIssue{}, false
	}
	if k := v.Kind(); k != domain.KindString && k != domain.KindList {
		return domain.ValidationIssue{}, false
	}

	n := v.Len()
	switch {
	case rule.MinLength != nil && n < *rule.MinLength:
		return domain.ValidationIssue{
			Field:    rule.Field,
			Kind:     domain.IssueInvalidLength,
			Message:  fmt.Sprintf("length %d is below minimum %d", n, *rule.MinLength),
			Expected: fmt.Sprintf("length >= %d", *rule.MinLength),
			Actual:   fmt.Sprintf("length %d", n),
		}, true
	case rule.MaxLength != nil && n > *rule.MaxLength:
		return domain.ValidationIssue{
			Field:    rule.Field,
			Kind:     domain.IssueInvalidLength,
			Message:  fmt.Sprintf("length %d exceeds maximum %d", n, *rule.MaxLength),
			Expected: fmt.Sprintf("length <= %d", *rule.MaxLength),
			Actual:   fmt.Sprintf("length %d", n),
		}, true
	}
	return domain.ValidationIssue{}, false
}

func checkAllowed(v domain.Value, rule domain.FieldRule) (domain.ValidationIssue, bool) {
	if len(rule.Allowed) == 0 {
		return domain.ValidationIssue{}, false
	}

	fold := cases.Fold()
	s, isString := v.AsString()
	for _, a := range rule.Allowed {
		if a.Equal(v) {
			return domain.ValidationIssue{}, false
		}
		if rule.CaseInsensitive && isString {
			if as, ok := a.AsString(); ok && fold.String(as) == fold.String(s) {
				return domain.ValidationIssue{}, false
			}
		}
	}

	options := make([]string, len(rule.Allowed))
	for i, a := range rule.Allowed {
		options[i] = a.String()
	}
	expected := "one of " + strings.Join(options, ", ")
	return domain.ValidationIssue{
		Field:    rule.Field,
		Kind:     domain.IssueNotAllowed,
		Message:  fmt.Sprintf("%s is not allowed, expected %s", v, expected),
		Expected: expected,
		Actual:   v.String(),
	}, true
}

func (e *Engine) checkPattern(v domain.Value, rule domain.FieldRule) (domain.ValidationIssue, bool) {
	s, ok := v.AsString()
	if rule.Pattern == "" || !ok {
		return domain.ValidationIssue{}, false
	}
	re, err := e.compile(rule.Pattern)
	if err != nil {
		return domain.ValidationIssue{
			Field:    rule.Field,
			Kind:     domain.IssuePatternMismatch,
			Message:  fmt.Sprintf("rule pattern is invalid: %v", err),
			Expected: rule.Pattern,
			Actual:   v.String(),
		}, true
	}
	if re.MatchString(s) {
		return domain.ValidationIssue{}, false
	}
	return domain.ValidationIssue{
		Field:    rule.Field,
		Kind:     domain.IssuePatternMismatch,
		Message:  fmt.Sprintf("does not match %s", rule.Pattern),
		Expected: rule.Pattern,
		Actual:   v.String(),
	}, true
}

func (e *Engine) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := e.patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	e.patterns.Store(pattern, re)
	return re, nil
}
