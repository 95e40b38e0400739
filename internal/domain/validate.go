package domain

import "fmt"

// IssueKind classifies a validation issue.
type IssueKind string

const (
	IssueMissingRequired IssueKind = "missing-required"
	IssueTypeMismatch    IssueKind = "type-mismatch"
	IssueOutOfRange      IssueKind = "out-of-range"
	IssueNotAllowed      IssueKind = "not-allowed"
	IssueInvalidLength   IssueKind = "invalid-length"
	IssuePatternMismatch IssueKind = "pattern-mismatch"
	IssueUnknownField    IssueKind = "unknown-field"
)

type ValidationIssue struct {
	Field    string    `json:"field"`
	Kind     IssueKind `json:"kind"`
	Message  string    `json:"message"`
	Expected string    `json:"expected,omitempty"`
	Actual   string    `json:"actual,omitempty"`
}

func (i ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Field, i.Message, i.Kind)
}

// ValidationReport lists every issue found in a canonical record. Pass is
// true exactly when Issues is empty.
type ValidationReport struct {
	Platform string            `json:"platform"`
	Pass     bool              `json:"pass"`
	Issues   []ValidationIssue `json:"issues"`
}

// IssuesFor returns the issues recorded against one field.
func (r ValidationReport) IssuesFor(field string) []ValidationIssue {
	var out []ValidationIssue
	for _, i := range r.Issues {
		if i.Field == field {
			out = append(out, i)
		}
	}
	return out
}

// Summary renders a one-line description of the report.
func (r ValidationReport) Summary() string {
	if r.Pass {
		return "valid"
	}
	if len(r.Issues) == 1 {
		return "1 issue: " + r.Issues[0].String()
	}
	return fmt.Sprintf("%d issues, first: %s", len(r.Issues), r.Issues[0])
}
