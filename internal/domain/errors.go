package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrRegistryFrozen is returned when registering into a frozen registry.
var ErrRegistryFrozen = errors.New("transform registry is frozen")

// SchemaNotFoundError reports that no schema is registered for a platform.
type SchemaNotFoundError struct {
	Platform string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("no schema registered for platform %q", e.Platform)
}

// UnknownTransformError reports a reference to an unregistered transform.
type UnknownTransformError struct {
	Name string
}

func (e *UnknownTransformError) Error() string {
	return fmt.Sprintf("unknown transform %q", e.Name)
}

// DuplicateNameError reports a second registration under the same name.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("transform %q is already registered", e.Name)
}

// TransformExecutionError wraps a failure raised by a transform function.
type TransformExecutionError struct {
	Transform string
	Field     string
	Input     Value
	Err       error
}

func (e *TransformExecutionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("transform %q failed on field %q (input %s): %v", e.Transform, e.Field, e.Input, e.Err)
	}
	return fmt.Sprintf("transform %q failed (input %s): %v", e.Transform, e.Input, e.Err)
}

func (e *TransformExecutionError) Unwrap() error { return e.Err }

// MissingRequiredFieldError reports a required source field that was absent
// or null in the raw record.
type MissingRequiredFieldError struct {
	SourceField string
	TargetField string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("required source field %q (target %q) is missing", e.SourceField, e.TargetField)
}

// SourceFetchError reports a failure to read a campaign from its platform.
type SourceFetchError struct {
	Platform   string
	CampaignID string
	Retryable  bool
	Err        error
}

func (e *SourceFetchError) Error() string {
	kind := "permanent"
	if e.Retryable {
		kind = "transient"
	}
	return fmt.Sprintf("fetching %s campaign %q (%s): %v", e.Platform, e.CampaignID, kind, e.Err)
}

func (e *SourceFetchError) Unwrap() error { return e.Err }

// NotFoundError reports that the source platform has no such campaign.
type NotFoundError struct {
	Platform   string
	CampaignID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s campaign %q not found", e.Platform, e.CampaignID)
}

// UnsupportedPlatformError reports an unknown source or target platform.
type UnsupportedPlatformError struct {
	Platform string
	Role     string
}

func (e *UnsupportedPlatformError) Error() string {
	if e.Role != "" {
		return fmt.Sprintf("unsupported %s platform %q", e.Role, e.Platform)
	}
	return fmt.Sprintf("unsupported platform %q", e.Platform)
}

// SubmissionError reports a failure to create the campaign on the target.
// Partial is set when the target may have created it anyway.
type SubmissionError struct {
	Platform string
	Partial  bool
	Err      error
}

func (e *SubmissionError) Error() string {
	if e.Partial {
		return fmt.Sprintf("submission to %s ended ambiguously, the campaign may exist: %v", e.Platform, e.Err)
	}
	return fmt.Sprintf("submission to %s failed: %v", e.Platform, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// CancellationError reports that a migration stopped because its context ended.
type CancellationError struct {
	Stage Stage
	Err   error
}

func (e *CancellationError) Error() string {
	return fmt.Sprintf("migration cancelled during %s: %v", e.Stage, e.Err)
}

func (e *CancellationError) Unwrap() error { return e.Err }

// InvalidSchemaError lists every problem found in a schema definition set.
type InvalidSchemaError struct {
	Platform string
	Problems []string
}

func (e *InvalidSchemaError) Error() string {
	if e.Platform == "" {
		return "invalid schema: " + strings.Join(e.Problems, "; ")
	}
	return fmt.Sprintf("invalid schema for %q: %s", e.Platform, strings.Join(e.Problems, "; "))
}

// InvalidRulesError lists every problem found in a target rule set.
type InvalidRulesError struct {
	Platform string
	Problems []string
}

func (e *InvalidRulesError) Error() string {
	return fmt.Sprintf("invalid rules for %q: %s", e.Platform, strings.Join(e.Problems, "; "))
}

// Error kinds reported in MigrationReport.Error.Kind.
const (
	ErrKindSchemaNotFound      = "schema-not-found"
	ErrKindUnknownTransform    = "unknown-transform"
	ErrKindTransformExecution  = "transform-execution"
	ErrKindMissingRequired     = "missing-required-field"
	ErrKindSourceFetch         = "source-fetch"
	ErrKindNotFound            = "not-found"
	ErrKindUnsupportedPlatform = "unsupported-platform"
	ErrKindValidation          = "validation-failure"
	ErrKindSubmission          = "submission"
	ErrKindCancelled           = "cancelled"
	ErrKindInvalidSchema       = "invalid-schema"
	ErrKindInternal            = "internal"
)

// KindOf maps an error to a stable report kind.
func KindOf(err error) string {
	var (
		schemaNF    *SchemaNotFoundError
		unknownTr   *UnknownTransformError
		execErr     *TransformExecutionError
		missing     *MissingRequiredFieldError
		fetchErr    *SourceFetchError
		notFound    *NotFoundError
		unsupported *UnsupportedPlatformError
		submitErr   *SubmissionError
		cancelled   *CancellationError
		invalid     *InvalidSchemaError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &cancelled):
		return ErrKindCancelled
	case errors.As(err, &notFound):
		return ErrKindNotFound
	case errors.As(err, &fetchErr):
		return ErrKindSourceFetch
	case errors.As(err, &schemaNF):
		return ErrKindSchemaNotFound
	case errors.As(err, &unknownTr):
		return ErrKindUnknownTransform
	case errors.As(err, &execErr):
		return ErrKindTransformExecution
	case errors.As(err, &missing):
		return ErrKindMissingRequired
	case errors.As(err, &unsupported):
		return ErrKindUnsupportedPlatform
	case errors.As(err, &submitErr):
		return ErrKindSubmission
	case errors.As(err, &invalid):
		return ErrKindInvalidSchema
	// Transport timeouts inside the typed errors above also match
	// DeadlineExceeded, so bare context errors are checked last.
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrKindCancelled
	default:
		return ErrKindInternal
	}
}

// IsRetryable reports whether err is a transient source fetch failure.
func IsRetryable(err error) bool {
	var fetchErr *SourceFetchError
	return errors.As(err, &fetchErr) && fetchErr.Retryable
}
