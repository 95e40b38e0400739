package domain

import (
	"errors"
	"time"
)

// Outcome is the final result class of a migration.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Stage is a state of the migration state machine.
type Stage string

const (
	StageFetching   Stage = "fetching"
	StageMapping    Stage = "mapping"
	StageValidating Stage = "validating"
	StageSubmitting Stage = "submitting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// MigrationRequest asks to move one campaign from Source to Target.
// Overrides replace canonical fields after mapping; a null override
// removes the field.
type MigrationRequest struct {
	Source     string           `json:"source"`
	Target     string           `json:"target"`
	CampaignID string           `json:"campaign_id"`
	DryRun     bool             `json:"dry_run"`
	Overrides  map[string]Value `json:"overrides,omitempty"`
}

// ReportError describes why a migration did not succeed.
type ReportError struct {
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	// Stage is where the error occurred.
	Stage Stage `json:"stage"`
}

// MigrationReport is the single structured result of a migration request.
type MigrationReport struct {
	ID               string            `json:"id"`
	SourcePlatform   string            `json:"source_platform"`
	TargetPlatform   string            `json:"target_platform"`
	SourceCampaignID string            `json:"source_campaign_id"`
	Outcome          Outcome           `json:"outcome"`
	Stage            Stage             `json:"stage"`
	DryRun           bool              `json:"dry_run"`
	Validation       *ValidationReport `json:"validation"`
	TargetID         *string           `json:"target_id"`
	Error            *ReportError      `json:"error,omitempty"`
	Warnings         []string          `json:"warnings,omitempty"`
	SchemaRevision   string            `json:"schema_revision,omitempty"`
	Canonical        *CanonicalRecord  `json:"canonical,omitempty"`
	StartedAt        time.Time         `json:"started_at"`
	FinishedAt       time.Time         `json:"finished_at"`
}

// Duration is the wall time between start and finish.
func (r *MigrationReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Fail records err against stage and marks the report failed.
func (r *MigrationReport) Fail(stage Stage, err error) {
	r.Outcome = OutcomeFailure
	r.Stage = StageFailed
	r.Error = &ReportError{
		Kind:      KindOf(err),
		Message:   err.Error(),
		Retryable: IsRetryable(err),
		Stage:     stage,
	}
}

// Partial marks the report as an ambiguous submission.
func (r *MigrationReport) Partial(err error) {
	r.Outcome = OutcomePartial
	r.Stage = StageFailed
	r.Error = &ReportError{
		Kind:    ErrKindSubmission,
		Message: err.Error(),
		Stage:   StageSubmitting,
	}
}

// FailValidation marks the report failed because the canonical record did
// not satisfy the target rules.
func (r *MigrationReport) FailValidation(v ValidationReport) {
	r.Validation = &v
	r.Outcome = OutcomeFailure
	r.Stage = StageFailed
	r.Error = &ReportError{
		Kind:    ErrKindValidation,
		Message: v.Summary(),
		Stage:   StageValidating,
	}
}

// Succeed marks the report done. targetID is empty for dry runs.
func (r *MigrationReport) Succeed(targetID string) {
	r.Outcome = OutcomeSuccess
	r.Stage = StageDone
	if targetID != "" {
		r.TargetID = &targetID
	}
}

// BatchRequest migrates a set of already-fetched raw records.
type BatchRequest struct {
	Source  string      `json:"source"`
	Target  string      `json:"target"`
	Records []RawRecord `json:"records"`
	IDField string      `json:"id_field,omitempty"`
	DryRun  bool        `json:"dry_run"`
}

// BatchReport aggregates per-record reports in input order.
type BatchReport struct {
	SourcePlatform string             `json:"source_platform"`
	TargetPlatform string             `json:"target_platform"`
	Reports        []*MigrationReport `json:"reports"`
	Succeeded      int                `json:"succeeded"`
	Partial        int                `json:"partial"`
	Failed         int                `json:"failed"`
}

// Tally recomputes the outcome counters.
func (b *BatchReport) Tally() {
	b.Succeeded, b.Partial, b.Failed = 0, 0, 0
	for _, r := range b.Reports {
		switch r.Outcome {
		case OutcomeSuccess:
			b.Succeeded++
		case OutcomePartial:
			b.Partial++
		default:
			b.Failed++
		}
	}
}

// ErrEmptyBatch is returned when a batch has no records.
var ErrEmptyBatch = errors.New("batch contains no records")
