package domain_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/adshift/adshift/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationReport_Fail(t *testing.T) {
	r := &domain.MigrationReport{}
	r.Fail(domain.StageFetching, &domain.SourceFetchError{Platform: "facebook", CampaignID: "1", Retryable: true, Err: errors.New("503")})

	assert.Equal(t, domain.OutcomeFailure, r.Outcome)
	assert.Equal(t, domain.StageFailed, r.Stage)
	require.NotNil(t, r.Error)
	assert.Equal(t, domain.ErrKindSourceFetch, r.Error.Kind)
	assert.True(t, r.Error.Retryable)
	assert.Equal(t, domain.StageFetching, r.Error.Stage)
	assert.Nil(t, r.TargetID)
}

func TestMigrationReport_SucceedDryRunHasNoTargetID(t *testing.T) {
	r := &domain.MigrationReport{}
	r.Succeed("")
	assert.Equal(t, domain.OutcomeSuccess, r.Outcome)
	assert.Nil(t, r.TargetID)

	r.Succeed("tb-1")
	require.NotNil(t, r.TargetID)
	assert.Equal(t, "tb-1", *r.TargetID)
}

func TestMigrationReport_JSONTargetIDNull(t *testing.T) {
	r := &domain.MigrationReport{ID: "x", StartedAt: time.Unix(0, 0).UTC()}
	r.FailValidation(domain.ValidationReport{Issues: []domain.ValidationIssue{{Field: "a", Kind: domain.IssueMissingRequired, Message: "is required"}}})

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"target_id":null`)
	assert.Contains(t, string(data), `"kind":"validation-failure"`)
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&domain.SchemaNotFoundError{Platform: "x"}, domain.ErrKindSchemaNotFound},
		{&domain.UnknownTransformError{Name: "x"}, domain.ErrKindUnknownTransform},
		{&domain.TransformExecutionError{Transform: "x", Err: errors.New("boom")}, domain.ErrKindTransformExecution},
		{&domain.MissingRequiredFieldError{SourceField: "a"}, domain.ErrKindMissingRequired},
		{&domain.NotFoundError{Platform: "p", CampaignID: "1"}, domain.ErrKindNotFound},
		{&domain.SourceFetchError{Err: errors.New("x")}, domain.ErrKindSourceFetch},
		{&domain.UnsupportedPlatformError{Platform: "x"}, domain.ErrKindUnsupportedPlatform},
		{&domain.SubmissionError{Err: errors.New("x")}, domain.ErrKindSubmission},
		{&domain.CancellationError{Stage: domain.StageMapping, Err: context.Canceled}, domain.ErrKindCancelled},
		{fmt.Errorf("wrapped: %w", context.DeadlineExceeded), domain.ErrKindCancelled},
		{&domain.SourceFetchError{Retryable: true, Err: fmt.Errorf("http request: %w", context.DeadlineExceeded)}, domain.ErrKindSourceFetch},
		{&domain.SubmissionError{Err: fmt.Errorf("http request: %w", context.DeadlineExceeded)}, domain.ErrKindSubmission},
		{errors.New("mystery"), domain.ErrKindInternal},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.KindOf(tt.err), "%v", tt.err)
	}
}

func TestSubmissionError_PartialMessage(t *testing.T) {
	err := &domain.SubmissionError{Platform: "taboola", Partial: true, Err: context.DeadlineExceeded}
	assert.Contains(t, err.Error(), "may exist")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBatchReport_Tally(t *testing.T) {
	b := &domain.BatchReport{Reports: []*domain.MigrationReport{
		{Outcome: domain.OutcomeSuccess},
		{Outcome: domain.OutcomeFailure},
		{Outcome: domain.OutcomePartial},
		{Outcome: domain.OutcomeSuccess},
	}}
	b.Tally()
	assert.Equal(t, 2, b.Succeeded)
	assert.Equal(t, 1, b.Partial)
	assert.Equal(t, 1, b.Failed)
}

func TestRetryPolicy_Delay(t *testing.T) {
	p := domain.RetryPolicy{MaxAttempts: 5, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, p.Delay(1, nil))
	assert.Equal(t, 200*time.Millisecond, p.Delay(2, nil))
	assert.Equal(t, 400*time.Millisecond, p.Delay(3, nil))
	assert.Equal(t, time.Second, p.Delay(10, nil))
}

func TestRetryPolicy_DelayJitterBounds(t *testing.T) {
	p := domain.RetryPolicy{MaxAttempts: 3, BaseDelay: 100 * time.Millisecond, Multiplier: 2, Jitter: 0.5}
	assert.Equal(t, 50*time.Millisecond, p.Delay(1, func() float64 { return 0 }))
	assert.Equal(t, 100*time.Millisecond, p.Delay(1, nil))
	assert.InDelta(t, float64(150*time.Millisecond), float64(p.Delay(1, func() float64 { return 0.9999999 })), float64(time.Millisecond))
}

func TestRetryPolicy_Validate(t *testing.T) {
	assert.NoError(t, domain.DefaultRetryPolicy().Validate())
	assert.Error(t, domain.RetryPolicy{MaxAttempts: 0}.Validate())
	assert.NoError(t, domain.RetryPolicy{MaxAttempts: domain.MaxRetryAttempts}.Validate())
	assert.ErrorContains(t, domain.RetryPolicy{MaxAttempts: domain.MaxRetryAttempts + 1}.Validate(), "between 1 and 10")
	assert.Error(t, domain.RetryPolicy{MaxAttempts: 1, BaseDelay: time.Second, MaxDelay: time.Millisecond}.Validate())
	assert.Error(t, domain.RetryPolicy{MaxAttempts: 1, Multiplier: 0.5}.Validate())
	assert.Error(t, domain.RetryPolicy{MaxAttempts: 1, Jitter: 2}.Validate())
}
