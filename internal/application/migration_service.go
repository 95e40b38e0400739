package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/adshift/adshift/internal/domain"
	"github.com/adshift/adshift/internal/domain/mapping"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SchemaSource resolves schema definitions by source platform.
type SchemaSource interface {
	Load(platform string) (domain.SchemaDefinition, error)
}

// Validator checks a canonical record against target rules.
type Validator interface {
	Validate(record domain.CanonicalRecord, rules domain.TargetRules) domain.ValidationReport
}

// MigrationService runs the migration state machine:
// fetching → mapping → validating → submitting → done, or failed from any
// state. It holds no per-request state and is safe for concurrent use.
type MigrationService struct {
	adapters  *mapping.AdapterSet
	schemas   SchemaSource
	validator Validator
	targets   *TargetSet
	retry     domain.RetryPolicy

	logger      *slog.Logger
	metrics     domain.MigrationMetrics
	store       domain.ReportStore
	revision    string
	concurrency int
	now         func() time.Time
	newID       func() string
	sleep       func(context.Context, time.Duration) error
	random      func() float64
}

// Option customizes a MigrationService.
type Option func(*MigrationService)

func WithLogger(l *slog.Logger) Option { return func(s *MigrationService) { s.logger = l } }

func WithMetrics(m domain.MigrationMetrics) Option {
	return func(s *MigrationService) { s.metrics = m }
}

func WithReportStore(r domain.ReportStore) Option {
	return func(s *MigrationService) { s.store = r }
}

// WithSchemaRevision stamps every report with the abbreviated commit of the
// schema definitions at path. Reports carry no revision when path is not
// under version control.
func WithSchemaRevision(rev domain.SchemaRevision, path string) Option {
	return func(s *MigrationService) {
		hash, err := rev.CommitHash(path)
		if err != nil {
			s.revision = ""
			return
		}
		if len(hash) > revisionLength {
			hash = hash[:revisionLength]
		}
		s.revision = hash
	}
}

const revisionLength = 12

func WithBatchConcurrency(n int) Option {
	return func(s *MigrationService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option { return func(s *MigrationService) { s.now = now } }

func WithIDGenerator(fn func() string) Option { return func(s *MigrationService) { s.newID = fn } }

// WithSleep replaces the backoff wait. fn must return ctx.Err() when ctx ends first.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *MigrationService) { s.sleep = fn }
}

// WithRandom replaces the jitter source. fn must return values in [0, 1).
func WithRandom(fn func() float64) Option { return func(s *MigrationService) { s.random = fn } }

func NewMigrationService(
	adapters *mapping.AdapterSet,
	schemas SchemaSource,
	validator Validator,
	targets *TargetSet,
	retry domain.RetryPolicy,
	opts ...Option,
) *MigrationService {
	s := &MigrationService{
		adapters:    adapters,
		schemas:     schemas,
		validator:   validator,
		targets:     targets,
		retry:       retry,
		logger:      slog.New(slog.DiscardHandler),
		concurrency: 4,
		now:         time.Now,
		newID:       uuid.NewString,
		sleep:       sleepContext,
		random:      rand.Float64,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate moves one campaign from req.Source to req.Target. Every failure is
// reported in the returned report; Migrate itself never fails.
func (s *MigrationService) Migrate(ctx context.Context, req domain.MigrationRequest) *domain.MigrationReport {
	report := s.newReport(req.Source, req.Target, req.CampaignID, req.DryRun)
	defer s.finish(ctx, report)

	log := s.logger.With("report_id", report.ID, "source", req.Source, "target", req.Target, "campaign_id", req.CampaignID)

	// 1. Resolve source adapter, schema and target
	adapter, schema, target, err := s.resolve(req.Source, req.Target)
	if err != nil {
		report.Fail(domain.StageFetching, err)
		return report
	}

	// 2. Fetch with retry
	log.Debug("stage", "stage", domain.StageFetching)
	raw, err := s.fetch(ctx, log, adapter, req.CampaignID)
	if err != nil {
		report.Fail(domain.StageFetching, err)
		return report
	}

	// 3. Map, validate, submit
	s.process(ctx, log, report, adapter, schema, target, raw, req.Overrides)
	return report
}

// MigrateRecords migrates already-fetched records with bounded concurrency.
// Reports are returned in input order.
func (s *MigrationService) MigrateRecords(ctx context.Context, req domain.BatchRequest) (*domain.BatchReport, error) {
	if len(req.Records) == 0 {
		return nil, domain.ErrEmptyBatch
	}

	batch := &domain.BatchReport{
		SourcePlatform: req.Source,
		TargetPlatform: req.Target,
		Reports:        make([]*domain.MigrationReport, len(req.Records)),
	}

	adapter, schema, target, resolveErr := s.resolve(req.Source, req.Target)

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, raw := range req.Records {
		g.Go(func() error {
			report := s.newReport(req.Source, req.Target, recordID(raw, req.IDField, i), req.DryRun)
			defer s.finish(ctx, report)

			if resolveErr != nil {
				report.Fail(domain.StageMapping, resolveErr)
			} else {
				log := s.logger.With("report_id", report.ID, "source", req.Source, "target", req.Target, "record", i)
				s.process(ctx, log, report, adapter, schema, target, raw, nil)
			}
			batch.Reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	batch.Tally()
	return batch, nil
}

func (s *MigrationService) resolve(source, target string) (*mapping.Adapter, domain.SchemaDefinition, Target, error) {
	adapter, err := s.adapters.Get(source)
	if err != nil {
		return nil, domain.SchemaDefinition{}, Target{}, err
	}
	schema, err := s.schemas.Load(source)
	if err != nil {
		return nil, domain.SchemaDefinition{}, Target{}, err
	}
	t, err := s.targets.Get(target)
	if err != nil {
		return nil, domain.SchemaDefinition{}, Target{}, err
	}
	return adapter, schema, t, nil
}

func (s *MigrationService) fetch(ctx context.Context, log *slog.Logger, adapter *mapping.Adapter, campaignID string) (domain.RawRecord, error) {
	attempts := min(max(s.retry.MaxAttempts, 1), domain.MaxRetryAttempts)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, &domain.CancellationError{Stage: domain.StageFetching, Err: err}
		}

		raw, err := adapter.Fetch(ctx, campaignID)
		if err == nil {
			return raw, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &domain.CancellationError{Stage: domain.StageFetching, Err: ctxErr}
		}
		if !domain.IsRetryable(err) || attempt >= attempts {
			return nil, err
		}

		delay := s.retry.Delay(attempt, s.random)
		log.Info("retrying fetch", "attempt", attempt, "delay", delay, "error", err)
		if s.metrics != nil {
			s.metrics.ObserveFetchRetry(adapter.Platform())
		}
		if err := s.sleep(ctx, delay); err != nil {
			return nil, &domain.CancellationError{Stage: domain.StageFetching, Err: err}
		}
	}
}

// process runs mapping, validation and submission for one raw record.
func (s *MigrationService) process(
	ctx context.Context,
	log *slog.Logger,
	report *domain.MigrationReport,
	adapter *mapping.Adapter,
	schema domain.SchemaDefinition,
	target Target,
	raw domain.RawRecord,
	overrides map[string]domain.Value,
) {
	// Mapping
	if !s.enter(ctx, log, report, domain.StageMapping) {
		return
	}
	record, warnings, err := adapter.Map(raw, schema)
	if err != nil {
		report.Fail(domain.StageMapping, err)
		return
	}
	record = record.WithOverrides(overrides)
	report.Canonical = &record
	report.Warnings = warnings

	// Validating
	if !s.enter(ctx, log, report, domain.StageValidating) {
		return
	}
	validation := s.validator.Validate(record, target.Rules)
	if !validation.Pass {
		report.FailValidation(validation)
		return
	}
	report.Validation = &validation

	// Submitting
	if report.DryRun {
		report.Succeed("")
		return
	}
	if !s.enter(ctx, log, report, domain.StageSubmitting) {
		return
	}
	id, err := target.Submitter.CreateCampaign(ctx, record)
	if err != nil {
		s.submitFailed(report, target, err)
		return
	}
	if id == "" {
		report.Partial(&domain.SubmissionError{
			Platform: report.TargetPlatform,
			Partial:  true,
			Err:      errors.New("target accepted the campaign without returning an id"),
		})
		return
	}
	report.Succeed(id)
}

// enter moves the report into stage unless the request has been cancelled.
func (s *MigrationService) enter(ctx context.Context, log *slog.Logger, report *domain.MigrationReport, stage domain.Stage) bool {
	if err := ctx.Err(); err != nil {
		report.Fail(stage, &domain.CancellationError{Stage: stage, Err: err})
		return false
	}
	report.Stage = stage
	log.Debug("stage", "stage", stage)
	return true
}

func (s *MigrationService) submitFailed(report *domain.MigrationReport, target Target, err error) {
	var subErr *domain.SubmissionError
	switch {
	case errors.As(err, &subErr) && subErr.Partial:
		report.Partial(err)
	case errors.As(err, &subErr):
		report.Fail(domain.StageSubmitting, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		// the request may already have reached the target
		report.Partial(&domain.SubmissionError{Platform: target.Rules.Platform, Partial: true, Err: err})
	default:
		report.Fail(domain.StageSubmitting, &domain.SubmissionError{Platform: target.Rules.Platform, Err: err})
	}
}

func (s *MigrationService) newReport(source, target, campaignID string, dryRun bool) *domain.MigrationReport {
	return &domain.MigrationReport{
		ID:               s.newID(),
		SourcePlatform:   source,
		TargetPlatform:   target,
		SourceCampaignID: campaignID,
		Stage:            domain.StageFetching,
		DryRun:           dryRun,
		SchemaRevision:   s.revision,
		StartedAt:        s.now(),
	}
}

func (s *MigrationService) finish(ctx context.Context, report *domain.MigrationReport) {
	report.FinishedAt = s.now()

	if s.store != nil {
		if err := s.store.Save(context.WithoutCancel(ctx), report); err != nil {
			s.logger.Warn("saving report", "report_id", report.ID, "error", err)
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveMigration(report)
	}

	attrs := []any{
		"report_id", report.ID,
		"source", report.SourcePlatform,
		"target", report.TargetPlatform,
		"outcome", report.Outcome,
		"duration", report.Duration(),
	}
	if report.Error != nil {
		s.logger.Warn("migration failed", append(attrs, "kind", report.Error.Kind, "error", report.Error.Message)...)
		return
	}
	s.logger.Info("migration finished", attrs...)
}

// recordID picks a campaign id for a batch record: idField, then "id",
// then "name", then its 1-based position.
func recordID(raw domain.RawRecord, idField string, index int) string {
	for _, key := range []string{idField, "id", "name"} {
		if key == "" {
			continue
		}
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s, ok := v.AsString(); ok && s != "" {
			return s
		}
		if n, ok := v.AsNumber(); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return fmt.Sprintf("record-%d", index+1)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
