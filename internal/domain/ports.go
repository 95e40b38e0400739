package domain

import "context"

// CampaignFetcher reads a single campaign from a source platform. Transient
// failures should be reported as *SourceFetchError with Retryable set, and a
// missing campaign as *NotFoundError.
type CampaignFetcher interface {
	FetchCampaign(ctx context.Context, campaignID string) (RawRecord, error)
}

// TargetSubmitter creates a campaign on a target platform and returns the
// platform-assigned id. Ambiguous outcomes are reported as *SubmissionError
// with Partial set.
type TargetSubmitter interface {
	CreateCampaign(ctx context.Context, record CanonicalRecord) (string, error)
}

// ReportStore persists migration reports. List returns the most recent
// reports, newest first; a limit <= 0 returns all of them.
type ReportStore interface {
	Save(ctx context.Context, report *MigrationReport) error
	List(ctx context.Context, limit int) ([]*MigrationReport, error)
}

// MigrationMetrics records migration outcomes.
type MigrationMetrics interface {
	ObserveMigration(report *MigrationReport)
	ObserveFetchRetry(platform string)
}

// SchemaRevision identifies the revision of the schema definitions in use.
type SchemaRevision interface {
	CommitHash(path string) (string, error)
}
