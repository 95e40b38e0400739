package domain

import (
	"fmt"
	"strings"
	"time"
)

// SourceKind selects how campaigns are fetched from a source platform.
type SourceKind string

const (
	SourceHTTP    SourceKind = "http"
	SourceFixture SourceKind = "fixture"
	SourceSample  SourceKind = "sample"
)

// ValidSourceKinds enumerates all recognized source kinds.
var ValidSourceKinds = []SourceKind{SourceHTTP, SourceFixture, SourceSample}

// TargetKind selects how canonical records are submitted to a target.
type TargetKind string

const (
	TargetHTTP   TargetKind = "http"
	TargetMemory TargetKind = "memory"
)

// ValidTargetKinds enumerates all recognized target kinds.
var ValidTargetKinds = []TargetKind{TargetHTTP, TargetMemory}

// StoreKind selects where migration reports are kept.
type StoreKind string

const (
	StoreFile     StoreKind = "file"
	StorePostgres StoreKind = "postgres"
	StoreNone     StoreKind = "none"
)

// ValidStoreKinds enumerates all recognized report store kinds.
var ValidStoreKinds = []StoreKind{StoreFile, StorePostgres, StoreNone}

// AppConfig holds configuration loaded from .adshift.yaml.
type AppConfig struct {
	SchemasDir       string                  `yaml:"schemas_dir"       json:"schemas_dir,omitempty"`
	RulesDir         string                  `yaml:"rules_dir"         json:"rules_dir,omitempty"`
	Retry            *RetryPolicy            `yaml:"retry,omitempty"   json:"retry,omitempty"`
	Sources          map[string]SourceConfig `yaml:"sources"           json:"sources,omitempty"`
	Targets          map[string]TargetConfig `yaml:"targets"           json:"targets,omitempty"`
	ReportStore      ReportStoreConfig       `yaml:"report_store"      json:"report_store"`
	BatchConcurrency int                     `yaml:"batch_concurrency" json:"batch_concurrency,omitempty"`
}

// SourceConfig configures the fetcher for one source platform.
type SourceConfig struct {
	Kind         SourceKind        `yaml:"kind"          json:"kind"`
	BaseURL      string            `yaml:"base_url"      json:"base_url,omitempty"`
	PathTemplate string            `yaml:"path_template" json:"path_template,omitempty"`
	Headers      map[string]string `yaml:"headers"       json:"headers,omitempty"`
	Timeout      time.Duration     `yaml:"timeout"       json:"timeout,omitempty"`
	// RateLimit is requests per second; 0 disables limiting.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit,omitempty"`
	Burst     int     `yaml:"burst"      json:"burst,omitempty"`
	Dir       string  `yaml:"dir"        json:"dir,omitempty"`
}

// TargetConfig configures the submitter for one target platform.
type TargetConfig struct {
	Kind    TargetKind        `yaml:"kind"    json:"kind"`
	URL     string            `yaml:"url"     json:"url,omitempty"`
	Headers map[string]string `yaml:"headers" json:"headers,omitempty"`
	Timeout time.Duration     `yaml:"timeout" json:"timeout,omitempty"`
}

// ReportStoreConfig selects and configures the report store.
type ReportStoreConfig struct {
	Kind  StoreKind `yaml:"kind"  json:"kind,omitempty"`
	DSN   string    `yaml:"dsn"   json:"dsn,omitempty"`
	Table string    `yaml:"table" json:"table,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present:
// embedded schemas, sample sources, an in-memory target and file history.
func DefaultConfig() AppConfig {
	retry := DefaultRetryPolicy()
	return AppConfig{
		Retry: &retry,
		Sources: map[string]SourceConfig{
			"facebook": {Kind: SourceSample},
			"twitter":  {Kind: SourceSample},
		},
		Targets: map[string]TargetConfig{
			"taboola": {Kind: TargetMemory},
		},
		ReportStore:      ReportStoreConfig{Kind: StoreFile},
		BatchConcurrency: 4,
	}
}

// EffectiveRetry returns the configured retry policy or the default.
func (c AppConfig) EffectiveRetry() RetryPolicy {
	if c.Retry != nil {
		return *c.Retry
	}
	return DefaultRetryPolicy()
}

// Validate checks the config for invalid values and returns a descriptive error.
func (c AppConfig) Validate() error {
	if c.Retry != nil {
		if err := c.Retry.Validate(); err != nil {
			return err
		}
	}

	for name, s := range c.Sources {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("sources: platform name must not be empty")
		}
		if err := s.validate(name); err != nil {
			return err
		}
	}

	for name, t := range c.Targets {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("targets: platform name must not be empty")
		}
		if err := t.validate(name); err != nil {
			return err
		}
	}

	if c.ReportStore.Kind != "" && !isOneOfKind(c.ReportStore.Kind, ValidStoreKinds) {
		return fmt.Errorf("unknown report_store.kind %q (valid: file, postgres, none)", c.ReportStore.Kind)
	}
	if c.ReportStore.Kind == StorePostgres && c.ReportStore.DSN == "" {
		return fmt.Errorf("report_store.dsn is required for kind postgres")
	}

	if c.BatchConcurrency < 0 {
		return fmt.Errorf("batch_concurrency must be >= 0 (got %d)", c.BatchConcurrency)
	}

	return nil
}

func (s SourceConfig) validate(name string) error {
	if !isOneOfKind(s.Kind, ValidSourceKinds) {
		return fmt.Errorf("unknown sources.%s.kind %q (valid: http, fixture, sample)", name, s.Kind)
	}
	switch s.Kind {
	case SourceHTTP:
		if s.BaseURL == "" {
			return fmt.Errorf("sources.%s.base_url is required for kind http", name)
		}
	case SourceFixture:
		if s.Dir == "" {
			return fmt.Errorf("sources.%s.dir is required for kind fixture", name)
		}
	}
	if s.RateLimit < 0 {
		return fmt.Errorf("sources.%s.rate_limit must be >= 0", name)
	}
	if s.Burst < 0 {
		return fmt.Errorf("sources.%s.burst must be >= 0", name)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("sources.%s.timeout must be >= 0", name)
	}
	return nil
}

func (t TargetConfig) validate(name string) error {
	if !isOneOfKind(t.Kind, ValidTargetKinds) {
		return fmt.Errorf("unknown targets.%s.kind %q (valid: http, memory)", name, t.Kind)
	}
	if t.Kind == TargetHTTP && t.URL == "" {
		return fmt.Errorf("targets.%s.url is required for kind http", name)
	}
	if t.Timeout < 0 {
		return fmt.Errorf("targets.%s.timeout must be >= 0", name)
	}
	return nil
}

func isOneOfKind[K ~string](k K, valid []K) bool {
	for _, v := range valid {
		if k == v {
			return true
		}
	}
	return false
}
