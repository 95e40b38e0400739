package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adshift/adshift/internal/adapters/outbound/config"
	"github.com/adshift/adshift/internal/adapters/outbound/gitinfo"
	"github.com/adshift/adshift/internal/adapters/outbound/history"
	"github.com/adshift/adshift/internal/adapters/outbound/metrics"
	"github.com/adshift/adshift/internal/adapters/outbound/platform"
	"github.com/adshift/adshift/internal/adapters/outbound/reportstore"
	"github.com/adshift/adshift/internal/adapters/outbound/target"
	"github.com/adshift/adshift/internal/application"
	"github.com/adshift/adshift/internal/domain"
	"github.com/adshift/adshift/internal/domain/mapping"
	"github.com/adshift/adshift/internal/domain/transform"
	"github.com/adshift/adshift/internal/domain/validation"
	"github.com/spf13/cobra"
)

// app holds the services built from a project's configuration.
type app struct {
	cfg        domain.AppConfig
	dir        string
	migrations *application.MigrationService
	catalog    *application.CatalogService
	store      domain.ReportStore
	metrics    *metrics.Prometheus
	closers    []func() error
}

// loadApp builds the app for the project selected by --dir.
func loadApp(cmd *cobra.Command) (*app, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(flagString(cmd, "dir"))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return buildApp(cmd.Context(), dir, logger)
}

func buildApp(ctx context.Context, dir string, logger *slog.Logger) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.New().Load(dir)
	if err != nil {
		return nil, err
	}

	// 1. Transforms are registered once, then frozen
	registry := domain.NewTransformRegistry()
	if err := transform.RegisterBuiltins(registry); err != nil {
		return nil, fmt.Errorf("registering transforms: %w", err)
	}
	registry.Freeze()

	// 2. Schemas and rules
	loader := config.NewSchemaLoader()
	defs, err := loader.LoadSchemas(cfg.SchemasDir)
	if err != nil {
		return nil, fmt.Errorf("loading schemas: %w", err)
	}
	schemas, err := mapping.NewSchemaStore(registry, defs...)
	if err != nil {
		return nil, err
	}
	ruleSets, err := loader.LoadRules(cfg.RulesDir)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	rulesByPlatform := make(map[string]domain.TargetRules, len(ruleSets))
	for _, r := range ruleSets {
		rulesByPlatform[strings.ToLower(r.Platform)] = r
	}

	// 3. Source adapters; every source needs a schema before startup completes
	mapper := mapping.NewMapper(registry)
	var adapters []*mapping.Adapter
	for _, name := range sortedKeys(cfg.Sources) {
		def, err := schemas.Load(name)
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", name, err)
		}
		fetcher, err := newFetcher(name, cfg.Sources[name], def)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, mapping.NewAdapter(name, fetcher, mapper))
	}

	// 4. Targets
	var targets []application.Target
	targetNames := make(map[string]bool, len(cfg.Targets))
	for _, name := range sortedKeys(cfg.Targets) {
		targetNames[strings.ToLower(name)] = true
		rules, ok := rulesByPlatform[strings.ToLower(name)]
		if !ok {
			return nil, fmt.Errorf("target %q has no rules file", name)
		}
		targets = append(targets, application.Target{
			Rules:     rules,
			Submitter: newSubmitter(name, cfg.Targets[name]),
		})
	}
	targetSet, err := application.NewTargetSet(targets...)
	if err != nil {
		return nil, err
	}
	var sourceRules []domain.TargetRules
	for _, r := range ruleSets {
		if !targetNames[strings.ToLower(r.Platform)] {
			sourceRules = append(sourceRules, r)
		}
	}

	a := &app{cfg: cfg, dir: dir, metrics: metrics.New()}

	// 5. Report store
	switch cfg.ReportStore.Kind {
	case domain.StorePostgres:
		pg, err := reportstore.Open(ctx, cfg.ReportStore.DSN, cfg.ReportStore.Table)
		if err != nil {
			return nil, err
		}
		a.store = pg
		a.closers = append(a.closers, pg.Close)
	case domain.StoreNone:
	default:
		a.store = history.New(dir)
	}

	var revision domain.SchemaRevision = gitinfo.New()
	revisionPath := dir
	if cfg.SchemasDir != "" {
		revisionPath = cfg.SchemasDir
	}

	adapterSet := mapping.NewAdapterSet(adapters...)
	engine := validation.New()
	opts := []application.Option{
		application.WithLogger(logger),
		application.WithMetrics(a.metrics),
		application.WithSchemaRevision(revision, revisionPath),
		application.WithBatchConcurrency(cfg.BatchConcurrency),
	}
	if a.store != nil {
		opts = append(opts, application.WithReportStore(a.store))
	}
	a.migrations = application.NewMigrationService(adapterSet, schemas, engine, targetSet, cfg.EffectiveRetry(), opts...)
	a.catalog = application.NewCatalogService(schemas, adapterSet, targetSet, engine, registry,
		application.WithSourceRules(sourceRules...))
	return a, nil
}

func newFetcher(name string, sc domain.SourceConfig, def domain.SchemaDefinition) (domain.CampaignFetcher, error) {
	switch sc.Kind {
	case domain.SourceHTTP:
		return platform.NewHTTPFetcher(platform.HTTPConfig{
			Platform:     name,
			BaseURL:      sc.BaseURL,
			PathTemplate: sc.PathTemplate,
			Headers:      sc.Headers,
			Timeout:      sc.Timeout,
			RateLimit:    sc.RateLimit,
			Burst:        sc.Burst,
		}), nil
	case domain.SourceFixture:
		return platform.NewFixtureFetcher(name, sc.Dir), nil
	default:
		if len(def.Sample) == 0 {
			return nil, fmt.Errorf("source %q uses kind sample but its schema declares no sample", name)
		}
		return platform.NewSampleFetcher(def.Sample), nil
	}
}

func newSubmitter(name string, tc domain.TargetConfig) domain.TargetSubmitter {
	if tc.Kind == domain.TargetHTTP {
		return target.NewHTTPSubmitter(target.HTTPConfig{
			Platform: name,
			URL:      tc.URL,
			Headers:  tc.Headers,
			Timeout:  tc.Timeout,
		})
	}
	return target.NewMemorySubmitter(name)
}

// Close releases resources held by the report store.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
