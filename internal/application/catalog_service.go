package application

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adshift/adshift/internal/domain"
	"github.com/adshift/adshift/internal/domain/mapping"
)

// SchemaCatalog lists and resolves schema definitions.
type SchemaCatalog interface {
	SchemaSource
	ListPlatforms() []string
}

// TransformNamer lists registered transform names.
type TransformNamer interface {
	Names() []string
}

// MapResult is the outcome of a standalone mapping preview.
type MapResult struct {
	Platform string                 `json:"platform"`
	Record   domain.CanonicalRecord `json:"record"`
	Warnings []string               `json:"warnings,omitempty"`
}

// CatalogService answers read-only questions about platforms, schemas and
// rules, and runs mapping or validation on their own.
type CatalogService struct {
	schemas    SchemaCatalog
	adapters   *mapping.AdapterSet
	targets    *TargetSet
	validator  Validator
	transforms TransformNamer
	// sourceRules describe what raw records of a source platform look like.
	sourceRules map[string]domain.TargetRules
}

// CatalogOption customizes a CatalogService.
type CatalogOption func(*CatalogService)

// WithSourceRules adds rule sets for source platforms so raw records can be
// checked before mapping. Target rules take precedence on a name clash.
func WithSourceRules(rules ...domain.TargetRules) CatalogOption {
	return func(c *CatalogService) {
		for _, r := range rules {
			c.sourceRules[strings.ToLower(r.Platform)] = r
		}
	}
}

func NewCatalogService(
	schemas SchemaCatalog,
	adapters *mapping.AdapterSet,
	targets *TargetSet,
	validator Validator,
	transforms TransformNamer,
	opts ...CatalogOption,
) *CatalogService {
	c := &CatalogService{
		schemas:     schemas,
		adapters:    adapters,
		targets:     targets,
		validator:   validator,
		transforms:  transforms,
		sourceRules: make(map[string]domain.TargetRules),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Platforms lists the source platforms that have a schema.
func (c *CatalogService) Platforms() []string { return c.schemas.ListPlatforms() }

// Targets lists the configured target platforms.
func (c *CatalogService) Targets() []string { return c.targets.Platforms() }

func (c *CatalogService) TransformNames() []string { return c.transforms.Names() }

func (c *CatalogService) Schema(platform string) (domain.SchemaDefinition, error) {
	return c.schemas.Load(platform)
}

// Sample returns the example raw record declared with a platform's schema.
func (c *CatalogService) Sample(platform string) (domain.RawRecord, error) {
	def, err := c.schemas.Load(platform)
	if err != nil {
		return nil, err
	}
	if len(def.Sample) == 0 {
		return nil, fmt.Errorf("schema for %q declares no sample", platform)
	}
	return def.Sample.Clone(), nil
}

// Rules returns the rule set of a target platform, falling back to the
// source rule sets.
func (c *CatalogService) Rules(platform string) (domain.TargetRules, error) {
	t, err := c.targets.Get(platform)
	if err == nil {
		return t.Rules, nil
	}
	if r, ok := c.sourceRules[strings.ToLower(strings.TrimSpace(platform))]; ok {
		return r, nil
	}
	return domain.TargetRules{}, err
}

// RuleSets lists every platform with a rule set, sorted.
func (c *CatalogService) RuleSets() []string {
	seen := make(map[string]bool)
	for _, p := range c.targets.Platforms() {
		seen[p] = true
	}
	for p := range c.sourceRules {
		seen[p] = true
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Map converts raw with the source platform's schema without fetching,
// validating or submitting anything.
func (c *CatalogService) Map(source string, raw domain.RawRecord) (*MapResult, error) {
	adapter, err := c.adapters.Get(source)
	if err != nil {
		return nil, err
	}
	def, err := c.schemas.Load(source)
	if err != nil {
		return nil, err
	}
	rec, warnings, err := adapter.Map(raw, def)
	if err != nil {
		return nil, fmt.Errorf("mapping %s record: %w", source, err)
	}
	return &MapResult{Platform: adapter.Platform(), Record: rec, Warnings: warnings}, nil
}

// Validate checks a canonical record against a platform's rules.
func (c *CatalogService) Validate(platform string, record domain.CanonicalRecord) (domain.ValidationReport, error) {
	rules, err := c.Rules(platform)
	if err != nil {
		return domain.ValidationReport{}, err
	}
	return c.validator.Validate(record, rules), nil
}

// ValidateRaw checks a raw record as-is, with its top-level keys in sorted
// order.
func (c *CatalogService) ValidateRaw(platform string, raw domain.RawRecord) (domain.ValidationReport, error) {
	return c.Validate(platform, RecordFromRaw(raw))
}

// RecordFromRaw turns a raw record into a canonical one without mapping.
func RecordFromRaw(raw domain.RawRecord) domain.CanonicalRecord {
	names := make([]string, 0, len(raw))
	for k := range raw {
		names = append(names, k)
	}
	sort.Strings(names)
	fields := make([]domain.Field, len(names))
	for i, n := range names {
		fields[i] = domain.Field{Name: n, Value: raw[n]}
	}
	return domain.NewCanonicalRecord(fields...)
}
