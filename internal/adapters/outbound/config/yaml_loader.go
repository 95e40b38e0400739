package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adshift/adshift/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the working directory.
const FileName = ".adshift.yaml"

// YAMLLoader reads .adshift.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .adshift.yaml from dir.
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(dir string) (domain.AppConfig, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.AppConfig{}, err
	}

	var cfg domain.AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.AppConfig{}, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	// Validate before merging so typos in the user's file are not masked by defaults.
	if err := cfg.Validate(); err != nil {
		return domain.AppConfig{}, fmt.Errorf("invalid %s: %w", FileName, err)
	}

	cfg = mergeConfig(domain.DefaultConfig(), cfg)
	resolveDirs(dir, &cfg)
	return cfg, nil
}

// mergeConfig overlays explicit values on top of the defaults.
// Explicit (non-zero) values always win.
func mergeConfig(base, override domain.AppConfig) domain.AppConfig {
	result := base

	result.SchemasDir = override.SchemasDir
	result.RulesDir = override.RulesDir

	if override.Retry != nil {
		result.Retry = override.Retry
	}

	// Explicit source and target maps replace the demo defaults entirely.
	if len(override.Sources) > 0 {
		result.Sources = override.Sources
	}
	if len(override.Targets) > 0 {
		result.Targets = override.Targets
	}

	if override.ReportStore.Kind != "" {
		result.ReportStore = override.ReportStore
	}
	if override.BatchConcurrency > 0 {
		result.BatchConcurrency = override.BatchConcurrency
	}

	return result
}

// resolveDirs makes relative directories relative to the config file.
func resolveDirs(dir string, cfg *domain.AppConfig) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	cfg.SchemasDir = abs(cfg.SchemasDir)
	cfg.RulesDir = abs(cfg.RulesDir)
	for name, s := range cfg.Sources {
		s.Dir = abs(s.Dir)
		cfg.Sources[name] = s
	}
}
