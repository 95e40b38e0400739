package config

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/adshift/adshift/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed defaults
var defaultsFS embed.FS

// SchemaLoader reads schema definitions and target rules from YAML files,
// one platform per file. An empty directory selects the embedded defaults.
type SchemaLoader struct{}

func NewSchemaLoader() *SchemaLoader { return &SchemaLoader{} }

type schemaFile struct {
	Platform    string         `yaml:"platform"`
	Description string         `yaml:"description"`
	Fields      []mappingFile  `yaml:"fields"`
	Sample      map[string]any `yaml:"sample"`
}

type mappingFile struct {
	Source    string           `yaml:"source"`
	Target    string           `yaml:"target"`
	Transform string           `yaml:"transform"`
	Cast      domain.FieldType `yaml:"cast"`
	Required  bool             `yaml:"required"`
	// Default is kept as a node so an absent key can be told apart from an
	// explicit null.
	Default yaml.Node `yaml:"default"`
	Warning string    `yaml:"warning"`
}

type rulesFile struct {
	Platform           string     `yaml:"platform"`
	Description        string     `yaml:"description"`
	AllowUnknownFields bool       `yaml:"allow_unknown_fields"`
	Fields             []ruleFile `yaml:"fields"`
}

type ruleFile struct {
	domain.FieldRule `yaml:",inline"`
	Allowed          []any `yaml:"allowed"`
}

// LoadSchemas reads every *.yaml or *.yml file in dir.
func (l *SchemaLoader) LoadSchemas(dir string) ([]domain.SchemaDefinition, error) {
	fsys, err := sourceFS(dir, "schemas")
	if err != nil {
		return nil, err
	}
	var defs []domain.SchemaDefinition
	err = eachYAML(fsys, func(name string, data []byte) error {
		def, err := ParseSchema(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		defs = append(defs, def)
		return nil
	})
	return defs, err
}

// LoadRules reads every rules file in dir and validates each rule set.
func (l *SchemaLoader) LoadRules(dir string) ([]domain.TargetRules, error) {
	fsys, err := sourceFS(dir, "rules")
	if err != nil {
		return nil, err
	}
	var out []domain.TargetRules
	err = eachYAML(fsys, func(name string, data []byte) error {
		rules, err := ParseRules(data)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		if err := rules.Validate(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		out = append(out, rules)
		return nil
	})
	return out, err
}

// ParseSchema decodes one schema definition. Semantic checks are left to
// the schema store.
func ParseSchema(data []byte) (domain.SchemaDefinition, error) {
	var f schemaFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.SchemaDefinition{}, err
	}

	def := domain.SchemaDefinition{
		Platform:    f.Platform,
		Description: f.Description,
		Fields:      make([]domain.FieldMapping, 0, len(f.Fields)),
	}
	for i, m := range f.Fields {
		fm := domain.FieldMapping{
			Source:    m.Source,
			Target:    m.Target,
			Transform: m.Transform,
			Cast:      m.Cast,
			Required:  m.Required,
			Warning:   m.Warning,
		}
		if m.Default.Kind != 0 {
			var raw any
			if err := m.Default.Decode(&raw); err != nil {
				return domain.SchemaDefinition{}, fmt.Errorf("fields[%d].default: %w", i, err)
			}
			v, err := domain.FromAny(raw)
			if err != nil {
				return domain.SchemaDefinition{}, fmt.Errorf("fields[%d].default: %w", i, err)
			}
			fm.Default = &v
		}
		def.Fields = append(def.Fields, fm)
	}

	if f.Sample != nil {
		sample, err := domain.NewRawRecord(f.Sample)
		if err != nil {
			return domain.SchemaDefinition{}, fmt.Errorf("sample: %w", err)
		}
		def.Sample = sample
	}
	return def, nil
}

// ParseRules decodes one target rule set.
func ParseRules(data []byte) (domain.TargetRules, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return domain.TargetRules{}, err
	}

	rules := domain.TargetRules{
		Platform:           f.Platform,
		Description:        f.Description,
		AllowUnknownFields: f.AllowUnknownFields,
		Fields:             make([]domain.FieldRule, 0, len(f.Fields)),
	}
	for i, r := range f.Fields {
		rule := r.FieldRule
		for _, a := range r.Allowed {
			v, err := domain.FromAny(a)
			if err != nil {
				return domain.TargetRules{}, fmt.Errorf("fields[%d].allowed: %w", i, err)
			}
			rule.Allowed = append(rule.Allowed, v)
		}
		rules.Fields = append(rules.Fields, rule)
	}
	return rules, nil
}

// sourceFS returns dir as a filesystem, or the embedded defaults/<kind>
// directory when dir is empty.
func sourceFS(dir, kind string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(defaultsFS, path.Join("defaults", kind))
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s directory: %w", kind, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}
	return os.DirFS(dir), nil
}

func eachYAML(fsys fs.FS, fn func(name string, data []byte) error) error {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		ext := strings.ToLower(path.Ext(e.Name()))
		if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if err := fn(name, data); err != nil {
			return err
		}
	}
	return nil
}
