package mapping

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/adshift/adshift/internal/domain"
)

// TransformLookup reports whether a transform name is registered.
type TransformLookup interface {
	Has(name string) bool
}

type schemaSet map[string]domain.SchemaDefinition

// SchemaStore holds validated schema definitions keyed by platform.
// Readers always observe a complete set; Swap replaces it atomically.
type SchemaStore struct {
	transforms TransformLookup
	current    atomic.Pointer[schemaSet]
}

// NewSchemaStore validates defs and returns a store holding them. Any
// invalid definition fails construction.
func NewSchemaStore(transforms TransformLookup, defs ...domain.SchemaDefinition) (*SchemaStore, error) {
	s := &SchemaStore{transforms: transforms}
	if err := s.Swap(defs...); err != nil {
		return nil, err
	}
	return s, nil
}

// Swap validates a replacement set of definitions and publishes it.
func (s *SchemaStore) Swap(defs ...domain.SchemaDefinition) error {
	set, err := s.build(defs)
	if err != nil {
		return err
	}
	s.current.Store(&set)
	return nil
}

func (s *SchemaStore) build(defs []domain.SchemaDefinition) (schemaSet, error) {
	set := make(schemaSet, len(defs))
	var problems []string
	for _, def := range defs {
		key := normalizePlatform(def.Platform)
		if _, dup := set[key]; dup {
			problems = append(problems, fmt.Sprintf("platform %q defined twice", def.Platform))
			continue
		}
		if err := def.Validate(s.transforms.Has); err != nil {
			problems = append(problems, err.Error())
			continue
		}
		def.Platform = key
		set[key] = def
	}
	if len(problems) > 0 {
		return nil, &domain.InvalidSchemaError{Problems: problems}
	}
	return set, nil
}

// Load returns the schema for platform.
func (s *SchemaStore) Load(platform string) (domain.SchemaDefinition, error) {
	set := *s.current.Load()
	def, ok := set[normalizePlatform(platform)]
	if !ok {
		return domain.SchemaDefinition{}, &domain.SchemaNotFoundError{Platform: platform}
	}
	return def, nil
}

// ListPlatforms returns the platforms with a schema, sorted.
func (s *SchemaStore) ListPlatforms() []string {
	set := *s.current.Load()
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func normalizePlatform(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}
