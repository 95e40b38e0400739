// Package mapping turns raw source-platform campaigns into canonical records
// using declarative schema definitions.
package mapping

import (
	"errors"
	"fmt"

	"github.com/adshift/adshift/internal/domain"
)

// Transformer applies named transforms.
type Transformer interface {
	Apply(name string, v domain.Value) (domain.Value, error)
}

// Mapper is the single mapping routine shared by every platform adapter.
type Mapper struct {
	transforms Transformer
}

func NewMapper(transforms Transformer) *Mapper {
	return &Mapper{transforms: transforms}
}

// Map applies schema to raw. Either every declared target field is produced
// in declaration order or an error is returned and nothing is produced.
// A source value that is absent or null is treated as missing.
func (m *Mapper) Map(raw domain.RawRecord, schema domain.SchemaDefinition) (domain.CanonicalRecord, error) {
	rec, _, err := m.MapWithWarnings(raw, schema)
	return rec, err
}

// MapWithWarnings is Map that also returns the warnings of the mappings
// whose source value was missing, in declaration order.
func (m *Mapper) MapWithWarnings(raw domain.RawRecord, schema domain.SchemaDefinition) (domain.CanonicalRecord, []string, error) {
	fields := make([]domain.Field, 0, len(schema.Fields))
	var warnings []string

	for _, fm := range schema.Fields {
		v, missing, err := m.mapField(raw, fm)
		if err != nil {
			return domain.CanonicalRecord{}, nil, err
		}
		if missing && fm.Warning != "" {
			warnings = append(warnings, fm.Target+": "+fm.Warning)
		}
		fields = append(fields, domain.Field{Name: fm.Target, Value: v})
	}

	return domain.NewCanonicalRecord(fields...), warnings, nil
}

// mapField reports missing when the source value was absent and the
// default (or null) was used instead.
func (m *Mapper) mapField(raw domain.RawRecord, fm domain.FieldMapping) (domain.Value, bool, error) {
	v, found, err := lookup(raw, fm.Source)
	if err != nil {
		return domain.Value{}, false, fmt.Errorf("field %q: %w", fm.Target, err)
	}

	if !found {
		if fm.Required {
			return domain.Value{}, false, &domain.MissingRequiredFieldError{SourceField: fm.Source, TargetField: fm.Target}
		}
		if fm.Default != nil {
			return *fm.Default, true, nil
		}
		return domain.Null(), true, nil
	}

	if fm.Transform != "" {
		v, err = m.transforms.Apply(fm.Transform, v)
		if err != nil {
			var exec *domain.TransformExecutionError
			if errors.As(err, &exec) {
				exec.Field = fm.Target
			}
			return domain.Value{}, false, err
		}
	}

	if fm.Cast != "" {
		cast, err := domain.Coerce(v, fm.Cast)
		if err != nil {
			return domain.Value{}, false, &domain.TransformExecutionError{
				Transform: "cast:" + string(fm.Cast),
				Field:     fm.Target,
				Input:     v,
				Err:       err,
			}
		}
		v = cast
	}

	if v.IsNull() && fm.Required {
		return domain.Value{}, false, &domain.MissingRequiredFieldError{SourceField: fm.Source, TargetField: fm.Target}
	}
	return v, false, nil
}

func lookup(raw domain.RawRecord, source string) (domain.Value, bool, error) {
	if source == "" {
		return domain.Value{}, false, nil
	}
	p, err := domain.ParsePath(source)
	if err != nil {
		return domain.Value{}, false, err
	}
	v, ok := raw.Lookup(p)
	if !ok || v.IsNull() {
		return domain.Value{}, false, nil
	}
	return v, true, nil
}
