package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// RawRecord is a campaign as returned by a source platform. It is treated as
// read-only once fetched.
type RawRecord map[string]Value

// NewRawRecord converts decoded JSON into a RawRecord.
func NewRawRecord(m map[string]any) (RawRecord, error) {
	rec := make(RawRecord, len(m))
	for k, x := range m {
		v, err := FromAny(x)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		rec[k] = v
	}
	return rec, nil
}

// Lookup resolves a parsed path against the record.
func (r RawRecord) Lookup(p FieldPath) (Value, bool) {
	return p.resolve(func(name string) (Value, bool) {
		v, ok := r[name]
		return v, ok
	})
}

// Clone returns a shallow copy of the record.
func (r RawRecord) Clone() RawRecord {
	out := make(RawRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Native converts the record to plain Go data.
func (r RawRecord) Native() map[string]any {
	m := make(map[string]any, len(r))
	for k, v := range r {
		m[k] = v.Native()
	}
	return m
}

// Field is a single named value of a CanonicalRecord.
type Field struct {
	Name  string
	Value Value
}

// CanonicalRecord is a record shaped for the target platform. Field order is
// the declaration order of the schema that produced it.
type CanonicalRecord struct {
	fields []Field
}

func NewCanonicalRecord(fields ...Field) CanonicalRecord {
	out := make([]Field, len(fields))
	copy(out, fields)
	return CanonicalRecord{fields: out}
}

func (r CanonicalRecord) Len() int { return len(r.fields) }

// Fields returns a copy of the ordered fields.
func (r CanonicalRecord) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

func (r CanonicalRecord) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

func (r CanonicalRecord) Get(name string) (Value, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Lookup resolves a dotted path such as "targeting.geo" against the record.
func (r CanonicalRecord) Lookup(path string) (Value, bool) {
	p, err := ParsePath(path)
	if err != nil {
		return Value{}, false
	}
	return p.resolve(r.Get)
}

// WithOverrides returns a copy with the given fields replaced or appended.
// A null override removes the field. New fields are appended in name order.
func (r CanonicalRecord) WithOverrides(overrides map[string]Value) CanonicalRecord {
	if len(overrides) == 0 {
		return NewCanonicalRecord(r.fields...)
	}

	out := make([]Field, 0, len(r.fields)+len(overrides))
	seen := make(map[string]bool, len(overrides))
	for _, f := range r.fields {
		ov, ok := overrides[f.Name]
		if !ok {
			out = append(out, f)
			continue
		}
		seen[f.Name] = true
		if !ov.IsNull() {
			out = append(out, Field{Name: f.Name, Value: ov})
		}
	}

	extra := make([]string, 0, len(overrides))
	for name := range overrides {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		if ov := overrides[name]; !ov.IsNull() {
			out = append(out, Field{Name: name, Value: ov})
		}
	}
	return CanonicalRecord{fields: out}
}

// Native converts the record to a plain map. Field order is lost.
func (r CanonicalRecord) Native() map[string]any {
	m := make(map[string]any, len(r.fields))
	for _, f := range r.fields {
		m[f.Name] = f.Value.Native()
	}
	return m
}

func (r CanonicalRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *CanonicalRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("canonical record must be a JSON object")
	}

	var fields []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}
		var v Value
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
		fields = append(fields, Field{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	r.fields = fields
	return nil
}
