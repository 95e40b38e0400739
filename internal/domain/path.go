package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PathSegment is one dotted component of a FieldPath, optionally followed
// by list indexes ("creatives[0]").
type PathSegment struct {
	Name    string
	Indexes []int
}

// FieldPath addresses a value inside a nested record.
type FieldPath struct {
	raw      string
	Segments []PathSegment
}

func (p FieldPath) String() string { return p.raw }

// ParsePath parses "field", "nested.field" and "list[0].field" paths.
func ParsePath(path string) (FieldPath, error) {
	if path == "" {
		return FieldPath{}, errors.New("empty path")
	}

	var segments []PathSegment
	for _, part := range strings.Split(path, ".") {
		if part == "" {
			return FieldPath{}, fmt.Errorf("invalid path %q: empty segment", path)
		}

		name := part
		var indexes []int
		if i := strings.IndexByte(part, '['); i >= 0 {
			name = part[:i]
			rest := part[i:]
			for rest != "" {
				if rest[0] != '[' {
					return FieldPath{}, fmt.Errorf("invalid path %q: unexpected %q", path, rest)
				}
				end := strings.IndexByte(rest, ']')
				if end < 0 {
					return FieldPath{}, fmt.Errorf("invalid path %q: unclosed index", path)
				}
				n, err := strconv.Atoi(rest[1:end])
				if err != nil || n < 0 {
					return FieldPath{}, fmt.Errorf("invalid path %q: bad index %q", path, rest[1:end])
				}
				indexes = append(indexes, n)
				rest = rest[end+1:]
			}
		}
		if name == "" {
			return FieldPath{}, fmt.Errorf("invalid path %q: index without field name", path)
		}

		segments = append(segments, PathSegment{Name: name, Indexes: indexes})
	}

	return FieldPath{raw: path, Segments: segments}, nil
}

// resolve walks the path starting from a lookup of the first segment name.
func (p FieldPath) resolve(first func(string) (Value, bool)) (Value, bool) {
	var cur Value
	for i, seg := range p.Segments {
		var ok bool
		if i == 0 {
			cur, ok = first(seg.Name)
		} else {
			cur, ok = cur.Field(seg.Name)
		}
		if !ok {
			return Value{}, false
		}
		for _, idx := range seg.Indexes {
			if cur, ok = cur.Index(idx); !ok {
				return Value{}, false
			}
		}
	}
	return cur, true
}

// Lookup resolves the path inside v, which must be an object at the root.
func (p FieldPath) Lookup(v Value) (Value, bool) {
	return p.resolve(v.Field)
}
