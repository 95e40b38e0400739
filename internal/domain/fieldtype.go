package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldType names a declared type for casts and target field rules.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeFloat   FieldType = "float"
	TypeInteger FieldType = "integer"
	TypeBoolean FieldType = "boolean"
	TypeObject  FieldType = "object"
	TypeArray   FieldType = "array"
)

// CastTypes are the types a field mapping may cast its value to.
var CastTypes = []FieldType{TypeString, TypeNumber, TypeFloat, TypeInteger, TypeBoolean}

// RuleTypes are the types a target field rule may require.
var RuleTypes = []FieldType{TypeString, TypeNumber, TypeFloat, TypeInteger, TypeBoolean, TypeObject, TypeArray}

// IsCastType reports whether t can be used as a mapping cast.
func (t FieldType) IsCastType() bool { return isOneOfKind(t, CastTypes) }

// IsRuleType reports whether t can be used in a field rule.
func (t FieldType) IsRuleType() bool { return isOneOfKind(t, RuleTypes) }

// Matches reports whether v already has type t. Null never matches.
func (t FieldType) Matches(v Value) bool {
	switch t {
	case TypeString:
		return v.kind == KindString
	case TypeNumber, TypeFloat:
		return v.kind == KindNumber
	case TypeInteger:
		return v.IsInteger()
	case TypeBoolean:
		return v.kind == KindBool
	case TypeObject:
		return v.kind == KindObject
	case TypeArray:
		return v.kind == KindList
	}
	return false
}

// Coerce converts v to type t. Null passes through unchanged.
func Coerce(v Value, t FieldType) (Value, error) {
	if v.IsNull() {
		return v, nil
	}
	switch t {
	case TypeString:
		return coerceString(v)
	case TypeNumber, TypeFloat:
		return coerceNumber(v)
	case TypeInteger:
		return coerceInteger(v)
	case TypeBoolean:
		return coerceBool(v)
	}
	return Value{}, fmt.Errorf("unsupported cast type %q", t)
}

func coerceString(v Value) (Value, error) {
	switch v.kind {
	case KindString:
		return v, nil
	case KindNumber:
		return String(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindBool:
		return String(strconv.FormatBool(v.b)), nil
	}
	return Value{}, fmt.Errorf("cannot cast %s to string", v.kind)
}

func coerceNumber(v Value) (Value, error) {
	switch v.kind {
	case KindNumber:
		return v, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return Value{}, fmt.Errorf("cannot cast %q to number", v.str)
		}
		return Number(f), nil
	case KindBool:
		if v.b {
			return Number(1), nil
		}
		return Number(0), nil
	}
	return Value{}, fmt.Errorf("cannot cast %s to number", v.kind)
}

func coerceInteger(v Value) (Value, error) {
	n, err := coerceNumber(v)
	if err != nil {
		return Value{}, fmt.Errorf("cannot cast %s to integer", v)
	}
	if v.kind == KindString && !n.IsInteger() {
		return Value{}, fmt.Errorf("cannot cast %q to integer", v.str)
	}
	return Number(math.Trunc(n.num)), nil
}

func coerceBool(v Value) (Value, error) {
	switch v.kind {
	case KindBool:
		return v, nil
	case KindNumber:
		return Bool(v.num != 0), nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(v.str)) {
		case "true", "t", "yes", "y", "1", "on":
			return Bool(true), nil
		case "false", "f", "no", "n", "0", "off", "":
			return Bool(false), nil
		}
		return Value{}, fmt.Errorf("cannot cast %q to boolean", v.str)
	}
	return Value{}, fmt.Errorf("cannot cast %s to boolean", v.kind)
}
