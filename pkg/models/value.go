package models

import (
	"strconv"
)

// Value is a nullable scalar. The zero Value is null.
type Value struct {
	kind  FieldType
	valid bool
	s     string
	i     int64
	f     float64
	b     bool
}

// Null returns the null value
func Null() Value {
	return Value{}
}

// StringValue wraps a string
func StringValue(s string) Value {
	return Value{kind: FieldTypeString, valid: true, s: s}
}

// IntValue wraps an int64
func IntValue(i int64) Value {
	return Value{kind: FieldTypeInt, valid: true, i: i}
}

// FloatValue wraps a float64
func FloatValue(f float64) Value {
	return Value{kind: FieldTypeFloat, valid: true, f: f}
}

// BoolValue wraps a bool
func BoolValue(b bool) Value {
	return Value{kind: FieldTypeBool, valid: true, b: b}
}

// IsNull reports whether the value is null
func (v Value) IsNull() bool {
	return !v.valid
}

// Type returns the type of a non-null value, or "" for null
func (v Value) Type() FieldType {
	return v.kind
}

// String renders the textual form. Null renders as "".
func (v Value) String() string {
	if !v.valid {
		return ""
	}
	switch v.kind {
	case FieldTypeInt:
		return strconv.FormatInt(v.i, 10)
	case FieldTypeFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case FieldTypeBool:
		return strconv.FormatBool(v.b)
	default:
		return v.s
	}
}

// Text returns the textual form and whether the value is non-null.
func (v Value) Text() (string, bool) {
	return v.String(), v.valid
}

// Int64 returns the integer held by an int value
func (v Value) Int64() (int64, bool) {
	if !v.valid || v.kind != FieldTypeInt {
		return 0, false
	}
	return v.i, true
}

// Float64 returns the number held by an int or float value
func (v Value) Float64() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	switch v.kind {
	case FieldTypeFloat:
		return v.f, true
	case FieldTypeInt:
		return float64(v.i), true
	}
	return 0, false
}

// Bool returns the boolean held by a bool value
func (v Value) Bool() (bool, bool) {
	if !v.valid || v.kind != FieldTypeBool {
		return false, false
	}
	return v.b, true
}

// Equal reports whether both values are null, or have the same type and
// content.
func (v Value) Equal(other Value) bool {
	return v == other
}
