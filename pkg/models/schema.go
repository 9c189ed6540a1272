// Package models provides the tabular data model shared by every Canopy
// component: nullable scalar values, rows, schemas and immutable tables, plus
// the column contract of the street tree dataset.
package models

import "strings"

// FieldType represents the data type of a field
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
)

// Field represents a field in the schema
type Field struct {
	Name        string
	Type        FieldType
	Description string
	Nullable    bool
}

// Schema represents the ordered columns of a table
type Schema struct {
	Name   string
	Fields []Field
}

// NewSchema builds a schema from fields
func NewSchema(name string, fields ...Field) Schema {
	return Schema{Name: name, Fields: fields}
}

// Index returns the position of the named column, or -1
func (s Schema) Index(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns the column names in order
func (s Schema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Len returns the number of columns
func (s Schema) Len() int {
	return len(s.Fields)
}

// Equal reports whether both schemas have the same column names and types
// in the same order. Names and descriptions of the schemas are ignored.
func (s Schema) Equal(other Schema) bool {
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for i := range s.Fields {
		if s.Fields[i].Name != other.Fields[i].Name || s.Fields[i].Type != other.Fields[i].Type {
			return false
		}
	}
	return true
}

// String renders the schema as name:type pairs
func (s Schema) String() string {
	parts := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		parts[i] = f.Name + ":" + string(f.Type)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
