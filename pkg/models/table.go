package models

import (
	"fmt"
	"sort"
	"strings"
)

// Row is an ordered tuple of values aligned with a table's schema
type Row []Value

// Table is an immutable, schema-uniform collection of rows. Every transform
// produces a new Table; nothing exported mutates one after Build.
type Table struct {
	schema Schema
	rows   []Row
}

// Schema returns the table schema
func (t *Table) Schema() Schema {
	return t.schema
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.rows)
}

// Row returns the i-th row. The returned slice must not be modified.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Rows returns every row. The returned slices must not be modified.
func (t *Table) Rows() []Row {
	return t.rows
}

// ColumnIndex returns the index of the named column
func (t *Table) ColumnIndex(name string) (int, bool) {
	idx := t.schema.Index(name)
	return idx, idx >= 0
}

// SortedStrings renders every row as delimited text and sorts the result.
// Used to compare tables independent of row order.
func (t *Table) SortedStrings() []string {
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		parts := make([]string, len(row))
		for j, v := range row {
			if v.IsNull() {
				parts[j] = "<null>"
			} else {
				parts[j] = v.String()
			}
		}
		out[i] = strings.Join(parts, "\x1f")
	}
	sort.Strings(out)
	return out
}

// TableBuilder accumulates rows that conform to a schema
type TableBuilder struct {
	schema Schema
	rows   []Row
}

// NewTableBuilder starts a table with the given schema
func NewTableBuilder(schema Schema) *TableBuilder {
	return &TableBuilder{schema: schema}
}

// Grow reserves room for n more rows
func (b *TableBuilder) Grow(n int) {
	if free := cap(b.rows) - len(b.rows); free < n {
		rows := make([]Row, len(b.rows), len(b.rows)+n)
		copy(rows, b.rows)
		b.rows = rows
	}
}

// Append adds one row after checking its width, types and nullability
func (b *TableBuilder) Append(values ...Value) error {
	if len(values) != len(b.schema.Fields) {
		return fmt.Errorf("row has %d values, schema %s has %d columns",
			len(values), b.schema.Name, len(b.schema.Fields))
	}
	for i, v := range values {
		f := b.schema.Fields[i]
		if v.IsNull() {
			if !f.Nullable {
				return fmt.Errorf("column %q is not nullable", f.Name)
			}
			continue
		}
		if v.Type() != f.Type {
			return fmt.Errorf("column %q expects %s, got %s", f.Name, f.Type, v.Type())
		}
	}
	row := make(Row, len(values))
	copy(row, values)
	b.rows = append(b.rows, row)
	return nil
}

// Len returns the number of rows appended so far
func (b *TableBuilder) Len() int {
	return len(b.rows)
}

// Build returns the table. The builder must not be used afterwards.
func (b *TableBuilder) Build() *Table {
	t := &Table{schema: b.schema, rows: b.rows}
	b.rows = nil
	return t
}

// NewTable is a convenience for building a table from literal rows
func NewTable(schema Schema, rows ...Row) (*Table, error) {
	b := NewTableBuilder(schema)
	b.Grow(len(rows))
	for i, r := range rows {
		if err := b.Append(r...); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.Build(), nil
}
