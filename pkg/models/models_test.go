package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func treeSchema() Schema {
	return NewSchema("trees",
		Field{Name: ColumnTreeID, Type: FieldTypeInt},
		Field{Name: ColumnSpecies, Type: FieldTypeString, Nullable: true},
	)
}

func TestParseSpecies(t *testing.T) {
	tests := []struct {
		in      string
		want    Species
		wantSep bool
	}{
		{"Ficus microcarpa nitida 'Green Gem' :: Indian Laurel Fig Tree 'Green Gem'",
			Species{"Ficus microcarpa nitida 'Green Gem'", "Indian Laurel Fig Tree 'Green Gem'"}, true},
		{"Tree(s) ::", Species{"Tree(s)", ""}, true},
		{"::", Species{"", ""}, true},
		{"Platanus x hispanica", Species{"Platanus x hispanica", ""}, false},
		{"a :: b :: c", Species{"a", "b"}, true},
		{"  Pinus  ::   Monterey Pine  ", Species{"Pinus", "Monterey Pine"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSpecies(tt.in)
			assert.Equal(t, tt.wantSep, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpeciesHasSubtype(t *testing.T) {
	s, _ := ParseSpecies("Tree(s) :: ")
	assert.False(t, s.HasSubtype())
	s, _ = ParseSpecies("Prunus :: Cherry Plum")
	assert.True(t, s.HasSubtype())
	assert.Equal(t, "Prunus :: Cherry Plum", s.String())
}

func TestValueNullAndText(t *testing.T) {
	assert.True(t, Null().IsNull())
	assert.True(t, Null().Equal(Value{}))

	text, ok := Null().Text()
	assert.False(t, ok)
	assert.Empty(t, text)

	text, ok = IntValue(42).Text()
	assert.True(t, ok)
	assert.Equal(t, "42", text)

	assert.Equal(t, "1.5", FloatValue(1.5).String())
	assert.Equal(t, "true", BoolValue(true).String())

	f, ok := IntValue(3).Float64()
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = StringValue("3").Int64()
	assert.False(t, ok)

	assert.False(t, IntValue(1).Equal(StringValue("1")))
}

func TestSchemaIndexAndEqual(t *testing.T) {
	s := treeSchema()
	assert.Equal(t, 1, s.Index(ColumnSpecies))
	assert.Equal(t, -1, s.Index(ColumnAddress))
	assert.Equal(t, []string{"tree_id", "species"}, s.Names())
	assert.Equal(t, "(tree_id:int, species:string)", s.String())

	other := treeSchema()
	other.Name = "renamed"
	assert.True(t, s.Equal(other))

	other.Fields[0].Type = FieldTypeString
	assert.False(t, s.Equal(other))
}

func TestNewTableValidatesRows(t *testing.T) {
	s := treeSchema()

	tbl, err := NewTable(s,
		Row{IntValue(1), StringValue("Prunus :: Cherry Plum")},
		Row{IntValue(2), Null()},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.True(t, tbl.Row(1)[1].IsNull())

	idx, ok := tbl.ColumnIndex(ColumnSpecies)
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	_, err = NewTable(s, Row{IntValue(1)})
	assert.Error(t, err, "short row")

	_, err = NewTable(s, Row{StringValue("x"), Null()})
	assert.Error(t, err, "type mismatch")

	_, err = NewTable(s, Row{Null(), Null()})
	assert.Error(t, err, "null in non-nullable column")
}

func TestTableBuilderCopiesRows(t *testing.T) {
	b := NewTableBuilder(treeSchema())
	row := Row{IntValue(1), StringValue("a")}
	require.NoError(t, b.Append(row...))
	row[1] = StringValue("mutated")

	tbl := b.Build()
	assert.Equal(t, "a", tbl.Row(0)[1].String())
}

func TestSortedStrings(t *testing.T) {
	tbl, err := NewTable(treeSchema(),
		Row{IntValue(2), Null()},
		Row{IntValue(1), StringValue("a")},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"1\x1fa", "2\x1f<null>"}, tbl.SortedStrings())
}

func TestMissingColumns(t *testing.T) {
	assert.Equal(t, []string{ColumnAddress, ColumnLegalStatus, ColumnPermitNotes},
		MissingColumns(treeSchema(), TreeColumns))
	assert.Empty(t, MissingColumns(treeSchema(), []string{ColumnTreeID}))
}
