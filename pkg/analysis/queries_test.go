package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/canopy/pkg/errors"
	"github.com/ajitpratap0/canopy/pkg/models"
	"github.com/ajitpratap0/canopy/pkg/testutil"
)

type row = testutil.TreeRow

func column(t *testing.T, tbl *models.Table, i int) []string {
	t.Helper()
	out := make([]string, tbl.Len())
	for r := 0; r < tbl.Len(); r++ {
		out[r] = tbl.Row(r)[i].String()
	}
	return out
}

func singleValue(t *testing.T, tbl *models.Table) int64 {
	t.Helper()
	require.Equal(t, 1, tbl.Len())
	require.Equal(t, 1, tbl.Schema().Len())
	v, ok := tbl.Row(0)[0].Int64()
	require.True(t, ok)
	return v
}

func speciesRows(species ...string) []row {
	rows := make([]row, len(species))
	for i, s := range species {
		rows[i] = row{Species: s}
	}
	return rows
}

func TestMostCommonSpeciesSubtypesDenseRank(t *testing.T) {
	tbl := testutil.TreeTable(t, speciesRows(
		"Prunus :: Cherry Plum", "Prunus :: Cherry Plum", "Prunus :: Cherry Plum",
		"Ficus :: Banyan Fig", "Ficus :: Banyan Fig",
		"Pinus :: Monterey Pine", "Pinus :: Monterey Pine",
		"Acacia :: Blackwood",
		"Tree(s) ::", "Platanus", "",
	)...)

	result, err := MostCommonSpeciesSubtypes(tbl, 2)
	require.NoError(t, err)

	assert.Equal(t, []string{ColumnSubtype, ColumnCount}, result.Schema().Names())
	assert.Equal(t, []string{"Cherry Plum", "Banyan Fig", "Monterey Pine"}, column(t, result, 0),
		"ties share rank 2 and are ordered by subtype")
	assert.Equal(t, []string{"3", "2", "2"}, column(t, result, 1))
}

func TestMostCommonSpeciesSubtypesFewerGroupsThanTopN(t *testing.T) {
	tbl := testutil.TreeTable(t, speciesRows("A :: x", "B :: y", "B :: y")...)

	result, err := MostCommonSpeciesSubtypes(tbl, 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "x"}, column(t, result, 0))
}

func TestMostCommonSpeciesSubtypesUsesSecondSegmentOnly(t *testing.T) {
	tbl := testutil.TreeTable(t, speciesRows("A :: x :: extra", "B :: x")...)

	result, err := MostCommonSpeciesSubtypes(tbl, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, column(t, result, 0))
	assert.Equal(t, []string{"2"}, column(t, result, 1))
}

func TestMostCommonSpeciesSubtypesRejectsTopN(t *testing.T) {
	tbl := testutil.TreeTable(t)
	_, err := MostCommonSpeciesSubtypes(tbl, 0)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeQuery))
}

func TestAddressWithMostTrees(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Address: "100 Main St"}, row{Address: "100 Main St"}, row{Address: "100 Main St"},
		row{Address: "200 Oak Ave"}, row{Address: "200 Oak Ave"},
		row{}, row{}, row{}, row{},
	)

	result, err := AddressWithMostTrees(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ColumnAddress}, result.Schema().Names())
	assert.Equal(t, []string{"100 Main St"}, column(t, result, 0), "null addresses never win")
}

func TestAddressWithMostTreesTies(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Address: "B St"}, row{Address: "A St"}, row{Address: "C St"},
		row{Address: "B St"}, row{Address: "A St"},
	)

	result, err := AddressWithMostTrees(tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"A St", "B St"}, column(t, result, 0))

	again, err := AddressWithMostTrees(tbl)
	require.NoError(t, err)
	assert.Equal(t, result.SortedStrings(), again.SortedStrings())
}

func TestAddressWithMostTreesEmpty(t *testing.T) {
	result, err := AddressWithMostTrees(testutil.TreeTable(t, row{}, row{}))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Len())
}

func TestCountSpeciesWithPermit(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Species: "Tree :: Banyan Fig", PermitNotes: "Permit 12345"},
		row{Species: "Tree :: Banyan Fig", PermitNotes: "none"},
		row{Species: "Tree :: Banyan Fig"},
		row{Species: "Ficus :: Banyan Fig Tree", PermitNotes: "Permit Number 42"},
		row{Species: "Tree :: banyan fig", PermitNotes: "Permit 1"},
		row{Species: "Prunus :: Cherry Plum", PermitNotes: "Permit 99"},
	)

	result, err := CountSpeciesWithPermit(tbl, "%Banyan Fig%", "BanyanTreeCount")
	require.NoError(t, err)
	assert.Equal(t, []string{"BanyanTreeCount"}, result.Schema().Names())
	assert.Equal(t, int64(2), singleValue(t, result))
}

func TestCountSpeciesWithPermitSpecExample(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Species: "Tree::Banyan Fig", PermitNotes: "Permit 12345"},
		row{Species: "Tree::Banyan Fig", PermitNotes: "none"},
	)
	result, err := CountSpeciesWithPermit(tbl, "%Banyan Fig%", "BanyanTreeCount")
	require.NoError(t, err)
	assert.Equal(t, int64(1), singleValue(t, result))
}

func TestCountSpeciesWithPermitZeroMatches(t *testing.T) {
	result, err := CountSpeciesWithPermit(testutil.TreeTable(t), "%Banyan Fig%", "BanyanTreeCount")
	require.NoError(t, err)
	assert.Equal(t, int64(0), singleValue(t, result))
}

func TestCountSpeciesWithPermitPatternWithoutWildcards(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Species: "Banyan Fig", PermitNotes: "Permit 1"},
		row{Species: "Tree :: Banyan Fig", PermitNotes: "Permit 2"},
	)
	result, err := CountSpeciesWithPermit(tbl, "Banyan Fig", "n")
	require.NoError(t, err)
	assert.Equal(t, int64(1), singleValue(t, result))
}

func TestCountSpeciesWithStatus(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Species: "Prunus cerasifera :: Cherry Plum", LegalStatus: "DPW Maintained"},
		row{Species: "Prunus cerasifera :: Cherry Plum", LegalStatus: "DPW Maintained"},
		row{Species: "Prunus cerasifera 'Thundercloud' :: Cherry Plum", LegalStatus: "DPW Maintained"},
		row{Species: "Prunus cerasifera :: Cherry Plum", LegalStatus: "Private"},
		row{Species: "Prunus cerasifera :: Cherry Plum"},
		row{Species: "Prunus :: cherry plum", LegalStatus: "DPW Maintained"},
	)

	groups, err := GroupCounts(tbl, "Cherry Plum", "DPW Maintained")
	require.NoError(t, err)
	assert.Equal(t, []GroupCount{
		{Key: "Prunus cerasifera :: Cherry Plum", Count: 2},
		{Key: "Prunus cerasifera 'Thundercloud' :: Cherry Plum", Count: 1},
	}, groups)

	result, err := CountSpeciesWithStatus(tbl, "Cherry Plum", "DPW Maintained", "CherryPlumTrees")
	require.NoError(t, err)
	assert.Equal(t, []string{"CherryPlumTrees"}, result.Schema().Names())
	assert.Equal(t, int64(3), singleValue(t, result))
}

func TestCountSpeciesWithStatusPattern(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Species: "Prunus :: Cherry Plum", LegalStatus: "DPW Maintained"},
		row{Species: "Prunus :: Cherry Plum", LegalStatus: "DPW Maintained Street Tree"},
	)
	result, err := CountSpeciesWithStatus(tbl, "Cherry Plum", "DPW%", "n")
	require.NoError(t, err)
	assert.Equal(t, int64(2), singleValue(t, result))
}

func TestCountSpeciesWithStatusEmpty(t *testing.T) {
	result, err := CountSpeciesWithStatus(testutil.TreeTable(t), "Cherry Plum", "DPW Maintained", "CherryPlumTrees")
	require.NoError(t, err)
	assert.Equal(t, int64(0), singleValue(t, result))
}

func TestQueriesRequireColumns(t *testing.T) {
	tbl, err := models.NewTable(models.NewSchema("narrow",
		models.Field{Name: models.ColumnTreeID, Type: models.FieldTypeInt},
	), models.Row{models.IntValue(1)})
	require.NoError(t, err)

	tests := []struct {
		name   string
		run    func() error
		column string
	}{
		{"subtypes", func() error { _, err := MostCommonSpeciesSubtypes(tbl, 5); return err }, models.ColumnSpecies},
		{"address", func() error { _, err := AddressWithMostTrees(tbl); return err }, models.ColumnAddress},
		{"permit", func() error { _, err := CountSpeciesWithPermit(tbl, "%", "n"); return err }, models.ColumnSpecies},
		{"status", func() error { _, err := CountSpeciesWithStatus(tbl, "x", "y", "n"); return err }, models.ColumnSpecies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			require.Error(t, err)

			var e *errors.Error
			require.True(t, errors.As(err, &e))
			assert.Equal(t, errors.ErrorTypeQuery, e.Type)
			assert.Equal(t, tt.column, e.Details["column"])
			assert.NotEmpty(t, e.Details["analysis"])
		})
	}
}

func TestQueriesDoNotMutateInput(t *testing.T) {
	tbl := testutil.TreeTable(t,
		row{Address: "1 A St", Species: "Prunus :: Cherry Plum", LegalStatus: "DPW Maintained"},
		row{Address: "2 B St", Species: "Ficus :: Banyan Fig", PermitNotes: "Permit 1"},
	)
	before := tbl.SortedStrings()

	for _, a := range Build(defaultAnalyses()) {
		_, err := a.Run(tbl)
		require.NoError(t, err, a.Name)
	}
	assert.Equal(t, before, tbl.SortedStrings())
}
