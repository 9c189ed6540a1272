package analysis

import (
	"regexp"
	"strings"

	"github.com/ajitpratap0/canopy/pkg/errors"
	"github.com/ajitpratap0/canopy/pkg/models"
)

// PermitNumberPattern finds a permit number in free text, such as
// "Permit Number 77221" or "permit 12345".
var PermitNumberPattern = regexp.MustCompile(`\w+\s?\w+\s?\d+`)

// Result column names
const (
	ColumnSubtype = "subtype"
	ColumnCount   = "count"
)

// MostCommonSpeciesSubtypes counts trees per species subtype and keeps the
// subtypes whose dense rank by count is at most topN. Species without a
// subtype are excluded. Rows are ordered by count descending, then subtype.
func MostCommonSpeciesSubtypes(table *models.Table, topN int) (*models.Table, error) {
	const name = "most_common_species_subtypes"
	if topN < 1 {
		return nil, errors.Newf(errors.ErrorTypeQuery, "top n must be at least 1, got %d", topN).
			WithDetail("analysis", name)
	}
	species, err := requireColumn(table, name, models.ColumnSpecies)
	if err != nil {
		return nil, err
	}

	counts := newCounter()
	for _, row := range table.Rows() {
		text, ok := row[species].Text()
		if !ok {
			continue
		}
		if s, _ := models.ParseSpecies(text); s.HasSubtype() {
			counts.add(s.Subtype)
		}
	}

	result := models.NewTableBuilder(models.NewSchema(name,
		models.Field{Name: ColumnSubtype, Type: models.FieldTypeString},
		models.Field{Name: ColumnCount, Type: models.FieldTypeInt},
	))
	for _, g := range DenseRank(counts.groups) {
		if g.Rank > topN {
			break
		}
		if err := result.Append(models.StringValue(g.Key), models.IntValue(g.Count)); err != nil {
			return nil, queryFailure(err, name)
		}
	}
	return result.Build(), nil
}

// AddressWithMostTrees returns every address tied for the highest tree
// count, ordered by address. Null addresses are excluded; an input without
// addresses yields an empty table.
func AddressWithMostTrees(table *models.Table) (*models.Table, error) {
	const name = "address_with_most_trees"
	address, err := requireColumn(table, name, models.ColumnAddress)
	if err != nil {
		return nil, err
	}

	counts := newCounter()
	for _, row := range table.Rows() {
		if text, ok := row[address].Text(); ok {
			counts.add(text)
		}
	}

	result := models.NewTableBuilder(models.NewSchema(name,
		models.Field{Name: models.ColumnAddress, Type: models.FieldTypeString},
	))
	for _, g := range DenseRank(counts.groups) {
		if g.Rank > 1 {
			break
		}
		if err := result.Append(models.StringValue(g.Key)); err != nil {
			return nil, queryFailure(err, name)
		}
	}
	return result.Build(), nil
}

// CountSpeciesWithPermit counts trees whose species matches the LIKE pattern
// and whose permit notes contain a permit number. The result is one row
// with one column named column, 0 when nothing matches.
func CountSpeciesWithPermit(table *models.Table, speciesPattern, column string) (*models.Table, error) {
	const name = "count_species_with_permit"
	like, err := CompileLike(speciesPattern)
	if err != nil {
		return nil, queryFailure(err, name)
	}
	species, err := requireColumn(table, name, models.ColumnSpecies)
	if err != nil {
		return nil, err
	}
	notes, err := requireColumn(table, name, models.ColumnPermitNotes)
	if err != nil {
		return nil, err
	}

	var count int64
	for _, row := range table.Rows() {
		s, ok := row[species].Text()
		if !ok || !like.Match(s) {
			continue
		}
		if n, ok := row[notes].Text(); ok && PermitNumberPattern.MatchString(n) {
			count++
		}
	}
	return singleCount(name, column, count)
}

// GroupCounts returns the number of trees per full species string among the
// trees whose species contains speciesSubstring and whose legal status
// matches the LIKE statusPattern. Groups are in first-seen order.
func GroupCounts(table *models.Table, speciesSubstring, statusPattern string) ([]GroupCount, error) {
	const name = "count_species_with_status"
	like, err := CompileLike(statusPattern)
	if err != nil {
		return nil, queryFailure(err, name)
	}
	species, err := requireColumn(table, name, models.ColumnSpecies)
	if err != nil {
		return nil, err
	}
	status, err := requireColumn(table, name, models.ColumnLegalStatus)
	if err != nil {
		return nil, err
	}

	counts := newCounter()
	for _, row := range table.Rows() {
		s, ok := row[species].Text()
		if !ok || !strings.Contains(s, speciesSubstring) {
			continue
		}
		if l, ok := row[status].Text(); ok && like.Match(l) {
			counts.add(s)
		}
	}
	return counts.groups, nil
}

// CountSpeciesWithStatus sums GroupCounts into one row with one column named
// column. An empty selection counts 0.
func CountSpeciesWithStatus(table *models.Table, speciesSubstring, statusPattern, column string) (*models.Table, error) {
	groups, err := GroupCounts(table, speciesSubstring, statusPattern)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, g := range groups {
		total += g.Count
	}
	return singleCount("count_species_with_status", column, total)
}

func singleCount(name, column string, count int64) (*models.Table, error) {
	if column == "" {
		return nil, errors.New(errors.ErrorTypeQuery, "result column name is empty").
			WithDetail("analysis", name)
	}
	return models.NewTable(models.NewSchema(name,
		models.Field{Name: column, Type: models.FieldTypeInt},
	), models.Row{models.IntValue(count)})
}

func requireColumn(table *models.Table, analysis, column string) (int, error) {
	if table == nil {
		return -1, errors.New(errors.ErrorTypeQuery, "input table is nil").
			WithDetail("analysis", analysis)
	}
	idx, ok := table.ColumnIndex(column)
	if !ok {
		return -1, errors.New(errors.ErrorTypeQuery, "required column is missing").
			WithDetail("analysis", analysis).
			WithDetail("column", column)
	}
	return idx, nil
}

func queryFailure(err error, analysis string) error {
	return errors.Wrap(err, errors.ErrorTypeQuery, "query failed").WithDetail("analysis", analysis)
}
