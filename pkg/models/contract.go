package models

// Columns of the street tree dataset contract
const (
	ColumnTreeID      = "tree_id"
	ColumnAddress     = "address"
	ColumnSpecies     = "species"
	ColumnLegalStatus = "legal_status"
	ColumnPermitNotes = "permit_notes"
)

// TreeColumns lists the contract columns in file order
var TreeColumns = []string{
	ColumnTreeID,
	ColumnAddress,
	ColumnSpecies,
	ColumnLegalStatus,
	ColumnPermitNotes,
}

// TreeTextColumns are the contract columns that always load as strings,
// whatever their values look like
var TreeTextColumns = []string{
	ColumnAddress,
	ColumnSpecies,
	ColumnLegalStatus,
	ColumnPermitNotes,
}

// MissingColumns returns the contract columns absent from schema
func MissingColumns(schema Schema, required []string) []string {
	var missing []string
	for _, name := range required {
		if schema.Index(name) < 0 {
			missing = append(missing, name)
		}
	}
	return missing
}
