// Package analysis implements the four tree statistics computed by Canopy.
//
// Every query is a pure function of an input table: it never modifies the
// table it reads and returns a newly built result table. Rows whose touched
// columns are null are excluded rather than treated as errors. A required
// column absent from the input schema is a query error naming the analysis
// and the column.
//
// # Queries
//
//   - MostCommonSpeciesSubtypes: subtypes whose dense rank by tree count is
//     within the top N
//   - AddressWithMostTrees: every address tied for the highest tree count
//   - CountSpeciesWithPermit: trees of a species pattern whose permit notes
//     carry a permit number
//   - CountSpeciesWithStatus: trees of a species with a legal status
//
// # Registry
//
// Build turns the analyses section of a job configuration into the ordered
// list of enabled analyses the pipeline runs:
//
//	for _, a := range analysis.Build(cfg.Analyses) {
//	    result, err := a.Run(table)
//	    ...
//	}
package analysis
