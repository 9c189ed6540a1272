// Package pool reduces allocations while a dataset is loaded.
//
// A street tree inventory repeats a small set of strings (species, legal
// statuses, common addresses) across hundreds of thousands of rows. An
// Interner returns one shared copy of each distinct value so the loaded
// table holds a single backing array per string instead of one per row.
//
//	interner := pool.NewInterner(pool.DefaultInternLimit)
//	for _, record := range records {
//		species := interner.Intern(record[2])
//		...
//	}
//
// Interners are bounded: once full, values are returned unchanged.
package pool
