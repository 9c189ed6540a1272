// Package errors provides examples of structured error handling in Canopy.
package errors_test

import (
	"fmt"
	"io/fs"

	"github.com/ajitpratap0/canopy/pkg/errors"
)

// Example demonstrates basic error creation with context details.
func Example() {
	err := errors.New(errors.ErrorTypeSchema, "missing column").
		WithDetail("column", "species").
		WithDetail("path", "trees.csv")

	fmt.Println(err.Error())

	// Output:
	// schema: missing column [column=species path=trees.csv]
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(fs.ErrNotExist, errors.ErrorTypeSourceRead, "failed to open input").
		WithDetail("path", "trees.csv")

	if errors.IsType(err, errors.ErrorTypeSourceRead) {
		fmt.Println("This is a source read error")
	}

	if errors.Is(err, fs.ErrNotExist) {
		fmt.Println("Original error was ErrNotExist")
	}

	// Output:
	// This is a source read error
	// Original error was ErrNotExist
}

// ExampleError_Detail shows how context survives wrapping.
func ExampleError_Detail() {
	inner := errors.New(errors.ErrorTypeQuery, "column not in input").
		WithDetail("column", "address")
	outer := errors.Wrap(inner, errors.ErrorTypeQuery, "analysis failed").
		WithDetail("analysis", "most_trees_in_location")

	column, _ := outer.Detail("column")
	fmt.Println(column)

	// Output:
	// address
}
