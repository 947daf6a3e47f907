package io

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/table"
)

// ReadIntensities reads a sweep of intensities from one column of a
// whitespace separated table.
func ReadIntensities(fname string, col int) ([]float64, error) {
	cols, err := table.ReadTable(fname, []int{col}, nil)
	if err != nil {
		return nil, err
	}

	xs := cols[0]
	if len(xs) == 0 {
		return nil, fmt.Errorf("No intensities in column %d of %s.", col, fname)
	}
	for i, x := range xs {
		if x < 0 || math.IsNaN(x) {
			return nil, fmt.Errorf(
				"Intensity %d in column %d of %s is %g, must be non-negative.",
				i, col, fname, x,
			)
		}
	}
	return xs, nil
}
