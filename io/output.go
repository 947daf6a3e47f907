package io

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/phil-mansfield/gofluor/stats"
)

// WriteSeries writes a set of series which share x values to a whitespace
// separated table: the first column holds the x values and the remaining
// columns hold one series each. A commented header names the columns. The
// result can be read back with ReadIntensities or any other table reader.
func WriteSeries(fname string, series []stats.Series) error {
	if len(series) == 0 {
		return fmt.Errorf("No series to write to %s.", fname)
	}
	xs := series[0].X
	for _, s := range series {
		if len(s.X) != len(xs) || len(s.Y) != len(xs) {
			return fmt.Errorf(
				"Series '%s' has %d x values and %d y values, but "+
					"'%s' has %d x values.",
				s.Name, len(s.X), len(s.Y), series[0].Name, len(xs),
			)
		}
	}

	f, err := os.Create(fname)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	names := make([]string, len(series))
	for i := range series {
		names[i] = strings.Replace(series[i].Name, " ", "_", -1)
	}
	fmt.Fprintf(w, "# %s %s\n", series[0].XLabel, strings.Join(names, " "))

	for i := range xs {
		fmt.Fprintf(w, "%.10g", xs[i])
		for _, s := range series {
			fmt.Fprintf(w, " %.10g", s.Y[i])
		}
		fmt.Fprintln(w)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}
