/*package stats accumulates binned counts over many Monte Carlo trials and
reduces them to the physical quantities that get plotted.
*/
package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Accumulator owns a set of named series of running sums, all with the same
// number of bins, and the number of trials that contributed to them.
// Accumulators are not safe for concurrent use; give each worker its own
// and Merge them afterwards.
type Accumulator struct {
	bins   int
	trials int
	names  []string
	series map[string][]float64
}

// NewAccumulator creates an empty accumulator with the given series.
func NewAccumulator(bins int, names ...string) *Accumulator {
	if bins < 0 {
		panic(fmt.Sprintf("Negative bin count %d.", bins))
	}

	acc := &Accumulator{
		bins:   bins,
		names:  append([]string(nil), names...),
		series: make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		if _, ok := acc.series[name]; ok {
			panic(fmt.Sprintf("Series '%s' given twice.", name))
		}
		acc.series[name] = make([]float64, bins)
	}
	return acc
}

func (acc *Accumulator) get(name string) []float64 {
	xs, ok := acc.series[name]
	if !ok {
		panic(fmt.Sprintf("Accumulator has no series '%s'.", name))
	}
	return xs
}

// Add adds x to the given bin of the given series.
func (acc *Accumulator) Add(name string, bin int, x float64) {
	acc.get(name)[bin] += x
}

// AddTrial records that one more trial has been accumulated.
func (acc *Accumulator) AddTrial() { acc.trials++ }

// Merge adds the contents of other into acc. The two accumulators must hold
// the same series with the same number of bins. Merging is associative and
// commutative, so the order in which worker results are combined does not
// matter.
func (acc *Accumulator) Merge(other *Accumulator) error {
	if other.bins != acc.bins {
		return fmt.Errorf(
			"cannot merge an accumulator with %d bins into one with %d bins",
			other.bins, acc.bins,
		)
	} else if len(other.series) != len(acc.series) {
		return fmt.Errorf(
			"cannot merge an accumulator with %d series into one with %d series",
			len(other.series), len(acc.series),
		)
	}
	for name := range other.series {
		if _, ok := acc.series[name]; !ok {
			return fmt.Errorf("cannot merge unknown series '%s'", name)
		}
	}

	for name, xs := range other.series {
		floats.Add(acc.series[name], xs)
	}
	acc.trials += other.trials
	return nil
}

// Series returns a copy of the named series.
func (acc *Accumulator) Series(name string) []float64 {
	return append([]float64(nil), acc.get(name)...)
}

// Has returns true if the accumulator contains the named series.
func (acc *Accumulator) Has(name string) bool {
	_, ok := acc.series[name]
	return ok
}

// Names returns the series names in creation order.
func (acc *Accumulator) Names() []string {
	return append([]string(nil), acc.names...)
}

// SortedNames returns the series names in lexical order.
func (acc *Accumulator) SortedNames() []string {
	names := acc.Names()
	sort.Strings(names)
	return names
}

func (acc *Accumulator) Trials() int { return acc.trials }
func (acc *Accumulator) Bins() int   { return acc.bins }

// Clone returns an accumulator with the same shape and contents as acc which
// shares no memory with it.
func (acc *Accumulator) Clone() *Accumulator {
	out := NewAccumulator(acc.bins, acc.names...)
	for name, xs := range acc.series {
		copy(out.series[name], xs)
	}
	out.trials = acc.trials
	return out
}

// Empty returns an accumulator with the same shape as acc and nothing in it.
func (acc *Accumulator) Empty() *Accumulator {
	return NewAccumulator(acc.bins, acc.names...)
}
