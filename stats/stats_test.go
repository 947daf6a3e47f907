package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func filled(seed float64) *Accumulator {
	acc := NewAccumulator(4, "fluorescence", "absorbed")
	for i := 0; i < 4; i++ {
		acc.Add("fluorescence", i, seed*float64(i))
		acc.Add("absorbed", i, seed+float64(i))
	}
	acc.AddTrial()
	return acc
}

func TestAccumulator(t *testing.T) {
	acc := filled(2)
	assert.Equal(t, []float64{0, 2, 4, 6}, acc.Series("fluorescence"))
	assert.Equal(t, []float64{2, 3, 4, 5}, acc.Series("absorbed"))
	assert.Equal(t, []string{"fluorescence", "absorbed"}, acc.Names())
	assert.Equal(t, []string{"absorbed", "fluorescence"}, acc.SortedNames())
	assert.Equal(t, 1, acc.Trials())
	assert.Equal(t, 4, acc.Bins())
	assert.True(t, acc.Has("absorbed"))
	assert.False(t, acc.Has("annihilation"))

	// Series hands out copies.
	acc.Series("fluorescence")[0] = 100
	assert.Equal(t, 0.0, acc.Series("fluorescence")[0])

	assert.Panics(t, func() { acc.Add("annihilation", 0, 1) })
	assert.Panics(t, func() { NewAccumulator(2, "a", "a") })
}

func TestMergeOrderIndependent(t *testing.T) {
	a, b, c := filled(1), filled(2), filled(3)

	left := a.Clone()
	require.NoError(t, left.Merge(b))
	require.NoError(t, left.Merge(c))

	right := c.Clone()
	bc := b.Clone()
	require.NoError(t, bc.Merge(a))
	require.NoError(t, right.Merge(bc))

	for _, name := range left.Names() {
		assert.True(t, floats.Equal(left.Series(name), right.Series(name)), name)
	}
	assert.Equal(t, 3, left.Trials())
	assert.Equal(t, 3, right.Trials())

	// Merging didn't touch the inputs.
	assert.Equal(t, filled(1).Series("absorbed"), a.Series("absorbed"))
}

func TestMergeShapeErrors(t *testing.T) {
	acc := filled(1)
	assert.Error(t, acc.Merge(NewAccumulator(3, "fluorescence", "absorbed")))
	assert.Error(t, acc.Merge(NewAccumulator(4, "fluorescence")))
	assert.Error(t, acc.Merge(NewAccumulator(4, "fluorescence", "annihilation")))
	assert.Equal(t, filled(1).Series("fluorescence"), acc.Series("fluorescence"))
	assert.Equal(t, 1, acc.Trials())
}

func TestCloneAndEmpty(t *testing.T) {
	acc := filled(1)
	clone := acc.Clone()
	clone.Add("absorbed", 0, 10)
	assert.Equal(t, 1.0, acc.Series("absorbed")[0])
	assert.Equal(t, 11.0, clone.Series("absorbed")[0])

	empty := acc.Empty()
	assert.Equal(t, 0, empty.Trials())
	assert.Equal(t, []float64{0, 0, 0, 0}, empty.Series("absorbed"))
}

func TestReductions(t *testing.T) {
	assert.Equal(t, []float64{0, 2, 4}, Scale([]float64{0, 1, 2}, 2))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-12)
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 0.25, Occupancy(250, 1000), 1e-12)
	assert.Equal(t, 0.0, Occupancy(10, 0))

	rate := PerSecond([]float64{10, 20}, 100, 1e-3, 0.5)
	assert.InDelta(t, 50.0, rate[0], 1e-9)
	assert.InDelta(t, 100.0, rate[1], 1e-9)

	xs := BinStarts(4, 0.5)
	require.Len(t, xs, 4)
	for i, x := range xs {
		assert.InDelta(t, 0.5*float64(i), x, 1e-12)
	}
	assert.Equal(t, []float64{0}, BinStarts(1, 3))
	assert.Empty(t, BinStarts(0, 3))
}

func TestQuenchedOccupancy(t *testing.T) {
	occ := QuenchedOccupancy(
		[]float64{0, 10, 10, 0},
		[]float64{0, 10, 110, 50},
		0.15, 1.5,
	)

	assert.Equal(t, 0.0, occ[0])
	assert.InDelta(t, 1.0, occ[1], 1e-12)
	assert.InDelta(t, (10/0.15)/(10/0.15+100/1.5), occ[2], 1e-12)
	assert.Equal(t, 0.0, occ[3])
	for _, x := range occ {
		assert.True(t, x >= 0 && x <= 1)
	}
}
