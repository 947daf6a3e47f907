package particle

import (
	"testing"

	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
	"github.com/stretchr/testify/assert"
)

func testProbabilities() *rates.Probabilities {
	return &rates.Probabilities{
		Absorb: 0.5, Decay: 0.5, QuenchedDecay: 0.5,
		Yield: 0.2, QuenchedYield: 0.1,
		Counters: []rates.CounterProbabilities{
			{Decay: 0.5, Yield: 0.3, QuenchedYield: 0, Max: 1},
			{Decay: 0.5, Yield: 0.1, QuenchedYield: 0.2},
		},
	}
}

func TestComplexBranchOrder(t *testing.T) {
	p := testProbabilities()
	seq := rand.NewSequence(
		0.1, 0.1, 0.3, // absorb, decay, [0.2, 0.5) -> first counter
		0.9, 0.1, 0.1, 0.2, // counter survives, absorb, decay, quenched second counter
		0.1, 0.9, // dark: first counter decays, second survives
		0.9, 0.1, 0.1, 0.05, // counter survives, absorb, decay, quenched fluorescence
	)

	table := []struct {
		light                Light
		absorbed, fluoresced bool
		counters             []int
	}{
		{On, true, false, []int{1, 0}},
		{On, true, false, []int{1, 1}},
		{Off, false, false, []int{0, 1}},
		{On, true, true, []int{0, 1}},
	}

	c := NewComplex(2)
	for i, test := range table {
		abs, fl := c.Update(test.light, p, seq)
		if abs != test.absorbed || fl != test.fluoresced {
			t.Errorf("%d) Update(%s) = (%v, %v), expected (%v, %v)",
				i+1, test.light, abs, fl, test.absorbed, test.fluoresced)
		}
		assert.Equal(t, test.counters, c.Counters(), "%d) counters", i+1)
		assert.Equal(t, Ground, c.State(), "%d) state", i+1)
	}
	assert.Equal(t, 0, seq.Pos(), "unexpected number of draws")
}

func TestComplexUnquenchedPartition(t *testing.T) {
	p := testProbabilities()
	// Unquenched cuts: [0, 0.2) fluorescence, [0.2, 0.5) first counter,
	// [0.5, 0.6) second counter, [0.6, 1) non-radiative.
	table := []struct {
		u          float64
		fluoresced bool
		counters   []int
	}{
		{0.0, true, []int{0, 0}},
		{0.19, true, []int{0, 0}},
		{0.2, false, []int{1, 0}},
		{0.49, false, []int{1, 0}},
		{0.5, false, []int{0, 1}},
		{0.59, false, []int{0, 1}},
		{0.6, false, []int{0, 0}},
		{0.99, false, []int{0, 0}},
	}

	for i, test := range table {
		c := NewComplex(2)
		c.state = Excited
		fl := c.decay(p, rand.NewSequence(0.1, test.u))
		assert.Equal(t, test.fluoresced, fl, "%d) u = %g", i+1, test.u)
		assert.Equal(t, test.counters, c.Counters(), "%d) u = %g", i+1, test.u)
	}
}

func TestComplexCounterMax(t *testing.T) {
	p := &rates.Probabilities{
		Absorb: 1, Decay: 1, QuenchedDecay: 1, QuenchedYield: 0.1,
		Counters: []rates.CounterProbabilities{
			{Decay: 0, QuenchedYield: 0.5, Max: 1},
			{Decay: 0, QuenchedYield: 0.4},
		},
	}

	c := NewComplex(2)
	c.counters[0], c.counters[1] = 1, 1

	// u = 0.3 lands in the first counter's interval, which is full.
	for i := 0; i < 5; i++ {
		c.Update(On, p, rand.NewSequence(0.5, 0.5, 0.1, 0.0, 0.3))
	}
	assert.Equal(t, []int{1, 1}, c.Counters())

	// u = 0.8 lands in the unbounded second counter.
	for i := 0; i < 5; i++ {
		c.Update(On, p, rand.NewSequence(0.5, 0.5, 0.1, 0.0, 0.8))
	}
	assert.Equal(t, []int{1, 6}, c.Counters())
}

func TestComplexQuenchedDecay(t *testing.T) {
	p := &rates.Probabilities{
		Absorb: 0, Decay: 0.9, QuenchedDecay: 0.1,
		Counters: []rates.CounterProbabilities{{Decay: 0}},
	}

	c := NewComplex(1)
	c.state = Excited
	// 0.5 decays an unquenched complex...
	c.Update(Off, p, rand.NewSequence(0.5, 0.99))
	assert.Equal(t, Ground, c.State())

	// ...but not a quenched one.
	c.state = Excited
	c.counters[0] = 1
	c.Update(Off, p, rand.NewSequence(0.5, 0.5, 0.99))
	assert.Equal(t, Excited, c.State())
	assert.True(t, c.Quenched())

	c.Reset()
	assert.Equal(t, Ground, c.State())
	assert.False(t, c.Quenched())
}

func TestComplexCountersDecayIndependently(t *testing.T) {
	p := &rates.Probabilities{
		Counters: []rates.CounterProbabilities{{Decay: 0.3}, {Decay: 0.6}},
	}
	gen := rand.New(rand.Golang, 9)

	n := 100000
	decays := []int{0, 0}
	c := NewComplex(2)
	for i := 0; i < n; i++ {
		c.counters[0], c.counters[1] = 1, 1
		c.Step(Off, p, gen)
		for j := range decays {
			decays[j] += 1 - c.counters[j]
		}
	}

	assert.InDelta(t, 0.3, float64(decays[0])/float64(n), 0.01)
	assert.InDelta(t, 0.6, float64(decays[1])/float64(n), 0.01)
}

func TestComplexMultiPhoton(t *testing.T) {
	p := &rates.Probabilities{
		Absorb: 2.5, Decay: 0, QuenchedDecay: 0,
		Counters: []rates.CounterProbabilities{{Decay: 0.5}},
	}

	c := NewComplex(1)
	c.counters[0] = 1
	seq := rand.NewSequence(0.9, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6)
	ev := c.Step(On, p, seq)

	assert.Equal(t, Event{Absorbed: 2}, ev)
	// One counter draw, then an absorption and a decay draw per attempt.
	assert.Equal(t, 5, seq.Pos())
	assert.Equal(t, 1, c.Counter(0))
}

func TestComplexCounterMismatch(t *testing.T) {
	p := testProbabilities()
	c := NewComplex(1)
	assert.Panics(t, func() { c.Step(On, p, rand.NewSequence(0.5)) })
}

func BenchmarkComplexStep(b *testing.B) {
	c := rates.PSIIComplex()
	p, _ := c.Derive(75)
	gen := rand.New(rand.Xorshift, 1)
	cx := NewComplex(len(p.Counters))
	for i := 0; i < b.N; i++ {
		cx.Step(On, p, gen)
	}
}
