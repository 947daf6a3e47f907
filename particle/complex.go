package particle

import (
	"fmt"

	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
)

// Complex is a pigment complex (e.g. LHCII or a PSII supercomplex) which
// cycles between Ground and Excited and can accumulate long-lived
// quenching species such as triplets. Each species is an independent
// counter. While any counter is non-zero the complex is quenched: it decays
// with the quenched probability and fluoresces with the quenched yield.
//
// When an excited complex decays, a single draw decides the outcome. The
// unit interval is cut, in this order, into fluorescence, one interval per
// counter in the order the counters were declared, and non-radiative decay
// for whatever is left.
type Complex struct {
	state    State
	counters []int
}

// NewComplex creates a complex in the ground state with the given number of
// auxiliary counters.
func NewComplex(counters int) *Complex {
	return &Complex{Ground, make([]int, counters)}
}

func (c *Complex) State() State { return c.state }

func (c *Complex) Reset() {
	c.state = Ground
	for i := range c.counters {
		c.counters[i] = 0
	}
}

// Counter returns the occupancy of counter i.
func (c *Complex) Counter(i int) int { return c.counters[i] }

// Counters returns a copy of every counter.
func (c *Complex) Counters() []int {
	return append([]int(nil), c.counters...)
}

// Quenched returns true if any counter is non-zero.
func (c *Complex) Quenched() bool {
	for _, n := range c.counters {
		if n > 0 {
			return true
		}
	}
	return false
}

// Step decays the counters once and then runs the photon transition once,
// or Attempts(p.Absorb) times under illumination.
func (c *Complex) Step(
	light Light, p *rates.Probabilities, gen rand.Source,
) Event {
	c.decayCounters(p, gen)

	ev := Event{}
	n := attempts(light, p)
	for i := 0; i < n; i++ {
		ev.add(c.transition(light, p, gen))
	}
	return ev
}

// Update runs a single step with a single transition attempt.
func (c *Complex) Update(
	light Light, p *rates.Probabilities, gen rand.Source,
) (absorbed, fluoresced bool) {
	c.decayCounters(p, gen)
	return c.transition(light, p, gen)
}

// decayCounters gives every occupied counter one independent decay draw.
func (c *Complex) decayCounters(p *rates.Probabilities, gen rand.Source) {
	if len(p.Counters) != len(c.counters) {
		panic(fmt.Sprintf(
			"Complex has %d counters, but probabilities describe %d.",
			len(c.counters), len(p.Counters),
		))
	}

	for i := range c.counters {
		if c.counters[i] > 0 && gen.Float64() < p.Counters[i].Decay {
			c.counters[i]--
		}
	}
}

func (c *Complex) transition(
	light Light, p *rates.Probabilities, gen rand.Source,
) (absorbed, fluoresced bool) {
	switch light {
	case Off:
	case On:
		absorbed = gen.Float64() < p.Absorb
	default:
		panic(badLight(light))
	}

	switch c.state {
	case Ground:
		if !absorbed {
			return false, false
		}
		c.state = Excited
		return true, c.decay(p, gen)
	case Excited:
		return absorbed, c.decay(p, gen)
	default:
		panic(badState(c.state))
	}
}

func (c *Complex) decay(p *rates.Probabilities, gen rand.Source) bool {
	quenched := c.Quenched()

	pDecay, edge := p.Decay, p.Yield
	if quenched {
		pDecay, edge = p.QuenchedDecay, p.QuenchedYield
	}

	if gen.Float64() >= pDecay {
		return false
	}
	c.state = Ground

	u := gen.Float64()
	if u < edge {
		return true
	}

	for i := range p.Counters {
		cp := &p.Counters[i]
		if quenched {
			edge += cp.QuenchedYield
		} else {
			edge += cp.Yield
		}

		if u < edge {
			if cp.Max == 0 || c.counters[i] < cp.Max {
				c.counters[i]++
			}
			return false
		}
	}

	return false
}

// NewComplexes creates n ground state complexes with the given number of
// counters each.
func NewComplexes(n, counters int) []Particle {
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = NewComplex(counters)
	}
	return ps
}
