/*package rates converts the physical constants of a particle into the
per-step probabilities used by the discrete-time state machines.

Every continuous first-order process with lifetime tau becomes the
probability 1 - exp(-dt/tau) of happening within one step of length dt.
Absorption is the expected number of photons hitting the particle during one
step; it may exceed 1, in which case the particle is excited several times
per step (see particle.Attempts).
*/
package rates

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gofluor"
)

const (
	// PhotonEnergy is the energy of one excitation photon in J (~633 nm).
	PhotonEnergy = 3.14e-19
	// MaxAbsorb bounds the expected absorptions per step. Beyond it a
	// step would run an unreasonable number of multi-photon attempts, and
	// far beyond it the attempt count no longer fits in an int.
	MaxAbsorb = 1e6
	// Slack allowed when checking that branch probabilities sum to 1.
	partitionEps = 1e-12
)

// DecayProbability returns the probability that a process with mean
// lifetime tau occurs within a step of length dt, 1 - exp(-dt/tau).
func DecayProbability(tau, dt float64) float64 {
	return -math.Expm1(-dt / tau)
}

// FluxAbsorptionProbability returns the absorption probability of a
// particle with cross-section sigma when flux photons per step are spread
// over a leaf of the given area.
func FluxAbsorptionProbability(flux, area, sigma float64) float64 {
	return flux / area * sigma
}

// IntensityAbsorptionProbability returns the absorption probability of a
// particle with cross-section sigma [cm^2] illuminated with the given
// intensity [W/cm^2] for a step of dt [s].
func IntensityAbsorptionProbability(intensity, sigma, dt float64) float64 {
	return intensity * sigma / PhotonEnergy * dt
}

// CounterConstants describes one long-lived quenching species (e.g. a
// carotenoid triplet) which a pigment complex can accumulate.
type CounterConstants struct {
	Name string
	// Lifetime of one unit of the species [s].
	Lifetime float64
	// Probability that an unquenched decay creates the species.
	Yield float64
	// Probability that a quenched decay (annihilation) creates the species.
	QuenchedYield float64
	// Maximum occupancy. Zero means unbounded.
	Max int
}

// Constants are the physical constants of one particle family.
type Constants struct {
	// Length of one step [s].
	Timestep float64
	// Absorption cross-section. In flux mode (Area > 0) this is in the
	// same units as Area; otherwise it is in cm^2.
	CrossSection float64
	// Leaf area used in flux mode. Zero selects intensity mode.
	Area float64

	// Excited state lifetimes without and with a quencher present [s]. A
	// zero QuenchedLifetime means quenchers don't change the lifetime.
	Lifetime, QuenchedLifetime float64
	// Fluorescence yields of unquenched and quenched decays.
	Yield, QuenchedYield float64

	// Counters are listed in branch order: when a decay can create more
	// than one species, the earlier counter takes the lower part of the
	// unit interval.
	Counters []CounterConstants
}

// CounterProbabilities are the per-step probabilities of one counter.
type CounterProbabilities struct {
	Decay, Yield, QuenchedYield float64
	Max                         int
}

// Probabilities are the per-step probabilities derived from Constants at a
// particular incident flux or intensity.
type Probabilities struct {
	// Flux is the flux or intensity these probabilities were derived at.
	Flux float64

	Absorb               float64
	Decay, QuenchedDecay float64
	Yield, QuenchedYield float64

	Counters []CounterProbabilities
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", gofluor.ErrInvalidProbability,
		fmt.Sprintf(format, args...))
}

func unit(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return invalid("%s = %g is not in [0, 1]", name, p)
	}
	return nil
}

func positive(name string, x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || x <= 0 {
		return invalid("%s = %g must be positive and finite", name, x)
	}
	return nil
}

// Validate checks that the constants can produce valid probabilities.
func (c *Constants) Validate() error {
	if err := positive("Timestep", c.Timestep); err != nil {
		return err
	}
	if err := positive("Lifetime", c.Lifetime); err != nil {
		return err
	}
	if c.QuenchedLifetime != 0 {
		if err := positive("QuenchedLifetime", c.QuenchedLifetime); err != nil {
			return err
		}
	}
	if math.IsNaN(c.CrossSection) || c.CrossSection < 0 {
		return invalid("CrossSection = %g is negative", c.CrossSection)
	}
	if math.IsNaN(c.Area) || c.Area < 0 {
		return invalid("Area = %g is negative", c.Area)
	}

	for i := range c.Counters {
		cc := &c.Counters[i]
		if err := positive(cc.Name+" Lifetime", cc.Lifetime); err != nil {
			return err
		}
		if cc.Max < 0 {
			return invalid("%s Max = %d is negative", cc.Name, cc.Max)
		}
	}

	p, err := c.derive(0)
	if err != nil {
		return err
	}
	return p.Validate()
}

// Derive returns the per-step probabilities at the given flux (flux mode)
// or intensity (intensity mode).
func (c *Constants) Derive(flux float64) (*Probabilities, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	p, err := c.derive(flux)
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Constants) derive(flux float64) (*Probabilities, error) {
	if math.IsNaN(flux) || math.IsInf(flux, 0) || flux < 0 {
		return nil, invalid("flux = %g must be finite and non-negative", flux)
	}

	p := &Probabilities{Flux: flux}

	if c.Area > 0 {
		p.Absorb = FluxAbsorptionProbability(flux, c.Area, c.CrossSection)
	} else {
		p.Absorb = IntensityAbsorptionProbability(
			flux, c.CrossSection, c.Timestep,
		)
	}

	p.Decay = DecayProbability(c.Lifetime, c.Timestep)
	if c.QuenchedLifetime > 0 {
		p.QuenchedDecay = DecayProbability(c.QuenchedLifetime, c.Timestep)
	} else {
		p.QuenchedDecay = p.Decay
	}
	p.Yield, p.QuenchedYield = c.Yield, c.QuenchedYield

	p.Counters = make([]CounterProbabilities, len(c.Counters))
	for i, cc := range c.Counters {
		p.Counters[i] = CounterProbabilities{
			Decay:         DecayProbability(cc.Lifetime, c.Timestep),
			Yield:         cc.Yield,
			QuenchedYield: cc.QuenchedYield,
			Max:           cc.Max,
		}
	}

	return p, nil
}

// Validate checks that every probability lies in [0, 1] and that the
// decay branches of each decay partition sum to at most 1. Absorb may be
// larger than 1, up to MaxAbsorb.
func (p *Probabilities) Validate() error {
	if math.IsNaN(p.Absorb) || math.IsInf(p.Absorb, 0) || p.Absorb < 0 {
		return invalid("absorption probability = %g", p.Absorb)
	} else if p.Absorb > MaxAbsorb {
		return invalid("absorption probability %g exceeds the %g attempt limit",
			p.Absorb, float64(MaxAbsorb))
	}

	checks := []struct {
		name string
		p    float64
	}{
		{"decay probability", p.Decay},
		{"quenched decay probability", p.QuenchedDecay},
		{"fluorescence yield", p.Yield},
		{"quenched fluorescence yield", p.QuenchedYield},
	}
	for _, check := range checks {
		if err := unit(check.name, check.p); err != nil {
			return err
		}
	}

	sum, qSum := p.Yield, p.QuenchedYield
	for i, cp := range p.Counters {
		if err := unit(fmt.Sprintf("counter %d decay", i), cp.Decay); err != nil {
			return err
		}
		if err := unit(fmt.Sprintf("counter %d yield", i), cp.Yield); err != nil {
			return err
		}
		err := unit(fmt.Sprintf("counter %d quenched yield", i), cp.QuenchedYield)
		if err != nil {
			return err
		}
		sum += cp.Yield
		qSum += cp.QuenchedYield
	}

	if sum > 1+partitionEps {
		return invalid("unquenched decay branches sum to %g", sum)
	} else if qSum > 1+partitionEps {
		return invalid("quenched decay branches sum to %g", qSum)
	}

	return nil
}

// Rescaled returns a copy of c with a different timestep. The receiver is
// left untouched, so the copy can be used for a temporary regime (such as
// the dark part of a pulse) and then dropped.
func (c *Constants) Rescaled(dt float64) Constants {
	out := *c
	out.Timestep = dt
	out.Counters = append([]CounterConstants(nil), c.Counters...)
	return out
}

// Copy returns a deep copy of c.
func (c *Constants) Copy() Constants { return c.Rescaled(c.Timestep) }

// Counter returns the index of the counter with the given name, or -1.
func (c *Constants) Counter(name string) int {
	for i := range c.Counters {
		if c.Counters[i].Name == name {
			return i
		}
	}
	return -1
}
