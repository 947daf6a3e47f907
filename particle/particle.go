/*package particle implements the discrete-time state machines of single
light-harvesting particles.

Particles do not own their probabilities: all particles sharing the same
incident flux share one *rates.Probabilities, which is passed to every Step.
Every random decision is taken from the rand.Source passed alongside it.
*/
package particle

import (
	"fmt"
	"math"

	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
)

// Light is the illumination during one step.
type Light int

const (
	Off Light = iota
	On
)

func (l Light) String() string {
	switch l {
	case Off:
		return "Off"
	case On:
		return "On"
	}
	return fmt.Sprintf("Light(%d)", int(l))
}

// State is the primary state of a particle. Reaction centers use all three
// states, pigment complexes only Ground and Excited.
type State int

const (
	Ground State = iota
	Closed
	Excited
)

func (s State) String() string {
	switch s {
	case Ground:
		return "Ground"
	case Closed:
		return "Closed"
	case Excited:
		return "Excited"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func badState(s State) string {
	return fmt.Sprintf("Particle in unhandled state %s.", s)
}

func badLight(l Light) string {
	return fmt.Sprintf("Unhandled light value %s.", l)
}

// Event counts the absorptions and fluorescence emissions of a particle
// during one step. The counts can be larger than 1 in the multi-photon
// regime.
type Event struct {
	Absorbed, Fluoresced int
}

func (ev *Event) add(absorbed, fluoresced bool) {
	if absorbed {
		ev.Absorbed++
	}
	if fluoresced {
		ev.Fluoresced++
	}
}

// Particle is a single kinetic unit.
type Particle interface {
	// Step advances the particle by one step.
	Step(light Light, p *rates.Probabilities, gen rand.Source) Event
	State() State
	// Reset returns the particle to its initial state.
	Reset()
}

// Attempts returns the number of times the photon transition is attempted
// during one lit step. An absorption probability p >= 1 means that several
// photons arrive per step, and the transition is run floor(p) times.
func Attempts(pAbsorb float64) int {
	if pAbsorb >= 1 {
		return int(math.Floor(pAbsorb))
	}
	return 1
}

func attempts(light Light, p *rates.Probabilities) int {
	switch light {
	case Off:
		return 1
	case On:
		return Attempts(p.Absorb)
	default:
		panic(badLight(light))
	}
}
