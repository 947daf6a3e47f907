package particle

import (
	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
)

// ReactionCenter is a DCMU-treated PSII reaction center:
//
//     Ground -> Closed <-> Excited
//
// A first absorption closes the center, later absorptions excite it, and an
// excited center decays back to Closed, fluorescing with probability Yield.
// Only Absorb, Decay and Yield are read from the probabilities.
type ReactionCenter struct {
	state State
}

func NewReactionCenter() *ReactionCenter { return &ReactionCenter{Ground} }

func (rc *ReactionCenter) State() State { return rc.state }
func (rc *ReactionCenter) Reset()       { rc.state = Ground }

// Step runs Update once, or Attempts(p.Absorb) times under illumination.
func (rc *ReactionCenter) Step(
	light Light, p *rates.Probabilities, gen rand.Source,
) Event {
	ev := Event{}
	n := attempts(light, p)
	for i := 0; i < n; i++ {
		ev.add(rc.Update(light, p, gen))
	}
	return ev
}

// Update runs a single transition attempt.
func (rc *ReactionCenter) Update(
	light Light, p *rates.Probabilities, gen rand.Source,
) (absorbed, fluoresced bool) {
	switch light {
	case Off:
		if rc.state == Excited {
			return false, rc.decay(p, gen)
		}
		return false, false

	case On:
		absorbed = gen.Float64() < p.Absorb

		switch rc.state {
		case Ground:
			if absorbed {
				rc.state = Closed
			}
			return absorbed, false
		case Closed:
			if !absorbed {
				return false, false
			}
			rc.state = Excited
			return true, rc.decay(p, gen)
		case Excited:
			return absorbed, rc.decay(p, gen)
		default:
			panic(badState(rc.state))
		}

	default:
		panic(badLight(light))
	}
}

// decay checks whether an excited center decays during this step. The
// branch draw is cut into [fluorescence | non-radiative].
func (rc *ReactionCenter) decay(p *rates.Probabilities, gen rand.Source) bool {
	if rc.state != Excited || gen.Float64() >= p.Decay {
		return false
	}
	rc.state = Closed
	return gen.Float64() < p.Yield
}

// NewReactionCenters creates n ground state reaction centers.
func NewReactionCenters(n int) []Particle {
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = NewReactionCenter()
	}
	return ps
}
