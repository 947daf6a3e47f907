/*package leaf models a leaf as an ordered stack of layers of particles.

Photons enter through layer 0. Each layer sees the flux left over by the
layers above it: the flux leaving a layer is the flux that entered it, minus
the photons its particles absorbed, plus the photons they fluoresced.
Fluorescence is assumed to continue forward; there is no backward or
lateral scattering.
*/
package leaf

import (
	"fmt"

	"github.com/phil-mansfield/gofluor"
	"github.com/phil-mansfield/gofluor/particle"
	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
)

// Layer is one slice of the leaf. Its counts describe the most recent step.
type Layer struct {
	index   int
	members []particle.Particle

	flux                 float64
	absorbed, fluoresced int

	// Probabilities for the last flux this layer saw.
	probs *rates.Probabilities
}

func (l *Layer) Index() int { return l.index }
func (l *Layer) Len() int   { return len(l.members) }

// Flux returns the flux incident on the layer during the last step. It is
// zero for dark steps.
func (l *Layer) Flux() float64 { return l.flux }

func (l *Layer) Absorbed() int   { return l.absorbed }
func (l *Layer) Fluoresced() int { return l.fluoresced }

// FluxOut returns the flux handed to the next layer during the last step.
func (l *Layer) FluxOut() float64 {
	return l.flux - float64(l.absorbed) + float64(l.fluoresced)
}

// Members returns the particles in the layer.
func (l *Layer) Members() []particle.Particle { return l.members }

// step updates every member of the layer. Negative flux can appear when the
// layers above absorbed more photons than they were given (multi-photon
// steps); it is kept for bookkeeping but read as zero when deriving
// absorption probabilities.
func (l *Layer) step(
	light particle.Light, flux float64,
	c *rates.Constants, gen rand.Source,
) error {
	l.absorbed, l.fluoresced = 0, 0
	l.flux = flux

	effective := flux
	if light == particle.Off || effective < 0 {
		effective = 0
	}

	if l.probs == nil || l.probs.Flux != effective {
		probs, err := c.Derive(effective)
		if err != nil {
			return fmt.Errorf("layer %d: %w", l.index, err)
		}
		l.probs = probs
	}

	for _, m := range l.members {
		ev := m.Step(light, l.probs, gen)
		l.absorbed += ev.Absorbed
		l.fluoresced += ev.Fluoresced
	}

	return nil
}

// Leaf owns a particle population and its partition into layers.
type Leaf struct {
	particles []particle.Particle
	layers    []Layer
	c         rates.Constants

	fluoresced, absorbed int
}

// Chunk returns the default partition of n particles into contiguous layers.
// Every layer gets n/layers particles and the last one also gets the
// remainder.
func Chunk(n, layers int) ([][]int, error) {
	if layers < 1 || layers > n {
		return nil, fmt.Errorf(
			"%w: cannot split %d particles into %d layers",
			gofluor.ErrInvalidPartition, n, layers,
		)
	}

	size := n / layers
	out := make([][]int, layers)
	for i := range out {
		start, end := i*size, (i+1)*size
		if i == layers-1 {
			end = n
		}
		out[i] = make([]int, end-start)
		for j := range out[i] {
			out[i][j] = start + j
		}
	}
	return out, nil
}

// New creates a leaf. assignment[i] lists the indices of the particles in
// layer i and must partition the population exactly: every particle appears
// in exactly one layer and no layer is empty.
func New(
	particles []particle.Particle, assignment [][]int, c rates.Constants,
) (*Leaf, error) {
	if len(particles) == 0 {
		return nil, fmt.Errorf("%w: leaf has no particles",
			gofluor.ErrDegenerateConfiguration)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := checkPartition(len(particles), assignment); err != nil {
		return nil, err
	}

	leaf := &Leaf{particles: particles, c: c.Copy()}
	leaf.layers = make([]Layer, len(assignment))
	for i, idxs := range assignment {
		layer := &leaf.layers[i]
		layer.index = i
		layer.members = make([]particle.Particle, len(idxs))
		for j, idx := range idxs {
			layer.members[j] = particles[idx]
		}
	}

	return leaf, nil
}

// NewChunked creates a leaf whose layers are assigned by Chunk.
func NewChunked(
	particles []particle.Particle, layers int, c rates.Constants,
) (*Leaf, error) {
	if len(particles) == 0 {
		return nil, fmt.Errorf("%w: leaf has no particles",
			gofluor.ErrDegenerateConfiguration)
	}
	assignment, err := Chunk(len(particles), layers)
	if err != nil {
		return nil, err
	}
	return New(particles, assignment, c)
}

func checkPartition(n int, assignment [][]int) error {
	if len(assignment) == 0 {
		return fmt.Errorf("%w: no layers", gofluor.ErrInvalidPartition)
	}

	owner := make([]int, n)
	for i := range owner {
		owner[i] = -1
	}

	for layer, idxs := range assignment {
		if len(idxs) == 0 {
			return fmt.Errorf("%w: layer %d is empty",
				gofluor.ErrInvalidPartition, layer)
		}
		for _, idx := range idxs {
			if idx < 0 || idx >= n {
				return fmt.Errorf(
					"%w: layer %d contains particle %d, but there are %d particles",
					gofluor.ErrInvalidPartition, layer, idx, n,
				)
			} else if owner[idx] != -1 {
				return fmt.Errorf(
					"%w: particle %d is in both layer %d and layer %d",
					gofluor.ErrInvalidPartition, idx, owner[idx], layer,
				)
			}
			owner[idx] = layer
		}
	}

	for idx, layer := range owner {
		if layer == -1 {
			return fmt.Errorf("%w: particle %d is not in any layer",
				gofluor.ErrInvalidPartition, idx)
		}
	}

	return nil
}

// Step advances every particle by one step. Under illumination, flux is the
// flux incident on layer 0 and layers are updated strictly in order so that
// each sees the flux left by the one above it. In the dark there is no flux
// and the layers only decay.
func (leaf *Leaf) Step(
	light particle.Light, flux float64, gen rand.Source,
) (fluoresced, absorbed int, err error) {
	leaf.fluoresced, leaf.absorbed = 0, 0

	switch light {
	case particle.On:
	case particle.Off:
		flux = 0
	default:
		panic(fmt.Sprintf("Unhandled light value %s.", light))
	}

	for i := range leaf.layers {
		layer := &leaf.layers[i]
		if err := layer.step(light, flux, &leaf.c, gen); err != nil {
			return 0, 0, err
		}

		leaf.fluoresced += layer.fluoresced
		leaf.absorbed += layer.absorbed
		if light == particle.On {
			flux = layer.FluxOut()
		}
	}

	return leaf.fluoresced, leaf.absorbed, nil
}

// Layers returns the layers in propagation order.
func (leaf *Leaf) Layers() []Layer { return leaf.layers }

// Layer returns layer i.
func (leaf *Leaf) Layer(i int) *Layer { return &leaf.layers[i] }

// Len returns the number of particles in the leaf.
func (leaf *Leaf) Len() int { return len(leaf.particles) }

// Fluoresced and Absorbed return the totals of the last step.
func (leaf *Leaf) Fluoresced() int { return leaf.fluoresced }
func (leaf *Leaf) Absorbed() int   { return leaf.absorbed }

// Reset returns every particle to its initial state and clears the counts.
func (leaf *Leaf) Reset() {
	for _, p := range leaf.particles {
		p.Reset()
	}
	for i := range leaf.layers {
		layer := &leaf.layers[i]
		layer.flux, layer.absorbed, layer.fluoresced = 0, 0, 0
	}
	leaf.fluoresced, leaf.absorbed = 0, 0
}
