/*package gofluor is a Monte Carlo simulator of the photophysics of
photosynthetic light harvesting. Particles (reaction centers and pigment
complexes) absorb photons and fluoresce in discrete timesteps. Package trial
runs them over many trials and package stats reduces the resulting event
counts into fluorescence traces and saturation curves.

The error values below describe configuration defects. They are wrapped with
the offending value and can be checked with errors.Is.
*/
package gofluor

import (
	"errors"
)

var (
	// ErrInvalidProbability is returned when a derived per-step probability
	// lies outside [0, 1]. Absorption probabilities above 1 are allowed and
	// handled by the multi-photon policy.
	ErrInvalidProbability = errors.New("invalid probability")
	// ErrInvalidPartition is returned when a layer assignment does not
	// partition the particle population exactly.
	ErrInvalidPartition = errors.New("invalid layer partition")
	// ErrDegenerateConfiguration is returned for zero trials, steps or
	// particles.
	ErrDegenerateConfiguration = errors.New("degenerate configuration")
)
