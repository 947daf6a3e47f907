package trial

import (
	"context"
	"fmt"

	"github.com/phil-mansfield/gofluor"
	"github.com/phil-mansfield/gofluor/leaf"
	"github.com/phil-mansfield/gofluor/particle"
	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
	"github.com/phil-mansfield/gofluor/stats"
)

// LeafConfig describes a layered leaf of reaction centers under constant
// flux.
type LeafConfig struct {
	Constants rates.Constants
	Particles int
	// Layers is the number of layers used by the default partition. It is
	// ignored if Assignment is set.
	Layers     int
	Assignment [][]int

	// Flux incident on the top layer during lit steps.
	Flux float64
	// Steps lit steps followed by DarkSteps dark steps.
	Steps, DarkSteps int
}

// Validate returns an error if the configuration can't be run.
func (con *LeafConfig) Validate() error {
	switch {
	case con.Particles < 1:
		return fmt.Errorf("%w: leaf has %d particles",
			gofluor.ErrDegenerateConfiguration, con.Particles)
	case con.Steps < 1:
		return fmt.Errorf("%w: leaf is run for %d steps",
			gofluor.ErrDegenerateConfiguration, con.Steps)
	case con.DarkSteps < 0:
		return fmt.Errorf("%w: DarkSteps = %d",
			gofluor.ErrDegenerateConfiguration, con.DarkSteps)
	}
	_, err := con.Constants.Derive(con.Flux)
	return err
}

// Bins returns the length of the series produced by the configuration. The
// first bin is the state before the light is switched on.
func (con *LeafConfig) Bins() int { return con.Steps + con.DarkSteps + 1 }

func (con *LeafConfig) newLeaf() (*leaf.Leaf, error) {
	ps := particle.NewReactionCenters(con.Particles)
	if con.Assignment != nil {
		return leaf.New(ps, con.Assignment, con.Constants)
	}
	return leaf.NewChunked(ps, con.Layers, con.Constants)
}

// LeafResult holds the summed counts of a leaf run.
type LeafResult struct {
	Config LeafConfig
	Acc    *stats.Accumulator
}

func (res *LeafResult) Trials() int { return res.Acc.Trials() }

// Trace returns the fluorescence summed over all trials at each step.
func (res *LeafResult) Trace() stats.Series {
	ys := res.Acc.Series(Fluorescence)
	return stats.Series{
		Name:   Fluorescence,
		Title:  fmt.Sprintf("Flux: %g, Layers: %d", res.Config.Flux, res.layers()),
		XLabel: "Time [steps]",
		YLabel: "Ft [counts]",
		X:      stats.BinStarts(len(ys), 1),
		Y:      ys,
	}
}

// Normalized returns the mean fluorescence per trial and per incident photon
// at each step.
func (res *LeafResult) Normalized() stats.Series {
	s := res.Trace()
	norm := 0.0
	if res.Config.Flux > 0 && res.Trials() > 0 {
		norm = 1 / (res.Config.Flux * float64(res.Trials()))
	}
	s.Y = stats.Scale(s.Y, norm)
	s.YLabel = "Ft / flux [counts/photon]"
	return s
}

func (res *LeafResult) layers() int {
	if res.Config.Assignment != nil {
		return len(res.Config.Assignment)
	}
	return res.Config.Layers
}

// RunLeaf illuminates a freshly built leaf in every trial.
func RunLeaf(con LeafConfig, opts Options) (*LeafResult, error) {
	return runLeaf(&con, &opts, 0)
}

func runLeaf(con *LeafConfig, opts *Options, offset int64) (*LeafResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	} else if err := con.Validate(); err != nil {
		return nil, err
	}
	// Partition errors surface here rather than in every worker.
	if _, err := con.newLeaf(); err != nil {
		return nil, err
	}

	proto := stats.NewAccumulator(con.Bins(), Fluorescence, Absorbed)
	acc, err := run(opts, offset, proto,
		func(gen *rand.Generator, acc *stats.Accumulator) error {
			lf, err := con.newLeaf()
			if err != nil {
				return err
			}

			for step := 1; step < con.Bins(); step++ {
				light := particle.On
				if step > con.Steps {
					light = particle.Off
				}
				fl, abs, err := lf.Step(light, con.Flux, gen)
				if err != nil {
					return err
				}
				acc.Add(Fluorescence, step, float64(fl))
				acc.Add(Absorbed, step, float64(abs))
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return &LeafResult{Config: *con, Acc: acc}, nil
}

// LeafSweepResult holds one leaf run per flux.
type LeafSweepResult struct {
	Fluxes  []float64
	Results []*LeafResult
	// Timepoint is the step the light dependency is read at.
	Timepoint int
}

// LightDependency returns the fluorescence at the sweep's timepoint per
// incident photon and per trial, as a function of flux.
func (res *LeafSweepResult) LightDependency() stats.Series {
	ys := make([]float64, len(res.Results))
	for i, r := range res.Results {
		ys[i] = r.Normalized().Y[res.Timepoint]
	}
	return stats.Series{
		Name:   "light-dependency",
		Title:  fmt.Sprintf("Fluorescence at step %d", res.Timepoint),
		XLabel: "Photon flux [photons/step]",
		YLabel: "Ft / flux [counts/photon]",
		X:      append([]float64(nil), res.Fluxes...),
		Y:      ys,
	}
}

// RunLeafSweep runs con once per flux. It stops between fluxes if ctx is
// cancelled.
func RunLeafSweep(
	ctx context.Context, con LeafConfig, fluxes []float64,
	timepoint int, opts Options,
) (*LeafSweepResult, error) {
	if len(fluxes) == 0 {
		return nil, fmt.Errorf("%w: no fluxes to sweep over",
			gofluor.ErrDegenerateConfiguration)
	} else if timepoint < 0 || timepoint >= con.Bins() {
		return nil, fmt.Errorf("%w: timepoint %d is outside of [0, %d]",
			gofluor.ErrDegenerateConfiguration, timepoint, con.Bins()-1)
	}

	log := opts.logger()
	res := &LeafSweepResult{
		Fluxes:    append([]float64(nil), fluxes...),
		Timepoint: timepoint,
	}
	for i, flux := range fluxes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Printf("Running leaf %d/%d with flux %g", i+1, len(fluxes), flux)
		con.Flux = flux
		r, err := runLeaf(&con, &opts, int64(i*opts.Trials))
		if err != nil {
			return nil, err
		}
		res.Results = append(res.Results, r)
	}

	return res, nil
}
