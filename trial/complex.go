package trial

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/phil-mansfield/gofluor"
	"github.com/phil-mansfield/gofluor/particle"
	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
	"github.com/phil-mansfield/gofluor/stats"
)

// DefaultOffSteps is the number of coarse steps a pulse's dark interval is
// split into.
const DefaultOffSteps = 3

// steps converts a duration into a whole number of steps of length dt.
func steps(duration, dt float64) int {
	return int(math.Round(duration / dt))
}

func complexSeries(c *rates.Constants) []string {
	names := []string{Fluorescence, Absorbed, Annihilation}
	for _, cc := range c.Counters {
		names = append(names, CounterSeries(cc.Name))
	}
	return names
}

// exposure is one stretch of constant illumination of a complex. Step i
// of the stretch lands in bin first + (i % period) * bins / period.
type exposure struct {
	light               particle.Light
	steps, period, bins int
	first               int
}

// expose runs cx through ex under the given probabilities and adds the
// results to acc. Counter populations are sampled after every step.
func expose(
	cx *particle.Complex, ex exposure, p *rates.Probabilities,
	names []string, gen rand.Source, acc *stats.Accumulator,
) {
	for i := 0; i < ex.steps; i++ {
		ev := cx.Step(ex.light, p, gen)
		bin := ex.first + (i%ex.period)*ex.bins/ex.period

		acc.Add(Fluorescence, bin, float64(ev.Fluoresced))
		acc.Add(Absorbed, bin, float64(ev.Absorbed))
		if cx.Quenched() {
			acc.Add(Annihilation, bin, float64(ev.Fluoresced))
		}
		for j := 3; j < len(names); j++ {
			acc.Add(names[j], bin, float64(cx.Counter(j-3)))
		}
	}
}

//////////////////////
// Saturation curve //
//////////////////////

// SaturationConfig describes continuous illumination of a single complex at
// a range of intensities.
type SaturationConfig struct {
	Constants   rates.Constants
	Intensities []float64
	// Steps per trial and intensity.
	Repetitions int
	// Fraction of emitted photons that are detected. Zero means 1.
	Efficiency float64
}

// Validate returns an error if the configuration can't be run.
func (con *SaturationConfig) Validate() error {
	if len(con.Intensities) == 0 {
		return fmt.Errorf("%w: no intensities",
			gofluor.ErrDegenerateConfiguration)
	} else if con.Repetitions < 1 {
		return fmt.Errorf("%w: Repetitions = %d",
			gofluor.ErrDegenerateConfiguration, con.Repetitions)
	} else if con.Efficiency < 0 || con.Efficiency > 1 {
		return fmt.Errorf("%w: detection efficiency %g is not in [0, 1]",
			gofluor.ErrInvalidProbability, con.Efficiency)
	}
	for _, intensity := range con.Intensities {
		if _, err := con.Constants.Derive(intensity); err != nil {
			return err
		}
	}
	return nil
}

func (con *SaturationConfig) efficiency() float64 {
	if con.Efficiency == 0 {
		return 1
	}
	return con.Efficiency
}

// SaturationResult is a saturation curve.
type SaturationResult struct {
	Intensities []float64
	// Detected fluorescence rate at each intensity [counts/s].
	Fluorescence []float64
	// Occupancy[i][j] is the mean population of counter i at intensity j.
	Occupancy [][]float64
	Counters  []string
	Trials    int
}

// Series returns the fluorescence curve followed by one occupancy curve per
// counter.
func (res *SaturationResult) Series() []stats.Series {
	out := []stats.Series{{
		Name:   Fluorescence,
		Title:  "Fluorescence saturation curve",
		XLabel: "Excitation intensity [W/cm^2]",
		YLabel: "Fluorescence intensity [cps]",
		X:      res.Intensities,
		Y:      res.Fluorescence,
	}}
	for i, name := range res.Counters {
		out = append(out, stats.Series{
			Name:   CounterSeries(name),
			Title:  fmt.Sprintf("Average '%s' population", name),
			XLabel: "Excitation intensity [W/cm^2]",
			YLabel: "Average population",
			X:      res.Intensities,
			Y:      res.Occupancy[i],
		})
	}
	return out
}

// RunSaturation runs con at each of its intensities, stopping between
// intensities if ctx is cancelled.
func RunSaturation(
	ctx context.Context, con SaturationConfig, opts Options,
) (*SaturationResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	} else if err := con.Validate(); err != nil {
		return nil, err
	}

	c := &con.Constants
	names := complexSeries(c)
	reps := con.Repetitions * opts.Trials
	res := &SaturationResult{
		Intensities:  append([]float64(nil), con.Intensities...),
		Fluorescence: make([]float64, len(con.Intensities)),
		Occupancy:    make([][]float64, len(c.Counters)),
		Counters:     make([]string, len(c.Counters)),
		Trials:       opts.Trials,
	}
	for i, cc := range c.Counters {
		res.Counters[i] = cc.Name
		res.Occupancy[i] = make([]float64, len(con.Intensities))
	}

	log := opts.logger()
	for j, intensity := range con.Intensities {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Printf("Running intensity %d/%d: %g W/cm^2",
			j+1, len(con.Intensities), intensity)

		p, err := c.Derive(intensity)
		if err != nil {
			return nil, err
		}
		ex := exposure{
			light: particle.On, steps: con.Repetitions,
			period: con.Repetitions, bins: 1,
		}

		acc, err := run(&opts, int64(j*opts.Trials),
			stats.NewAccumulator(1, names...),
			func(gen *rand.Generator, acc *stats.Accumulator) error {
				cx := particle.NewComplex(len(c.Counters))
				expose(cx, ex, p, names, gen, acc)
				return nil
			})
		if err != nil {
			return nil, err
		}

		res.Fluorescence[j] = stats.PerSecond(
			acc.Series(Fluorescence), reps, c.Timestep, con.efficiency(),
		)[0]
		for i, cc := range c.Counters {
			sum := acc.Series(CounterSeries(cc.Name))[0]
			res.Occupancy[i][j] = stats.Occupancy(sum, reps)
		}
	}

	return res, nil
}

////////////////
// Duty cycle //
////////////////

// PulsedConfig describes a single complex under square-wave illumination.
// Each trial starts from a fresh complex and runs Pulses cycles of OnTime
// of light followed by OffTime of darkness.
type PulsedConfig struct {
	Constants rates.Constants
	Intensity float64
	// OnTime and OffTime are in seconds.
	OnTime, OffTime float64
	// OffSteps is the number of coarse steps the dark interval is split
	// into. Zero means DefaultOffSteps.
	OffSteps int
	// BinDark steps the dark interval at Constants.Timestep instead and
	// bins it after the lit interval, so the decay tail is recorded.
	// OffSteps is ignored.
	BinDark bool
	// BinWidth is the width of the bins each interval is split into [s].
	// Zero means one bin per step.
	BinWidth float64
	Pulses   int
}

// Validate returns an error if the configuration can't be run.
func (con *PulsedConfig) Validate() error {
	switch {
	case con.Pulses < 1:
		return fmt.Errorf("%w: Pulses = %d",
			gofluor.ErrDegenerateConfiguration, con.Pulses)
	case con.OffTime < 0 || math.IsNaN(con.OffTime):
		return fmt.Errorf("%w: OffTime = %g",
			gofluor.ErrDegenerateConfiguration, con.OffTime)
	case con.OffSteps < 0:
		return fmt.Errorf("%w: OffSteps = %d",
			gofluor.ErrDegenerateConfiguration, con.OffSteps)
	case con.BinWidth < 0 || math.IsNaN(con.BinWidth):
		return fmt.Errorf("%w: BinWidth = %g",
			gofluor.ErrDegenerateConfiguration, con.BinWidth)
	}
	if _, err := con.Constants.Derive(con.Intensity); err != nil {
		return err
	}
	if con.onSteps() < 1 {
		return fmt.Errorf("%w: OnTime = %g is shorter than one step",
			gofluor.ErrDegenerateConfiguration, con.OnTime)
	} else if con.litBins() < 1 {
		return fmt.Errorf("%w: BinWidth = %g is wider than OnTime = %g",
			gofluor.ErrDegenerateConfiguration, con.BinWidth, con.OnTime)
	}
	if con.BinDark && con.OffTime > 0 {
		if con.darkSteps() < 1 || con.darkBins() < 1 {
			return fmt.Errorf(
				"%w: binned OffTime = %g is shorter than one step or bin",
				gofluor.ErrDegenerateConfiguration, con.OffTime,
			)
		}
	}
	return nil
}

func (con *PulsedConfig) onSteps() int {
	return steps(con.OnTime, con.Constants.Timestep)
}

func (con *PulsedConfig) offSteps() int {
	if con.OffSteps == 0 {
		return DefaultOffSteps
	}
	return con.OffSteps
}

func (con *PulsedConfig) darkSteps() int {
	return steps(con.OffTime, con.Constants.Timestep)
}

func (con *PulsedConfig) litBins() int {
	if con.BinWidth == 0 {
		return con.onSteps()
	}
	return steps(con.OnTime, con.BinWidth)
}

func (con *PulsedConfig) darkBins() int {
	if !con.BinDark || con.OffTime == 0 {
		return 0
	} else if con.BinWidth == 0 {
		return con.darkSteps()
	}
	return steps(con.OffTime, con.BinWidth)
}

// Bins returns the number of bins a pulse cycle is split into: the lit
// interval's, followed by the dark interval's if BinDark is set.
func (con *PulsedConfig) Bins() int {
	return con.litBins() + con.darkBins()
}

// PulsedResult holds the summed counts of a duty cycle run, binned by time
// since the light was switched on.
type PulsedResult struct {
	Config PulsedConfig
	Acc    *stats.Accumulator
}

func (res *PulsedResult) Trials() int { return res.Acc.Trials() }

// Times returns the start of each bin [s].
func (res *PulsedResult) Times() []float64 {
	con := &res.Config
	lit, dark := con.litBins(), con.darkBins()
	out := stats.BinStarts(lit, con.OnTime/float64(lit))
	if dark == 0 {
		return out
	}
	tail := stats.BinStarts(dark, con.OffTime/float64(dark))
	floats.AddConst(con.OnTime, tail)
	return append(out, tail...)
}

// QuenchedOccupancy estimates the fraction of time spent quenched in each
// bin from the fluorescence emitted with and without a quencher present.
func (res *PulsedResult) QuenchedOccupancy() []float64 {
	c := &res.Config.Constants
	tq := c.QuenchedLifetime
	if tq == 0 {
		tq = c.Lifetime
	}
	return stats.QuenchedOccupancy(
		res.Acc.Series(Annihilation), res.Acc.Series(Fluorescence),
		tq, c.Lifetime,
	)
}

// Series returns one curve per accumulated series.
func (res *PulsedResult) Series() []stats.Series {
	xs := res.Times()
	title := fmt.Sprintf("Off time: %g ms", res.Config.OffTime*1e3)
	out := []stats.Series{}
	for _, name := range res.Acc.Names() {
		out = append(out, stats.Series{
			Name:   name,
			Title:  title,
			XLabel: "Time since light on [s]",
			YLabel: fmt.Sprintf("%s [counts]", name),
			X:      xs,
			Y:      res.Acc.Series(name),
		})
	}
	return out
}

// RunPulsed runs a duty cycle experiment. Unless BinDark is set, the dark
// interval is simulated with OffSteps coarse steps whose lifetimes are
// rescaled to the interval's length and nothing is recorded during it. An
// OffTime of zero skips the dark interval entirely, so the run is
// equivalent to a continuous trace folded with a period of OnTime.
func RunPulsed(con PulsedConfig, opts Options) (*PulsedResult, error) {
	return runPulsed(&con, &opts, 0)
}

func runPulsed(
	con *PulsedConfig, opts *Options, offset int64,
) (*PulsedResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	} else if err := con.Validate(); err != nil {
		return nil, err
	}

	c := &con.Constants
	on, err := c.Derive(con.Intensity)
	if err != nil {
		return nil, err
	}

	onSteps, litBins := con.onSteps(), con.litBins()
	lit := exposure{
		light: particle.On, steps: onSteps, period: onSteps, bins: litBins,
	}

	var off *rates.Probabilities
	offSteps := con.offSteps()
	dark := exposure{light: particle.Off}
	switch {
	case con.OffTime == 0:
	case con.BinDark:
		if off, err = c.Derive(0); err != nil {
			return nil, err
		}
		darkSteps := con.darkSteps()
		dark.steps, dark.period = darkSteps, darkSteps
		dark.bins, dark.first = con.darkBins(), litBins
	default:
		coarse := c.Rescaled(con.OffTime / float64(offSteps))
		if off, err = coarse.Derive(0); err != nil {
			return nil, err
		}
	}

	names := complexSeries(c)
	acc, err := run(opts, offset, stats.NewAccumulator(con.Bins(), names...),
		func(gen *rand.Generator, acc *stats.Accumulator) error {
			cx := particle.NewComplex(len(c.Counters))
			for pulse := 0; pulse < con.Pulses; pulse++ {
				expose(cx, lit, on, names, gen, acc)
				switch {
				case off == nil:
				case con.BinDark:
					expose(cx, dark, off, names, gen, acc)
				default:
					for i := 0; i < offSteps; i++ {
						cx.Step(particle.Off, off, gen)
					}
				}
			}
			return nil
		})
	if err != nil {
		return nil, err
	}

	return &PulsedResult{Config: *con, Acc: acc}, nil
}

// RunPulsedSweep runs con once per off time, stopping between runs if ctx is
// cancelled.
func RunPulsedSweep(
	ctx context.Context, con PulsedConfig, offTimes []float64, opts Options,
) ([]*PulsedResult, error) {
	if len(offTimes) == 0 {
		return nil, fmt.Errorf("%w: no off times to sweep over",
			gofluor.ErrDegenerateConfiguration)
	}

	log := opts.logger()
	out := []*PulsedResult{}
	for i, offTime := range offTimes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		log.Printf("Running off time %d/%d: %g s", i+1, len(offTimes), offTime)

		con.OffTime = offTime
		res, err := runPulsed(&con, &opts, int64(i*opts.Trials))
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

////////////////
// Time trace //
////////////////

// TraceConfig describes continuous illumination of a single complex,
// recorded as a binned time trace.
type TraceConfig struct {
	Constants rates.Constants
	Intensity float64
	// Duration of each trial [s].
	Duration float64
	// BinWidth [s]. Zero means one bin per step.
	BinWidth float64
	// Period folds the trace: step i is binned by its time modulo Period.
	// Zero means no folding.
	Period float64
}

func (con *TraceConfig) steps() int { return steps(con.Duration, con.Constants.Timestep) }

func (con *TraceConfig) period() int {
	if con.Period == 0 {
		return con.steps()
	}
	return steps(con.Period, con.Constants.Timestep)
}

// Bins returns the number of bins in the trace.
func (con *TraceConfig) Bins() int {
	span := con.Duration
	if con.Period > 0 {
		span = con.Period
	}
	if con.BinWidth == 0 {
		return steps(span, con.Constants.Timestep)
	}
	return steps(span, con.BinWidth)
}

// Validate returns an error if the configuration can't be run.
func (con *TraceConfig) Validate() error {
	if con.BinWidth < 0 || math.IsNaN(con.BinWidth) ||
		con.Period < 0 || math.IsNaN(con.Period) {
		return fmt.Errorf("%w: BinWidth = %g, Period = %g",
			gofluor.ErrDegenerateConfiguration, con.BinWidth, con.Period)
	}
	if _, err := con.Constants.Derive(con.Intensity); err != nil {
		return err
	}
	if con.steps() < 1 || con.period() < 1 || con.Bins() < 1 {
		return fmt.Errorf(
			"%w: Duration = %g, Period = %g and BinWidth = %g "+
				"leave nothing to record", gofluor.ErrDegenerateConfiguration,
			con.Duration, con.Period, con.BinWidth,
		)
	}
	return nil
}

// TraceResult holds the summed counts of a time trace.
type TraceResult struct {
	Config TraceConfig
	Acc    *stats.Accumulator
}

// Times returns the start of each bin [s].
func (res *TraceResult) Times() []float64 {
	bins := res.Config.Bins()
	span := float64(res.Config.period()) * res.Config.Constants.Timestep
	return stats.BinStarts(bins, span/float64(bins))
}

// RunTrace records a binned time trace under continuous illumination.
func RunTrace(con TraceConfig, opts Options) (*TraceResult, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	} else if err := con.Validate(); err != nil {
		return nil, err
	}

	c := &con.Constants
	p, err := c.Derive(con.Intensity)
	if err != nil {
		return nil, err
	}

	names := complexSeries(c)
	ex := exposure{
		light: particle.On, steps: con.steps(),
		period: con.period(), bins: con.Bins(),
	}
	acc, err := run(&opts, 0, stats.NewAccumulator(ex.bins, names...),
		func(gen *rand.Generator, acc *stats.Accumulator) error {
			cx := particle.NewComplex(len(c.Counters))
			expose(cx, ex, p, names, gen, acc)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return &TraceResult{Config: con, Acc: acc}, nil
}
