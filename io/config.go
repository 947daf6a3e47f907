package io

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
	"github.com/phil-mansfield/gofluor/trial"
)

const (
	ExampleLeafFile = `[Leaf]

#######################
# Required Parameters #
#######################

# Prefix of the output plots and tables.
Output = path/to/output/leaf

# Number of reaction centers in the leaf, and the number of equal layers
# they are split into. Light enters through the first layer.
Particles = 10000
Layers = 1

# Number of illuminated steps per trial.
Steps = 100

# Photon flux incident on the top layer, in photons per step over the leaf
# area. Flux can be given several times, in which case one simulation is run
# per flux and a light dependency curve is also made.
Flux = 200
Flux = 600
Flux = 1000

#######################
# Optional Parameters #
#######################

# Number of independent trials per flux. Default is 1.
# Trials = 1

# Dark steps run after the light is switched off. Default is 0.
# DarkSteps = 0

# The step at which the light dependency curve is measured. Default is the
# last illuminated step.
# Timepoint = 100

# Seed of the first trial. Every trial is seeded with Seed plus its index, so
# runs are reproducible. Default is 0.
# Seed = 0

# Random number generator: one of [ Xorshift | Tausworthe | Golang ].
# Generator = Xorshift

# Number of worker goroutines. Default is the number of logical cores.
# Workers = 4

# Overrides for the physical constants of the reaction centers. Unset values
# are taken from the preset.
# Preset = Leaf
# Timestep = 20e-9
# Lifetime = 2e-9
# Yield = 0.3
# Area = 10000
# CrossSection = 1

# Output files which are useful for profiling and debugging.
# ProfileFile = prof.out
# LogFile = log.out`

	ExampleSaturationFile = `[Saturation]
# Continuous illumination of a single pigment complex at a range of
# intensities.

#######################
# Required Parameters #
#######################

Output = path/to/output/saturation

# Excitation intensities in W/cm^2. Alternatively, the intensities can be
# read from one column of a whitespace separated table with IntensityFile and
# IntensityColumn.
Intensity = 10
Intensity = 50
Intensity = 150
Intensity = 300
Intensity = 1000
Intensity = 2000
# IntensityFile = path/to/intensities.txt
# IntensityColumn = 0

#######################
# Optional Parameters #
#######################

# Steps per trial and intensity. Default is 1000000.
# Repetitions = 1000000

# Fraction of emitted photons which reach the detector. Default is 1.
# Efficiency = 0.035

# One of [ PSII | PSIIPulsed | LHCII ]. Default is PSII.
# Preset = PSII

# Trials = 1
# Seed = 0
# Generator = Xorshift
# Workers = 4
# LogFile = log.out

# Counters can be redefined with [Counter "name"] sections. If any are given,
# they replace the preset's counters and are ordered by Order, then by name.
# Earlier counters take precedence when a decay could create either.
#
# [Counter "car"]
# Lifetime = 9e-6
# Yield = 0.0738
# QuenchedYield = 0.001
# Max = 1
# Order = 1`

	ExamplePulsedFile = `[Pulsed]
# Square wave illumination of a single pigment complex. Each trial starts
# from a fresh complex and runs Pulses cycles of OnTime of light followed by
# OffTime of darkness.

#######################
# Required Parameters #
#######################

Output = path/to/output/pulsed

# Excitation intensity in W/cm^2.
Intensity = 75

# Length of the lit interval in seconds.
OnTime = 0.8e-3

# Lengths of the dark interval in seconds. One run is made per value. An
# OffTime of 0 gives continuous illumination.
OffTime = 10e-3
OffTime = 1.5e-3
OffTime = 0.5e-3
OffTime = 0.1e-3

#######################
# Optional Parameters #
#######################

# Width of the time bins the lit interval is split into, in seconds. Default
# is 2e-5.
# BinWidth = 2e-5

# Number of cycles per trial. Default is 1.
# Pulses = 1

# Number of coarse steps the dark interval is simulated with. Default is 3.
# OffSteps = 3

# Step the dark interval at the preset's timestep and bin it after the lit
# interval, recording the fluorescence decay once the light goes off.
# OffSteps is ignored if this is set. Default is false.
# BinDark = false

# Preset = PSIIPulsed
# Trials = 500
# Seed = 0
# Generator = Xorshift
# Workers = 4
# LogFile = log.out`
)

type SharedConfig struct {
	// Required
	Output string

	// Optional
	LogFile, ProfileFile string
	Seed                 int64
	Workers              int
	Generator            string
	Trials               int
}

func (con *SharedConfig) ValidOutput() bool {
	return con.Output != ""
}
func (con *SharedConfig) ValidLogFile() bool {
	return con.LogFile != ""
}
func (con *SharedConfig) ValidProfileFile() bool {
	return con.ProfileFile != ""
}
func (con *SharedConfig) ValidTrials() bool {
	return con.Trials > 0
}
func (con *SharedConfig) ValidWorkers() bool {
	return con.Workers >= 0
}
func (con *SharedConfig) ValidGenerator() bool {
	_, err := rand.ParseGeneratorType(con.Generator)
	return err == nil
}

func (con *SharedConfig) CheckInit(mode string) error {
	if !con.ValidOutput() {
		return fmt.Errorf("Invalid/non-existent 'Output' value in [%s].", mode)
	} else if !con.ValidTrials() {
		return fmt.Errorf(
			"'Trials' in [%s] must be positive, but is %d.", mode, con.Trials,
		)
	} else if !con.ValidWorkers() {
		return fmt.Errorf(
			"'Workers' in [%s] must be non-negative, but is %d.",
			mode, con.Workers,
		)
	} else if !con.ValidGenerator() {
		return fmt.Errorf(
			"Unrecognized 'Generator' value '%s' in [%s].",
			con.Generator, mode,
		)
	}
	return nil
}

// Options returns the trial options described by con. CheckInit must have
// been called first.
func (con *SharedConfig) Options() trial.Options {
	gt, _ := rand.ParseGeneratorType(con.Generator)
	return trial.Options{
		Trials:    con.Trials,
		Workers:   con.Workers,
		Seed:      con.Seed,
		Generator: gt,
	}
}

// ModelConfig selects a preset and optionally overrides its constants. Zero
// values leave the preset untouched.
type ModelConfig struct {
	Preset string

	Timestep, CrossSection, Area float64
	Lifetime, QuenchedLifetime   float64
	Yield, QuenchedYield         float64
}

func (con *ModelConfig) ValidPreset() bool {
	_, ok := rates.Preset(con.Preset)
	return ok
}

// Constants returns the preset's constants with con's overrides applied. If
// counters is non-empty it replaces the preset's counters.
func (con *ModelConfig) Constants(
	counters map[string]*CounterConfig,
) (rates.Constants, error) {
	c, ok := rates.Preset(con.Preset)
	if !ok {
		return c, fmt.Errorf("Unrecognized 'Preset' value '%s'.", con.Preset)
	}

	overrides := []struct {
		name string
		x    float64
		dst  *float64
	}{
		{"Timestep", con.Timestep, &c.Timestep},
		{"CrossSection", con.CrossSection, &c.CrossSection},
		{"Area", con.Area, &c.Area},
		{"Lifetime", con.Lifetime, &c.Lifetime},
		{"QuenchedLifetime", con.QuenchedLifetime, &c.QuenchedLifetime},
		{"Yield", con.Yield, &c.Yield},
		{"QuenchedYield", con.QuenchedYield, &c.QuenchedYield},
	}
	for _, o := range overrides {
		if o.x < 0 || math.IsNaN(o.x) {
			return c, fmt.Errorf("'%s' must be non-negative, but is %g.",
				o.name, o.x)
		} else if o.x != 0 {
			*o.dst = o.x
		}
	}

	if len(counters) > 0 {
		c.Counters = counterConstants(counters)
	}

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

type CounterConfig struct {
	// Required
	Lifetime, Yield float64

	// Optional
	QuenchedYield float64
	Max, Order    int
	Name          string
}

func (cc *CounterConfig) CheckInit(name string) error {
	if cc.Lifetime <= 0 {
		return fmt.Errorf(
			"Need to specify a positive Lifetime for Counter '%s'.", name,
		)
	} else if cc.Yield < 0 || cc.Yield > 1 {
		return fmt.Errorf(
			"Yield of Counter '%s' must be in range [0, 1], but is %g.",
			name, cc.Yield,
		)
	} else if cc.QuenchedYield < 0 || cc.QuenchedYield > 1 {
		return fmt.Errorf(
			"QuenchedYield of Counter '%s' must be in range [0, 1], but is %g.",
			name, cc.QuenchedYield,
		)
	} else if cc.Max < 0 {
		return fmt.Errorf(
			"Counter '%s' given a negative Max, %d.", name, cc.Max,
		)
	}

	cc.Name = name
	return nil
}

func counterConstants(counters map[string]*CounterConfig) []rates.CounterConstants {
	ccs := make([]*CounterConfig, 0, len(counters))
	for name, cc := range counters {
		cc.Name = name
		ccs = append(ccs, cc)
	}
	sort.Slice(ccs, func(i, j int) bool {
		if ccs[i].Order != ccs[j].Order {
			return ccs[i].Order < ccs[j].Order
		}
		return ccs[i].Name < ccs[j].Name
	})

	out := make([]rates.CounterConstants, len(ccs))
	for i, cc := range ccs {
		out[i] = rates.CounterConstants{
			Name:          cc.Name,
			Lifetime:      cc.Lifetime,
			Yield:         cc.Yield,
			QuenchedYield: cc.QuenchedYield,
			Max:           cc.Max,
		}
	}
	return out
}

func checkCounters(counters map[string]*CounterConfig) error {
	for name, cc := range counters {
		if err := cc.CheckInit(name); err != nil {
			return err
		}
	}
	return nil
}

//////////
// Leaf //
//////////

type LeafConfig struct {
	SharedConfig
	ModelConfig

	// Required
	Particles, Layers, Steps int
	Flux                     []float64

	// Optional
	DarkSteps, Timepoint int
}

type LeafWrapper struct {
	Leaf LeafConfig
}

func DefaultLeafWrapper() *LeafWrapper {
	con := LeafConfig{}
	con.Trials = 1
	con.Layers = 1
	con.Preset = "Leaf"
	con.Timepoint = -1
	return &LeafWrapper{con}
}

func (con *LeafConfig) ValidParticles() bool {
	return con.Particles > 0
}
func (con *LeafConfig) ValidLayers() bool {
	return con.Layers > 0 && con.Layers <= con.Particles
}
func (con *LeafConfig) ValidSteps() bool {
	return con.Steps > 0
}
func (con *LeafConfig) ValidFlux() bool {
	if len(con.Flux) == 0 {
		return false
	}
	for _, flux := range con.Flux {
		if flux < 0 || math.IsNaN(flux) {
			return false
		}
	}
	return true
}
func (con *LeafConfig) ValidDarkSteps() bool {
	return con.DarkSteps >= 0
}
func (con *LeafConfig) ValidTimepoint() bool {
	return con.Timepoint >= 0 && con.Timepoint <= con.Steps+con.DarkSteps
}

func (con *LeafConfig) CheckInit() error {
	if err := con.SharedConfig.CheckInit("Leaf"); err != nil {
		return err
	}

	switch {
	case !con.ValidPreset():
		return fmt.Errorf("Unrecognized 'Preset' value '%s'.", con.Preset)
	case !con.ValidParticles():
		return fmt.Errorf("Invalid/non-existent 'Particles' value.")
	case !con.ValidLayers():
		return fmt.Errorf(
			"'Layers' must be in range [1, %d], but is %d.",
			con.Particles, con.Layers,
		)
	case !con.ValidSteps():
		return fmt.Errorf("Invalid/non-existent 'Steps' value.")
	case !con.ValidFlux():
		return fmt.Errorf(
			"Need to specify at least one non-negative 'Flux' value.",
		)
	case !con.ValidDarkSteps():
		return fmt.Errorf(
			"'DarkSteps' must be non-negative, but is %d.", con.DarkSteps,
		)
	}

	if con.Timepoint == -1 {
		con.Timepoint = con.Steps
	} else if !con.ValidTimepoint() {
		return fmt.Errorf(
			"'Timepoint' must be in range [0, %d], but is %d.",
			con.Steps+con.DarkSteps, con.Timepoint,
		)
	}

	return nil
}

// Trial returns the leaf configuration for the first flux.
func (con *LeafConfig) Trial() (trial.LeafConfig, error) {
	c, err := con.Constants(nil)
	if err != nil {
		return trial.LeafConfig{}, err
	}
	return trial.LeafConfig{
		Constants: c,
		Particles: con.Particles,
		Layers:    con.Layers,
		Flux:      con.Flux[0],
		Steps:     con.Steps,
		DarkSteps: con.DarkSteps,
	}, nil
}

////////////////
// Saturation //
////////////////

type SaturationConfig struct {
	SharedConfig
	ModelConfig

	// Required
	Intensity       []float64
	IntensityFile   string
	IntensityColumn int

	// Optional
	Repetitions int
	Efficiency  float64
}

type SaturationWrapper struct {
	Saturation SaturationConfig
	Counter    map[string]*CounterConfig
}

func DefaultSaturationWrapper() *SaturationWrapper {
	con := SaturationConfig{}
	con.Trials = 1
	con.Preset = "PSII"
	con.Repetitions = 1000000
	con.Efficiency = 1
	return &SaturationWrapper{Saturation: con}
}

func (con *SaturationConfig) ValidIntensity() bool {
	for _, x := range con.Intensity {
		if x < 0 || math.IsNaN(x) {
			return false
		}
	}
	return len(con.Intensity) > 0
}
func (con *SaturationConfig) ValidIntensityFile() bool {
	return con.IntensityFile != ""
}
func (con *SaturationConfig) ValidIntensityColumn() bool {
	return con.IntensityColumn >= 0
}
func (con *SaturationConfig) ValidRepetitions() bool {
	return con.Repetitions > 0
}
func (con *SaturationConfig) ValidEfficiency() bool {
	return con.Efficiency > 0 && con.Efficiency <= 1
}

func (con *SaturationConfig) CheckInit() error {
	if err := con.SharedConfig.CheckInit("Saturation"); err != nil {
		return err
	}

	switch {
	case !con.ValidPreset():
		return fmt.Errorf("Unrecognized 'Preset' value '%s'.", con.Preset)
	case con.ValidIntensityFile() && len(con.Intensity) > 0:
		return fmt.Errorf(
			"Only one of 'Intensity' and 'IntensityFile' may be set.",
		)
	case con.ValidIntensityFile() && !con.ValidIntensityColumn():
		return fmt.Errorf(
			"'IntensityColumn' must be non-negative, but is %d.",
			con.IntensityColumn,
		)
	case !con.ValidIntensityFile() && !con.ValidIntensity():
		return fmt.Errorf(
			"Need to specify non-negative 'Intensity' values or an " +
				"'IntensityFile'.",
		)
	case !con.ValidRepetitions():
		return fmt.Errorf(
			"'Repetitions' must be positive, but is %d.", con.Repetitions,
		)
	case !con.ValidEfficiency():
		return fmt.Errorf(
			"'Efficiency' must be in range (0, 1], but is %g.", con.Efficiency,
		)
	}

	return nil
}

// Intensities returns the intensities to sweep over, reading them from
// IntensityFile if it was set.
func (con *SaturationConfig) Intensities() ([]float64, error) {
	if !con.ValidIntensityFile() {
		return con.Intensity, nil
	}
	return ReadIntensities(con.IntensityFile, con.IntensityColumn)
}

// Trial returns the saturation configuration described by wrap.
func (wrap *SaturationWrapper) Trial() (trial.SaturationConfig, error) {
	con := &wrap.Saturation
	c, err := con.Constants(wrap.Counter)
	if err != nil {
		return trial.SaturationConfig{}, err
	}
	intensities, err := con.Intensities()
	if err != nil {
		return trial.SaturationConfig{}, err
	}
	return trial.SaturationConfig{
		Constants:   c,
		Intensities: intensities,
		Repetitions: con.Repetitions,
		Efficiency:  con.Efficiency,
	}, nil
}

////////////
// Pulsed //
////////////

type PulsedConfig struct {
	SharedConfig
	ModelConfig

	// Required
	Intensity float64
	OnTime    float64
	OffTime   []float64

	// Optional
	BinWidth         float64
	Pulses, OffSteps int
	BinDark          bool
}

type PulsedWrapper struct {
	Pulsed  PulsedConfig
	Counter map[string]*CounterConfig
}

func DefaultPulsedWrapper() *PulsedWrapper {
	con := PulsedConfig{}
	con.Trials = 1
	con.Preset = "PSIIPulsed"
	con.BinWidth = 2e-5
	con.Pulses = 1
	con.OffSteps = trial.DefaultOffSteps
	return &PulsedWrapper{Pulsed: con}
}

func (con *PulsedConfig) ValidIntensity() bool {
	return con.Intensity >= 0 && !math.IsNaN(con.Intensity)
}
func (con *PulsedConfig) ValidOnTime() bool {
	return con.OnTime > 0
}
func (con *PulsedConfig) ValidOffTime() bool {
	for _, x := range con.OffTime {
		if x < 0 || math.IsNaN(x) {
			return false
		}
	}
	return len(con.OffTime) > 0
}
func (con *PulsedConfig) ValidBinWidth() bool {
	return con.BinWidth > 0 && con.BinWidth <= con.OnTime
}
func (con *PulsedConfig) ValidPulses() bool {
	return con.Pulses > 0
}
func (con *PulsedConfig) ValidOffSteps() bool {
	return con.OffSteps > 0
}

func (con *PulsedConfig) CheckInit() error {
	if err := con.SharedConfig.CheckInit("Pulsed"); err != nil {
		return err
	}

	switch {
	case !con.ValidPreset():
		return fmt.Errorf("Unrecognized 'Preset' value '%s'.", con.Preset)
	case !con.ValidIntensity():
		return fmt.Errorf(
			"'Intensity' must be non-negative, but is %g.", con.Intensity,
		)
	case !con.ValidOnTime():
		return fmt.Errorf("Invalid/non-existent 'OnTime' value.")
	case !con.ValidOffTime():
		return fmt.Errorf(
			"Need to specify at least one non-negative 'OffTime' value.",
		)
	case !con.ValidBinWidth():
		return fmt.Errorf(
			"'BinWidth' must be in range (0, OnTime = %g], but is %g.",
			con.OnTime, con.BinWidth,
		)
	case !con.ValidPulses():
		return fmt.Errorf("'Pulses' must be positive, but is %d.", con.Pulses)
	case !con.ValidOffSteps():
		return fmt.Errorf(
			"'OffSteps' must be positive, but is %d.", con.OffSteps,
		)
	}

	return nil
}

// Trial returns the pulsed configuration for the first off time.
func (wrap *PulsedWrapper) Trial() (trial.PulsedConfig, error) {
	con := &wrap.Pulsed
	c, err := con.Constants(wrap.Counter)
	if err != nil {
		return trial.PulsedConfig{}, err
	}
	return trial.PulsedConfig{
		Constants: c,
		Intensity: con.Intensity,
		OnTime:    con.OnTime,
		OffTime:   con.OffTime[0],
		OffSteps:  con.OffSteps,
		BinDark:   con.BinDark,
		BinWidth:  con.BinWidth,
		Pulses:    con.Pulses,
	}, nil
}

/////////////
// Reading //
/////////////

// ReadLeafConfig reads and checks a [Leaf] file.
func ReadLeafConfig(fname string) (*LeafWrapper, error) {
	wrap := DefaultLeafWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Leaf.CheckInit(); err != nil {
		return nil, err
	}
	return wrap, nil
}

// ReadSaturationConfig reads and checks a [Saturation] file.
func ReadSaturationConfig(fname string) (*SaturationWrapper, error) {
	wrap := DefaultSaturationWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Saturation.CheckInit(); err != nil {
		return nil, err
	}
	if err := checkCounters(wrap.Counter); err != nil {
		return nil, err
	}
	return wrap, nil
}

// ReadPulsedConfig reads and checks a [Pulsed] file.
func ReadPulsedConfig(fname string) (*PulsedWrapper, error) {
	wrap := DefaultPulsedWrapper()
	if err := gcfg.ReadFileInto(wrap, fname); err != nil {
		return nil, err
	}
	if err := wrap.Pulsed.CheckInit(); err != nil {
		return nil, err
	}
	if err := checkCounters(wrap.Counter); err != nil {
		return nil, err
	}
	return wrap, nil
}

// ExampleConfig returns the example file for the named mode.
func ExampleConfig(mode string) (string, error) {
	switch strings.ToLower(mode) {
	case "leaf":
		return ExampleLeafFile, nil
	case "saturation":
		return ExampleSaturationFile, nil
	case "pulsed":
		return ExamplePulsedFile, nil
	}
	return "", fmt.Errorf(
		"Unrecognized 'ExampleConfig' argument '%s'. Only recognized "+
			"arguments are 'Leaf', 'Saturation', and 'Pulsed'.", mode,
	)
}
