package io

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/phil-mansfield/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gcfg.v1"

	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/rates"
	"github.com/phil-mansfield/gofluor/stats"
)

func TestExampleFilesParse(t *testing.T) {
	leaf := DefaultLeafWrapper()
	require.NoError(t, gcfg.ReadStringInto(leaf, ExampleLeafFile))
	require.NoError(t, leaf.Leaf.CheckInit())
	assert.Equal(t, []float64{200, 600, 1000}, leaf.Leaf.Flux)
	assert.Equal(t, 10000, leaf.Leaf.Particles)
	assert.Equal(t, 100, leaf.Leaf.Timepoint)
	assert.Equal(t, "path/to/output/leaf", leaf.Leaf.Output)

	sat := DefaultSaturationWrapper()
	require.NoError(t, gcfg.ReadStringInto(sat, ExampleSaturationFile))
	require.NoError(t, sat.Saturation.CheckInit())
	assert.Equal(t,
		[]float64{10, 50, 150, 300, 1000, 2000}, sat.Saturation.Intensity)
	assert.Equal(t, 1000000, sat.Saturation.Repetitions)
	assert.Empty(t, sat.Counter)

	pulsed := DefaultPulsedWrapper()
	require.NoError(t, gcfg.ReadStringInto(pulsed, ExamplePulsedFile))
	require.NoError(t, pulsed.Pulsed.CheckInit())
	assert.Equal(t, []float64{10e-3, 1.5e-3, 0.5e-3, 0.1e-3},
		pulsed.Pulsed.OffTime)
	assert.Equal(t, 75.0, pulsed.Pulsed.Intensity)
	assert.Equal(t, 3, pulsed.Pulsed.OffSteps)
	assert.False(t, pulsed.Pulsed.BinDark)

	for _, mode := range []string{"Leaf", "saturation", "PULSED"} {
		_, err := ExampleConfig(mode)
		assert.NoError(t, err, mode)
	}
	_, err := ExampleConfig("Render")
	assert.Error(t, err)
}

func TestLeafConfig(t *testing.T) {
	text := `[Leaf]
Output = out
Particles = 500
Layers = 5
Steps = 40
DarkSteps = 10
Flux = 300
Trials = 7
Seed = 12
Generator = Tausworthe
Workers = 3
Yield = 0.25
`
	wrap := DefaultLeafWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, text))
	con := &wrap.Leaf
	require.NoError(t, con.CheckInit())
	assert.Equal(t, 40, con.Timepoint)

	opts := con.Options()
	assert.Equal(t, 7, opts.Trials)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, int64(12), opts.Seed)
	assert.Equal(t, rand.Tausworthe, opts.Generator)

	tcon, err := con.Trial()
	require.NoError(t, err)
	assert.Equal(t, 500, tcon.Particles)
	assert.Equal(t, 5, tcon.Layers)
	assert.Equal(t, 300.0, tcon.Flux)
	assert.Equal(t, 10, tcon.DarkSteps)
	assert.Equal(t, 0.25, tcon.Constants.Yield)
	assert.Equal(t, rates.LeafReactionCenter().Lifetime, tcon.Constants.Lifetime)
}

func TestInvalidConfigs(t *testing.T) {
	leafs := []string{
		"[Leaf]\nParticles = 10\nSteps = 5\nFlux = 1\n",
		"[Leaf]\nOutput = o\nSteps = 5\nFlux = 1\n",
		"[Leaf]\nOutput = o\nParticles = 10\nFlux = 1\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\nFlux = -1\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\nFlux = 1\nLayers = 11\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\nFlux = 1\nTrials = 0\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\nFlux = 1\nTimepoint = 6\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\nFlux = 1\nGenerator = Mt\n",
		"[Leaf]\nOutput = o\nParticles = 10\nSteps = 5\nFlux = 1\nPreset = PSI\n",
	}
	for i, text := range leafs {
		wrap := DefaultLeafWrapper()
		require.NoError(t, gcfg.ReadStringInto(wrap, text), "%d", i+1)
		if err := wrap.Leaf.CheckInit(); err == nil {
			t.Errorf("%d) expected an error for %q", i+1, text)
		}
	}

	sats := []string{
		"[Saturation]\nOutput = o\n",
		"[Saturation]\nOutput = o\nIntensity = 1\nIntensityFile = f.txt\n",
		"[Saturation]\nOutput = o\nIntensity = 1\nRepetitions = 0\n",
		"[Saturation]\nOutput = o\nIntensity = 1\nEfficiency = 2\n",
	}
	for i, text := range sats {
		wrap := DefaultSaturationWrapper()
		require.NoError(t, gcfg.ReadStringInto(wrap, text), "%d", i+1)
		if err := wrap.Saturation.CheckInit(); err == nil {
			t.Errorf("%d) expected an error for %q", i+1, text)
		}
	}

	pulses := []string{
		"[Pulsed]\nOutput = o\nOffTime = 0\n",
		"[Pulsed]\nOutput = o\nOnTime = 1e-3\n",
		"[Pulsed]\nOutput = o\nOnTime = 1e-3\nOffTime = -1\n",
		"[Pulsed]\nOutput = o\nOnTime = 1e-5\nOffTime = 0\n",
		"[Pulsed]\nOutput = o\nOnTime = 1e-3\nOffTime = 0\nPulses = 0\n",
	}
	for i, text := range pulses {
		wrap := DefaultPulsedWrapper()
		require.NoError(t, gcfg.ReadStringInto(wrap, text), "%d", i+1)
		if err := wrap.Pulsed.CheckInit(); err == nil {
			t.Errorf("%d) expected an error for %q", i+1, text)
		}
	}
}

func TestCounterSections(t *testing.T) {
	text := `[Pulsed]
Output = o
Intensity = 500
OnTime = 1e-4
OffTime = 1e-3
OffTime = 0
Preset = LHCII

[Counter "b"]
Lifetime = 1e-5
Yield = 0.1
Order = 1

[Counter "a"]
Lifetime = 2e-3
Yield = 0.05
Max = 1
Order = 1

[Counter "z"]
Lifetime = 1e-6
Yield = 0.2
QuenchedYield = 0.01
`
	wrap := DefaultPulsedWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, text))
	require.NoError(t, wrap.Pulsed.CheckInit())
	require.NoError(t, checkCounters(wrap.Counter))

	tcon, err := wrap.Trial()
	require.NoError(t, err)
	cs := tcon.Constants.Counters
	require.Len(t, cs, 3)
	assert.Equal(t, "z", cs[0].Name)
	assert.Equal(t, "a", cs[1].Name)
	assert.Equal(t, "b", cs[2].Name)
	assert.Equal(t, 1, cs[1].Max)
	assert.Equal(t, 0.01, cs[0].QuenchedYield)
	assert.Equal(t, 1e-3, tcon.OffTime)
	assert.Equal(t, rates.LHCIIComplex().Timestep, tcon.Constants.Timestep)

	bad := DefaultPulsedWrapper()
	require.NoError(t, gcfg.ReadStringInto(bad,
		"[Counter \"x\"]\nYield = 0.1\n"))
	assert.Error(t, checkCounters(bad.Counter))
}

func TestPulsedBinDark(t *testing.T) {
	text := `[Pulsed]
Output = o
Intensity = 75
OnTime = 1e-4
OffTime = 5e-5
BinWidth = 1e-5
BinDark = true
`
	wrap := DefaultPulsedWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, text))
	require.NoError(t, wrap.Pulsed.CheckInit())

	tcon, err := wrap.Trial()
	require.NoError(t, err)
	assert.True(t, tcon.BinDark)
	assert.Equal(t, 15, tcon.Bins())
	require.NoError(t, tcon.Validate())
}

func TestCounterYieldsMustPartition(t *testing.T) {
	text := `[Saturation]
Output = o
Intensity = 10

[Counter "a"]
Lifetime = 1e-5
Yield = 0.6

[Counter "b"]
Lifetime = 1e-5
Yield = 0.6
`
	wrap := DefaultSaturationWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap, text))
	require.NoError(t, wrap.Saturation.CheckInit())
	require.NoError(t, checkCounters(wrap.Counter))

	_, err := wrap.Trial()
	assert.Error(t, err)
}

func TestIntensityFile(t *testing.T) {
	dir, err := ioutil.TempDir("", "gofluor")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fname := filepath.Join(dir, "intensities.txt")
	data := "# intensity weight\n10 1\n50 2\n150 3\n"
	require.NoError(t, ioutil.WriteFile(fname, []byte(data), 0644))

	xs, err := ReadIntensities(fname, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 50, 150}, xs)

	wrap := DefaultSaturationWrapper()
	require.NoError(t, gcfg.ReadStringInto(wrap,
		"[Saturation]\nOutput = o\nIntensityColumn = 1\nIntensityFile = "+
			fname+"\n"))
	require.NoError(t, wrap.Saturation.CheckInit())
	tcon, err := wrap.Trial()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, tcon.Intensities)
	assert.Equal(t, rates.PSIIComplex(), tcon.Constants)
}

func TestWriteSeries(t *testing.T) {
	dir, err := ioutil.TempDir("", "gofluor")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	fname := filepath.Join(dir, "out.txt")
	series := []stats.Series{
		{Name: "fluorescence", XLabel: "time", X: []float64{0, 1, 2},
			Y: []float64{5, 6, 7}},
		{Name: "absorbed", X: []float64{0, 1, 2}, Y: []float64{1.5, 0, 2e-7}},
	}
	require.NoError(t, WriteSeries(fname, series))

	cols, err := table.ReadTable(fname, []int{0, 1, 2}, nil)
	require.NoError(t, err)
	assert.Equal(t, series[0].X, cols[0])
	assert.Equal(t, series[0].Y, cols[1])
	assert.Equal(t, series[1].Y, cols[2])

	series[1].Y = series[1].Y[:2]
	assert.Error(t, WriteSeries(fname, series))
	assert.Error(t, WriteSeries(fname, nil))
}
