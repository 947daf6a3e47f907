package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/phil-mansfield/gofluor/io"
	"github.com/phil-mansfield/gofluor/stats"
	"github.com/phil-mansfield/gofluor/trial"
)

// FileGroup contains utility files for logging and writing profiles to.
type FileGroup struct {
	log, prof *os.File
}

// Close closes the files inside FileGroup.
func (fg *FileGroup) Close() {
	if fg.log != nil {
		err := fg.log.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}

	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		leafStr, saturationStr, pulsedStr string
		exampleConfig                     string
	)
	vars := map[string]*string{
		"Leaf":          &leafStr,
		"Saturation":    &saturationStr,
		"Pulsed":        &pulsedStr,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&leafStr, "Leaf", "",
		"Configuration file for [Leaf] mode.",
	)
	flag.StringVar(
		&saturationStr, "Saturation", "",
		"Configuration file for [Saturation] mode.",
	)
	flag.StringVar(
		&pulsedStr, "Pulsed", "",
		"Configuration file for [Pulsed] mode.",
	)
	flag.StringVar(
		&exampleConfig,
		"ExampleConfig", "", "Prints an example configuration file of the "+
			"specified type to stdout. Accepted arguments are 'Leaf', "+
			"'Saturation', and 'Pulsed'.",
	)

	flag.Parse()

	// Figure out the mode and fail with a descriptive error if the user
	// gave incorrect flags.
	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch modeName {
	case "Leaf":
		wrap, err := io.ReadLeafConfig(leafStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg := setupFiles(&wrap.Leaf.SharedConfig)
		defer fg.Close()
		leafMain(ctx, &wrap.Leaf)

	case "Saturation":
		wrap, err := io.ReadSaturationConfig(saturationStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg := setupFiles(&wrap.Saturation.SharedConfig)
		defer fg.Close()
		saturationMain(ctx, wrap)

	case "Pulsed":
		wrap, err := io.ReadPulsedConfig(pulsedStr)
		if err != nil {
			log.Fatal(err.Error())
		}
		fg := setupFiles(&wrap.Pulsed.SharedConfig)
		defer fg.Close()
		pulsedMain(ctx, wrap)

	case "ExampleConfig":
		text, err := io.ExampleConfig(exampleConfig)
		if err != nil {
			log.Fatal(err.Error())
		}
		fmt.Println(text)

	default:
		panic("Impossible")
	}
}

// getModeName returns the name of the mode and fails with a descriptive error
// if the user provided less or more than one mode flag.
func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but gofluor "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

// setupFiles redirects logging and starts profiling if the config asks for
// it.
func setupFiles(con *io.SharedConfig) *FileGroup {
	fg := &FileGroup{}

	if con.ValidLogFile() {
		f, err := os.Create(con.LogFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.SetOutput(f)
		fg.log = f
	}

	if con.ValidProfileFile() {
		f, err := os.Create(con.ProfileFile)
		if err != nil {
			log.Fatal(err.Error())
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err.Error())
		}
		fg.prof = f
	}

	return fg
}

func options(con *io.SharedConfig) trial.Options {
	opts := con.Options()
	opts.Log = log.New(log.Writer(), "", log.LstdFlags)
	return opts
}

func leafMain(ctx context.Context, con *io.LeafConfig) {
	tcon, err := con.Trial()
	if err != nil {
		log.Fatal(err.Error())
	}
	opts := options(&con.SharedConfig)

	res, err := trial.RunLeafSweep(ctx, tcon, con.Flux, con.Timepoint, opts)
	if err != nil {
		log.Fatal(err.Error())
	}

	traces := make([]stats.Series, len(res.Results))
	for i, r := range res.Results {
		traces[i] = r.Trace()
		traces[i].Name = fmt.Sprintf("flux_%g", r.Config.Flux)
	}
	writeAndPlot(con.Output+"_trace", traces, false)

	if len(con.Flux) > 1 {
		dep := res.LightDependency()
		writeAndPlot(con.Output+"_light_dependency", []stats.Series{dep}, false)
	}

	plt.Execute()
	log.Printf("Finished %d leaf runs.", len(res.Results))
}

func saturationMain(ctx context.Context, wrap *io.SaturationWrapper) {
	con := &wrap.Saturation
	tcon, err := wrap.Trial()
	if err != nil {
		log.Fatal(err.Error())
	}
	opts := options(&con.SharedConfig)

	res, err := trial.RunSaturation(ctx, tcon, opts)
	if err != nil {
		log.Fatal(err.Error())
	}

	for _, s := range res.Series() {
		name := strings.Replace(s.Name, ":", "_", -1)
		writeAndPlot(con.Output+"_"+name, []stats.Series{s}, true)
	}

	plt.Execute()
	log.Printf("Finished %d intensities.", len(res.Intensities))
}

func pulsedMain(ctx context.Context, wrap *io.PulsedWrapper) {
	con := &wrap.Pulsed
	tcon, err := wrap.Trial()
	if err != nil {
		log.Fatal(err.Error())
	}
	opts := options(&con.SharedConfig)

	results, err := trial.RunPulsedSweep(ctx, tcon, con.OffTime, opts)
	if err != nil {
		log.Fatal(err.Error())
	}

	// One file per accumulated series, with one curve per off time.
	names := results[0].Acc.Names()
	for i, name := range names {
		group := make([]stats.Series, len(results))
		for j, res := range results {
			group[j] = res.Series()[i]
			group[j].Name = fmt.Sprintf("off_%gms", res.Config.OffTime*1e3)
			group[j].X = stats.Scale(group[j].X, 1e3)
			group[j].XLabel = "Time since light on [ms]"
		}
		fname := con.Output + "_" + strings.Replace(name, ":", "_", -1)
		writeAndPlot(fname, group, false)
	}

	occ := make([]stats.Series, len(results))
	for j, res := range results {
		occ[j] = stats.Series{
			Name:   fmt.Sprintf("off_%gms", res.Config.OffTime*1e3),
			Title:  "Estimated quenched fraction",
			XLabel: "Time since light on [ms]",
			YLabel: "Quenched fraction",
			X:      stats.Scale(res.Times(), 1e3),
			Y:      res.QuenchedOccupancy(),
		}
	}
	writeAndPlot(con.Output+"_quenched", occ, false)

	plt.Execute()
	log.Printf("Finished %d off times.", len(results))
}
