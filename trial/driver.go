/*package trial runs repeated Monte Carlo experiments over particles and
leaves and accumulates their binned results.

Trials are spread over a pool of workers. Every trial draws from its own
generator, seeded from Options.Seed and the trial's index within the sweep,
and every worker fills a private accumulator which is merged with the
others once all the trials have finished. Results therefore depend on the seed but not on the
number of workers.
*/
package trial

import (
	"fmt"
	"io/ioutil"
	"log"
	"runtime"

	"github.com/phil-mansfield/gofluor"
	"github.com/phil-mansfield/gofluor/rand"
	"github.com/phil-mansfield/gofluor/stats"
)

// Names of the accumulated series.
const (
	Fluorescence = "fluorescence"
	Absorbed     = "absorbed"
	Annihilation = "annihilation"
)

// CounterSeries returns the name of the series holding the summed
// population of the named counter.
func CounterSeries(name string) string { return "counter:" + name }

// Options control how trials are run.
type Options struct {
	// Trials is the number of independent trials per configuration.
	Trials int
	// Workers is the number of goroutines trials are spread over. Zero
	// means one per CPU.
	Workers int
	// Seed of the first trial. Trial i of configuration k of a sweep is
	// seeded with Seed + k*Trials + i.
	Seed      int64
	Generator rand.GeneratorType
	// Log receives progress messages. May be nil.
	Log *log.Logger
}

// Validate returns an error if no work could be done with opts.
func (opts *Options) Validate() error {
	if opts.Trials < 1 {
		return fmt.Errorf("%w: Trials = %d, must be positive",
			gofluor.ErrDegenerateConfiguration, opts.Trials)
	} else if opts.Workers < 0 {
		return fmt.Errorf("%w: Workers = %d, must be non-negative",
			gofluor.ErrDegenerateConfiguration, opts.Workers)
	}
	return nil
}

func (opts *Options) workers() int {
	n := opts.Workers
	if n == 0 {
		n = runtime.NumCPU()
	}
	if n > opts.Trials {
		n = opts.Trials
	}
	return n
}

func (opts *Options) logger() *log.Logger {
	if opts.Log == nil {
		return log.New(ioutil.Discard, "", 0)
	}
	return opts.Log
}

// trialFunc runs a single trial, adding its results to acc.
type trialFunc func(gen *rand.Generator, acc *stats.Accumulator) error

// run runs opts.Trials trials of f and returns the merged accumulator. The
// generator of trial i is seeded with opts.Seed + offset + i, so callers
// running several configurations can keep their trials independent.
func run(
	opts *Options, offset int64,
	proto *stats.Accumulator, f trialFunc,
) (*stats.Accumulator, error) {
	workers := opts.workers()
	accs := make([]*stats.Accumulator, workers)
	errs := make([]error, workers)
	for i := range accs {
		accs[i] = proto.Empty()
	}

	out := make(chan int, workers)
	for id := 0; id < workers; id++ {
		go chanTrials(id, workers, opts, offset, accs[id], &errs[id], f, out)
	}
	for i := 0; i < workers; i++ {
		<-out
	}

	// Merge in worker order, after everything is finished.
	total := proto.Empty()
	for id := 0; id < workers; id++ {
		if errs[id] != nil {
			return nil, errs[id]
		}
		if err := total.Merge(accs[id]); err != nil {
			return nil, err
		}
	}

	return total, nil
}

// chanTrials runs the trials assigned to worker id and sends id over out
// when it's done.
func chanTrials(
	id, workers int, opts *Options, offset int64,
	acc *stats.Accumulator, err *error, f trialFunc, out chan<- int,
) {
	for i := id; i < opts.Trials; i += workers {
		gen := rand.New(opts.Generator, opts.Seed+offset+int64(i))
		if *err = f(gen, acc); *err != nil {
			break
		}
		acc.AddTrial()
	}
	out <- id
}
