package stats

import (
	"gonum.org/v1/gonum/floats"
)

// Series is a reduced, plottable curve.
type Series struct {
	Name, Title, XLabel, YLabel string
	X, Y                        []float64
}

// PerSecond converts counts summed over reps steps of length dt into a
// detected rate, in counts per second.
func PerSecond(counts []float64, reps int, dt, efficiency float64) []float64 {
	return Scale(counts, efficiency/(float64(reps)*dt))
}

// Scale returns a copy of xs multiplied by a.
func Scale(xs []float64, a float64) []float64 {
	out := append([]float64(nil), xs...)
	floats.Scale(a, out)
	return out
}

// Mean returns the mean of xs. The mean of an empty slice is zero.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs) / float64(len(xs))
}

// Occupancy converts a population summed over reps samples into the mean
// population.
func Occupancy(sum float64, reps int) float64 {
	if reps == 0 {
		return 0
	}
	return sum / float64(reps)
}

// QuenchedOccupancy estimates the fraction of time a complex spends
// quenched in each bin from the photons it emitted while quenched
// (annihilation) and in total (fluorescence). Each emission is weighted by
// the lifetime of the state it came from. Bins with no emission are zero.
func QuenchedOccupancy(
	annihilation, fluorescence []float64, quenchedLifetime, lifetime float64,
) []float64 {
	out := make([]float64, len(annihilation))
	for i := range out {
		q := annihilation[i] / quenchedLifetime
		u := (fluorescence[i] - annihilation[i]) / lifetime
		if q+u > 0 {
			out[i] = q / (q + u)
		}
	}
	return out
}

// BinStarts returns the start of each of bins bins of the given width.
func BinStarts(bins int, width float64) []float64 {
	if bins == 0 {
		return []float64{}
	} else if bins == 1 {
		return []float64{0}
	}
	out := make([]float64, bins)
	floats.Span(out, 0, width*float64(bins-1))
	return out
}
