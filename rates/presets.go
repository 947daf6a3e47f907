package rates

// Names of the auxiliary counters used by the presets.
const (
	ChlTriplet = "chl"
	CarTriplet = "car"
	Triplet    = "triplet"
)

// Sequential converts the probabilities of a chain of "if this didn't
// happen, try the next one" decisions into the absolute probabilities of
// each outcome. The result can be fed directly into a single-draw
// partition.
func Sequential(conditional ...float64) []float64 {
	out := make([]float64, len(conditional))
	left := 1.0
	for i, p := range conditional {
		out[i] = left * p
		left -= out[i]
	}
	return out
}

// LeafReactionCenter returns the constants of the DCMU-treated PSII
// reaction centers used in the layered leaf model. Flux is given in photons
// per step over a leaf area of 10000 particle sizes.
func LeafReactionCenter() Constants {
	return Constants{
		Timestep:     20e-9,
		CrossSection: 1,
		Area:         10000,
		Lifetime:     2e-9,
		Yield:        0.3,
	}
}

// PSIIComplex returns the constants of a PSII supercomplex with chlorophyll
// and carotenoid triplets under continuous illumination. Intensities are
// in W/cm^2.
func PSIIComplex() Constants {
	return psii(0.18, 0.01, 0.1, 0.1)
}

// PSIIPulsed returns the PSII supercomplex constants used for duty-cycle
// experiments, which have a lower chlorophyll triplet yield and a higher
// carotenoid triplet yield.
func PSIIPulsed() Constants {
	return psii(0.15, 0.015, 0.02, 0.15)
}

func psii(flYield, flYieldQuenched, chlYield, carYield float64) Constants {
	ys := Sequential(flYield, chlYield, carYield)
	// Annihilation creates a carotenoid triplet a tenth as often.
	qys := Sequential(flYieldQuenched, 0, carYield/10)

	return Constants{
		Timestep:         2.5e-7,
		CrossSection:     7e-15,
		Lifetime:         1.5e-9,
		QuenchedLifetime: 150e-12,
		Yield:            ys[0],
		QuenchedYield:    qys[0],
		Counters: []CounterConstants{
			{Name: ChlTriplet, Lifetime: 2e-3, Yield: ys[1], Max: 1},
			{Name: CarTriplet, Lifetime: 9e-6, Yield: ys[2],
				QuenchedYield: qys[2], Max: 1},
		},
	}
}

// LHCIIComplex returns the constants of an LHCII trimer with a single
// carotenoid triplet species.
func LHCIIComplex() Constants {
	ys := Sequential(0.33, 0.33)
	return Constants{
		Timestep:         13.14e-9,
		CrossSection:     1.4e-15,
		Lifetime:         3.5e-9,
		QuenchedLifetime: 35e-12,
		Yield:            ys[0],
		QuenchedYield:    0.0033,
		Counters: []CounterConstants{
			{Name: Triplet, Lifetime: 9e-6, Yield: ys[1], Max: 1},
		},
	}
}

// Preset returns the named preset constants.
func Preset(name string) (Constants, bool) {
	switch name {
	case "Leaf":
		return LeafReactionCenter(), true
	case "PSII":
		return PSIIComplex(), true
	case "PSIIPulsed":
		return PSIIPulsed(), true
	case "LHCII":
		return LHCIIComplex(), true
	}
	return Constants{}, false
}
