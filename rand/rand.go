/*package rand provides the uniform random draws used for every probabilistic
decision in the simulator.

Generators are cheap and are not safe for concurrent use. Each trial owns
its own Generator, seeded from the trial index, so that runs are
reproducible regardless of how trials are spread across workers.
*/
package rand

import (
	"fmt"
	"math"
	gorand "math/rand"
	"strings"
	"time"
)

// Source is anything which can produce uniform draws in [0, 1).
type Source interface {
	Float64() float64
}

type GeneratorType int

const (
	Xorshift GeneratorType = iota
	Tausworthe
	Golang
)

var generatorNames = map[GeneratorType]string{
	Xorshift:   "Xorshift",
	Tausworthe: "Tausworthe",
	Golang:     "Golang",
}

func (gt GeneratorType) String() string {
	if name, ok := generatorNames[gt]; ok {
		return name
	}
	return fmt.Sprintf("GeneratorType(%d)", int(gt))
}

// ParseGeneratorType converts a configuration string into a GeneratorType.
// An empty string selects Xorshift.
func ParseGeneratorType(s string) (GeneratorType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Xorshift, nil
	}
	for gt, name := range generatorNames {
		if strings.EqualFold(name, s) {
			return gt, nil
		}
	}
	return 0, fmt.Errorf(
		"Generator '%s' not recognized. Must be one of [Xorshift | "+
			"Tausworthe | Golang].", s,
	)
}

const (
	// Shift-register generators need non-zero state.
	zeroSeed = 0x2545f4914f6cdd1d

	float53 = 1.0 / (1 << 53)
)

type backend interface {
	float64() float64
}

// Generator is a seeded uniform random number generator.
type Generator struct {
	gt   GeneratorType
	seed int64
	b    backend
}

// New creates a Generator of the given type with a fixed seed. Two
// Generators with the same type and seed produce identical sequences.
func New(gt GeneratorType, seed int64) *Generator {
	gen := &Generator{gt: gt, seed: seed}

	switch gt {
	case Xorshift:
		gen.b = newXorshift(uint64(seed))
	case Tausworthe:
		gen.b = newTausworthe(uint64(seed))
	case Golang:
		gen.b = &golang{gorand.New(gorand.NewSource(seed))}
	default:
		panic(fmt.Sprintf("Unrecognized GeneratorType %d.", int(gt)))
	}

	return gen
}

// NewTimeSeed creates a Generator seeded from the wall clock.
func NewTimeSeed(gt GeneratorType) *Generator {
	return New(gt, time.Now().UnixNano())
}

func (gen *Generator) Type() GeneratorType { return gen.gt }
func (gen *Generator) Seed() int64         { return gen.seed }

// Float64 returns a uniform draw in [0, 1).
func (gen *Generator) Float64() float64 { return gen.b.float64() }

// Uniform returns a uniform draw in [low, high).
func (gen *Generator) Uniform(low, high float64) float64 {
	return low + (high-low)*gen.b.float64()
}

// UniformInt returns a uniform integer in [low, high).
func (gen *Generator) UniformInt(low, high int) int {
	if high <= low {
		panic(fmt.Sprintf("UniformInt given empty range [%d, %d).", low, high))
	}
	i := low + int(gen.b.float64()*float64(high-low))
	if i >= high {
		i = high - 1
	}
	return i
}

// splitMix scrambles a user seed so that nearby seeds (e.g. consecutive
// trial indices) start from unrelated states.
func splitMix(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// xorshift64*
type xorshift struct {
	x uint64
}

func newXorshift(seed uint64) *xorshift {
	x := splitMix(seed)
	if x == 0 {
		x = zeroSeed
	}
	return &xorshift{x}
}

func (xs *xorshift) float64() float64 {
	xs.x ^= xs.x >> 12
	xs.x ^= xs.x << 25
	xs.x ^= xs.x >> 27
	return float64((xs.x*2685821657736338717)>>11) * float53
}

// L'Ecuyer's three component taus88.
type tausworthe struct {
	s1, s2, s3 uint32
}

func newTausworthe(seed uint64) *tausworthe {
	x := splitMix(seed)
	y := splitMix(x)

	t := &tausworthe{uint32(x), uint32(x >> 32), uint32(y)}

	// Each component has a minimum valid state.
	if t.s1 < 2 {
		t.s1 += 2
	}
	if t.s2 < 8 {
		t.s2 += 8
	}
	if t.s3 < 16 {
		t.s3 += 16
	}

	return t
}

func (t *tausworthe) next() uint32 {
	b := ((t.s1 << 13) ^ t.s1) >> 19
	t.s1 = ((t.s1 & 4294967294) << 12) ^ b
	b = ((t.s2 << 2) ^ t.s2) >> 25
	t.s2 = ((t.s2 & 4294967288) << 4) ^ b
	b = ((t.s3 << 3) ^ t.s3) >> 11
	t.s3 = ((t.s3 & 4294967280) << 17) ^ b
	return t.s1 ^ t.s2 ^ t.s3
}

func (t *tausworthe) float64() float64 {
	// Two outputs give 53 bits of mantissa.
	hi := uint64(t.next()) >> 6
	lo := uint64(t.next()) >> 5
	return float64(hi<<27|lo) * float53
}

type golang struct {
	r *gorand.Rand
}

func (g *golang) float64() float64 { return g.r.Float64() }

// Sequence is a Source which replays a fixed list of draws, starting over
// once it runs out. It is useful for forcing specific branches.
type Sequence struct {
	draws []float64
	i     int
}

func NewSequence(draws ...float64) *Sequence {
	if len(draws) == 0 {
		panic("NewSequence given no draws.")
	}
	for _, x := range draws {
		if x < 0 || x >= 1 || math.IsNaN(x) {
			panic(fmt.Sprintf("Sequence draw %g not in [0, 1).", x))
		}
	}
	return &Sequence{draws: draws}
}

func (seq *Sequence) Float64() float64 {
	x := seq.draws[seq.i]
	seq.i = (seq.i + 1) % len(seq.draws)
	return x
}

// Pos returns the index of the next draw.
func (seq *Sequence) Pos() int { return seq.i }
