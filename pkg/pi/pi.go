// Package pi estimates π three ways on a compute device: a midpoint
// integration of 4/(1+x²) over [0, 1], and two Monte-Carlo hit counts of
// random points in the unit square that differ in how each work-group
// reduces its hits.
package pi

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"clbench/pkg/ndrange"
)

const (
	// DefaultTotalIter is the integration step budget
	DefaultTotalIter = 256 * 256 * 256
	// DefaultItemIter is the number of steps each work-item sums
	DefaultItemIter = 100000

	// DefaultSamples is the number of points per Monte-Carlo round
	DefaultSamples = 12800
	// DefaultRounds is the number of Monte-Carlo rounds
	DefaultRounds = 20

	// DefaultBatch is the work-group size of the batched estimate
	DefaultBatch = 128
	// DefaultBatchRounds is the number of batches
	DefaultBatchRounds = 2000
)

// ErrBatch is returned for a batch size the tree reduction can't handle
var ErrBatch = errors.New("pi: batch must be a power of two no larger than the work group limit")

// ErrRounds is returned when no round would run
var ErrRounds = errors.New("pi: need at least one round")

// Result is an estimate of π and what it cost
type Result struct {
	Pi float64

	// Iterations is the number of integration steps or random points
	// actually evaluated
	Iterations int
	Partition  ndrange.Partition

	Device   string
	Wall     time.Duration
	Profiled time.Duration
}

func (r *Result) String() string {
	return fmt.Sprintf("pi %.12f after %d iterations on %s", r.Pi, r.Iterations, r.Device)
}

// Samples draws n points in the unit square as interleaved x, y pairs
func Samples(rng *rand.Rand, n int) []float64 {
	s := make([]float64, 2*n)
	fill(rng, s)
	return s
}

func fill(rng *rand.Rand, s []float64) {
	for i := range s {
		s[i] = rng.Float64()
	}
}

// inCircle reports whether point i of samples lies inside the unit circle
func inCircle(samples []float64, i int) bool {
	x, y := samples[2*i], samples[2*i+1]
	return x*x+y*y < 1
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
