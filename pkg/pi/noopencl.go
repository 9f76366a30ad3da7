//go:build !BUILD_OPENCL
// +build !BUILD_OPENCL

package pi

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"clbench/pkg/ndrange"
)

// Integrate runs the integration kernel with the host executor. totalIter
// steps are partitioned into work-items of itemIter steps; steps that do not
// fill a whole work-item are dropped.
func Integrate(ctx context.Context, totalIter, itemIter int) (*Result, error) {
	h := ndrange.NewHost()
	info := h.Info()

	part, err := ndrange.Split(totalIter, itemIter, info.MaxWorkGroupSize, info.ComputeUnits)
	if err != nil {
		return nil, err
	}

	partial := make([]float64, part.WorkGroups)

	ts := time.Now()
	elapsed, err := h.Run(ctx, integralKernel(part, partial), part.Range())
	if err != nil {
		return nil, err
	}

	return &Result{
		Pi:         sumPartials(partial, part.StepSize()),
		Iterations: part.Steps(),
		Partition:  part,
		Device:     info.Name,
		Wall:       time.Since(ts),
		Profiled:   elapsed,
	}, nil
}

// Estimate runs rounds of the local reduction kernel over samples fresh
// points each and averages the per round estimates
func Estimate(ctx context.Context, samples, rounds int, rng *rand.Rand) (*Result, error) {
	if rounds <= 0 {
		return nil, ErrRounds
	}

	h := ndrange.NewHost()
	info := h.Info()

	part, err := ndrange.Split(samples, 1, info.MaxWorkGroupSize, info.ComputeUnits)
	if err != nil {
		return nil, err
	}

	n := part.Global()
	input := make([]float64, 2*samples)
	output := make([]float64, part.WorkGroups)
	k := hitsKernel(input, output, part.WorkGroupSize)

	var pi float64
	var profiled time.Duration
	ts := time.Now()

	for r := 0; r < rounds; r++ {
		fill(rng, input)

		elapsed, err := h.Run(ctx, k, part.Range())
		if err != nil {
			return nil, err
		}
		profiled += elapsed

		pi += 4 * sum(output) / float64(n)
	}

	return &Result{
		Pi:         pi / float64(rounds),
		Iterations: n * rounds,
		Partition:  part,
		Device:     info.Name,
		Wall:       time.Since(ts),
		Profiled:   profiled,
	}, nil
}

// EstimateBatched runs rounds of the tree reduction kernel over a single
// work-group of batch points. The next batch is drawn while the current one
// is reduced.
func EstimateBatched(ctx context.Context, batch, rounds int, rng *rand.Rand) (*Result, error) {
	if rounds <= 0 {
		return nil, ErrRounds
	}

	h := ndrange.NewHost()
	info := h.Info()
	if !isPowerOfTwo(batch) || batch > info.MaxWorkGroupSize {
		return nil, fmt.Errorf("%w: %d", ErrBatch, batch)
	}

	type launch struct {
		elapsed time.Duration
		err     error
	}

	r := ndrange.Range{Global: ndrange.Size1(batch), Local: ndrange.Size1(batch)}
	output := make([]float64, batch)
	next := Samples(rng, batch)

	var pi float64
	var profiled time.Duration
	ts := time.Now()

	for round := 0; round < rounds; round++ {
		cur := next
		done := make(chan launch, 1)

		go func() {
			elapsed, err := h.Run(ctx, batchKernel(cur, output, batch), r)
			done <- launch{elapsed, err}
		}()

		if round < rounds-1 {
			next = Samples(rng, batch)
		}

		l := <-done
		if l.err != nil {
			return nil, l.err
		}
		profiled += l.elapsed

		pi += 4 * output[0] / float64(batch)
	}

	return &Result{
		Pi:         pi / float64(rounds),
		Iterations: batch * rounds,
		Partition:  ndrange.Partition{WorkGroups: 1, WorkGroupSize: batch, ItemIterations: 1},
		Device:     info.Name,
		Wall:       time.Since(ts),
		Profiled:   profiled,
	}, nil
}
