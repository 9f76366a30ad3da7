//go:build BUILD_OPENCL
// +build BUILD_OPENCL

package pi

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"clbench/pkg/cl"
	"clbench/pkg/ndrange"
)

// program is an opened device with one built kernel
type program struct {
	dev *cl.Device
	k   *cl.Kernel
}

func open(src, name string) (*program, error) {
	dev, err := cl.Open(cl.GPU)
	if err != nil {
		return nil, err
	}

	k, err := dev.Build(src, name)
	if err != nil {
		dev.Release()
		return nil, err
	}

	return &program{dev: dev, k: k}, nil
}

func (p *program) Release() {
	p.k.Release()
	p.dev.Release()
}

// partition sizes totalIter with the kernel's work-group limit and the
// device's compute units
func (p *program) partition(totalIter, itemIter int) (ndrange.Partition, error) {
	maxWG, err := p.k.WorkGroupSize()
	if err != nil {
		return ndrange.Partition{}, err
	}
	return ndrange.Split(totalIter, itemIter, maxWG, p.dev.Info().ComputeUnits)
}

func (p *program) launch(global, local int) (time.Duration, error) {
	ev, err := p.dev.Enqueue(p.k, []int{global}, []int{local})
	if err != nil {
		return 0, err
	}
	defer ev.Release()

	if err := p.dev.Finish(); err != nil {
		return 0, err
	}
	return ev.Duration()
}

// Integrate runs the integration kernel on the first OpenCL device
func Integrate(ctx context.Context, totalIter, itemIter int) (*Result, error) {
	p, err := open(IntegralSource, "pi_inte")
	if err != nil {
		return nil, err
	}
	defer p.Release()

	part, err := p.partition(totalIter, itemIter)
	if err != nil {
		return nil, err
	}

	out, err := p.dev.NewBuffer(cl.WriteOnly, 8*part.WorkGroups)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	if err := p.k.SetLocalArg(0, 8*part.WorkGroupSize); err != nil {
		return nil, err
	}
	if err := p.k.SetBufferArg(1, out); err != nil {
		return nil, err
	}
	if err := p.k.SetFloat64Arg(2, part.StepSize()); err != nil {
		return nil, err
	}
	if err := p.k.SetUint32Arg(3, uint32(part.ItemIterations)); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := time.Now()
	profiled, err := p.launch(part.Global(), part.WorkGroupSize)
	if err != nil {
		return nil, err
	}

	partial := make([]float64, part.WorkGroups)
	if err := out.ReadFloat64(partial); err != nil {
		return nil, err
	}

	return &Result{
		Pi:         sumPartials(partial, part.StepSize()),
		Iterations: part.Steps(),
		Partition:  part,
		Device:     p.dev.Info().Name,
		Wall:       time.Since(ts),
		Profiled:   profiled,
	}, nil
}

// Estimate runs rounds of the local reduction kernel on the first OpenCL
// device, uploading fresh points before every round
func Estimate(ctx context.Context, samples, rounds int, rng *rand.Rand) (*Result, error) {
	if rounds <= 0 {
		return nil, ErrRounds
	}

	p, err := open(HitsSource, "hello")
	if err != nil {
		return nil, err
	}
	defer p.Release()

	part, err := p.partition(samples, 1)
	if err != nil {
		return nil, err
	}

	in, err := p.dev.NewBuffer(cl.ReadOnly, 16*samples)
	if err != nil {
		return nil, err
	}
	defer in.Release()

	out, err := p.dev.NewBuffer(cl.WriteOnly, 8*part.WorkGroups)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	if err := p.k.SetBufferArg(0, in); err != nil {
		return nil, err
	}
	if err := p.k.SetBufferArg(1, out); err != nil {
		return nil, err
	}
	if err := p.k.SetLocalArg(2, 8*part.WorkGroupSize); err != nil {
		return nil, err
	}

	n := part.Global()
	input := make([]float64, 2*samples)
	output := make([]float64, part.WorkGroups)

	var pi float64
	var profiled time.Duration
	ts := time.Now()

	for r := 0; r < rounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fill(rng, input)
		if err := in.WriteFloat64(input); err != nil {
			return nil, err
		}

		elapsed, err := p.launch(n, part.WorkGroupSize)
		if err != nil {
			return nil, err
		}
		profiled += elapsed

		if err := out.ReadFloat64(output); err != nil {
			return nil, err
		}
		pi += 4 * sum(output) / float64(n)
	}

	return &Result{
		Pi:         pi / float64(rounds),
		Iterations: n * rounds,
		Partition:  part,
		Device:     p.dev.Info().Name,
		Wall:       time.Since(ts),
		Profiled:   profiled,
	}, nil
}

// EstimateBatched runs rounds of the tree reduction kernel as a single
// work-group of batch items. The host draws the next batch while the device
// reduces the current one.
func EstimateBatched(ctx context.Context, batch, rounds int, rng *rand.Rand) (*Result, error) {
	if rounds <= 0 {
		return nil, ErrRounds
	}

	p, err := open(BatchSource, "hello")
	if err != nil {
		return nil, err
	}
	defer p.Release()

	maxWG, err := p.k.WorkGroupSize()
	if err != nil {
		return nil, err
	}
	if !isPowerOfTwo(batch) || batch > maxWG {
		return nil, fmt.Errorf("%w: %d (limit %d)", ErrBatch, batch, maxWG)
	}

	in, err := p.dev.NewBuffer(cl.ReadOnly, 16*batch)
	if err != nil {
		return nil, err
	}
	defer in.Release()

	out, err := p.dev.NewBuffer(cl.ReadWrite, 8*batch)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	if err := p.k.SetBufferArg(0, in); err != nil {
		return nil, err
	}
	if err := p.k.SetBufferArg(1, out); err != nil {
		return nil, err
	}

	hits := make([]float64, 1)
	next := Samples(rng, batch)

	var pi float64
	var profiled time.Duration
	ts := time.Now()

	for round := 0; round < rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := in.WriteFloat64(next); err != nil {
			return nil, err
		}

		ev, err := p.dev.Enqueue(p.k, []int{batch}, []int{batch})
		if err != nil {
			return nil, err
		}

		if round < rounds-1 {
			next = Samples(rng, batch)
		}

		// blocking read of the first element waits for the kernel
		if err := out.ReadFloat64(hits); err != nil {
			ev.Release()
			return nil, err
		}

		elapsed, err := ev.Duration()
		ev.Release()
		if err != nil {
			return nil, err
		}
		profiled += elapsed

		pi += 4 * hits[0] / float64(batch)
	}

	return &Result{
		Pi:         pi / float64(rounds),
		Iterations: batch * rounds,
		Partition:  ndrange.Partition{WorkGroups: 1, WorkGroupSize: batch, ItemIterations: 1},
		Device:     p.dev.Info().Name,
		Wall:       time.Since(ts),
		Profiled:   profiled,
	}, nil
}
