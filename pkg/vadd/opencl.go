//go:build BUILD_OPENCL
// +build BUILD_OPENCL

package vadd

import (
	"context"
	"time"

	"clbench/pkg/cl"
)

// Run adds a and b on the first OpenCL device
func Run(ctx context.Context, a, b []float32) (*Result, error) {
	if err := check(a, b); err != nil {
		return nil, err
	}

	dev, err := cl.Open(cl.GPU)
	if err != nil {
		return nil, err
	}
	defer dev.Release()

	k, err := dev.Build(KernelSource, "vadd")
	if err != nil {
		return nil, err
	}
	defer k.Release()

	size := 4 * len(a)
	bufs := make([]*cl.Buffer, 3)
	for i, flags := range []cl.MemFlag{cl.ReadOnly, cl.ReadOnly, cl.WriteOnly} {
		if bufs[i], err = dev.NewBuffer(flags, size); err != nil {
			return nil, err
		}
		defer bufs[i].Release()
	}

	if err := bufs[0].WriteFloat32(a); err != nil {
		return nil, err
	}
	if err := bufs[1].WriteFloat32(b); err != nil {
		return nil, err
	}

	for i, buf := range bufs {
		if err := k.SetBufferArg(i, buf); err != nil {
			return nil, err
		}
	}
	if err := k.SetUint32Arg(3, uint32(len(a))); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := time.Now()
	ev, err := dev.Enqueue(k, []int{len(a)}, nil)
	if err != nil {
		return nil, err
	}
	defer ev.Release()

	if err := dev.Finish(); err != nil {
		return nil, err
	}
	wall := time.Since(ts)

	profiled, err := ev.Duration()
	if err != nil {
		return nil, err
	}

	c := make([]float32, len(a))
	if err := bufs[2].ReadFloat32(c); err != nil {
		return nil, err
	}

	return &Result{C: c, Device: dev.Info().Name, Wall: wall, Profiled: profiled}, nil
}
