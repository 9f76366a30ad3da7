//go:build BUILD_OPENCL
// +build BUILD_OPENCL

package mandel

import (
	"context"
	"time"

	"clbench/pkg/cl"
)

// build with:
//
//	go build -tags BUILD_OPENCL -o build/mandelbrot ./cmd/mandelbrot/.
//

// Render draws the frame on the first OpenCL device over a
// {Width, Height} global range, leaving the local size to the driver
func Render(ctx context.Context, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	dev, err := cl.Open(cl.GPU)
	if err != nil {
		return nil, err
	}
	defer dev.Release()

	k, err := dev.Build(KernelSource, "mandel")
	if err != nil {
		return nil, err
	}
	defer k.Release()

	n := p.Width * p.Height
	out, err := dev.NewBuffer(cl.WriteOnly, 4*n)
	if err != nil {
		return nil, err
	}
	defer out.Release()

	args := []error{
		k.SetFloat64Arg(0, p.X0),
		k.SetFloat64Arg(1, p.Y0),
		k.SetFloat64Arg(2, p.Step),
		k.SetUint32Arg(3, p.MaxIter),
		k.SetBufferArg(4, out),
		k.SetUint32Arg(5, uint32(p.Width)),
	}
	for _, err := range args {
		if err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ts := time.Now()
	ev, err := dev.Enqueue(k, []int{p.Width, p.Height}, nil)
	if err != nil {
		return nil, err
	}
	defer ev.Release()

	if err := dev.Finish(); err != nil {
		return nil, err
	}

	pix := make([]uint32, n)
	if err := out.ReadUint32(pix); err != nil {
		return nil, err
	}
	wall := time.Since(ts)

	profiled, err := ev.Duration()
	if err != nil {
		return nil, err
	}

	return &Result{
		Params:   p,
		Pix:      pix,
		Device:   dev.Info().Name,
		Wall:     wall,
		Profiled: profiled,
	}, nil
}
