//go:build !BUILD_OPENCL
// +build !BUILD_OPENCL

package mandel

import (
	"context"
	"time"

	"clbench/pkg/ndrange"
)

// Render draws the frame with the host executor, one work-item per pixel
func Render(ctx context.Context, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	h := ndrange.NewHost()
	pix := make([]uint32, p.Width*p.Height)

	ts := time.Now()
	elapsed, err := h.Run(ctx, kernel(p, pix), p.Range())
	if err != nil {
		return nil, err
	}

	return &Result{
		Params:   p,
		Pix:      pix,
		Device:   h.Info().Name,
		Wall:     time.Since(ts),
		Profiled: elapsed,
	}, nil
}
