//go:build !BUILD_OPENCL
// +build !BUILD_OPENCL

package vadd

import (
	"context"
	"time"

	"clbench/pkg/ndrange"
)

// Run adds a and b with the host executor
func Run(ctx context.Context, a, b []float32) (*Result, error) {
	if err := check(a, b); err != nil {
		return nil, err
	}

	h := ndrange.NewHost()
	c := make([]float32, len(a))

	ts := time.Now()
	elapsed, err := h.Run(ctx, kernel(a, b, c), ndrange.Range{Global: ndrange.Size1(len(a))})
	if err != nil {
		return nil, err
	}

	return &Result{C: c, Device: h.Info().Name, Wall: time.Since(ts), Profiled: elapsed}, nil
}
