// Package vadd adds two float vectors elementwise, c = a + b, one work-item
// per element, and checks the result against the host.
package vadd

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"clbench/pkg/ndrange"
)

const (
	// DefaultLength is the vector length of the demo
	DefaultLength = 1024
	// DefaultTolerance is the largest deviation counted as correct
	DefaultTolerance = 0.001
)

// ErrLength is returned for empty or mismatched vectors
var ErrLength = errors.New("vadd: vectors must be non empty and of equal length")

// Result holds the sum and the kernel timings
type Result struct {
	C        []float32
	Device   string
	Wall     time.Duration
	Profiled time.Duration
}

// Mismatch is one element outside the tolerance
type Mismatch struct {
	Index   int
	A, B, C float32
	Diff    float32
}

func (m Mismatch) String() string {
	return fmt.Sprintf(" tmp %f a_data %f b_data %f c_res %f", m.Diff, m.A, m.B, m.C)
}

// Random returns n values in [0, 1)
func Random(rng *rand.Rand, n int) []float32 {
	v := make([]float32, n)
	for i := range v {
		v[i] = rng.Float32()
	}
	return v
}

func check(a, b []float32) error {
	if len(a) == 0 || len(a) != len(b) {
		return fmt.Errorf("%w: %d and %d", ErrLength, len(a), len(b))
	}
	return nil
}

// Sequential is the host reference
func Sequential(a, b []float32) ([]float32, error) {
	if err := check(a, b); err != nil {
		return nil, err
	}

	c := make([]float32, len(a))
	for i := range a {
		c[i] = a[i] + b[i]
	}
	return c, nil
}

// Verify counts the elements of c whose squared deviation from a+b is below
// tol². The others are returned as mismatches.
func Verify(a, b, c []float32, tol float32) (int, []Mismatch) {
	correct := 0
	var bad []Mismatch

	for i := range c {
		if i >= len(a) || i >= len(b) {
			bad = append(bad, Mismatch{Index: i, C: c[i]})
			continue
		}

		diff := a[i] + b[i] - c[i]
		if diff*diff < tol*tol {
			correct++
			continue
		}
		bad = append(bad, Mismatch{Index: i, A: a[i], B: b[i], C: c[i], Diff: diff})
	}

	return correct, bad
}

func kernel(a, b, c []float32) ndrange.Kernel {
	count := len(c)
	return ndrange.Single("vadd", func(it ndrange.Item) {
		i := it.GlobalID()
		if i < count {
			c[i] = a[i] + b[i]
		}
	})
}

// KernelSource is the OpenCL C kernel
const KernelSource = `
__kernel void vadd(
	__global float* a,
	__global float* b,
	__global float* c,
	const unsigned int count)
{
	int i = get_global_id(0);
	if (i < count)
		c[i] = a[i] + b[i];
}
`
