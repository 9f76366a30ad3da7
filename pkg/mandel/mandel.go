// Package mandel renders the Mandelbrot set into a framebuffer of iteration
// counts, one work-item per pixel.
package mandel

import (
	"errors"
	"fmt"
	"math"
	"time"

	"clbench/pkg/ndrange"
)

// Colors is the number of distinct values a rendered pixel takes. The
// kernel stores iterations modulo Colors.
const Colors = 16

// MaxSide is the largest frame width or height
const MaxSide = 1 << 16

// ErrParams is returned for a view that can't be rendered
var ErrParams = errors.New("mandel: invalid parameters")

// Params is the rendered view. Pixel (px, py) maps to the complex point
// (X0 + px*Step, Y0 - py*Step), so (X0, Y0) is the upper left corner.
type Params struct {
	X0      float64 `json:"x0"`
	Y0      float64 `json:"y0"`
	Step    float64 `json:"step"`
	MaxIter uint32  `json:"maxIter"`
	Width   int     `json:"width"`
	Height  int     `json:"height"`
}

// DefaultParams is the full set in a 1000x1000 frame
func DefaultParams() Params {
	return Params{
		X0:      -2,
		Y0:      1.75,
		Step:    0.0025,
		MaxIter: 255,
		Width:   1000,
		Height:  1000,
	}
}

// Validate checks the view can be rendered
func (p Params) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: frame %dx%d", ErrParams, p.Width, p.Height)
	}
	if p.Width > MaxSide || p.Height > MaxSide || p.Width > math.MaxInt/p.Height {
		return fmt.Errorf("%w: frame %dx%d too large", ErrParams, p.Width, p.Height)
	}
	if !(p.Step > 0) {
		return fmt.Errorf("%w: step %v", ErrParams, p.Step)
	}
	if p.MaxIter == 0 {
		return fmt.Errorf("%w: zero iterations", ErrParams)
	}
	return nil
}

// IterLimit converts an iteration flag value, rejecting what a uint32
// can't hold
func IterLimit(n int) (uint32, error) {
	if n <= 0 || uint64(n) > math.MaxUint32 {
		return 0, fmt.Errorf("%w: iteration limit %d", ErrParams, n)
	}
	return uint32(n), nil
}

// Zoom scales the view by factor around pixel (px, py), which keeps
// pointing at the same complex number. A factor above 1 zooms in.
func (p Params) Zoom(px, py int, factor float64) Params {
	if factor <= 0 {
		return p
	}

	cx, cy := p.Point(px, py)
	p.Step /= factor
	p.X0 = cx - float64(px)*p.Step
	p.Y0 = cy + float64(py)*p.Step
	return p
}

// Pan moves the view by dx, dy pixels. Positive dy moves down.
func (p Params) Pan(dx, dy int) Params {
	p.X0 += float64(dx) * p.Step
	p.Y0 -= float64(dy) * p.Step
	return p
}

// Point returns the complex point under pixel (px, py)
func (p Params) Point(px, py int) (float64, float64) {
	return p.X0 + float64(px)*p.Step, p.Y0 - float64(py)*p.Step
}

// Range is the launch geometry, one work-item per pixel
func (p Params) Range() ndrange.Range {
	return ndrange.Range{Global: ndrange.Size2(p.Width, p.Height)}
}

func (p Params) String() string {
	return fmt.Sprintf("%dx%d at (%g, %g) step %g, %d iterations", p.Width, p.Height, p.X0, p.Y0, p.Step, p.MaxIter)
}

// Escape iterates z = z² + c from zero and returns the iteration count.
// The bound is tested before each step against the previous z, which is
// what the device kernel does.
func Escape(cx, cy float64, maxIter uint32) uint32 {
	var x, y, x2, y2 float64
	var i uint32

	for x2+y2 < 4 && i < maxIter {
		x2 = x * x
		y2 = y * y
		y = 2*x*y + cy
		x = x2 - y2 + cx
		i++
	}

	return i
}

// Result is a rendered frame
type Result struct {
	Params Params
	Pix    []uint32

	Device   string
	Wall     time.Duration
	Profiled time.Duration
}

// Sequential renders the frame on the calling goroutine
func Sequential(p Params) []uint32 {
	pix := make([]uint32, p.Width*p.Height)
	for py := 0; py < p.Height; py++ {
		for px := 0; px < p.Width; px++ {
			cx, cy := p.Point(px, py)
			pix[py*p.Width+px] = Escape(cx, cy, p.MaxIter) % Colors
		}
	}
	return pix
}

// kernel is the host rendition of KernelSource
func kernel(p Params, pix []uint32) ndrange.Kernel {
	return ndrange.Single("mandel", func(it ndrange.Item) {
		cx, cy := p.Point(it.Global.X, it.Global.Y)
		pix[it.Global.Y*p.Width+it.Global.X] = Escape(cx, cy, p.MaxIter) % Colors
	})
}

// KernelSource is the OpenCL C kernel
const KernelSource = `
__kernel void mandel(
	const double x0,
	const double y0,
	const double stepsize,
	const unsigned int maxIter,
	__global unsigned int *restrict framebuffer,
	const unsigned int windowWidth)
{
	const size_t px = get_global_id(0);
	const size_t py = get_global_id(1);
	const double cx = x0 + (px * stepsize);
	const double cy = y0 - (py * stepsize);

	double x = 0.0;
	double y = 0.0;
	double x2 = 0.0;
	double y2 = 0.0;
	unsigned int i = 0;

	while (x2 + y2 < 4.0 && i < maxIter) {
		x2 = x * x;
		y2 = y * y;
		y = 2 * x * y + cy;
		x = x2 - y2 + cx;
		i++;
	}

	framebuffer[windowWidth * py + px] = i % 16;
}
`
