// Package ndrange describes OpenCL style launch geometry and runs kernels
// written in Go over that geometry on the host CPU.
//
// A kernel is a list of stages. Every work-item of a work-group finishes
// stage k before any of them starts stage k+1, which is what a
// barrier(CLK_LOCAL_MEM_FENCE) between the stages guarantees on a device.
package ndrange

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidGlobalSize is returned for an empty or negative global range
	ErrInvalidGlobalSize = errors.New("invalid global work size")

	// ErrInvalidWorkGroupSize is returned when the local size does not divide
	// the global size or exceeds the device limit
	ErrInvalidWorkGroupSize = errors.New("invalid work group size")
)

// Size is an extent in up to two dimensions. A zero Y means one dimension.
type Size struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size1 returns a one dimensional extent
func Size1(x int) Size {
	return Size{X: x, Y: 1}
}

// Size2 returns a two dimensional extent
func Size2(x, y int) Size {
	return Size{X: x, Y: y}
}

// Count is the number of cells covered by the extent
func (s Size) Count() int {
	return s.X * s.y()
}

// IsZero reports whether the extent was left unset
func (s Size) IsZero() bool {
	return s.X == 0 && s.Y == 0
}

func (s Size) y() int {
	if s.Y == 0 {
		return 1
	}
	return s.Y
}

func (s Size) String() string {
	if s.y() == 1 {
		return fmt.Sprint(s.X)
	}
	return fmt.Sprintf("%dx%d", s.X, s.Y)
}

// Range is the geometry of a single kernel launch
type Range struct {
	Global Size
	Local  Size
}

// Groups returns the number of work-groups in each dimension
func (r Range) Groups() Size {
	return Size{X: r.Global.X / r.Local.X, Y: r.Global.y() / r.Local.y()}
}

// validate checks the range against a device work-group limit, choosing a
// local size first when none was given.
func (r Range) validate(maxWorkGroupSize int) (Range, error) {
	if r.Global.X <= 0 || r.Global.Y < 0 {
		return r, fmt.Errorf("%w: %v", ErrInvalidGlobalSize, r.Global)
	}

	if r.Local.IsZero() {
		r.Local = Size1(largestDivisor(r.Global.X, maxWorkGroupSize))
	}

	if r.Local.X <= 0 || r.Local.Y < 0 {
		return r, fmt.Errorf("%w: local %v", ErrInvalidWorkGroupSize, r.Local)
	}
	if r.Global.X%r.Local.X != 0 || r.Global.y()%r.Local.y() != 0 {
		return r, fmt.Errorf("%w: local %v does not divide global %v", ErrInvalidWorkGroupSize, r.Local, r.Global)
	}
	if r.Local.Count() > maxWorkGroupSize {
		return r, fmt.Errorf("%w: local %v exceeds device maximum %d", ErrInvalidWorkGroupSize, r.Local, maxWorkGroupSize)
	}

	r.Global.Y = r.Global.y()
	r.Local.Y = r.Local.y()
	return r, nil
}

// largestDivisor returns the largest divisor of n not greater than max
func largestDivisor(n, max int) int {
	if max >= n {
		return n
	}
	for d := max; d > 1; d-- {
		if n%d == 0 {
			return d
		}
	}
	return 1
}

// Item is a single work-item's view of the launch
type Item struct {
	Global     Size // get_global_id
	Local      Size // get_local_id
	Group      Size // get_group_id
	GlobalSize Size // get_global_size
	LocalSize  Size // get_local_size
	NumGroups  Size // get_num_groups
}

// GlobalID is the linear global id, row major
func (it Item) GlobalID() int {
	return it.Global.Y*it.GlobalSize.X + it.Global.X
}

// LocalID is the linear id inside the work-group
func (it Item) LocalID() int {
	return it.Local.Y*it.LocalSize.X + it.Local.X
}

// GroupID is the linear work-group id
func (it Item) GroupID() int {
	return it.Group.Y*it.NumGroups.X + it.Group.X
}

// Stage is the part of a kernel between two barriers. local is the
// work-group's local memory.
type Stage func(it Item, local []float64)

// Kernel is a named list of stages plus the local memory each work-group
// needs, in float64 slots.
type Kernel struct {
	Name     string
	LocalMem int
	Stages   []Stage
}

// Single wraps a barrier free kernel body
func Single(name string, fn func(it Item)) Kernel {
	return Kernel{
		Name:   name,
		Stages: []Stage{func(it Item, _ []float64) { fn(it) }},
	}
}
