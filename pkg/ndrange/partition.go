package ndrange

import (
	"errors"
	"fmt"
)

// MinWorkGroupSize is the work-group size used when the kernel reports a
// smaller maximum
const MinWorkGroupSize = 32

// ErrPartition is returned when a total iteration count can't be split over
// the device
var ErrPartition = errors.New("unable to partition iterations")

// Partition splits a total iteration count into work-groups of work-items,
// each work-item running ItemIterations iterations.
type Partition struct {
	WorkGroups     int
	WorkGroupSize  int
	ItemIterations int
}

// Split partitions totalIter iterations into work-groups of work-items that
// each run itemIter iterations.
//
// The work-group size is the larger of MinWorkGroupSize and kernelMaxWG. When
// that leaves less than one full work-group the device's compute units become
// the work-group count and the work-group size is derived from it instead.
// Iterations that do not fill a whole work-item are dropped, see Steps.
func Split(totalIter, itemIter, kernelMaxWG, computeUnits int) (Partition, error) {
	if totalIter <= 0 || itemIter <= 0 {
		return Partition{}, fmt.Errorf("%w: total %d, per item %d", ErrPartition, totalIter, itemIter)
	}

	p := Partition{
		WorkGroupSize:  MinWorkGroupSize,
		ItemIterations: itemIter,
	}
	if kernelMaxWG > p.WorkGroupSize {
		p.WorkGroupSize = kernelMaxWG
	}

	p.WorkGroups = totalIter / (p.WorkGroupSize * itemIter)
	if p.WorkGroups < 1 {
		if computeUnits <= 0 {
			return Partition{}, fmt.Errorf("%w: device reports %d compute units", ErrPartition, computeUnits)
		}
		p.WorkGroups = computeUnits
		p.WorkGroupSize = totalIter / (p.WorkGroups * itemIter)
	}

	if p.WorkGroupSize < 1 {
		return Partition{}, fmt.Errorf("%w: %d iterations over %d compute units of %d iterations each",
			ErrPartition, totalIter, computeUnits, itemIter)
	}

	return p, nil
}

// Global is the number of work-items
func (p Partition) Global() int {
	return p.WorkGroups * p.WorkGroupSize
}

// Steps is the number of iterations actually covered
func (p Partition) Steps() int {
	return p.Global() * p.ItemIterations
}

// StepSize is the width of one integration step over [0, 1]
func (p Partition) StepSize() float64 {
	return 1.0 / float64(p.Steps())
}

// Range is the launch geometry for the partition
func (p Partition) Range() Range {
	return Range{Global: Size1(p.Global()), Local: Size1(p.WorkGroupSize)}
}

func (p Partition) String() string {
	return fmt.Sprintf("%d work groups of size %d. %d steps", p.WorkGroups, p.WorkGroupSize, p.Steps())
}
