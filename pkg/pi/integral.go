package pi

import (
	"clbench/pkg/ndrange"
)

// IntegrateSequential sums 4/(1+x²) at the midpoints of steps equal slices
// of [0, 1]
func IntegrateSequential(steps int) float64 {
	if steps <= 0 {
		return 0
	}

	step := 1.0 / float64(steps)
	var sum float64
	for i := 0; i < steps; i++ {
		x := (float64(i) + 0.5) * step
		sum += 4.0 / (1.0 + x*x)
	}
	return sum * step
}

// integralKernel is the host rendition of IntegralSource. Each work-item
// sums its slice of ItemIterations steps into local memory; after the
// barrier item 0 writes the group total to partial.
func integralKernel(p ndrange.Partition, partial []float64) ndrange.Kernel {
	step := p.StepSize()
	iters := p.ItemIterations

	return ndrange.Kernel{
		Name:     "pi_inte",
		LocalMem: p.WorkGroupSize,
		Stages: []ndrange.Stage{
			func(it ndrange.Item, local []float64) {
				begin := it.GlobalID() * iters
				var accu float64
				for i := begin; i < begin+iters; i++ {
					x := (float64(i) + 0.5) * step
					accu += 4.0 / (1 + x*x)
				}
				local[it.LocalID()] = accu
			},
			func(it ndrange.Item, local []float64) {
				if it.LocalID() != 0 {
					return
				}
				var sum float64
				for _, v := range local[:it.LocalSize.X] {
					sum += v
				}
				partial[it.GroupID()] = sum
			},
		},
	}
}

func sumPartials(partial []float64, step float64) float64 {
	var sum float64
	for _, v := range partial {
		sum += v
	}
	return sum * step
}

// IntegralSource is the OpenCL C integration kernel
const IntegralSource = `
__kernel void pi_inte(
	__local double* ylocal,
	__global double* ypartial,
	const double step,
	const unsigned int nworkiter)
{
	int localID = get_local_id(0);
	int nitems = get_local_size(0);
	int groupID = get_group_id(0);
	int ibegin = (localID + groupID * nitems) * nworkiter;
	int iend = ibegin + nworkiter;
	int i;
	double x, sum;
	double accu = 0.0;

	for (i = ibegin; i < iend; i++) {
		x = (i + 0.5) * step;
		accu += 4.0 / (1 + (x * x));
	}
	ylocal[localID] = accu;

	barrier(CLK_LOCAL_MEM_FENCE);

	if (localID == 0) {
		sum = 0;
		for (i = 0; i < nitems; i++)
			sum += ylocal[i];
		ypartial[groupID] = sum;
	}
}
`
