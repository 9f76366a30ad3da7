package pi

import (
	"fmt"
	"math/rand"

	"clbench/pkg/ndrange"
)

// EstimateSequential draws samples points per round and averages the
// per round estimates 4*hits/samples
func EstimateSequential(samples, rounds int, rng *rand.Rand) (float64, error) {
	if rounds <= 0 {
		return 0, ErrRounds
	}
	if samples <= 0 {
		return 0, fmt.Errorf("%w: %d samples", ndrange.ErrPartition, samples)
	}

	input := make([]float64, 2*samples)
	var pi float64
	for r := 0; r < rounds; r++ {
		fill(rng, input)

		hits := 0
		for i := 0; i < samples; i++ {
			if inCircle(input, i) {
				hits++
			}
		}
		pi += 4 * float64(hits) / float64(samples)
	}

	return pi / float64(rounds), nil
}

// hitsKernel is the host rendition of HitsSource: one point per work-item,
// hits counted in local memory and summed by item 0 of each group.
func hitsKernel(input, output []float64, workGroupSize int) ndrange.Kernel {
	return ndrange.Kernel{
		Name:     "hello",
		LocalMem: workGroupSize,
		Stages: []ndrange.Stage{
			func(it ndrange.Item, local []float64) {
				if inCircle(input, it.GlobalID()) {
					local[it.LocalID()] = 1
				} else {
					local[it.LocalID()] = 0
				}
			},
			func(it ndrange.Item, local []float64) {
				if it.LocalID() != 0 {
					return
				}
				var sum float64
				for _, v := range local[:it.LocalSize.X] {
					sum += v
				}
				output[it.GroupID()] = sum
			},
		},
	}
}

// batchKernel is the host rendition of BatchSource: a single work-group
// whose items write their hit to output and fold it in half, stage by
// stage, until output[0] holds the total.
func batchKernel(input, output []float64, batch int) ndrange.Kernel {
	stages := []ndrange.Stage{
		func(it ndrange.Item, _ []float64) {
			id := it.GlobalID()
			if inCircle(input, id) {
				output[id] = 1
			} else {
				output[id] = 0
			}
		},
	}

	for stride := batch / 2; stride > 0; stride /= 2 {
		stride := stride
		stages = append(stages, func(it ndrange.Item, _ []float64) {
			if id := it.GlobalID(); id < stride {
				output[id] += output[id+stride]
			}
		})
	}

	return ndrange.Kernel{Name: "hello", Stages: stages}
}

func sum(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x
	}
	return s
}

// HitsSource is the OpenCL C kernel for the local memory reduction
const HitsSource = `
__kernel void hello(__global double *input, __global double *output, __local double *localB)
{
	size_t lid = get_local_id(0);
	size_t gid = get_group_id(0);
	size_t gsize = get_local_size(0);
	size_t id = lid + gid * gsize;
	double temp = input[2*id] * input[2*id] + input[2*id+1] * input[2*id+1];

	if (temp < 1)
		localB[lid] = 1;
	else
		localB[lid] = 0;

	barrier(CLK_LOCAL_MEM_FENCE);

	if (lid == 0) {
		double sum = 0;
		for (size_t i = 0; i < gsize; i++)
			sum += localB[i];
		output[gid] = sum;
	}
}
`

// BatchSource is the OpenCL C kernel for the tree reduction. It must run as
// a single work-group so the barriers cover every item.
const BatchSource = `
__kernel void hello(__global double *input, __global double *output)
{
	size_t id = get_global_id(0);
	size_t size = get_global_size(0);
	double temp = input[2*id] * input[2*id] + input[2*id+1] * input[2*id+1];

	if (temp < 1)
		output[id] = 1;
	else
		output[id] = 0;

	for (uint stride = size / 2; stride > 0; stride /= 2) {
		barrier(CLK_GLOBAL_MEM_FENCE);
		if (id < stride)
			output[id] += output[id + stride];
	}
}
`
