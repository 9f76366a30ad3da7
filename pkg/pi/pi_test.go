package pi

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"clbench/pkg/cl"
	"clbench/pkg/ndrange"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipWithoutDevice(t *testing.T, err error) {
	t.Helper()
	if errors.Is(err, cl.ErrNoDevice) {
		t.Skip("no OpenCL device")
	}
}

func TestIntegrateSequential(t *testing.T) {
	assert.InDelta(t, math.Pi, IntegrateSequential(1000000), 1e-6)
	assert.Zero(t, IntegrateSequential(0))
}

func TestIntegrate(t *testing.T) {
	r, err := Integrate(context.Background(), 1<<22, 1000)
	skipWithoutDevice(t, err)
	require.NoError(t, err)

	assert.InDelta(t, math.Pi, r.Pi, 1e-6)
	assert.Equal(t, r.Partition.Steps(), r.Iterations)
	assert.LessOrEqual(t, r.Iterations, 1<<22)
	assert.InDelta(t, IntegrateSequential(r.Iterations), r.Pi, 1e-9)
}

func TestIntegrateRejectsInput(t *testing.T) {
	_, err := Integrate(context.Background(), 0, 10)
	assert.Error(t, err)
}

func TestEstimateMatchesSequential(t *testing.T) {
	r, err := Estimate(context.Background(), DefaultSamples, DefaultRounds, rand.New(rand.NewSource(42)))
	skipWithoutDevice(t, err)
	require.NoError(t, err)

	require.Equal(t, DefaultSamples, r.Partition.Global(), "every sample is covered")

	seq, err := EstimateSequential(DefaultSamples, DefaultRounds, rand.New(rand.NewSource(42)))
	require.NoError(t, err)

	assert.Equal(t, seq, r.Pi)
	assert.InDelta(t, math.Pi, r.Pi, 0.05)
	assert.Equal(t, DefaultSamples*DefaultRounds, r.Iterations)
}

func TestEstimateBatchedMatchesSequential(t *testing.T) {
	r, err := EstimateBatched(context.Background(), DefaultBatch, DefaultBatchRounds, rand.New(rand.NewSource(7)))
	skipWithoutDevice(t, err)
	require.NoError(t, err)

	seq, err := EstimateSequential(DefaultBatch, DefaultBatchRounds, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	assert.Equal(t, seq, r.Pi)
	assert.InDelta(t, math.Pi, r.Pi, 0.05)
}

func TestEstimateBatchedRejectsBatch(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, batch := range []int{0, 3, 100, 1 << 20} {
		_, err := EstimateBatched(context.Background(), batch, 1, rng)
		skipWithoutDevice(t, err)
		assert.ErrorIs(t, err, ErrBatch, "batch %d", batch)
	}
}

func TestRounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := Estimate(context.Background(), DefaultSamples, 0, rng)
	assert.ErrorIs(t, err, ErrRounds)

	_, err = EstimateBatched(context.Background(), DefaultBatch, 0, rng)
	assert.ErrorIs(t, err, ErrRounds)

	_, err = EstimateSequential(DefaultSamples, 0, rng)
	assert.ErrorIs(t, err, ErrRounds)
}

func TestBatchKernelReduces(t *testing.T) {
	// points alternate inside and outside the circle
	const batch = 16
	input := make([]float64, 2*batch)
	for i := 0; i < batch; i++ {
		if i%2 == 0 {
			input[2*i], input[2*i+1] = 0.1, 0.1
		} else {
			input[2*i], input[2*i+1] = 0.9, 0.9
		}
	}

	output := make([]float64, batch)
	k := batchKernel(input, output, batch)
	assert.Len(t, k.Stages, 5)

	// run the stages in barrier order by hand
	for _, stage := range k.Stages {
		for id := 0; id < batch; id++ {
			stage(itemAt(id, batch), nil)
		}
	}
	assert.Equal(t, float64(batch/2), output[0])
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, isPowerOfTwo(1))
	assert.True(t, isPowerOfTwo(128))
	assert.False(t, isPowerOfTwo(0))
	assert.False(t, isPowerOfTwo(96))
}

func itemAt(id, size int) ndrange.Item {
	return ndrange.Item{
		Global:     ndrange.Size{X: id},
		Local:      ndrange.Size{X: id},
		GlobalSize: ndrange.Size1(size),
		LocalSize:  ndrange.Size1(size),
		NumGroups:  ndrange.Size1(1),
	}
}

func TestEstimateErrorShrinks(t *testing.T) {
	const seeds = 20

	meanError := func(samples int) float64 {
		var sum float64
		for seed := int64(1); seed <= seeds; seed++ {
			est, err := EstimateSequential(samples, 1, rand.New(rand.NewSource(seed)))
			require.NoError(t, err)
			sum += math.Abs(est - math.Pi)
		}
		return sum / seeds
	}

	small, large := meanError(500), meanError(50000)
	assert.Greater(t, small, 3*large, "error at 500 samples %g, at 50000 samples %g", small, large)
}

func TestIntegrateErrorShrinks(t *testing.T) {
	coarse := math.Abs(IntegrateSequential(100) - math.Pi)
	fine := math.Abs(IntegrateSequential(10000) - math.Pi)
	assert.Greater(t, coarse, 100*fine)
}
