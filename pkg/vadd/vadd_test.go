package vadd

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"clbench/pkg/cl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	a := Random(rng, DefaultLength)
	b := Random(rng, DefaultLength)

	r, err := Run(context.Background(), a, b)
	if errors.Is(err, cl.ErrNoDevice) {
		t.Skip("no OpenCL device")
	}
	require.NoError(t, err)

	correct, bad := Verify(a, b, r.C, DefaultTolerance)
	assert.Equal(t, DefaultLength, correct)
	assert.Empty(t, bad)
}

func TestRunOddLength(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	a := Random(rng, 997)
	b := Random(rng, 997)

	r, err := Run(context.Background(), a, b)
	if errors.Is(err, cl.ErrNoDevice) {
		t.Skip("no OpenCL device")
	}
	require.NoError(t, err)

	want, err := Sequential(a, b)
	require.NoError(t, err)
	assert.Equal(t, want, r.C)
}

func TestLength(t *testing.T) {
	_, err := Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrLength)

	_, err = Run(context.Background(), make([]float32, 3), make([]float32, 4))
	assert.ErrorIs(t, err, ErrLength)

	_, err = Sequential(make([]float32, 2), nil)
	assert.ErrorIs(t, err, ErrLength)
}

func TestVerify(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{1, 1, 1}
	c := []float32{2, 3.0005, 5}

	correct, bad := Verify(a, b, c, DefaultTolerance)
	assert.Equal(t, 2, correct)
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Index)
	assert.InDelta(t, -1, bad[0].Diff, 1e-6)
}

func TestRandom(t *testing.T) {
	v := Random(rand.New(rand.NewSource(3)), 100)
	require.Len(t, v, 100)
	for _, x := range v {
		assert.GreaterOrEqual(t, x, float32(0))
		assert.Less(t, x, float32(1))
	}
}
