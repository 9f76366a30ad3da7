package ndrange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name                  string
		total, item, max, cus int
		want                  Partition
	}{
		{
			name: "naive partition fits",
			total: 12800, item: 1, max: 256, cus: 20,
			want: Partition{WorkGroups: 50, WorkGroupSize: 256, ItemIterations: 1},
		},
		{
			name: "kernel maximum below minimum",
			total: 1 << 20, item: 1, max: 16, cus: 4,
			want: Partition{WorkGroups: (1 << 20) / 32, WorkGroupSize: 32, ItemIterations: 1},
		},
		{
			name: "falls back to compute units",
			total: 256 * 256 * 256, item: 100000, max: 256, cus: 20,
			want: Partition{WorkGroups: 20, WorkGroupSize: 8, ItemIterations: 100000},
		},
		{
			name: "mandelbrot frame",
			total: 1000 * 1000, item: 1, max: 1024, cus: 8,
			want: Partition{WorkGroups: 976, WorkGroupSize: 1024, ItemIterations: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Split(tt.total, tt.item, tt.max, tt.cus)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p)
			assert.LessOrEqual(t, p.Steps(), tt.total)
		})
	}
}

func TestSplitSteps(t *testing.T) {
	p, err := Split(256*256*256, 100000, 256, 20)
	require.NoError(t, err)

	assert.Equal(t, 160, p.Global())
	assert.Equal(t, 16000000, p.Steps())
	assert.InDelta(t, 1.0/16000000, p.StepSize(), 1e-18)
	assert.Equal(t, Range{Global: Size1(160), Local: Size1(8)}, p.Range())
}

func TestSplitErrors(t *testing.T) {
	tests := []struct {
		name                  string
		total, item, max, cus int
	}{
		{"zero total", 0, 1, 256, 4},
		{"negative per item", 100, -1, 256, 4},
		{"no compute units", 100, 10, 256, 0},
		{"fallback underflows", 10, 10, 256, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.total, tt.item, tt.max, tt.cus)
			assert.ErrorIs(t, err, ErrPartition)
		})
	}
}
