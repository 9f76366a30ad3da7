package mandel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCoversFrame(t *testing.T) {
	frame := DefaultParams()
	frame.Width, frame.Height = 103, 61

	patches, err := Split("f", frame, 4)
	require.NoError(t, err)
	require.Len(t, patches, 16)

	area := 0
	for i, p := range patches {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, 16, p.Count)
		area += p.Params.Width * p.Params.Height

		x0, y0 := frame.Point(p.X, p.Y)
		assert.InDelta(t, x0, p.Params.X0, 1e-12)
		assert.InDelta(t, y0, p.Params.Y0, 1e-12)
	}
	assert.Equal(t, frame.Width*frame.Height, area)
}

func TestStitchRoundTrip(t *testing.T) {
	frame := DefaultParams()
	frame.Width, frame.Height = 10, 7

	want := make([]uint32, frame.Width*frame.Height)
	for i := range want {
		want[i] = uint32(i)
	}

	patches, err := Split("f", frame, 3)
	require.NoError(t, err)

	for i := range patches {
		p := &patches[i]
		for y := 0; y < p.Params.Height; y++ {
			for x := 0; x < p.Params.Width; x++ {
				p.Data = append(p.Data, want[(p.Y+y)*frame.Width+p.X+x])
			}
		}
	}

	// arrival order does not matter
	patches[0], patches[8] = patches[8], patches[0]

	got, err := Stitch(frame, patches)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Stitch(frame, patches[1:])
	assert.ErrorIs(t, err, ErrPatch)

	_, err = Stitch(frame, append(patches, patches[3]))
	assert.ErrorIs(t, err, ErrPatch)
}

func TestSplitErrors(t *testing.T) {
	frame := DefaultParams()
	frame.Width, frame.Height = 4, 4

	_, err := Split("f", frame, 0)
	assert.ErrorIs(t, err, ErrPatch)

	_, err = Split("f", frame, 5)
	assert.ErrorIs(t, err, ErrPatch)
}

func TestPatchFilename(t *testing.T) {
	p := Patch{Frame: "abc", Index: 3}
	assert.Equal(t, "abc.3.bmp", p.Filename())
}
