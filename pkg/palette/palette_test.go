package palette

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	require.Len(t, Default, 16)
	assert.Equal(t, color.RGBA{R: 66, G: 30, B: 15, A: 255}, Default.At(0))
	assert.Equal(t, color.RGBA{R: 106, G: 52, B: 3, A: 255}, Default.At(15))
	assert.Equal(t, Default.At(3), Default.At(19))
}

func TestImage(t *testing.T) {
	img, err := Default.Image(2, 2, []uint32{0, 1, 17, 255})
	require.NoError(t, err)

	assert.Equal(t, Default[0], img.At(0, 0))
	assert.Equal(t, Default[1], img.At(1, 0))
	assert.Equal(t, Default[1], img.At(0, 1))
	assert.Equal(t, Default[15], img.At(1, 1))

	_, err = Default.Image(3, 2, []uint32{0, 1})
	assert.ErrorIs(t, err, ErrSize)
}

func TestGradient(t *testing.T) {
	black := color.RGBA{A: 255}
	white := color.RGBA{R: 255, G: 255, B: 255, A: 255}

	p, err := Gradient(5, black, white)
	require.NoError(t, err)
	require.Len(t, p, 5)

	assert.Equal(t, black, p[0])
	assert.Equal(t, white, p[4])
	for i := 1; i < len(p); i++ {
		assert.GreaterOrEqual(t, p[i].G, p[i-1].G, "gradient should brighten")
	}

	_, err = Gradient(0, black)
	assert.ErrorIs(t, err, ErrSize)
}

func TestParse(t *testing.T) {
	p, err := Parse("", 8)
	require.NoError(t, err)
	assert.Equal(t, Default, p)

	p, err = Parse("#000000, rgb(255,0,0)", 3)
	require.NoError(t, err)
	require.Len(t, p, 3)
	assert.Equal(t, color.RGBA{A: 255}, p[0])
	assert.Equal(t, color.RGBA{R: 255, A: 255}, p[2])

	_, err = Parse("#zzzzzz", 4)
	assert.Error(t, err)
}

func TestSplitColors(t *testing.T) {
	assert.Equal(t, []string{"#fff", "rgb(1,2,3)", "#000"}, splitColors("#fff, rgb(1,2,3) ,#000"))
}
