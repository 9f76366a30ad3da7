package bitmap

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"clbench/pkg/palette"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
)

func TestRowPadding(t *testing.T) {
	for width, want := range map[int]int{1: 1, 2: 2, 3: 3, 4: 0, 5: 1, 1000: 0} {
		assert.Equal(t, want, RowPadding(width), "width %d", width)
		assert.Zero(t, (width*3+RowPadding(width))%4)
	}
}

func TestHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, Encode(buf, 3, 2, make([]uint32, 6), palette.Default))

	b := buf.Bytes()
	le := binary.LittleEndian

	require.Len(t, b, HeaderSize+2*12)
	assert.Equal(t, "BM", string(b[:2]))
	assert.EqualValues(t, len(b), le.Uint32(b[2:]))
	assert.EqualValues(t, 0, le.Uint32(b[6:]))
	assert.EqualValues(t, 54, le.Uint32(b[10:]))
	assert.EqualValues(t, 40, le.Uint32(b[14:]))
	assert.EqualValues(t, 3, le.Uint32(b[18:]))
	assert.EqualValues(t, 2, le.Uint32(b[22:]))
	assert.EqualValues(t, 1, le.Uint16(b[26:]))
	assert.EqualValues(t, 24, le.Uint16(b[28:]))
	assert.EqualValues(t, 0, le.Uint32(b[30:]))
	assert.EqualValues(t, 24, le.Uint32(b[34:]))
	assert.Equal(t, make([]byte, 16), b[38:54])
}

func TestBottomUpBGR(t *testing.T) {
	buf := &bytes.Buffer{}
	// row 0 uses colour 1, row 1 uses colour 2
	require.NoError(t, Encode(buf, 1, 2, []uint32{1, 2}, palette.Default))

	data := buf.Bytes()[HeaderSize:]
	require.Len(t, data, 8)

	c2, c1 := palette.Default[2], palette.Default[1]
	assert.Equal(t, []byte{c2.B, c2.G, c2.R, 0}, data[:4], "last row first")
	assert.Equal(t, []byte{c1.B, c1.G, c1.R, 0}, data[4:])
}

func TestDecodes(t *testing.T) {
	for width := 1; width <= 4; width++ {
		const height = 3
		pix := make([]uint32, width*height)
		for i := range pix {
			pix[i] = uint32(i)
		}

		buf := &bytes.Buffer{}
		require.NoError(t, Encode(buf, width, height, pix, palette.Default))
		assert.Equal(t, HeaderSize+ImageSize(width, height), buf.Len())

		img, err := bmp.Decode(buf)
		require.NoError(t, err, "width %d", width)
		require.Equal(t, image.Rect(0, 0, width, height), img.Bounds())

		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				want := palette.Default.At(pix[y*width+x])
				r, g, b, _ := img.At(x, y).RGBA()
				assert.Equal(t, color.RGBA{R: want.R, G: want.G, B: want.B, A: 255},
					color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 255},
					"width %d pixel %d,%d", width, x, y)
			}
		}
	}
}

func TestEncodeImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 255, A: 255})
	src.Set(1, 1, color.RGBA{B: 255, A: 255})

	buf := &bytes.Buffer{}
	require.NoError(t, EncodeImage(buf, src))

	img, err := bmp.Decode(buf)
	require.NoError(t, err)

	r, _, _, _ := img.At(0, 0).RGBA()
	assert.EqualValues(t, 0xffff, r)
	_, _, b, _ := img.At(1, 1).RGBA()
	assert.EqualValues(t, 0xffff, b)
}

func TestDimensions(t *testing.T) {
	buf := &bytes.Buffer{}
	assert.ErrorIs(t, Encode(buf, 0, 1, nil, palette.Default), ErrDimensions)
	assert.ErrorIs(t, Encode(buf, 2, 2, make([]uint32, 3), palette.Default), ErrDimensions)
	assert.ErrorIs(t, Encode(buf, -1, -1, make([]uint32, 1), palette.Default), ErrDimensions)
	assert.Zero(t, buf.Len())
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "frame.bmp")
	require.NoError(t, Save(path, 4, 4, make([]uint32, 16), palette.Default))

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, HeaderSize+ImageSize(4, 4), fi.Size())
}
