// Package bitmap writes 24 bit uncompressed Windows bitmaps.
//
// Rows are stored bottom-up: the last framebuffer row is written first so
// the file displays with framebuffer row 0 at the top. Writers that emit
// framebuffer rows in memory order produce a vertically flipped image; this
// one deliberately does not. Each row is padded with zeros to a multiple of
// four bytes.
package bitmap

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"os"

	"clbench/pkg/palette"
	"clbench/pkg/utils"
)

const (
	fileHeaderSize = 14
	infoHeaderSize = 40

	// HeaderSize is the offset of the pixel data
	HeaderSize = fileHeaderSize + infoHeaderSize
)

// ErrDimensions is returned for non-positive sizes or a pixel buffer that
// does not match them
var ErrDimensions = errors.New("bitmap: invalid dimensions")

// header is BITMAPFILEHEADER followed by BITMAPINFOHEADER, little endian and
// without padding between fields
type header struct {
	Magic      [2]byte
	FileSize   uint32
	Reserved   uint32
	DataOffset uint32

	InfoSize      uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	ImageSize     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ColorsUsed    uint32
	ColorsImport  uint32
}

// RowPadding is the number of zero bytes after each row of width pixels
func RowPadding(width int) int {
	return (4 - width*3%4) % 4
}

// ImageSize is the size of the padded pixel data
func ImageSize(width, height int) int {
	return (width*3 + RowPadding(width)) * height
}

// Encode writes width by height iteration counts, row major, coloured
// through pal
func Encode(w io.Writer, width, height int, pix []uint32, pal palette.Palette) error {
	if len(pix) != width*height {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrDimensions, len(pix), width, height)
	}

	return encode(w, width, height, func(x, y int) (r, g, b uint8) {
		c := pal.At(pix[y*width+x])
		return c.R, c.G, c.B
	})
}

// EncodeImage writes any image as a 24 bit bitmap. Alpha is dropped.
func EncodeImage(w io.Writer, img image.Image) error {
	bounds := img.Bounds()

	return encode(w, bounds.Dx(), bounds.Dy(), func(x, y int) (r, g, b uint8) {
		cr, cg, cb, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
		return uint8(cr >> 8), uint8(cg >> 8), uint8(cb >> 8)
	})
}

func encode(w io.Writer, width, height int, at func(x, y int) (r, g, b uint8)) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrDimensions, width, height)
	}

	size := ImageSize(width, height)
	h := header{
		Magic:      [2]byte{'B', 'M'},
		FileSize:   uint32(size + HeaderSize),
		DataOffset: HeaderSize,
		InfoSize:   infoHeaderSize,
		Width:      int32(width),
		Height:     int32(height),
		Planes:     1,
		BitCount:   24,
		ImageSize:  uint32(size),
	}

	bw := bufio.NewWriter(w)
	if err := binary.Write(bw, binary.LittleEndian, &h); err != nil {
		return err
	}

	row := make([]byte, width*3+RowPadding(width))
	for y := height - 1; y >= 0; y-- {
		for x := 0; x < width; x++ {
			r, g, b := at(x, y)
			row[x*3] = b
			row[x*3+1] = g
			row[x*3+2] = r
		}
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// Save writes the frame to path, creating the parent folder when needed
func Save(path string, width, height int, pix []uint32, pal palette.Palette) error {
	return save(path, func(w io.Writer) error {
		return Encode(w, width, height, pix, pal)
	})
}

// SaveImage writes img to path, creating the parent folder when needed
func SaveImage(path string, img image.Image) error {
	return save(path, func(w io.Writer) error {
		return EncodeImage(w, img)
	})
}

func save(path string, enc func(w io.Writer) error) error {
	if err := utils.CreateParent(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := enc(f); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
