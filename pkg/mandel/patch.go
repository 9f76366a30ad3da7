package mandel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrPatch is returned when patches do not assemble into their frame
var ErrPatch = errors.New("mandel: patch does not fit frame")

// Patch is a rectangular part of a frame that is rendered on its own and
// stitched back later. The purpose is to spread one large frame over several
// generators.
type Patch struct {
	Frame  string   `json:"frame"`
	Index  int      `json:"index"`
	Count  int      `json:"count"`
	X      int      `json:"x"`
	Y      int      `json:"y"`
	Params Params   `json:"params"`
	Data   []uint32 `json:"data,omitempty"`
}

// Split divides the frame into n by n patches. Edge patches absorb the
// remainder when the frame does not divide evenly.
func Split(id string, frame Params, n int) ([]Patch, error) {
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	if n <= 0 || n > frame.Width || n > frame.Height {
		return nil, fmt.Errorf("%w: %d patches per side for %dx%d", ErrPatch, n, frame.Width, frame.Height)
	}

	patches := make([]Patch, 0, n*n)
	for row := 0; row < n; row++ {
		y0, y1 := row*frame.Height/n, (row+1)*frame.Height/n
		for col := 0; col < n; col++ {
			x0, x1 := col*frame.Width/n, (col+1)*frame.Width/n

			p := frame
			p.X0, p.Y0 = frame.Point(x0, y0)
			p.Width = x1 - x0
			p.Height = y1 - y0

			patches = append(patches, Patch{
				Frame:  id,
				Index:  len(patches),
				Count:  n * n,
				X:      x0,
				Y:      y0,
				Params: p,
			})
		}
	}

	return patches, nil
}

// Stitch copies the data of every patch into a framebuffer for frame
func Stitch(frame Params, patches []Patch) ([]uint32, error) {
	pix := make([]uint32, frame.Width*frame.Height)
	covered := 0
	seen := make(map[int]bool, len(patches))

	for _, p := range patches {
		if seen[p.Index] {
			return nil, fmt.Errorf("%w: patch %d received twice", ErrPatch, p.Index)
		}
		seen[p.Index] = true

		w, h := p.Params.Width, p.Params.Height
		if len(p.Data) != w*h {
			return nil, fmt.Errorf("%w: patch %d has %d pixels, want %d", ErrPatch, p.Index, len(p.Data), w*h)
		}
		if p.X < 0 || p.Y < 0 || p.X+w > frame.Width || p.Y+h > frame.Height {
			return nil, fmt.Errorf("%w: patch %d at %d,%d size %dx%d", ErrPatch, p.Index, p.X, p.Y, w, h)
		}

		for y := 0; y < h; y++ {
			copy(pix[(p.Y+y)*frame.Width+p.X:], p.Data[y*w:(y+1)*w])
		}
		covered += w * h
	}

	if covered != len(pix) {
		return nil, fmt.Errorf("%w: patches cover %d of %d pixels", ErrPatch, covered, len(pix))
	}

	return pix, nil
}

// Render fills the patch data
func (p *Patch) Render(ctx context.Context) error {
	start := time.Now()
	r, err := Render(ctx, p.Params)
	if err != nil {
		return err
	}

	p.Data = r.Pix
	log.Println("[patch] compute complete in", time.Since(start), p)
	return nil
}

// Filename returns the bitmap filename for this patch
func (p *Patch) Filename() string {
	return fmt.Sprintf("%s.%d.bmp", p.Frame, p.Index)
}

func (p *Patch) String() string {
	return fmt.Sprintf("frame:%s patch:%d/%d at %d,%d %dx%d", p.Frame, p.Index+1, p.Count, p.X, p.Y, p.Params.Width, p.Params.Height)
}
