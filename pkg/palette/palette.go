// Package palette maps iteration counts to colours.
package palette

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/go-playground/colors.v1"
)

// ErrSize is returned when a palette or pixel buffer has the wrong size
var ErrSize = errors.New("palette: invalid size")

// Palette is an ordered colour table indexed by iteration count
type Palette []color.RGBA

// Default is the 16 colour table the Mandelbrot renderer indexes with
// iterations % 16
var Default = Palette{
	{R: 66, G: 30, B: 15, A: 255},
	{R: 25, G: 7, B: 26, A: 255},
	{R: 9, G: 1, B: 47, A: 255},
	{R: 4, G: 4, B: 73, A: 255},
	{R: 0, G: 7, B: 100, A: 255},
	{R: 12, G: 44, B: 138, A: 255},
	{R: 24, G: 82, B: 177, A: 255},
	{R: 57, G: 125, B: 209, A: 255},
	{R: 134, G: 181, B: 229, A: 255},
	{R: 211, G: 236, B: 248, A: 255},
	{R: 241, G: 233, B: 191, A: 255},
	{R: 248, G: 201, B: 95, A: 255},
	{R: 254, G: 170, B: 0, A: 255},
	{R: 204, G: 128, B: 0, A: 255},
	{R: 153, G: 87, B: 0, A: 255},
	{R: 106, G: 52, B: 3, A: 255},
}

// BackgroundColor fills anything outside a rendered frame
var BackgroundColor = color.RGBA{A: 255}

// At returns the colour for iteration count i, wrapping around the table
func (p Palette) At(i uint32) color.RGBA {
	if len(p) == 0 {
		return BackgroundColor
	}
	return p[int(i%uint32(len(p)))]
}

// Color converts the table for use with image.Paletted
func (p Palette) Color() color.Palette {
	cp := make(color.Palette, len(p))
	for i := range p {
		cp[i] = p[i]
	}
	return cp
}

// Image builds a paletted image of w by h from row major iteration counts
func (p Palette) Image(w, h int, pix []uint32) (*image.Paletted, error) {
	if len(p) == 0 || len(p) > 256 {
		return nil, fmt.Errorf("%w: %d colours", ErrSize, len(p))
	}
	if w <= 0 || h <= 0 || len(pix) != w*h {
		return nil, fmt.Errorf("%w: %d pixels for %dx%d", ErrSize, len(pix), w, h)
	}

	img := image.NewPaletted(image.Rect(0, 0, w, h), p.Color())
	for i, v := range pix {
		img.Pix[i] = uint8(v % uint32(len(p)))
	}
	return img, nil
}

// Gradient returns n colours blended in HCL space through the given stops
func Gradient(n int, stops ...color.Color) (Palette, error) {
	if n <= 0 || len(stops) == 0 {
		return nil, fmt.Errorf("%w: %d colours from %d stops", ErrSize, n, len(stops))
	}

	cs := make([]colorful.Color, len(stops))
	for i, s := range stops {
		c, ok := colorful.MakeColor(s)
		if !ok {
			return nil, fmt.Errorf("palette: stop %d is fully transparent", i)
		}
		cs[i] = c
	}

	p := make(Palette, n)
	if len(cs) == 1 || n == 1 {
		r, g, b := cs[0].RGB255()
		for i := range p {
			p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
		}
		return p, nil
	}

	segments := float64(len(cs) - 1)
	for i := range p {
		t := float64(i) / float64(n-1) * segments
		seg := int(t)
		if seg >= len(cs)-1 {
			seg = len(cs) - 2
		}

		c := cs[seg].BlendHcl(cs[seg+1], t-float64(seg)).Clamped()
		r, g, b := c.RGB255()
		p[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}

	return p, nil
}

// Parse builds an n colour gradient from a comma separated list of CSS
// colours ("#000764,#edffff,rgb(255,170,0)"). An empty list returns Default.
func Parse(list string, n int) (Palette, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return Default, nil
	}

	var stops []color.Color
	for _, s := range splitColors(list) {
		c, err := colors.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("palette: %q: %w", s, err)
		}
		rgb := c.ToRGB()
		stops = append(stops, color.RGBA{R: rgb.R, G: rgb.G, B: rgb.B, A: 255})
	}

	return Gradient(n, stops...)
}

// splitColors splits on commas outside of parentheses
func splitColors(list string) []string {
	var out []string
	depth, start := 0, 0
	for i, r := range list {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(list[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(list[start:]))
}
