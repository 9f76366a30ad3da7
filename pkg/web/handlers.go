package web

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"clbench/pkg/bitmap"
	"clbench/pkg/mandel"

	"github.com/foolin/goview"
)

func (s *Server) serveIndex() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paramsFromQuery(s.cfg.Defaults, r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = s.views.Render(w, http.StatusOK, "index", goview.M{
			"title":  "Mandelbrot",
			"params": p,
			"remote": s.cfg.GeneratorURL != "",
		})
		if err != nil {
			log.Println("[server] render index:", err)
			http.Error(w, "Render index error: "+err.Error(), http.StatusInternalServerError)
		}
	}
}

type imageWriter func(w http.ResponseWriter, img image.Image)

func (s *Server) serveFrame(write imageWriter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := paramsFromQuery(s.cfg.Defaults, r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		img, _, err := s.frame(r, p)
		if err != nil {
			log.Println("[server] failed to render frame:", err)
			http.Error(w, err.Error(), statusOf(err))
			return
		}

		write(w, img)
	}
}

// frame renders p and colours it
func (s *Server) frame(r *http.Request, p mandel.Params) (image.Image, *mandel.Result, error) {
	if err := s.valve.Open(); err != nil {
		return nil, nil, err
	}
	defer s.valve.Close()

	res, err := s.render(r.Context(), p)
	if err != nil {
		return nil, nil, err
	}

	img, err := s.cfg.Palette.Image(p.Width, p.Height, res.Pix)
	if err != nil {
		return nil, nil, err
	}

	return img, res, nil
}

func statusOf(err error) int {
	if errors.Is(err, mandel.ErrParams) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// paramsFromQuery overrides defaults with any of x0, y0, step, maxIter,
// width and height found in q
func paramsFromQuery(defaults mandel.Params, q url.Values) (mandel.Params, error) {
	p := defaults

	floats := map[string]*float64{"x0": &p.X0, "y0": &p.Y0, "step": &p.Step}
	for k, dst := range floats {
		if v := q.Get(k); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return p, fmt.Errorf("%w: %s: %v", mandel.ErrParams, k, err)
			}
			*dst = f
		}
	}

	ints := map[string]*int{"width": &p.Width, "height": &p.Height}
	for k, dst := range ints {
		if v := q.Get(k); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return p, fmt.Errorf("%w: %s: %v", mandel.ErrParams, k, err)
			}
			*dst = n
		}
	}

	if v := q.Get("maxIter"); v != "" {
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return p, fmt.Errorf("%w: maxIter: %v", mandel.ErrParams, err)
		}
		p.MaxIter = uint32(n)
	}

	return p, checkParams(p)
}

func checkParams(p mandel.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Width*p.Height > MaxPixels {
		return fmt.Errorf("%w: frame %dx%d too large", mandel.ErrParams, p.Width, p.Height)
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	buffer := new(bytes.Buffer)
	if err := png.Encode(buffer, img); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// writePNG encodes an image 'img' in png format and writes it into ResponseWriter.
func writePNG(w http.ResponseWriter, img image.Image) {
	b, err := encodePNG(img)
	if err != nil {
		http.Error(w, "Unable to encode image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeBytes(w, "image/png", b)
}

func writeBMP(w http.ResponseWriter, img image.Image) {
	buffer := new(bytes.Buffer)
	if err := bitmap.EncodeImage(buffer, img); err != nil {
		http.Error(w, "Unable to encode image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeBytes(w, "image/bmp", buffer.Bytes())
}

func writeBytes(w http.ResponseWriter, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))

	if _, err := w.Write(b); err != nil {
		log.Println("[server] unable to write image to response:", err)
	}
}
