// Package generator renders Mandelbrot patches over HTTP. The server side
// runs on fasthttp next to a compute device; Client is what the web viewer
// and other hosts use to reach it.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"clbench/pkg/mandel"

	"github.com/go-chi/valve"
	"github.com/valyala/fasthttp"
)

const (
	// RenderTimeout bounds a single render request
	RenderTimeout = 30 * time.Minute

	// MaxPixels caps the patch size a request may ask for
	MaxPixels = 4096 * 4096
)

// Server answers POST /generate with the posted patch, data filled in
type Server struct {
	valve  *valve.Valve
	server *fasthttp.Server
}

// NewServer constructs a Server whose renders are cancelled when v shuts
// down
func NewServer(v *valve.Valve) *Server {
	s := &Server{valve: v}
	s.server = &fasthttp.Server{
		Handler: s.Handler,
		Name:    "clbench-generator",
	}
	return s
}

// ListenAndServe blocks serving addr until Shutdown
func (s *Server) ListenAndServe(addr string) error {
	log.Println("[generator] listening on", addr)
	return s.server.ListenAndServe(addr)
}

// Shutdown stops accepting connections and waits for open requests
func (s *Server) Shutdown() error {
	return s.server.Shutdown()
}

// Handler routes a request
func (s *Server) Handler(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/generate":
		if !ctx.IsPost() {
			ctx.Error("method not allowed", fasthttp.StatusMethodNotAllowed)
			return
		}
		s.generate(ctx)
	case "/health":
		ctx.SetContentType("text/plain")
		ctx.WriteString("ok")
	default:
		ctx.Error("not found", fasthttp.StatusNotFound)
	}
}

// A generate request comes as a posted Patch JSON without data. The patch
// parameters are rendered and the patch is returned with its data.
func (s *Server) generate(ctx *fasthttp.RequestCtx) {
	if err := s.valve.Open(); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusServiceUnavailable)
		return
	}
	defer s.valve.Close()

	patch := &mandel.Patch{}
	if err := json.Unmarshal(ctx.PostBody(), patch); err != nil {
		log.Println("[generator] failed to unmarshal patch:", err)
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	if err := checkPatch(patch); err != nil {
		ctx.Error(err.Error(), fasthttp.StatusBadRequest)
		return
	}

	rctx, cancel := context.WithTimeout(s.valve.Context(), RenderTimeout)
	defer cancel()

	if err := patch.Render(rctx); err != nil {
		status := fasthttp.StatusInternalServerError
		if errors.Is(err, mandel.ErrParams) {
			status = fasthttp.StatusBadRequest
		}
		ctx.Error(err.Error(), status)
		return
	}

	b, err := json.Marshal(patch)
	if err != nil {
		ctx.Error(err.Error(), fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json")
	ctx.Response.Header.Set("Content-Length", strconv.Itoa(len(b)))
	ctx.SetBody(b)
}

func checkPatch(patch *mandel.Patch) error {
	p := patch.Params
	if err := p.Validate(); err != nil {
		return err
	}
	if p.Width*p.Height > MaxPixels {
		return fmt.Errorf("%w: patch %dx%d too large", mandel.ErrParams, p.Width, p.Height)
	}
	return nil
}
