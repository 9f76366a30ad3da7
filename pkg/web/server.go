// Package web serves a browser viewer for the Mandelbrot renderer: an index
// page, single frames as PNG or BMP, and a websocket for live pan and zoom.
package web

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"clbench/pkg/generator"
	"clbench/pkg/mandel"
	"clbench/pkg/palette"

	"github.com/foolin/goview"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/valve"
	"github.com/gorilla/websocket"
)

// MaxPixels caps the frame size a request may ask for
const MaxPixels = 4096 * 4096

// RenderFunc renders a frame of iteration counts
type RenderFunc func(ctx context.Context, p mandel.Params) (*mandel.Result, error)

// Config holds what the server reads from flags and the environment
type Config struct {
	Addr         string
	Views        string // template root
	Palette      palette.Palette
	Defaults     mandel.Params
	GeneratorURL string // render remotely when set
}

// Server is the web server for the viewer
type Server struct {
	cfg      Config
	render   RenderFunc
	views    *goview.ViewEngine
	valve    *valve.Valve
	upgrader websocket.Upgrader
}

// New constructs a Server. Frames are rendered on this host unless
// cfg.GeneratorURL points at a generator.
func New(v *valve.Valve, cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		return nil, errors.New("web: no listen address")
	}
	if err := cfg.Defaults.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = palette.Default
	}
	if cfg.Views == "" {
		cfg.Views = "views"
	}

	s := &Server{
		cfg:    cfg,
		render: mandel.Render,
		valve:  v,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	if cfg.GeneratorURL != "" {
		log.Println("[server] rendering via", cfg.GeneratorURL)
		s.render = generator.NewClient(cfg.GeneratorURL).Render
	}

	s.views = goview.New(goview.Config{
		Root:         cfg.Views,
		Extension:    ".html",
		Master:       "layouts/master",
		DisableCache: true,
	})

	return s, nil
}

// Run listens for requests until ctx is cancelled, then drains open
// requests
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:        s.cfg.Addr,
		Handler:     s.Routes(),
		BaseContext: func(net.Listener) context.Context { return s.valve.Context() },
	}

	go func() {
		<-ctx.Done()
		log.Print("shutting down ...")
		s.valve.Shutdown(10 * time.Second)
		srv.Shutdown(context.Background())
		log.Println(" done!")
	}()

	log.Println("Listening and serving on", s.cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Routes returns the router
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Get("/", s.serveIndex())
	r.Get("/mandelbrot.png", s.serveFrame(writePNG))
	r.Get("/mandelbrot.bmp", s.serveFrame(writeBMP))
	r.Get("/ws", s.serveWS())

	return r
}
