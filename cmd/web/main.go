package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"clbench/pkg/mandel"
	"clbench/pkg/palette"
	"clbench/pkg/web"

	"github.com/go-chi/valve"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	godotenv.Load()

	def := mandel.DefaultParams()
	def.Width, def.Height = 800, 600

	app := &cli.App{
		Name:  "web",
		Usage: "serve the Mandelbrot viewer",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: ":8080", EnvVars: []string{"CLB_WEB_ADDR"}},
			&cli.StringFlag{Name: "views", Value: "views", Usage: "template directory", EnvVars: []string{"CLB_WEB_VIEWS"}},
			&cli.StringFlag{Name: "generator", Usage: "generate endpoint URL, renders locally when empty", EnvVars: []string{"CLB_GENERATOR_URL"}},
			&cli.StringFlag{Name: "palette", Usage: "comma separated gradient stops", EnvVars: []string{"CLB_PALETTE"}},
			&cli.Float64Flag{Name: "x0", Value: -2.6, EnvVars: []string{"CLB_MANDEL_X0"}},
			&cli.Float64Flag{Name: "y0", Value: 1.5, EnvVars: []string{"CLB_MANDEL_Y0"}},
			&cli.Float64Flag{Name: "step", Value: 0.005, EnvVars: []string{"CLB_MANDEL_STEP"}},
			&cli.IntFlag{Name: "max-iter", Value: int(def.MaxIter), EnvVars: []string{"CLB_MANDEL_MAX_ITER"}},
			&cli.IntFlag{Name: "width", Value: def.Width, EnvVars: []string{"CLB_MANDEL_WIDTH"}},
			&cli.IntFlag{Name: "height", Value: def.Height, EnvVars: []string{"CLB_MANDEL_HEIGHT"}},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pal, err := palette.Parse(c.String("palette"), mandel.Colors)
	if err != nil {
		return err
	}

	maxIter, err := mandel.IterLimit(c.Int("max-iter"))
	if err != nil {
		return err
	}

	s, err := web.New(valve.New(), web.Config{
		Addr:         c.String("addr"),
		Views:        c.String("views"),
		Palette:      pal,
		GeneratorURL: c.String("generator"),
		Defaults: mandel.Params{
			X0:      c.Float64("x0"),
			Y0:      c.Float64("y0"),
			Step:    c.Float64("step"),
			MaxIter: maxIter,
			Width:   c.Int("width"),
			Height:  c.Int("height"),
		},
	})
	if err != nil {
		return err
	}

	return s.Run(ctx)
}
