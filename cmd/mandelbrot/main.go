package main

import (
	"context"
	"fmt"
	"image/png"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clbench/pkg/bitmap"
	"clbench/pkg/mandel"
	"clbench/pkg/palette"
	"clbench/pkg/report"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	def := mandel.DefaultParams()

	return &cli.App{
		Name:  "mandelbrot",
		Usage: "render the Mandelbrot set on the compute device and save it as a bitmap",
		Flags: []cli.Flag{
			&cli.Float64Flag{Name: "x0", Value: def.X0, Usage: "real part of the upper left corner", EnvVars: []string{"CLB_MANDEL_X0"}},
			&cli.Float64Flag{Name: "y0", Value: def.Y0, Usage: "imaginary part of the upper left corner", EnvVars: []string{"CLB_MANDEL_Y0"}},
			&cli.Float64Flag{Name: "step", Value: def.Step, Usage: "distance between pixels", EnvVars: []string{"CLB_MANDEL_STEP"}},
			&cli.IntFlag{Name: "max-iter", Value: int(def.MaxIter), Usage: "iteration limit", EnvVars: []string{"CLB_MANDEL_MAX_ITER"}},
			&cli.IntFlag{Name: "width", Value: def.Width, EnvVars: []string{"CLB_MANDEL_WIDTH"}},
			&cli.IntFlag{Name: "height", Value: def.Height, EnvVars: []string{"CLB_MANDEL_HEIGHT"}},
			&cli.StringFlag{Name: "out", Value: "mandelbrot.bmp", Usage: "bitmap output path", EnvVars: []string{"CLB_MANDEL_OUT"}},
			&cli.StringFlag{Name: "png", Usage: "also write a PNG to this path"},
			&cli.StringFlag{Name: "palette", Usage: "comma separated gradient stops, default is the 16 colour table", EnvVars: []string{"CLB_PALETTE"}},
			&cli.BoolFlag{Name: "seq", Usage: "also render sequentially and compare"},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	maxIter, err := mandel.IterLimit(c.Int("max-iter"))
	if err != nil {
		return err
	}

	p := mandel.Params{
		X0:      c.Float64("x0"),
		Y0:      c.Float64("y0"),
		Step:    c.Float64("step"),
		MaxIter: maxIter,
		Width:   c.Int("width"),
		Height:  c.Int("height"),
	}
	if err := p.Validate(); err != nil {
		return err
	}

	pal, err := palette.Parse(c.String("palette"), mandel.Colors)
	if err != nil {
		return err
	}

	done := report.Spin("rendering " + p.String())
	r, err := mandel.Render(ctx, p)
	done()
	if err != nil {
		return err
	}

	if err := bitmap.Save(c.String("out"), p.Width, p.Height, r.Pix, pal); err != nil {
		return err
	}
	log.Println("[mandelbrot] saved", c.String("out"))

	if path := c.String("png"); path != "" {
		if err := savePNG(path, pal, r); err != nil {
			return err
		}
		log.Println("[mandelbrot] saved", path)
	}

	par := &report.Report{
		Title:      "PAR MODE",
		Device:     r.Device,
		Iterations: p.Width * p.Height,
		Wall:       r.Wall,
		Profiled:   r.Profiled,
	}

	if !c.Bool("seq") {
		par.Print(os.Stdout)
		return nil
	}

	ts := time.Now()
	pix := mandel.Sequential(p)
	seq := &report.Report{Title: "SEQ MODE", Iterations: p.Width * p.Height, Wall: time.Since(ts)}

	diff := 0
	for i := range pix {
		if pix[i] != r.Pix[i] {
			diff++
		}
	}
	seq.Lines = append(seq.Lines, fmt.Sprintf("%d of %d pixels differ from the device frame", diff, len(pix)))

	report.Compare(os.Stdout, par, seq)
	return nil
}

func savePNG(path string, pal palette.Palette, r *mandel.Result) error {
	img, err := pal.Image(r.Params.Width, r.Params.Height, r.Pix)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return png.Encode(f, img)
}
