// Command viewer shows the Mandelbrot set in a native window. The mouse
// wheel zooms around the cursor, arrow keys or dragging pan, R resets the
// view and S saves the current frame as a bitmap.
package main

import (
	"context"
	"fmt"
	"image/color"
	"log"
	"os"
	"time"

	"clbench/pkg/bitmap"
	"clbench/pkg/mandel"
	"clbench/pkg/palette"
	"clbench/pkg/report"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

const panStep = 10

func main() {
	godotenv.Load()

	app := &cli.App{
		Name:  "viewer",
		Usage: "explore the Mandelbrot set in a window",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "width", Value: 1000, EnvVars: []string{"CLB_MANDEL_WIDTH"}},
			&cli.IntFlag{Name: "height", Value: 800, EnvVars: []string{"CLB_MANDEL_HEIGHT"}},
			&cli.IntFlag{Name: "max-iter", Value: 255, EnvVars: []string{"CLB_MANDEL_MAX_ITER"}},
			&cli.Float64Flag{Name: "zoom", Value: 1.25, Usage: "zoom factor per wheel notch"},
			&cli.StringFlag{Name: "palette", Usage: "comma separated gradient stops", EnvVars: []string{"CLB_PALETTE"}},
			&cli.StringFlag{Name: "dir", Value: ".", Usage: "where S saves frames"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type viewer struct {
	home, view mandel.Params
	pal        palette.Palette
	zoom       float64
	dir        string

	pix    []uint32
	colors []color.RGBA
	status string
}

func run(c *cli.Context) error {
	pal, err := palette.Parse(c.String("palette"), mandel.Colors)
	if err != nil {
		return err
	}

	maxIter, err := mandel.IterLimit(c.Int("max-iter"))
	if err != nil {
		return err
	}

	w, h := c.Int("width"), c.Int("height")
	home := mandel.Params{
		X0:      -2.5,
		Y0:      float64(h) / 2 * 3.5 / float64(w),
		Step:    3.5 / float64(w),
		MaxIter: maxIter,
		Width:   w,
		Height:  h,
	}
	if err := home.Validate(); err != nil {
		return err
	}

	v := &viewer{
		home:   home,
		view:   home,
		pal:    pal,
		zoom:   c.Float64("zoom"),
		dir:    c.String("dir"),
		colors: make([]color.RGBA, w*h),
	}

	rl.InitWindow(int32(w), int32(h), "Mandelbrot")
	defer rl.CloseWindow()
	rl.SetTargetFPS(60)

	img := rl.GenImageColor(w, h, palette.BackgroundColor)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(tex)

	dirty := true
	for !rl.WindowShouldClose() {
		if v.input() {
			dirty = true
		}

		if dirty {
			if err := v.render(context.Background()); err != nil {
				return err
			}
			rl.UpdateTexture(tex, v.colors)
			dirty = false
		}

		rl.BeginDrawing()
		rl.ClearBackground(rl.Black)
		rl.DrawTexture(tex, 0, 0, rl.White)
		rl.DrawFPS(10, 10)
		rl.DrawText(v.status, 10, 34, 20, rl.RayWhite)
		rl.EndDrawing()
	}

	return nil
}

// input applies this frame's keys and mouse to the view and reports
// whether it changed
func (v *viewer) input() bool {
	prev := v.view

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		factor := v.zoom
		if wheel < 0 {
			factor = 1 / v.zoom
		}
		v.view = v.view.Zoom(int(rl.GetMouseX()), int(rl.GetMouseY()), factor)
	}

	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		d := rl.GetMouseDelta()
		v.view = v.view.Pan(-int(d.X), -int(d.Y))
	}

	switch {
	case rl.IsKeyDown(rl.KeyLeft):
		v.view = v.view.Pan(-panStep, 0)
	case rl.IsKeyDown(rl.KeyRight):
		v.view = v.view.Pan(panStep, 0)
	case rl.IsKeyDown(rl.KeyUp):
		v.view = v.view.Pan(0, -panStep)
	case rl.IsKeyDown(rl.KeyDown):
		v.view = v.view.Pan(0, panStep)
	}

	if rl.IsKeyPressed(rl.KeyR) {
		v.view = v.home
	}

	if rl.IsKeyPressed(rl.KeyS) {
		v.save()
	}

	return v.view != prev
}

func (v *viewer) render(ctx context.Context) error {
	r, err := mandel.Render(ctx, v.view)
	if err != nil {
		return err
	}

	v.pix = r.Pix
	for i, n := range r.Pix {
		v.colors[i] = v.pal.At(n)
	}

	cx, cy := v.view.Point(v.view.Width/2, v.view.Height/2)
	v.status = fmt.Sprintf("(%.10f, %.10f) x%.0f %s", cx, cy, v.home.Step/v.view.Step, report.Millis(r.Wall))
	return nil
}

func (v *viewer) save() {
	path := fmt.Sprintf("%s/mandelbrot-%d.bmp", v.dir, time.Now().Unix())
	if err := bitmap.Save(path, v.view.Width, v.view.Height, v.pix, v.pal); err != nil {
		log.Println("[viewer] save failed:", err)
		return
	}
	log.Println("[viewer] saved", path)
}
