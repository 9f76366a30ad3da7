package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clbench/pkg/farm"
	"clbench/pkg/mandel"
	"clbench/pkg/palette"
	"clbench/pkg/utils"

	"github.com/go-chi/valve"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	def := mandel.DefaultParams()

	app := &cli.App{
		Name:  "farm",
		Usage: "render Mandelbrot frames across hosts over NSQ",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "role", Usage: "store, request, generate", EnvVars: []string{"CLB_FARM_ROLE"}},
			&cli.StringFlag{Name: "frame", Usage: "frame id, defaults to the current time", EnvVars: []string{"CLB_FARM_FRAME"}},
			&cli.IntFlag{Name: "split", Value: 4, Usage: "request n by n patches", EnvVars: []string{"CLB_FARM_SPLIT"}},
			&cli.StringFlag{Name: "dir", Value: "frames", Usage: "store output directory", EnvVars: []string{"CLB_FARM_DIR"}},
			&cli.StringFlag{Name: "palette", Usage: "comma separated gradient stops", EnvVars: []string{"CLB_PALETTE"}},
			&cli.Float64Flag{Name: "x0", Value: def.X0, EnvVars: []string{"CLB_MANDEL_X0"}},
			&cli.Float64Flag{Name: "y0", Value: def.Y0, EnvVars: []string{"CLB_MANDEL_Y0"}},
			&cli.Float64Flag{Name: "step", Value: def.Step, EnvVars: []string{"CLB_MANDEL_STEP"}},
			&cli.IntFlag{Name: "max-iter", Value: int(def.MaxIter), EnvVars: []string{"CLB_MANDEL_MAX_ITER"}},
			&cli.IntFlag{Name: "width", Value: def.Width, EnvVars: []string{"CLB_MANDEL_WIDTH"}},
			&cli.IntFlag{Name: "height", Value: def.Height, EnvVars: []string{"CLB_MANDEL_HEIGHT"}},
		},
		Action: run,
	}

	if err := checkEnv(); err != nil {
		log.Fatal(err)
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	var err error
	var server farm.Starter
	v := valve.New()

	switch c.String("role") {
	case "sto", "store":
		pal, err := palette.Parse(c.String("palette"), mandel.Colors)
		if err != nil {
			return err
		}
		store := farm.NewStore(v, c.String("dir"), pal)
		defer store.Close()
		server = store
	case "req", "request":
		server, err = newRequester(c, v)
	case "gen", "generate":
		server, err = newGenerator(v)
	case "":
		return errors.New("role not specified")
	default:
		return fmt.Errorf("unknown role: %s", c.String("role"))
	}

	if err != nil {
		return err
	}
	server.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	log.Println("[farm] Waiting for signal to exit")

	select {
	case <-sigChan:
		log.Println("[farm] received termination request")
	case <-v.Stop():
		log.Println("[farm] process completed")
	}

	log.Println("[farm] Waiting for processes to finish...")
	v.Shutdown(10 * time.Second)
	log.Println("[farm] Processes complete.")
	return nil
}

func newRequester(c *cli.Context, v *valve.Valve) (farm.Starter, error) {
	maxIter, err := mandel.IterLimit(c.Int("max-iter"))
	if err != nil {
		return nil, err
	}

	frame := mandel.Params{
		X0:      c.Float64("x0"),
		Y0:      c.Float64("y0"),
		Step:    c.Float64("step"),
		MaxIter: maxIter,
		Width:   c.Int("width"),
		Height:  c.Int("height"),
	}

	id := c.String("frame")
	if id == "" {
		id = fmt.Sprintf("frame-%d", time.Now().Unix())
	}

	p, err := utils.NewProducer()
	if err != nil {
		return nil, err
	}

	return farm.NewRequester(v, p, id, frame, c.Int("split"))
}

func newGenerator(v *valve.Valve) (farm.Starter, error) {
	p, err := utils.NewProducer()
	if err != nil {
		return nil, err
	}
	return farm.NewGenerator(v, p), nil
}

func checkEnv() error {
	godotenv.Load()

	if os.Getenv("CLB_NSQLOOKUP") == "" {
		return errors.New("CLB_NSQLOOKUP is not exported")
	}

	return nil
}
