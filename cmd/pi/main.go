package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clbench/pkg/pi"
	"clbench/pkg/report"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	godotenv.Load()

	app := &cli.App{
		Name:  "pi",
		Usage: "integrate 4/(1+x²) over [0, 1] on the compute device",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "total", Value: pi.DefaultTotalIter, Usage: "total integration steps", EnvVars: []string{"CLB_PI_TOTAL"}},
			&cli.IntFlag{Name: "per-item", Value: pi.DefaultItemIter, Usage: "steps summed by each work-item", EnvVars: []string{"CLB_PI_PER_ITEM"}},
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

	total := c.Int("total")

	done := report.Spin("integrating")
	r, err := pi.Integrate(ctx, total, c.Int("per-item"))
	done()
	if err != nil {
		return err
	}

	fmt.Printf("Total iter : %d || Nstep : %d\n", total, r.Iterations)
	fmt.Println("", r.Partition)

	ts := time.Now()
	seq := pi.IntegrateSequential(r.Iterations)

	report.Compare(os.Stdout,
		&report.Report{
			Title:      "PAR MODE",
			Device:     r.Device,
			Iterations: r.Iterations,
			Label:      "Pi",
			Value:      r.Pi,
			Wall:       r.Wall,
			Profiled:   r.Profiled,
		},
		&report.Report{
			Title:      "SEQ MODE",
			Iterations: r.Iterations,
			Label:      "Pi",
			Value:      seq,
			Wall:       time.Since(ts),
		},
	)

	return nil
}
