package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clbench/pkg/report"
	"clbench/pkg/vadd"

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
	return &cli.App{
		Name:  "vadd",
		Usage: "add two random vectors on the compute device and check the result",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "length", Value: vadd.DefaultLength, Usage: "vector length", EnvVars: []string{"CLB_VADD_LENGTH"}},
			&cli.Float64Flag{Name: "tolerance", Value: vadd.DefaultTolerance, Usage: "largest deviation counted as correct", EnvVars: []string{"CLB_VADD_TOLERANCE"}},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed", EnvVars: []string{"CLB_SEED"}},
		},
		Action: run,
	}
}

func run(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	n := c.Int("length")
	if n <= 0 {
		return fmt.Errorf("%w: length %d", vadd.ErrLength, n)
	}
	tol := float32(c.Float64("tolerance"))
	rng := rand.New(rand.NewSource(c.Int64("seed")))

	a := vadd.Random(rng, n)
	b := vadd.Random(rng, n)

	done := report.Spin("adding vectors")
	r, err := vadd.Run(ctx, a, b)
	done()
	if err != nil {
		return err
	}

	fmt.Printf("\nThe kernel ran in %s\n", report.Millis(r.Wall))
	fmt.Printf("prof says %s\n", report.Millis(r.Profiled))

	correct, bad := vadd.Verify(a, b, r.C, tol)
	for _, m := range bad {
		fmt.Println(m)
	}

	ts := time.Now()
	if _, err := vadd.Sequential(a, b); err != nil {
		return err
	}

	report.Compare(os.Stdout,
		&report.Report{
			Title:      "PAR MODE",
			Device:     r.Device,
			Iterations: n,
			Wall:       r.Wall,
			Profiled:   r.Profiled,
			Lines:      []string{fmt.Sprintf("C = A+B:  %d out of %d results were correct.", correct, n)},
		},
		&report.Report{Title: "SEQ MODE", Iterations: n, Wall: time.Since(ts)},
	)

	if correct != n {
		return fmt.Errorf("%d of %d results out of tolerance", n-correct, n)
	}
	return nil
}
