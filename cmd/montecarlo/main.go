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

	"clbench/pkg/pi"
	"clbench/pkg/report"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	godotenv.Load()

	app := &cli.App{
		Name:  "montecarlo",
		Usage: "estimate pi from random points in the unit square on the compute device",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Value: "local", Usage: "local (per group reduction) or batched (single group tree reduction)", EnvVars: []string{"CLB_MC_MODE"}},
			&cli.IntFlag{Name: "samples", Value: pi.DefaultSamples, Usage: "points per round in local mode", EnvVars: []string{"CLB_MC_SAMPLES"}},
			&cli.IntFlag{Name: "rounds", Value: pi.DefaultRounds, Usage: "rounds in local mode", EnvVars: []string{"CLB_MC_ROUNDS"}},
			&cli.IntFlag{Name: "batch", Value: pi.DefaultBatch, Usage: "points per batch in batched mode, a power of two", EnvVars: []string{"CLB_MC_BATCH"}},
			&cli.IntFlag{Name: "batch-rounds", Value: pi.DefaultBatchRounds, Usage: "batches in batched mode", EnvVars: []string{"CLB_MC_BATCH_ROUNDS"}},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "random seed", EnvVars: []string{"CLB_SEED"}},
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

	seed := c.Int64("seed")

	var samples, rounds int
	var estimate func(context.Context, int, int, *rand.Rand) (*pi.Result, error)

	switch c.String("mode") {
	case "local":
		samples, rounds, estimate = c.Int("samples"), c.Int("rounds"), pi.Estimate
	case "batched":
		samples, rounds, estimate = c.Int("batch"), c.Int("batch-rounds"), pi.EstimateBatched
	default:
		return fmt.Errorf("unknown mode %q", c.String("mode"))
	}

	done := report.Spin("sampling")
	r, err := estimate(ctx, samples, rounds, rand.New(rand.NewSource(seed)))
	done()
	if err != nil {
		return err
	}

	fmt.Println("", r.Partition)

	ts := time.Now()
	seq, err := pi.EstimateSequential(samples, rounds, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	report.Compare(os.Stdout,
		&report.Report{
			Title:      "PAR MODE",
			Device:     r.Device,
			Iterations: r.Iterations,
			Label:      "Pi final",
			Value:      r.Pi,
			Wall:       r.Wall,
			Profiled:   r.Profiled,
		},
		&report.Report{
			Title:      "SEQ MODE",
			Iterations: samples * rounds,
			Label:      "Pi final",
			Value:      seq,
			Wall:       time.Since(ts),
		},
	)

	return nil
}
