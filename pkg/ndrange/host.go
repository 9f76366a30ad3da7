package ndrange

import (
	"context"
	"log"
	"runtime"
	"sync"
	"time"
)

// DefaultMaxWorkGroupSize mirrors the CL_KERNEL_WORK_GROUP_SIZE most GPUs
// report for the demo kernels
const DefaultMaxWorkGroupSize = 256

// Info describes a compute device the way the sizing arithmetic needs it
type Info struct {
	Name             string
	Vendor           string
	ComputeUnits     int
	MaxWorkGroupSize int
}

// Host runs kernels on the CPU. Work-groups are spread over Workers
// goroutines; the work-items of a group run one after the other, stage by
// stage, on the goroutine that owns the group.
type Host struct {
	Workers          int
	MaxWorkGroupSize int
	Verbose          bool
}

// NewHost returns a host executor with one worker per CPU
func NewHost() *Host {
	return &Host{
		Workers:          runtime.NumCPU(),
		MaxWorkGroupSize: DefaultMaxWorkGroupSize,
	}
}

// Info reports the host as a device. Each worker counts as a compute unit.
func (h *Host) Info() Info {
	return Info{
		Name:             "host (" + runtime.GOARCH + ")",
		Vendor:           "Go " + runtime.Version(),
		ComputeUnits:     h.workers(),
		MaxWorkGroupSize: h.maxWorkGroupSize(),
	}
}

func (h *Host) workers() int {
	if h.Workers <= 0 {
		return runtime.NumCPU()
	}
	return h.Workers
}

func (h *Host) maxWorkGroupSize() int {
	if h.MaxWorkGroupSize <= 0 {
		return DefaultMaxWorkGroupSize
	}
	return h.MaxWorkGroupSize
}

// Run launches kernel k over r and blocks until every work-group finished.
// It returns the time spent executing the kernel. A cancelled context stops
// the launch between work-groups and its error is returned.
func (h *Host) Run(ctx context.Context, k Kernel, r Range) (time.Duration, error) {
	r, err := r.validate(h.maxWorkGroupSize())
	if err != nil {
		return 0, err
	}

	groups := r.Groups()
	total := groups.Count()

	workers := h.workers()
	if total < workers {
		workers = total
	}
	perWorker := (total + workers - 1) / workers

	ts := time.Now()
	wg := &sync.WaitGroup{}

	for w := 0; w < workers; w++ {
		first := w * perWorker
		last := first + perWorker
		if last > total {
			last = total
		}
		if first >= last {
			break
		}

		wg.Add(1)
		go func(first, last int) {
			defer wg.Done()
			h.runGroups(ctx, k, r, groups, first, last)
		}(first, last)
	}

	wg.Wait()
	elapsed := time.Since(ts)

	if err := ctx.Err(); err != nil {
		log.Println("[host]", k.Name, "aborted after", elapsed)
		return elapsed, err
	}

	if h.Verbose {
		log.Println("[host]", k.Name, "global", r.Global, "local", r.Local, "ran in", elapsed)
	}
	return elapsed, nil
}

func (h *Host) runGroups(ctx context.Context, k Kernel, r Range, groups Size, first, last int) {
	var local []float64
	if k.LocalMem > 0 {
		local = make([]float64, k.LocalMem)
	}

	it := Item{
		GlobalSize: r.Global,
		LocalSize:  r.Local,
		NumGroups:  groups,
	}

	for g := first; g < last; g++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		for i := range local {
			local[i] = 0
		}

		it.Group = Size{X: g % groups.X, Y: g / groups.X}

		for _, stage := range k.Stages {
			for ly := 0; ly < r.Local.Y; ly++ {
				for lx := 0; lx < r.Local.X; lx++ {
					it.Local = Size{X: lx, Y: ly}
					it.Global = Size{
						X: it.Group.X*r.Local.X + lx,
						Y: it.Group.Y*r.Local.Y + ly,
					}
					stage(it, local)
				}
			}
		}
	}
}
