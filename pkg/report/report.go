// Package report prints benchmark results to the console.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Report is one timed run, parallel or sequential
type Report struct {
	Title      string
	Device     string
	Iterations int
	Label      string // name of Value, empty when there is no value
	Value      float64
	Wall       time.Duration
	Profiled   time.Duration
	Lines      []string
}

// Print writes the report block
func (r *Report) Print(w io.Writer) {
	fmt.Fprintf(w, "\n ==== %s ==== \n", r.Title)
	if r.Device != "" {
		fmt.Fprintf(w, "Device : %s\n", r.Device)
	}
	if r.Iterations > 0 {
		fmt.Fprintf(w, "For %d iterations :\n", r.Iterations)
	}
	if r.Label != "" {
		fmt.Fprintf(w, "%s : %.12g\n", r.Label, r.Value)
	}
	for _, l := range r.Lines {
		fmt.Fprintln(w, l)
	}
	fmt.Fprintf(w, "Total Time %s\n", Millis(r.Wall))
	if r.Profiled > 0 {
		fmt.Fprintf(w, "prof says %s\n", Millis(r.Profiled))
	}
}

// Compare prints the parallel and sequential reports followed by the
// speed-up of the parallel wall time
func Compare(w io.Writer, par, seq *Report) {
	par.Print(w)
	seq.Print(w)

	if par.Wall > 0 {
		fmt.Fprintf(w, "\nspeed-up : x%.2f\n", Speedup(par.Wall, seq.Wall))
	}
}

// Speedup is seq / par
func Speedup(par, seq time.Duration) float64 {
	if par <= 0 {
		return 0
	}
	return float64(seq) / float64(par)
}

// Millis formats d in milliseconds with three decimals
func Millis(d time.Duration) string {
	return fmt.Sprintf("%.3fms", float64(d)/float64(time.Millisecond))
}

// Spin shows a spinner on stderr until the returned func is called
func Spin(msg string) func() {
	spin := spinner.New(spinner.CharSets[43], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " " + msg
	spin.Start()
	return spin.Stop
}
