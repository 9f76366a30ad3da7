package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrint(t *testing.T) {
	buf := &bytes.Buffer{}
	r := &Report{
		Title:      "PAR MODE",
		Iterations: 256000,
		Label:      "Pi final",
		Value:      3.14159,
		Wall:       1500 * time.Microsecond,
		Profiled:   250 * time.Microsecond,
	}
	r.Print(buf)

	out := buf.String()
	assert.Contains(t, out, " ==== PAR MODE ==== ")
	assert.Contains(t, out, "For 256000 iterations :")
	assert.Contains(t, out, "Pi final : 3.14159")
	assert.Contains(t, out, "Total Time 1.500ms")
	assert.Contains(t, out, "prof says 0.250ms")
}

func TestPrintWithoutValue(t *testing.T) {
	buf := &bytes.Buffer{}
	(&Report{Title: "SEQ MODE", Lines: []string{"C = A+B:  4 out of 4 results were correct."}}).Print(buf)

	assert.NotContains(t, buf.String(), "iterations")
	assert.NotContains(t, buf.String(), "prof says")
	assert.Contains(t, buf.String(), "results were correct")
}

func TestCompare(t *testing.T) {
	buf := &bytes.Buffer{}
	Compare(buf, &Report{Title: "PAR MODE", Wall: time.Second}, &Report{Title: "SEQ MODE", Wall: 4 * time.Second})
	assert.Contains(t, buf.String(), "speed-up : x4.00")
}

func TestSpeedup(t *testing.T) {
	assert.Equal(t, 2.0, Speedup(time.Second, 2*time.Second))
	assert.Zero(t, Speedup(0, time.Second))
}
