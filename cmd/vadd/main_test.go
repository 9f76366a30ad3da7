package main

import (
	"testing"

	"clbench/pkg/vadd"

	"github.com/stretchr/testify/assert"
)

func TestRejectsLength(t *testing.T) {
	for _, arg := range []string{"--length=-1", "--length=0"} {
		err := newApp().Run([]string{"vadd", arg})
		assert.ErrorIs(t, err, vadd.ErrLength, arg)
	}
}
