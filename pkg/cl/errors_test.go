package cl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := &Error{Op: "clEnqueueNDRangeKernel", Code: -54}
	assert.Equal(t, "cl: clEnqueueNDRangeKernel failed: CL_INVALID_WORK_GROUP_SIZE (-54)", err.Error())

	err = &Error{Op: "clBuildProgram", Code: -11, Log: "<kernel>:3:1: error: expected ';'"}
	assert.Contains(t, err.Error(), "CL_BUILD_PROGRAM_FAILURE")
	assert.Contains(t, err.Error(), "expected ';'")
}

func TestCodeName(t *testing.T) {
	assert.Equal(t, "CL_SUCCESS", CodeName(0))
	assert.Equal(t, "CL_UNKNOWN_ERROR", CodeName(-9999))
}
