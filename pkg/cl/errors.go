// Package cl is a thin cgo binding over the handful of OpenCL calls the demo
// programs need: device discovery, program build, buffers, one NDRange
// launch and event profiling.
//
// The binding is only compiled with the BUILD_OPENCL tag:
//
//	go build -tags BUILD_OPENCL ./cmd/...
//
// It links against the system ICD loader (-lOpenCL, or the OpenCL framework
// on darwin).
package cl

import (
	"errors"
	"fmt"
)

// ErrNotBuilt is returned by code paths that need OpenCL when the binary was
// built without the BUILD_OPENCL tag
var ErrNotBuilt = errors.New("cl: OpenCL support requires building with -tags BUILD_OPENCL")

// ErrNoDevice is returned when no platform exposes a usable device
var ErrNoDevice = errors.New("cl: no OpenCL device found")

// Error is a failed OpenCL call
type Error struct {
	Op   string
	Code int
	Log  string // program build log, if any
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cl: %s failed: %s (%d)", e.Op, CodeName(e.Code), e.Code)
	if e.Log != "" {
		msg += "\n" + e.Log
	}
	return msg
}

var codeNames = map[int]string{
	0:   "CL_SUCCESS",
	-1:  "CL_DEVICE_NOT_FOUND",
	-2:  "CL_DEVICE_NOT_AVAILABLE",
	-3:  "CL_COMPILER_NOT_AVAILABLE",
	-4:  "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	-5:  "CL_OUT_OF_RESOURCES",
	-6:  "CL_OUT_OF_HOST_MEMORY",
	-7:  "CL_PROFILING_INFO_NOT_AVAILABLE",
	-11: "CL_BUILD_PROGRAM_FAILURE",
	-30: "CL_INVALID_VALUE",
	-32: "CL_INVALID_PLATFORM",
	-33: "CL_INVALID_DEVICE",
	-34: "CL_INVALID_CONTEXT",
	-36: "CL_INVALID_COMMAND_QUEUE",
	-38: "CL_INVALID_MEM_OBJECT",
	-44: "CL_INVALID_PROGRAM",
	-45: "CL_INVALID_PROGRAM_EXECUTABLE",
	-46: "CL_INVALID_KERNEL_NAME",
	-48: "CL_INVALID_KERNEL",
	-49: "CL_INVALID_ARG_INDEX",
	-50: "CL_INVALID_ARG_VALUE",
	-51: "CL_INVALID_ARG_SIZE",
	-52: "CL_INVALID_KERNEL_ARGS",
	-53: "CL_INVALID_WORK_DIMENSION",
	-54: "CL_INVALID_WORK_GROUP_SIZE",
	-55: "CL_INVALID_WORK_ITEM_SIZE",
	-56: "CL_INVALID_GLOBAL_OFFSET",
	-58: "CL_INVALID_EVENT",
	-63: "CL_INVALID_GLOBAL_WORK_SIZE",
}

// CodeName returns the symbolic name of an OpenCL status code
func CodeName(code int) string {
	if name, ok := codeNames[code]; ok {
		return name
	}
	return "CL_UNKNOWN_ERROR"
}
