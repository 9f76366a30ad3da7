//go:build BUILD_OPENCL
// +build BUILD_OPENCL

package cl

/*
#cgo CFLAGS: -DCL_TARGET_OPENCL_VERSION=120 -DCL_USE_DEPRECATED_OPENCL_1_2_APIS
#cgo linux LDFLAGS: -lOpenCL
#cgo windows LDFLAGS: -lOpenCL
#cgo darwin LDFLAGS: -framework OpenCL

#include <stdlib.h>
#ifdef __APPLE__
#include <OpenCL/opencl.h>
#else
#include <CL/cl.h>
#endif
*/
import "C"

import (
	"fmt"
	"log"
	"strings"
	"time"
	"unsafe"

	"clbench/pkg/ndrange"
)

// DeviceType selects which device Open looks for on the first platform
type DeviceType int

const (
	// GPU asks for a GPU and falls back to the CPU device when the platform
	// has none
	GPU DeviceType = iota
	// CPU asks for the platform's CPU device
	CPU
)

// MemFlag is a buffer access flag
type MemFlag int

const (
	ReadWrite MemFlag = C.CL_MEM_READ_WRITE
	ReadOnly  MemFlag = C.CL_MEM_READ_ONLY
	WriteOnly MemFlag = C.CL_MEM_WRITE_ONLY
)

// Device is an OpenCL device together with its context and a profiling
// enabled command queue
type Device struct {
	id    C.cl_device_id
	ctx   C.cl_context
	queue C.cl_command_queue
	info  ndrange.Info
}

// Kernel is a built program and one of its kernels
type Kernel struct {
	Name   string
	dev    *Device
	prog   C.cl_program
	kernel C.cl_kernel
}

// Buffer is device memory
type Buffer struct {
	dev  *Device
	mem  C.cl_mem
	Size int
}

// Event tracks one enqueued command
type Event struct {
	ev C.cl_event
}

func check(op string, st C.cl_int) error {
	if st == C.CL_SUCCESS {
		return nil
	}
	return &Error{Op: op, Code: int(st)}
}

// Open picks the first device of the requested type on the first platform
// and creates a context and command queue for it.
func Open(t DeviceType) (*Device, error) {
	var platform C.cl_platform_id
	var n C.cl_uint
	if st := C.clGetPlatformIDs(1, &platform, &n); st != C.CL_SUCCESS || n == 0 {
		if err := check("clGetPlatformIDs", st); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
		}
		return nil, ErrNoDevice
	}

	var id C.cl_device_id
	st := C.clGetDeviceIDs(platform, deviceType(t), 1, &id, nil)
	if st != C.CL_SUCCESS && t == GPU {
		log.Println("[cl] no GPU device, trying CPU:", CodeName(int(st)))
		st = C.clGetDeviceIDs(platform, C.CL_DEVICE_TYPE_CPU, 1, &id, nil)
	}
	if err := check("clGetDeviceIDs", st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoDevice, err)
	}

	d := &Device{id: id}

	d.ctx = C.clCreateContext(nil, 1, &d.id, nil, nil, &st)
	if err := check("clCreateContext", st); err != nil {
		return nil, err
	}

	d.queue = C.clCreateCommandQueue(d.ctx, d.id, C.CL_QUEUE_PROFILING_ENABLE, &st)
	if err := check("clCreateCommandQueue", st); err != nil {
		C.clReleaseContext(d.ctx)
		return nil, err
	}

	if err := d.query(); err != nil {
		d.Release()
		return nil, err
	}

	return d, nil
}

func deviceType(t DeviceType) C.cl_device_type {
	if t == CPU {
		return C.CL_DEVICE_TYPE_CPU
	}
	return C.CL_DEVICE_TYPE_GPU
}

func (d *Device) query() error {
	var err error
	if d.info.Name, err = d.infoString(C.CL_DEVICE_NAME); err != nil {
		return err
	}
	if d.info.Vendor, err = d.infoString(C.CL_DEVICE_VENDOR); err != nil {
		return err
	}

	var units C.cl_uint
	st := C.clGetDeviceInfo(d.id, C.CL_DEVICE_MAX_COMPUTE_UNITS, C.size_t(unsafe.Sizeof(units)), unsafe.Pointer(&units), nil)
	if err := check("clGetDeviceInfo(CL_DEVICE_MAX_COMPUTE_UNITS)", st); err != nil {
		return err
	}
	d.info.ComputeUnits = int(units)

	var wg C.size_t
	st = C.clGetDeviceInfo(d.id, C.CL_DEVICE_MAX_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(wg)), unsafe.Pointer(&wg), nil)
	if err := check("clGetDeviceInfo(CL_DEVICE_MAX_WORK_GROUP_SIZE)", st); err != nil {
		return err
	}
	d.info.MaxWorkGroupSize = int(wg)

	return nil
}

func (d *Device) infoString(param C.cl_device_info) (string, error) {
	buf := make([]byte, 1024)
	var size C.size_t
	st := C.clGetDeviceInfo(d.id, param, C.size_t(len(buf)), unsafe.Pointer(&buf[0]), &size)
	if err := check("clGetDeviceInfo", st); err != nil {
		return "", err
	}
	return strings.TrimRight(string(buf[:size]), "\x00"), nil
}

// Info returns the device name and limits
func (d *Device) Info() ndrange.Info {
	return d.info
}

// Release frees the command queue and context
func (d *Device) Release() {
	if d.queue != nil {
		C.clReleaseCommandQueue(d.queue)
		d.queue = nil
	}
	if d.ctx != nil {
		C.clReleaseContext(d.ctx)
		d.ctx = nil
	}
}

// Build compiles src for the device and creates the kernel called name. A
// failed build returns an *Error carrying the build log.
func (d *Device) Build(src, name string) (*Kernel, error) {
	csrc := C.CString(src)
	defer C.free(unsafe.Pointer(csrc))

	var st C.cl_int
	prog := C.clCreateProgramWithSource(d.ctx, 1, &csrc, nil, &st)
	if err := check("clCreateProgramWithSource", st); err != nil {
		return nil, err
	}

	if st := C.clBuildProgram(prog, 1, &d.id, nil, nil, nil); st != C.CL_SUCCESS {
		err := &Error{Op: "clBuildProgram", Code: int(st), Log: d.buildLog(prog)}
		C.clReleaseProgram(prog)
		return nil, err
	}

	cname := C.CString(name)
	defer C.free(unsafe.Pointer(cname))

	kernel := C.clCreateKernel(prog, cname, &st)
	if err := check("clCreateKernel("+name+")", st); err != nil {
		C.clReleaseProgram(prog)
		return nil, err
	}

	return &Kernel{Name: name, dev: d, prog: prog, kernel: kernel}, nil
}

func (d *Device) buildLog(prog C.cl_program) string {
	var size C.size_t
	if C.clGetProgramBuildInfo(prog, d.id, C.CL_PROGRAM_BUILD_LOG, 0, nil, &size) != C.CL_SUCCESS || size == 0 {
		return ""
	}

	buf := make([]byte, int(size))
	if C.clGetProgramBuildInfo(prog, d.id, C.CL_PROGRAM_BUILD_LOG, size, unsafe.Pointer(&buf[0]), nil) != C.CL_SUCCESS {
		return ""
	}
	return strings.TrimRight(string(buf), "\x00")
}

// WorkGroupSize is CL_KERNEL_WORK_GROUP_SIZE for the kernel on its device
func (k *Kernel) WorkGroupSize() (int, error) {
	var size C.size_t
	st := C.clGetKernelWorkGroupInfo(k.kernel, k.dev.id, C.CL_KERNEL_WORK_GROUP_SIZE, C.size_t(unsafe.Sizeof(size)), unsafe.Pointer(&size), nil)
	if err := check("clGetKernelWorkGroupInfo", st); err != nil {
		return 0, err
	}
	return int(size), nil
}

func (k *Kernel) setArg(i int, size C.size_t, value unsafe.Pointer) error {
	st := C.clSetKernelArg(k.kernel, C.cl_uint(i), size, value)
	return check(fmt.Sprintf("clSetKernelArg(%s, %d)", k.Name, i), st)
}

// SetBufferArg binds a buffer to argument i
func (k *Kernel) SetBufferArg(i int, b *Buffer) error {
	return k.setArg(i, C.size_t(unsafe.Sizeof(b.mem)), unsafe.Pointer(&b.mem))
}

// SetFloat64Arg binds a double to argument i
func (k *Kernel) SetFloat64Arg(i int, v float64) error {
	cv := C.cl_double(v)
	return k.setArg(i, C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
}

// SetUint32Arg binds an unsigned int to argument i
func (k *Kernel) SetUint32Arg(i int, v uint32) error {
	cv := C.cl_uint(v)
	return k.setArg(i, C.size_t(unsafe.Sizeof(cv)), unsafe.Pointer(&cv))
}

// SetLocalArg reserves size bytes of __local memory for argument i
func (k *Kernel) SetLocalArg(i int, size int) error {
	return k.setArg(i, C.size_t(size), nil)
}

// Release frees the kernel and its program
func (k *Kernel) Release() {
	C.clReleaseKernel(k.kernel)
	C.clReleaseProgram(k.prog)
}

// NewBuffer allocates size bytes of device memory
func (d *Device) NewBuffer(flags MemFlag, size int) (*Buffer, error) {
	var st C.cl_int
	mem := C.clCreateBuffer(d.ctx, C.cl_mem_flags(flags), C.size_t(size), nil, &st)
	if err := check("clCreateBuffer", st); err != nil {
		return nil, err
	}
	return &Buffer{dev: d, mem: mem, Size: size}, nil
}

// Release frees the device memory
func (b *Buffer) Release() {
	C.clReleaseMemObject(b.mem)
}

func (b *Buffer) write(p unsafe.Pointer, size int) error {
	st := C.clEnqueueWriteBuffer(b.dev.queue, b.mem, C.CL_TRUE, 0, C.size_t(size), p, 0, nil, nil)
	return check("clEnqueueWriteBuffer", st)
}

func (b *Buffer) read(p unsafe.Pointer, size int) error {
	st := C.clEnqueueReadBuffer(b.dev.queue, b.mem, C.CL_TRUE, 0, C.size_t(size), p, 0, nil, nil)
	return check("clEnqueueReadBuffer", st)
}

// WriteFloat32 blocks until data is copied to the buffer
func (b *Buffer) WriteFloat32(data []float32) error {
	if len(data) == 0 {
		return nil
	}
	return b.write(unsafe.Pointer(&data[0]), len(data)*4)
}

// WriteFloat64 blocks until data is copied to the buffer
func (b *Buffer) WriteFloat64(data []float64) error {
	if len(data) == 0 {
		return nil
	}
	return b.write(unsafe.Pointer(&data[0]), len(data)*8)
}

// ReadFloat32 blocks until the buffer is copied into data
func (b *Buffer) ReadFloat32(data []float32) error {
	if len(data) == 0 {
		return nil
	}
	return b.read(unsafe.Pointer(&data[0]), len(data)*4)
}

// ReadFloat64 blocks until the buffer is copied into data
func (b *Buffer) ReadFloat64(data []float64) error {
	if len(data) == 0 {
		return nil
	}
	return b.read(unsafe.Pointer(&data[0]), len(data)*8)
}

// ReadUint32 blocks until the buffer is copied into data
func (b *Buffer) ReadUint32(data []uint32) error {
	if len(data) == 0 {
		return nil
	}
	return b.read(unsafe.Pointer(&data[0]), len(data)*4)
}

// Enqueue launches k over global work-items in groups of local. A nil local
// lets the driver choose.
func (d *Device) Enqueue(k *Kernel, global, local []int) (*Event, error) {
	if len(global) == 0 || len(global) > 3 || (local != nil && len(local) != len(global)) {
		return nil, &Error{Op: "clEnqueueNDRangeKernel", Code: int(C.CL_INVALID_WORK_DIMENSION)}
	}

	gs := make([]C.size_t, len(global))
	for i := range global {
		gs[i] = C.size_t(global[i])
	}

	var lp *C.size_t
	if local != nil {
		ls := make([]C.size_t, len(local))
		for i := range local {
			ls[i] = C.size_t(local[i])
		}
		lp = &ls[0]
	}

	e := &Event{}
	st := C.clEnqueueNDRangeKernel(d.queue, k.kernel, C.cl_uint(len(gs)), nil, &gs[0], lp, 0, nil, &e.ev)
	if err := check("clEnqueueNDRangeKernel("+k.Name+")", st); err != nil {
		return nil, err
	}
	return e, nil
}

// Finish blocks until every queued command completed
func (d *Device) Finish() error {
	return check("clFinish", C.clFinish(d.queue))
}

// Duration waits for the event and returns the device side execution time
// from the profiling counters
func (e *Event) Duration() (time.Duration, error) {
	if err := check("clWaitForEvents", C.clWaitForEvents(1, &e.ev)); err != nil {
		return 0, err
	}

	var start, end C.cl_ulong
	st := C.clGetEventProfilingInfo(e.ev, C.CL_PROFILING_COMMAND_START, C.size_t(unsafe.Sizeof(start)), unsafe.Pointer(&start), nil)
	if err := check("clGetEventProfilingInfo(START)", st); err != nil {
		return 0, err
	}
	st = C.clGetEventProfilingInfo(e.ev, C.CL_PROFILING_COMMAND_END, C.size_t(unsafe.Sizeof(end)), unsafe.Pointer(&end), nil)
	if err := check("clGetEventProfilingInfo(END)", st); err != nil {
		return 0, err
	}

	return time.Duration(end - start), nil
}

// Release frees the event
func (e *Event) Release() {
	C.clReleaseEvent(e.ev)
}
