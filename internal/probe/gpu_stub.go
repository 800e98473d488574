//go:build !linux || !cgo

package probe

import "context"

// noGPU is used on builds without NVML support.
type noGPU struct{}

// NewGPU returns a GPU that is never present on this build.
func NewGPU() GPU {
	return noGPU{}
}

func (noGPU) Present(context.Context) bool { return false }

func (noGPU) Read(context.Context) (GPUReading, error) { return GPUReading{}, ErrNoGPU }

func (noGPU) Close() error { return nil }
