//go:build linux && cgo

package probe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlGPU reads device 0 through the NVIDIA Management Library.
type nvmlGPU struct {
	mu          sync.Mutex
	initialized bool
}

// NewGPU returns the NVML-backed GPU reader.
func NewGPU() GPU {
	return &nvmlGPU{}
}

// Present initializes NVML and reports whether an NVIDIA device is visible.
// A missing driver or shared library is logged and treated as no GPU.
func (g *nvmlGPU) Present(_ context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ret := nvml.Init(); ret != nvml.SUCCESS {
		switch ret {
		case nvml.ERROR_LIBRARY_NOT_FOUND, nvml.ERROR_DRIVER_NOT_LOADED:
			slog.Warn("probe: NVML shared library not found or NVIDIA driver not loaded, GPU will not be monitored")
		default:
			slog.Warn("probe: NVML init failed, GPU will not be monitored", "err", nvml.ErrorString(ret))
		}
		return false
	}

	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS || count == 0 {
		nvml.Shutdown()
		return false
	}
	for i := 0; i < count; i++ {
		dev, ret := nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			continue
		}
		name, ret := dev.GetName()
		if ret == nvml.SUCCESS && strings.HasPrefix(strings.ToLower(name), "nvidia") {
			g.initialized = true
			return true
		}
	}
	nvml.Shutdown()
	return false
}

// Read samples device 0.
func (g *nvmlGPU) Read(_ context.Context) (GPUReading, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized {
		return GPUReading{}, ErrNoGPU
	}

	dev, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		return GPUReading{}, fmt.Errorf("probe: gpu handle: %s", nvml.ErrorString(ret))
	}
	name, ret := dev.GetName()
	if ret != nvml.SUCCESS {
		name = "GPU"
	}
	util, ret := dev.GetUtilizationRates()
	if ret != nvml.SUCCESS {
		return GPUReading{}, fmt.Errorf("probe: gpu utilization: %s", nvml.ErrorString(ret))
	}
	memInfo, ret := dev.GetMemoryInfo()
	if ret != nvml.SUCCESS {
		return GPUReading{}, fmt.Errorf("probe: gpu memory: %s", nvml.ErrorString(ret))
	}
	temp, ret := dev.GetTemperature(nvml.TEMPERATURE_GPU)
	if ret != nvml.SUCCESS {
		return GPUReading{}, fmt.Errorf("probe: gpu temperature: %s", nvml.ErrorString(ret))
	}

	return gpuReading(name, float64(util.Gpu), float64(memInfo.Used), float64(memInfo.Total), float64(temp)), nil
}

// Close shuts NVML down if Present initialized it.
func (g *nvmlGPU) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.initialized {
		return nil
	}
	g.initialized = false
	if ret := nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("probe: nvml shutdown: %s", nvml.ErrorString(ret))
	}
	return nil
}
