package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const (
	bytesPerGB = 1 << 30

	// cpuSampleWindow is how long CPU usage is measured per reading.
	cpuSampleWindow = time.Second
)

var (
	// ErrPathNotFound is returned when a configured disk path does not exist
	// or is not a directory.
	ErrPathNotFound = errors.New("disk path not found or is not a directory")

	// ErrPermissionDenied is returned when a disk path cannot be inspected.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoGPU is returned by GPU readers when no NVIDIA device is usable.
	ErrNoGPU = errors.New("no NVIDIA GPU available")
)

// Reading is a single numeric sample for one resource.
// Value is nil when the probe produced no number.
type Reading struct {
	Value *float64
	// Label names the device the value came from (disk path, CPU brand, GPU name).
	Label string
	// Detail holds extra figures for log lines, e.g. "total_gb", "free_gb".
	Detail map[string]float64
}

// Float returns a pointer to v for building Readings.
func Float(v float64) *float64 {
	return &v
}

// GPUReading groups the three GPU figures sampled in one driver call.
type GPUReading struct {
	Utilization Reading // percent busy
	Memory      Reading // percent of memory in use
	Temperature Reading // degrees Celsius
}

// System reads host resources through gopsutil.
// All exported methods are safe for concurrent use.
type System struct {
	gpu GPU

	cpuOnce  sync.Once
	cpuBrand string

	// Collection functions; replaced in tests.
	getDiskUsage func(ctx context.Context, path string) (*disk.UsageStat, error)
	getCPU       func(ctx context.Context, interval time.Duration, percpu bool) ([]float64, error)
	getCPUInfo   func(ctx context.Context) ([]cpu.InfoStat, error)
	getMem       func(ctx context.Context) (*mem.VirtualMemoryStat, error)
	getHost      func(ctx context.Context) (*host.InfoStat, error)
	statPath     func(path string) (os.FileInfo, error)
}

// NewSystem returns a System prober. gpu may be nil when GPU monitoring is
// unavailable; GPU then fails with ErrNoGPU.
func NewSystem(gpu GPU) *System {
	return &System{
		gpu:          gpu,
		getDiskUsage: disk.UsageWithContext,
		getCPU:       cpu.PercentWithContext,
		getCPUInfo:   cpu.InfoWithContext,
		getMem:       mem.VirtualMemoryWithContext,
		getHost:      host.InfoWithContext,
		statPath:     os.Stat,
	}
}

// Disk returns the percentage of free space on the filesystem holding path.
func (s *System) Disk(ctx context.Context, path string) (Reading, error) {
	fi, err := s.statPath(path)
	if err != nil || !fi.IsDir() {
		slog.Error("probe: disk path not found or is not a directory", "path", path)
		return Reading{Label: path}, fmt.Errorf("probe: disk %q: %w", path, ErrPathNotFound)
	}

	du, err := s.getDiskUsage(ctx, path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			slog.Error("probe: permission denied", "path", path)
			return Reading{Label: path}, fmt.Errorf("probe: disk %q: %w: %w", path, ErrPermissionDenied, err)
		}
		slog.Error("probe: os error when retrieving disk usage", "path", path, "err", err)
		return Reading{Label: path}, fmt.Errorf("probe: disk %q: %w", path, err)
	}
	if du.Total == 0 {
		return Reading{Label: path}, fmt.Errorf("probe: disk %q reports zero capacity", path)
	}

	total := float64(du.Total) / bytesPerGB
	free := float64(du.Free) / bytesPerGB
	return Reading{
		Value: Float(free / total * 100),
		Label: path,
		Detail: map[string]float64{
			"total_gb": total,
			"free_gb":  free,
		},
	}, nil
}

// CPU returns system-wide CPU utilization sampled over one second.
func (s *System) CPU(ctx context.Context) (Reading, error) {
	pcts, err := s.getCPU(ctx, cpuSampleWindow, false)
	if err != nil {
		slog.Error("probe: failed to read cpu usage", "err", err)
		return Reading{}, fmt.Errorf("probe: cpu: %w", err)
	}
	if len(pcts) == 0 {
		return Reading{}, fmt.Errorf("probe: cpu: no data returned")
	}
	return Reading{Value: Float(pcts[0]), Label: s.brand(ctx)}, nil
}

// brand returns the CPU model name, looked up once.
func (s *System) brand(ctx context.Context) string {
	s.cpuOnce.Do(func() {
		infos, err := s.getCPUInfo(ctx)
		if err != nil || len(infos) == 0 {
			s.cpuBrand = "CPU"
			return
		}
		s.cpuBrand = infos[0].ModelName
	})
	return s.cpuBrand
}

// RAM returns the percentage of physical memory in use.
func (s *System) RAM(ctx context.Context) (Reading, error) {
	vm, err := s.getMem(ctx)
	if err != nil {
		slog.Error("probe: failed to read memory usage", "err", err)
		return Reading{}, fmt.Errorf("probe: ram: %w", err)
	}
	return Reading{
		Value:  Float(vm.UsedPercent),
		Label:  "RAM",
		Detail: map[string]float64{"total_gb": float64(vm.Total) / bytesPerGB},
	}, nil
}

// GPU returns utilization, memory use and temperature of the first GPU.
func (s *System) GPU(ctx context.Context) (GPUReading, error) {
	if s.gpu == nil {
		return GPUReading{}, ErrNoGPU
	}
	return s.gpu.Read(ctx)
}

// Hostname returns the host name reported by the OS.
func (s *System) Hostname(ctx context.Context) string {
	if info, err := s.getHost(ctx); err == nil && info.Hostname != "" {
		return info.Hostname
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "localhost"
}
