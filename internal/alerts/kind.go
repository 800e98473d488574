package alerts

import (
	"fmt"

	"github.com/obsidianstack/hostwatch/internal/config"
)

// Kind identifies a monitored resource.
type Kind int

const (
	KindDisk Kind = iota
	KindCPU
	KindRAM
	KindGPUUtilization
	KindGPUMemory
	KindGPUTemperature
)

// Kinds lists every resource kind in check order.
var Kinds = []Kind{KindDisk, KindCPU, KindRAM, KindGPUUtilization, KindGPUMemory, KindGPUTemperature}

// kindInfo is the per-kind comparison table.
type kindInfo struct {
	key      string // config key and log value
	resource string // name used in alert text and cooldown keys
	failOp   string // operator under which the reading is unhealthy
	unit     string
	// allowNegative permits readings below zero (sub-zero temperatures).
	allowNegative bool
}

var kindTable = map[Kind]kindInfo{
	KindDisk:           {key: "disk", resource: "Disks", failOp: "<=", unit: "% free"},
	KindCPU:            {key: "cpu", resource: "CPU", failOp: ">=", unit: "%"},
	KindRAM:            {key: "ram", resource: "RAM", failOp: ">=", unit: "%"},
	KindGPUUtilization: {key: "gpu", resource: "GPU Usage", failOp: ">=", unit: "%"},
	KindGPUMemory:      {key: "gpu_memory", resource: "GPU Memory Usage", failOp: ">=", unit: "%"},
	KindGPUTemperature: {key: "gpu_temp", resource: "GPU Temperature", failOp: ">=", unit: "°C", allowNegative: true},
}

func (k Kind) String() string {
	if s, ok := kindTable[k]; ok {
		return s.key
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind as its config key.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a config key such as "gpu_temp".
func (k *Kind) UnmarshalText(b []byte) error {
	for kind, s := range kindTable {
		if s.key == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("alerts: %w: %q", ErrUnknownKind, string(b))
}

// Resource returns the human-readable resource name used in alerts.
func (k Kind) Resource() string {
	return kindTable[k].resource
}

// Unit returns the display unit for readings of this kind.
func (k Kind) Unit() string {
	return kindTable[k].unit
}

// IsGPU reports whether the kind is sampled from the GPU.
func (k Kind) IsGPU() bool {
	return k == KindGPUUtilization || k == KindGPUMemory || k == KindGPUTemperature
}

// Thresholds maps each kind to its configured limit.
type Thresholds map[Kind]float64

// ThresholdsFromConfig copies the set limits out of cfg. Unset limits are
// left out of the map.
func ThresholdsFromConfig(cfg config.ThresholdsConfig) Thresholds {
	t := make(Thresholds, len(Kinds))
	set := func(k Kind, v *float64) {
		if v != nil {
			t[k] = *v
		}
	}
	set(KindDisk, cfg.Disk)
	set(KindCPU, cfg.CPU)
	set(KindRAM, cfg.RAM)
	set(KindGPUUtilization, cfg.GPU)
	set(KindGPUMemory, cfg.GPUMemory)
	set(KindGPUTemperature, cfg.GPUTemp)
	return t
}
