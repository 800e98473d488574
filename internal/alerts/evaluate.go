package alerts

import (
	"errors"
	"fmt"
	"math"

	"github.com/obsidianstack/hostwatch/internal/probe"
)

var (
	// ErrInvalidReading is returned for a missing, NaN, infinite or
	// (where not permitted) negative reading.
	ErrInvalidReading = errors.New("invalid reading")

	// ErrUnknownKind is returned for a Kind outside the defined set.
	ErrUnknownKind = errors.New("unknown resource kind")

	// ErrNoThreshold is returned when thresholds has no entry for the kind.
	ErrNoThreshold = errors.New("no threshold configured")
)

// Outcome is the verdict for one reading.
type Outcome struct {
	Healthy   bool
	Threshold float64
	Value     float64
}

// Evaluate decides whether reading is healthy for kind.
//
// Disk is unhealthy when percent free <= threshold. Every other kind is
// unhealthy when the reading >= threshold.
func Evaluate(kind Kind, reading probe.Reading, thresholds Thresholds) (Outcome, error) {
	info, ok := kindTable[kind]
	if !ok {
		return Outcome{}, fmt.Errorf("alerts: %w: %d", ErrUnknownKind, int(kind))
	}
	limit, ok := thresholds[kind]
	if !ok {
		return Outcome{}, fmt.Errorf("alerts: %s: %w", kind, ErrNoThreshold)
	}
	if reading.Value == nil {
		return Outcome{Threshold: limit}, fmt.Errorf("alerts: %s: %w: no value", kind, ErrInvalidReading)
	}

	v := *reading.Value
	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		return Outcome{Threshold: limit}, fmt.Errorf("alerts: %s: %w: %v", kind, ErrInvalidReading, v)
	case v < 0 && !info.allowNegative:
		return Outcome{Threshold: limit}, fmt.Errorf("alerts: %s: %w: negative value %v", kind, ErrInvalidReading, v)
	}

	return Outcome{
		Healthy:   !compareFloat(v, info.failOp, limit),
		Threshold: limit,
		Value:     v,
	}, nil
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
