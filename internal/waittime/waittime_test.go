package waittime

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds   int64
		wantValue float64
		wantUnit  string
	}{
		{0, 0, "seconds"},
		{30, 30, "seconds"},
		{59, 59, "seconds"},
		{60, 1, "minutes"},
		{90, 1.5, "minutes"},
		{120, 2, "minutes"},
		{3599, 3599.0 / 60, "minutes"},
		{3600, 1, "hours"},
		{7200, 2, "hours"},
		{43200, 12, "hours"},
	}
	for _, tc := range tests {
		value, unit := Format(tc.seconds)
		assert.InDelta(t, tc.wantValue, value, 1e-9, "Format(%d) value", tc.seconds)
		assert.Equal(t, tc.wantUnit, unit, "Format(%d) unit", tc.seconds)
	}
}

func TestFormatDuration(t *testing.T) {
	value, unit := FormatDuration(2 * time.Minute)
	assert.Equal(t, 2.0, value)
	assert.Equal(t, "minutes", unit)
}

func TestEnforceMax(t *testing.T) {
	tests := []struct {
		name string
		in   int64
		want int64
	}{
		{"within limit", 1000, 1000},
		{"at limit", MaxSeconds, MaxSeconds},
		{"above limit falls back to one hour", 50000, 3600},
		{"just above limit", MaxSeconds + 1, FallbackSeconds},
		{"zero", 0, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, EnforceMax(tc.in))
		})
	}
}

func TestEnforceMaxDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, EnforceMaxDuration(1500*time.Millisecond))
	assert.Equal(t, 12*time.Hour, EnforceMaxDuration(12*time.Hour))
	assert.Equal(t, time.Hour, EnforceMaxDuration(13*time.Hour))
	assert.Equal(t, time.Hour, EnforceMaxDuration(12*time.Hour+500*time.Millisecond))
	assert.Equal(t, time.Hour, EnforceMaxDuration(time.Duration(math.MaxInt64)))
}
