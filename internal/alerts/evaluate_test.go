package alerts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidianstack/hostwatch/internal/config"
	"github.com/obsidianstack/hostwatch/internal/probe"
)

func reading(v float64) probe.Reading {
	return probe.Reading{Value: probe.Float(v)}
}

func allThresholds() Thresholds {
	return Thresholds{
		KindDisk:           5,
		KindCPU:            90,
		KindRAM:            85,
		KindGPUUtilization: 95,
		KindGPUMemory:      80,
		KindGPUTemperature: 83,
	}
}

func TestEvaluate_UsageKinds(t *testing.T) {
	th := allThresholds()
	for _, kind := range []Kind{KindCPU, KindRAM, KindGPUUtilization, KindGPUMemory, KindGPUTemperature} {
		limit := th[kind]
		tests := []struct {
			value   float64
			healthy bool
		}{
			{0, true},
			{limit - 0.01, true},
			{limit, false},
			{limit + 0.01, false},
			{100, false},
		}
		for _, tc := range tests {
			out, err := Evaluate(kind, reading(tc.value), th)
			require.NoError(t, err)
			assert.Equal(t, tc.healthy, out.Healthy, "%s at %v (threshold %v)", kind, tc.value, limit)
			assert.Equal(t, limit, out.Threshold)
			assert.Equal(t, tc.value, out.Value)
		}
	}
}

func TestEvaluate_Disk(t *testing.T) {
	th := allThresholds()
	tests := []struct {
		percentFree float64
		healthy     bool
	}{
		{0, false},
		{4, false},
		{5, false},
		{5.01, true},
		{80, true},
	}
	for _, tc := range tests {
		out, err := Evaluate(KindDisk, reading(tc.percentFree), th)
		require.NoError(t, err)
		assert.Equal(t, tc.healthy, out.Healthy, "disk at %v%% free", tc.percentFree)
	}
}

func TestEvaluate_InvalidReadings(t *testing.T) {
	th := allThresholds()
	tests := []struct {
		name    string
		kind    Kind
		reading probe.Reading
	}{
		{"absent value", KindCPU, probe.Reading{}},
		{"NaN", KindRAM, reading(math.NaN())},
		{"infinity", KindDisk, reading(math.Inf(1))},
		{"negative usage", KindCPU, reading(-1)},
		{"negative free space", KindDisk, reading(-3)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Evaluate(tc.kind, tc.reading, th)
			assert.ErrorIs(t, err, ErrInvalidReading)
			assert.False(t, out.Healthy)
		})
	}
}

func TestEvaluate_NegativeTemperatureAllowed(t *testing.T) {
	out, err := Evaluate(KindGPUTemperature, reading(-5), allThresholds())
	require.NoError(t, err)
	assert.True(t, out.Healthy)
}

func TestEvaluate_UnknownKindAndMissingThreshold(t *testing.T) {
	_, err := Evaluate(Kind(42), reading(1), allThresholds())
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Evaluate(KindCPU, reading(1), Thresholds{KindRAM: 90})
	assert.ErrorIs(t, err, ErrNoThreshold)
}

func TestThresholdsFromConfig(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	th := ThresholdsFromConfig(config.ThresholdsConfig{
		Disk: f(10), CPU: f(90), RAM: f(85), GPU: f(95), GPUMemory: f(80),
	})

	assert.Equal(t, 10.0, th[KindDisk])
	assert.Equal(t, 80.0, th[KindGPUMemory])
	_, ok := th[KindGPUTemperature]
	assert.False(t, ok)
}

func TestKind_Names(t *testing.T) {
	assert.Equal(t, "gpu_temp", KindGPUTemperature.String())
	assert.Equal(t, "GPU Memory Usage", KindGPUMemory.Resource())
	assert.Equal(t, "Disks (/data)", DiskResource("/data"))
	assert.True(t, KindGPUUtilization.IsGPU())
	assert.False(t, KindRAM.IsGPU())

	b, err := KindCPU.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "cpu", string(b))
}

func TestKind_UnmarshalText(t *testing.T) {
	var k Kind
	require.NoError(t, k.UnmarshalText([]byte("gpu_memory")))
	assert.Equal(t, KindGPUMemory, k)
	assert.ErrorIs(t, k.UnmarshalText([]byte("fan")), ErrUnknownKind)
}
