package probe

// gpuReading converts raw driver figures into the three GPU readings.
// A zero memory total leaves the memory reading without a value.
func gpuReading(name string, utilPct, memUsed, memTotal, tempC float64) GPUReading {
	mem := Reading{
		Label:  name,
		Detail: map[string]float64{"total_gb": memTotal / bytesPerGB},
	}
	if memTotal > 0 {
		mem.Value = Float(memUsed / memTotal * 100)
	}
	return GPUReading{
		Utilization: Reading{Value: Float(utilPct), Label: name},
		Memory:      mem,
		Temperature: Reading{Value: Float(tempC), Label: name},
	}
}
