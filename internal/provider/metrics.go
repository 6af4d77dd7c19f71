package provider

import "math/rand/v2"

// UtilizationMetrics is a mock resource-utilization snapshot, matching the
// ranges the dashboard expects.
type UtilizationMetrics struct {
	CPUPercent    int `json:"cpu_percent"`
	MemoryPercent int `json:"memory_percent"`
	DiskPercent   int `json:"disk_percent"`
}

// SampleMetrics returns a fresh mock utilization sample: CPU 10–90%,
// memory 20–80%, disk 5–70%.
func SampleMetrics() UtilizationMetrics {
	return UtilizationMetrics{
		CPUPercent:    10 + rand.IntN(81),
		MemoryPercent: 20 + rand.IntN(61),
		DiskPercent:   5 + rand.IntN(66),
	}
}
