package models

import "time"

// SystemStats is a sample of host resource usage.
type SystemStats struct {
	CPUPercent    float64   `json:"cpuPercent"`
	MemoryPercent float64   `json:"memoryPercent"`
	MemoryUsedMB  uint64    `json:"memoryUsedMb"`
	MemoryTotalMB uint64    `json:"memoryTotalMb"`
	UptimeSeconds uint64    `json:"uptimeSeconds"`
	Goroutines    int       `json:"goroutines"`
	SampledAt     time.Time `json:"sampledAt"`
}

// AdminStats is the admin tab overview.
type AdminStats struct {
	TotalUsers    int          `json:"totalUsers"`
	TotalAnalyses int          `json:"totalAnalyses"`
	AverageScore  float64      `json:"averageScore"`
	System        *SystemStats `json:"system,omitempty"`
}
