package telemetry

import (
	"github.com/shirou/gopsutil/v3/cpu"
)

// CPUPercent returns total CPU utilization since the previous call.
// Errors report as zero.
func CPUPercent() float64 {
	p, err := cpu.Percent(0, false)
	if err != nil || len(p) == 0 {
		return 0
	}
	return p[0]
}
