package common

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	InvalidCpuTemp = float32(-99.0)

	// ThermalZone is the RPi board temperature file.
	ThermalZone = "/sys/class/thermal/thermal_zone0/temp"
)

type CpuTempUpdateFunc func(cpuTemp float32)

// ReadCpuTemp reads a thermal zone file. Values above 1000 are
// millidegrees.
func ReadCpuTemp(path string) float32 {
	temp, err := os.ReadFile(path)
	if err != nil {
		return InvalidCpuTemp
	}
	tInt, err := strconv.Atoi(strings.TrimSpace(string(temp)))
	if err != nil {
		return InvalidCpuTemp
	}
	if tInt > 1000 {
		return float32(tInt) / float32(1000.0)
	}
	return float32(tInt) // case where Temp is returned as simple integer
}

/* CpuTempMonitor() reads the board temperature every second and calls a
callback until ctx is done. It runs as its own goroutine because the RPi
temperature file often hangs for quite some time when read.  */
func CpuTempMonitor(ctx context.Context, path string, updater CpuTempUpdateFunc) {
	timer := time.NewTicker(1 * time.Second)
	defer timer.Stop()
	for {
		if t := ReadCpuTemp(path); IsCPUTempValid(t) {
			updater(t)
		}
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}
}

// Check if CPU temperature is valid. Assume <= 0 is invalid.
func IsCPUTempValid(cpuTemp float32) bool {
	return cpuTemp > 0
}
