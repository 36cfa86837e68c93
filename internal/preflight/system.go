package preflight

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

const gib = 1024 * 1024 * 1024

// checkMemory compares installed memory against the advisory minimum.
// Talking-head inference is memory hungry, but the threshold only warns.
func checkMemory(minGB int) Result {
	res := Result{Name: "memory"}

	vm, err := mem.VirtualMemory()
	if err != nil {
		res.Status = StatusWarn
		res.Detail = fmt.Sprintf("could not query memory: %v", err)
		return res
	}

	totalGB := float64(vm.Total) / gib
	res.Detail = fmt.Sprintf("%.1f GB total, %.1f GB available", totalGB, float64(vm.Available)/gib)

	if minGB > 0 && totalGB < float64(minGB) {
		res.Status = StatusWarn
		res.Detail += fmt.Sprintf(" (below recommended %d GB)", minGB)
		return res
	}

	res.Status = StatusOK
	return res
}

// checkDisk verifies free space on the volume holding the launcher,
// where logs and downloaded model weights end up.
func checkDisk(dir string, minGB int) Result {
	res := Result{Name: "disk"}

	usage, err := disk.Usage(dir)
	if err != nil {
		res.Status = StatusWarn
		res.Detail = fmt.Sprintf("could not query disk usage for %s: %v", dir, err)
		return res
	}

	freeGB := float64(usage.Free) / gib
	res.Detail = fmt.Sprintf("%.1f GB free of %.1f GB", freeGB, float64(usage.Total)/gib)

	if minGB > 0 && freeGB < float64(minGB) {
		res.Status = StatusWarn
		res.Detail += fmt.Sprintf(" (below recommended %d GB)", minGB)
		return res
	}

	res.Status = StatusOK
	return res
}

func checkCPU() Result {
	res := Result{Name: "cpu", Status: StatusOK}

	count, err := cpu.Counts(true)
	if err != nil {
		res.Status = StatusWarn
		res.Detail = fmt.Sprintf("could not query CPU: %v", err)
		return res
	}

	res.Detail = fmt.Sprintf("%d logical cores", count)
	if info, err := cpu.Info(); err == nil && len(info) > 0 && info[0].ModelName != "" {
		res.Detail = fmt.Sprintf("%s, %d logical cores", info[0].ModelName, count)
	}
	return res
}
