//go:build windows

package preflight

import "github.com/StackExchange/wmi"

type win32VideoController struct {
	Name       string
	AdapterRAM uint32
}

// queryPlatformGPUs falls back to WMI for adapters the NVIDIA tool does
// not report. AdapterRAM caps at 4 GB, a WMI limitation; the name is the
// useful part here.
func queryPlatformGPUs() []GPUInfo {
	var controllers []win32VideoController
	if err := wmi.Query("SELECT Name, AdapterRAM FROM Win32_VideoController", &controllers); err != nil {
		return nil
	}

	gpus := make([]GPUInfo, 0, len(controllers))
	for _, c := range controllers {
		if c.Name == "" {
			continue
		}
		gpus = append(gpus, GPUInfo{Name: c.Name, MemoryMB: uint64(c.AdapterRAM) / (1024 * 1024)})
	}
	return gpus
}
