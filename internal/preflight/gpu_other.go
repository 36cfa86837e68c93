//go:build !windows

package preflight

// queryPlatformGPUs has no generic fallback outside Windows; NVIDIA
// detection already covers the devices that matter.
func queryPlatformGPUs() []GPUInfo {
	return nil
}
