package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// GPUInfo describes one detected display adapter.
type GPUInfo struct {
	Name     string
	MemoryMB uint64
}

// checkGPU reports the device inference will render on. Running without
// a GPU works but is impractically slow, so absence only warns.
func checkGPU(ctx context.Context) Result {
	res := Result{Name: "gpu"}

	gpus := queryNvidiaSMI(ctx)
	if len(gpus) == 0 {
		gpus = queryPlatformGPUs()
	}

	if len(gpus) == 0 {
		res.Status = StatusWarn
		res.Detail = "no GPU detected; inference will fall back to CPU"
		return res
	}

	parts := make([]string, len(gpus))
	for i, g := range gpus {
		if g.MemoryMB > 0 {
			parts[i] = fmt.Sprintf("%s (%d MB)", g.Name, g.MemoryMB)
		} else {
			parts[i] = g.Name
		}
	}
	res.Status = StatusOK
	res.Detail = strings.Join(parts, "; ")
	return res
}

// queryNvidiaSMI asks the NVIDIA driver tool for CUDA devices.
func queryNvidiaSMI(ctx context.Context) []GPUInfo {
	cmd := exec.CommandContext(ctx, "nvidia-smi", "--query-gpu=name,memory.total", "--format=csv,noheader,nounits")
	out, err := cmd.Output()
	if err != nil {
		return nil
	}
	return ParseNvidiaSMI(string(out))
}

// ParseNvidiaSMI parses one adapter per line of csv,noheader,nounits
// output, e.g. "NVIDIA GeForce RTX 4090, 24564".
func ParseNvidiaSMI(out string) []GPUInfo {
	var gpus []GPUInfo
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		name := line
		var memMB uint64
		if i := strings.LastIndex(line, ","); i >= 0 {
			if mb, err := strconv.ParseUint(strings.TrimSpace(line[i+1:]), 10, 64); err == nil {
				memMB = mb
				name = strings.TrimSpace(line[:i])
			}
		}
		if name == "" {
			continue
		}
		gpus = append(gpus, GPUInfo{Name: name, MemoryMB: memMB})
	}
	return gpus
}
